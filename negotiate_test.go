package knorry

import (
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readBody(t *testing.T, body WireBody) string {
	t.Helper()
	r, _, _, err := body.Open()
	require.NoError(t, err)
	raw, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(raw)
}

func TestNegotiateByShape(t *testing.T) {
	n, err := Negotiate("hello", "", "")
	require.NoError(t, err)
	assert.Equal(t, TextBody("hello"), n.Body)
	assert.Equal(t, ContentTypeText, n.ContentType)
	assert.True(t, n.SetHeader)

	n, err = Negotiate(map[string]interface{}{"b": 2, "a": "x"}, "", "")
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":2}`, readBody(t, n.Body))
	assert.Equal(t, ContentTypeJSON, n.ContentType)

	n, err = Negotiate(url.Values{"q": {"go lang"}}, "", "")
	require.NoError(t, err)
	assert.Equal(t, "q=go+lang", readBody(t, n.Body))
	assert.Equal(t, ContentTypeURLEncoded, n.ContentType)

	n, err = Negotiate(NewTypedBlob([]byte("png"), "image/png"), "", "")
	require.NoError(t, err)
	assert.Equal(t, "image/png", n.ContentType)
	assert.True(t, n.SetHeader)

	n, err = Negotiate([]byte("raw"), "", "")
	require.NoError(t, err)
	assert.Equal(t, "raw", readBody(t, n.Body))
	assert.Equal(t, ContentTypeText, n.ContentType, "untyped blobs fall back to plain text")
	assert.True(t, n.SetHeader)
}

func TestNegotiateScalarsAlwaysJSON(t *testing.T) {
	for _, hint := range []DataType{"", DataTypeText, DataTypeJSON, "anything"} {
		n, err := Negotiate(42, "", hint)
		require.NoError(t, err)
		assert.Equal(t, TextBody("42"), n.Body, "hint %q", hint)
		assert.Equal(t, ContentTypeJSON, n.ContentType, "hint %q", hint)

		n, err = Negotiate(true, "", hint)
		require.NoError(t, err)
		assert.Equal(t, TextBody("true"), n.Body, "hint %q", hint)
	}

	n, err := Negotiate(2.5, "text/plain", "")
	require.NoError(t, err)
	assert.Equal(t, TextBody("2.5"), n.Body)
	assert.Equal(t, ContentTypeJSON, n.ContentType)
}

func TestNegotiateHint(t *testing.T) {
	n, err := Negotiate(map[string]interface{}{"a": "1", "b": 2}, "", DataTypeFormData)
	require.NoError(t, err)
	form, ok := n.Body.(*FormData)
	require.True(t, ok, "expected *FormData, got %T", n.Body)
	assert.False(t, n.SetHeader)
	assert.Empty(t, n.ContentType)
	a, _ := form.Get("a")
	b, _ := form.Get("b")
	assert.Equal(t, "1", a)
	assert.Equal(t, "2", b)

	n, err = Negotiate("a=1&b=2", "", DataTypeURLEncoded)
	require.NoError(t, err)
	assert.Equal(t, URLEncoded{"a": {"1"}, "b": {"2"}}, n.Body)
	assert.Equal(t, ContentTypeURLEncoded, n.ContentType)

	n, err = Negotiate("plain", "", DataTypeJSON)
	require.NoError(t, err)
	assert.Equal(t, TextBody(`"plain"`), n.Body)
	assert.Equal(t, ContentTypeJSON, n.ContentType)

	n, err = Negotiate(map[string]interface{}{"a": 1}, "", "weird")
	require.NoError(t, err)
	assert.Equal(t, TextBody(`{"a":1}`), n.Body)
	assert.Equal(t, ContentTypeText, n.ContentType)
}

func TestNegotiateURLEncodedTextNeverFails(t *testing.T) {
	tests := []struct {
		raw  string
		want URLEncoded
	}{
		{raw: "a=1;b=2", want: URLEncoded{"a": {"1;b=2"}}},
		{raw: "q=50%", want: URLEncoded{"q": {"50%"}}},
		{raw: "note=100% sure", want: URLEncoded{"note": {"100% sure"}}},
		{raw: "?x=a%20b%&flag&x=2", want: URLEncoded{"x": {"a b%", "2"}, "flag": {""}}},
		{raw: "name=go+lang", want: URLEncoded{"name": {"go lang"}}},
	}

	for _, tt := range tests {
		n, err := Negotiate(tt.raw, "application/x-www-form-urlencoded", "")
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, n.Body, "declared header, %q", tt.raw)
		assert.Equal(t, "application/x-www-form-urlencoded", n.ContentType)

		n, err = Negotiate(tt.raw, "", DataTypeURLEncoded)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, n.Body, "hint, %q", tt.raw)
		assert.Equal(t, ContentTypeURLEncoded, n.ContentType)
	}
}

func TestNegotiateFormDataRejectsNonObjects(t *testing.T) {
	for _, data := range []interface{}{"text", []interface{}{1, 2}, NewBlob([]byte("x"))} {
		_, err := Negotiate(data, "", DataTypeFormData)
		require.Error(t, err, "data %T", data)
		assert.True(t, errors.Is(err, ErrInvalidPayload), "expected ErrInvalidPayload, got %v", err)
	}

	_, err := Negotiate("text", "multipart/form-data", "")
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestNegotiateDeclaredWinsOverHint(t *testing.T) {
	n, err := Negotiate("x", "application/json", DataTypeText)
	require.NoError(t, err)
	assert.Equal(t, TextBody(`"x"`), n.Body)
	assert.Equal(t, "application/json", n.ContentType)

	n, err = Negotiate(map[string]interface{}{"a": "b c"}, "application/x-www-form-urlencoded; charset=UTF-8", DataTypeJSON)
	require.NoError(t, err)
	assert.Equal(t, "a=b+c", readBody(t, n.Body))
	assert.Equal(t, "application/x-www-form-urlencoded; charset=UTF-8", n.ContentType)

	n, err = Negotiate(map[string]interface{}{"a": "1"}, "Multipart/Form-Data", "")
	require.NoError(t, err)
	_, ok := n.Body.(*FormData)
	assert.True(t, ok)
	assert.False(t, n.SetHeader)

	n, err = Negotiate(NewTypedBlob([]byte("img"), "image/png"), "application/octet-stream", "")
	require.NoError(t, err)
	assert.Equal(t, "image/png", n.ContentType, "a typed blob keeps its own type")

	n, err = Negotiate("raw text", "text/csv", "")
	require.NoError(t, err)
	assert.Equal(t, TextBody("raw text"), n.Body)
	assert.Equal(t, "text/csv", n.ContentType)
}

func TestNegotiateStructs(t *testing.T) {
	type login struct {
		User string `json:"user"`
		Keep bool   `json:"keep"`
	}

	n, err := Negotiate(login{User: "gunnar", Keep: true}, "", "")
	require.NoError(t, err)
	assert.Equal(t, `{"user":"gunnar","keep":true}`, readBody(t, n.Body))

	n, err = Negotiate(&login{User: "gunnar"}, "", DataTypeURLEncoded)
	require.NoError(t, err)
	assert.Equal(t, "keep=false&user=gunnar", readBody(t, n.Body))
}

func TestDeclaredContentType(t *testing.T) {
	assert.Equal(t, "text/csv", declaredContentType(map[string]string{"content-type": "text/csv"}))
	assert.Equal(t, "text/csv", declaredContentType(map[string]string{"CONTENT-TYPE": "text/csv"}))
	assert.Empty(t, declaredContentType(map[string]string{"Accept": "text/csv"}))
	assert.Empty(t, declaredContentType(nil))
}

func TestMediaType(t *testing.T) {
	assert.Equal(t, "application/json", mediaType("Application/JSON; charset=utf8"))
	assert.Equal(t, "text/plain", mediaType("text/plain"))
	assert.True(t, strings.HasPrefix(mediaType("multipart/form-data; boundary=x"), "multipart/form-data"))
}

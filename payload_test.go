package knorry

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	type point struct{ X int }

	tests := []struct {
		data interface{}
		kind payloadKind
	}{
		{data: "s", kind: payloadText},
		{data: 1, kind: payloadNumber},
		{data: uint8(1), kind: payloadNumber},
		{data: 1.5, kind: payloadNumber},
		{data: true, kind: payloadBoolean},
		{data: []byte("b"), kind: payloadBlob},
		{data: NewBlob([]byte("b")), kind: payloadBlob},
		{data: Blob{Data: []byte("b")}, kind: payloadBlob},
		{data: url.Values{}, kind: payloadURLEncoded},
		{data: URLEncoded{}, kind: payloadURLEncoded},
		{data: NewFormData(), kind: payloadMultipart},
		{data: map[string]interface{}{}, kind: payloadObject},
		{data: point{X: 1}, kind: payloadObject},
		{data: []int{1}, kind: payloadObject},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.kind, classify(tt.data).kind, "%T", tt.data)
	}
}

func TestNewBlobSniffsType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	assert.Equal(t, "image/png", NewBlob(png).Type)
	assert.True(t, strings.HasPrefix(NewBlob([]byte("plain words")).Type, "text/plain"))
	assert.Equal(t, int64(11), NewBlob([]byte("plain words")).Size())
}

func TestFormDataEncode(t *testing.T) {
	form := NewFormData().
		Append("name", "knorry").
		AppendFile("file", "file.txt", NewTypedBlob([]byte("THIS IS TRUE"), "text/plain"))
	assert.Equal(t, 2, form.Len())

	var buf bytes.Buffer
	contentType, err := form.Encode(&buf)
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)
	require.NotEmpty(t, params["boundary"])

	reader := multipart.NewReader(&buf, params["boundary"])
	part, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "name", part.FormName())
	value, _ := io.ReadAll(part)
	assert.Equal(t, "knorry", string(value))

	part, err = reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "file", part.FormName())
	assert.Equal(t, "file.txt", part.FileName())
	content, _ := io.ReadAll(part)
	assert.Equal(t, "THIS IS TRUE", string(content))

	again, err := form.Encode(io.Discard)
	require.NoError(t, err)
	assert.Equal(t, contentType, again, "a form keeps its boundary once encoded")
}

func TestFormValue(t *testing.T) {
	assert.Equal(t, "null", formValue(nil))
	assert.Equal(t, "x", formValue("x"))
	assert.Equal(t, "2", formValue(float64(2)))
	assert.Equal(t, "0.25", formValue(0.25))
	assert.Equal(t, "7", formValue(7))
	assert.Equal(t, "true", formValue(true))
	assert.Equal(t, `{"a":1}`, formValue(map[string]int{"a": 1}))
	assert.Equal(t, `[1,2]`, formValue([]int{1, 2}))
}

type stringerPayload struct{}

func (stringerPayload) String() string { return "custom" }

func TestStringify(t *testing.T) {
	text, err := stringify(classify(stringerPayload{}))
	require.NoError(t, err)
	assert.Equal(t, "custom", text)

	text, err = stringify(classify(map[string]int{"a": 1}))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, text)

	text, err = stringify(classify(url.Values{"a": {"1"}}))
	require.NoError(t, err)
	assert.Equal(t, "a=1", text)
}

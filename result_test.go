package knorry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodedResponse(t *testing.T, raw string) *Response {
	t.Helper()
	headers := Headers{"content-type": "application/json"}
	data, present := Decode(raw, headers)
	return NewResponse(200, "OK", headers, data, present)
}

func TestNewResponseStatusBands(t *testing.T) {
	tests := []struct {
		status                           int
		successful, clientErr, serverErr bool
	}{
		{status: 200, successful: true},
		{status: 204, successful: true},
		{status: 301},
		{status: 401, clientErr: true},
		{status: 499, clientErr: true},
		{status: 500, serverErr: true},
		{status: 503, serverErr: true},
		{status: 0},
	}

	for _, tt := range tests {
		res := NewResponse(tt.status, "", nil, nil, false)
		assert.Equal(t, tt.successful, res.Successful, "status %d", tt.status)
		assert.Equal(t, tt.clientErr, res.ClientError, "status %d", tt.status)
		assert.Equal(t, tt.serverErr, res.ServerError, "status %d", tt.status)
		assert.NotNil(t, res.Headers)
		assert.False(t, res.Error)
	}
}

func TestSynthesizePlain(t *testing.T) {
	res := decodedResponse(t, `{"worked":true}`)
	result := Synthesize(res, false)

	require.NotNil(t, result)
	assert.Equal(t, KindPlain, result.Kind())
	assert.Same(t, res, result.Res())
	assert.Equal(t, res.Data, result.Plain())
	assert.True(t, result.Truthy())
}

func TestSynthesizeRoundTrip(t *testing.T) {
	bodies := []string{`{"worked":true}`, `[true,1,"a"]`, `42`, `true`, `"text"`, `null`}

	for _, raw := range bodies {
		res := decodedResponse(t, raw)
		result := Synthesize(res, true)
		require.NotNil(t, result, raw)

		assert.Equal(t, res.Data, result.Plain(), raw)
		assert.True(t, result.Equal(res.Data), raw)
		assert.Same(t, res, result.Res(), raw)
		assert.Equal(t, 200, result.Status, raw)
		assert.True(t, result.Successful, raw)
	}
}

func TestSynthesizeKinds(t *testing.T) {
	tests := []struct {
		raw  string
		kind Kind
	}{
		{raw: `{"a":1}`, kind: KindObject},
		{raw: `[1]`, kind: KindArray},
		{raw: `1.5`, kind: KindNumber},
		{raw: `false`, kind: KindBoolean},
		{raw: `"s"`, kind: KindText},
		{raw: `null`, kind: KindNull},
	}

	for _, tt := range tests {
		result := Synthesize(decodedResponse(t, tt.raw), true)
		require.NotNil(t, result, tt.raw)
		assert.Equal(t, tt.kind, result.Kind(), tt.raw)
	}
}

func TestSynthesizeAbsentBody(t *testing.T) {
	res := NewResponse(204, "No Content", nil, nil, false)

	assert.Nil(t, Synthesize(res, true))

	plain := Synthesize(res, false)
	require.NotNil(t, plain)
	assert.False(t, plain.HasData())
	assert.Equal(t, 204, plain.Status)
}

func TestResultText(t *testing.T) {
	res := NewResponse(200, "OK", Headers{"content-type": "text/html"}, "hello", true)
	result := Synthesize(res, true)

	assert.Equal(t, KindText, result.Kind())
	assert.Equal(t, "hello", result.String())
	assert.Equal(t, "hello!", result.String()+"!")
	assert.Equal(t, "hello", result.Plain())
	assert.Equal(t, 5, result.Len())
	assert.True(t, result.Equal("hello"))
	assert.False(t, result.Equal("other"))
	text, ok := result.Text()
	assert.True(t, ok)
	assert.Equal(t, "hello", text)
	assert.Equal(t, "text/html", result.Headers.Get("Content-Type"))

	_, ok = result.Number()
	assert.False(t, ok)
}

func TestResultNumber(t *testing.T) {
	result := Synthesize(decodedResponse(t, "42"), true)

	n, ok := result.Number()
	assert.True(t, ok)
	assert.Equal(t, float64(42), n)
	assert.True(t, result.Equal(42))
	assert.True(t, result.Equal(int64(42)))
	assert.False(t, result.Equal("42"))
	assert.Equal(t, "42", result.String())
	assert.True(t, result.Truthy())

	zero := Synthesize(decodedResponse(t, "0"), true)
	assert.False(t, zero.Truthy())
}

func TestResultContainers(t *testing.T) {
	obj := Synthesize(decodedResponse(t, `{"worked":true,"list":[1,2]}`), true)
	assert.Equal(t, true, obj.Get("worked"))
	assert.Nil(t, obj.Get("missing"))
	assert.Equal(t, 2, obj.Len())
	assert.True(t, obj.Equal(map[string]interface{}{"worked": true, "list": []interface{}{float64(1), float64(2)}}))
	assert.Equal(t, `{"list":[1,2],"worked":true}`, obj.String())

	arr := Synthesize(decodedResponse(t, `[true]`), true)
	assert.Equal(t, true, arr.Index(0))
	assert.Nil(t, arr.Index(1))
	assert.Nil(t, arr.Index(-1))
	assert.Equal(t, 1, arr.Len())
	assert.True(t, arr.Equal([]bool{true}))
	assert.Equal(t, "[true]", arr.String())
}

func TestResultTruthy(t *testing.T) {
	tests := []struct {
		raw   string
		truth bool
	}{
		{raw: `""`, truth: false},
		{raw: `"x"`, truth: true},
		{raw: `false`, truth: false},
		{raw: `true`, truth: true},
		{raw: `null`, truth: false},
		{raw: `[]`, truth: true},
		{raw: `{}`, truth: true},
	}

	for _, tt := range tests {
		result := Synthesize(decodedResponse(t, tt.raw), true)
		assert.Equal(t, tt.truth, result.Truthy(), tt.raw)
	}

	var missing *Result
	assert.False(t, missing.Truthy())
	assert.Equal(t, KindNull, missing.Kind())
}

func TestResultDecode(t *testing.T) {
	var body struct {
		Worked bool `json:"worked"`
	}
	result := Synthesize(decodedResponse(t, `{"worked":true}`), true)

	require.NoError(t, result.Decode(&body))
	assert.True(t, body.Worked)

	var missing *Result
	assert.Error(t, missing.Decode(&body))
}

func TestResultMarshalJSON(t *testing.T) {
	res := decodedResponse(t, `{"worked":true}`)

	raw, err := json.Marshal(Synthesize(res, true))
	require.NoError(t, err)
	assert.JSONEq(t, `{"worked":true}`, string(raw))

	raw, err = json.Marshal(Synthesize(res, false))
	require.NoError(t, err)
	var descriptor map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &descriptor))
	assert.Equal(t, float64(200), descriptor["status"])
	assert.Equal(t, map[string]interface{}{"worked": true}, descriptor["data"])
	assert.Equal(t, true, descriptor["successful"])
}

func TestFallback(t *testing.T) {
	result := Fallback(errors.New("boom"), "fallback")

	assert.True(t, result.Error)
	assert.Equal(t, "boom", result.ErrorMsg)
	assert.Equal(t, KindText, result.Kind())
	assert.Equal(t, "fallback", result.String())
	assert.True(t, result.HasData())
}

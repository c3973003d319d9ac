package knorry

import (
	"bytes"
	"encoding"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"reflect"
	"sort"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
)

// Blob is a binary payload with an optional media type.
type Blob struct {
	Data []byte
	Type string
}

// NewBlob wraps data and sniffs its media type.
func NewBlob(data []byte) *Blob {
	return &Blob{Data: data, Type: mimetype.Detect(data).String()}
}

// NewTypedBlob wraps data with an explicit media type.
func NewTypedBlob(data []byte, mediaType string) *Blob {
	return &Blob{Data: data, Type: mediaType}
}

// Size returns the number of bytes in the blob.
func (b *Blob) Size() int64 {
	return int64(len(b.Data))
}

// URLEncoded is a ready-made application/x-www-form-urlencoded payload.
type URLEncoded url.Values

type formField struct {
	name     string
	value    string
	filename string
	file     *Blob
}

// FormData is an ordered multipart/form-data payload. The boundary is chosen
// when the form is encoded, so callers never set the multipart header themselves.
type FormData struct {
	fields   []formField
	boundary string
}

// NewFormData returns an empty form.
func NewFormData() *FormData {
	return &FormData{}
}

// Append adds a text field.
func (f *FormData) Append(name, value string) *FormData {
	f.fields = append(f.fields, formField{name: name, value: value})
	return f
}

// AppendFile adds a file part.
func (f *FormData) AppendFile(name, filename string, file *Blob) *FormData {
	f.fields = append(f.fields, formField{name: name, filename: filename, file: file})
	return f
}

// Len returns the number of parts.
func (f *FormData) Len() int {
	return len(f.fields)
}

// Get returns the first text value stored under name.
func (f *FormData) Get(name string) (string, bool) {
	for _, field := range f.fields {
		if field.name == name && field.file == nil {
			return field.value, true
		}
	}
	return "", false
}

// Encode writes the multipart body and returns its Content-Type header value.
func (f *FormData) Encode(w io.Writer) (string, error) {
	mw := multipart.NewWriter(w)
	if f.boundary != "" {
		if err := mw.SetBoundary(f.boundary); err != nil {
			return "", err
		}
	} else {
		f.boundary = mw.Boundary()
	}

	for _, field := range f.fields {
		if field.file == nil {
			if err := mw.WriteField(field.name, field.value); err != nil {
				return "", err
			}
			continue
		}
		filename := field.filename
		if filename == "" {
			filename = "blob"
		}
		part, err := mw.CreateFormFile(field.name, filename)
		if err != nil {
			return "", err
		}
		if _, err := part.Write(field.file.Data); err != nil {
			return "", err
		}
	}

	if err := mw.Close(); err != nil {
		return "", err
	}
	return mw.FormDataContentType(), nil
}

// payloadKind is the closed set of payload shapes the negotiator dispatches on.
type payloadKind int

const (
	payloadText payloadKind = iota
	payloadNumber
	payloadBoolean
	payloadBlob
	payloadURLEncoded
	payloadMultipart
	payloadObject
)

func (k payloadKind) String() string {
	switch k {
	case payloadText:
		return "text"
	case payloadNumber:
		return "number"
	case payloadBoolean:
		return "boolean"
	case payloadBlob:
		return "blob"
	case payloadURLEncoded:
		return "urlencoded"
	case payloadMultipart:
		return "multipart"
	default:
		return "object"
	}
}

// payload is a request body classified once at the call boundary.
type payload struct {
	kind  payloadKind
	value interface{}
}

func classify(data interface{}) payload {
	switch v := data.(type) {
	case string:
		return payload{kind: payloadText, value: v}
	case []byte:
		return payload{kind: payloadBlob, value: &Blob{Data: v}}
	case *Blob:
		return payload{kind: payloadBlob, value: v}
	case Blob:
		return payload{kind: payloadBlob, value: &v}
	case url.Values:
		return payload{kind: payloadURLEncoded, value: URLEncoded(v)}
	case URLEncoded:
		return payload{kind: payloadURLEncoded, value: v}
	case *FormData:
		return payload{kind: payloadMultipart, value: v}
	case bool:
		return payload{kind: payloadBoolean, value: v}
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return payload{kind: payloadNumber, value: v}
	}
	return payload{kind: payloadObject, value: data}
}

// isPlainObject reports whether v can be walked as a set of own key/value pairs.
func isPlainObject(v interface{}) bool {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		return rv.Type().Key().Kind() == reflect.String
	case reflect.Struct:
		return true
	}
	return false
}

// objectEntries flattens a map or struct into sorted key/value pairs. Structs
// go through a JSON round trip so their json tags name the keys.
func objectEntries(v interface{}) ([]string, map[string]interface{}, error) {
	entries := map[string]interface{}{}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Map {
		iter := rv.MapRange()
		for iter.Next() {
			entries[iter.Key().String()] = iter.Value().Interface()
		}
	} else {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, nil, err
		}
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, nil, err
		}
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, entries, nil
}

// formValue renders one object value the way a form field carries it.
func formValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case []byte:
		return string(val)
	case float64:
		return formatNumber(val)
	case float32:
		return formatNumber(float64(val))
	case fmt.Stringer:
		return val.String()
	case encoding.TextMarshaler:
		if text, err := val.MarshalText(); err == nil {
			return string(text)
		}
	}
	if isPlainObject(v) || reflect.ValueOf(v).Kind() == reflect.Slice {
		if raw, err := json.Marshal(v); err == nil {
			return string(raw)
		}
	}
	return fmt.Sprint(v)
}

// formatNumber prints a float the shortest way that round-trips, without exponent
// for integral values.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// stringify gives the default textual representation of a payload.
func stringify(p payload) (string, error) {
	switch p.kind {
	case payloadText:
		return p.value.(string), nil
	case payloadBlob:
		return string(p.value.(*Blob).Data), nil
	case payloadURLEncoded:
		return url.Values(p.value.(URLEncoded)).Encode(), nil
	case payloadMultipart:
		var buf bytes.Buffer
		if _, err := p.value.(*FormData).Encode(&buf); err != nil {
			return "", err
		}
		return buf.String(), nil
	case payloadNumber, payloadBoolean:
		return jsonText(p.value)
	}
	if s, ok := p.value.(fmt.Stringer); ok {
		return s.String(), nil
	}
	return jsonText(p.value)
}

func jsonText(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

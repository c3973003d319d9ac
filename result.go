package knorry

import (
	"fmt"
	"math"
	"reflect"
	"unicode/utf8"
)

// Response is the descriptor of one completed exchange.
type Response struct {
	// Error is true when the result was produced by the client instead of the server.
	Error      bool        `json:"error"`
	ErrorMsg   string      `json:"errorMsg,omitempty"`
	Data       interface{} `json:"data"`
	Status     int         `json:"status"`
	StatusText string      `json:"statusText"`
	// ServerError is true for 5xx statuses.
	ServerError bool `json:"serverError"`
	// ClientError is true for 4xx statuses.
	ClientError bool `json:"clientError"`
	// Successful is true for 2xx statuses.
	Successful bool    `json:"successful"`
	Headers    Headers `json:"headers"`

	hasData bool
}

// NewResponse assembles a descriptor from a status and decoded body and
// classifies the status into its bands.
func NewResponse(status int, statusText string, headers Headers, data interface{}, present bool) *Response {
	if headers == nil {
		headers = Headers{}
	}
	return &Response{
		Data:        data,
		Status:      status,
		StatusText:  statusText,
		ServerError: status >= 500 && status < 600,
		ClientError: status >= 400 && status < 500,
		Successful:  status >= 200 && status < 300,
		Headers:     headers,
		hasData:     present,
	}
}

// HasData reports whether the exchange carried a body. A JSON null body has
// data; an empty body does not.
func (r *Response) HasData() bool {
	return r.hasData
}

// Kind tags the shape a Result takes.
type Kind int

const (
	// KindPlain is a descriptor returned with easy mode disabled.
	KindPlain Kind = iota
	KindText
	KindNumber
	KindBoolean
	KindArray
	KindObject
	// KindNull is a JSON null body.
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindNull:
		return "null"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Result is what a call resolves with. In easy mode it stands in for the
// decoded body: the coercion methods behave like the raw value, while every
// descriptor field stays reachable through the embedded *Response.
//
// Methods declared on Result take precedence over promoted descriptor fields
// of the same name. Plain always returns the untouched body and Response
// always returns the full descriptor.
type Result struct {
	*Response

	kind  Kind
	value interface{}
}

// Synthesize shapes a descriptor into a Result. With easy mode off, the
// result wraps the descriptor as is. With easy mode on, a descriptor without
// a body yields nil; otherwise the result is tagged with the body's kind.
func Synthesize(res *Response, easyMode bool) *Result {
	if !easyMode {
		return &Result{Response: res, kind: KindPlain, value: res.Data}
	}
	if !res.hasData {
		return nil
	}
	return &Result{Response: res, kind: kindOf(res.Data), value: res.Data}
}

// Fallback builds a Result for an ErrorHandler to resolve a failed call with.
func Fallback(err error, value interface{}) *Result {
	res := NewResponse(0, "", nil, value, true)
	res.Error = true
	if err != nil {
		res.ErrorMsg = err.Error()
	}
	return &Result{Response: res, kind: kindOf(value), value: value}
}

func kindOf(v interface{}) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case string:
		return KindText
	case bool:
		return KindBoolean
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindNumber
	case []interface{}:
		return KindArray
	case map[string]interface{}:
		return KindObject
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return KindArray
	default:
		return KindObject
	}
}

// Kind returns the shape of the result.
func (r *Result) Kind() Kind {
	if r == nil {
		return KindNull
	}
	return r.kind
}

// Plain returns the decoded body exactly as the descriptor holds it.
func (r *Result) Plain() interface{} {
	if r == nil || r.Response == nil {
		return nil
	}
	return r.Response.Data
}

// Res returns the full descriptor.
func (r *Result) Res() *Response {
	if r == nil {
		return nil
	}
	return r.Response
}

// String renders the body the way it would print as its raw value: text
// verbatim, numbers in shortest form, arrays and objects as JSON.
func (r *Result) String() string {
	if r == nil {
		return ""
	}
	switch v := r.value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case nil:
		return "null"
	}
	if f, ok := toFloat(r.value); ok {
		return formatNumber(f)
	}
	raw, err := json.Marshal(r.value)
	if err != nil {
		return fmt.Sprint(r.value)
	}
	return string(raw)
}

// Text returns the body when it is a string.
func (r *Result) Text() (string, bool) {
	if r == nil {
		return "", false
	}
	s, ok := r.value.(string)
	return s, ok
}

// Number returns the body when it is numeric.
func (r *Result) Number() (float64, bool) {
	if r == nil {
		return 0, false
	}
	return toFloat(r.value)
}

// Boolean returns the body when it is a boolean.
func (r *Result) Boolean() (bool, bool) {
	if r == nil {
		return false, false
	}
	b, ok := r.value.(bool)
	return b, ok
}

// Array returns the body when it is a JSON array.
func (r *Result) Array() ([]interface{}, bool) {
	if r == nil {
		return nil, false
	}
	a, ok := r.value.([]interface{})
	return a, ok
}

// Object returns the body when it is a JSON object.
func (r *Result) Object() (map[string]interface{}, bool) {
	if r == nil {
		return nil, false
	}
	m, ok := r.value.(map[string]interface{})
	return m, ok
}

// Get returns a member of an object body.
func (r *Result) Get(key string) interface{} {
	if m, ok := r.Object(); ok {
		return m[key]
	}
	return nil
}

// Index returns an element of an array body, or nil when out of range.
func (r *Result) Index(i int) interface{} {
	if a, ok := r.Array(); ok && i >= 0 && i < len(a) {
		return a[i]
	}
	return nil
}

// Len is the character count of a text body, the element count of an array
// or the member count of an object. Other kinds have length zero.
func (r *Result) Len() int {
	if r == nil {
		return 0
	}
	switch v := r.value.(type) {
	case string:
		return utf8.RuneCountInString(v)
	case []interface{}:
		return len(v)
	case map[string]interface{}:
		return len(v)
	}
	return 0
}

// Truthy reports how the raw body behaves in a condition: empty text, zero,
// NaN, false and null are falsy; arrays and objects are truthy.
func (r *Result) Truthy() bool {
	if r == nil {
		return false
	}
	switch v := r.value.(type) {
	case nil:
		return r.kind == KindPlain
	case string:
		return v != ""
	case bool:
		return v
	}
	if f, ok := toFloat(r.value); ok {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

// Equal compares the body with v by value. Numbers compare across Go
// numeric types; another *Result compares by its body.
func (r *Result) Equal(v interface{}) bool {
	if other, ok := v.(*Result); ok {
		if other == nil {
			return r == nil
		}
		v = other.value
	}
	if r == nil {
		return v == nil
	}
	if a, ok := toFloat(r.value); ok {
		b, ok := toFloat(v)
		return ok && a == b
	}
	if reflect.DeepEqual(r.value, v) {
		return true
	}
	// Typed Go values (structs, typed maps) compare through their JSON form.
	want, err := json.Marshal(v)
	if err != nil {
		return false
	}
	var normalized interface{}
	if err := json.Unmarshal(want, &normalized); err != nil {
		return false
	}
	return reflect.DeepEqual(r.value, normalized)
}

// Decode unmarshals the body into v through its JSON form.
func (r *Result) Decode(v interface{}) error {
	if r == nil {
		return fmt.Errorf("knorry: decode of empty result")
	}
	raw, err := json.Marshal(r.value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// MarshalJSON encodes the body in easy mode and the whole descriptor otherwise.
func (r *Result) MarshalJSON() ([]byte, error) {
	if r.kind == KindPlain {
		return json.Marshal(r.Response)
	}
	return json.Marshal(r.value)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

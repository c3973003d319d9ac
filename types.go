package knorry

import (
	"time"
)

// DataType hints which wire representation a request payload should take
// when no Content-Type header was declared.
type DataType string

const (
	DataTypeJSON       DataType = "json"
	DataTypeText       DataType = "text"
	DataTypeFormData   DataType = "formdata"
	DataTypeURLEncoded DataType = "urlencoded"
)

// Auth holds HTTP Basic credentials.
type Auth struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Upload carries optional callbacks for the upload side of a request.
type Upload struct {
	// Start is called once the upload begins with the total body size in bytes.
	Start func(total int64)
	// Progress is called every time upload progress is made.
	Progress func(fraction float64, loaded, total int64)
	// End is called when the upload finishes; success is false when nothing was sent.
	End func(success bool)
}

// ErrorHandler receives every failure of a call together with a resolver.
// When configured, the call never returns an error: the value passed to
// resolve (or nil) becomes the call's result.
type ErrorHandler func(err error, resolve func(*Result))

// TransportFactory constructs a fresh Transport for one call.
type TransportFactory func() Transport

// Options configures a single call or, through SetDefaultOptions, every call
// made by a Client. Unset fields (nil, empty) are left to the defaults.
type Options struct {
	// DataType hints how to encode the payload when no Content-Type header is set.
	DataType DataType
	// Headers are applied verbatim; Content-Type is matched case-insensitively.
	Headers map[string]string
	// Timeout of the exchange; zero disables it.
	Timeout *time.Duration
	// TransportFactory overrides the transport used for the call.
	TransportFactory TransportFactory
	// BeforeSend may inspect or replace the transport right before sending.
	BeforeSend func(Transport) Transport
	// OnProgress receives the download fraction (0..1) when the length is known.
	OnProgress func(fraction float64)
	ErrorHandler ErrorHandler
	// WithCredentials controls whether the cookie jar is used (default true).
	WithCredentials *bool
	Auth            *Auth
	Upload          *Upload
	// EasyMode selects the boxed result shape (default true).
	EasyMode *bool
}

// Bool returns a pointer to v, for optional Options fields.
func Bool(v bool) *bool {
	return &v
}

// Duration returns a pointer to d, for Options.Timeout.
func Duration(d time.Duration) *time.Duration {
	return &d
}

// Option represents a client configuration option
type Option func(*Client)

// Logger is the structured logger used for debug output. Arguments after msg
// are alternating keys and values. hclog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// DebugConfig selects which parts of the request lifecycle are logged.
type DebugConfig struct {
	Enabled        bool
	LogRequests    bool
	LogNegotiation bool
	LogErrors      bool
	RequestIDGen   func() string
}

// ClientError represents an error from the client
type ClientError struct {
	Type      string
	Message   string
	Cause     error
	RequestID string
	Method    string
	URL       string
	Timestamp time.Time
	Duration  time.Duration
}

package knorry

import (
	"fmt"
	"net/http"
)

// Merge returns a fresh Options holding every field of base, overridden by
// every field set in override. Nested values such as Headers, Auth and Upload
// are replaced wholesale, never merged.
func Merge(base, override Options) Options {
	merged := base

	if override.DataType != "" {
		merged.DataType = override.DataType
	}
	if override.Headers != nil {
		merged.Headers = override.Headers
	}
	if override.Timeout != nil {
		merged.Timeout = override.Timeout
	}
	if override.TransportFactory != nil {
		merged.TransportFactory = override.TransportFactory
	}
	if override.BeforeSend != nil {
		merged.BeforeSend = override.BeforeSend
	}
	if override.OnProgress != nil {
		merged.OnProgress = override.OnProgress
	}
	if override.ErrorHandler != nil {
		merged.ErrorHandler = override.ErrorHandler
	}
	if override.WithCredentials != nil {
		merged.WithCredentials = override.WithCredentials
	}
	if override.Auth != nil {
		merged.Auth = override.Auth
	}
	if override.Upload != nil {
		merged.Upload = override.Upload
	}
	if override.EasyMode != nil {
		merged.EasyMode = override.EasyMode
	}

	return merged
}

// WithDefaults merges opts into the client's default options.
func WithDefaults(opts Options) Option {
	return func(c *Client) {
		c.defaults = Merge(c.defaults, opts)
	}
}

// WithHTTPClient sets the HTTP client used by the default transport
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithCookieJar sets the jar used for requests made with credentials
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.jar = jar
	}
}

// WithTransportFactory replaces the default net/http transport
func WithTransportFactory(factory TransportFactory) Option {
	return func(c *Client) {
		c.transportFactory = factory
	}
}

// WithMetrics enables Prometheus metrics collection
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithDebug enables debug logging with default configuration
func WithDebug() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
	}
}

// WithDebugConfig sets custom debug configuration
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Client) {
		c.debug = config
	}
}

// WithLogger sets a custom logger for debug output
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSimpleLogger enables debug logging to stderr through hclog
func WithSimpleLogger() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
		c.logger = NewSimpleLogger()
	}
}

// WithRequestIDGenerator sets a custom function for generating request IDs
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.RequestIDGen = gen
	}
}

// ValidateConfiguration validates the client configuration and returns an error if invalid
func (c *Client) ValidateConfiguration() error {
	var errors []string

	errors = append(errors, c.validateTransportConfig()...)
	errors = append(errors, c.validateDebugConfig()...)
	errors = append(errors, validateOptions("defaults", c.defaults)...)

	if len(errors) > 0 {
		return &ClientError{
			Type:    ErrorTypeValidation,
			Message: "configuration validation failed",
			Cause:   fmt.Errorf("validation errors: %v", errors),
		}
	}

	return nil
}

// validateTransportConfig validates the transport configuration
func (c *Client) validateTransportConfig() []string {
	var errors []string

	if c.httpClient == nil && c.transportFactory == nil {
		errors = append(errors, "HTTP client cannot be nil without a transport factory")
	}

	return errors
}

// validateDebugConfig validates debug configuration
func (c *Client) validateDebugConfig() []string {
	var errors []string

	if c.debug != nil && c.debug.Enabled {
		if c.debug.RequestIDGen == nil {
			errors = append(errors, "debug RequestIDGen must be set when debug is enabled")
		}
		if c.logger == nil {
			errors = append(errors, "logger must be set when debug is enabled")
		}
	}

	return errors
}

// validateOptions checks a set of call options for values no call can honour.
func validateOptions(scope string, opts Options) []string {
	var errors []string

	if opts.Timeout != nil && *opts.Timeout < 0 {
		errors = append(errors, fmt.Sprintf("%s: timeout must be non-negative", scope))
	}

	for name := range opts.Headers {
		if name == "" {
			errors = append(errors, fmt.Sprintf("%s: header name cannot be empty", scope))
		}
	}

	return errors
}

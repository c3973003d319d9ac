package knorry

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Client issues one request per call, negotiating the request body and
// decoding the response. Its default options are merged under the options of
// every call. It is safe for concurrent use.
type Client struct {
	httpClient       *http.Client
	jar              http.CookieJar
	transportFactory TransportFactory

	mu       sync.RWMutex
	defaults Options

	metrics         *MetricsCollector
	debug           *DebugConfig
	logger          Logger
	validationError error
}

// New constructs a Client using the provided functional options. A best effort
// validation is performed; call IsValid / ValidationError for errors.
func New(options ...Option) *Client {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	client := &Client{
		httpClient: &http.Client{},
		jar:        jar,
		debug:      DefaultDebugConfig(),
	}

	for _, option := range options {
		option(client)
	}

	if err := client.ValidateConfiguration(); err != nil {
		client.validationError = err
	}

	return client
}

// SetDefaultOptions merges opts into the defaults used by every later call.
// Calls already running keep the snapshot they started with.
func (c *Client) SetDefaultOptions(opts Options) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaults = Merge(c.defaults, opts)
}

// Defaults returns the current default options.
func (c *Client) Defaults() Options {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaults
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, url string, opts ...Options) (*Result, error) {
	return c.execute(ctx, http.MethodGet, false, url, nil, opts)
}

// Head issues a HEAD request.
func (c *Client) Head(ctx context.Context, url string, opts ...Options) (*Result, error) {
	return c.execute(ctx, http.MethodHead, false, url, nil, opts)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, url string, opts ...Options) (*Result, error) {
	return c.execute(ctx, http.MethodDelete, false, url, nil, opts)
}

// Post issues a POST request carrying data.
func (c *Client) Post(ctx context.Context, url string, data interface{}, opts ...Options) (*Result, error) {
	return c.execute(ctx, http.MethodPost, true, url, data, opts)
}

// Put issues a PUT request carrying data.
func (c *Client) Put(ctx context.Context, url string, data interface{}, opts ...Options) (*Result, error) {
	return c.execute(ctx, http.MethodPut, true, url, data, opts)
}

// Patch issues a PATCH request carrying data.
func (c *Client) Patch(ctx context.Context, url string, data interface{}, opts ...Options) (*Result, error) {
	return c.execute(ctx, http.MethodPatch, true, url, data, opts)
}

// Options issues an OPTIONS request carrying data.
func (c *Client) Options(ctx context.Context, url string, data interface{}, opts ...Options) (*Result, error) {
	return c.execute(ctx, http.MethodOptions, true, url, data, opts)
}

// Request dispatches on a case-insensitive method name. An unknown method
// fails with ErrInvalidMethod before anything else happens; that failure is
// never passed to an ErrorHandler.
func (c *Client) Request(ctx context.Context, method, url string, data interface{}, opts ...Options) (*Result, error) {
	switch strings.ToUpper(method) {
	case http.MethodGet:
		return c.Get(ctx, url, opts...)
	case http.MethodHead:
		return c.Head(ctx, url, opts...)
	case http.MethodDelete:
		return c.Delete(ctx, url, opts...)
	case http.MethodPost:
		return c.Post(ctx, url, data, opts...)
	case http.MethodPut:
		return c.Put(ctx, url, data, opts...)
	case http.MethodPatch:
		return c.Patch(ctx, url, data, opts...)
	case http.MethodOptions:
		return c.Options(ctx, url, data, opts...)
	}
	return nil, &ClientError{
		Type:      ErrorTypeMethod,
		Message:   "method must be a valid HTTP method, got " + method,
		Method:    method,
		URL:       url,
		Timestamp: time.Now(),
	}
}

// call tracks the single terminal outcome of one request.
type call struct {
	once   sync.Once
	done   chan struct{}
	result *Result
	err    error
}

func (cl *call) settle(fn func()) {
	cl.once.Do(func() {
		fn()
		close(cl.done)
	})
}

func (c *Client) execute(ctx context.Context, method string, sendData bool, target string, data interface{}, opts []Options) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	endpoint := getEndpoint(target)
	requestID := c.newRequestID()

	options := c.Defaults()
	for _, o := range opts {
		options = Merge(options, o)
	}

	if c.debugEnabled() && c.debug.LogRequests {
		c.logger.Debug("Starting request", "requestID", requestID, "method", method, "url", target, "endpoint", endpoint)
	}
	c.metrics.RecordRequestStart(method, endpoint)
	defer c.metrics.RecordRequestEnd(method, endpoint)

	cl := &call{done: make(chan struct{})}
	resolve := func(r *Result) {
		cl.settle(func() { cl.result = r })
	}
	reject := func(errorType, message string, cause error) {
		cl.settle(func() {
			err := &ClientError{
				Type:      errorType,
				Message:   message,
				Cause:     cause,
				RequestID: requestID,
				Method:    method,
				URL:       target,
				Timestamp: time.Now(),
				Duration:  time.Since(start),
			}
			c.metrics.RecordError(errorType, method, endpoint)
			if c.debugEnabled() && c.debug.LogErrors {
				c.logger.Warn("Request failed", "requestID", requestID, "type", errorType, "url", target, "error", err.Error())
			}
			if options.ErrorHandler == nil {
				cl.err = err
				return
			}
			resolved := false
			options.ErrorHandler(err, func(r *Result) {
				if !resolved {
					resolved = true
					cl.result = r
				}
			})
		})
	}
	failOn := func(t Transport) {
		t.AddEventListener(EventAbort, func(ev ProgressEvent) {
			reject(ErrorTypeAborted, "request "+target+" was aborted", ev.Err)
		})
		t.AddEventListener(EventError, func(ev ProgressEvent) {
			reject(ErrorTypeNetwork, "request "+target+" failed", ev.Err)
		})
		t.AddEventListener(EventTimeout, func(ev ProgressEvent) {
			reject(ErrorTypeTimeout, "timeout error on request "+target, ev.Err)
		})
	}

	factory := options.TransportFactory
	if factory == nil {
		factory = c.transportFactory
	}
	if factory == nil {
		factory = c.defaultTransport
	}
	xhr := factory()
	failOn(xhr)

	if options.OnProgress != nil {
		onProgress := options.OnProgress
		xhr.AddEventListener(EventProgress, func(ev ProgressEvent) {
			if ev.LengthComputable && ev.Total > 0 {
				onProgress(float64(ev.Loaded) / float64(ev.Total))
			}
		})
	}

	if options.Timeout != nil {
		xhr.SetTimeout(*options.Timeout)
	}
	withCredentials := true
	if options.WithCredentials != nil {
		withCredentials = *options.WithCredentials
	}
	xhr.SetWithCredentials(withCredentials)

	if options.Upload != nil && sendData {
		registerUpload(xhr.Upload(), options.Upload)
	}

	if err := xhr.Open(method, target); err != nil {
		reject(ErrorTypeTransport, "cannot open request "+target, err)
		return c.finish(cl, method, endpoint, start)
	}

	if auth := options.Auth; auth != nil && (auth.Username != "" || auth.Password != "") {
		credentials := options.Auth.Username + ":" + options.Auth.Password
		xhr.SetRequestHeader("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(credentials)))
	}

	// The negotiated Content-Type replaces a declared one instead of joining it.
	negotiating := sendData && data != nil
	names := make([]string, 0, len(options.Headers))
	for name := range options.Headers {
		if negotiating && strings.EqualFold(name, "Content-Type") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		xhr.SetRequestHeader(name, options.Headers[name])
	}

	var body WireBody
	if negotiating {
		negotiated, err := Negotiate(data, declaredContentType(options.Headers), options.DataType)
		if err != nil {
			reject(ErrorTypePayload, "cannot encode request body for "+target, err)
			return c.finish(cl, method, endpoint, start)
		}
		body = negotiated.Body
		if negotiated.SetHeader {
			xhr.SetRequestHeader("Content-Type", negotiated.ContentType)
			c.metrics.RecordNegotiation(negotiated.ContentType)
		} else {
			c.metrics.RecordNegotiation(ContentTypeMultipart)
		}
		if c.debugEnabled() && c.debug.LogNegotiation {
			c.logger.Debug("Negotiated request body", "requestID", requestID, "contentType", negotiated.ContentType, "setHeader", negotiated.SetHeader)
		}
	}

	if options.BeforeSend != nil {
		if replacement := options.BeforeSend(xhr); replacement != nil && replacement != xhr {
			xhr = replacement
			failOn(xhr)
		}
	}

	easyMode := true
	if options.EasyMode != nil {
		easyMode = *options.EasyMode
	}
	final := xhr
	final.AddEventListener(EventLoad, func(ProgressEvent) {
		headers := ParseHeaders(final.AllResponseHeaders())
		raw := final.ResponseText()
		decoded, present := Decode(raw, headers)
		if present && isJSONResponse(headers) {
			if s, ok := decoded.(string); ok && s == raw {
				c.metrics.RecordDecodeFallback(endpoint)
			}
		}
		res := NewResponse(final.Status(), final.StatusText(), headers, decoded, present)
		resolve(Synthesize(res, easyMode))
	})

	if err := final.Send(ctx, body); err != nil {
		reject(ErrorTypeTransport, "cannot send request "+target, err)
	}

	select {
	case <-cl.done:
	case <-ctx.Done():
		final.Abort()
		reject(ErrorTypeAborted, "request "+target+" was aborted", ctx.Err())
	}
	return c.finish(cl, method, endpoint, start)
}

func (c *Client) finish(cl *call, method, endpoint string, start time.Time) (*Result, error) {
	<-cl.done
	status := 0
	if cl.result != nil && cl.result.Response != nil {
		status = cl.result.Status
	}
	c.metrics.RecordRequest(method, endpoint, status, time.Since(start))
	return cl.result, cl.err
}

func (c *Client) defaultTransport() Transport {
	return NewHTTPTransport(c.httpClient, c.jar)
}

func registerUpload(target EventTarget, upload *Upload) {
	if upload.Start != nil {
		target.AddEventListener(EventLoadStart, func(ev ProgressEvent) {
			if ev.LengthComputable {
				upload.Start(ev.Total)
			}
		})
	}
	if upload.Progress != nil {
		target.AddEventListener(EventProgress, func(ev ProgressEvent) {
			if ev.LengthComputable && ev.Total > 0 {
				upload.Progress(float64(ev.Loaded)/float64(ev.Total), ev.Loaded, ev.Total)
			}
		})
	}
	if upload.End != nil {
		target.AddEventListener(EventLoadEnd, func(ev ProgressEvent) {
			upload.End(ev.Loaded != 0)
		})
	}
}

// IsValid reports whether configuration validation passed at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the configuration validation error, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}

// getEndpoint reduces a URL to host + path for metric labels.
func getEndpoint(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}

	var builder strings.Builder
	builder.WriteString(u.Host)

	if u.Path != "" && u.Path != "/" {
		builder.WriteString(u.Path)
	} else {
		builder.WriteByte('/')
	}

	return builder.String()
}

package knorry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// WireBody is a fully encoded request body. Open returns the bytes to
// transmit, their length (-1 if unknown) and the content type the body
// carries on its own ("" if none).
type WireBody interface {
	Open() (io.Reader, int64, string, error)
}

// TextBody is a plain text wire body.
type TextBody string

// Open implements WireBody.
func (t TextBody) Open() (io.Reader, int64, string, error) {
	return strings.NewReader(string(t)), int64(len(t)), "text/plain;charset=UTF-8", nil
}

// Open implements WireBody.
func (b *Blob) Open() (io.Reader, int64, string, error) {
	return bytes.NewReader(b.Data), int64(len(b.Data)), b.Type, nil
}

// Open implements WireBody.
func (u URLEncoded) Open() (io.Reader, int64, string, error) {
	encoded := url.Values(u).Encode()
	return strings.NewReader(encoded), int64(len(encoded)), "application/x-www-form-urlencoded;charset=UTF-8", nil
}

// Open implements WireBody.
func (f *FormData) Open() (io.Reader, int64, string, error) {
	var buf bytes.Buffer
	contentType, err := f.Encode(&buf)
	if err != nil {
		return nil, 0, "", err
	}
	return &buf, int64(buf.Len()), contentType, nil
}

// EventType names a transport event.
type EventType string

const (
	EventLoad      EventType = "load"
	EventError     EventType = "error"
	EventAbort     EventType = "abort"
	EventTimeout   EventType = "timeout"
	EventProgress  EventType = "progress"
	EventLoadStart EventType = "loadstart"
	EventLoadEnd   EventType = "loadend"
)

// ProgressEvent is delivered to transport listeners.
type ProgressEvent struct {
	Type             EventType
	LengthComputable bool
	Loaded           int64
	Total            int64
	// Err is the underlying cause of error, abort and timeout events.
	Err error
}

// Listener receives transport events.
type Listener func(ProgressEvent)

// EventTarget dispatches events to registered listeners.
type EventTarget interface {
	AddEventListener(event EventType, listener Listener)
}

// Transport is the request primitive a call drives: open, configure, send,
// then read the outcome once load fired. It reports the outcome only through
// events; load, error, abort and timeout are terminal.
type Transport interface {
	EventTarget
	// Upload is the event target of the request body.
	Upload() EventTarget
	Open(method, url string) error
	SetRequestHeader(name, value string)
	SetTimeout(d time.Duration)
	SetWithCredentials(v bool)
	// Send transmits the request. body is nil for requests without one.
	Send(ctx context.Context, body WireBody) error
	Abort()
	Status() int
	StatusText() string
	ResponseText() string
	AllResponseHeaders() string
}

type eventTarget struct {
	mu        sync.Mutex
	listeners map[EventType][]Listener
}

func (t *eventTarget) AddEventListener(event EventType, listener Listener) {
	if listener == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listeners == nil {
		t.listeners = make(map[EventType][]Listener)
	}
	t.listeners[event] = append(t.listeners[event], listener)
}

func (t *eventTarget) dispatch(ev ProgressEvent) {
	t.mu.Lock()
	listeners := append([]Listener(nil), t.listeners[ev.Type]...)
	t.mu.Unlock()
	for _, l := range listeners {
		l(ev)
	}
}

func (t *eventTarget) has(event EventType) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.listeners[event]) > 0
}

// HTTPTransport is the net/http backed Transport. A value serves one exchange.
type HTTPTransport struct {
	eventTarget
	upload eventTarget

	client *http.Client
	jar    http.CookieJar

	mu              sync.Mutex
	method          string
	url             string
	header          http.Header
	timeout         time.Duration
	withCredentials bool
	opened          bool
	sent            bool
	aborted         bool
	cancel          context.CancelFunc

	status       int
	statusText   string
	responseText string
	respHeader   http.Header
}

// NewHTTPTransport returns a transport sending through client. jar is
// consulted only for requests made with credentials.
func NewHTTPTransport(client *http.Client, jar http.CookieJar) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{
		client:          client,
		jar:             jar,
		header:          http.Header{},
		withCredentials: true,
	}
}

// Upload implements Transport.
func (t *HTTPTransport) Upload() EventTarget {
	return &t.upload
}

// Open implements Transport.
func (t *HTTPTransport) Open(method, rawURL string) error {
	if _, err := url.Parse(rawURL); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.method = strings.ToUpper(method)
	t.url = rawURL
	t.opened = true
	return nil
}

// SetRequestHeader implements Transport. Repeated names are combined.
func (t *HTTPTransport) SetRequestHeader(name, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.header.Add(name, value)
}

// SetTimeout implements Transport.
func (t *HTTPTransport) SetTimeout(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeout = d
}

// SetWithCredentials implements Transport.
func (t *HTTPTransport) SetWithCredentials(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.withCredentials = v
}

// Abort cancels the exchange; an in-flight Send reports an abort event.
func (t *HTTPTransport) Abort() {
	t.mu.Lock()
	t.aborted = true
	cancel := t.cancel
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Send implements Transport. It blocks until a terminal event was dispatched.
func (t *HTTPTransport) Send(ctx context.Context, body WireBody) error {
	t.mu.Lock()
	if !t.opened || t.sent {
		t.mu.Unlock()
		return ErrInvalidState
	}
	t.sent = true
	if t.aborted {
		t.mu.Unlock()
		t.dispatch(ProgressEvent{Type: EventAbort, Err: context.Canceled})
		return nil
	}
	if t.timeout > 0 {
		ctx, t.cancel = context.WithTimeout(ctx, t.timeout)
	} else {
		ctx, t.cancel = context.WithCancel(ctx)
	}
	cancel := t.cancel
	header := t.header.Clone()
	method, target := t.method, t.url
	client := t.httpClient()
	t.mu.Unlock()
	defer cancel()

	var (
		reader   io.Reader
		payload  []byte
		length   int64
		uploader *progressReader
	)
	if body != nil && method != http.MethodGet && method != http.MethodHead {
		r, _, ownType, err := body.Open()
		if err != nil {
			t.dispatch(ProgressEvent{Type: EventError, Err: err})
			return nil
		}
		if _, multipart := body.(*FormData); multipart {
			if !strings.Contains(header.Get("Content-Type"), "boundary=") {
				header.Set("Content-Type", ownType)
			}
		} else if header.Get("Content-Type") == "" && ownType != "" {
			header.Set("Content-Type", ownType)
		}
		// Kept in memory so a 307/308 redirect can replay the same bytes.
		data, err := io.ReadAll(r)
		if err != nil {
			t.dispatch(ProgressEvent{Type: EventError, Err: err})
			return nil
		}
		payload = data
		length = int64(len(data))
		uploader = &progressReader{r: bytes.NewReader(data), total: length, target: &t.upload, eventType: EventProgress}
		reader = http.NoBody
		if length > 0 {
			reader = uploader
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		t.dispatch(ProgressEvent{Type: EventError, Err: err})
		return nil
	}
	req.Header = header
	if uploader != nil {
		if length > 0 {
			req.ContentLength = length
			req.GetBody = func() (io.ReadCloser, error) {
				return io.NopCloser(bytes.NewReader(payload)), nil
			}
		}
		t.upload.dispatch(ProgressEvent{Type: EventLoadStart, LengthComputable: true, Total: length})
	}

	resp, err := client.Do(req)
	if uploader != nil {
		uploader.finish()
	}
	if err != nil {
		t.dispatch(t.failureEvent(ctx, err))
		return nil
	}
	defer resp.Body.Close()

	downloader := &progressReader{r: resp.Body, total: resp.ContentLength, target: &t.eventTarget, eventType: EventProgress}
	raw, err := io.ReadAll(downloader)
	if err != nil {
		t.dispatch(t.failureEvent(ctx, err))
		return nil
	}

	t.mu.Lock()
	t.status = resp.StatusCode
	t.statusText = statusText(resp)
	t.responseText = string(raw)
	t.respHeader = resp.Header
	t.mu.Unlock()

	t.dispatch(ProgressEvent{Type: EventLoad, LengthComputable: resp.ContentLength >= 0, Loaded: int64(len(raw)), Total: resp.ContentLength})
	return nil
}

func (t *HTTPTransport) httpClient() *http.Client {
	client := *t.client
	if t.withCredentials {
		if client.Jar == nil {
			client.Jar = t.jar
		}
	} else {
		client.Jar = nil
	}
	return &client
}

// failureEvent maps a failed exchange onto abort, timeout or error.
func (t *HTTPTransport) failureEvent(ctx context.Context, err error) ProgressEvent {
	t.mu.Lock()
	aborted := t.aborted
	t.mu.Unlock()

	switch {
	case aborted || errors.Is(ctx.Err(), context.Canceled):
		return ProgressEvent{Type: EventAbort, Err: err}
	case errors.Is(ctx.Err(), context.DeadlineExceeded) || isTimeout(err):
		return ProgressEvent{Type: EventTimeout, Err: err}
	default:
		return ProgressEvent{Type: EventError, Err: err}
	}
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// Status implements Transport.
func (t *HTTPTransport) Status() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// StatusText implements Transport.
func (t *HTTPTransport) StatusText() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statusText
}

// ResponseText implements Transport.
func (t *HTTPTransport) ResponseText() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.responseText
}

// AllResponseHeaders renders the response headers as "name: value" lines
// separated by CRLF, names lower-cased and repeated values joined by ", ".
func (t *HTTPTransport) AllResponseHeaders() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.respHeader) == 0 {
		return ""
	}
	names := make([]string, 0, len(t.respHeader))
	for name := range t.respHeader {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s: %s\r\n", strings.ToLower(name), strings.Join(t.respHeader[name], ", "))
	}
	return b.String()
}

func statusText(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, code)); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

// progressReader reports read progress to an event target. With eventType
// progress on the upload target it also ends the upload with loadend.
type progressReader struct {
	r         io.Reader
	total     int64
	loaded    int64
	target    *eventTarget
	eventType EventType
	ended     bool
	mu        sync.Mutex
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 {
		p.mu.Lock()
		p.loaded += int64(n)
		ev := ProgressEvent{Type: p.eventType, LengthComputable: p.total > 0, Loaded: p.loaded, Total: p.total}
		p.mu.Unlock()
		p.target.dispatch(ev)
	}
	return n, err
}

// finish fires loadend once, carrying the number of bytes actually sent.
func (p *progressReader) finish() {
	p.mu.Lock()
	if p.ended {
		p.mu.Unlock()
		return
	}
	p.ended = true
	ev := ProgressEvent{Type: EventLoadEnd, LengthComputable: p.total > 0, Loaded: p.loaded, Total: p.total}
	p.mu.Unlock()
	p.target.dispatch(ev)
}

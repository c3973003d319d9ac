package knorry

import (
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Headers maps lower-cased response header names to their values.
type Headers map[string]string

// Get returns the value of name, matched case-insensitively.
func (h Headers) Get(name string) string {
	return h[strings.ToLower(name)]
}

// Has reports whether the header is present.
func (h Headers) Has(name string) bool {
	_, ok := h[strings.ToLower(name)]
	return ok
}

// String renders the headers back into a raw CRLF-separated block, sorted by name.
func (h Headers) String() string {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString("\r\n")
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(h[name])
	}
	return b.String()
}

// ParseHeaders parses a raw header block ("Name: value" lines separated by
// CRLF) into lower-cased keys. Lines without a colon are ignored; a later
// duplicate overwrites an earlier one.
func ParseHeaders(raw string) Headers {
	headers := Headers{}
	if strings.TrimSpace(raw) == "" {
		return headers
	}
	for _, line := range strings.Split(strings.TrimSpace(raw), "\r\n") {
		if line == "" {
			continue
		}
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:idx]))
		headers[key] = strings.TrimSpace(line[idx+1:])
	}
	return headers
}

// Decode turns a response body into its decoded form. present is false when
// there was no body at all. A body whose content-type mentions
// application/json is parsed; when parsing fails the raw text is kept.
func Decode(raw string, headers Headers) (data interface{}, present bool) {
	if raw == "" {
		return nil, false
	}
	if !strings.Contains(headers.Get("content-type"), "application/json") {
		return raw, true
	}
	var parsed interface{}
	if err := json.UnmarshalFromString(raw, &parsed); err != nil {
		return raw, true
	}
	return parsed, true
}

// isJSONResponse reports whether Decode would attempt to parse the body.
func isJSONResponse(headers Headers) bool {
	return strings.Contains(headers.Get("content-type"), "application/json")
}

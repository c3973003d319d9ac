package knorry

import (
	"mime"
	"net/url"
	"strings"
)

// Content types chosen by the negotiator.
const (
	ContentTypeJSON       = "application/json; charset=utf8"
	ContentTypeText       = "text/plain; charset=utf8"
	ContentTypeURLEncoded = "application/x-www-form-urlencoded"
	ContentTypeMultipart  = "multipart/form-data"
)

// Negotiated is the outcome of content negotiation for one request body.
type Negotiated struct {
	// Body is the wire body handed to the transport.
	Body WireBody
	// ContentType is the header value to send; empty when SetHeader is false.
	ContentType string
	// SetHeader is false when the transport must choose the header itself,
	// which is always the case for multipart bodies.
	SetHeader bool
}

// Negotiate decides the wire representation of data. An explicitly declared
// Content-Type wins over the DataType hint; without either, the payload's own
// shape decides. Numbers and booleans always end up as JSON.
func Negotiate(data interface{}, declaredContentType string, hint DataType) (*Negotiated, error) {
	p := classify(data)

	var (
		n   *Negotiated
		err error
	)
	switch {
	case declaredContentType != "":
		n, err = negotiateDeclared(p, declaredContentType)
	case hint != "":
		n, err = negotiateHint(p, hint)
	default:
		n, err = negotiateShape(p)
	}
	if err != nil {
		return nil, err
	}

	if p.kind == payloadNumber || p.kind == payloadBoolean {
		text, err := jsonText(p.value)
		if err != nil {
			return nil, err
		}
		n.Body = TextBody(text)
		n.ContentType = ContentTypeJSON
	}

	n.SetHeader = n.ContentType != ""
	if _, multipart := n.Body.(*FormData); multipart {
		n.SetHeader = false
		n.ContentType = ""
	}
	return n, nil
}

func negotiateDeclared(p payload, declared string) (*Negotiated, error) {
	n := &Negotiated{ContentType: declared}

	switch mediaType(declared) {
	case "application/json":
		text, err := jsonText(p.value)
		if err != nil {
			return nil, err
		}
		n.Body = TextBody(text)

	case "application/x-www-form-urlencoded":
		if p.kind == payloadObject || p.kind == payloadText {
			form, err := urlEncode(p)
			if err != nil {
				return nil, err
			}
			n.Body = form
		} else {
			body, err := passThrough(p)
			if err != nil {
				return nil, err
			}
			n.Body = body
		}

	case "multipart/form-data":
		form, err := buildFormData(p)
		if err != nil {
			return nil, err
		}
		n.Body = form

	default:
		body, err := passThrough(p)
		if err != nil {
			return nil, err
		}
		n.Body = body
		if blob, ok := body.(*Blob); ok && blob.Type != "" {
			n.ContentType = blob.Type
		}
	}
	return n, nil
}

func negotiateHint(p payload, hint DataType) (*Negotiated, error) {
	switch hint {
	case DataTypeFormData:
		form, err := buildFormData(p)
		if err != nil {
			return nil, err
		}
		return &Negotiated{Body: form}, nil

	case DataTypeJSON:
		text, err := jsonText(p.value)
		if err != nil {
			return nil, err
		}
		return &Negotiated{Body: TextBody(text), ContentType: ContentTypeJSON}, nil

	case DataTypeURLEncoded:
		form, err := urlEncode(p)
		if err != nil {
			return nil, err
		}
		return &Negotiated{Body: form, ContentType: ContentTypeURLEncoded}, nil
	}

	text, err := stringify(p)
	if err != nil {
		return nil, err
	}
	return &Negotiated{Body: TextBody(text), ContentType: ContentTypeText}, nil
}

func negotiateShape(p payload) (*Negotiated, error) {
	switch p.kind {
	case payloadBlob:
		blob := p.value.(*Blob)
		if blob.Type == "" {
			return &Negotiated{Body: blob, ContentType: ContentTypeText}, nil
		}
		return &Negotiated{Body: blob, ContentType: blob.Type}, nil
	case payloadURLEncoded:
		return &Negotiated{Body: p.value.(URLEncoded), ContentType: ContentTypeURLEncoded}, nil
	case payloadMultipart:
		return &Negotiated{Body: p.value.(*FormData)}, nil
	case payloadObject:
		text, err := jsonText(p.value)
		if err != nil {
			return nil, err
		}
		return &Negotiated{Body: TextBody(text), ContentType: ContentTypeJSON}, nil
	}

	text, err := stringify(p)
	if err != nil {
		return nil, err
	}
	return &Negotiated{Body: TextBody(text), ContentType: ContentTypeText}, nil
}

// passThrough hands transport-native payloads over unchanged; structured
// values have no native form in Go and are sent as JSON text.
func passThrough(p payload) (WireBody, error) {
	switch p.kind {
	case payloadBlob:
		return p.value.(*Blob), nil
	case payloadURLEncoded:
		return p.value.(URLEncoded), nil
	case payloadMultipart:
		return p.value.(*FormData), nil
	}
	text, err := stringify(p)
	if err != nil {
		return nil, err
	}
	return TextBody(text), nil
}

// buildFormData turns a map or struct into a multipart form. Blob values become
// file parts.
func buildFormData(p payload) (*FormData, error) {
	if p.kind == payloadMultipart {
		return p.value.(*FormData), nil
	}
	if p.kind != payloadObject || !isPlainObject(p.value) {
		return nil, payloadError("cannot build multipart body from non-object %s payload", p.kind)
	}

	keys, entries, err := objectEntries(p.value)
	if err != nil {
		return nil, err
	}
	form := NewFormData()
	for _, key := range keys {
		switch v := entries[key].(type) {
		case *Blob:
			form.AppendFile(key, key, v)
		case Blob:
			form.AppendFile(key, key, &v)
		default:
			form.Append(key, formValue(v))
		}
	}
	return form, nil
}

// urlEncode builds a form from an object, a query string or an existing form.
func urlEncode(p payload) (URLEncoded, error) {
	switch p.kind {
	case payloadURLEncoded:
		return p.value.(URLEncoded), nil
	case payloadText:
		return parseFormText(p.value.(string)), nil
	case payloadObject:
		if !isPlainObject(p.value) {
			return nil, payloadError("cannot url-encode non-object %T payload", p.value)
		}
		keys, entries, err := objectEntries(p.value)
		if err != nil {
			return nil, err
		}
		values := url.Values{}
		for _, key := range keys {
			values.Set(key, formValue(entries[key]))
		}
		return URLEncoded(values), nil
	}

	text, err := stringify(p)
	if err != nil {
		return nil, err
	}
	return parseFormText(text), nil
}

// parseFormText reads a query string without ever failing: only "&"
// separates pairs and malformed escapes are kept as written.
func parseFormText(text string) URLEncoded {
	values := url.Values{}
	for _, pair := range strings.Split(strings.TrimPrefix(text, "?"), "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		values.Add(unescapeForm(key), unescapeForm(value))
	}
	return URLEncoded(values)
}

func unescapeForm(s string) string {
	if !strings.ContainsAny(s, "%+") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '+':
			b.WriteByte(' ')
		case c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]):
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func unhex(c byte) byte {
	switch {
	case c >= 'a':
		return c - 'a' + 10
	case c >= 'A':
		return c - 'A' + 10
	}
	return c - '0'
}

// mediaType returns the lower-cased essence of a Content-Type value.
func mediaType(contentType string) string {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		return mt
	}
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// declaredContentType finds a Content-Type header regardless of its casing.
func declaredContentType(headers map[string]string) string {
	for name, value := range headers {
		if strings.EqualFold(name, "Content-Type") {
			return value
		}
	}
	return ""
}

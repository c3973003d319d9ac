package knorry

import "context"

// GetInto issues a GET request and decodes the body into v. The result is
// returned as well so status and headers stay available. A call without a
// body leaves v untouched.
func (c *Client) GetInto(ctx context.Context, url string, v interface{}, opts ...Options) (*Result, error) {
	res, err := c.Get(ctx, url, opts...)
	return decodeInto(res, err, v)
}

// PostInto issues a POST request carrying data and decodes the body into v.
func (c *Client) PostInto(ctx context.Context, url string, data, v interface{}, opts ...Options) (*Result, error) {
	res, err := c.Post(ctx, url, data, opts...)
	return decodeInto(res, err, v)
}

func decodeInto(res *Result, err error, v interface{}) (*Result, error) {
	if err != nil || res == nil || v == nil {
		return res, err
	}
	if !res.HasData() {
		return res, nil
	}
	source := res
	if res.Kind() == KindPlain {
		source = &Result{Response: res.Response, kind: kindOf(res.Data), value: res.Data}
	}
	if err := source.Decode(v); err != nil {
		return res, &ClientError{
			Type:    ErrorTypePayload,
			Message: "cannot decode response body",
			Cause:   err,
		}
	}
	return res, nil
}

package knorry

import "context"

// DefaultClient backs the package-level request functions.
var DefaultClient = New()

// SetDefaultOptions merges opts into the defaults of DefaultClient.
func SetDefaultOptions(opts Options) {
	DefaultClient.SetDefaultOptions(opts)
}

// Get issues a GET request with DefaultClient.
func Get(ctx context.Context, url string, opts ...Options) (*Result, error) {
	return DefaultClient.Get(ctx, url, opts...)
}

// Head issues a HEAD request with DefaultClient.
func Head(ctx context.Context, url string, opts ...Options) (*Result, error) {
	return DefaultClient.Head(ctx, url, opts...)
}

// Delete issues a DELETE request with DefaultClient.
func Delete(ctx context.Context, url string, opts ...Options) (*Result, error) {
	return DefaultClient.Delete(ctx, url, opts...)
}

// Post issues a POST request with DefaultClient.
func Post(ctx context.Context, url string, data interface{}, opts ...Options) (*Result, error) {
	return DefaultClient.Post(ctx, url, data, opts...)
}

// Put issues a PUT request with DefaultClient.
func Put(ctx context.Context, url string, data interface{}, opts ...Options) (*Result, error) {
	return DefaultClient.Put(ctx, url, data, opts...)
}

// Patch issues a PATCH request with DefaultClient.
func Patch(ctx context.Context, url string, data interface{}, opts ...Options) (*Result, error) {
	return DefaultClient.Patch(ctx, url, data, opts...)
}

// OptionsRequest issues an OPTIONS request with DefaultClient. It is not
// called Options because that name belongs to the configuration type.
func OptionsRequest(ctx context.Context, url string, data interface{}, opts ...Options) (*Result, error) {
	return DefaultClient.Options(ctx, url, data, opts...)
}

// Request dispatches on method with DefaultClient.
func Request(ctx context.Context, method, url string, data interface{}, opts ...Options) (*Result, error) {
	return DefaultClient.Request(ctx, method, url, data, opts...)
}

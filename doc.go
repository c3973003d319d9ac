// Package knorry is a convenience HTTP client that takes care of both ends of
// a request body:
//
//   - Outgoing payloads are encoded from their Go shape, an explicit
//     Content-Type header or a DataType hint (JSON, text, url-encoded, multipart)
//   - JSON responses are decoded automatically; bodies that fail to parse are
//     kept as text
//   - Results are either a plain descriptor or, in easy mode (the default),
//     a value tagged with the body's kind that still carries status and headers
//   - Default options live on a Client and merge under per-call options
//
// Typical usage:
//
//	client := knorry.New(knorry.WithDefaults(knorry.Options{
//	    Headers: map[string]string{"X-Client": "docs"},
//	}))
//	res, err := client.Get(ctx, "https://api.example.com/data")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Status, res.Get("worked"), res.Plain())
//
// Every call performs exactly one request: there is no retrying, caching or
// queuing. Failures return a *ClientError unless an ErrorHandler is set, in
// which case the handler decides the result and the call never fails.
package knorry

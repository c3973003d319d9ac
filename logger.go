package knorry

import (
	"os"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// DefaultDebugConfig returns a disabled debug configuration that logs every
// category once enabled and tags requests with random UUIDs.
func DefaultDebugConfig() *DebugConfig {
	return &DebugConfig{
		Enabled:        false,
		LogRequests:    true,
		LogNegotiation: true,
		LogErrors:      true,
		RequestIDGen:   uuid.NewString,
	}
}

// NewSimpleLogger returns a debug-level hclog logger writing to stderr.
func NewSimpleLogger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "knorry",
		Level:  hclog.Debug,
		Output: os.Stderr,
	})
}

func (c *Client) debugEnabled() bool {
	return c.debug != nil && c.debug.Enabled && c.logger != nil
}

func (c *Client) newRequestID() string {
	if c.debug != nil && c.debug.Enabled && c.debug.RequestIDGen != nil {
		return c.debug.RequestIDGen()
	}
	return ""
}

package adapter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

type clientOptions struct {
	timeout   time.Duration
	authority string
	graphURL  string
}

type ClientOp func(*clientOptions)

// WithTimeout bounds every request. Zero means no limit.
func WithTimeout(d time.Duration) ClientOp {
	return func(o *clientOptions) {
		o.timeout = d
	}
}

// WithAuthority replaces https://login.microsoftonline.com.
func WithAuthority(url string) ClientOp {
	return func(o *clientOptions) {
		o.authority = url
	}
}

// WithGraphURL replaces https://graph.microsoft.com/v1.0.
func WithGraphURL(url string) ClientOp {
	return func(o *clientOptions) {
		o.graphURL = url
	}
}

func newClientOptions(ops []ClientOp) clientOptions {
	var o clientOptions
	for _, op := range ops {
		op(&o)
	}
	return o
}

func newRestyClient(o clientOptions) *resty.Client {
	return resty.New().
		SetLogger(restyLogger{}).
		SetTimeout(o.timeout)
}

// restyLogger implements resty.Logger on top of the global zerolog logger.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...interface{}) {
	log.Error().Msgf(format, v...)
}

func (restyLogger) Warnf(format string, v ...interface{}) {
	log.Warn().Msgf(format, v...)
}

func (restyLogger) Debugf(format string, v ...interface{}) {
	log.Debug().Msgf(format, v...)
}

// rawBody returns the response body compacted, failing only when it is not
// JSON.
func rawBody(res *resty.Response) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, res.Body()); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", res.StatusCode(), err)
	}
	return buf.Bytes(), nil
}

// Package httpc provides the HTTP clients used by the RPC channel.
package httpc

import (
	"net"
	"net/http"
	"time"
)

// Default timeouts for HTTP connections.
const (
	DefaultConnectTimeout  = 5 * time.Second
	DefaultKeepAlive       = 30 * time.Second
	DefaultIdleConnTimeout = 90 * time.Second
)

// NewClient creates an HTTP client with dial and idle timeouts.
//
// A zero timeout means no overall request deadline: remote calls such as
// execute_keyframes block for as long as the motion runs, so callers bound
// them with a context instead.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: newTransport(),
	}
}

func newTransport() *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   DefaultConnectTimeout,
			KeepAlive: DefaultKeepAlive,
		}).DialContext,
		MaxIdleConns:          32,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       DefaultIdleConnTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

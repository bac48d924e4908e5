package utils

import (
	"net"
	"net/http"
	"time"
)

var (
	// GlobalHTTPClient is the shared client for BattleMetrics calls.
	GlobalHTTPClient = NewHTTPClient(30 * time.Second)
)

// NewHTTPClient returns a pooled client. Callers still bound each request
// with a context deadline; timeout is only the outer limit.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConnsPerHost:   4,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

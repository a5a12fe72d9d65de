package customHttpClient

import (
	"net/http"
	"time"

	"github.com/akolanti/pdfrag/internal/config"
)

var customTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// NewClient shares one pooled transport between the document downloader and
// the model SDKs so repeated calls reuse connections.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = config.HTTPTimeout
	}
	return &http.Client{
		Transport: customTransport,
		Timeout:   timeout,
	}
}

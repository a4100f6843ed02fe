package plex

import (
	"net/http"
	"runtime"
)

const (
	defaultProductName = "autocollect"
	productVersion     = "1.0.0"
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// clientHeaders identifies autocollect to Plex.
type clientHeaders struct {
	product          string
	clientIdentifier string
}

func (h clientHeaders) apply(req *http.Request, token string) {
	product := h.product
	if product == "" {
		product = defaultProductName
	}
	req.Header.Set("X-Plex-Client-Identifier", h.clientIdentifier)
	req.Header.Set("X-Plex-Product", product)
	req.Header.Set("X-Plex-Version", productVersion)
	req.Header.Set("X-Plex-Device", runtime.GOOS)
	req.Header.Set("X-Plex-Device-Name", product)
	req.Header.Set("X-Plex-Platform", runtime.GOOS)
	req.Header.Set("User-Agent", product+"/"+productVersion)
	if token != "" {
		req.Header.Set("X-Plex-Token", token)
	}
}

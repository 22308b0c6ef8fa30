package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// RequestFactory builds the *http.Request that will carry a request. Overriding
// it -- the same seam the teacher library exposes as GetRequestFunc -- lets
// callers splice in request-level instrumentation without reimplementing Do.
type RequestFactory func(method, url string, body io.Reader) (*http.Request, error)

func defaultRequestFactory(method, url string, body io.Reader) (*http.Request, error) {
	return http.NewRequest(method, url, body)
}

// HTTPTransport is the default Transport, backed by a *http.Client. Redirects
// are followed transparently by the underlying client, which already
// satisfies spec §4.5's "the transport follows redirects" requirement.
type HTTPTransport struct {
	BaseURL    *url.URL
	Client     *http.Client
	NewRequest RequestFactory
}

// NewHTTP constructs an HTTPTransport. A nil client defaults to http.DefaultClient.
func NewHTTP(client *http.Client, baseURL *url.URL) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{
		BaseURL:    baseURL,
		Client:     client,
		NewRequest: defaultRequestFactory,
	}
}

func (t *HTTPTransport) Do(ctx context.Context, method, urlSuffix string, header http.Header, body io.Reader) (*Response, error) {
	ref, err := url.Parse(urlSuffix)
	if err != nil {
		return nil, fmt.Errorf("%w: bad url suffix %q: %v", ErrConnect, urlSuffix, err)
	}
	target := t.BaseURL.ResolveReference(ref).String()

	req, err := t.NewRequest(method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	for k, vv := range header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	if ctx != nil {
		req = req.WithContext(ctx)
	}

	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", ErrConnect, err)
	}

	r := &Response{Status: resp.StatusCode, Header: resp.Header, Body: b}
	switch {
	case resp.StatusCode >= 500:
		return r, fmt.Errorf("%w: status %d", ErrServer, resp.StatusCode)
	case resp.StatusCode >= 400:
		return r, fmt.Errorf("%w: status %d", ErrClient, resp.StatusCode)
	default:
		return r, nil
	}
}

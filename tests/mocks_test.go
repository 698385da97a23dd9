package tests

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// stubHTTPClient serves queued responses per URL, so consecutive pipeline
// runs can observe a feed changing between days.
type stubHTTPClient struct {
	mu        sync.Mutex
	responses map[string][]string
}

func newStubHTTPClient() *stubHTTPClient {
	return &stubHTTPClient{responses: map[string][]string{}}
}

func (c *stubHTTPClient) queue(url string, bodies ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses[url] = append(c.responses[url], bodies...)
}

func (c *stubHTTPClient) Do(req *http.Request) (*http.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	url := req.URL.String()
	queued := c.responses[url]
	if len(queued) == 0 {
		return nil, fmt.Errorf("no stubbed response for %s", url)
	}

	body := queued[0]
	if len(queued) > 1 {
		c.responses[url] = queued[1:]
	}

	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}, nil
}

package content

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// HTTPClient fetches tests from the remote content service (online mode).
type HTTPClient struct {
	BaseURL string
	HTTP    *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPClient) GetTest(ctx context.Context, id string) (Test, error) {
	u := c.BaseURL + "/tests/" + url.PathEscape(id)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Test{}, &LoadError{TestID: id, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return Test{}, &LoadError{TestID: id, Err: ErrNotFound}
	}
	if resp.StatusCode/100 != 2 {
		return Test{}, &LoadError{TestID: id, Err: fmt.Errorf("content service returned %s", resp.Status)}
	}
	var t Test
	if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
		return Test{}, &LoadError{TestID: id, Err: err}
	}
	return t, nil
}

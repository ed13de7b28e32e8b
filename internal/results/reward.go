package results

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RewardClient triggers the post-finalize profile/stats refresh. Failures
// here never roll back a completed session.
type RewardClient struct {
	HTTP    *http.Client
	BaseURL string
}

func NewRewardClient(baseURL string) *RewardClient {
	return &RewardClient{
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		BaseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (c *RewardClient) Refresh(ctx context.Context, userID string) error {
	u := c.BaseURL + "/profiles/" + url.PathEscape(userID) + "/refresh"
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return httpErr("reward refresh", resp)
	}
	return nil
}

// Package results talks to the external results service that stores
// finished attempts and issues reward currency. The service being
// unreachable is survivable: the session stays resumable and finalize can
// be retried.
package results

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/silent9669/chucamo-sub001/internal/report"
)

type Client struct {
	HTTP *http.Client

	BaseURL string

	// OAuth token endpoint + client credentials; empty TokenURL skips auth
	// (offline/dev deployments).
	TokenURL     string
	ClientID     string
	ClientSecret string
}

func NewClient(baseURL, tokenURL, clientID, clientSecret string) *Client {
	return &Client{
		HTTP:         &http.Client{Timeout: 15 * time.Second},
		BaseURL:      strings.TrimRight(baseURL, "/"),
		TokenURL:     tokenURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}
}

// StartAttempt opens a remote attempt record and returns its correlation id.
func (c *Client) StartAttempt(ctx context.Context, testID string) (string, error) {
	body, _ := json.Marshal(map[string]string{"test_id": testID})
	var out struct {
		AttemptID string `json:"attempt_id"`
	}
	if err := c.post(ctx, c.BaseURL+"/attempts", body, &out); err != nil {
		return "", err
	}
	if out.AttemptID == "" {
		return "", errors.New("empty attempt_id in response")
	}
	return out.AttemptID, nil
}

// CompleteAttempt uploads the submission payload for the correlation id.
func (c *Client) CompleteAttempt(ctx context.Context, correlationID string, sub report.Submission) (report.Ack, error) {
	body, _ := json.Marshal(sub)
	var ack report.Ack
	u := c.BaseURL + "/attempts/" + url.PathEscape(correlationID) + "/complete"
	if err := c.post(ctx, u, body, &ack); err != nil {
		return report.Ack{}, err
	}
	return ack, nil
}

func (c *Client) post(ctx context.Context, u string, body []byte, out interface{}) error {
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if c.TokenURL != "" {
		tok, err := c.fetchToken(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return httpErr("results call", resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
}

func (c *Client) fetchToken(ctx context.Context) (string, error) {
	if c.ClientID == "" || c.ClientSecret == "" {
		return "", errors.New("missing ClientID/ClientSecret")
	}
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", httpErr("fetch token", resp)
	}
	var tr tokenResp
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", err
	}
	if tr.AccessToken == "" {
		return "", errors.New("empty access_token in token response")
	}
	return tr.AccessToken, nil
}

func httpErr(op string, resp *http.Response) error {
	return fmt.Errorf("%s: service returned %s", op, resp.Status)
}

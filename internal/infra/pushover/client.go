package pushover

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"voice-console/internal/domain"
)

// Client pushes result banners to Pushover so commands issued by voice show
// up on the phone too.
type Client struct {
	token      string
	userKey    string
	baseURL    string
	httpClient *http.Client
}

func NewClient(token, userKey string) *Client {
	return &Client{
		token:      token,
		userKey:    userKey,
		baseURL:    "https://api.pushover.net/1/messages.json",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func NewClientWithURL(token, userKey, baseURL string) *Client {
	c := NewClient(token, userKey)
	c.baseURL = baseURL
	return c
}

// Publish forwards one banner entry. Spoken-output notices are skipped to
// avoid a push per utterance.
func (c *Client) Publish(ctx context.Context, fb domain.Feedback) error {
	if c.token == "" || c.userKey == "" {
		return nil
	}
	if fb.Kind == domain.FeedbackSpeaking {
		return nil
	}

	data := url.Values{}
	data.Set("token", c.token)
	data.Set("user", c.userKey)
	data.Set("message", fb.Message)
	data.Set("title", fmt.Sprintf("Home Console [%s]", fb.Kind))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pushover error: %s", resp.Status)
	}

	return nil
}

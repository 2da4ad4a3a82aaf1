package timer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"voice-console/internal/application"
	"voice-console/internal/domain"
)

// Client schedules deferred device actions with the external timer service.
// Each request/response pair is independent; one failure never cancels a
// sibling schedule.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured reports whether a service endpoint is set. Without one, all
// deferred actions fail fast with a configuration error.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

type request struct {
	DeviceID            string `json:"deviceId"`
	Action              string `json:"action"`
	DelayInSeconds      int    `json:"delayInSeconds,omitempty"`
	TargetExecutionTime string `json:"targetExecutionTime,omitempty"`
	RequestID           string `json:"requestId"`
}

type response struct {
	TaskID string `json:"taskId"`
}

func (c *Client) Schedule(ctx context.Context, cmd domain.DeferredCommand) (string, error) {
	if !c.Configured() {
		return "", application.ErrSchedulerNotConfigured
	}

	action := "turn_off"
	if cmd.TurnOn {
		action = "turn_on"
	}

	reqBody := request{
		DeviceID:  cmd.DeviceID,
		Action:    action,
		RequestID: uuid.NewString(),
	}
	if cmd.DelaySeconds > 0 {
		reqBody.DelayInSeconds = cmd.DelaySeconds
	} else if !cmd.ExecuteAt.IsZero() {
		reqBody.TargetExecutionTime = cmd.ExecuteAt.Format(time.RFC3339)
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling schedule request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tasks", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending schedule request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("timer service error %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding schedule response: %w", err)
	}
	if parsed.TaskID == "" {
		return "", fmt.Errorf("timer service returned no task id")
	}

	return parsed.TaskID, nil
}

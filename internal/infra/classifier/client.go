package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voice-console/internal/domain"
	"voice-console/internal/infra"
)

// Client calls the external structured-intent service: command text in, one
// tagged intent out. A failed or malformed response is terminal for the
// command being processed; the pipeline does not re-issue it.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type request struct {
	CommandText string `json:"commandText"`
}

type wireAction struct {
	Device              string `json:"device"`
	Action              string `json:"action"`
	DelayInSeconds      int    `json:"delayInSeconds,omitempty"`
	TargetExecutionTime string `json:"targetExecutionTime,omitempty"`
}

type response struct {
	IntentType            string       `json:"intentType"`
	Actions               []wireAction `json:"actions,omitempty"`
	QueryTarget           string       `json:"queryTarget,omitempty"`
	QueryType             string       `json:"queryType,omitempty"`
	GeneralResponse       string       `json:"generalResponse,omitempty"`
	SuggestedConfirmation string       `json:"suggestedConfirmation,omitempty"`
}

func (c *Client) Classify(ctx context.Context, text string) (*domain.StructuredIntent, error) {
	bodyBytes, err := json.Marshal(request{CommandText: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	var result response
	retryErr := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/interpret", bytes.NewReader(bodyBytes))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			if infra.IsRetryableHTTPStatus(resp.StatusCode) {
				return fmt.Errorf("classifier error %d: %s (retryable)", resp.StatusCode, string(respBody))
			}
			return infra.Permanent(fmt.Errorf("classifier error %d: %s", resp.StatusCode, string(respBody)))
		}

		if err = json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}

		return nil
	})

	if retryErr != nil {
		return nil, retryErr
	}

	return toIntent(result)
}

func toIntent(r response) (*domain.StructuredIntent, error) {
	intent := &domain.StructuredIntent{
		QueryTarget:  r.QueryTarget,
		QueryType:    r.QueryType,
		Reply:        r.GeneralResponse,
		Confirmation: r.SuggestedConfirmation,
	}

	switch domain.IntentType(r.IntentType) {
	case domain.IntentAction:
		intent.Type = domain.IntentAction
		if len(r.Actions) == 0 {
			return nil, fmt.Errorf("action intent with no actions")
		}
		for _, a := range r.Actions {
			action := domain.SingleDeviceAction{
				Device:       a.Device,
				Action:       a.Action,
				DelaySeconds: a.DelayInSeconds,
			}
			if a.TargetExecutionTime != "" {
				at, err := time.Parse(time.RFC3339, a.TargetExecutionTime)
				if err != nil {
					return nil, fmt.Errorf("parsing targetExecutionTime %q: %w", a.TargetExecutionTime, err)
				}
				action.ExecuteAt = at
			}
			intent.Actions = append(intent.Actions, action)
		}
	case domain.IntentQuery:
		intent.Type = domain.IntentQuery
		if r.QueryTarget == "" {
			return nil, fmt.Errorf("query intent with no target")
		}
	case domain.IntentGeneral:
		intent.Type = domain.IntentGeneral
	default:
		return nil, fmt.Errorf("unknown intent type %q", r.IntentType)
	}

	return intent, nil
}

package hub

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

// Client talks to the smart-home hub: catalog reads, batched device
// commands, and state refresh requests.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type wireDevice struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Class      string         `json:"class"`
	State      string         `json:"state"`
	Online     bool           `json:"online"`
	Attributes map[string]any `json:"attributes"`
}

type wireRoom struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	DeviceIDs []string `json:"deviceIds"`
}

type wireGroup struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	DeviceIDs []string `json:"deviceIds"`
}

func (c *Client) GetDevices(ctx context.Context) ([]domain.Device, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/devices", nil)
	if err != nil {
		return nil, fmt.Errorf("fetching devices: %w", err)
	}

	var wire []wireDevice
	if err := json.Unmarshal(resp, &wire); err != nil {
		return nil, fmt.Errorf("parsing devices: %w", err)
	}

	devices := make([]domain.Device, 0, len(wire))
	for _, w := range wire {
		devices = append(devices, domain.Device{
			ID:         w.ID,
			Name:       w.Name,
			Class:      deviceClass(w.Class),
			State:      w.State,
			Online:     w.Online,
			Attributes: w.Attributes,
		})
	}
	return devices, nil
}

func (c *Client) GetRooms(ctx context.Context) ([]domain.Room, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/rooms", nil)
	if err != nil {
		return nil, fmt.Errorf("fetching rooms: %w", err)
	}

	var wire []wireRoom
	if err := json.Unmarshal(resp, &wire); err != nil {
		return nil, fmt.Errorf("parsing rooms: %w", err)
	}

	rooms := make([]domain.Room, 0, len(wire))
	for _, w := range wire {
		rooms = append(rooms, domain.Room{ID: w.ID, Name: w.Name, DeviceIDs: w.DeviceIDs})
	}
	return rooms, nil
}

func (c *Client) GetGroups(ctx context.Context) ([]domain.DeviceGroup, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/groups", nil)
	if err != nil {
		return nil, fmt.Errorf("fetching groups: %w", err)
	}

	var wire []wireGroup
	if err := json.Unmarshal(resp, &wire); err != nil {
		return nil, fmt.Errorf("parsing groups: %w", err)
	}

	groups := make([]domain.DeviceGroup, 0, len(wire))
	for _, w := range wire {
		groups = append(groups, domain.DeviceGroup{ID: w.ID, Name: w.Name, DeviceIDs: w.DeviceIDs})
	}
	return groups, nil
}

type wireCommand struct {
	DeviceID string         `json:"deviceId"`
	Command  string         `json:"command"`
	Params   map[string]any `json:"params,omitempty"`
}

type wireCommandResult struct {
	IDs       []string `json:"ids"`
	Status    string   `json:"status"`
	ErrorCode string   `json:"errorCode,omitempty"`
}

// Execute submits one batched command request. The hub reports one result
// entry per submitted command, in no particular order; entries carry the
// device IDs they apply to.
func (c *Client) Execute(ctx context.Context, cmds []domain.DeviceCommand) ([]domain.CommandResult, error) {
	wire := make([]wireCommand, 0, len(cmds))
	for _, cmd := range cmds {
		wire = append(wire, wireCommand{DeviceID: cmd.DeviceID, Command: cmd.Command, Params: cmd.Params})
	}

	body, err := json.Marshal(map[string]any{"commands": wire})
	if err != nil {
		return nil, fmt.Errorf("marshaling commands: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/commands", body)
	if err != nil {
		return nil, fmt.Errorf("executing commands: %w", err)
	}

	var parsed struct {
		Results []wireCommandResult `json:"results"`
	}
	if err := json.Unmarshal(resp, &parsed); err != nil {
		return nil, fmt.Errorf("parsing command results: %w", err)
	}

	var results []domain.CommandResult
	for _, r := range parsed.Results {
		for _, id := range r.IDs {
			results = append(results, domain.CommandResult{
				DeviceID:  id,
				Status:    r.Status,
				ErrorCode: r.ErrorCode,
			})
		}
	}
	return results, nil
}

// Refresh asks the hub to re-report state for the given devices. The call
// completing is the only contract; fresh state is read via the catalog.
func (c *Client) Refresh(ctx context.Context, ids []string) error {
	body, err := json.Marshal(map[string]any{"deviceIds": ids})
	if err != nil {
		return fmt.Errorf("marshaling refresh request: %w", err)
	}

	if _, err := c.doRequest(ctx, http.MethodPost, "/api/refresh", body); err != nil {
		return fmt.Errorf("refreshing devices: %w", err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var respBody []byte

	retryErr := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode == http.StatusUnauthorized {
			return infra.Permanent(fmt.Errorf("unauthorized: check the hub token"))
		}

		if infra.IsRetryableHTTPStatus(resp.StatusCode) {
			return fmt.Errorf("hub API error %d (retryable): %s", resp.StatusCode, string(respBody))
		}

		if resp.StatusCode >= 400 {
			return infra.Permanent(fmt.Errorf("hub API error %d: %s", resp.StatusCode, string(respBody)))
		}

		return nil
	})

	if retryErr != nil {
		return nil, retryErr
	}

	return respBody, nil
}

func deviceClass(s string) domain.DeviceClass {
	switch domain.DeviceClass(s) {
	case domain.ClassLight, domain.ClassSwitch, domain.ClassFan, domain.ClassOutlet,
		domain.ClassSensor, domain.ClassMediaPlayer, domain.ClassClimate:
		return domain.DeviceClass(s)
	}
	return domain.ClassOther
}

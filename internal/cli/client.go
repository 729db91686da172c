package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// RoundResponse — раунд из API.
type RoundResponse struct {
	ID         string   `json:"id"`
	Kind       string   `json:"kind"`
	State      string   `json:"state"`
	Discovered int      `json:"discovered"`
	Completed  []string `json:"completed"`
	Error      string   `json:"error,omitempty"`
	StartedAt  string   `json:"started_at"`
	FinishedAt string   `json:"finished_at"`
	DurationMS int64    `json:"duration_ms"`
}

// ActionResponse — зарегистрированное действие из API.
type ActionResponse struct {
	Module    string   `json:"module"`
	Action    string   `json:"action"`
	Phase     int      `json:"phase"`
	DependsOn []string `json:"depends_on,omitempty"`
	Contexts  []string `json:"contexts,omitempty"`
}

// ListRoundsOpts — параметры фильтрации раундов.
type ListRoundsOpts struct {
	Kind  string
	Limit int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Data json.RawMessage `json:"data"`
}

// --- Client ---

// Client — HTTP-клиент для Ensemble API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// --- Rounds ---

// TriggerRound запускает раунд указанного типа и ждёт его завершения.
// Если раунд завершился ошибкой, запись раунда возвращается вместе
// с ошибкой — в ней журнал завершений и имя упавшего действия.
func (c *Client) TriggerRound(kind string) (*RoundResponse, error) {
	resp, err := c.do(http.MethodPost, "/api/v1/rounds/"+url.PathEscape(kind), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var er errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
			return nil, fmt.Errorf("API error: HTTP %d", resp.StatusCode)
		}

		apiErr := fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
		if len(er.Data) > 0 {
			var round RoundResponse
			if json.Unmarshal(er.Data, &round) == nil {
				return &round, apiErr
			}
		}
		return nil, apiErr
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var round RoundResponse
	if err := json.Unmarshal(dr.Data, &round); err != nil {
		return nil, fmt.Errorf("failed to decode round: %w", err)
	}
	return &round, nil
}

// ListRounds возвращает последние раунды с фильтрацией.
func (c *Client) ListRounds(opts ListRoundsOpts) ([]RoundResponse, error) {
	params := url.Values{}
	if opts.Kind != "" {
		params.Set("kind", opts.Kind)
	}
	if opts.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}

	var rounds []RoundResponse
	err := c.list("/api/v1/rounds", params, &rounds)
	return rounds, err
}

// GetRound возвращает раунд по ID.
func (c *Client) GetRound(id string) (*RoundResponse, error) {
	var round RoundResponse
	err := c.get("/api/v1/rounds/"+id, &round)
	return &round, err
}

// --- Actions ---

// ListActions возвращает зарегистрированные действия.
// Если kind не пустой — только участвующие в контекстах этого типа.
func (c *Client) ListActions(kind string) ([]ActionResponse, error) {
	params := url.Values{}
	if kind != "" {
		params.Set("kind", kind)
	}

	var actions []ActionResponse
	err := c.list("/api/v1/actions", params, &actions)
	return actions, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(dr.Data, result)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}

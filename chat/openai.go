package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/goliatone/go-errors"
	userapi "github.com/goliatone/go-users-api"
)

// Provider is the upstream the wrapper forwards conversations to
type Provider interface {
	CreateChatCompletion(ctx context.Context, messages []Message) (string, error)
	Models(ctx context.Context) ([]string, error)
}

// OpenAIClient talks to an OpenAI-compatible HTTP API. There is no retry
// logic, a failed call surfaces immediately.
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

var _ Provider = (*OpenAIClient)(nil)

// NewOpenAIClient creates a provider client for cfg
func NewOpenAIClient(cfg userapi.ChatConfig) *OpenAIClient {
	return &OpenAIClient{
		baseURL: cfg.GetBaseURL(),
		apiKey:  cfg.GetAPIKey(),
		model:   cfg.GetModel(),
		httpClient: &http.Client{
			Timeout: cfg.GetRequestTimeout(),
		},
	}
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// CreateChatCompletion posts the message list and returns the first choice
func (c *OpenAIClient) CreateChatCompletion(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to encode completion request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to build completion request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", mapProviderError(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to read completion response")
	}

	var out completionResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to decode completion response")
	}

	if resp.StatusCode != http.StatusOK {
		msg := "AI provider request failed"
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", errors.New(msg, errors.CategoryInternal).
			WithTextCode(userapi.TextCodeInternal).
			WithMetadata(map[string]any{"status": resp.StatusCode})
	}

	if len(out.Choices) == 0 {
		return "", errors.New("AI provider returned no choices", errors.CategoryInternal).
			WithTextCode(userapi.TextCodeInternal)
	}

	return out.Choices[0].Message.Content, nil
}

type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Models lists the model ids the provider exposes
func (c *OpenAIClient) Models(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to build models request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, mapProviderError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(fmt.Sprintf("AI provider returned status %d", resp.StatusCode), errors.CategoryInternal).
			WithTextCode(userapi.TextCodeInternal)
	}

	var out modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to decode models response")
	}

	ids := make([]string, 0, len(out.Data))
	for _, m := range out.Data {
		ids = append(ids, m.ID)
	}

	return ids, nil
}

// mapProviderError keeps timeouts distinguishable from other transport
// failures, they map to a different status at the edge.
func mapProviderError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return errors.Wrap(err, userapi.ErrExternalAPITimeout.Category, userapi.ErrExternalAPITimeout.Message).
			WithTextCode(userapi.ErrExternalAPITimeout.TextCode).
			WithCode(userapi.ErrExternalAPITimeout.Code)
	}

	return errors.Wrap(err, errors.CategoryInternal, "AI provider request failed").
		WithTextCode(userapi.TextCodeInternal)
}

func isTimeout(err error) bool {
	type timeout interface{ Timeout() bool }
	var t timeout
	return errors.As(err, &t) && t.Timeout()
}

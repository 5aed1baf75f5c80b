package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const identifyPrompt = `You are assisting a field service engineer. Look at the attached photos and identify the single dominant physical asset. Respond with a JSON object only, no prose, with the keys: name, category, asset_condition, description, manufacturer, model, metadata (an array of short strings). If you cannot identify a single item, respond with exactly the word: error`

const summaryPrompt = `You are assisting a field service engineer. Write a short professional work summary for a job report based on the following notes. Respond with the summary text only.`

type OpenAIOptions struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// OpenAIClient talks to an OpenAI-compatible chat completions endpoint with
// vision input.
type OpenAIClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
	token      string
}

func NewOpenAIClient(opts OpenAIOptions) *OpenAIClient {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	model := opts.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &OpenAIClient{
		httpClient: client,
		baseURL:    base,
		model:      model,
		token:      strings.TrimSpace(opts.APIKey),
	}
}

var _ Collaborator = (*OpenAIClient)(nil)

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []interface{} `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *OpenAIClient) IdentifyAsset(ctx context.Context, images []string) (*Identification, error) {
	if len(images) == 0 {
		return nil, errors.New("openai: no images to identify")
	}
	content := []interface{}{
		map[string]string{"type": "text", "text": identifyPrompt},
	}
	for _, img := range images {
		content = append(content, map[string]interface{}{
			"type": "image_url",
			"image_url": map[string]string{
				"url": "data:image/jpeg;base64," + img,
			},
		})
	}
	answer, err := c.chat(ctx, content)
	if err != nil {
		return nil, err
	}
	answer = stripFence(answer)
	if strings.EqualFold(answer, "error") {
		return nil, ErrNotIdentified
	}
	var ident Identification
	if err := json.Unmarshal([]byte(answer), &ident); err != nil {
		return nil, fmt.Errorf("openai: malformed identification: %w", err)
	}
	return &ident, nil
}

func (c *OpenAIClient) Summarize(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("openai: nothing to summarize")
	}
	content := []interface{}{
		map[string]string{"type": "text", "text": summaryPrompt + "\n\n" + text},
	}
	answer, err := c.chat(ctx, content)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

func (c *OpenAIClient) chat(ctx context.Context, content []interface{}) (string, error) {
	if c == nil {
		return "", errors.New("openai client not configured")
	}
	if c.token == "" {
		return "", errors.New("openai: API key is missing")
	}
	payload := chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: content}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	endpoint := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return "", fmt.Errorf("openai: http %d", resp.StatusCode)
		}
		return "", err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		if out.Error.Message != "" {
			return "", fmt.Errorf("openai error: %s (%s)", out.Error.Message, out.Error.Type)
		}
		return "", fmt.Errorf("openai: http %d", resp.StatusCode)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("openai: empty response")
	}
	return out.Choices[0].Message.Content, nil
}

// stripFence removes a markdown code fence the model sometimes wraps JSON in.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

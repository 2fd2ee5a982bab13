package ollama

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/talent-scorer/internal/utils"
)

const (
	DefaultURL   = "http://localhost:11434"
	DefaultModel = "llama3:latest"

	generatePath        = "/api/generate"
	contentType         = "application/json"
	defaultMaxLogLength = 200
	maxErrorBody        = 512
)

// Client talks to a local Ollama server through its non-streaming generate endpoint.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	// Format is passed as the "format" field; "json" constrains output to valid JSON.
	Format string

	model     string
	logger    *zap.Logger
	maxLogLen int
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// New creates a client. The HTTP client has no timeout of its own: deadlines come from the context.
func New(baseURL, model string, maxLogLength int, logger *zap.Logger) *Client {
	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL == "" {
		baseURL = DefaultURL
	}
	if model = strings.TrimSpace(model); model == "" {
		model = DefaultModel
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		HTTPClient: &http.Client{},
		BaseURL:    baseURL,
		model:      model,
		logger:     logger,
		maxLogLen:  maxLogLength,
	}
}

// GenerateContent sends the prompt and returns the model's response text.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	payload, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Format: c.Format,
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+generatePath, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept-Encoding", "gzip")

	c.logger.Debug("ollama generate request",
		zap.String("url", req.URL.String()),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, c.maxLogLen)),
	)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return "", fmt.Errorf("read ollama response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status: %s: %s", resp.Status, utils.TruncateForLog(string(data), maxErrorBody))
	}

	var parsed generateResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}

	if parsed.Error != "" {
		return "", fmt.Errorf("ollama error: %s", parsed.Error)
	}

	output := strings.TrimSpace(parsed.Response)
	if output == "" {
		return "", errors.New("ollama returned empty response")
	}

	c.logger.Debug("ollama generate response",
		zap.Int("response_length", utf8.RuneCountInString(output)),
		zap.String("response_preview", utils.TruncateForLog(output, c.maxLogLen)),
	)

	return output, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	}
	return io.ReadAll(reader)
}

/**
 * SiliconFlow Client - chat-completion solver for recognized problems
 *
 * Sends the assembled problem text with a fixed system instruction that asks
 * for numbered steps followed by a line beginning with "答案：".
 * One request per problem, bounded by the HTTP client timeout, never retried.
 */

package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/adverant/nexus/mathsolver/internal/errors"
	"github.com/adverant/nexus/mathsolver/internal/logging"
)

const systemPrompt = `你是一名数学老师，需要清晰解答用户提供的数学题。
请按照以下格式回答：
1. 先给出解题步骤，分点说明
2. 最后用"答案："开头给出最终答案
确保解答准确，步骤清晰易懂。`

const userPromptPrefix = "请解答以下数学题，并给出详细步骤："

// SiliconFlowClient handles communication with the SiliconFlow chat API
type SiliconFlowClient struct {
	apiKey      string
	apiURL      string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	logger      *logging.Logger
}

// SiliconFlowConfig holds client configuration
type SiliconFlowConfig struct {
	APIKey      string
	APIURL      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// ChatMessage is one message of a chat-completion request
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest represents the request body
type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// ChatCompletionResponse represents the subset of the reply that is used
type ChatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int         `json:"index"`
		Message ChatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
}

// SolutionResponse is the raw upstream reply plus call metadata
type SolutionResponse struct {
	Content    string
	Elapsed    time.Duration
	TokensUsed int
	Model      string
}

// NewSiliconFlowClient creates a new SiliconFlow client
func NewSiliconFlowClient(cfg *SiliconFlowConfig) *SiliconFlowClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &SiliconFlowClient{
		apiKey:      cfg.APIKey,
		apiURL:      cfg.APIURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logging.NewLogger("SiliconFlowClient"),
	}
}

// Solve sends the problem text and returns the raw reply.
// A missing API key fails before any request is built.
func (c *SiliconFlowClient) Solve(ctx context.Context, problem string) (*SolutionResponse, error) {
	if c.apiKey == "" {
		return nil, errors.NewConfigError("未配置SiliconFlow API密钥，请检查环境变量")
	}

	reqBody, err := json.Marshal(&ChatCompletionRequest{
		Model: c.model,
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPromptPrefix + problem},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return nil, errors.NewUpstreamMalformedError(fmt.Errorf("failed to marshal request: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, errors.NewUpstreamNetworkError(fmt.Errorf("failed to create request: %w", err))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Info("Requesting solution from SiliconFlow",
		"model", c.model,
		"problemLength", len(problem))

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.NewUpstreamNetworkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		return nil, errors.NewUpstreamNetworkError(fmt.Errorf("failed to read response body: %w", err))
	}

	c.logger.Debug("SiliconFlow response received",
		"status", resp.StatusCode,
		"body", string(body),
		"elapsed", elapsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("SiliconFlow returned error status", "status", resp.StatusCode)
		return nil, errors.NewUpstreamStatusError(resp.StatusCode, string(body))
	}

	var completion ChatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, errors.NewUpstreamMalformedError(fmt.Errorf("failed to parse response: %w", err))
	}

	if len(completion.Choices) == 0 {
		return nil, errors.NewUpstreamMalformedError(fmt.Errorf("response has no choices"))
	}

	result := &SolutionResponse{
		Content: completion.Choices[0].Message.Content,
		Elapsed: elapsed,
		Model:   completion.Model,
	}
	if completion.Usage != nil {
		result.TokensUsed = completion.Usage.TotalTokens
	}

	c.logger.Info("Solution received",
		"model", result.Model,
		"tokensUsed", result.TokensUsed,
		"elapsed", elapsed,
		"contentLength", len(result.Content))

	return result, nil
}

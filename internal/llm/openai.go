package llm

import (
	"context"
	"errors"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/shared"
)

// ErrEmptyResponse is returned when the server answers without any choice.
var ErrEmptyResponse = errors.New("empty response")

// OpenAIClient implements Client against any OpenAI-compatible API.
type OpenAIClient struct {
	client openai.Client
}

// NewOpenAIClient constructs a client. Retries are left to the caller, so the
// SDK's own retry loop is disabled.
func NewOpenAIClient(apiKey, baseURL string, httpClient *http.Client) *OpenAIClient {
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &OpenAIClient{client: openai.NewClient(opts...)}
}

func (c *OpenAIClient) Complete(ctx context.Context, req Request) (Response, error) {
	temperature := req.Temperature
	if temperature == 0 {
		temperature = 0.2
	}
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(req.Model),
		Messages:    messages,
		Temperature: param.NewOpt(temperature),
	})
	if err != nil {
		return Response{}, err
	}
	return parseChatCompletion(resp)
}

// StatusCode extracts the HTTP status of an API error, or 0 when err did not
// come from a server response.
func StatusCode(err error) int {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func parseChatCompletion(resp *openai.ChatCompletion) (Response, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return Response{}, ErrEmptyResponse
	}
	choice := resp.Choices[0]
	return Response{
		Content:      choice.Message.Content,
		TokensUsed:   int(resp.Usage.TotalTokens),
		FinishReason: choice.FinishReason,
	}, nil
}

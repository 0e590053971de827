package chat

import (
	"context"
	"errors"
	"net/http"

	"github.com/eraiza0816/assistant-discord/config"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const assistantVersion = "v2"

// AssistantClient is the part of the OpenAI Assistants API the bot uses.
// *openai.Client satisfies it; tests substitute a scripted fake.
type AssistantClient interface {
	CreateThread(ctx context.Context, request openai.ThreadRequest) (openai.Thread, error)
	DeleteThread(ctx context.Context, threadID string) (openai.ThreadDeleteResponse, error)
	CreateMessage(ctx context.Context, threadID string, request openai.MessageRequest) (openai.Message, error)
	CreateRun(ctx context.Context, threadID string, request openai.RunRequest) (openai.Run, error)
	RetrieveRun(ctx context.Context, threadID string, runID string) (openai.Run, error)
	ListMessage(
		ctx context.Context,
		threadID string,
		limit *int,
		order *string,
		after *string,
		before *string,
		runID *string,
	) (openai.MessagesList, error)
	RetrieveAssistant(ctx context.Context, assistantID string) (openai.Assistant, error)
}

var _ AssistantClient = (*openai.Client)(nil)

// NewOpenAIClient builds the go-openai client from cfg, rate limited when
// cfg.OpenAIRequestsPerSecond is positive. httpClient may be nil.
func NewOpenAIClient(cfg *config.Config, httpClient *http.Client) AssistantClient {
	clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
	clientCfg.AssistantVersion = assistantVersion
	if cfg.OpenAIBaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAIBaseURL
	}
	if httpClient != nil {
		clientCfg.HTTPClient = httpClient
	}

	var client AssistantClient = openai.NewClientWithConfig(clientCfg)
	if cfg.OpenAIRequestsPerSecond > 0 {
		client = NewLimitedClient(client, cfg.OpenAIRequestsPerSecond)
	}
	return client
}

// LimitedClient waits on a token bucket before every request.
type LimitedClient struct {
	client  AssistantClient
	limiter *rate.Limiter
}

func NewLimitedClient(client AssistantClient, requestsPerSecond float64) *LimitedClient {
	burst := int(requestsPerSecond)
	if burst < 1 {
		burst = 1
	}
	return &LimitedClient{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

func (c *LimitedClient) CreateThread(ctx context.Context, request openai.ThreadRequest) (openai.Thread, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return openai.Thread{}, err
	}
	return c.client.CreateThread(ctx, request)
}

func (c *LimitedClient) DeleteThread(ctx context.Context, threadID string) (openai.ThreadDeleteResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return openai.ThreadDeleteResponse{}, err
	}
	return c.client.DeleteThread(ctx, threadID)
}

func (c *LimitedClient) CreateMessage(ctx context.Context, threadID string, request openai.MessageRequest) (openai.Message, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return openai.Message{}, err
	}
	return c.client.CreateMessage(ctx, threadID, request)
}

func (c *LimitedClient) CreateRun(ctx context.Context, threadID string, request openai.RunRequest) (openai.Run, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return openai.Run{}, err
	}
	return c.client.CreateRun(ctx, threadID, request)
}

func (c *LimitedClient) RetrieveRun(ctx context.Context, threadID string, runID string) (openai.Run, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return openai.Run{}, err
	}
	return c.client.RetrieveRun(ctx, threadID, runID)
}

func (c *LimitedClient) ListMessage(
	ctx context.Context,
	threadID string,
	limit *int,
	order *string,
	after *string,
	before *string,
	runID *string,
) (openai.MessagesList, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return openai.MessagesList{}, err
	}
	return c.client.ListMessage(ctx, threadID, limit, order, after, before, runID)
}

func (c *LimitedClient) RetrieveAssistant(ctx context.Context, assistantID string) (openai.Assistant, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return openai.Assistant{}, err
	}
	return c.client.RetrieveAssistant(ctx, assistantID)
}

// isNotFound reports whether err is a 404 from the assistant API.
func isNotFound(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusNotFound
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusNotFound
	}
	return false
}

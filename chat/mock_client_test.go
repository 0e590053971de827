package chat

import (
	"context"
	"io"
	"log/slog"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/mock"
)

// MockAssistantClient for testing
type MockAssistantClient struct {
	mock.Mock
}

func (m *MockAssistantClient) CreateThread(ctx context.Context, request openai.ThreadRequest) (openai.Thread, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(openai.Thread), args.Error(1)
}

func (m *MockAssistantClient) DeleteThread(ctx context.Context, threadID string) (openai.ThreadDeleteResponse, error) {
	args := m.Called(ctx, threadID)
	return args.Get(0).(openai.ThreadDeleteResponse), args.Error(1)
}

func (m *MockAssistantClient) CreateMessage(ctx context.Context, threadID string, request openai.MessageRequest) (openai.Message, error) {
	args := m.Called(ctx, threadID, request)
	return args.Get(0).(openai.Message), args.Error(1)
}

func (m *MockAssistantClient) CreateRun(ctx context.Context, threadID string, request openai.RunRequest) (openai.Run, error) {
	args := m.Called(ctx, threadID, request)
	return args.Get(0).(openai.Run), args.Error(1)
}

func (m *MockAssistantClient) RetrieveRun(ctx context.Context, threadID string, runID string) (openai.Run, error) {
	args := m.Called(ctx, threadID, runID)
	return args.Get(0).(openai.Run), args.Error(1)
}

func (m *MockAssistantClient) ListMessage(
	ctx context.Context,
	threadID string,
	limit *int,
	order *string,
	after *string,
	before *string,
	runID *string,
) (openai.MessagesList, error) {
	args := m.Called(ctx, threadID, limit, order, after, before, runID)
	return args.Get(0).(openai.MessagesList), args.Error(1)
}

func (m *MockAssistantClient) RetrieveAssistant(ctx context.Context, assistantID string) (openai.Assistant, error) {
	args := m.Called(ctx, assistantID)
	return args.Get(0).(openai.Assistant), args.Error(1)
}

var _ AssistantClient = (*MockAssistantClient)(nil)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// instantSleep records each requested wait without blocking.
type instantSleep struct {
	waits []time.Duration
}

func (s *instantSleep) Sleep(ctx context.Context, d time.Duration) error {
	s.waits = append(s.waits, d)
	return ctx.Err()
}

func limitOne() any {
	return mock.MatchedBy(func(limit *int) bool { return limit != nil && *limit == 1 })
}

func textContent(value string) openai.MessageContent {
	return openai.MessageContent{Type: "text", Text: &openai.MessageText{Value: value}}
}

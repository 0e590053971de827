package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/eraiza0816/assistant-discord/config"
	"github.com/eraiza0816/assistant-discord/logging"
	openai "github.com/sashabaranov/go-openai"
)

// Replies returned in place of assistant output when a run does not complete.
const (
	ReplyTimeout        = "Timeout"
	ReplyRequiresAction = "Action required for OpenAI assistant"
	ReplyCancelled      = "Run is cancelled"
	ReplyFailed         = "Run is failed"
	ReplyExpired        = "Run is expired"
	ReplyIncomplete     = "Run is incomplete"
)

const (
	openaiUserRole        = "user"
	openaiContentTypeText = "text"
)

var (
	// ErrThreadNotFound wraps a 404 from the provider when posting to a thread.
	ErrThreadNotFound = errors.New("thread not found")
	// ErrNoReply means the run completed but the thread had no message to read.
	ErrNoReply = errors.New("no message in thread after completed run")
)

var openaiListMessageLimit = 1

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ContextSleep is the SleepFunc used outside tests.
func ContextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Relay posts a user message to a thread, runs the assistant on it and waits
// a bounded time for the outcome.
type Relay struct {
	client      AssistantClient
	assistantID string
	interval    time.Duration
	attempts    int
	sleep       SleepFunc
	logger      *slog.Logger
}

func NewRelay(client AssistantClient, cfg *config.Config, logger *slog.Logger) *Relay {
	attempts := cfg.PollAttempts
	if attempts < 1 {
		attempts = config.DefaultPollAttempts
	}
	return &Relay{
		client:      client,
		assistantID: cfg.AssistantID,
		interval:    cfg.PollInterval,
		attempts:    attempts,
		sleep:       ContextSleep,
		logger:      logging.Named(logger, "relay"),
	}
}

// SubmitAndAwait returns the assistant's reply text, or one of the Reply*
// strings when the run ends without completing. Errors mean no reply could
// be produced at all.
func (r *Relay) SubmitAndAwait(ctx context.Context, threadID, text string) (string, error) {
	logger := logging.ContextLogger(ctx, r.logger).With("thread_id", threadID)

	_, err := r.client.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    openaiUserRole,
		Content: text,
	})
	if err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("%w: %s: %w", ErrThreadNotFound, threadID, err)
		}
		return "", fmt.Errorf("メッセージの作成に失敗しました: %w", err)
	}

	run, err := r.client.CreateRun(ctx, threadID, openai.RunRequest{AssistantID: r.assistantID})
	if err != nil {
		return "", fmt.Errorf("runの作成に失敗しました: %w", err)
	}
	logger.Info("run created", "run_id", run.ID)

	reply, completed, err := r.awaitRun(ctx, threadID, run.ID, logger)
	if err != nil || !completed {
		return reply, err
	}
	return r.latestMessageText(ctx, threadID)
}

// awaitRun polls the run. completed is true only for RunStatusCompleted;
// otherwise reply holds the status text to show the user.
func (r *Relay) awaitRun(ctx context.Context, threadID, runID string, logger *slog.Logger) (reply string, completed bool, err error) {
	for attempt := 1; attempt <= r.attempts; attempt++ {
		if err := r.sleep(ctx, r.interval); err != nil {
			return "", false, err
		}
		run, err := r.client.RetrieveRun(ctx, threadID, runID)
		if err != nil {
			return "", false, fmt.Errorf("runの取得に失敗しました: %w", err)
		}
		logger.Debug("run status", "run_id", runID, "status", run.Status, "attempt", attempt)

		if run.Status == openai.RunStatusCompleted {
			return "", true, nil
		}
		if reply, terminal := statusReply(run.Status); terminal {
			logger.Warn("run ended without completing", "run_id", runID, "status", run.Status)
			return reply, false, nil
		}
	}
	logger.Warn("run did not finish within poll budget", "run_id", runID, "attempts", r.attempts)
	return ReplyTimeout, false, nil
}

// statusReply maps an unsuccessful terminal status to its reply. Queued,
// in-progress, cancelling and unrecognised statuses are not terminal.
func statusReply(status openai.RunStatus) (string, bool) {
	switch status {
	case openai.RunStatusRequiresAction:
		return ReplyRequiresAction, true
	case openai.RunStatusCancelled:
		return ReplyCancelled, true
	case openai.RunStatusFailed:
		return ReplyFailed, true
	case openai.RunStatusExpired:
		return ReplyExpired, true
	case openai.RunStatusIncomplete:
		return ReplyIncomplete, true
	default:
		return "", false
	}
}

// latestMessageText reads the newest message in the thread. The API lists
// newest first by default, so limit=1 is the assistant's reply.
func (r *Relay) latestMessageText(ctx context.Context, threadID string) (string, error) {
	list, err := r.client.ListMessage(ctx, threadID, &openaiListMessageLimit, nil, nil, nil, nil)
	if err != nil {
		return "", fmt.Errorf("メッセージ一覧の取得に失敗しました: %w", err)
	}
	if len(list.Messages) == 0 {
		return "", ErrNoReply
	}
	return messageText(list.Messages[0]), nil
}

// messageText concatenates the text segments of msg in order, dropping
// images and any other content type.
func messageText(msg openai.Message) string {
	var text strings.Builder
	for _, content := range msg.Content {
		if content.Type != openaiContentTypeText || content.Text == nil {
			continue
		}
		text.WriteString(content.Text.Value)
	}
	return text.String()
}

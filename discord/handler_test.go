package discord

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/eraiza0816/assistant-discord/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockChatService for testing
type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) GetResponse(ctx context.Context, channelID, message string) (string, error) {
	args := m.Called(ctx, channelID, message)
	return args.String(0), args.Error(1)
}

func (m *MockChatService) Reset(ctx context.Context, channelID string) (bool, error) {
	args := m.Called(ctx, channelID)
	return args.Bool(0), args.Error(1)
}

// MockDiscordSession for testing
type MockDiscordSession struct {
	mock.Mock
}

func (m *MockDiscordSession) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(channelID, content)
	return args.Get(0).(*discordgo.Message), args.Error(1)
}

func (m *MockDiscordSession) ChannelTyping(channelID string, options ...discordgo.RequestOption) error {
	args := m.Called(channelID)
	return args.Error(0)
}

func (m *MockDiscordSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	args := m.Called(interaction, resp)
	return args.Error(0)
}

func (m *MockDiscordSession) InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	args := m.Called(interaction, newresp)
	return args.Get(0).(*discordgo.Message), args.Error(1)
}

func (m *MockDiscordSession) ApplicationCommandCreate(appID string, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error) {
	args := m.Called(appID, guildID, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*discordgo.ApplicationCommand), args.Error(1)
}

func newTestHandlers(t *testing.T, chatSvc *MockChatService) (*handlers, string) {
	t.Helper()
	auditPath := filepath.Join(t.TempDir(), "audit.jsonl")
	auditLog, err := history.NewAuditLog(auditPath)
	require.NoError(t, err)
	return &handlers{
		ctx:      context.Background(),
		chatSvc:  chatSvc,
		auditLog: auditLog,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, auditPath
}

func newMessage(content string, author *discordgo.User) *discordgo.MessageCreate {
	return &discordgo.MessageCreate{
		Message: &discordgo.Message{
			ID:        "msg_id",
			ChannelID: "channel_id",
			GuildID:   "guild_id",
			Author:    author,
			Content:   content,
			Timestamp: time.Now(),
		},
	}
}

func TestHandleMessageEvent(t *testing.T) {
	user := &discordgo.User{ID: "user_id", Username: "user"}

	t.Run("Relays message and sends reply", func(t *testing.T) {
		mockChatSvc := new(MockChatService)
		mockSession := new(MockDiscordSession)
		h, auditPath := newTestHandlers(t, mockChatSvc)

		mockSession.On("ChannelTyping", "channel_id").Return(nil).Once()
		mockChatSvc.On("GetResponse", mock.Anything, "channel_id", "hello").Return("response", nil).Once()
		mockSession.On("ChannelMessageSend", "channel_id", "response").Return(&discordgo.Message{}, nil).Once()

		h.handleMessageEvent(mockSession, newMessage("hello", user))

		mockChatSvc.AssertExpectations(t)
		mockSession.AssertExpectations(t)
		assert.FileExists(t, auditPath)
	})

	t.Run("Bot-authored messages never reach the assistant", func(t *testing.T) {
		mockChatSvc := new(MockChatService)
		mockSession := new(MockDiscordSession)
		h, _ := newTestHandlers(t, mockChatSvc)

		h.handleMessageEvent(mockSession, newMessage("beep", &discordgo.User{ID: "bot_id", Bot: true}))

		mockChatSvc.AssertNotCalled(t, "GetResponse", mock.Anything, mock.Anything, mock.Anything)
		mockSession.AssertNotCalled(t, "ChannelMessageSend", mock.Anything, mock.Anything)
		mockSession.AssertNotCalled(t, "ChannelTyping", mock.Anything)
	})

	t.Run("Nil author is ignored", func(t *testing.T) {
		mockChatSvc := new(MockChatService)
		mockSession := new(MockDiscordSession)
		h, _ := newTestHandlers(t, mockChatSvc)

		h.handleMessageEvent(mockSession, newMessage("hello", nil))

		mockChatSvc.AssertNotCalled(t, "GetResponse", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Empty content is ignored", func(t *testing.T) {
		mockChatSvc := new(MockChatService)
		mockSession := new(MockDiscordSession)
		h, _ := newTestHandlers(t, mockChatSvc)

		h.handleMessageEvent(mockSession, newMessage("  ", user))

		mockChatSvc.AssertNotCalled(t, "GetResponse", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Relay error sends nothing", func(t *testing.T) {
		mockChatSvc := new(MockChatService)
		mockSession := new(MockDiscordSession)
		h, _ := newTestHandlers(t, mockChatSvc)

		mockSession.On("ChannelTyping", "channel_id").Return(nil).Once()
		mockChatSvc.On("GetResponse", mock.Anything, "channel_id", "hello").Return("", errors.New("api error")).Once()

		h.handleMessageEvent(mockSession, newMessage("hello", user))

		mockSession.AssertNotCalled(t, "ChannelMessageSend", mock.Anything, mock.Anything)
	})

	t.Run("Status text is sent like a reply", func(t *testing.T) {
		mockChatSvc := new(MockChatService)
		mockSession := new(MockDiscordSession)
		h, _ := newTestHandlers(t, mockChatSvc)

		mockSession.On("ChannelTyping", "channel_id").Return(nil).Once()
		mockChatSvc.On("GetResponse", mock.Anything, "channel_id", "hello").Return("Timeout", nil).Once()
		mockSession.On("ChannelMessageSend", "channel_id", "Timeout").Return(&discordgo.Message{}, nil).Once()

		h.handleMessageEvent(mockSession, newMessage("hello", user))

		mockSession.AssertExpectations(t)
	})

	t.Run("Typing failure does not stop the relay", func(t *testing.T) {
		mockChatSvc := new(MockChatService)
		mockSession := new(MockDiscordSession)
		h, _ := newTestHandlers(t, mockChatSvc)

		mockSession.On("ChannelTyping", "channel_id").Return(errors.New("missing access")).Once()
		mockChatSvc.On("GetResponse", mock.Anything, "channel_id", "hello").Return("response", nil).Once()
		mockSession.On("ChannelMessageSend", "channel_id", "response").Return(&discordgo.Message{}, nil).Once()

		h.handleMessageEvent(mockSession, newMessage("hello", user))

		mockSession.AssertExpectations(t)
	})

	t.Run("Long reply is split", func(t *testing.T) {
		mockChatSvc := new(MockChatService)
		mockSession := new(MockDiscordSession)
		h, _ := newTestHandlers(t, mockChatSvc)
		long := strings.Repeat("a", maxMessageLength) + "tail"

		mockSession.On("ChannelTyping", "channel_id").Return(nil).Once()
		mockChatSvc.On("GetResponse", mock.Anything, "channel_id", "hello").Return(long, nil).Once()
		mockSession.On("ChannelMessageSend", "channel_id", strings.Repeat("a", maxMessageLength)).Return(&discordgo.Message{}, nil).Once()
		mockSession.On("ChannelMessageSend", "channel_id", "tail").Return(&discordgo.Message{}, nil).Once()

		h.handleMessageEvent(mockSession, newMessage("hello", user))

		mockSession.AssertExpectations(t)
	})

	t.Run("Send failure is swallowed", func(t *testing.T) {
		mockChatSvc := new(MockChatService)
		mockSession := new(MockDiscordSession)
		h, _ := newTestHandlers(t, mockChatSvc)

		mockSession.On("ChannelTyping", "channel_id").Return(nil).Once()
		mockChatSvc.On("GetResponse", mock.Anything, "channel_id", "hello").Return("response", nil).Once()
		mockSession.On("ChannelMessageSend", "channel_id", "response").Return((*discordgo.Message)(nil), errors.New("forbidden")).Once()

		assert.NotPanics(t, func() {
			h.handleMessageEvent(mockSession, newMessage("hello", user))
		})
		mockSession.AssertExpectations(t)
	})
}

func newCommandInteraction(name string) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{
		Interaction: &discordgo.Interaction{
			ID:        "interaction_id",
			Type:      discordgo.InteractionApplicationCommand,
			ChannelID: "channel_id",
			GuildID:   "guild_id",
			Member:    &discordgo.Member{User: &discordgo.User{ID: "user_id", Username: "user"}},
			Data:      discordgo.ApplicationCommandInteractionData{Name: name},
		},
	}
}

func editContent(want string) any {
	return mock.MatchedBy(func(edit *discordgo.WebhookEdit) bool {
		return edit.Content != nil && *edit.Content == want
	})
}

func TestHandleInteractionEvent(t *testing.T) {
	deferred := mock.MatchedBy(func(resp *discordgo.InteractionResponse) bool {
		return resp.Type == discordgo.InteractionResponseDeferredChannelMessageWithSource &&
			resp.Data != nil && resp.Data.Flags == discordgo.MessageFlagsEphemeral
	})

	t.Run("restart deletes the thread", func(t *testing.T) {
		mockChatSvc := new(MockChatService)
		mockSession := new(MockDiscordSession)
		h, _ := newTestHandlers(t, mockChatSvc)
		i := newCommandInteraction("restart")

		mockSession.On("InteractionRespond", i.Interaction, deferred).Return(nil).Once()
		mockChatSvc.On("Reset", mock.Anything, "channel_id").Return(true, nil).Once()
		mockSession.On("InteractionResponseEdit", i.Interaction, editContent("thread deleted")).Return(&discordgo.Message{}, nil).Once()

		h.handleInteractionEvent(mockSession, i)

		mockChatSvc.AssertExpectations(t)
		mockSession.AssertExpectations(t)
	})

	t.Run("restart without a thread", func(t *testing.T) {
		mockChatSvc := new(MockChatService)
		mockSession := new(MockDiscordSession)
		h, _ := newTestHandlers(t, mockChatSvc)
		i := newCommandInteraction("restart")

		mockSession.On("InteractionRespond", i.Interaction, deferred).Return(nil).Once()
		mockChatSvc.On("Reset", mock.Anything, "channel_id").Return(false, nil).Once()
		mockSession.On("InteractionResponseEdit", i.Interaction, editContent("no thread to delete")).Return(&discordgo.Message{}, nil).Once()

		h.handleInteractionEvent(mockSession, i)

		mockSession.AssertExpectations(t)
	})

	t.Run("restart failure is reported", func(t *testing.T) {
		mockChatSvc := new(MockChatService)
		mockSession := new(MockDiscordSession)
		h, _ := newTestHandlers(t, mockChatSvc)
		i := newCommandInteraction("restart")

		mockSession.On("InteractionRespond", i.Interaction, deferred).Return(nil).Once()
		mockChatSvc.On("Reset", mock.Anything, "channel_id").Return(true, errors.New("store down")).Once()
		mockSession.On("InteractionResponseEdit", i.Interaction, mock.MatchedBy(func(edit *discordgo.WebhookEdit) bool {
			return edit.Content != nil && strings.Contains(*edit.Content, "store down")
		})).Return(&discordgo.Message{}, nil).Once()

		h.handleInteractionEvent(mockSession, i)

		mockSession.AssertExpectations(t)
	})

	t.Run("unknown command is ignored", func(t *testing.T) {
		mockChatSvc := new(MockChatService)
		mockSession := new(MockDiscordSession)
		h, _ := newTestHandlers(t, mockChatSvc)

		h.handleInteractionEvent(mockSession, newCommandInteraction("about"))

		mockChatSvc.AssertNotCalled(t, "Reset", mock.Anything, mock.Anything)
		mockSession.AssertNotCalled(t, "InteractionRespond", mock.Anything, mock.Anything)
	})

	t.Run("non-command interactions are ignored", func(t *testing.T) {
		mockChatSvc := new(MockChatService)
		mockSession := new(MockDiscordSession)
		h, _ := newTestHandlers(t, mockChatSvc)
		i := newCommandInteraction("restart")
		i.Type = discordgo.InteractionMessageComponent

		h.handleInteractionEvent(mockSession, i)

		mockChatSvc.AssertNotCalled(t, "Reset", mock.Anything, mock.Anything)
	})
}

func TestInteractionUser(t *testing.T) {
	dm := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{User: &discordgo.User{ID: "dm_user"}}}
	assert.Equal(t, "dm_user", interactionUser(dm).ID)

	guild := newCommandInteraction("restart")
	assert.Equal(t, "user_id", interactionUser(guild).ID)

	empty := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{}}
	assert.NotNil(t, interactionUser(empty))
}

func TestRegisterCommands(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	restart := &discordgo.ApplicationCommand{Name: "restart", Description: "Delete generated messages"}
	other := &discordgo.ApplicationCommand{Name: "other", Description: "Other"}

	t.Run("registers every command globally", func(t *testing.T) {
		mockSession := new(MockDiscordSession)
		mockSession.On("ApplicationCommandCreate", "app_id", "", restart).
			Return(&discordgo.ApplicationCommand{ID: "1", Name: "restart"}, nil).Once()
		mockSession.On("ApplicationCommandCreate", "app_id", "", other).
			Return(&discordgo.ApplicationCommand{ID: "2", Name: "other"}, nil).Once()

		err := RegisterCommands(mockSession, "app_id", []*discordgo.ApplicationCommand{restart, other}, logger)

		require.NoError(t, err)
		mockSession.AssertExpectations(t)
	})

	t.Run("failures do not stop the rest", func(t *testing.T) {
		mockSession := new(MockDiscordSession)
		mockSession.On("ApplicationCommandCreate", "app_id", "", restart).
			Return(nil, errors.New("missing access")).Once()
		mockSession.On("ApplicationCommandCreate", "app_id", "", other).
			Return(&discordgo.ApplicationCommand{ID: "2", Name: "other"}, nil).Once()

		err := RegisterCommands(mockSession, "app_id", []*discordgo.ApplicationCommand{restart, other}, logger)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "restart")
		mockSession.AssertExpectations(t)
	})
}

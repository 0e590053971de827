package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	EventMessage = "message"
	EventReply   = "reply"
	EventReset   = "reset"
)

type AuditLogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	GuildID   string    `json:"guild_id,omitempty"`
	ChannelID string    `json:"channel_id"`
	MessageID string    `json:"message_id,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	UserName  string    `json:"user_name,omitempty"`
	ThreadID  string    `json:"thread_id,omitempty"`
	Content   string    `json:"content,omitempty"`
	EventType string    `json:"event_type"`
}

// AuditLog appends entries as JSON lines. A nil *AuditLog discards
// everything, so callers never need to check whether auditing is enabled.
type AuditLog struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewAuditLog returns nil when path is empty.
func NewAuditLog(path string) (*AuditLog, error) {
	if path == "" {
		return nil, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create audit log directory: %w", err)
		}
	}
	return &AuditLog{path: path, now: time.Now}, nil
}

func (a *AuditLog) Path() string {
	if a == nil {
		return ""
	}
	return a.path
}

func (a *AuditLog) Write(entry AuditLogEntry) error {
	if a == nil {
		return nil
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = a.now()
	}

	jsonData, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit log entry to JSON: %w", err)
	}
	jsonData = append(jsonData, '\n')

	a.mu.Lock()
	defer a.mu.Unlock()

	file, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(jsonData); err != nil {
		return fmt.Errorf("failed to write audit log entry to file: %w", err)
	}
	return nil
}

func (a *AuditLog) LogMessage(messageID, channelID, guildID, userID, userName, content string, timestamp time.Time) error {
	return a.Write(AuditLogEntry{
		Timestamp: timestamp,
		GuildID:   guildID,
		ChannelID: channelID,
		MessageID: messageID,
		UserID:    userID,
		UserName:  userName,
		Content:   content,
		EventType: EventMessage,
	})
}

func (a *AuditLog) LogReply(channelID, guildID, content string) error {
	return a.Write(AuditLogEntry{
		GuildID:   guildID,
		ChannelID: channelID,
		Content:   content,
		EventType: EventReply,
	})
}

func (a *AuditLog) LogReset(channelID, guildID, userID, userName string) error {
	return a.Write(AuditLogEntry{
		GuildID:   guildID,
		ChannelID: channelID,
		UserID:    userID,
		UserName:  userName,
		EventType: EventReset,
	})
}

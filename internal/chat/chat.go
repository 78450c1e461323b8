package chat

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"support-finder/internal/apperrors"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Chat struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Title     string         `json:"title"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	Messages  []Message      `json:"-" gorm:"foreignKey:ChatID"`
}

type Message struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	ChatID      uint           `json:"chat_id" gorm:"index"`
	Role        string         `json:"role"` // "user" or "assistant"
	Content     string         `json:"content"`
	Action      string         `json:"action,omitempty"`       // policy action behind an assistant reply
	ResourceIDs datatypes.JSON `json:"resource_ids,omitempty"` // ids presented with the reply
	Fallback    bool           `json:"fallback" gorm:"default:false"`
	CreatedAt   time.Time      `json:"createdAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// ResourceIDList decodes ResourceIDs; a missing or malformed value yields nil.
func (m *Message) ResourceIDList() []uint {
	if len(m.ResourceIDs) == 0 {
		return nil
	}
	var ids []uint
	if err := json.Unmarshal(m.ResourceIDs, &ids); err != nil {
		return nil
	}
	return ids
}

func (c *Chat) DisplayTitle() string {
	if c.Title == "" {
		return "New conversation"
	}
	return c.Title
}

// Sliding window for context limitation
func BuildSlidingWindow(messages []Message, contextSize int) []Message {
	maxChars := int(float64(contextSize)*0.85) * 4 // Use 85% of context, 4 chars/token
	var window []Message
	totalChars := 0

	// Start from the end (latest message), prepend to window
	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		msgLen := len(m.Content)
		if totalChars+msgLen > maxChars {
			break
		}
		window = append([]Message{m}, window...)
		totalChars += msgLen
	}
	return window
}

// Reply is the assistant side of a turn as it gets persisted.
type Reply struct {
	Content     string
	Action      string
	ResourceIDs []uint
	Fallback    bool
}

// Store is the transcript of record.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateChat(ctx context.Context, title string) (*Chat, error) {
	c := &Chat{Title: title}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, apperrors.Storage("create chat", err)
	}
	return c, nil
}

func (s *Store) GetChat(ctx context.Context, id uint) (*Chat, error) {
	var c Chat
	err := s.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("chat", id)
	}
	if err != nil {
		return nil, apperrors.Storage("get chat", err)
	}
	return &c, nil
}

// GetMessages returns the latest limit messages in chronological order.
// limit <= 0 returns the whole transcript.
func (s *Store) GetMessages(ctx context.Context, chatID uint, limit int) ([]Message, error) {
	q := s.db.WithContext(ctx).Where("chat_id = ?", chatID).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var msgs []Message
	if err := q.Find(&msgs).Error; err != nil {
		return nil, apperrors.Storage("get messages", err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (s *Store) AppendMessage(ctx context.Context, chatID uint, role, content string) (*Message, error) {
	if role != RoleUser && role != RoleAssistant {
		return nil, apperrors.InvalidInput("unknown message role", role)
	}
	m := &Message{ChatID: chatID, Role: role, Content: content}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, apperrors.Storage("append message", err)
	}
	return m, nil
}

// AppendReply stores an assistant message with the action and resources behind it.
func (s *Store) AppendReply(ctx context.Context, chatID uint, r Reply) (*Message, error) {
	m := &Message{
		ChatID:   chatID,
		Role:     RoleAssistant,
		Content:  r.Content,
		Action:   r.Action,
		Fallback: r.Fallback,
	}
	if len(r.ResourceIDs) > 0 {
		raw, err := json.Marshal(r.ResourceIDs)
		if err != nil {
			return nil, apperrors.Storage("encode resource ids", err)
		}
		m.ResourceIDs = datatypes.JSON(raw)
	}
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, apperrors.Storage("append reply", err)
	}
	return m, nil
}

// DeleteChat soft-deletes the conversation and its messages.
func (s *Store) DeleteChat(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&Chat{}, id)
		if res.Error != nil {
			return apperrors.Storage("delete chat", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("chat", id)
		}
		if err := tx.Where("chat_id = ?", id).Delete(&Message{}).Error; err != nil {
			return apperrors.Storage("delete messages", err)
		}
		return nil
	})
}

package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/wazecore/wazecore/pkg/apierr"
)

// RegisterChat creates a new Chat row, or returns the existing one if jid
// is already registered.
func (s *Store) RegisterChat(ctx context.Context, jid, name string, kind ChatKind) (Chat, error) {
	existing, err := s.GetChatByJID(ctx, jid)
	if err == nil {
		return existing, nil
	}
	if !isNotFoundErr(err) {
		return Chat{}, err
	}

	chat := Chat{ID: newID(), JID: jid, Name: name, Kind: kind, Enabled: true}
	if err := s.db.WithContext(ctx).Create(&chat).Error; err != nil {
		return Chat{}, err
	}
	return chat, nil
}

// GetChat fetches a Chat by its opaque id.
func (s *Store) GetChat(ctx context.Context, id string) (Chat, error) {
	var c Chat
	err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if err != nil {
		return Chat{}, wrapNotFound("chat", err)
	}
	return c, nil
}

// GetChatByJID fetches a Chat by its gateway-assigned JID.
func (s *Store) GetChatByJID(ctx context.Context, jid string) (Chat, error) {
	var c Chat
	err := s.db.WithContext(ctx).First(&c, "jid = ?", jid).Error
	if err != nil {
		return Chat{}, wrapNotFound("chat", err)
	}
	return c, nil
}

// ListChats returns every registered Chat, optionally filtered to enabled
// ones only.
func (s *Store) ListChats(ctx context.Context, enabledOnly bool) ([]Chat, error) {
	q := s.db.WithContext(ctx).Order("name ASC")
	if enabledOnly {
		q = q.Where("enabled = ?", true)
	}
	var chats []Chat
	if err := q.Find(&chats).Error; err != nil {
		return nil, err
	}
	return chats, nil
}

// SetChatEnabled toggles whether the Processor polls this chat.
func (s *Store) SetChatEnabled(ctx context.Context, id string, enabled bool) error {
	res := s.db.WithContext(ctx).Model(&Chat{}).Where("id = ?", id).Update("enabled", enabled)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierr.New(apierr.NotFound, "chat not found")
	}
	return nil
}

// DeleteChat removes a Chat and cascades to its assignments and processed
// records, all within a single transaction.
func (s *Store) DeleteChat(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", id).Delete(&ChatBotAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("chat_id = ?", id).Delete(&ProcessedMessage{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&Chat{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apierr.New(apierr.NotFound, "chat not found")
		}
		return nil
	})
}

// AdvanceChatWatermark records the newest message the poller has
// considered. It is idempotent: the update only applies when
// newLastMessageAt is not older than the chat's current last_message_at,
// idempotently, so a retried or out-of-order poll can never move it backward.
func (s *Store) AdvanceChatWatermark(ctx context.Context, chatID, newLastProcessedID string, newLastMessageAt time.Time) error {
	return s.db.WithContext(ctx).
		Model(&Chat{}).
		Where("id = ? AND (last_message_at IS NULL OR last_message_at <= ?)", chatID, newLastMessageAt).
		Updates(map[string]any{
			"last_processed_message_id": newLastProcessedID,
			"last_message_at":           newLastMessageAt,
		}).Error
}

func isNotFoundErr(err error) bool {
	ae, ok := err.(*apierr.Error)
	return ok && ae.Kind == apierr.NotFound
}

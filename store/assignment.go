package store

import (
	"context"

	"github.com/wazecore/wazecore/pkg/apierr"
)

// AssignedBot pairs a ChatBotAssignment with its BotInstance for
// dispatch-time lookups.
type AssignedBot struct {
	Assignment ChatBotAssignment
	Instance   BotInstance
}

// AssignBot creates a ChatBotAssignment, rejecting a duplicate
// (chat_id, bot_instance_id) pair.
func (s *Store) AssignBot(ctx context.Context, chatID, botInstanceID string, priority int) (ChatBotAssignment, error) {
	a := ChatBotAssignment{
		ID:            newID(),
		ChatID:        chatID,
		BotInstanceID: botInstanceID,
		Priority:      priority,
		Enabled:       true,
	}
	if err := s.db.WithContext(ctx).Create(&a).Error; err != nil {
		if isDuplicate(err) {
			return ChatBotAssignment{}, apierr.New(apierr.Duplicate, "bot already assigned to this chat")
		}
		return ChatBotAssignment{}, err
	}
	return a, nil
}

// UpdateAssignment changes priority and/or enabled on an existing
// assignment. The change takes effect at the chat's next poll tick.
func (s *Store) UpdateAssignment(ctx context.Context, id string, priority int, enabled bool) error {
	res := s.db.WithContext(ctx).Model(&ChatBotAssignment{}).Where("id = ?", id).Updates(map[string]any{
		"priority": priority,
		"enabled":  enabled,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierr.New(apierr.NotFound, "assignment not found")
	}
	return nil
}

// RemoveAssignment deletes a ChatBotAssignment by id.
func (s *Store) RemoveAssignment(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&ChatBotAssignment{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierr.New(apierr.NotFound, "assignment not found")
	}
	return nil
}

// ListAssignmentsForChat returns every assignment for a chat joined with
// its BotInstance, ordered by priority ascending (lower fires first) and
// then by bot_instance_id ascending as a deterministic tiebreak when two
// assignments share a priority.
func (s *Store) ListAssignmentsForChat(ctx context.Context, chatID string, enabledOnly bool) ([]AssignedBot, error) {
	var assignments []ChatBotAssignment
	q := s.db.WithContext(ctx).Where("chat_id = ?", chatID).Order("priority ASC, bot_instance_id ASC")
	if enabledOnly {
		q = q.Where("enabled = ?", true)
	}
	if err := q.Find(&assignments).Error; err != nil {
		return nil, err
	}

	out := make([]AssignedBot, 0, len(assignments))
	for _, a := range assignments {
		inst, err := s.GetBotInstance(ctx, a.BotInstanceID)
		if err != nil {
			continue // instance was deleted out from under a stale assignment row
		}
		if enabledOnly && !inst.Enabled {
			continue
		}
		out = append(out, AssignedBot{Assignment: a, Instance: inst})
	}
	return out, nil
}

// GetAssignment fetches the assignment linking chatID to botInstanceID,
// used by the REST layer to resolve a (chat, bot) path pair into the
// assignment row its update/remove operations key off.
func (s *Store) GetAssignment(ctx context.Context, chatID, botInstanceID string) (ChatBotAssignment, error) {
	var a ChatBotAssignment
	err := s.db.WithContext(ctx).First(&a, "chat_id = ? AND bot_instance_id = ?", chatID, botInstanceID).Error
	if err != nil {
		return ChatBotAssignment{}, wrapNotFound("assignment", err)
	}
	return a, nil
}

// ListAssignmentsForBot returns every chat a BotInstance is assigned to.
func (s *Store) ListAssignmentsForBot(ctx context.Context, botInstanceID string) ([]ChatBotAssignment, error) {
	var assignments []ChatBotAssignment
	if err := s.db.WithContext(ctx).Where("bot_instance_id = ?", botInstanceID).Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

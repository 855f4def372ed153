package store

import (
	"context"
	"time"
)

// LockResult reports whether TryLockMessage inserted a fresh pending
// ledger row or found one already there.
type LockResult string

const (
	Locked  LockResult = "locked"  // this call inserted the row; caller owns dispatch
	Existed LockResult = "existed" // another dispatch already claimed this (bot, message)
)

// InterruptedAtShutdown is the error_kind stamped on a row a crash left in
// status=pending, by ReconcileProcessed.
const InterruptedAtShutdown = "InterruptedAtShutdown"

// TryLockMessage is the serialization point for at-most-once delivery: it
// atomically inserts a status=pending ProcessedMessage row for
// (botInstanceID, externalMessageID), or reports that one already exists.
// The unique index on (bot_instance_id, external_message_id) is what makes
// this atomic under concurrent per-chat goroutines racing on the same
// message.
func (s *Store) TryLockMessage(ctx context.Context, botInstanceID, chatID, externalMessageID string) (string, LockResult, error) {
	row := ProcessedMessage{
		ID:                newID(),
		BotInstanceID:     botInstanceID,
		ChatID:            chatID,
		ExternalMessageID: externalMessageID,
		Status:            StatusPending,
		ProcessedAt:       time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Create(&row).Error
	if err == nil {
		return row.ID, Locked, nil
	}
	if isDuplicate(err) {
		return "", Existed, nil
	}
	return "", "", err
}

// FinalizeProcessed moves a locked row to its terminal status once the
// bot's process call has returned. Replies are sent
// by the caller strictly before calling this, so a crash in between leaves
// the row in status=pending and the reply already sent — acceptable,
// since ReconcileProcessed never re-dispatches a pending row.
func (s *Store) FinalizeProcessed(ctx context.Context, rowID string, status ProcessedStatus, responseExcerpt, errorKind string) error {
	return s.db.WithContext(ctx).Model(&ProcessedMessage{}).Where("id = ?", rowID).Updates(map[string]any{
		"status":           status,
		"response_excerpt": responseExcerpt,
		"error_kind":       errorKind,
		"processed_at":     time.Now().UTC(),
	}).Error
}

// InsertSkipped records a status=skipped row directly, for the cold-start
// catch-up pass and self-reply suppression, where there is
// no bot dispatch to await. It is idempotent the same way TryLockMessage
// is: a duplicate is silently ignored.
func (s *Store) InsertSkipped(ctx context.Context, botInstanceID, chatID, externalMessageID, reason string) error {
	row := ProcessedMessage{
		ID:                newID(),
		BotInstanceID:     botInstanceID,
		ChatID:            chatID,
		ExternalMessageID: externalMessageID,
		Status:            StatusSkipped,
		ErrorKind:         reason,
		ProcessedAt:       time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Create(&row).Error
	if err != nil && !isDuplicate(err) {
		return err
	}
	return nil
}

// WasProcessed reports whether a (bot_instance_id, external_message_id)
// pair already has a ledger row, without writing one. The Processor does
// not call it; its only check before a bot runs is TryLockMessage.
func (s *Store) WasProcessed(ctx context.Context, botInstanceID, externalMessageID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&ProcessedMessage{}).
		Where("bot_instance_id = ? AND external_message_id = ?", botInstanceID, externalMessageID).
		Count(&count).Error
	return count > 0, err
}

// ListProcessedForChat returns a chat's processed-message history, newest
// first, for the REST browsing endpoint, with simple offset pagination.
func (s *Store) ListProcessedForChat(ctx context.Context, chatID string, limit, offset int) ([]ProcessedMessage, error) {
	var rows []ProcessedMessage
	err := s.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("processed_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	return rows, err
}

// ReconcileProcessed finalizes every row a crash left in status=pending as
// failed(InterruptedAtShutdown), without re-invoking any bot. Called once
// at startup before the Processor begins polling.
func (s *Store) ReconcileProcessed(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Model(&ProcessedMessage{}).
		Where("status = ?", StatusPending).
		Updates(map[string]any{
			"status":     StatusFailed,
			"error_kind": InterruptedAtShutdown,
		})
	return res.RowsAffected, res.Error
}

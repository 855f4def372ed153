package store

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"github.com/wazecore/wazecore/pkg/apierr"
)

// CreateBotInstance inserts a new BotInstance; config has already been
// validated against the BotType's schema by the caller (botmanager).
func (s *Store) CreateBotInstance(ctx context.Context, typeKey, name, description string, config map[string]any) (BotInstance, error) {
	raw, err := json.Marshal(config)
	if err != nil {
		return BotInstance{}, apierr.New(apierr.BadInput, "invalid config: %v", err)
	}
	inst := BotInstance{
		ID:          newID(),
		TypeKey:     typeKey,
		Name:        name,
		Description: description,
		ConfigJSON:  string(raw),
		Enabled:     true,
	}
	if err := s.db.WithContext(ctx).Create(&inst).Error; err != nil {
		return BotInstance{}, err
	}
	return inst, nil
}

// GetBotInstance fetches a BotInstance by id.
func (s *Store) GetBotInstance(ctx context.Context, id string) (BotInstance, error) {
	var inst BotInstance
	err := s.db.WithContext(ctx).First(&inst, "id = ?", id).Error
	if err != nil {
		return BotInstance{}, wrapNotFound("bot instance", err)
	}
	return inst, nil
}

// ListBotInstances returns every configured BotInstance.
func (s *Store) ListBotInstances(ctx context.Context) ([]BotInstance, error) {
	var insts []BotInstance
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&insts).Error; err != nil {
		return nil, err
	}
	return insts, nil
}

// UpdateBotInstance replaces name/description/config/enabled for an
// existing instance. config must already be schema-validated.
func (s *Store) UpdateBotInstance(ctx context.Context, id, name, description string, config map[string]any, enabled bool) error {
	raw, err := json.Marshal(config)
	if err != nil {
		return apierr.New(apierr.BadInput, "invalid config: %v", err)
	}
	res := s.db.WithContext(ctx).Model(&BotInstance{}).Where("id = ?", id).Updates(map[string]any{
		"name":        name,
		"description": description,
		"config_json": string(raw),
		"enabled":     enabled,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apierr.New(apierr.NotFound, "bot instance not found")
	}
	return nil
}

// DeleteBotInstance removes a BotInstance and cascades to its assignments
// and processed records.
func (s *Store) DeleteBotInstance(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bot_instance_id = ?", id).Delete(&ChatBotAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("bot_instance_id = ?", id).Delete(&ProcessedMessage{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&BotInstance{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apierr.New(apierr.NotFound, "bot instance not found")
		}
		return nil
	})
}

// Config unmarshals the instance's stored configuration.
func (b BotInstance) Config() map[string]any {
	var cfg map[string]any
	_ = json.Unmarshal([]byte(b.ConfigJSON), &cfg)
	if cfg == nil {
		cfg = map[string]any{}
	}
	return cfg
}

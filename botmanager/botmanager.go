// Package botmanager owns the CRUD semantics of BotInstance and
// ChatBotAssignment, waking the Processor on any assignment
// mutation so a change takes effect within one poll interval.
package botmanager

import (
	"context"

	"github.com/wazecore/wazecore/botkernel"
	"github.com/wazecore/wazecore/store"
)

// Waker is the subset of *processor.Processor the Bot Manager needs.
type Waker interface {
	Wake(chatID string)
	StartChat(ctx context.Context, chatID string)
	StopChat(chatID string)
}

// Manager is the typed façade over bot instance and assignment lifecycle.
type Manager struct {
	st       *store.Store
	registry *botkernel.Registry
	waker    Waker
}

// New builds a Manager.
func New(st *store.Store, registry *botkernel.Registry, waker Waker) *Manager {
	return &Manager{st: st, registry: registry, waker: waker}
}

// CreateBotInstance validates config against the named BotType's schema
// and persists a new instance.
func (m *Manager) CreateBotInstance(ctx context.Context, typeKey, name, description string, rawConfig map[string]any) (store.BotInstance, error) {
	botType, err := m.registry.Get(typeKey)
	if err != nil {
		return store.BotInstance{}, err
	}
	resolved, err := botType.Info().ConfigSchema.Validate(rawConfig)
	if err != nil {
		return store.BotInstance{}, err
	}
	return m.st.CreateBotInstance(ctx, typeKey, name, description, resolved)
}

// UpdateBotInstance re-validates config and updates an existing instance,
// then wakes every chat it's assigned to so the new config takes effect
// immediately.
func (m *Manager) UpdateBotInstance(ctx context.Context, id, name, description string, rawConfig map[string]any, enabled bool) error {
	inst, err := m.st.GetBotInstance(ctx, id)
	if err != nil {
		return err
	}
	botType, err := m.registry.Get(inst.TypeKey)
	if err != nil {
		return err
	}
	resolved, err := botType.Info().ConfigSchema.Validate(rawConfig)
	if err != nil {
		return err
	}
	if err := m.st.UpdateBotInstance(ctx, id, name, description, resolved, enabled); err != nil {
		return err
	}
	m.wakeAssignedChats(ctx, id)
	return nil
}

// DeleteBotInstance removes an instance and wakes every chat it was
// assigned to.
func (m *Manager) DeleteBotInstance(ctx context.Context, id string) error {
	assignments, err := m.st.ListAssignmentsForBot(ctx, id)
	if err != nil {
		return err
	}
	if err := m.st.DeleteBotInstance(ctx, id); err != nil {
		return err
	}
	for _, a := range assignments {
		m.waker.Wake(a.ChatID)
	}
	return nil
}

// AssignBot enables a BotInstance on a Chat and wakes the chat's poller.
func (m *Manager) AssignBot(ctx context.Context, chatID, botInstanceID string, priority int) (store.ChatBotAssignment, error) {
	a, err := m.st.AssignBot(ctx, chatID, botInstanceID, priority)
	if err != nil {
		return store.ChatBotAssignment{}, err
	}
	m.waker.Wake(chatID)
	return a, nil
}

// UpdateAssignment changes priority/enabled and wakes the chat's poller.
// Disabling mid-tick is still honored because the Processor reads
// assignments fresh for every message.
func (m *Manager) UpdateAssignment(ctx context.Context, id, chatID string, priority int, enabled bool) error {
	if err := m.st.UpdateAssignment(ctx, id, priority, enabled); err != nil {
		return err
	}
	m.waker.Wake(chatID)
	return nil
}

// RemoveAssignment deletes an assignment and wakes the chat's poller.
func (m *Manager) RemoveAssignment(ctx context.Context, id, chatID string) error {
	if err := m.st.RemoveAssignment(ctx, id); err != nil {
		return err
	}
	m.waker.Wake(chatID)
	return nil
}

// RegisterChat registers a new chat and starts its poller immediately.
func (m *Manager) RegisterChat(ctx context.Context, jid, name string, kind store.ChatKind) (store.Chat, error) {
	chat, err := m.st.RegisterChat(ctx, jid, name, kind)
	if err != nil {
		return store.Chat{}, err
	}
	m.waker.StartChat(ctx, chat.ID)
	return chat, nil
}

// DeleteChat removes a chat and stops its poller.
func (m *Manager) DeleteChat(ctx context.Context, id string) error {
	if err := m.st.DeleteChat(ctx, id); err != nil {
		return err
	}
	m.waker.StopChat(id)
	return nil
}

func (m *Manager) wakeAssignedChats(ctx context.Context, botInstanceID string) {
	assignments, err := m.st.ListAssignmentsForBot(ctx, botInstanceID)
	if err != nil {
		return
	}
	for _, a := range assignments {
		m.waker.Wake(a.ChatID)
	}
}

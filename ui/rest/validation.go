package rest

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/wazecore/wazecore/pkg/apierr"
	"github.com/wazecore/wazecore/store"
)

// loginRequest is the POST /auth/login body.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func validateLogin(ctx context.Context, req loginRequest) error {
	return asBadInput(validation.ValidateStructWithContext(ctx, &req,
		validation.Field(&req.Username, validation.Required),
		validation.Field(&req.Password, validation.Required),
	))
}

// registerChatRequest is the POST /chats body.
type registerChatRequest struct {
	JID  string `json:"jid"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func validateRegisterChat(ctx context.Context, req registerChatRequest) error {
	return asBadInput(validation.ValidateStructWithContext(ctx, &req,
		validation.Field(&req.JID, validation.Required),
		validation.Field(&req.Name, validation.Required),
		validation.Field(&req.Kind, validation.Required, validation.In(
			string(store.ChatPrivate), string(store.ChatGroup), string(store.ChatChannel),
		)),
	))
}

// createBotRequest is the POST /bots body.
type createBotRequest struct {
	TypeKey     string         `json:"type_key"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Config      map[string]any `json:"config"`
}

func validateCreateBot(ctx context.Context, req createBotRequest) error {
	return asBadInput(validation.ValidateStructWithContext(ctx, &req,
		validation.Field(&req.TypeKey, validation.Required),
		validation.Field(&req.Name, validation.Required),
	))
}

// updateBotRequest is the PATCH /bots/{id} body.
type updateBotRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Config      map[string]any `json:"config"`
	Enabled     bool           `json:"enabled"`
}

func validateUpdateBot(ctx context.Context, req updateBotRequest) error {
	return asBadInput(validation.ValidateStructWithContext(ctx, &req,
		validation.Field(&req.Name, validation.Required),
	))
}

// assignBotRequest is the POST /chats/{id}/bots body.
type assignBotRequest struct {
	BotInstanceID string `json:"bot_instance_id"`
	Priority      int    `json:"priority"`
}

func validateAssignBot(ctx context.Context, req assignBotRequest) error {
	return asBadInput(validation.ValidateStructWithContext(ctx, &req,
		validation.Field(&req.BotInstanceID, validation.Required),
	))
}

// updateAssignmentRequest is the PATCH /chats/{id}/bots/{bot_id} body.
type updateAssignmentRequest struct {
	Priority int  `json:"priority"`
	Enabled  bool `json:"enabled"`
}

// createScheduleRequest is the POST /schedules body.
type createScheduleRequest struct {
	Kind       string `json:"kind"`
	FireAt     string `json:"fire_at"`
	Expression string `json:"expression"`
	Timezone   string `json:"timezone"`
	TargetJID  string `json:"target_jid"`
	Content    string `json:"content"`
}

func validateCreateSchedule(ctx context.Context, req createScheduleRequest) error {
	return asBadInput(validation.ValidateStructWithContext(ctx, &req,
		validation.Field(&req.Kind, validation.Required, validation.In(
			string(store.ScheduleOnce), string(store.ScheduleCron),
		)),
		validation.Field(&req.TargetJID, validation.Required),
		validation.Field(&req.Content, validation.Required),
		validation.Field(&req.FireAt, validation.When(req.Kind == string(store.ScheduleOnce), validation.Required)),
		validation.Field(&req.Expression, validation.When(req.Kind == string(store.ScheduleCron), validation.Required)),
		validation.Field(&req.Timezone, validation.When(req.Kind == string(store.ScheduleCron), validation.Required)),
	))
}

// updateScheduleRequest is the PATCH /schedules/{id} body.
type updateScheduleRequest struct {
	TargetJID string `json:"target_jid"`
	Content   string `json:"content"`
	Enabled   bool   `json:"enabled"`
}

func validateUpdateSchedule(ctx context.Context, req updateScheduleRequest) error {
	return asBadInput(validation.ValidateStructWithContext(ctx, &req,
		validation.Field(&req.TargetJID, validation.Required),
		validation.Field(&req.Content, validation.Required),
	))
}

// asBadInput wraps an ozzo-validation failure as a typed BadInput error so
// every validation failure maps to the same 400 envelope.
func asBadInput(err error) error {
	if err == nil {
		return nil
	}
	return apierr.New(apierr.BadInput, "%v", err)
}

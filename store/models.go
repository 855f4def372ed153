package store

import "time"

// ChatKind enumerates the gateway conversation kinds.
type ChatKind string

const (
	ChatPrivate ChatKind = "private"
	ChatGroup   ChatKind = "group"
	ChatChannel ChatKind = "channel"
)

// Chat is a registered WhatsApp conversation.
type Chat struct {
	ID                     string `gorm:"primaryKey"`
	JID                    string `gorm:"uniqueIndex;not null"`
	Name                   string
	Kind                   ChatKind `gorm:"not null"`
	LastMessageAt          *time.Time
	LastProcessedMessageID *string
	Enabled                bool      `gorm:"not null;default:true"`
	CreatedAt              time.Time `gorm:"autoCreateTime"`
	UpdatedAt              time.Time `gorm:"autoUpdateTime"`
}

// BotInstance is a configured instance of a registered BotType.
type BotInstance struct {
	ID          string `gorm:"primaryKey"`
	TypeKey     string `gorm:"not null;index"`
	Name        string `gorm:"not null"`
	Description string
	ConfigJSON  string `gorm:"column:config_json;not null;default:'{}'"`
	Enabled     bool   `gorm:"not null;default:true"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (BotInstance) TableName() string { return "bot_instances" }

// ChatBotAssignment enables a BotInstance on a Chat.
type ChatBotAssignment struct {
	ID            string `gorm:"primaryKey"`
	ChatID        string `gorm:"not null;uniqueIndex:idx_chat_bot"`
	BotInstanceID string `gorm:"not null;uniqueIndex:idx_chat_bot;index"`
	Priority      int    `gorm:"not null;default:0"`
	Enabled       bool   `gorm:"not null;default:true"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (ChatBotAssignment) TableName() string { return "chat_bot_assignments" }

// ProcessedStatus is the outcome recorded for a dispatch attempt.
type ProcessedStatus string

const (
	StatusPending ProcessedStatus = "pending"
	StatusOK      ProcessedStatus = "ok"
	StatusSkipped ProcessedStatus = "skipped"
	StatusFailed  ProcessedStatus = "failed"
)

// ProcessedMessage is the at-most-once ledger row for one
// (bot_instance_id, external_message_id) dispatch.
type ProcessedMessage struct {
	ID               string          `gorm:"primaryKey"`
	BotInstanceID    string          `gorm:"not null;uniqueIndex:idx_bot_external;index"`
	ChatID           string          `gorm:"not null;index"`
	ExternalMessageID string         `gorm:"column:external_message_id;not null;uniqueIndex:idx_bot_external"`
	Status           ProcessedStatus `gorm:"not null"`
	ResponseExcerpt  string
	ErrorKind        string
	ProcessedAt      time.Time `gorm:"not null"`
}

func (ProcessedMessage) TableName() string { return "processed_messages" }

// ScheduleKind distinguishes one-shot from recurring jobs.
type ScheduleKind string

const (
	ScheduleOnce ScheduleKind = "once"
	ScheduleCron ScheduleKind = "cron"
)

// ScheduleResult is the outcome of the most recent fire attempt.
type ScheduleResult string

const (
	ResultOK      ScheduleResult = "ok"
	ResultFailed  ScheduleResult = "failed"
	ResultSkipped ScheduleResult = "skipped"
)

// Schedule is a pending or recurring send job.
type Schedule struct {
	ID          string       `gorm:"primaryKey"`
	Kind        ScheduleKind `gorm:"not null"`
	FireAt      *time.Time
	Expression  string
	Timezone    string
	TargetJID   string `gorm:"not null"`
	Content     string `gorm:"not null"`
	Enabled     bool   `gorm:"not null;default:true"`
	NextFireAt  *time.Time `gorm:"index"`
	LastFireAt  *time.Time
	LastResult  *ScheduleResult
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// User is a REST-surface operator identity.
type User struct {
	ID           string `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// AllModels lists every entity for AutoMigrate.
func AllModels() []any {
	return []any{
		&Chat{},
		&BotInstance{},
		&ChatBotAssignment{},
		&ProcessedMessage{},
		&Schedule{},
		&User{},
	}
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Conversation struct {
	Id                   uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId               uuid.UUID      `gorm:"type:uuid;not null;index"` // User ownership for data isolation
	Title                string         `gorm:"type:text;not null"`
	ServerConversationId *string        `gorm:"type:text"`
	LastActivity         time.Time      `gorm:"not null;index"`
	Metadata             datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt            time.Time      `gorm:"autoCreateTime"`
	UpdatedAt            time.Time      `gorm:"autoUpdateTime"`
	DeletedAt            gorm.DeletedAt `gorm:"index"`
}

func (Conversation) TableName() string {
	return "conversations"
}

type ConversationMessage struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConversationId uuid.UUID `gorm:"type:uuid;not null;index"`
	Role           string    `gorm:"type:varchar(16);not null"`
	Content        string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"not null;index"`

	Conversation *Conversation `gorm:"foreignKey:ConversationId;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (ConversationMessage) TableName() string {
	return "conversation_messages"
}

// Recommendation is one candidate card shown on one assistant message.
type Recommendation struct {
	Id                   uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ConversationId       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_recommendation_turn_package,priority:1"`
	MessageId            uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_recommendation_turn_package,priority:2"`
	SponsorshipOfferId   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_recommendation_turn_package,priority:3"`
	PackageId            uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_recommendation_turn_package,priority:4"`
	Position             int            `gorm:"not null;default:0"`
	RecommendationReason string         `gorm:"type:text"`
	Payload              datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt            time.Time      `gorm:"autoCreateTime"`

	Message *ConversationMessage `gorm:"foreignKey:MessageId;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (Recommendation) TableName() string {
	return "recommendations"
}

type RecommendationStat struct {
	PackageId    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Impressions  int64     `gorm:"not null;default:0"`
	LastServedAt time.Time
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (RecommendationStat) TableName() string {
	return "recommendation_stats"
}

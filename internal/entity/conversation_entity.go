package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ConversationMessage struct {
	Id              uuid.UUID
	Role            string
	Content         string
	Timestamp       time.Time
	Recommendations []CandidatePackage
}

// SavedPreferences holds the last known search settings of a conversation.
// Nil fields mean "not set".
type SavedPreferences struct {
	Sports    []string `json:"sports,omitempty"`
	BudgetMin *float64 `json:"budgetMin,omitempty"`
	BudgetMax *float64 `json:"budgetMax,omitempty"`
	RadiusKm  *float64 `json:"radiusKm,omitempty"`
}

type Conversation struct {
	Id                   uuid.UUID
	UserId               uuid.UUID
	Title                string
	ServerConversationId *string
	Messages             []ConversationMessage
	Preferences          *SavedPreferences
	LastActivity         time.Time
	CreatedAt            time.Time
}

// RecommendationRecord ties a served candidate to the assistant message that showed it.
type RecommendationRecord struct {
	Id                   uuid.UUID
	ConversationId       uuid.UUID
	MessageId            uuid.UUID
	SponsorshipOfferId   uuid.UUID
	PackageId            uuid.UUID
	Position             int
	RecommendationReason string
	Candidate            CandidatePackage
	CreatedAt            time.Time
}

type BusinessProfile struct {
	Id         uuid.UUID
	UserId     uuid.UUID
	Name       string
	City       string
	State      string
	PostalCode string
	Latitude   *float64
	Longitude  *float64
	GeocodedAt *time.Time
}

type RecommendationStat struct {
	PackageId    uuid.UUID
	Impressions  int64
	LastServedAt time.Time
}

package dto

import (
	"time"

	"sponsor-advisor-be/internal/entity"

	"github.com/google/uuid"
)

// TurnFilters are per-turn overrides of the saved search preferences.
type TurnFilters struct {
	Sport     *string  `json:"sport,omitempty" validate:"omitempty,max=64"`
	BudgetMin *float64 `json:"budgetMin,omitempty" validate:"omitempty,gte=0"`
	BudgetMax *float64 `json:"budgetMax,omitempty" validate:"omitempty,gte=0"`
	RadiusKm  *float64 `json:"radiusKm,omitempty" validate:"omitempty,gt=0"`
}

type AdvisorTurnRequest struct {
	Message        string       `json:"message" validate:"required,max=4000"`
	ConversationId *uuid.UUID   `json:"conversationId"`
	Filters        *TurnFilters `json:"filters,omitempty"`
}

// AdvisorTurnResponse carries recommendations as null when no search ran.
type AdvisorTurnResponse struct {
	ConversationId  uuid.UUID                 `json:"conversationId"`
	MessageId       uuid.UUID                 `json:"messageId"`
	Message         string                    `json:"message"`
	Recommendations []entity.CandidatePackage `json:"recommendations"`
}

type CreateConversationRequest struct {
	Title string `json:"title" validate:"max=200"`
}

type CreateConversationResponse struct {
	Id uuid.UUID `json:"id"`
}

type ConversationSummaryResponse struct {
	Id           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	LastActivity time.Time `json:"lastActivity"`
	IsActive     bool      `json:"isActive"`
}

type ConversationMessageResponse struct {
	Id              uuid.UUID                 `json:"id"`
	Role            string                    `json:"role"`
	Content         string                    `json:"content"`
	Timestamp       time.Time                 `json:"timestamp"`
	Recommendations []entity.CandidatePackage `json:"recommendations"`
}

type ConversationResponse struct {
	Id                   uuid.UUID                     `json:"id"`
	Title                string                        `json:"title"`
	ServerConversationId *string                       `json:"serverConversationId"`
	Messages             []ConversationMessageResponse `json:"messages"`
	Preferences          *PreferencesDTO               `json:"preferences"`
	LastActivity         time.Time                     `json:"lastActivity"`
}

type PreferencesDTO struct {
	Sports    []string `json:"sports,omitempty" validate:"omitempty,dive,max=64"`
	BudgetMin *float64 `json:"budgetMin,omitempty" validate:"omitempty,gte=0"`
	BudgetMax *float64 `json:"budgetMax,omitempty" validate:"omitempty,gte=0"`
	RadiusKm  *float64 `json:"radiusKm,omitempty" validate:"omitempty,gt=0"`
}

// SearchRecommendationsRequest is bound from the query string.
type SearchRecommendationsRequest struct {
	Sport     *string  `query:"sport" validate:"omitempty,max=64"`
	BudgetMin *float64 `query:"budgetMin" validate:"omitempty,gte=0"`
	BudgetMax *float64 `query:"budgetMax" validate:"omitempty,gte=0"`
	RadiusKm  *float64 `query:"radiusKm" validate:"omitempty,gt=0"`
	Limit     *int     `query:"limit" validate:"omitempty,gt=0,lte=50"`
}

type SearchRecommendationsResponse struct {
	Candidates []entity.CandidatePackage `json:"candidates"`
	RadiusKm   float64                   `json:"radiusKm"`
	BudgetMin  float64                   `json:"budgetMin"`
	BudgetMax  float64                   `json:"budgetMax"`
}

// RecommendationsServedMessage is published after every persisted search turn.
type RecommendationsServedMessage struct {
	UserId         uuid.UUID   `json:"userId"`
	ConversationId uuid.UUID   `json:"conversationId"`
	MessageId      uuid.UUID   `json:"messageId"`
	PackageIds     []uuid.UUID `json:"packageIds"`
	ServedAt       time.Time   `json:"servedAt"`
}

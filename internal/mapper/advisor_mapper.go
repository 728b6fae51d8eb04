package mapper

import (
	"encoding/json"

	"sponsor-advisor-be/internal/entity"
	"sponsor-advisor-be/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AdvisorMapper struct{}

func NewAdvisorMapper() *AdvisorMapper {
	return &AdvisorMapper{}
}

type conversationMetadata struct {
	Preferences *entity.SavedPreferences `json:"preferences,omitempty"`
}

// Conversation Mappers

// ConversationToEntity maps a conversation row. Messages are loaded separately.
func (m *AdvisorMapper) ConversationToEntity(c *model.Conversation) *entity.Conversation {
	if c == nil {
		return nil
	}

	var meta conversationMetadata
	if len(c.Metadata) > 0 {
		// Malformed metadata only loses saved preferences.
		_ = json.Unmarshal(c.Metadata, &meta)
	}

	return &entity.Conversation{
		Id:                   c.Id,
		UserId:               c.UserId,
		Title:                c.Title,
		ServerConversationId: c.ServerConversationId,
		Preferences:          meta.Preferences,
		LastActivity:         c.LastActivity,
		CreatedAt:            c.CreatedAt,
	}
}

func (m *AdvisorMapper) ConversationToModel(c *entity.Conversation) (*model.Conversation, error) {
	if c == nil {
		return nil, nil
	}

	metadata, err := json.Marshal(conversationMetadata{Preferences: c.Preferences})
	if err != nil {
		return nil, err
	}

	return &model.Conversation{
		Id:                   c.Id,
		UserId:               c.UserId,
		Title:                c.Title,
		ServerConversationId: c.ServerConversationId,
		LastActivity:         c.LastActivity,
		Metadata:             datatypes.JSON(metadata),
		CreatedAt:            c.CreatedAt,
	}, nil
}

// Message Mappers

func (m *AdvisorMapper) MessageToEntity(msg *model.ConversationMessage) *entity.ConversationMessage {
	if msg == nil {
		return nil
	}
	return &entity.ConversationMessage{
		Id:        msg.Id,
		Role:      msg.Role,
		Content:   msg.Content,
		Timestamp: msg.CreatedAt,
	}
}

func (m *AdvisorMapper) MessageToModel(conversationId uuid.UUID, msg *entity.ConversationMessage) *model.ConversationMessage {
	if msg == nil {
		return nil
	}
	return &model.ConversationMessage{
		Id:             msg.Id,
		ConversationId: conversationId,
		Role:           msg.Role,
		Content:        msg.Content,
		CreatedAt:      msg.Timestamp,
	}
}

// Recommendation Mappers

func (m *AdvisorMapper) RecommendationToModel(r *entity.RecommendationRecord) (*model.Recommendation, error) {
	if r == nil {
		return nil, nil
	}
	payload, err := json.Marshal(r.Candidate)
	if err != nil {
		return nil, err
	}
	return &model.Recommendation{
		Id:                   r.Id,
		ConversationId:       r.ConversationId,
		MessageId:            r.MessageId,
		SponsorshipOfferId:   r.SponsorshipOfferId,
		PackageId:            r.PackageId,
		Position:             r.Position,
		RecommendationReason: r.RecommendationReason,
		Payload:              datatypes.JSON(payload),
		CreatedAt:            r.CreatedAt,
	}, nil
}

func (m *AdvisorMapper) RecommendationToEntity(r *model.Recommendation) (*entity.RecommendationRecord, error) {
	if r == nil {
		return nil, nil
	}
	var candidate entity.CandidatePackage
	if err := json.Unmarshal(r.Payload, &candidate); err != nil {
		return nil, err
	}
	return &entity.RecommendationRecord{
		Id:                   r.Id,
		ConversationId:       r.ConversationId,
		MessageId:            r.MessageId,
		SponsorshipOfferId:   r.SponsorshipOfferId,
		PackageId:            r.PackageId,
		Position:             r.Position,
		RecommendationReason: r.RecommendationReason,
		Candidate:            candidate,
		CreatedAt:            r.CreatedAt,
	}, nil
}

// Catalog Mappers

func (m *AdvisorMapper) BusinessProfileToEntity(p *model.BusinessProfile) *entity.BusinessProfile {
	if p == nil {
		return nil
	}
	return &entity.BusinessProfile{
		Id:         p.Id,
		UserId:     p.UserId,
		Name:       p.Name,
		City:       p.City,
		State:      p.State,
		PostalCode: p.PostalCode,
		Latitude:   p.Latitude,
		Longitude:  p.Longitude,
		GeocodedAt: p.GeocodedAt,
	}
}

func (m *AdvisorMapper) BusinessProfileToModel(p *entity.BusinessProfile) *model.BusinessProfile {
	if p == nil {
		return nil
	}
	return &model.BusinessProfile{
		Id:         p.Id,
		UserId:     p.UserId,
		Name:       p.Name,
		City:       p.City,
		State:      p.State,
		PostalCode: p.PostalCode,
		Latitude:   p.Latitude,
		Longitude:  p.Longitude,
		GeocodedAt: p.GeocodedAt,
	}
}

func (m *AdvisorMapper) ListingRowToEntity(r *model.PackageListingRow) *entity.PackageListing {
	if r == nil {
		return nil
	}
	var images []string
	if len(r.Images) > 0 {
		images = []string(r.Images)
	}
	return &entity.PackageListing{
		TeamProfileId:      r.TeamProfileId,
		TeamName:           r.TeamName,
		Sport:              r.Sport,
		Latitude:           r.Latitude,
		Longitude:          r.Longitude,
		TotalReach:         r.TotalReach,
		Logo:               r.Logo,
		Images:             images,
		SponsorshipOfferId: r.SponsorshipOfferId,
		MarketplaceUrl:     r.MarketplaceUrl,
		PackageId:          r.PackageId,
		PackageName:        r.PackageName,
		Price:              r.Price,
	}
}

func (m *AdvisorMapper) RecommendationStatToEntity(s *model.RecommendationStat) *entity.RecommendationStat {
	if s == nil {
		return nil
	}
	return &entity.RecommendationStat{
		PackageId:    s.PackageId,
		Impressions:  s.Impressions,
		LastServedAt: s.LastServedAt,
	}
}

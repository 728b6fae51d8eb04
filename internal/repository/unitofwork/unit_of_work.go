package unitofwork

import (
	"context"

	"sponsor-advisor-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ConversationRepository() contract.ConversationRepository
	ConversationMessageRepository() contract.ConversationMessageRepository
	RecommendationRepository() contract.RecommendationRepository
	BusinessProfileRepository() contract.BusinessProfileRepository
	CandidateRepository() contract.CandidateRepository
	RecommendationStatRepository() contract.RecommendationStatRepository
}

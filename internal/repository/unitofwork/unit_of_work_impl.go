package unitofwork

import (
	"context"

	"sponsor-advisor-be/internal/repository/contract"
	"sponsor-advisor-be/internal/repository/implementation"

	"github.com/rotisserie/eris"
	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return eris.New("transaction already started")
	}
	u.tx = u.db.WithContext(ctx).Begin()
	return u.tx.Error
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return eris.New("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

// Rollback is a no-op after Commit, so it can be deferred unconditionally.
func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return nil
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) ConversationRepository() contract.ConversationRepository {
	return implementation.NewConversationRepository(u.getDB())
}

func (u *UnitOfWorkImpl) ConversationMessageRepository() contract.ConversationMessageRepository {
	return implementation.NewConversationMessageRepository(u.getDB())
}

func (u *UnitOfWorkImpl) RecommendationRepository() contract.RecommendationRepository {
	return implementation.NewRecommendationRepository(u.getDB())
}

func (u *UnitOfWorkImpl) BusinessProfileRepository() contract.BusinessProfileRepository {
	return implementation.NewBusinessProfileRepository(u.getDB())
}

func (u *UnitOfWorkImpl) CandidateRepository() contract.CandidateRepository {
	return implementation.NewCandidateRepository(u.getDB())
}

func (u *UnitOfWorkImpl) RecommendationStatRepository() contract.RecommendationStatRepository {
	return implementation.NewRecommendationStatRepository(u.getDB())
}

package service

import (
	"context"

	"sponsor-advisor-be/internal/entity"
	"sponsor-advisor-be/internal/repository/unitofwork"
	"sponsor-advisor-be/pkg/matcher"
)

// uowCandidateStore lets a long-lived Matcher query the catalog through a fresh unit of work per call.
type uowCandidateStore struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewCandidateStore(uowFactory unitofwork.RepositoryFactory) matcher.Store {
	return &uowCandidateStore{uowFactory: uowFactory}
}

func (s *uowCandidateStore) FindListings(ctx context.Context, q matcher.ListingQuery) ([]*entity.PackageListing, error) {
	return s.uowFactory.NewUnitOfWork(ctx).CandidateRepository().FindListings(ctx, q)
}

func (s *uowCandidateStore) ListTeamNames(ctx context.Context) ([]string, error) {
	return s.uowFactory.NewUnitOfWork(ctx).CandidateRepository().ListTeamNames(ctx)
}

func (s *uowCandidateStore) ListPackageNames(ctx context.Context) ([]string, error) {
	return s.uowFactory.NewUnitOfWork(ctx).CandidateRepository().ListPackageNames(ctx)
}

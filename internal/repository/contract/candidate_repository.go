package contract

import (
	"sponsor-advisor-be/pkg/matcher"
)

// CandidateRepository is the Candidate Store behind the matcher.
type CandidateRepository interface {
	matcher.Store
}

package advisor

import (
	"regexp"
	"testing"

	"sponsor-advisor-be/internal/constant"
	"sponsor-advisor-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCandidates() []entity.CandidatePackage {
	cpf := 2.0
	return []entity.CandidatePackage{
		{
			TeamProfileId: uuid.New(), TeamName: "Riverside FC", Sport: "Soccer",
			DistanceKm: 12.04, TotalReach: 1500, SponsorshipOfferId: uuid.New(), PackageId: uuid.New(),
			PackageName: "Jersey Patch", Price: 3000, EstimatedCostPerFan: &cpf,
		},
		{
			TeamProfileId: uuid.New(), TeamName: "Metro Hoops", Sport: "Basketball",
			DistanceKm: 4.96, TotalReach: 0, SponsorshipOfferId: uuid.New(), PackageId: uuid.New(),
			PackageName: "Court Banner", Price: 1250.5,
		},
	}
}

func TestCheckGrounding_AcceptsCandidateFacts(t *testing.T) {
	text := "Riverside FC offers a Jersey Patch for $3,000 about 12 km away ($2.00 per fan). " +
		"Metro Hoops has a Court Banner at $1,250.50, just 5.0 km from you."
	err := CheckGrounding(text, Vocabulary{
		Candidates:     sampleCandidates(),
		KnownTeamNames: []string{"Riverside FC", "Metro Hoops", "Harbor Hawks"},
	})
	assert.NoError(t, err)
}

func TestCheckGrounding_RejectsFabrications(t *testing.T) {
	vocab := Vocabulary{
		Candidates:        sampleCandidates(),
		KnownTeamNames:    []string{"Riverside FC", "Metro Hoops", "Harbor Hawks"},
		KnownPackageNames: []string{"Jersey Patch", "Court Banner", "Title Sponsor"},
	}

	tests := []struct {
		name string
		text string
	}{
		{"unknown price", "Riverside FC costs $2,500."},
		{"thousands shorthand", "Riverside FC is about $4k."},
		{"other catalog team", "You could also try the Harbor Hawks."},
		{"wrong distance", "Riverside FC is 30 km away."},
		{"wrong distance in miles", "Metro Hoops is 20 miles away."},
		{"wrong distance singular mile", "Metro Hoops is only 1 mile away."},
		{"wrong distance singular kilometer", "Metro Hoops is 1 kilometer away."},
		{"amount spelled in dollars", "Riverside FC costs 9,999 dollars."},
		{"amount with usd prefix", "Riverside FC costs USD 9999."},
		{"amount with usd suffix", "Riverside FC costs 4500 USD."},
		{"amount in bucks", "Metro Hoops is about 7500 bucks."},
		{"shorthand in dollars", "Metro Hoops runs 2k dollars."},
		{"other catalog package", "Riverside FC also has a Title Sponsor package."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckGrounding(tt.text, vocab)
			var violation *ContractViolation
			require.ErrorAs(t, err, &violation)
			assert.NotEmpty(t, violation.Violations)
		})
	}
}

func TestCheckGrounding_AcceptsSpelledOutFacts(t *testing.T) {
	vocab := Vocabulary{
		Candidates:        sampleCandidates(),
		KnownTeamNames:    []string{"Riverside FC", "Metro Hoops"},
		KnownPackageNames: []string{"Jersey Patch", "Court Banner", "Title Sponsor"},
	}

	texts := []string{
		"The Riverside FC Jersey Patch costs 3,000 dollars.",
		"Metro Hoops offers a Court Banner for USD 1,250.50, about 3.1 miles away.",
		"That works out to 2 dollars per fan.",
		"Riverside FC is roughly 12 kilometers from you.",
	}
	for _, text := range texts {
		assert.NoError(t, CheckGrounding(text, vocab), text)
	}
}

func TestCheckGrounding_PrefixNamesDoNotCollide(t *testing.T) {
	c := sampleCandidates()[:1]
	err := CheckGrounding("Riverside FC is a great fit.", Vocabulary{
		Candidates:     c,
		KnownTeamNames: []string{"Riverside", "Riverside FC"},
	})
	assert.NoError(t, err)
}

func TestCheckGrounding_EmptyVocabularyBlocksSpecifics(t *testing.T) {
	vocab := Vocabulary{KnownTeamNames: []string{"Riverside FC"}}
	assert.NoError(t, CheckGrounding("Happy to help you find a team!", vocab))
	assert.Error(t, CheckGrounding("Packages usually start at $500.", vocab))
	assert.Error(t, CheckGrounding("riverside fc is popular", vocab))
	assert.Error(t, CheckGrounding("Packages usually run 2,500 dollars.", vocab))
	assert.Error(t, CheckGrounding("Most teams ask around USD 800.", vocab))
}

func TestZeroResultTemplateHasNoSpecifics(t *testing.T) {
	dollar := regexp.MustCompile(`\$\s?\d`)
	assert.False(t, dollar.MatchString(constant.AdvisorZeroResultMessage))
	assert.NoError(t, CheckGrounding(constant.AdvisorZeroResultMessage, Vocabulary{KnownTeamNames: []string{"Riverside FC", "Metro Hoops"}}))
}

func TestDeterministicSummaryPassesGate(t *testing.T) {
	candidates := sampleCandidates()
	summary := DeterministicSummary(candidates)

	assert.Contains(t, summary, "Riverside FC")
	assert.Contains(t, summary, "$3,000")
	assert.Contains(t, summary, "$1,250.50")
	assert.Contains(t, summary, "12.0 km")
	assert.NoError(t, CheckGrounding(summary, Vocabulary{
		Candidates:     candidates,
		KnownTeamNames: []string{"Riverside FC", "Metro Hoops", "Harbor Hawks"},
	}))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$3,000", FormatPrice(3000))
	assert.Equal(t, "$1,250.50", FormatPrice(1250.5))
	assert.Equal(t, "$0.33", FormatPrice(1.0/3.0))
	assert.Equal(t, "$1,000", FormatPrice(999.999))
}

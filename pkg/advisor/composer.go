package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sponsor-advisor-be/internal/constant"
	"sponsor-advisor-be/internal/entity"
	"sponsor-advisor-be/pkg/llm"
)

// ReplySource records where the final assistant text came from.
type ReplySource string

const (
	SourceModel    ReplySource = "model"
	SourceFallback ReplySource = "fallback"
	SourceTemplate ReplySource = "template"
)

type Reply struct {
	Text   string
	Source ReplySource
	// Cause is why a fallback was used (provider failure or grounding violation).
	Cause error
}

type RecommendationInput struct {
	UserText          string
	History           []entity.ConversationMessage
	Candidates        []entity.CandidatePackage
	KnownTeamNames    []string
	KnownPackageNames []string
	Criteria          entity.SearchCriteria
}

type ConversationalInput struct {
	UserText          string
	History           []entity.ConversationMessage
	KnownTeamNames    []string
	KnownPackageNames []string
}

// Composer turns matcher output into assistant text. Every model reply passes
// through CheckGrounding before it is returned.
type Composer struct {
	provider     llm.LLMProvider
	timeout      time.Duration
	historyLimit int
}

func NewComposer(provider llm.LLMProvider, timeout time.Duration) *Composer {
	return &Composer{provider: provider, timeout: timeout, historyLimit: 10}
}

// ComposeRecommendations never returns free text for an empty candidate list.
// Provider failures other than rate limit and quota fall back to DeterministicSummary.
func (c *Composer) ComposeRecommendations(ctx context.Context, in RecommendationInput) (*Reply, error) {
	if len(in.Candidates) == 0 {
		return &Reply{Text: constant.AdvisorZeroResultMessage, Source: SourceTemplate}, nil
	}

	fallback := &Reply{Text: DeterministicSummary(in.Candidates), Source: SourceFallback}
	if c.provider == nil {
		return fallback, nil
	}

	messages := c.buildHistory(constant.AdvisorRecommendationSystemPrompt, in.History)
	messages = append(messages, llm.Message{
		Role:    llm.RoleUser,
		Content: fmt.Sprintf("%s\n\nSponsorship packages found for this request:\n%s", in.UserText, candidateBlock(in.Candidates)),
	})

	text, err := c.chat(ctx, messages)
	if err != nil {
		if isUpstreamLimit(err) {
			return nil, err
		}
		fallback.Cause = err
		return fallback, nil
	}

	vocab := Vocabulary{
		Candidates:        in.Candidates,
		KnownTeamNames:    in.KnownTeamNames,
		KnownPackageNames: in.KnownPackageNames,
		ExtraAmounts:      []float64{in.Criteria.BudgetMin, in.Criteria.BudgetMax},
		ExtraDistancesKm:  []float64{in.Criteria.RadiusKm},
	}
	if err := CheckGrounding(text, vocab); err != nil {
		fallback.Cause = err
		return fallback, nil
	}
	return &Reply{Text: strings.TrimSpace(text), Source: SourceModel}, nil
}

// ComposeConversational answers without naming teams, packages or prices; anything that
// does is replaced by the neutral reply.
func (c *Composer) ComposeConversational(ctx context.Context, in ConversationalInput) (*Reply, error) {
	if c.provider == nil {
		return &Reply{Text: constant.AdvisorNeutralReplyMessage, Source: SourceTemplate}, nil
	}

	messages := c.buildHistory(constant.AdvisorConversationalSystemPrompt, in.History)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: in.UserText})

	text, err := c.chat(ctx, messages)
	if err != nil {
		return nil, err
	}

	if err := CheckGrounding(text, Vocabulary{KnownTeamNames: in.KnownTeamNames, KnownPackageNames: in.KnownPackageNames}); err != nil {
		return &Reply{Text: constant.AdvisorNeutralReplyMessage, Source: SourceTemplate, Cause: err}, nil
	}
	if strings.TrimSpace(text) == "" {
		return &Reply{Text: constant.AdvisorNeutralReplyMessage, Source: SourceTemplate}, nil
	}
	return &Reply{Text: strings.TrimSpace(text), Source: SourceModel}, nil
}

// DeterministicSummary lists candidates using only their own fields.
func DeterministicSummary(candidates []entity.CandidatePackage) string {
	if len(candidates) == 0 {
		return constant.AdvisorZeroResultMessage
	}

	var sb strings.Builder
	if len(candidates) == 1 {
		sb.WriteString("I found 1 sponsorship option near your business:\n")
	} else {
		sb.WriteString(fmt.Sprintf("I found %d sponsorship options near your business:\n", len(candidates)))
	}
	for i, c := range candidates {
		sb.WriteString(fmt.Sprintf("%d. %s (%s) - %s for %s, %s away",
			i+1, c.TeamName, c.Sport, c.PackageName, FormatPrice(c.Price), FormatDistance(c.DistanceKm)))
		if c.EstimatedCostPerFan != nil {
			sb.WriteString(fmt.Sprintf(", about %s per fan", FormatPrice(*c.EstimatedCostPerFan)))
		}
		sb.WriteString(".\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func candidateBlock(candidates []entity.CandidatePackage) string {
	var sb strings.Builder
	for i, c := range candidates {
		sb.WriteString(fmt.Sprintf("%d. Team: %s | Sport: %s | Package: %s | Price: %s | Distance: %s | Reach: %d fans",
			i+1, c.TeamName, c.Sport, c.PackageName, FormatPrice(c.Price), FormatDistance(c.DistanceKm), c.TotalReach))
		if c.EstimatedCostPerFan != nil {
			sb.WriteString(" | Cost per fan: " + FormatPrice(*c.EstimatedCostPerFan))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (c *Composer) buildHistory(system string, history []entity.ConversationMessage) []llm.Message {
	if len(history) > c.historyLimit {
		history = history[len(history)-c.historyLimit:]
	}
	out := make([]llm.Message, 0, len(history)+2)
	out = append(out, llm.Message{Role: llm.RoleSystem, Content: system})
	for _, m := range history {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

func (c *Composer) chat(ctx context.Context, messages []llm.Message) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.provider.Chat(ctx, messages, llm.WithTemperature(0.3))
}

func isUpstreamLimit(err error) bool {
	return errors.Is(err, llm.ErrRateLimited) || errors.Is(err, llm.ErrQuotaExhausted)
}

package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"sponsor-advisor-be/internal/config"
	"sponsor-advisor-be/internal/constant"
	"sponsor-advisor-be/internal/dto"
	"sponsor-advisor-be/internal/entity"
	"sponsor-advisor-be/internal/pkg/logger"
	"sponsor-advisor-be/internal/repository/specification"
	"sponsor-advisor-be/internal/repository/unitofwork"
	"sponsor-advisor-be/pkg/advisor"
	"sponsor-advisor-be/pkg/advisor/state"
	"sponsor-advisor-be/pkg/events"
	"sponsor-advisor-be/pkg/geo"
	"sponsor-advisor-be/pkg/geocode"
	"sponsor-advisor-be/pkg/lock"
	"sponsor-advisor-be/pkg/matcher"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	advisorModule  = "ADVISOR"
	maxTitleLength = 60
)

// IAdvisorService runs advisor turns and manages a user's advisor conversations.
type IAdvisorService interface {
	HandleTurn(ctx context.Context, userId uuid.UUID, request *dto.AdvisorTurnRequest) (*dto.AdvisorTurnResponse, error)
	CreateConversation(ctx context.Context, userId uuid.UUID, request *dto.CreateConversationRequest) (*dto.CreateConversationResponse, error)
	ListConversations(ctx context.Context, userId uuid.UUID) ([]*dto.ConversationSummaryResponse, error)
	GetActiveConversation(ctx context.Context, userId uuid.UUID) (*dto.ConversationResponse, error)
	GetConversation(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID) (*dto.ConversationResponse, error)
	SetActiveConversation(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID) error
	UpdatePreferences(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID, request *dto.PreferencesDTO) (*dto.PreferencesDTO, error)
	DeleteConversation(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID) error
	SearchRecommendations(ctx context.Context, userId uuid.UUID, request *dto.SearchRecommendationsRequest) (*dto.SearchRecommendationsResponse, error)
}

type advisorService struct {
	uowFactory unitofwork.RepositoryFactory
	registry   *state.Registry
	locker     lock.Locker
	geocoder   geocode.Geocoder
	matcher    *matcher.Matcher
	composer   *advisor.Composer
	intent     advisor.IntentDetector
	publisher  events.Publisher
	cfg        config.AdvisorConfig
	logger     logger.ILogger
	now        func() time.Time
}

func NewAdvisorService(
	uowFactory unitofwork.RepositoryFactory,
	registry *state.Registry,
	locker lock.Locker,
	geocoder geocode.Geocoder,
	candidateMatcher *matcher.Matcher,
	composer *advisor.Composer,
	intent advisor.IntentDetector,
	publisher events.Publisher,
	cfg config.AdvisorConfig,
	logger logger.ILogger,
) IAdvisorService {
	return &advisorService{
		uowFactory: uowFactory,
		registry:   registry,
		locker:     locker,
		geocoder:   geocoder,
		matcher:    candidateMatcher,
		composer:   composer,
		intent:     intent,
		publisher:  publisher,
		cfg:        cfg,
		logger:     logger,
		now: func() time.Time {
			// Postgres keeps microseconds; truncating keeps reloads identical.
			return time.Now().UTC().Truncate(time.Microsecond)
		},
	}
}

// searchParams is everything a search needs except the origin.
type searchParams struct {
	RadiusKm  float64
	BudgetMin float64
	BudgetMax float64
	Sport     *string
}

func (p searchParams) criteria(origin geo.Location, limit int) entity.SearchCriteria {
	return entity.SearchCriteria{
		Origin:    origin,
		RadiusKm:  p.RadiusKm,
		BudgetMin: p.BudgetMin,
		BudgetMax: p.BudgetMax,
		Sport:     p.Sport,
		Limit:     limit,
	}
}

func (s *advisorService) HandleTurn(ctx context.Context, userId uuid.UUID, request *dto.AdvisorTurnRequest) (*dto.AdvisorTurnResponse, error) {
	if request == nil {
		return nil, advisor.NewError(advisor.ErrInput, "Message must not be empty.", nil)
	}
	text := strings.TrimSpace(request.Message)
	if text == "" {
		return nil, advisor.NewError(advisor.ErrInput, "Message must not be empty.", nil)
	}
	if err := validateFilters(request.Filters); err != nil {
		return nil, err
	}

	store := s.registry.For(userId.String())
	conversationId, isNew, err := s.openConversation(ctx, store, userId, request.ConversationId, text)
	if err != nil {
		return nil, err
	}

	logDetails := map[string]interface{}{
		"user_id":         userId.String(),
		"conversation_id": conversationId.String(),
		"new":             isNew,
	}
	s.logger.Info(advisorModule, "Turn started", logDetails)

	release, err := s.locker.Acquire(ctx, turnLockKey(conversationId))
	if err != nil {
		if isNew {
			_ = store.DeleteConversation(conversationId)
		}
		return nil, s.fail(logDetails, "acquire turn lock", err)
	}
	defer release()

	conv := store.GetById(conversationId)
	if conv == nil {
		return nil, advisor.NewError(advisor.ErrNotFound, "", nil)
	}

	var prefsUpdate *entity.SavedPreferences
	if filtersSet(request.Filters) {
		prefsUpdate = filtersToPreferences(request.Filters)
	}
	prefs := conv.Preferences
	if prefsUpdate != nil {
		prefs = state.MergePreferences(conv.Preferences, *prefsUpdate)
	}

	doSearch := s.intent.ShouldSearch(text) || prefsUpdate != nil
	var params searchParams
	if doSearch {
		params = s.resolveParams(request.Filters, prefs)
		if err := validateParams(params); err != nil {
			if isNew {
				_ = store.DeleteConversation(conversationId)
			}
			return nil, err
		}
	}

	history := conv.Messages
	userMsg := entity.ConversationMessage{
		Id:        uuid.New(),
		Role:      entity.RoleUser,
		Content:   text,
		Timestamp: s.now(),
	}
	if err := store.AddMessage(conversationId, userMsg); err != nil {
		if isNew {
			_ = store.DeleteConversation(conversationId)
		}
		return nil, s.fail(logDetails, "append user message", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if isNew {
			_ = store.DeleteConversation(conversationId)
			s.logger.Warn(advisorModule, "Turn rolled back, conversation discarded", logDetails)
			return
		}
		if err := store.RemoveMessage(conversationId, userMsg.Id); err != nil {
			s.logger.Error(advisorModule, "Failed to roll back user message", mergeDetails(logDetails, map[string]interface{}{
				"error": err.Error(),
			}))
			return
		}
		s.logger.Warn(advisorModule, "Turn rolled back", logDetails)
	}()

	if stored := store.GetById(conversationId); stored != nil && len(stored.Messages) > 0 {
		userMsg.Timestamp = stored.Messages[len(stored.Messages)-1].Timestamp
	}

	s.logger.Debug(advisorModule, "Search decision", mergeDetails(logDetails, map[string]interface{}{
		"should_search": doSearch,
	}))

	var (
		reply      *advisor.Reply
		candidates []entity.CandidatePackage
		criteria   *entity.SearchCriteria
	)

	if doSearch {
		origin, err := s.resolveOrigin(ctx, userId)
		if err != nil {
			return nil, s.fail(logDetails, "resolve business location", err)
		}

		if origin == nil {
			reply = &advisor.Reply{Text: constant.AdvisorLocationPromptMessage, Source: advisor.SourceTemplate}
			s.logger.Info(advisorModule, "Business location unresolved, search skipped", logDetails)
		} else {
			c := params.criteria(*origin, s.cfg.ResultLimit)
			criteria = &c

			candidates, err = s.findCandidates(ctx, c)
			if err != nil {
				return nil, s.fail(logDetails, "find candidates", err)
			}
			s.logger.Info(advisorModule, "Matcher returned candidates", mergeDetails(logDetails, map[string]interface{}{
				"count":     len(candidates),
				"radius_km": c.RadiusKm,
			}))

			teams, packages := s.catalogNames(ctx, len(candidates) > 0)
			reply, err = s.composer.ComposeRecommendations(ctx, advisor.RecommendationInput{
				UserText:          text,
				History:           history,
				Candidates:        candidates,
				KnownTeamNames:    teams,
				KnownPackageNames: packages,
				Criteria:          c,
			})
			if err != nil {
				return nil, s.fail(logDetails, "compose recommendations", err)
			}
		}
	} else {
		teams, packages := s.catalogNames(ctx, true)
		reply, err = s.composer.ComposeConversational(ctx, advisor.ConversationalInput{
			UserText:          text,
			History:           history,
			KnownTeamNames:    teams,
			KnownPackageNames: packages,
		})
		if err != nil {
			return nil, s.fail(logDetails, "compose reply", err)
		}
	}

	if reply.Cause != nil {
		s.logger.Warn(advisorModule, "Model reply replaced", mergeDetails(logDetails, map[string]interface{}{
			"source": string(reply.Source),
			"cause":  reply.Cause.Error(),
		}))
	} else {
		s.logger.Debug(advisorModule, "Reply composed", mergeDetails(logDetails, map[string]interface{}{
			"source": string(reply.Source),
		}))
	}

	assistantTs := s.now()
	if !assistantTs.After(userMsg.Timestamp) {
		assistantTs = userMsg.Timestamp.Add(time.Microsecond)
	}
	assistantMsg := entity.ConversationMessage{
		Id:        uuid.New(),
		Role:      entity.RoleAssistant,
		Content:   reply.Text,
		Timestamp: assistantTs,
	}
	if len(candidates) > 0 {
		assistantMsg.Recommendations = cloneCandidates(candidates)
	}

	record := &entity.Conversation{
		Id:                   conversationId,
		UserId:               userId,
		Title:                conv.Title,
		ServerConversationId: conv.ServerConversationId,
		Preferences:          prefs,
		LastActivity:         assistantTs,
		CreatedAt:            conv.CreatedAt,
	}
	if err := s.persistTurn(ctx, record, isNew, userMsg, assistantMsg, criteria); err != nil {
		return nil, s.fail(logDetails, "persist turn", err)
	}
	committed = true
	s.logger.Info(advisorModule, "Turn persisted", mergeDetails(logDetails, map[string]interface{}{
		"message_id":      assistantMsg.Id.String(),
		"recommendations": len(assistantMsg.Recommendations),
	}))

	if err := store.AddMessage(conversationId, assistantMsg); err != nil {
		s.logger.Error(advisorModule, "Failed to append assistant message to state", mergeDetails(logDetails, map[string]interface{}{
			"error": err.Error(),
		}))
	}
	if prefsUpdate != nil {
		_ = store.UpdatePreferences(conversationId, *prefsUpdate)
	}

	if len(candidates) > 0 {
		s.publishServed(ctx, userId, conversationId, assistantMsg)
	}

	return &dto.AdvisorTurnResponse{
		ConversationId:  conversationId,
		MessageId:       assistantMsg.Id,
		Message:         assistantMsg.Content,
		Recommendations: cloneCandidates(assistantMsg.Recommendations),
	}, nil
}

// openConversation returns the working conversation id, creating one when none is given.
func (s *advisorService) openConversation(ctx context.Context, store *state.Store, userId uuid.UUID, requested *uuid.UUID, text string) (uuid.UUID, bool, error) {
	if requested == nil || *requested == uuid.Nil {
		return store.CreateConversation(titleFromMessage(text)), true, nil
	}

	if _, err := s.ensureLoaded(ctx, store, userId, *requested); err != nil {
		return uuid.Nil, false, err
	}
	if err := store.SetActive(*requested); err != nil {
		return uuid.Nil, false, advisor.NewError(advisor.ErrNotFound, "", err)
	}
	return *requested, false, nil
}

// ensureLoaded returns the session copy of a conversation, hydrating it from storage when needed.
func (s *advisorService) ensureLoaded(ctx context.Context, store *state.Store, userId, conversationId uuid.UUID) (*entity.Conversation, error) {
	if conv := store.GetById(conversationId); conv != nil {
		return conv, nil
	}

	conv, err := s.loadConversation(ctx, userId, conversationId)
	if err != nil {
		return nil, advisor.Translate(err)
	}
	if conv == nil {
		return nil, advisor.NewError(advisor.ErrNotFound, "", nil)
	}
	store.Hydrate(conv, false)
	return store.GetById(conversationId), nil
}

// loadConversation rebuilds a conversation from storage, re-attaching every
// recommendation payload to the message that showed it.
func (s *advisorService) loadConversation(ctx context.Context, userId, conversationId uuid.UUID) (*entity.Conversation, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	conv, err := uow.ConversationRepository().FindOne(ctx,
		specification.ByID{ID: conversationId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil || conv == nil {
		return nil, err
	}

	messages, err := uow.ConversationMessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversationId},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	conv.Messages = make([]entity.ConversationMessage, 0, len(messages))
	if len(messages) == 0 {
		return conv, nil
	}

	messageIds := make([]uuid.UUID, len(messages))
	for i, m := range messages {
		messageIds[i] = m.Id
	}

	records, err := uow.RecommendationRepository().FindAll(ctx,
		specification.ByMessageIDs{MessageIDs: messageIds},
		specification.OrderBy{Field: "position"},
	)
	if err != nil {
		return nil, err
	}

	byMessage := make(map[uuid.UUID][]entity.CandidatePackage)
	for _, r := range records {
		byMessage[r.MessageId] = append(byMessage[r.MessageId], r.Candidate)
	}

	for _, m := range messages {
		msg := *m
		if recs, ok := byMessage[m.Id]; ok {
			msg.Recommendations = recs
		} else {
			msg.Recommendations = nil
		}
		conv.Messages = append(conv.Messages, msg)
	}
	return conv, nil
}

// persistTurn writes the whole turn in one transaction.
func (s *advisorService) persistTurn(
	ctx context.Context,
	conv *entity.Conversation,
	isNew bool,
	userMsg, assistantMsg entity.ConversationMessage,
	criteria *entity.SearchCriteria,
) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if isNew {
		if err := uow.ConversationRepository().Create(ctx, conv); err != nil {
			return err
		}
	} else {
		if err := uow.ConversationRepository().Update(ctx, conv); err != nil {
			return err
		}
	}

	messageRepo := uow.ConversationMessageRepository()
	if err := messageRepo.Create(ctx, conv.Id, &userMsg); err != nil {
		return err
	}
	if err := messageRepo.Create(ctx, conv.Id, &assistantMsg); err != nil {
		return err
	}

	if len(assistantMsg.Recommendations) > 0 {
		records := make([]*entity.RecommendationRecord, len(assistantMsg.Recommendations))
		for i, c := range assistantMsg.Recommendations {
			reason := ""
			if criteria != nil {
				reason = matcher.Reason(c, *criteria)
			}
			records[i] = &entity.RecommendationRecord{
				Id:                   uuid.New(),
				ConversationId:       conv.Id,
				MessageId:            assistantMsg.Id,
				SponsorshipOfferId:   c.SponsorshipOfferId,
				PackageId:            c.PackageId,
				Position:             i,
				RecommendationReason: reason,
				Candidate:            c,
				CreatedAt:            assistantMsg.Timestamp,
			}
		}
		if err := uow.RecommendationRepository().CreateBulk(ctx, records); err != nil {
			return err
		}
	}

	return uow.Commit()
}

// resolveOrigin returns nil when the business has no usable location.
func (s *advisorService) resolveOrigin(ctx context.Context, userId uuid.UUID) (*geo.Location, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	profile, err := uow.BusinessProfileRepository().FindOne(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, nil
	}

	if profile.Latitude != nil && profile.Longitude != nil {
		loc := geo.Location{Latitude: *profile.Latitude, Longitude: *profile.Longitude}
		if loc.Valid() {
			return &loc, nil
		}
	}

	if s.geocoder == nil {
		return nil, nil
	}
	loc, err := s.geocoder.Resolve(ctx, profile.City, profile.State, profile.PostalCode)
	if err != nil || loc == nil {
		return nil, err
	}

	now := s.now()
	profile.Latitude = &loc.Latitude
	profile.Longitude = &loc.Longitude
	profile.GeocodedAt = &now
	if err := uow.BusinessProfileRepository().UpdateCoordinates(ctx, profile); err != nil {
		s.logger.Warn(advisorModule, "Failed to store geocoded coordinates", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
	}
	return loc, nil
}

func (s *advisorService) findCandidates(ctx context.Context, criteria entity.SearchCriteria) ([]entity.CandidatePackage, error) {
	if s.cfg.MatcherTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.MatcherTimeout)
		defer cancel()
	}
	return s.matcher.FindCandidates(ctx, criteria)
}

// catalogNames feeds the grounding gate. A lookup failure only weakens the name check.
func (s *advisorService) catalogNames(ctx context.Context, needed bool) (teams, packages []string) {
	if !needed {
		return nil, nil
	}
	var err error
	teams, err = s.matcher.KnownTeamNames(ctx)
	if err != nil {
		s.logger.Warn(advisorModule, "Failed to load team names", map[string]interface{}{"error": err.Error()})
	}
	packages, err = s.matcher.KnownPackageNames(ctx)
	if err != nil {
		s.logger.Warn(advisorModule, "Failed to load package names", map[string]interface{}{"error": err.Error()})
	}
	return teams, packages
}

func (s *advisorService) publishServed(ctx context.Context, userId, conversationId uuid.UUID, msg entity.ConversationMessage) {
	if s.publisher == nil {
		return
	}
	packageIds := make([]string, len(msg.Recommendations))
	for i, c := range msg.Recommendations {
		packageIds[i] = c.PackageId.String()
	}

	event := events.BaseEvent{
		Type: events.RecommendationsServed,
		Data: map[string]interface{}{
			"userId":         userId.String(),
			"conversationId": conversationId.String(),
			"messageId":      msg.Id.String(),
			"packageIds":     packageIds,
			"servedAt":       msg.Timestamp,
		},
		OccurredAt: msg.Timestamp,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn(advisorModule, "Failed to publish event", map[string]interface{}{
			"event":           events.RecommendationsServed,
			"conversation_id": conversationId.String(),
			"error":           err.Error(),
		})
	}
}

// fail logs a failed turn stage and returns the categorized error.
func (s *advisorService) fail(details map[string]interface{}, stage string, err error) error {
	te := advisor.Translate(err)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		te = advisor.NewError(advisor.ErrNotFound, "", err)
	}
	s.logger.Error(advisorModule, "Turn failed", mergeDetails(details, map[string]interface{}{
		"stage":    stage,
		"category": te.Kind.Error(),
		"error":    err.Error(),
	}))
	return te
}

func (s *advisorService) CreateConversation(ctx context.Context, userId uuid.UUID, request *dto.CreateConversationRequest) (*dto.CreateConversationResponse, error) {
	title := constant.AdvisorDefaultConversationTitle
	if request != nil && strings.TrimSpace(request.Title) != "" {
		title = truncateRunes(strings.TrimSpace(request.Title), maxTitleLength)
	}

	store := s.registry.For(userId.String())
	id := store.CreateConversation(title)
	conv := store.GetById(id)
	conv.UserId = userId

	if err := s.uowFactory.NewUnitOfWork(ctx).ConversationRepository().Create(ctx, conv); err != nil {
		_ = store.DeleteConversation(id)
		return nil, advisor.Translate(err)
	}

	s.logger.Info(advisorModule, "Conversation created", map[string]interface{}{
		"user_id":         userId.String(),
		"conversation_id": id.String(),
	})
	return &dto.CreateConversationResponse{Id: id}, nil
}

func (s *advisorService) ListConversations(ctx context.Context, userId uuid.UUID) ([]*dto.ConversationSummaryResponse, error) {
	conversations, err := s.uowFactory.NewUnitOfWork(ctx).ConversationRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "last_activity", Desc: true},
	)
	if err != nil {
		return nil, advisor.Translate(err)
	}

	store := s.registry.For(userId.String())
	var activeId uuid.UUID
	if active := store.GetActive(); active != nil {
		activeId = active.Id
	}

	// Session copies run ahead of storage while a turn is in flight.
	live := make(map[uuid.UUID]*entity.Conversation)
	for _, c := range store.ListAll() {
		live[c.Id] = c
	}

	res := make([]*dto.ConversationSummaryResponse, 0, len(conversations))
	for _, c := range conversations {
		summary := &dto.ConversationSummaryResponse{
			Id:           c.Id,
			Title:        c.Title,
			LastActivity: c.LastActivity,
			IsActive:     c.Id == activeId,
		}
		if l, ok := live[c.Id]; ok && l.LastActivity.After(c.LastActivity) {
			summary.Title = l.Title
			summary.LastActivity = l.LastActivity
		}
		res = append(res, summary)
	}
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].LastActivity.Equal(res[j].LastActivity) {
			return res[i].Id.String() < res[j].Id.String()
		}
		return res[i].LastActivity.After(res[j].LastActivity)
	})
	return res, nil
}

func (s *advisorService) GetActiveConversation(ctx context.Context, userId uuid.UUID) (*dto.ConversationResponse, error) {
	active := s.registry.For(userId.String()).GetActive()
	if active == nil {
		return nil, advisor.NewError(advisor.ErrNotFound, "No active conversation.", nil)
	}
	return toConversationResponse(active), nil
}

func (s *advisorService) GetConversation(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID) (*dto.ConversationResponse, error) {
	conv, err := s.ensureLoaded(ctx, s.registry.For(userId.String()), userId, conversationId)
	if err != nil {
		return nil, err
	}
	return toConversationResponse(conv), nil
}

func (s *advisorService) SetActiveConversation(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID) error {
	store := s.registry.For(userId.String())
	if _, err := s.ensureLoaded(ctx, store, userId, conversationId); err != nil {
		return err
	}
	if err := store.SetActive(conversationId); err != nil {
		return advisor.NewError(advisor.ErrNotFound, "", err)
	}
	return nil
}

func (s *advisorService) UpdatePreferences(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID, request *dto.PreferencesDTO) (*dto.PreferencesDTO, error) {
	if request == nil {
		return nil, advisor.NewError(advisor.ErrInput, "Preferences are required.", nil)
	}
	update := entity.SavedPreferences{
		Sports:    request.Sports,
		BudgetMin: request.BudgetMin,
		BudgetMax: request.BudgetMax,
		RadiusKm:  request.RadiusKm,
	}

	store := s.registry.For(userId.String())
	if _, err := s.ensureLoaded(ctx, store, userId, conversationId); err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, turnLockKey(conversationId))
	if err != nil {
		return nil, advisor.Translate(err)
	}
	defer release()

	conv := store.GetById(conversationId)
	if conv == nil {
		return nil, advisor.NewError(advisor.ErrNotFound, "", nil)
	}

	merged := state.MergePreferences(conv.Preferences, update)
	if err := validatePreferences(merged); err != nil {
		return nil, err
	}

	conv.UserId = userId
	conv.Preferences = merged
	if err := s.uowFactory.NewUnitOfWork(ctx).ConversationRepository().Update(ctx, conv); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, advisor.NewError(advisor.ErrNotFound, "", err)
		}
		return nil, advisor.Translate(err)
	}
	if err := store.UpdatePreferences(conversationId, update); err != nil {
		return nil, advisor.NewError(advisor.ErrNotFound, "", err)
	}

	return toPreferencesDTO(merged), nil
}

func (s *advisorService) DeleteConversation(ctx context.Context, userId uuid.UUID, conversationId uuid.UUID) error {
	release, err := s.locker.Acquire(ctx, turnLockKey(conversationId))
	if err != nil {
		return advisor.Translate(err)
	}
	defer release()

	repo := s.uowFactory.NewUnitOfWork(ctx).ConversationRepository()
	conv, err := repo.FindOne(ctx,
		specification.ByID{ID: conversationId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return advisor.Translate(err)
	}
	if conv == nil {
		return advisor.NewError(advisor.ErrNotFound, "", nil)
	}
	if err := repo.Delete(ctx, conversationId); err != nil {
		return advisor.Translate(err)
	}

	// The session may never have loaded this conversation.
	_ = s.registry.For(userId.String()).DeleteConversation(conversationId)

	s.logger.Info(advisorModule, "Conversation deleted", map[string]interface{}{
		"user_id":         userId.String(),
		"conversation_id": conversationId.String(),
	})
	return nil
}

func (s *advisorService) SearchRecommendations(ctx context.Context, userId uuid.UUID, request *dto.SearchRecommendationsRequest) (*dto.SearchRecommendationsResponse, error) {
	if request == nil {
		request = &dto.SearchRecommendationsRequest{}
	}
	filters := &dto.TurnFilters{
		Sport:     request.Sport,
		BudgetMin: request.BudgetMin,
		BudgetMax: request.BudgetMax,
		RadiusKm:  request.RadiusKm,
	}
	if err := validateFilters(filters); err != nil {
		return nil, err
	}

	params := s.resolveParams(filters, nil)
	if err := validateParams(params); err != nil {
		return nil, err
	}

	origin, err := s.resolveOrigin(ctx, userId)
	if err != nil {
		return nil, advisor.Translate(err)
	}
	if origin == nil {
		return nil, advisor.NewError(advisor.ErrUnresolvedLocation, "", nil)
	}

	limit := s.cfg.ResultLimit
	if request.Limit != nil {
		limit = *request.Limit
	}

	candidates, err := s.findCandidates(ctx, params.criteria(*origin, limit))
	if err != nil {
		return nil, advisor.Translate(err)
	}
	if candidates == nil {
		candidates = []entity.CandidatePackage{}
	}

	return &dto.SearchRecommendationsResponse{
		Candidates: candidates,
		RadiusKm:   params.RadiusKm,
		BudgetMin:  params.BudgetMin,
		BudgetMax:  params.BudgetMax,
	}, nil
}

// resolveParams applies per-turn filters, then saved preferences, then configured defaults.
func (s *advisorService) resolveParams(filters *dto.TurnFilters, prefs *entity.SavedPreferences) searchParams {
	p := searchParams{
		RadiusKm:  s.cfg.DefaultRadiusKm,
		BudgetMin: s.cfg.DefaultBudgetMin,
		BudgetMax: s.cfg.DefaultBudgetMax,
	}

	if prefs != nil {
		if prefs.RadiusKm != nil {
			p.RadiusKm = *prefs.RadiusKm
		}
		if prefs.BudgetMin != nil {
			p.BudgetMin = *prefs.BudgetMin
		}
		if prefs.BudgetMax != nil {
			p.BudgetMax = *prefs.BudgetMax
		}
		if len(prefs.Sports) == 1 {
			sport := prefs.Sports[0]
			p.Sport = &sport
		}
	}

	if filters != nil {
		if filters.RadiusKm != nil {
			p.RadiusKm = *filters.RadiusKm
		}
		if filters.BudgetMin != nil {
			p.BudgetMin = *filters.BudgetMin
		}
		if filters.BudgetMax != nil {
			p.BudgetMax = *filters.BudgetMax
		}
		if filters.Sport != nil && strings.TrimSpace(*filters.Sport) != "" {
			sport := strings.TrimSpace(*filters.Sport)
			p.Sport = &sport
		}
	}
	return p
}

func validateParams(p searchParams) error {
	switch {
	case p.RadiusKm <= 0 || math.IsNaN(p.RadiusKm):
		return advisor.NewError(advisor.ErrInput, "Search radius must be greater than 0.", nil)
	case p.BudgetMin < 0:
		return advisor.NewError(advisor.ErrInput, "Minimum budget must not be negative.", nil)
	case p.BudgetMin > p.BudgetMax:
		return advisor.NewError(advisor.ErrInput, "Minimum budget must not exceed maximum budget.", nil)
	}
	return nil
}

func validateFilters(f *dto.TurnFilters) error {
	if f == nil {
		return nil
	}
	if f.RadiusKm != nil && (*f.RadiusKm <= 0 || math.IsNaN(*f.RadiusKm)) {
		return advisor.NewError(advisor.ErrInput, "Search radius must be greater than 0.", nil)
	}
	if (f.BudgetMin != nil && *f.BudgetMin < 0) || (f.BudgetMax != nil && *f.BudgetMax < 0) {
		return advisor.NewError(advisor.ErrInput, "Budget must not be negative.", nil)
	}
	if f.BudgetMin != nil && f.BudgetMax != nil && *f.BudgetMin > *f.BudgetMax {
		return advisor.NewError(advisor.ErrInput, "Minimum budget must not exceed maximum budget.", nil)
	}
	return nil
}

func validatePreferences(p *entity.SavedPreferences) error {
	if p == nil {
		return nil
	}
	return validateFilters(&dto.TurnFilters{BudgetMin: p.BudgetMin, BudgetMax: p.BudgetMax, RadiusKm: p.RadiusKm})
}

func filtersSet(f *dto.TurnFilters) bool {
	if f == nil {
		return false
	}
	sport := f.Sport != nil && strings.TrimSpace(*f.Sport) != ""
	return sport || f.BudgetMin != nil || f.BudgetMax != nil || f.RadiusKm != nil
}

func filtersToPreferences(f *dto.TurnFilters) *entity.SavedPreferences {
	prefs := &entity.SavedPreferences{
		BudgetMin: f.BudgetMin,
		BudgetMax: f.BudgetMax,
		RadiusKm:  f.RadiusKm,
	}
	if f.Sport != nil && strings.TrimSpace(*f.Sport) != "" {
		prefs.Sports = []string{strings.TrimSpace(*f.Sport)}
	}
	return prefs
}

func turnLockKey(conversationId uuid.UUID) string {
	return "advisor:turn:" + conversationId.String()
}

func titleFromMessage(text string) string {
	title := strings.Join(strings.Fields(text), " ")
	if title == "" {
		return constant.AdvisorDefaultConversationTitle
	}
	return truncateRunes(title, maxTitleLength)
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max])) + "..."
}

func cloneCandidates(candidates []entity.CandidatePackage) []entity.CandidatePackage {
	if candidates == nil {
		return nil
	}
	out := make([]entity.CandidatePackage, len(candidates))
	for i, c := range candidates {
		out[i] = state.CloneCandidate(c)
	}
	return out
}

func mergeDetails(base, extra map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func toPreferencesDTO(p *entity.SavedPreferences) *dto.PreferencesDTO {
	if p == nil {
		return nil
	}
	return &dto.PreferencesDTO{
		Sports:    p.Sports,
		BudgetMin: p.BudgetMin,
		BudgetMax: p.BudgetMax,
		RadiusKm:  p.RadiusKm,
	}
}

func toConversationResponse(c *entity.Conversation) *dto.ConversationResponse {
	messages := make([]dto.ConversationMessageResponse, len(c.Messages))
	for i, m := range c.Messages {
		messages[i] = dto.ConversationMessageResponse{
			Id:              m.Id,
			Role:            m.Role,
			Content:         m.Content,
			Timestamp:       m.Timestamp,
			Recommendations: m.Recommendations,
		}
	}
	return &dto.ConversationResponse{
		Id:                   c.Id,
		Title:                c.Title,
		ServerConversationId: c.ServerConversationId,
		Messages:             messages,
		Preferences:          toPreferencesDTO(c.Preferences),
		LastActivity:         c.LastActivity,
	}
}

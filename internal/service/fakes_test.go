package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"sponsor-advisor-be/internal/entity"
	"sponsor-advisor-be/internal/repository/contract"
	"sponsor-advisor-be/internal/repository/specification"
	"sponsor-advisor-be/internal/repository/unitofwork"
	"sponsor-advisor-be/pkg/events"
	"sponsor-advisor-be/pkg/geo"
	"sponsor-advisor-be/pkg/llm"
	"sponsor-advisor-be/pkg/matcher"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// fakeDB is an in-memory stand-in for Postgres. Writes made inside a
// transaction are buffered and only applied on Commit. Like a pgx-backed
// transaction, every call after Begin fails once the Begin context is done.
type fakeDB struct {
	mu sync.Mutex

	conversations   map[uuid.UUID]*entity.Conversation
	messages        map[uuid.UUID][]entity.ConversationMessage
	recommendations []*entity.RecommendationRecord
	profiles        map[uuid.UUID]*entity.BusinessProfile
	listings        []*entity.PackageListing
	stats           map[uuid.UUID]int64

	failMessageCreate error
	failListings      error
	listingDelay      time.Duration
	listingCalls      int
	commits           int
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		conversations: make(map[uuid.UUID]*entity.Conversation),
		messages:      make(map[uuid.UUID][]entity.ConversationMessage),
		profiles:      make(map[uuid.UUID]*entity.BusinessProfile),
		stats:         make(map[uuid.UUID]int64),
	}
}

func (db *fakeDB) messageCount(conversationId uuid.UUID) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.messages[conversationId])
}

func (db *fakeDB) recommendationCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.recommendations)
}

func (db *fakeDB) listingCallCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.listingCalls
}

type fakeFactory struct {
	db *fakeDB
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUnitOfWork{db: f.db}
}

type fakeUnitOfWork struct {
	db      *fakeDB
	inTx    bool
	txCtx   context.Context
	pending []func(db *fakeDB) error
}

func (u *fakeUnitOfWork) Begin(ctx context.Context) error {
	if u.inTx {
		return errors.New("transaction already started")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	u.inTx = true
	u.txCtx = ctx
	return nil
}

func (u *fakeUnitOfWork) Commit() error {
	if !u.inTx {
		return errors.New("no transaction to commit")
	}
	if err := u.txCtx.Err(); err != nil {
		return err
	}
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	for _, op := range u.pending {
		if err := op(u.db); err != nil {
			return err
		}
	}
	u.pending = nil
	u.inTx = false
	u.txCtx = nil
	u.db.commits++
	return nil
}

func (u *fakeUnitOfWork) Rollback() error {
	u.pending = nil
	u.inTx = false
	u.txCtx = nil
	return nil
}

// write applies op now, or at Commit when a transaction is open.
func (u *fakeUnitOfWork) write(op func(db *fakeDB) error) error {
	if u.inTx {
		if err := u.txCtx.Err(); err != nil {
			return err
		}
		u.pending = append(u.pending, op)
		return nil
	}
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	return op(u.db)
}

func (u *fakeUnitOfWork) ConversationRepository() contract.ConversationRepository {
	return &fakeConversationRepo{uow: u}
}

func (u *fakeUnitOfWork) ConversationMessageRepository() contract.ConversationMessageRepository {
	return &fakeMessageRepo{uow: u}
}

func (u *fakeUnitOfWork) RecommendationRepository() contract.RecommendationRepository {
	return &fakeRecommendationRepo{uow: u}
}

func (u *fakeUnitOfWork) BusinessProfileRepository() contract.BusinessProfileRepository {
	return &fakeProfileRepo{uow: u}
}

func (u *fakeUnitOfWork) CandidateRepository() contract.CandidateRepository {
	return &fakeCandidateRepo{db: u.db}
}

func (u *fakeUnitOfWork) RecommendationStatRepository() contract.RecommendationStatRepository {
	return &fakeStatRepo{uow: u}
}

type specFilter struct {
	id             *uuid.UUID
	userId         *uuid.UUID
	conversationId *uuid.UUID
	messageIds     map[uuid.UUID]bool
}

func parseSpecs(specs []specification.Specification) specFilter {
	var f specFilter
	for _, s := range specs {
		switch v := s.(type) {
		case specification.ByID:
			id := v.ID
			f.id = &id
		case specification.UserOwnedBy:
			id := v.UserID
			f.userId = &id
		case specification.ByConversationID:
			id := v.ConversationID
			f.conversationId = &id
		case specification.ByMessageIDs:
			f.messageIds = make(map[uuid.UUID]bool, len(v.MessageIDs))
			for _, id := range v.MessageIDs {
				f.messageIds[id] = true
			}
		}
	}
	return f
}

func copyConversation(c *entity.Conversation) *entity.Conversation {
	out := *c
	out.Messages = nil
	if c.Preferences != nil {
		p := *c.Preferences
		out.Preferences = &p
	}
	return &out
}

type fakeConversationRepo struct {
	uow *fakeUnitOfWork
}

func (r *fakeConversationRepo) Create(ctx context.Context, conversation *entity.Conversation) error {
	c := copyConversation(conversation)
	return r.uow.write(func(db *fakeDB) error {
		db.conversations[c.Id] = c
		return nil
	})
}

func (r *fakeConversationRepo) Update(ctx context.Context, conversation *entity.Conversation) error {
	c := copyConversation(conversation)
	return r.uow.write(func(db *fakeDB) error {
		if _, ok := db.conversations[c.Id]; !ok {
			return gorm.ErrRecordNotFound
		}
		db.conversations[c.Id] = c
		return nil
	})
}

func (r *fakeConversationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.uow.write(func(db *fakeDB) error {
		delete(db.conversations, id)
		return nil
	})
}

func (r *fakeConversationRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Conversation, error) {
	all, _ := r.FindAll(ctx, specs...)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r *fakeConversationRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Conversation, error) {
	f := parseSpecs(specs)
	db := r.uow.db
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []*entity.Conversation
	for _, c := range db.conversations {
		if f.id != nil && c.Id != *f.id {
			continue
		}
		if f.userId != nil && c.UserId != *f.userId {
			continue
		}
		out = append(out, copyConversation(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActivity.After(out[j].LastActivity) })
	return out, nil
}

type fakeMessageRepo struct {
	uow *fakeUnitOfWork
}

func (r *fakeMessageRepo) Create(ctx context.Context, conversationId uuid.UUID, message *entity.ConversationMessage) error {
	if err := r.uow.db.failMessageCreate; err != nil && message.Role == entity.RoleAssistant {
		return err
	}
	m := *message
	m.Recommendations = nil
	return r.uow.write(func(db *fakeDB) error {
		db.messages[conversationId] = append(db.messages[conversationId], m)
		return nil
	})
}

func (r *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationMessage, error) {
	f := parseSpecs(specs)
	db := r.uow.db
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []*entity.ConversationMessage
	for convId, msgs := range db.messages {
		if f.conversationId != nil && convId != *f.conversationId {
			continue
		}
		for _, m := range msgs {
			m := m
			out = append(out, &m)
		}
	}
	// Ties come back in an arbitrary order, as they would from Postgres.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Id.String() < out[j].Id.String()
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

type fakeRecommendationRepo struct {
	uow *fakeUnitOfWork
}

func (r *fakeRecommendationRepo) CreateBulk(ctx context.Context, records []*entity.RecommendationRecord) error {
	copied := make([]*entity.RecommendationRecord, len(records))
	for i, rec := range records {
		c := *rec
		copied[i] = &c
	}
	return r.uow.write(func(db *fakeDB) error {
		db.recommendations = append(db.recommendations, copied...)
		return nil
	})
}

func (r *fakeRecommendationRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.RecommendationRecord, error) {
	f := parseSpecs(specs)
	db := r.uow.db
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []*entity.RecommendationRecord
	for _, rec := range db.recommendations {
		if f.messageIds != nil && !f.messageIds[rec.MessageId] {
			continue
		}
		c := *rec
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

type fakeProfileRepo struct {
	uow *fakeUnitOfWork
}

func (r *fakeProfileRepo) Create(ctx context.Context, profile *entity.BusinessProfile) error {
	p := *profile
	return r.uow.write(func(db *fakeDB) error {
		db.profiles[p.UserId] = &p
		return nil
	})
}

func (r *fakeProfileRepo) UpdateCoordinates(ctx context.Context, profile *entity.BusinessProfile) error {
	p := *profile
	return r.uow.write(func(db *fakeDB) error {
		db.profiles[p.UserId] = &p
		return nil
	})
}

func (r *fakeProfileRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.BusinessProfile, error) {
	f := parseSpecs(specs)
	db := r.uow.db
	db.mu.Lock()
	defer db.mu.Unlock()

	if f.userId == nil {
		return nil, nil
	}
	p, ok := db.profiles[*f.userId]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

type fakeCandidateRepo struct {
	db *fakeDB
}

func (r *fakeCandidateRepo) FindListings(ctx context.Context, q matcher.ListingQuery) ([]*entity.PackageListing, error) {
	r.db.mu.Lock()
	delay := r.db.listingDelay
	r.db.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.listingCalls++
	if r.db.failListings != nil {
		return nil, r.db.failListings
	}
	out := make([]*entity.PackageListing, len(r.db.listings))
	for i, l := range r.db.listings {
		c := *l
		out[i] = &c
	}
	return out, nil
}

func (r *fakeCandidateRepo) ListTeamNames(ctx context.Context) ([]string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	names := make([]string, 0, len(r.db.listings))
	for _, l := range r.db.listings {
		names = append(names, l.TeamName)
	}
	return names, nil
}

func (r *fakeCandidateRepo) ListPackageNames(ctx context.Context) ([]string, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	names := make([]string, 0, len(r.db.listings))
	for _, l := range r.db.listings {
		names = append(names, l.PackageName)
	}
	return names, nil
}

type fakeStatRepo struct {
	uow *fakeUnitOfWork
}

func (r *fakeStatRepo) IncrementImpressions(ctx context.Context, packageIds []uuid.UUID, servedAt time.Time) error {
	ids := append([]uuid.UUID(nil), packageIds...)
	return r.uow.write(func(db *fakeDB) error {
		for _, id := range ids {
			db.stats[id]++
		}
		return nil
	})
}

func (r *fakeStatRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.RecommendationStat, error) {
	db := r.uow.db
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]*entity.RecommendationStat, 0, len(db.stats))
	for id, n := range db.stats {
		out = append(out, &entity.RecommendationStat{PackageId: id, Impressions: n})
	}
	return out, nil
}

type fakeGeocoder struct {
	mu    sync.Mutex
	loc   *geo.Location
	err   error
	calls int
}

func (g *fakeGeocoder) Resolve(ctx context.Context, city, state, postalCode string) (*geo.Location, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.loc, g.err
}

// fakeProvider answers with reply, or with the output of respond when set.
type fakeProvider struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	respond func(history []llm.Message) (string, error)
}

func (p *fakeProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	p.mu.Lock()
	p.calls++
	respond := p.respond
	reply, err := p.reply, p.err
	p.mu.Unlock()
	if respond != nil {
		return respond(history)
	}
	return reply, err
}

func (p *fakeProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

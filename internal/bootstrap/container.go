package bootstrap

import (
	"context"
	"log"

	"sponsor-advisor-be/internal/config"
	"sponsor-advisor-be/internal/controller"
	"sponsor-advisor-be/internal/pkg/logger"
	"sponsor-advisor-be/internal/repository/unitofwork"
	"sponsor-advisor-be/internal/service"
	"sponsor-advisor-be/pkg/advisor"
	"sponsor-advisor-be/pkg/advisor/state"
	"sponsor-advisor-be/pkg/events"
	"sponsor-advisor-be/pkg/geocode"
	"sponsor-advisor-be/pkg/llm/factory"
	"sponsor-advisor-be/pkg/lock"
	"sponsor-advisor-be/pkg/matcher"

	pktNats "sponsor-advisor-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AdvisorController controller.IAdvisorController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	closers []func()
}

// Close releases outbound connections opened by NewContainer.
func (c *Container) Close() {
	for _, fn := range c.closers {
		fn()
	}
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	c := &Container{}

	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	analyticsLogger := logger.NewIsolatedLogger("logs/analytics.log")

	// 2. Event Bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermill.NewStdLogger(false, false),
	)
	publishers := events.Fanout{service.NewPublisherService(cfg.Advisor.AnalyticsTopic, pubSub)}

	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			publishers = append(publishers, natsPub)
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// 3. Turn lock
	var locker lock.Locker = lock.NewMemoryLocker(cfg.Advisor.TurnLockWait)
	if cfg.Advisor.TurnLockBackend == "redis" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v. Falling back to in-process turn lock", err)
			_ = rdb.Close()
		} else {
			// Lock TTL covers the slowest turn: matcher plus model call plus persistence.
			ttl := cfg.Advisor.MatcherTimeout + cfg.Ai.LLMTimeout + cfg.Advisor.TurnLockWait
			locker = lock.NewRedisLocker(rdb, ttl, cfg.Advisor.TurnLockWait)
			c.closers = append(c.closers, func() { _ = rdb.Close() })
			log.Printf("[INFO] Using Redis turn lock")
		}
	}

	// 4. Domain components
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.LLMBaseURL,
		cfg.Ai.LLMApiKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	var geocoder geocode.Geocoder
	if cfg.Keys.Geoapify != "" {
		geocoder = geocode.NewGeoapifyGeocoder(cfg.Keys.Geoapify, geocode.WithRateLimit(cfg.Keys.GeocoderRPS))
	} else {
		log.Printf("[WARN] GEOAPIFY_API_KEY not set; only stored business coordinates will be used")
	}

	candidateMatcher := matcher.New(service.NewCandidateStore(uowFactory))

	// 5. Services
	consumerService := service.NewConsumerService(pubSub, cfg.Advisor.AnalyticsTopic, uowFactory, analyticsLogger)

	advisorService := service.NewAdvisorService(
		uowFactory,
		state.NewRegistry(cfg.Advisor.SessionTTL),
		locker,
		geocoder,
		candidateMatcher,
		advisor.NewComposer(llmProvider, cfg.Ai.LLMTimeout),
		advisor.NewKeywordIntent(),
		publishers,
		cfg.Advisor,
		sysLogger,
	)

	// 6. Controllers
	c.AdvisorController = controller.NewAdvisorController(advisorService, cfg.App.JwtSecret)
	c.ConsumerService = consumerService
	c.closers = append(c.closers, func() { _ = pubSub.Close() })
	return c
}

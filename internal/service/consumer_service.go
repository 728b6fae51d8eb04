package service

import (
	"context"
	"encoding/json"

	"sponsor-advisor-be/internal/dto"
	"sponsor-advisor-be/internal/pkg/logger"
	"sponsor-advisor-be/internal/repository/unitofwork"
	"sponsor-advisor-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService folds RECOMMENDATIONS_SERVED events into per-package impression counters.
type consumerService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		logger:     logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	if t := msg.Metadata.Get("event_type"); t != "" && t != events.RecommendationsServed {
		msg.Ack()
		return
	}

	var payload dto.RecommendationsServedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ANALYTICS", "Failed to unmarshal message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		// Malformed payloads are never retried.
		msg.Ack()
		return
	}

	if len(payload.PackageIds) == 0 {
		msg.Ack()
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.RecommendationStatRepository().IncrementImpressions(ctx, payload.PackageIds, payload.ServedAt); err != nil {
		cs.logger.Error("ANALYTICS", "Failed to record impressions", map[string]interface{}{
			"conversation_id": payload.ConversationId.String(),
			"message_id":      payload.MessageId.String(),
			"error":           err.Error(),
		})
		msg.Nack()
		return
	}

	cs.logger.Debug("ANALYTICS", "Recorded impressions", map[string]interface{}{
		"conversation_id": payload.ConversationId.String(),
		"packages":        len(payload.PackageIds),
	})
	msg.Ack()
}

package contract

import (
	"context"

	"sponsor-advisor-be/internal/entity"
	"sponsor-advisor-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ConversationMessageRepository interface {
	Create(ctx context.Context, conversationId uuid.UUID, message *entity.ConversationMessage) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationMessage, error)
}

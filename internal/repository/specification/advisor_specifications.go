package specification

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByConversationID struct {
	ConversationID uuid.UUID
}

func (s ByConversationID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("conversation_id = ?", s.ConversationID)
}

type ByMessageIDs struct {
	MessageIDs []uuid.UUID
}

func (s ByMessageIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("message_id IN ?", s.MessageIDs)
}

type ByPackageIDs struct {
	PackageIDs []uuid.UUID
}

func (s ByPackageIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("package_id IN ?", s.PackageIDs)
}

package specification

import "gorm.io/gorm"

// Specification narrows a query. Conversation, message and catalog
// repositories all accept a variadic list and apply them in order.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

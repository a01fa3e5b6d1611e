package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// XP ledger sources.
const (
	XpSourceSession = "session"
	XpSourceMission = "mission"
)

// XPTransaction is an immutable ledger entry. Amount may be negative (mission
// penalties). IdempotencyKey is set only on penalty entries; a unique sparse
// index on it makes a reconcile pass charge at most once.
type XPTransaction struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         string             `bson:"user_id" json:"user_id"`
	Amount         int                `bson:"amount" json:"amount"`
	Source         string             `bson:"source" json:"source"`
	Note           string             `bson:"note" json:"note"`
	IdempotencyKey string             `bson:"idempotency_key,omitempty" json:"-"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}

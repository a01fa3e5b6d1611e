package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Mission types scope how long an accepted mission stays current.
const (
	MissionDaily    = "DAILY"
	MissionWeekly   = "WEEKLY"
	MissionLongTerm = "LONG_TERM"
)

// Mission is an objective definition. The progress engine treats it as
// read-only: it is created and edited only through the admin catalog.
type Mission struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MissionID string             `bson:"mission_id" json:"mission_id"`
	Title     string             `bson:"title" json:"title" validate:"required,min=3,max=120"`
	Type      string             `bson:"type" json:"type" validate:"required,oneof=DAILY WEEKLY LONG_TERM"`
	Criteria  string             `bson:"criteria" json:"criteria" validate:"required"`
	XpReward  int                `bson:"xp_reward" json:"xp_reward" validate:"required,gt=0"`
	Active    bool               `bson:"active" json:"active"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

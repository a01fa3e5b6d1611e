package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MinValidSessionMinutes is the platform's minimum qualifying duration: only
// completed sessions at least this long count toward mission session targets.
const MinValidSessionMinutes = 25

type StudySession struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"user_id" json:"user_id"`
	Mode        string             `bson:"mode" json:"mode"` // "timer" or "stopwatch"
	Goal        string             `bson:"goal" json:"goal"` // e.g. coding, studying
	PlannedMin  int                `bson:"planned_min,omitempty" json:"planned_min,omitempty"`
	StartedAt   time.Time          `bson:"started_at" json:"started_at"`
	EndedAt     *time.Time         `bson:"ended_at,omitempty" json:"ended_at,omitempty"`
	DurationMin int                `bson:"duration_min" json:"duration_min"` // actual in minutes
	Completed   bool               `bson:"completed" json:"completed"`
	XpEarned    int                `bson:"xp_earned" json:"xp_earned"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// Valid reports whether the session counts toward mission session criteria.
func (s *StudySession) Valid() bool {
	return s.Completed && s.DurationMin >= MinValidSessionMinutes
}

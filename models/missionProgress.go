package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Progress statuses. FAILED never persists: an expired incomplete record is
// penalized and deleted in the same reconcile pass.
const (
	ProgressActive    = "ACTIVE"
	ProgressCompleted = "COMPLETED"
	ProgressFailed    = "FAILED"
)

// MissionProgress is one user's acceptance of one mission. The Start* fields
// snapshot the user's aggregate counters at acceptance time and never change
// afterwards; completion is judged by diffing live counters against them.
// At most one record exists per (user_id, mission_id) — the store enforces a
// unique compound index and creates records with an atomic upsert.
type MissionProgress struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID            string             `bson:"user_id" json:"user_id"`
	MissionID         string             `bson:"mission_id" json:"mission_id"`
	StartedAt         time.Time          `bson:"started_at" json:"started_at"`
	StartTotalMinutes int                `bson:"start_total_minutes" json:"start_total_minutes"`
	StartSessionCount int                `bson:"start_session_count" json:"start_session_count"`
	StartStreak       int                `bson:"start_streak" json:"start_streak"`
	Completed         bool               `bson:"completed" json:"completed"`
	CompletedAt       *time.Time         `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	Status            string             `bson:"status" json:"status"`
}

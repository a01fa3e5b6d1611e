package services

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"studyquest/config"
	"studyquest/helpers"
	"studyquest/models"
)

// Session XP: one point per minute studied, capped per session. Only valid
// sessions (completed, >= models.MinValidSessionMinutes) earn anything.
const maxSessionXp = 180

// SessionXp returns the XP a finished session earns.
func SessionXp(durationMin int, completed bool) int {
	if !completed || durationMin < models.MinValidSessionMinutes {
		return 0
	}
	if durationMin > maxSessionXp {
		return maxSessionXp
	}
	return durationMin
}

// CreateStudySession records a finished session, bumps the user's aggregate
// counters (total minutes, IST day streak) and credits session XP through
// the ledger.
func CreateStudySession(ledger ExperienceLedger, userID, mode, goal string, plannedMin, actualMin int, completed bool) (*models.StudySession, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	coll := config.OpenCollection("study_sessions")
	now := time.Now()
	ended := now
	started := now.Add(-time.Duration(actualMin) * time.Minute)

	xp := SessionXp(actualMin, completed)
	s := &models.StudySession{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		Mode:        strings.ToLower(mode),
		Goal:        goal,
		PlannedMin:  plannedMin,
		StartedAt:   started,
		EndedAt:     &ended,
		DurationMin: actualMin,
		Completed:   completed,
		XpEarned:    xp,
		CreatedAt:   now,
	}
	if _, err := coll.InsertOne(ctx, s); err != nil {
		return nil, err
	}

	if err := bumpCounters(ctx, userID, actualMin, s.Valid(), started); err != nil {
		return nil, err
	}
	if xp > 0 {
		note := "Study session: " + goal
		if err := ledger.Award(ctx, userID, xp, models.XpSourceSession, note); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// bumpCounters adds the session's minutes to the user's total and maintains
// the day streak. A valid session today extends yesterday's streak by one,
// keeps today's streak as-is, or restarts it at one after a gap.
func bumpCounters(ctx context.Context, userID string, minutes int, valid bool, startedAt time.Time) error {
	users := config.OpenCollection("users")

	update := bson.M{"$inc": bson.M{"total_minutes": minutes}}
	if valid {
		var user models.User
		if err := users.FindOne(ctx, bson.M{"user_id": userID}).Decode(&user); err != nil {
			return err
		}
		today := helpers.DayKeyIST(startedAt)
		yesterday := helpers.DayKeyIST(startedAt.AddDate(0, 0, -1))
		set := bson.M{"last_study_day": today}
		switch user.LastStudyDay {
		case today:
			// streak already counted today
		case yesterday:
			set["streak_days"] = user.StreakDays + 1
		default:
			set["streak_days"] = 1
		}
		update["$set"] = set
	}

	_, err := users.UpdateOne(ctx, bson.M{"user_id": userID}, update)
	return err
}

func GetSessionsByUser(userID string, limit int64) ([]models.StudySession, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	coll := config.OpenCollection("study_sessions")
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cursor, err := coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []models.StudySession
	err = cursor.All(ctx, &out)
	return out, err
}

// GetXpHistory returns the user's most recent ledger entries.
func GetXpHistory(userID string, limit int64) ([]models.XPTransaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	coll := config.OpenCollection("xp_transactions")
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cursor, err := coll.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []models.XPTransaction
	err = cursor.All(ctx, &out)
	return out, err
}

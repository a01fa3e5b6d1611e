package services

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"studyquest/config"
	"studyquest/models"
)

// Mongo-backed collaborators for the mission engine. Each wraps one
// collection opened through config.OpenCollection, mirroring how the user
// and session services talk to the store.

// EnsureMissionIndexes creates the indexes the engine's atomicity relies on:
// the unique (user_id, mission_id) pair behind create-if-absent, and the
// unique sparse idempotency key behind at-most-once penalty charging.
func EnsureMissionIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	progress := config.OpenCollection("mission_progress")
	_, err := progress.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "mission_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Fatalf("Failed to create mission_progress index: %v", err)
	}

	ledger := config.OpenCollection("xp_transactions")
	_, err = ledger.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "idempotency_key", Value: 1}},
		Options: options.Index().SetUnique(true).SetSparse(true),
	})
	if err != nil {
		log.Fatalf("Failed to create xp_transactions index: %v", err)
	}
}

// -------- ProgressStore --------

type mongoProgressStore struct {
	coll *mongo.Collection
}

func NewMongoProgressStore() ProgressStore {
	return &mongoProgressStore{coll: config.OpenCollection("mission_progress")}
}

func (s *mongoProgressStore) CreateIfAbsent(ctx context.Context, rec *models.MissionProgress) (*models.MissionProgress, bool, error) {
	filter := bson.M{"user_id": rec.UserID, "mission_id": rec.MissionID}
	update := bson.M{"$setOnInsert": rec}
	res, err := s.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	created, err := upsertCreated(res, err)
	if err != nil {
		return nil, false, err
	}
	stored, err := s.Get(ctx, rec.UserID, rec.MissionID)
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

// upsertCreated interprets the result of an upsert against the unique
// (user_id, mission_id) index. Two concurrent upserts can both take the
// insert path; the loser's duplicate-key error means a record already
// exists, which is the create-if-absent answer, not a failure.
func upsertCreated(res *mongo.UpdateResult, err error) (bool, error) {
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

func (s *mongoProgressStore) Get(ctx context.Context, userID, missionID string) (*models.MissionProgress, error) {
	var rec models.MissionProgress
	err := s.coll.FindOne(ctx, bson.M{"user_id": userID, "mission_id": missionID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrProgressNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *mongoProgressStore) ListByUser(ctx context.Context, userID string) ([]models.MissionProgress, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []models.MissionProgress
	err = cursor.All(ctx, &out)
	return out, err
}

func (s *mongoProgressStore) CASStatus(ctx context.Context, userID, missionID, from, to string, at time.Time) (bool, error) {
	set := bson.M{"status": to}
	if to == models.ProgressCompleted {
		set["completed"] = true
		set["completed_at"] = at
	}
	filter := bson.M{"user_id": userID, "mission_id": missionID, "status": from}
	res, err := s.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (s *mongoProgressStore) Delete(ctx context.Context, userID, missionID string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"user_id": userID, "mission_id": missionID})
	return err
}

// -------- ExperienceLedger --------

type mongoLedger struct {
	entries *mongo.Collection
	users   *mongo.Collection
}

func NewMongoLedger() ExperienceLedger {
	return &mongoLedger{
		entries: config.OpenCollection("xp_transactions"),
		users:   config.OpenCollection("users"),
	}
}

func (l *mongoLedger) Award(ctx context.Context, userID string, amount int, source, note string) error {
	entry := models.XPTransaction{
		UserID:    userID,
		Amount:    amount,
		Source:    source,
		Note:      note,
		CreatedAt: time.Now(),
	}
	if _, err := l.entries.InsertOne(ctx, entry); err != nil {
		return err
	}
	return l.incTotal(ctx, userID, amount)
}

func (l *mongoLedger) ApplyOnce(ctx context.Context, key, userID string, amount int, source, note string) (bool, error) {
	entry := models.XPTransaction{
		UserID:         userID,
		Amount:         amount,
		Source:         source,
		Note:           note,
		IdempotencyKey: key,
		CreatedAt:      time.Now(),
	}
	_, err := l.entries.InsertOne(ctx, entry)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, l.incTotal(ctx, userID, amount)
}

func (l *mongoLedger) incTotal(ctx context.Context, userID string, amount int) error {
	// Totals may go negative after penalties; no floor is applied.
	_, err := l.users.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$inc": bson.M{"total_xp": amount}},
	)
	return err
}

// -------- CounterReader --------

type mongoCounterReader struct {
	users *mongo.Collection
}

func NewMongoCounterReader() CounterReader {
	return &mongoCounterReader{users: config.OpenCollection("users")}
}

func (r *mongoCounterReader) Counters(ctx context.Context, userID string) (models.UserCounters, error) {
	var user models.User
	err := r.users.FindOne(ctx, bson.M{"user_id": userID}).Decode(&user)
	if err != nil {
		return models.UserCounters{}, err
	}
	return models.UserCounters{
		TotalMinutes: user.TotalMinutes,
		TotalXp:      user.TotalXp,
		StreakDays:   user.StreakDays,
	}, nil
}

// -------- SessionReader --------

type mongoSessionReader struct {
	sessions *mongo.Collection
}

func NewMongoSessionReader() SessionReader {
	return &mongoSessionReader{sessions: config.OpenCollection("study_sessions")}
}

func validSessionFilter(userID string) bson.M {
	return bson.M{
		"user_id":      userID,
		"completed":    true,
		"duration_min": bson.M{"$gte": models.MinValidSessionMinutes},
	}
}

func (r *mongoSessionReader) CountValidSessions(ctx context.Context, userID string) (int, error) {
	n, err := r.sessions.CountDocuments(ctx, validSessionFilter(userID))
	return int(n), err
}

func (r *mongoSessionReader) ListSessionsSince(ctx context.Context, userID string, since time.Time) ([]time.Time, error) {
	filter := validSessionFilter(userID)
	filter["started_at"] = bson.M{"$gte": since}
	opts := options.Find().SetProjection(bson.M{"started_at": 1})
	cursor, err := r.sessions.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var docs []struct {
		StartedAt time.Time `bson:"started_at"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	starts := make([]time.Time, len(docs))
	for i, d := range docs {
		starts[i] = d.StartedAt
	}
	return starts, nil
}

// -------- PardonWallet --------

type mongoPardonWallet struct {
	users *mongo.Collection
}

func NewMongoPardonWallet() PardonWallet {
	return &mongoPardonWallet{users: config.OpenCollection("users")}
}

// SpendPardonOrCoins relies on conditional updates so two concurrent
// withdrawals cannot spend the same pardon twice.
func (w *mongoPardonWallet) SpendPardonOrCoins(ctx context.Context, userID string) error {
	res, err := w.users.UpdateOne(ctx,
		bson.M{"user_id": userID, "pardons": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"pardons": -1}},
	)
	if err != nil {
		return err
	}
	if res.ModifiedCount == 1 {
		return nil
	}
	res, err = w.users.UpdateOne(ctx,
		bson.M{"user_id": userID, "coins": bson.M{"$gte": WithdrawCoinCost}},
		bson.M{"$inc": bson.M{"coins": -WithdrawCoinCost}},
	)
	if err != nil {
		return err
	}
	if res.ModifiedCount == 1 {
		return nil
	}
	return ErrNoPardonOrCoins
}

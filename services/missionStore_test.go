package services

import (
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
)

func TestUpsertCreatedInsertPath(t *testing.T) {
	created, err := upsertCreated(&mongo.UpdateResult{UpsertedCount: 1}, nil)
	if err != nil {
		t.Fatalf("upsertCreated failed: %v", err)
	}
	if !created {
		t.Error("an upserted document means this call created the record")
	}
}

func TestUpsertCreatedExistingRecord(t *testing.T) {
	created, err := upsertCreated(&mongo.UpdateResult{MatchedCount: 1}, nil)
	if err != nil {
		t.Fatalf("upsertCreated failed: %v", err)
	}
	if created {
		t.Error("a matched document means the record already existed")
	}
}

func TestUpsertCreatedDuplicateKeyRace(t *testing.T) {
	// Two concurrent upserts on the unique (user_id, mission_id) index can
	// both take the insert path; the loser's E11000 means a record exists,
	// which create-if-absent resolves by returning the winner, not an error.
	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}
	created, err := upsertCreated(nil, dup)
	if err != nil {
		t.Fatalf("duplicate key must not surface as an error, got %v", err)
	}
	if created {
		t.Error("the losing upsert did not create the record")
	}
}

func TestUpsertCreatedOtherErrorsPropagate(t *testing.T) {
	boom := errors.New("connection reset")
	if _, err := upsertCreated(nil, boom); !errors.Is(err, boom) {
		t.Fatalf("expected the original error back, got %v", err)
	}
}

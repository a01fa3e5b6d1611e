package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"studyquest/config"
	"studyquest/models"
)

// Mission catalog: admin-managed definitions, read-only to the engine.

func CreateMission(title, missionType, criteria string, xpReward int) (*models.Mission, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	coll := config.OpenCollection("missions")
	now := time.Now()
	m := &models.Mission{
		ID:        primitive.NewObjectID(),
		Title:     title,
		Type:      missionType,
		Criteria:  criteria,
		XpReward:  xpReward,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.MissionID = m.ID.Hex()
	_, err := coll.InsertOne(ctx, m)
	return m, err
}

func UpdateMission(missionID string, title, criteria *string, xpReward *int, active *bool) (*models.Mission, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	coll := config.OpenCollection("missions")

	set := bson.M{"updated_at": time.Now()}
	if title != nil {
		set["title"] = *title
	}
	if criteria != nil {
		set["criteria"] = *criteria
	}
	if xpReward != nil {
		set["xp_reward"] = *xpReward
	}
	if active != nil {
		set["active"] = *active
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var m models.Mission
	err := coll.FindOneAndUpdate(ctx, bson.M{"mission_id": missionID}, bson.M{"$set": set}, opts).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrMissionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// -------- MissionCatalog --------

type mongoMissionCatalog struct {
	coll *mongo.Collection
}

func NewMongoMissionCatalog() MissionCatalog {
	return &mongoMissionCatalog{coll: config.OpenCollection("missions")}
}

func (c *mongoMissionCatalog) Mission(ctx context.Context, missionID string) (*models.Mission, error) {
	var m models.Mission
	err := c.coll.FindOne(ctx, bson.M{"mission_id": missionID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrMissionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *mongoMissionCatalog) MissionsByIDs(ctx context.Context, missionIDs []string) (map[string]models.Mission, error) {
	cursor, err := c.coll.Find(ctx, bson.M{"mission_id": bson.M{"$in": missionIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var missions []models.Mission
	if err := cursor.All(ctx, &missions); err != nil {
		return nil, err
	}
	out := make(map[string]models.Mission, len(missions))
	for _, m := range missions {
		out[m.MissionID] = m
	}
	return out, nil
}

func (c *mongoMissionCatalog) ActiveMissions(ctx context.Context) ([]models.Mission, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := c.coll.Find(ctx, bson.M{"active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []models.Mission
	err = cursor.All(ctx, &out)
	return out, err
}

package conversationRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ridelink/database"
	"ridelink/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConversationRepo is the MongoDB implementation of ConversationRepository.
type MongoConversationRepo struct {
	coll *mongo.Collection
}

// NewMongoConversationRepo returns a conversation repository backed by the
// default database.
func NewMongoConversationRepo() *MongoConversationRepo {
	return &MongoConversationRepo{coll: database.Collection("conversations")}
}

// NewMongoConversationRepoWithCollection allows injecting a collection handle.
func NewMongoConversationRepoWithCollection(coll *mongo.Collection) *MongoConversationRepo {
	return &MongoConversationRepo{coll: coll}
}

// EnsureIndexes creates the unique phone index and the staleness index used
// by the expiry sweep.
func (repo *MongoConversationRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "lastMessageAt", Value: 1}}},
	}

	if _, err := repo.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create conversation indexes: %w", err)
	}
	return nil
}

func (repo *MongoConversationRepo) GetOrCreate(phone string) (*models.Conversation, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var conv models.Conversation
	err := repo.coll.FindOne(ctx, bson.M{"phone": phone}).Decode(&conv)
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("error loading conversation for %s: %w", phone, err)
	}

	now := time.Now()
	conv = models.Conversation{
		Phone:         phone,
		Step:          models.StepWaitingForFrom,
		AIEnabled:     true,
		LastMessageAt: now,
		CreatedAt:     now,
	}
	if _, err := repo.coll.InsertOne(ctx, &conv); err != nil {
		return nil, fmt.Errorf("error creating conversation for %s: %w", phone, err)
	}
	return &conv, nil
}

func (repo *MongoConversationRepo) Save(conv *models.Conversation) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := repo.coll.ReplaceOne(ctx, bson.M{"phone": conv.Phone}, conv, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("error saving conversation for %s: %w", conv.Phone, err)
	}
	return nil
}

func (repo *MongoConversationRepo) Reset(phone string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"step":          models.StepWaitingForFrom,
			"slots":         models.RideSlots{},
			"lastMessageAt": time.Now(),
		},
		"$unset": bson.M{
			"history":          "",
			"lastValidContext": "",
		},
	}
	_, err := repo.coll.UpdateOne(ctx, bson.M{"phone": phone}, update)
	if err != nil {
		return fmt.Errorf("error resetting conversation for %s: %w", phone, err)
	}
	return nil
}

func (repo *MongoConversationRepo) ListStale(cutoff time.Time) ([]models.Conversation, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{
		"lastMessageAt": bson.M{"$lt": cutoff},
		"step":          bson.M{"$ne": models.StepCompleted},
	}
	cursor, err := repo.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("stale conversation query failed: %w", err)
	}
	defer cursor.Close(ctx)

	var convs []models.Conversation
	if err := cursor.All(ctx, &convs); err != nil {
		return nil, fmt.Errorf("error decoding stale conversations: %w", err)
	}
	return convs, nil
}

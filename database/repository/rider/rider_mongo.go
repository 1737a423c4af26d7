package riderRepo

import (
	"context"
	"fmt"
	"time"

	"ridelink/database"
	"ridelink/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRiderRepo is the MongoDB implementation of RiderRepository.
type MongoRiderRepo struct {
	coll *mongo.Collection
}

// NewMongoRiderRepo returns a rider repository backed by the default database.
func NewMongoRiderRepo() *MongoRiderRepo {
	return &MongoRiderRepo{coll: database.Collection("riders")}
}

// NewMongoRiderRepoWithCollection allows injecting a collection handle.
func NewMongoRiderRepoWithCollection(coll *mongo.Collection) *MongoRiderRepo {
	return &MongoRiderRepo{coll: coll}
}

// EnsureIndexes creates the unique phone index.
func (repo *MongoRiderRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	if _, err := repo.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create rider indexes: %w", err)
	}
	return nil
}

func (repo *MongoRiderRepo) GetByPhone(phone string) (*models.Rider, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var rider models.Rider
	if err := repo.coll.FindOne(ctx, bson.M{"phone": phone}).Decode(&rider); err != nil {
		return nil, fmt.Errorf("rider %s not found: %w", phone, err)
	}
	return &rider, nil
}

func (repo *MongoRiderRepo) RecordBookingOutcome(phone string, accepted bool, rideTime time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set":         bson.M{"updatedAt": time.Now()},
		"$setOnInsert": bson.M{"phone": phone, "createdAt": time.Now()},
	}
	if accepted {
		update["$inc"] = bson.M{"totalRides": 1}
		update["$set"].(bson.M)["lastRideAt"] = rideTime
	}

	_, err := repo.coll.UpdateOne(ctx, bson.M{"phone": phone}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("error recording booking outcome for rider %s: %w", phone, err)
	}
	return nil
}

package rideRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates indexes for fields frequently used in queries.
func (repo *MongoRideRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "rideId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "driverPhone", Value: 1}, {Key: "requestedTime", Value: 1}}},
		{Keys: bson.D{{Key: "riderPhone", Value: 1}, {Key: "requestedTime", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}

	if _, err := repo.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create ride indexes: %w", err)
	}
	return nil
}

package rideRepo

import (
	"context"
	"fmt"
	"time"

	"ridelink/database"
	"ridelink/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoRideRepo is the MongoDB implementation of RideRepository.
type MongoRideRepo struct {
	coll *mongo.Collection
}

// NewMongoRideRepo returns a ride repository backed by the default database.
func NewMongoRideRepo() *MongoRideRepo {
	return &MongoRideRepo{coll: database.Collection("rides")}
}

// NewMongoRideRepoWithCollection allows injecting a collection handle.
func NewMongoRideRepoWithCollection(coll *mongo.Collection) *MongoRideRepo {
	return &MongoRideRepo{coll: coll}
}

func (repo *MongoRideRepo) Create(ride *models.Ride) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := repo.coll.InsertOne(ctx, ride); err != nil {
		return fmt.Errorf("error creating ride: %w", err)
	}
	return nil
}

func (repo *MongoRideRepo) GetByRideID(rideID string) (*models.Ride, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var ride models.Ride
	if err := repo.coll.FindOne(ctx, bson.M{"rideId": rideID}).Decode(&ride); err != nil {
		return nil, fmt.Errorf("ride %s not found: %w", rideID, err)
	}
	return &ride, nil
}

func (repo *MongoRideRepo) SetCalendarEventID(rideID, eventID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := repo.coll.UpdateOne(ctx,
		bson.M{"rideId": rideID},
		bson.M{"$set": bson.M{"calendarEventId": eventID}},
	)
	if err != nil {
		return fmt.Errorf("error linking calendar event to ride %s: %w", rideID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("ride %s not found", rideID)
	}
	return nil
}

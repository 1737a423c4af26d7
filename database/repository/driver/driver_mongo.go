package driverRepo

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

// MongoDriverRepo is the MongoDB implementation of DriverRepository.
type MongoDriverRepo struct {
	coll *mongo.Collection
}

// NewMongoDriverRepo returns a driver repository backed by the default database.
func NewMongoDriverRepo() *MongoDriverRepo {
	return &MongoDriverRepo{coll: database.Collection("drivers")}
}

// NewMongoDriverRepoWithCollection allows injecting a collection handle.
func NewMongoDriverRepoWithCollection(coll *mongo.Collection) *MongoDriverRepo {
	return &MongoDriverRepo{coll: coll}
}

// EnsureIndexes creates indexes for fields frequently used in queries.
func (repo *MongoDriverRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "rating", Value: -1}, {Key: "totalRides", Value: -1}}},
	}

	if _, err := repo.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create driver indexes: %w", err)
	}
	return nil
}

func (repo *MongoDriverRepo) GetByPhone(phone string) (*models.Driver, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var driver models.Driver
	if err := repo.coll.FindOne(ctx, bson.M{"phone": phone}).Decode(&driver); err != nil {
		return nil, fmt.Errorf("driver %s not found: %w", phone, err)
	}
	return &driver, nil
}

func (repo *MongoDriverRepo) ListByRatingAndRides() ([]models.Driver, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "totalRides", Value: -1}})
	cursor, err := repo.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("driver roster query failed: %w", err)
	}
	defer cursor.Close(ctx)

	var drivers []models.Driver
	if err := cursor.All(ctx, &drivers); err != nil {
		return nil, fmt.Errorf("error decoding driver roster: %w", err)
	}
	return drivers, nil
}

func (repo *MongoDriverRepo) UpdateLocation(phone, address string, at time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"currentLocation.address":     address,
			"currentLocation.lastUpdated": at,
			"updatedAt":                   time.Now(),
		},
	}
	res, err := repo.coll.UpdateOne(ctx, bson.M{"phone": phone}, update)
	if err != nil {
		return fmt.Errorf("error updating location for driver %s: %w", phone, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("driver %s not found", phone)
	}
	return nil
}

func (repo *MongoDriverRepo) IncrementRides(phone string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	update := bson.M{
		"$inc": bson.M{"totalRides": 1},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	if _, err := repo.coll.UpdateOne(ctx, bson.M{"phone": phone}, update); err != nil {
		return fmt.Errorf("error incrementing rides for driver %s: %w", phone, err)
	}
	return nil
}

func (repo *MongoDriverRepo) Create(driver *models.Driver) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	now := time.Now()
	driver.CreatedAt = now
	driver.UpdatedAt = now
	if _, err := repo.coll.InsertOne(ctx, driver); err != nil {
		return fmt.Errorf("error creating driver: %w", err)
	}
	return nil
}

package rideRepo

import (
	"context"
	"fmt"
	"time"

	"ridelink/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// occupiedStatuses are the ride states that hold a driver's (and rider's)
// time: decided-accepted and already-completed rides.
var occupiedStatuses = bson.A{models.StatusAutoAccepted, models.StatusCompleted}

// FindOverlapping matches occupied rides whose half-open window
// [requestedTime, requestedTime+estimatedDuration) intersects [start, end).
// The ride end is computed in the pipeline since only the start and the
// duration are stored.
func (repo *MongoRideRepo) FindOverlapping(phone string, asDriver bool, start, end time.Time) ([]models.Ride, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	partyField := "riderPhone"
	if asDriver {
		partyField = "driverPhone"
	}

	filter := bson.M{
		partyField: phone,
		"status":   bson.M{"$in": occupiedStatuses},
		"$expr": bson.M{"$and": bson.A{
			bson.M{"$lt": bson.A{"$requestedTime", end}},
			bson.M{"$gt": bson.A{
				bson.M{"$add": bson.A{"$requestedTime", bson.M{"$multiply": bson.A{"$estimatedDuration", 60000}}}},
				start,
			}},
		}},
	}

	cursor, err := repo.coll.Find(ctx, filter, options.Find().SetSort(bson.M{"requestedTime": 1}))
	if err != nil {
		return nil, fmt.Errorf("overlap query failed for %s: %w", phone, err)
	}
	defer cursor.Close(ctx)

	var rides []models.Ride
	if err := cursor.All(ctx, &rides); err != nil {
		return nil, fmt.Errorf("error decoding overlap results: %w", err)
	}
	return rides, nil
}

// FindSameDay returns a driver's occupied rides on the calendar date of day,
// in the day's local timezone.
func (repo *MongoRideRepo) FindSameDay(driverPhone string, day time.Time) ([]models.Ride, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	startOfDay := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	filter := bson.M{
		"driverPhone":   driverPhone,
		"status":        bson.M{"$in": occupiedStatuses},
		"requestedTime": bson.M{"$gte": startOfDay, "$lt": endOfDay},
	}

	cursor, err := repo.coll.Find(ctx, filter, options.Find().SetSort(bson.M{"requestedTime": 1}))
	if err != nil {
		return nil, fmt.Errorf("same-day query failed for %s: %w", driverPhone, err)
	}
	defer cursor.Close(ctx)

	var rides []models.Ride
	if err := cursor.All(ctx, &rides); err != nil {
		return nil, fmt.Errorf("error decoding same-day results: %w", err)
	}
	return rides, nil
}

// FindNearTime returns a driver's occupied rides requested within
// [t-before, t+after].
func (repo *MongoRideRepo) FindNearTime(driverPhone string, t time.Time, before, after time.Duration) ([]models.Ride, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{
		"driverPhone":   driverPhone,
		"status":        bson.M{"$in": occupiedStatuses},
		"requestedTime": bson.M{"$gte": t.Add(-before), "$lte": t.Add(after)},
	}

	cursor, err := repo.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("near-time query failed for %s: %w", driverPhone, err)
	}
	defer cursor.Close(ctx)

	var rides []models.Ride
	if err := cursor.All(ctx, &rides); err != nil {
		return nil, fmt.Errorf("error decoding near-time results: %w", err)
	}
	return rides, nil
}

// LatestAcceptedByDriver returns the driver's most recent accepted ride, or
// nil when the driver has none.
func (repo *MongoRideRepo) LatestAcceptedByDriver(driverPhone string) (*models.Ride, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{"driverPhone": driverPhone, "status": models.StatusAutoAccepted}
	opts := options.FindOne().SetSort(bson.M{"createdAt": -1})

	var ride models.Ride
	err := repo.coll.FindOne(ctx, filter, opts).Decode(&ride)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("latest-accepted query failed for %s: %w", driverPhone, err)
	}
	return &ride, nil
}

// CountByStatus aggregates ride counts per status.
func (repo *MongoRideRepo) CountByStatus() (map[models.RideStatus]int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pipeline := []bson.M{
		{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
	}
	cursor, err := repo.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("status aggregation failed: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status models.RideStatus `bson:"_id"`
		Count  int64             `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error decoding status aggregation: %w", err)
	}

	counts := make(map[models.RideStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

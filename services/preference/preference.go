package preference

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"ridelink/database"
	"ridelink/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Embedder produces the route vectors the similarity queries run over.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// DefaultPreferenceService stores route embeddings in Mongo and ranks
// drivers by cosine similarity against a queried destination.
type DefaultPreferenceService struct {
	coll     *mongo.Collection
	embedder Embedder
}

// NewDefaultPreferenceService wires the service. A nil embedder disables
// learning; every call then no-ops.
func NewDefaultPreferenceService(embedder Embedder) *DefaultPreferenceService {
	return &DefaultPreferenceService{
		coll:     database.Collection("affinities"),
		embedder: embedder,
	}
}

// NewDefaultPreferenceServiceWithCollection allows injecting a collection
// handle.
func NewDefaultPreferenceServiceWithCollection(coll *mongo.Collection, embedder Embedder) *DefaultPreferenceService {
	return &DefaultPreferenceService{coll: coll, embedder: embedder}
}

// EnsureIndexes creates the rider-driver-route lookup index.
func (svc *DefaultPreferenceService) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "riderPhone", Value: 1}, {Key: "driverPhone", Value: 1}, {Key: "routeText", Value: 1}},
			Options: options.Index().SetUnique(true)},
	}
	if _, err := svc.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create affinity indexes: %w", err)
	}
	return nil
}

// RecordAffinity embeds the booked route and bumps the rider-driver pairing
// for it.
func (svc *DefaultPreferenceService) RecordAffinity(ctx context.Context, riderPhone, driverPhone, from, to string) error {
	if svc.embedder == nil {
		return nil
	}

	routeText := routeKey(from, to)
	vector, err := svc.embedder.EmbedText(ctx, routeText)
	if err != nil {
		return fmt.Errorf("could not embed route %q: %w", routeText, err)
	}

	filter := bson.M{"riderPhone": riderPhone, "driverPhone": driverPhone, "routeText": routeText}
	update := bson.M{
		"$set": bson.M{
			"from":      from,
			"to":        to,
			"embedding": vector,
			"updatedAt": time.Now(),
		},
		"$inc": bson.M{"count": 1},
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := svc.coll.UpdateOne(cctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("could not record affinity: %w", err)
	}
	return nil
}

// QueryPreferredDrivers ranks the rider's known drivers by how similar their
// recorded routes are to the queried destination, keeping only drivers with
// at least minRides recorded pairings.
func (svc *DefaultPreferenceService) QueryPreferredDrivers(ctx context.Context, riderPhone, destination string, minRides int) ([]DriverAffinity, error) {
	logger := utils.GetLogger()
	if svc.embedder == nil {
		return nil, nil
	}

	queryVec, err := svc.embedder.EmbedText(ctx, strings.ToLower(strings.TrimSpace(destination)))
	if err != nil {
		return nil, fmt.Errorf("could not embed destination %q: %w", destination, err)
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	cursor, err := svc.coll.Find(cctx, bson.M{"riderPhone": riderPhone})
	if err != nil {
		return nil, fmt.Errorf("affinity query failed: %w", err)
	}
	defer cursor.Close(cctx)

	var records []routeAffinity
	if err := cursor.All(cctx, &records); err != nil {
		return nil, fmt.Errorf("error decoding affinities: %w", err)
	}

	type agg struct {
		best  float64
		rides int
	}
	perDriver := make(map[string]*agg)
	for _, rec := range records {
		sim := CosineSimilarity(queryVec, rec.Embedding)
		a, ok := perDriver[rec.DriverPhone]
		if !ok {
			a = &agg{}
			perDriver[rec.DriverPhone] = a
		}
		if sim > a.best {
			a.best = sim
		}
		a.rides += rec.Count
	}

	var ranked []DriverAffinity
	for phone, a := range perDriver {
		if a.rides < minRides {
			continue
		}
		ranked = append(ranked, DriverAffinity{DriverPhone: phone, Similarity: a.best, Rides: a.rides})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].Similarity > ranked[j].Similarity })

	logger.Debug("Preference query ranked drivers",
		zap.String("rider", riderPhone), zap.Int("candidates", len(ranked)))
	return ranked, nil
}

// CosineSimilarity computes the cosine of the angle between two vectors,
// 0 when either is empty or zero-length.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func routeKey(from, to string) string {
	return strings.ToLower(strings.TrimSpace(from)) + " to " + strings.ToLower(strings.TrimSpace(to))
}

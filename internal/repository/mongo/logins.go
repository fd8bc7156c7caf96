package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zaheer037/smart-auth/internal/core/domain"
	"github.com/zaheer037/smart-auth/internal/core/port"
)

// LoginRepository is the append-only audit store. Inserts are the only write
// it performs; records are never updated or deleted.
type LoginRepository struct {
	collection   *mongo.Collection
	queryTimeout time.Duration
}

// NewLoginRepository constructs the login history repository.
func NewLoginRepository(db *mongo.Database, queryTimeout time.Duration) *LoginRepository {
	return &LoginRepository{
		collection:   db.Collection(loginsCollection),
		queryTimeout: queryTimeout,
	}
}

func (r *LoginRepository) Append(ctx context.Context, record domain.LoginRecord) (*domain.LoginRecord, error) {
	opCtx, cancel := queryContext(ctx, r.queryTimeout)
	defer cancel()

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	if _, err := r.collection.InsertOne(opCtx, record); err != nil {
		return nil, fmt.Errorf("append login record: %w", err)
	}

	return &record, nil
}

func (r *LoginRepository) ListByUser(ctx context.Context, userID string, page, limit int64) ([]domain.LoginRecord, int64, error) {
	opCtx, cancel := queryContext(ctx, r.queryTimeout)
	defer cancel()

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	filter := bson.M{"userId": userID}

	total, err := r.collection.CountDocuments(opCtx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count login records: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	records, err := r.find(opCtx, filter, opts)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *LoginRepository) ListByStatus(ctx context.Context, status domain.LoginStatus, since time.Time, limit int64) ([]domain.LoginRecord, error) {
	opCtx, cancel := queryContext(ctx, r.queryTimeout)
	defer cancel()

	filter := bson.M{
		"status":    status,
		"createdAt": bson.M{"$gte": since},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)

	return r.find(opCtx, filter, opts)
}

func (r *LoginRepository) ListByIP(ctx context.Context, ip string, limit int64) ([]domain.LoginRecord, error) {
	opCtx, cancel := queryContext(ctx, r.queryTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)

	return r.find(opCtx, bson.M{"ip": ip}, opts)
}

func (r *LoginRepository) CountByStatusForUser(ctx context.Context, userID string) ([]domain.StatusCount, error) {
	opCtx, cancel := queryContext(ctx, r.queryTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userID}}},
		{{Key: "$group", Value: bson.M{
			"_id":       "$status",
			"count":     bson.M{"$sum": 1},
			"lastLogin": bson.M{"$max": "$createdAt"},
		}}},
	}

	cursor, err := r.collection.Aggregate(opCtx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate status counts: %w", err)
	}
	defer cursor.Close(opCtx)

	var counts []domain.StatusCount
	if err := cursor.All(opCtx, &counts); err != nil {
		return nil, fmt.Errorf("decode status counts: %w", err)
	}

	return counts, nil
}

func (r *LoginRepository) CountTotal(ctx context.Context) (int64, error) {
	return r.count(ctx, bson.M{})
}

func (r *LoginRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return r.count(ctx, bson.M{"createdAt": bson.M{"$gte": since}})
}

func (r *LoginRepository) CountByStatus(ctx context.Context, status domain.LoginStatus) (int64, error) {
	return r.count(ctx, bson.M{"status": status})
}

func (r *LoginRepository) CountByStatusSince(ctx context.Context, status domain.LoginStatus, since time.Time) (int64, error) {
	return r.count(ctx, bson.M{
		"status":    status,
		"createdAt": bson.M{"$gte": since},
	})
}

func (r *LoginRepository) DailyTrend(ctx context.Context, since time.Time) ([]domain.DailyTrend, error) {
	opCtx, cancel := queryContext(ctx, r.queryTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"createdAt": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{
				"format": "%Y-%m-%d",
				"date":   "$createdAt",
			}},
			"safe": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", domain.LoginStatusSafe}}, 1, 0,
			}}},
			"suspicious": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", domain.LoginStatusSuspicious}}, 1, 0,
			}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cursor, err := r.collection.Aggregate(opCtx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate daily trend: %w", err)
	}
	defer cursor.Close(opCtx)

	var trend []domain.DailyTrend
	if err := cursor.All(opCtx, &trend); err != nil {
		return nil, fmt.Errorf("decode daily trend: %w", err)
	}

	return trend, nil
}

func (r *LoginRepository) TopLocations(ctx context.Context, since time.Time, limit int64) ([]domain.LocationCount, error) {
	opCtx, cancel := queryContext(ctx, r.queryTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"createdAt": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$concat": bson.A{
				"$location.city", ", ", "$location.country",
			}},
			"count": bson.M{"$sum": 1},
			"users": bson.M{"$addToSet": "$userId"},
		}}},
		{{Key: "$project", Value: bson.M{
			"location":    "$_id",
			"count":       1,
			"uniqueUsers": bson.M{"$size": "$users"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
	}

	cursor, err := r.collection.Aggregate(opCtx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate top locations: %w", err)
	}
	defer cursor.Close(opCtx)

	var locations []domain.LocationCount
	if err := cursor.All(opCtx, &locations); err != nil {
		return nil, fmt.Errorf("decode top locations: %w", err)
	}

	return locations, nil
}

func (r *LoginRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.LoginRecord, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find login records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []domain.LoginRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode login records: %w", err)
	}

	return records, nil
}

func (r *LoginRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	opCtx, cancel := queryContext(ctx, r.queryTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(opCtx, filter)
	if err != nil {
		return 0, fmt.Errorf("count login records: %w", err)
	}

	return count, nil
}

var _ port.LoginRepository = (*LoginRepository)(nil)

package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zaheer037/smart-auth/internal/core/domain"
	"github.com/zaheer037/smart-auth/internal/core/port"
	"github.com/zaheer037/smart-auth/internal/repository"
)

// UserRepository persists users in the users collection. Every challenge
// mutation is a single conditional document update so that concurrent
// verifications against the same user serialize at the store.
type UserRepository struct {
	collection   *mongo.Collection
	queryTimeout time.Duration
}

// NewUserRepository constructs the user repository on the given database.
func NewUserRepository(db *mongo.Database, queryTimeout time.Duration) *UserRepository {
	return &UserRepository{
		collection:   db.Collection(usersCollection),
		queryTimeout: queryTimeout,
	}
}

// FindOrCreate returns the user matching the record's identifiers, inserting
// the record when no match exists. The upsert keeps lookup and creation in
// one round trip so two concurrent first logins cannot create duplicates.
func (r *UserRepository) FindOrCreate(ctx context.Context, user domain.User) (*domain.User, error) {
	opCtx, cancel := queryContext(ctx, r.queryTimeout)
	defer cancel()

	filter := identifierFilter(user.Email, user.Phone)
	if filter == nil {
		return nil, domain.ErrIdentifierRequired
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	update := bson.M{"$setOnInsert": user}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var found domain.User
	if err := r.collection.FindOneAndUpdate(opCtx, filter, update, opts).Decode(&found); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, fmt.Errorf("find or create user: %w", err)
	}

	return &found, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	opCtx, cancel := queryContext(ctx, r.queryTimeout)
	defer cancel()

	var user domain.User
	if err := r.collection.FindOne(opCtx, bson.M{"_id": id}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return &user, nil
}

func (r *UserRepository) GetByIdentifier(ctx context.Context, email, phone string) (*domain.User, error) {
	opCtx, cancel := queryContext(ctx, r.queryTimeout)
	defer cancel()

	var emailPtr, phonePtr *string
	if email != "" {
		emailPtr = &email
	}
	if phone != "" {
		phonePtr = &phone
	}

	filter := identifierFilter(emailPtr, phonePtr)
	if filter == nil {
		return nil, domain.ErrIdentifierRequired
	}

	var user domain.User
	if err := r.collection.FindOne(opCtx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get user by identifier: %w", err)
	}

	return &user, nil
}

// SetChallenge replaces the stored challenge and resets the attempt counter
// in one update. A resend therefore never leaves a window where the old code
// is gone but the new one is not yet stored.
func (r *UserRepository) SetChallenge(ctx context.Context, id string, challenge port.Challenge, now time.Time) error {
	opCtx, cancel := queryContext(ctx, r.queryTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"otpHash":     challenge.Hash,
			"otpExpiry":   challenge.ExpiresAt,
			"otpAttempts": 0,
			"updatedAt":   now,
		},
	}

	result, err := r.collection.UpdateByID(opCtx, id, update)
	if err != nil {
		return fmt.Errorf("set challenge: %w", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *UserRepository) ClearChallenge(ctx context.Context, id string, now time.Time) error {
	opCtx, cancel := queryContext(ctx, r.queryTimeout)
	defer cancel()

	update := bson.M{
		"$unset": bson.M{"otpHash": "", "otpExpiry": ""},
		"$set":   bson.M{"otpAttempts": 0, "updatedAt": now},
	}

	result, err := r.collection.UpdateByID(opCtx, id, update)
	if err != nil {
		return fmt.Errorf("clear challenge: %w", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// IncrementAttempts adds one failed attempt. The filter re-asserts the
// stored hash and the counter bound, so a counter can never pass the limit
// and an increment never lands on a challenge issued after the read.
func (r *UserRepository) IncrementAttempts(ctx context.Context, id string, hash string, limit int) (int, error) {
	opCtx, cancel := queryContext(ctx, r.queryTimeout)
	defer cancel()

	filter := bson.M{
		"_id":         id,
		"otpHash":     hash,
		"otpAttempts": bson.M{"$lt": limit},
	}
	update := bson.M{"$inc": bson.M{"otpAttempts": 1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user domain.User
	if err := r.collection.FindOneAndUpdate(opCtx, filter, update, opts).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("increment otp attempts: %w", err)
	}

	return user.OTPAttempts, nil
}

// ConsumeChallenge clears the challenge and applies the success-side trust
// updates in one conditional update. Exactly one of any set of concurrent
// callers matches the filter; the rest see ErrNotFound.
func (r *UserRepository) ConsumeChallenge(ctx context.Context, id string, hash string, limit int, now time.Time) (*domain.User, error) {
	opCtx, cancel := queryContext(ctx, r.queryTimeout)
	defer cancel()

	filter := bson.M{
		"_id":         id,
		"otpHash":     hash,
		"otpExpiry":   bson.M{"$gt": now},
		"otpAttempts": bson.M{"$lt": limit},
	}
	update := bson.M{
		"$unset": bson.M{"otpHash": "", "otpExpiry": ""},
		"$set": bson.M{
			"otpAttempts":  0,
			"verified":     true,
			"lastActiveAt": now,
			"updatedAt":    now,
		},
		"$inc": bson.M{"loginCount": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user domain.User
	if err := r.collection.FindOneAndUpdate(opCtx, filter, update, opts).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("consume challenge: %w", err)
	}

	return &user, nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, ip string, location domain.Location, now time.Time) error {
	opCtx, cancel := queryContext(ctx, r.queryTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"lastLoginIP":       ip,
			"lastLoginLocation": location,
			"lastActiveAt":      now,
			"updatedAt":         now,
		},
	}

	result, err := r.collection.UpdateByID(opCtx, id, update)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *UserRepository) List(ctx context.Context, page, limit int64) ([]domain.User, int64, error) {
	opCtx, cancel := queryContext(ctx, r.queryTimeout)
	defer cancel()

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	total, err := r.collection.CountDocuments(opCtx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := r.collection.Find(opCtx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(opCtx)

	var users []domain.User
	if err := cursor.All(opCtx, &users); err != nil {
		return nil, 0, fmt.Errorf("decode users: %w", err)
	}

	return users, total, nil
}

func (r *UserRepository) SetActive(ctx context.Context, id string, active bool, now time.Time) error {
	opCtx, cancel := queryContext(ctx, r.queryTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"isActive": active, "updatedAt": now}}

	result, err := r.collection.UpdateByID(opCtx, id, update)
	if err != nil {
		return fmt.Errorf("set user active: %w", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *UserRepository) CountUsers(ctx context.Context) (total, active, verified int64, err error) {
	opCtx, cancel := queryContext(ctx, r.queryTimeout)
	defer cancel()

	if total, err = r.collection.CountDocuments(opCtx, bson.M{}); err != nil {
		return 0, 0, 0, fmt.Errorf("count users: %w", err)
	}
	if active, err = r.collection.CountDocuments(opCtx, bson.M{"isActive": true}); err != nil {
		return 0, 0, 0, fmt.Errorf("count active users: %w", err)
	}
	if verified, err = r.collection.CountDocuments(opCtx, bson.M{"verified": true}); err != nil {
		return 0, 0, 0, fmt.Errorf("count verified users: %w", err)
	}

	return total, active, verified, nil
}

func (r *UserRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	opCtx, cancel := queryContext(ctx, r.queryTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(opCtx, bson.M{"createdAt": bson.M{"$gte": since}})
	if err != nil {
		return 0, fmt.Errorf("count users created since: %w", err)
	}

	return count, nil
}

func identifierFilter(email, phone *string) bson.M {
	var clauses []bson.M
	if email != nil && *email != "" {
		clauses = append(clauses, bson.M{"email": *email})
	}
	if phone != nil && *phone != "" {
		clauses = append(clauses, bson.M{"phone": *phone})
	}

	switch len(clauses) {
	case 0:
		return nil
	case 1:
		return clauses[0]
	default:
		return bson.M{"$or": clauses}
	}
}

var _ port.UserRepository = (*UserRepository)(nil)

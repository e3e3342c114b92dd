package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/devoops/user-service/internal/core/domain"
)

const (
	collectionUsers = "users"

	usernameIndex = "username_active_unique"
	emailIndex    = "email_active_unique"
)

// UserRepository stores accounts in MongoDB. Deleted accounts stay in the
// collection; every lookup except FindByIDIncludingDeleted hides them.
type UserRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers), now: time.Now}
}

// activeFilter scopes a query to accounts that have not been deleted.
func activeFilter(conditions ...bson.E) bson.D {
	filter := bson.D{{Key: "is_deleted", Value: false}}
	return append(filter, conditions...)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, activeFilter(bson.E{Key: "_id", Value: id}))
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, activeFilter(bson.E{Key: "username", Value: username}))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, activeFilter(bson.E{Key: "email", Value: email}))
}

func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error) {
	return r.findOne(ctx, activeFilter(bson.E{Key: "$or", Value: bson.A{
		bson.D{{Key: "username", Value: username}},
		bson.D{{Key: "email", Value: email}},
	}}))
}

// FindByIDIncludingDeleted bypasses the soft-delete filter for historical
// lookups.
func (r *UserRepository) FindByIDIncludingDeleted(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, activeFilter(bson.E{Key: "username", Value: username}))
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, activeFilter(bson.E{Key: "email", Value: email}))
}

// Save inserts or replaces the account document. New accounts get a UUID and
// creation timestamp; UpdatedAt is refreshed on every write.
func (r *UserRepository) Save(ctx context.Context, u *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := *u
	now := r.now().UTC()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	_, err := r.col.ReplaceOne(ctx, bson.D{{Key: "_id", Value: doc.ID}}, &doc, options.Replace().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, &domain.AlreadyExistsError{Field: duplicateField(err)}
		}
		return nil, fmt.Errorf("save user: %w", err)
	}
	return &doc, nil
}

// EnsureIndexes creates the partial unique indexes that keep usernames and
// emails unique among active accounts only.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	active := bson.D{{Key: "is_deleted", Value: false}}
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName(usernameIndex).SetUnique(true).SetPartialFilterExpression(active),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(emailIndex).SetUnique(true).SetPartialFilterExpression(active),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

// Ping is used by the readiness probe.
func (r *UserRepository) Ping(ctx context.Context) error {
	return r.col.Database().Client().Ping(ctx, nil)
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.D) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var u domain.User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) exists(ctx context.Context, filter bson.D) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

var dupIndexPattern = regexp.MustCompile(`index: (\S+) dup key`)

// duplicateField names the account field behind an E11000 error.
func duplicateField(err error) string {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if field := fieldForIndex(e.Message); field != "" {
				return field
			}
		}
	}
	if field := fieldForIndex(err.Error()); field != "" {
		return field
	}
	return "account"
}

func fieldForIndex(msg string) string {
	m := dupIndexPattern.FindStringSubmatch(msg)
	if m == nil {
		return ""
	}
	switch m[1] {
	case usernameIndex:
		return "username"
	case emailIndex:
		return "email"
	}
	return ""
}

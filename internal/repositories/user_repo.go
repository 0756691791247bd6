package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"natours/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const UsersCollection = "users"

// deactivated accounts are hidden from every lookup
var activeUsersScope = bson.M{"active": bson.M{"$ne": false}}

type UserRepository interface {
	DocumentStore[models.User]
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByResetToken(ctx context.Context, hashedToken string, now time.Time) (*models.User, error)
	Save(ctx context.Context, user *models.User) error
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type userRepo struct {
	*documentRepo[models.User]
}

func NewUserRepo(db *mongo.Database) UserRepository {
	return &userRepo{documentRepo: newDocumentRepo[models.User](db.Collection(UsersCollection), activeUsersScope)}
}

func (r *userRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.Email = normalizeEmail(user.Email)
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.Active = true

	id, err := r.insert(ctx, user)
	if err != nil {
		return nil, err
	}
	user.ID = id
	return user, nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.findByID(ctx, id)
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": normalizeEmail(email)})
}

// GetByResetToken finds the user owning an unexpired reset token hash
func (r *userRepo) GetByResetToken(ctx context.Context, hashedToken string, now time.Time) (*models.User, error) {
	if hashedToken == "" {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, bson.M{
		"passwordResetToken":   hashedToken,
		"passwordResetExpires": bson.M{"$gt": now},
	})
}

func (r *userRepo) Update(ctx context.Context, id string, update bson.M) (*models.User, error) {
	if email, ok := update["email"].(string); ok {
		update["email"] = normalizeEmail(email)
	}
	return r.updateByID(ctx, id, update)
}

func (r *userRepo) Delete(ctx context.Context, id string) (*models.User, error) {
	return r.deleteByID(ctx, id)
}

func (r *userRepo) List(ctx context.Context, q *Query) ([]*models.User, error) {
	return r.find(ctx, q)
}

// Save replaces the whole stored user, used after password and reset token changes
func (r *userRepo) Save(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		return errors.New("cannot save a user without id")
	}
	res, err := r.coll.ReplaceOne(ctx, r.scoped(bson.M{"_id": user.ID}), user)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearExpiredResetTokens drops reset tokens that can no longer be redeemed
func (r *userRepo) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"passwordResetExpires": bson.M{"$lte": now}},
		bson.M{"$unset": bson.M{"passwordResetToken": "", "passwordResetExpires": ""}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *userRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package services

import (
	"context"
	"io"
	"time"

	"natours/internal/models"
	"natours/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// mockStore implements the document store half of every repository mock
type mockStore[T any] struct {
	mock.Mock
}

func (m *mockStore[T]) Create(ctx context.Context, doc *T) (*T, error) {
	args := m.Called(ctx, doc)
	if fn, ok := args.Get(0).(func(context.Context, *T) *T); ok {
		return fn(ctx, doc), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *mockStore[T]) GetByID(ctx context.Context, id string) (*T, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *mockStore[T]) Update(ctx context.Context, id string, update bson.M) (*T, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *mockStore[T]) Delete(ctx context.Context, id string) (*T, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *mockStore[T]) List(ctx context.Context, q *repositories.Query) ([]*T, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*T), args.Error(1)
}

type MockTourRepository struct {
	mockStore[models.Tour]
}

func (m *MockTourRepository) Stats(ctx context.Context) ([]models.TourStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TourStats), args.Error(1)
}

func (m *MockTourRepository) MonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlan, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MonthlyPlan), args.Error(1)
}

func (m *MockTourRepository) SetRatings(ctx context.Context, tourID primitive.ObjectID, quantity int, average float64) error {
	return m.Called(ctx, tourID, quantity, average).Error(0)
}

func (m *MockTourRepository) ResetRatingsExcept(ctx context.Context, rated []primitive.ObjectID) (int64, error) {
	args := m.Called(ctx, rated)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTourRepository) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockReviewRepository struct {
	mockStore[models.Review]
}

func (m *MockReviewRepository) RatingStats(ctx context.Context, tourID primitive.ObjectID) (*models.RatingStats, error) {
	args := m.Called(ctx, tourID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RatingStats), args.Error(1)
}

func (m *MockReviewRepository) AllRatingStats(ctx context.Context) ([]models.RatingStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RatingStats), args.Error(1)
}

func (m *MockReviewRepository) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockUserRepository struct {
	mockStore[models.User]
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByResetToken(ctx context.Context, hashedToken string, now time.Time) (*models.User, error) {
	args := m.Called(ctx, hashedToken, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockAuditLogsRepository struct {
	mock.Mock
}

func (m *MockAuditLogsRepository) EnsureSchema(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockAuditLogsRepository) Create(ctx context.Context, auditLog *models.AuditLog) error {
	return m.Called(ctx, auditLog).Error(0)
}

func (m *MockAuditLogsRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AuditLog, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuditLog), args.Error(1)
}

func (m *MockAuditLogsRepository) List(ctx context.Context, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetTourStats(ctx context.Context) ([]models.TourStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TourStats), args.Error(1)
}

func (m *MockCacheService) SetTourStats(ctx context.Context, stats []models.TourStats, ttl time.Duration) error {
	return m.Called(ctx, stats, ttl).Error(0)
}

func (m *MockCacheService) GetMonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlan, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MonthlyPlan), args.Error(1)
}

func (m *MockCacheService) SetMonthlyPlan(ctx context.Context, year int, plan []models.MonthlyPlan, ttl time.Duration) error {
	return m.Called(ctx, year, plan, ttl).Error(0)
}

func (m *MockCacheService) InvalidateTourCache(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	return m.Called(ctx, tokenID, ttl).Error(0)
}

func (m *MockCacheService) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) Send(ctx context.Context, email *models.Email) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockEmailService) SendPasswordReset(ctx context.Context, user *models.User, resetURL string) error {
	return m.Called(ctx, user, resetURL).Error(0)
}

type MockMinioService struct {
	mock.Mock
}

func (m *MockMinioService) UploadImage(ctx context.Context, objectName string, reader io.Reader, objectSize int64, contentType string) error {
	return m.Called(ctx, objectName, reader, objectSize, contentType).Error(0)
}

func (m *MockMinioService) GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, objectName, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockMinioService) DeleteImage(ctx context.Context, objectName string) error {
	return m.Called(ctx, objectName).Error(0)
}

func (m *MockMinioService) EnsureBucketExists(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

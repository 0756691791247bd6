package handlers

import (
	"context"

	"natours/internal/models"
	"natours/internal/repositories"
	"natours/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockStore[T any] struct {
	mock.Mock
}

func (m *mockStore[T]) Create(ctx context.Context, doc *T) (*T, error) {
	args := m.Called(ctx, doc)
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

type MockTourService struct {
	mockStore[models.Tour]
}

func (m *MockTourService) Stats(ctx context.Context) ([]models.TourStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TourStats), args.Error(1)
}

func (m *MockTourService) MonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlan, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MonthlyPlan), args.Error(1)
}

func (m *MockTourService) SetRatings(ctx context.Context, tourID primitive.ObjectID, quantity int, average float64) error {
	return m.Called(ctx, tourID, quantity, average).Error(0)
}

func (m *MockTourService) ResetRatingsExcept(ctx context.Context, rated []primitive.ObjectID) (int64, error) {
	args := m.Called(ctx, rated)
	return args.Get(0).(int64), args.Error(1)
}

type MockReviewService struct {
	mockStore[models.Review]
}

func (m *MockReviewService) CalcAverageRatings(ctx context.Context, tourID primitive.ObjectID) error {
	return m.Called(ctx, tourID).Error(0)
}

func (m *MockReviewService) RecalculateAll(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockUserService struct {
	mockStore[models.User]
}

func (m *MockUserService) session(args mock.Arguments) (*services.Session, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Session), args.Error(1)
}

func (m *MockUserService) Signup(ctx context.Context, input services.SignupInput) (*services.Session, error) {
	return m.session(m.Called(ctx, input))
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (*services.Session, error) {
	return m.session(m.Called(ctx, email, password))
}

func (m *MockUserService) ForgotPassword(ctx context.Context, email string, resetURL func(token string) string) error {
	return m.Called(ctx, email, resetURL).Error(0)
}

func (m *MockUserService) ResetPassword(ctx context.Context, token, password, passwordConfirm string) (*services.Session, error) {
	return m.session(m.Called(ctx, token, password, passwordConfirm))
}

func (m *MockUserService) UpdatePassword(ctx context.Context, userID, current, password, passwordConfirm string) (*services.Session, error) {
	return m.session(m.Called(ctx, userID, current, password, passwordConfirm))
}

func (m *MockUserService) UpdateMe(ctx context.Context, user *models.User, input services.UpdateMeInput) (*models.User, error) {
	args := m.Called(ctx, user, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Deactivate(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserService) PhotoURL(ctx context.Context, user *models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

func (m *MockUserService) ClearExpiredResetTokens(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) SignToken(userID string) (*models.IssuedToken, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.IssuedToken), args.Error(1)
}

func (m *MockAuthService) ParseToken(token string) (*services.TokenClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TokenClaims), args.Error(1)
}

func (m *MockAuthService) RevokeToken(ctx context.Context, claims *services.TokenClaims) error {
	return m.Called(ctx, claims).Error(0)
}

func (m *MockAuthService) IsRevoked(ctx context.Context, claims *services.TokenClaims) (bool, error) {
	args := m.Called(ctx, claims)
	return args.Bool(0), args.Error(1)
}

func (m *MockAuthService) CreatePasswordResetToken() (*models.PasswordReset, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PasswordReset), args.Error(1)
}

func (m *MockAuthService) HashResetToken(token string) string {
	return m.Called(token).String(0)
}

type MockAuditLogsService struct {
	mock.Mock
	enabled bool
}

func (m *MockAuditLogsService) LogActivity(ctx context.Context, resource, recordID, action string, actorID *string, statusCode int, data map[string]interface{}) error {
	return m.Called(ctx, resource, recordID, action, actorID, statusCode, data).Error(0)
}

func (m *MockAuditLogsService) GetAuditLog(ctx context.Context, id uuid.UUID) (*models.AuditLog, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuditLog), args.Error(1)
}

func (m *MockAuditLogsService) ListAuditLogs(ctx context.Context, filters *models.AuditLogFilters) ([]*models.AuditLog, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditLog), args.Error(1)
}

func (m *MockAuditLogsService) Enabled() bool { return m.enabled }

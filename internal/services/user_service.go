package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"strings"
	"time"

	"natours/internal/common"
	"natours/internal/models"
	"natours/internal/repositories"

	"go.mongodb.org/mongo-driver/bson"
)

const PhotoURLExpiry = 15 * time.Minute

// SignupInput is the accepted signup payload. Role is never taken from clients.
type SignupInput struct {
	Name            string
	Email           string
	Photo           string
	Password        string
	PasswordConfirm string
}

// PhotoUpload is an image received on /updateMe
type PhotoUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

type UpdateMeInput struct {
	Name  *string
	Email *string
	Photo *PhotoUpload
}

// Session is a user together with a freshly signed token
type Session struct {
	User  *models.User
	Token *models.IssuedToken
}

type UserService interface {
	repositories.DocumentStore[models.User]

	Signup(ctx context.Context, input SignupInput) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	ForgotPassword(ctx context.Context, email string, resetURL func(token string) string) error
	ResetPassword(ctx context.Context, token, password, passwordConfirm string) (*Session, error)
	UpdatePassword(ctx context.Context, userID, current, password, passwordConfirm string) (*Session, error)

	UpdateMe(ctx context.Context, user *models.User, input UpdateMeInput) (*models.User, error)
	Deactivate(ctx context.Context, user *models.User) error
	PhotoURL(ctx context.Context, user *models.User) (string, error)
	ClearExpiredResetTokens(ctx context.Context) (int64, error)
}

type userService struct {
	repo     repositories.UserRepository
	authSvc  AuthService
	emailSvc EmailService
	photos   MinioService
	now      func() time.Time
}

// NewUserService wires account management. photos may be nil, in which case
// photo uploads are rejected.
func NewUserService(repo repositories.UserRepository, authSvc AuthService, emailSvc EmailService, photos MinioService) UserService {
	return &userService{
		repo:     repo,
		authSvc:  authSvc,
		emailSvc: emailSvc,
		photos:   photos,
		now:      time.Now,
	}
}

func (s *userService) Create(ctx context.Context, user *models.User) (*models.User, error) {
	return s.repo.Create(ctx, user)
}

func (s *userService) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *userService) Update(ctx context.Context, id string, update bson.M) (*models.User, error) {
	return s.repo.Update(ctx, id, update)
}

func (s *userService) Delete(ctx context.Context, id string) (*models.User, error) {
	return s.repo.Delete(ctx, id)
}

func (s *userService) List(ctx context.Context, q *repositories.Query) ([]*models.User, error) {
	return s.repo.List(ctx, q)
}

func (s *userService) Signup(ctx context.Context, input SignupInput) (*Session, error) {
	user := &models.User{
		Name:  strings.TrimSpace(input.Name),
		Email: input.Email,
		Photo: input.Photo,
		Role:  models.RoleUser,
	}
	if err := user.SetPassword(input.Password, input.PasswordConfirm); err != nil {
		return nil, passwordError(err)
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.session(created)
}

func (s *userService) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, common.NewAppError("Please provide email and password", http.StatusBadRequest)
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}
	if user == nil || !user.CorrectPassword(password) {
		return nil, common.NewAppError("Incorrect Email or Password", http.StatusUnauthorized)
	}
	return s.session(user)
}

// ForgotPassword stores a hashed reset token and mails the plain one. If the
// mail cannot be sent the token is discarded again.
func (s *userService) ForgotPassword(ctx context.Context, email string, resetURL func(token string) string) error {
	user, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return common.NewAppError("Email not found", http.StatusNotFound)
	}
	if err != nil {
		return err
	}

	reset, err := s.authSvc.CreatePasswordResetToken()
	if err != nil {
		return err
	}
	user.PasswordResetToken = reset.Hash
	user.PasswordResetExpires = &reset.ExpiresAt
	if err := s.repo.Save(ctx, user); err != nil {
		return err
	}

	if err := s.emailSvc.SendPasswordReset(ctx, user, resetURL(reset.Plain)); err != nil {
		user.ClearPasswordReset()
		if saveErr := s.repo.Save(ctx, user); saveErr != nil {
			err = fmt.Errorf("%w (clearing reset token: %v)", err, saveErr)
		}
		return common.WrapAppError(err, "There was an error sending the email. Try again later", http.StatusInternalServerError)
	}
	return nil
}

func (s *userService) ResetPassword(ctx context.Context, token, password, passwordConfirm string) (*Session, error) {
	user, err := s.repo.GetByResetToken(ctx, s.authSvc.HashResetToken(token), s.now())
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, common.NewAppError("Token is invalid or expired", http.StatusBadRequest)
	}
	if err != nil {
		return nil, err
	}

	if err := user.SetPassword(password, passwordConfirm); err != nil {
		return nil, passwordError(err)
	}
	user.ClearPasswordReset()
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}
	return s.session(user)
}

func (s *userService) UpdatePassword(ctx context.Context, userID, current, password, passwordConfirm string) (*Session, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !user.CorrectPassword(current) {
		return nil, common.NewAppError("Current Password is Incorrect", http.StatusUnauthorized)
	}
	if password == current {
		return nil, common.NewAppError("New password cannot be same as old password", http.StatusBadRequest)
	}
	if err := user.SetPassword(password, passwordConfirm); err != nil {
		return nil, passwordError(err)
	}
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, err
	}
	return s.session(user)
}

// UpdateMe changes name, email and photo of the current user
func (s *userService) UpdateMe(ctx context.Context, user *models.User, input UpdateMeInput) (*models.User, error) {
	update := bson.M{}
	if input.Name != nil {
		update["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		update["email"] = *input.Email
	}

	if input.Photo != nil {
		name, err := s.storePhoto(ctx, user, input.Photo)
		if err != nil {
			return nil, err
		}
		update["photo"] = name
	}

	if len(update) == 0 {
		return s.repo.GetByID(ctx, user.ID.Hex())
	}
	return s.repo.Update(ctx, user.ID.Hex(), update)
}

func (s *userService) Deactivate(ctx context.Context, user *models.User) error {
	_, err := s.repo.Update(ctx, user.ID.Hex(), bson.M{"active": false})
	return err
}

// PhotoURL returns a short-lived link to the stored photo
func (s *userService) PhotoURL(ctx context.Context, user *models.User) (string, error) {
	if user.Photo == "" {
		return "", common.NewAppError("No photo uploaded", http.StatusNotFound)
	}
	if s.photos == nil {
		return "", common.NewAppError("Photo storage is not available", http.StatusServiceUnavailable)
	}
	return s.photos.GetPresignedURL(ctx, user.Photo, PhotoURLExpiry)
}

func (s *userService) ClearExpiredResetTokens(ctx context.Context) (int64, error) {
	return s.repo.ClearExpiredResetTokens(ctx, s.now())
}

func (s *userService) storePhoto(ctx context.Context, user *models.User, photo *PhotoUpload) (string, error) {
	if s.photos == nil {
		return "", common.NewAppError("Photo storage is not available", http.StatusServiceUnavailable)
	}
	if !strings.HasPrefix(photo.ContentType, "image/") {
		return "", common.NewAppError("Not an image! Please upload only images.", http.StatusBadRequest)
	}

	ext := strings.TrimPrefix(photo.ContentType, "image/")
	if fromName := strings.TrimPrefix(path.Ext(photo.Filename), "."); fromName != "" {
		ext = strings.ToLower(fromName)
	}
	objectName := fmt.Sprintf("user-%s-%d.%s", user.ID.Hex(), s.now().Unix(), ext)

	if err := s.photos.UploadImage(ctx, objectName, photo.Reader, photo.Size, photo.ContentType); err != nil {
		return "", fmt.Errorf("failed to upload photo: %w", err)
	}

	if user.Photo != "" && user.Photo != objectName {
		if err := s.photos.DeleteImage(ctx, user.Photo); err != nil {
			log.Printf("WARN: failed to delete old photo %s: %v", user.Photo, err)
		}
	}
	return objectName, nil
}

func (s *userService) session(user *models.User) (*Session, error) {
	token, err := s.authSvc.SignToken(user.ID.Hex())
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token}, nil
}

func passwordError(err error) error {
	if errors.Is(err, models.ErrPasswordTooShort) || errors.Is(err, models.ErrPasswordMismatch) {
		return common.NewAppErrorf(http.StatusBadRequest, "Invalid input data. %s", err.Error())
	}
	return err
}

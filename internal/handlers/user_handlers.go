package handlers

import (
	"net/http"
	"strings"

	"natours/internal/common"
	"natours/internal/models"
	"natours/internal/services"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson"
)

// UserHandlers handles user-related HTTP requests
type UserHandlers struct {
	users services.UserService
}

func NewUserHandlers(users services.UserService) *UserHandlers {
	return &UserHandlers{users: users}
}

// UpdateUserRequest is the admin update payload. Passwords cannot be changed here.
type UpdateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email" validate:"omitempty,email"`
	Photo *string `json:"photo"`
	Role  *string `json:"role" validate:"omitempty,oneof=user guide lead-guide admin"`
}

func (r *UpdateUserRequest) Messages() map[string]string { return userMessages }

func (r *UpdateUserRequest) Check() error {
	return common.SanitizeHTMLField(r.Name, "name")
}

func (r *UpdateUserRequest) ToUpdate() (bson.M, error) {
	update := bson.M{}
	if r.Name != nil {
		update["name"] = strings.TrimSpace(*r.Name)
	}
	setIf(update, "email", r.Email)
	setIf(update, "photo", r.Photo)
	setIf(update, "role", r.Role)
	return update, nil
}

// UpdateMeRequest accepts JSON or a multipart form with an optional photo file
type UpdateMeRequest struct {
	Name            *string `json:"name" form:"name"`
	Email           *string `json:"email" form:"email" validate:"omitempty,email"`
	Password        string  `json:"password" form:"password"`
	PasswordConfirm string  `json:"passwordConfirm" form:"passwordConfirm"`
}

func (r *UpdateMeRequest) Messages() map[string]string { return userMessages }

// Check keeps password changes on their own route
func (r *UpdateMeRequest) Check() error {
	if r.Password != "" || r.PasswordConfirm != "" {
		return common.NewAppError("This route is not for password update. Please use /updateMyPassword", http.StatusBadRequest)
	}
	return common.SanitizeHTMLField(r.Name, "name")
}

func (h *UserHandlers) GetAllUsers(c echo.Context) error {
	return GetAll[models.User](h.users)(c)
}

func (h *UserHandlers) GetUser(c echo.Context) error {
	return GetOne[models.User](h.users)(c)
}

func (h *UserHandlers) UpdateUser(c echo.Context) error {
	return UpdateOne[models.User, UpdateUserRequest](h.users)(c)
}

func (h *UserHandlers) DeleteUser(c echo.Context) error {
	return DeleteOne[models.User](h.users)(c)
}

// CreateUser points clients to the signup route
func (h *UserHandlers) CreateUser(c echo.Context) error {
	return common.NewAppError("This route not yet defined! Please use /signup instead", http.StatusInternalServerError)
}

// GetMe returns the logged in user
func (h *UserHandlers) GetMe(c echo.Context) error {
	user, ok := common.CurrentUser(c)
	if !ok {
		return common.NewAppError("You are not logged in! Please log in to get access", http.StatusUnauthorized)
	}
	c.SetParamNames("id")
	c.SetParamValues(user.ID.Hex())
	return h.GetUser(c)
}

// UpdateMe changes name, email and photo of the logged in user
func (h *UserHandlers) UpdateMe(c echo.Context) error {
	user, ok := common.CurrentUser(c)
	if !ok {
		return common.NewAppError("You are not logged in! Please log in to get access", http.StatusUnauthorized)
	}

	var req UpdateMeRequest
	if err := bindPayload(c, &req); err != nil {
		return err
	}
	input := services.UpdateMeInput{Name: req.Name, Email: req.Email}

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile("photo")
		if err != nil && err != http.ErrMissingFile {
			return common.WrapAppError(err, "Invalid photo upload", http.StatusBadRequest)
		}
		if fh != nil {
			file, err := fh.Open()
			if err != nil {
				return err
			}
			defer file.Close()

			input.Photo = &services.PhotoUpload{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get(echo.HeaderContentType),
				Size:        fh.Size,
				Reader:      file,
			}
		}
	}

	updated, err := h.users.UpdateMe(c.Request().Context(), user, input)
	if err != nil {
		return notFound(err)
	}
	return common.SendNamed(c, http.StatusOK, "user", updated)
}

// DeleteMe deactivates the logged in user
func (h *UserHandlers) DeleteMe(c echo.Context) error {
	user, ok := common.CurrentUser(c)
	if !ok {
		return common.NewAppError("You are not logged in! Please log in to get access", http.StatusUnauthorized)
	}
	if err := h.users.Deactivate(c.Request().Context(), user); err != nil {
		return notFound(err)
	}
	return common.SendNoContent(c)
}

// GetMyPhoto redirects to a short-lived link to the stored photo
func (h *UserHandlers) GetMyPhoto(c echo.Context) error {
	user, ok := common.CurrentUser(c)
	if !ok {
		return common.NewAppError("You are not logged in! Please log in to get access", http.StatusUnauthorized)
	}
	url, err := h.users.PhotoURL(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, url)
}

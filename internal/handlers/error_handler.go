package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"natours/internal/common"
	"natours/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/mongo"
)

const genericErrorMessage = "Program Error: Something went very wrong"

var quotedValue = regexp.MustCompile(`"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'`)

var jwtInvalid = []error{
	jwt.ErrTokenMalformed,
	jwt.ErrTokenUnverifiable,
	jwt.ErrTokenSignatureInvalid,
	jwt.ErrTokenInvalidClaims,
	jwt.ErrTokenNotValidYet,
	jwt.ErrTokenUsedBeforeIssued,
}

// devError is the verbose error body used outside production
type devError struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// ErrorHandler translates every error returned by handlers and middleware
// into a JSend failure. Unexpected errors are logged and, in production,
// reduced to a generic message.
func ErrorHandler(production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		// group catch-alls answer with echo's bare 404
		if errors.Is(err, echo.ErrNotFound) {
			err = NotFound(c)
		}

		appErr := translate(err)
		if appErr == nil {
			c.Logger().Errorf("ERROR: %v", err)
			appErr = common.WrapAppError(err, genericErrorMessage, http.StatusInternalServerError)
			appErr.IsOperational = false
		}

		var writeErr error
		switch {
		case c.Request().Method == http.MethodHead:
			writeErr = c.NoContent(appErr.StatusCode)
		case production:
			message := appErr.Message
			if !appErr.IsOperational {
				message = genericErrorMessage
			}
			writeErr = common.SendError(c, appErr.StatusCode, message)
		default:
			body := devError{
				Status:  common.StatusFor(appErr.StatusCode),
				Error:   err.Error(),
				Message: appErr.Message,
				Stack:   appErr.Stack,
			}
			writeErr = c.JSON(appErr.StatusCode, body)
		}
		if writeErr != nil {
			c.Logger().Error(writeErr)
		}
	}
}

// NotFound answers every unmatched route
func NotFound(c echo.Context) error {
	return common.NewAppErrorf(http.StatusNotFound, "Can't find %s on this server", c.Request().URL.RequestURI())
}

// translate maps known failures to operational errors. It returns nil for
// anything unexpected.
func translate(err error) *common.AppError {
	if appErr, ok := common.AsAppError(err); ok {
		return appErr
	}

	var castErr *repositories.CastError
	if errors.As(err, &castErr) {
		return common.WrapAppError(err, fmt.Sprintf("Invalid value %s for field %s", castErr.Value, castErr.Path), http.StatusBadRequest)
	}

	if mongo.IsDuplicateKeyError(err) {
		value := quotedValue.FindString(err.Error())
		return common.WrapAppError(err, fmt.Sprintf("Duplicate field value: %s. Please use another field value!", value), http.StatusBadRequest)
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return common.WrapAppError(err, validationText(verrs, nil), http.StatusBadRequest)
	}

	if errors.Is(err, jwt.ErrTokenExpired) {
		return common.WrapAppError(err, "Your token has expired! Please login again", http.StatusUnauthorized)
	}
	for _, target := range jwtInvalid {
		if errors.Is(err, target) {
			return common.WrapAppError(err, "Invalid token. Please try again later", http.StatusUnauthorized)
		}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			if inner := translate(he.Internal); inner != nil {
				return inner
			}
		}
		return common.NewAppError(fmt.Sprint(he.Message), he.Code)
	}

	if errors.Is(err, repositories.ErrNotFound) {
		return common.WrapAppError(err, notFoundMessage, http.StatusNotFound)
	}
	return nil
}

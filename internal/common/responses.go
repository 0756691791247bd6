package common

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Response is the JSend envelope shared by every endpoint
type Response struct {
	Status  string      `json:"status"`
	Results *int        `json:"results,omitempty"`
	Token   string      `json:"token,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// SendData writes {status, data: {data: doc}}
func SendData(c echo.Context, code int, doc interface{}) error {
	return SendNamed(c, code, "data", doc)
}

// SendNamed writes {status, data: {key: value}}
func SendNamed(c echo.Context, code int, key string, value interface{}) error {
	return c.JSON(code, Response{
		Status: StatusSuccess,
		Data:   map[string]interface{}{key: value},
	})
}

// SendList writes {status, results, data: {doc: docs}}
func SendList[T any](c echo.Context, docs []T) error {
	if docs == nil {
		docs = []T{}
	}
	results := len(docs)
	return c.JSON(http.StatusOK, Response{
		Status:  StatusSuccess,
		Results: &results,
		Data:    map[string]interface{}{"doc": docs},
	})
}

// SendNoContent answers deletes with an empty 204
func SendNoContent(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// SendError writes {status, message} and is used by the error handler in production
func SendError(c echo.Context, code int, message string) error {
	return c.JSON(code, Response{
		Status:  StatusFor(code),
		Message: message,
	})
}

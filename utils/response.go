package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ScarletStudies/api/apperrors"
)

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, 200, 0, "success", data)
}

// Created returns a standard success response with a 201 status.
func Created(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusCreated, 0, "success", data)
}

// Error returns a standard error response.
func Error(ctx *gin.Context, status int, code int, message string) {
	Respond(ctx, status, code, message, nil)
}

// ErrorFrom maps a domain error onto the matching HTTP status. Anything not
// classified by apperrors is treated as an internal failure.
func ErrorFrom(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		Error(ctx, http.StatusBadRequest, 40000, err.Error())
	case errors.Is(err, apperrors.ErrAuthentication):
		Error(ctx, http.StatusUnauthorized, 40100, err.Error())
	case errors.Is(err, apperrors.ErrAuthorization):
		Error(ctx, http.StatusForbidden, 40300, err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		Error(ctx, http.StatusNotFound, 40400, err.Error())
	default:
		Error(ctx, http.StatusInternalServerError, 50000, "internal server error")
	}
}

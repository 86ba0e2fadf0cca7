package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/server/http/dto"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// errorTable is checked in order; the first match wins.
var errorTable = []errorMapping{
	{domainErrors.ErrInvalidItem, http.StatusBadRequest, "invalid_item"},
	{domainErrors.ErrInsufficientStock, http.StatusConflict, "insufficient_stock"},
	{domainErrors.ErrNotFound, http.StatusNotFound, "not_found"},
	{domainErrors.ErrNotEligible, http.StatusBadRequest, "not_eligible"},
	{domainErrors.ErrInvalidStatus, http.StatusBadRequest, "invalid_status"},
	{domainErrors.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
	{domainErrors.ErrConflict, http.StatusConflict, "conflict"},
	{domainErrors.ErrAlreadyExists, http.StatusConflict, "already_exists"},
	{domainErrors.ErrInvalidCredentials, http.StatusBadRequest, "invalid_credentials"},
	{domainErrors.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domainErrors.ErrUnavailable, http.StatusServiceUnavailable, "unavailable"},
}

// writeError maps err onto the status table. 4xx answers carry the error text;
// 5xx answers carry a fixed message and the error is attached for the request log.
func writeError(c *gin.Context, err error) {
	for _, m := range errorTable {
		if !errors.Is(err, m.target) {
			continue
		}
		if m.status >= http.StatusInternalServerError {
			_ = c.Error(err)
			c.JSON(m.status, dto.ErrorResponse{Code: m.code, Message: "dependency unavailable, retry later"})
			return
		}
		c.JSON(m.status, dto.ErrorResponse{Code: m.code, Message: err.Error()})
		return
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: "internal_error", Message: "internal server error"})
}

func writeBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: "invalid_request", Message: err.Error()})
}

// writeInvalidItem rejects an item payload that failed to parse or validate.
func writeInvalidItem(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: "invalid_item", Message: err.Error()})
}

package api

import (
	"errors"
	"net/http"

	"communityhub-backend/internal/coordinator"
	"communityhub-backend/internal/gateway"

	"github.com/gin-gonic/gin"
)

// errorStatus maps the gateway and coordinator error classes to HTTP.
func errorStatus(err error) int {
	var vErr *gateway.ValidationError
	switch {
	case errors.As(err, &vErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, gateway.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, coordinator.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, coordinator.ErrNoPendingDelete):
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

func respondError(c *gin.Context, err error) {
	status := errorStatus(err)
	_ = c.Error(err)

	var vErr *gateway.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(status, gin.H{"error": "Please correct the highlighted fields", "fields": vErr.Fields})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

var errBackendDown = errors.New("events service is unreachable")

package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/iyhunko/shopping-list/internal/engine"
	"github.com/iyhunko/shopping-list/internal/preferences"
)

// StoreStatus reports whether a remote store is attached.
type StoreStatus interface {
	Offline() bool
	Loading() bool
}

// Controller handles general HTTP requests.
type Controller struct {
	status StoreStatus
}

// New creates a new Controller.
func New(status StoreStatus) *Controller {
	return &Controller{status: status}
}

// Ping handles the HTTP GET request for health check endpoint.
func (con *Controller) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
		"offline": con.status.Offline(),
		"loading": con.status.Loading(),
	})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product ID"})
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps engine and preference errors to status codes.
// Anything unknown is a store failure and its message is passed on as the alert.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrNameRequired),
		errors.Is(err, engine.ErrInvalidNumber),
		errors.Is(err, preferences.ErrInvalidMargin):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrProductNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrNotConfirmed):
		status = http.StatusPreconditionRequired
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

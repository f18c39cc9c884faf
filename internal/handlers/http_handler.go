package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"usermgr/internal/cache"
	"usermgr/internal/models"
	"usermgr/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthCheck probes one dependency for the /health endpoint.
type HealthCheck func(ctx context.Context) error

type UserHandler struct {
	service *services.UserService
	cache   *cache.CacheManager
	checks  map[string]HealthCheck
	logger  *zap.Logger
}

// NewUserHandler builds the handler. cm and checks may be nil.
func NewUserHandler(service *services.UserService, cm *cache.CacheManager, checks map[string]HealthCheck, logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{
		service: service,
		cache:   cm,
		checks:  checks,
		logger:  logger,
	}
}

func (h *UserHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			deps[name] = "unhealthy: " + err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "healthy"
	}

	body := gin.H{"status": "healthy", "dependencies": deps}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	if h.cache != nil {
		body["cache"] = h.cache.HealthCheck(ctx)
	}
	c.JSON(status, body)
}

func (h *UserHandler) CacheMetrics(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, h.cache.GetMetrics())
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	user, found, err := h.service.GetUserByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to fetch user", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": (&services.NotFoundError{ID: id}).Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req models.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.service.CreateUser(c.Request.Context(), req.ToUser())
	if err != nil {
		h.logger.Error("Failed to create user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req models.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.service.UpdateUser(c.Request.Context(), id, req.ToUser())
	if err != nil {
		h.respondError(c, "Failed to update user", id, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), id); err != nil {
		h.respondError(c, "Failed to delete user", id, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) respondError(c *gin.Context, msg string, id int64, err error) {
	if errors.Is(err, services.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	h.logger.Error(msg, zap.Int64("id", id), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id: " + c.Param("id")})
		return 0, false
	}
	return id, true
}

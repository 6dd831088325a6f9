package webserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/1mt4y/travelbuddy/pkg/models"
	"github.com/1mt4y/travelbuddy/pkg/service"
	"github.com/1mt4y/travelbuddy/pkg/utils"
)

const (
	ctxUserKey       = "user"
	ctxUserIDKey     = "user_id"
	sessionUserIDKey = "user_id"
)

// authMiddleware requires a caller, identified by a Bearer JWT or the
// session cookie.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := s.identify(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, utils.NewErrorResponse(err.Error()))
			c.Abort()
			return
		}
		if userID == "" {
			c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Unauthorized"))
			c.Abort()
			return
		}

		user, err := s.services.Identity.Resolve(c.Request.Context(), userID)
		if err != nil {
			if service.IsKind(err, service.KindAuthentication) {
				s.logger.LogSecurity("user_not_found", userID, c.ClientIP(), nil)
			}
			s.respondError(c, err)
			c.Abort()
			return
		}

		c.Set(ctxUserKey, user)
		c.Set(ctxUserIDKey, user.ID)
		c.Next()
	}
}

// optionalAuthMiddleware attaches the caller when one is present and lets
// anonymous requests through.
func (s *Server) optionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := s.identify(c)
		if err == nil && userID != "" {
			if user, err := s.services.Identity.Resolve(c.Request.Context(), userID); err == nil {
				c.Set(ctxUserKey, user)
				c.Set(ctxUserIDKey, user.ID)
			}
		}
		c.Next()
	}
}

// identify returns the caller id from the Authorization header, falling
// back to the session. An empty id with a nil error means anonymous.
func (s *Server) identify(c *gin.Context) (string, error) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			return "", fmt.Errorf("Invalid authorization header format")
		}

		claims, err := s.jwtManager.ValidateToken(tokenString)
		if err != nil {
			s.logger.LogSecurity("invalid_token", "", c.ClientIP(), map[string]interface{}{
				"error": err.Error(),
			})
			return "", fmt.Errorf("Invalid token")
		}
		return claims.UserID, nil
	}

	session := sessions.Default(c)
	if id, ok := session.Get(sessionUserIDKey).(string); ok {
		return id, nil
	}
	return "", nil
}

// getCurrentUser gets the current user from context
func (s *Server) getCurrentUser(c *gin.Context) (*models.User, error) {
	user, exists := c.Get(ctxUserKey)
	if !exists {
		return nil, fmt.Errorf("user not found in context")
	}

	userModel, ok := user.(*models.User)
	if !ok {
		return nil, fmt.Errorf("invalid user type in context")
	}

	return userModel, nil
}

// viewerID is the caller id, or "" for anonymous requests.
func (s *Server) viewerID(c *gin.Context) string {
	return c.GetString(ctxUserIDKey)
}

// requireUser resolves the caller or writes a 401.
func (s *Server) requireUser(c *gin.Context) (*models.User, bool) {
	user, err := s.getCurrentUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Unauthorized"))
		return nil, false
	}
	return user, true
}

// idParam validates a UUID path parameter.
func (s *Server) idParam(c *gin.Context, name, label string) (string, bool) {
	id := c.Param(name)
	if !s.validator.ValidateID(id) {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse(fmt.Sprintf("Invalid %s ID", label)))
		return "", false
	}
	return id, true
}

// bindJSON decodes the body or writes a 400.
func (s *Server) bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid request data"))
		return false
	}
	return true
}

// respondError maps a service error to its status code. Anything that is
// not a domain error is logged and hidden behind a generic 500.
func (s *Server) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch service.KindOf(err) {
	case service.KindAuthentication:
		status = http.StatusUnauthorized
	case service.KindAuthorization:
		status = http.StatusForbidden
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindValidation, service.KindConflict:
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.logger.WithError(err).WithField("route", c.FullPath()).Error("Request failed")
		c.JSON(status, utils.NewErrorResponse("Internal server error"))
		return
	}

	c.JSON(status, utils.NewErrorResponse(err.Error()))
}

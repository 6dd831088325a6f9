package webserver

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/1mt4y/travelbuddy/pkg/service"
	"github.com/1mt4y/travelbuddy/pkg/utils"
)

// LoginRequest represents the credentials posted to /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleRegister creates an account
func (s *Server) handleRegister(c *gin.Context) {
	var req service.RegisterInput
	if !s.bindJSON(c, &req) {
		return
	}

	profile, err := s.services.Identity.Register(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, utils.NewSuccessResponse(profile, "User registered successfully"))
}

// handleLogin verifies credentials, issues a JWT and opens a cookie session
func (s *Server) handleLogin(c *gin.Context) {
	var req LoginRequest
	if !s.bindJSON(c, &req) {
		return
	}

	user, err := s.services.Identity.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}

	token, err := s.jwtManager.GenerateToken(user.ID, user.Email, user.Name)
	if err != nil {
		s.logger.WithError(err).Error("Failed to generate JWT token")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Internal server error"))
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserIDKey, user.ID)
	if err := session.Save(); err != nil {
		s.logger.WithError(err).Error("Failed to save session")
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Internal server error"))
		return
	}

	profile, err := s.services.Identity.GetProfile(c.Request.Context(), user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(gin.H{
		"token":     token,
		"expiresAt": time.Now().UTC().Add(time.Duration(s.config.Security.JWTExpirationHours) * time.Hour),
		"user":      profile,
	}, "Login successful"))
}

// handleLogout handles user logout
func (s *Server) handleLogout(c *gin.Context) {
	session := sessions.Default(c)
	userID, _ := session.Get(sessionUserIDKey).(string)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		s.logger.WithError(err).Error("Failed to clear session")
	}

	if userID != "" {
		s.logger.LogAuth(userID, "", "logout", true)
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(nil, "Logged out successfully"))
}

// handleMe returns the caller's own profile
func (s *Server) handleMe(c *gin.Context) {
	user, ok := s.requireUser(c)
	if !ok {
		return
	}

	profile, err := s.services.Identity.GetProfile(c.Request.Context(), user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(profile, "User retrieved successfully"))
}

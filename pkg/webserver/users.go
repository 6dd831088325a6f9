package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/1mt4y/travelbuddy/pkg/service"
	"github.com/1mt4y/travelbuddy/pkg/utils"
)

// getProfile returns the caller's own profile
func (s *Server) getProfile(c *gin.Context) {
	s.handleMe(c)
}

// updateProfile replaces the caller's editable profile fields
func (s *Server) updateProfile(c *gin.Context) {
	user, ok := s.requireUser(c)
	if !ok {
		return
	}

	var req service.ProfileInput
	if !s.bindJSON(c, &req) {
		return
	}

	profile, err := s.services.Identity.UpdateProfile(c.Request.Context(), user.ID, req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": user.ID,
	}).Info("Profile updated")

	c.JSON(http.StatusOK, utils.NewSuccessResponse(profile, "Profile updated successfully"))
}

// getUserTrips returns created, joined and pending trips of the caller
func (s *Server) getUserTrips(c *gin.Context) {
	user, ok := s.requireUser(c)
	if !ok {
		return
	}

	trips, err := s.services.Trips.ForUser(c.Request.Context(), user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(trips, "Trips retrieved successfully"))
}

// getPublicProfile shows another traveller without private fields
func (s *Server) getPublicProfile(c *gin.Context) {
	id, ok := s.idParam(c, "id", "user")
	if !ok {
		return
	}

	profile, err := s.services.Identity.PublicProfile(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(profile, "User retrieved successfully"))
}

package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/1mt4y/travelbuddy/pkg/models"
	"github.com/1mt4y/travelbuddy/pkg/service"
	"github.com/1mt4y/travelbuddy/pkg/utils"
)

// ResolveJoinRequestRequest is the body of PUT /join-requests/:id
type ResolveJoinRequestRequest struct {
	Status models.JoinRequestStatus `json:"status"`
}

// resolveJoinRequest accepts or rejects a pending request. Trip creator only.
func (s *Server) resolveJoinRequest(c *gin.Context) {
	user, ok := s.requireUser(c)
	if !ok {
		return
	}

	id, ok := s.idParam(c, "id", "join request")
	if !ok {
		return
	}

	var req ResolveJoinRequestRequest
	if !s.bindJSON(c, &req) {
		return
	}

	resolved, err := s.services.Requests.Resolve(c.Request.Context(), id, user.ID, req.Status)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(resolved, "Join request updated successfully"))
}

// getRequestInbox aggregates the requests received on the caller's trips
func (s *Server) getRequestInbox(c *gin.Context) {
	user, ok := s.requireUser(c)
	if !ok {
		return
	}

	tripID := c.Query("tripId")
	if tripID != "" && !s.validator.ValidateID(tripID) {
		c.JSON(http.StatusBadRequest, utils.NewErrorResponse("Invalid trip ID"))
		return
	}

	inbox, err := s.services.Requests.Inbox(c.Request.Context(), user.ID, service.RequestInboxInput{TripID: tripID})
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(inbox, "Requests retrieved successfully"))
}

func (s *Server) getPendingRequestCount(c *gin.Context) {
	user, ok := s.requireUser(c)
	if !ok {
		return
	}

	count, err := s.services.Requests.PendingReceivedCount(c.Request.Context(), user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(gin.H{"count": count}, "Pending request count retrieved successfully"))
}

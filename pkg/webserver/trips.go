package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/1mt4y/travelbuddy/pkg/service"
	"github.com/1mt4y/travelbuddy/pkg/utils"
)

// JoinTripRequest is the body of POST /trips/:id/join
type JoinTripRequest struct {
	Message string `json:"message"`
}

// getTrips lists OPEN trips, optionally filtered
func (s *Server) getTrips(c *gin.Context) {
	trips, err := s.services.Trips.List(c.Request.Context(), service.ListTripsInput{
		Destination: c.Query("destination"),
		StartDate:   c.Query("startDate"),
		EndDate:     c.Query("endDate"),
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewListResponse(trips, len(trips), "Trips retrieved successfully"))
}

// createTrip creates a trip owned by the caller
func (s *Server) createTrip(c *gin.Context) {
	user, ok := s.requireUser(c)
	if !ok {
		return
	}

	var req service.CreateTripInput
	if !s.bindJSON(c, &req) {
		return
	}

	trip, err := s.services.Trips.Create(c.Request.Context(), user.ID, req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, utils.NewSuccessResponse(trip, "Trip created successfully"))
}

// getTrip returns a trip as seen by the (possibly anonymous) caller
func (s *Server) getTrip(c *gin.Context) {
	id, ok := s.idParam(c, "id", "trip")
	if !ok {
		return
	}

	trip, err := s.services.Trips.Get(c.Request.Context(), id, s.viewerID(c))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(trip, "Trip retrieved successfully"))
}

// updateTrip applies a partial update. Creator only.
func (s *Server) updateTrip(c *gin.Context) {
	user, ok := s.requireUser(c)
	if !ok {
		return
	}

	id, ok := s.idParam(c, "id", "trip")
	if !ok {
		return
	}

	var req service.UpdateTripInput
	if !s.bindJSON(c, &req) {
		return
	}

	trip, err := s.services.Trips.Update(c.Request.Context(), id, user.ID, req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(trip, "Trip updated successfully"))
}

// deleteTrip removes a trip with its requests and roster. Creator only.
func (s *Server) deleteTrip(c *gin.Context) {
	user, ok := s.requireUser(c)
	if !ok {
		return
	}

	id, ok := s.idParam(c, "id", "trip")
	if !ok {
		return
	}

	if err := s.services.Trips.Delete(c.Request.Context(), id, user.ID); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(nil, "Trip deleted successfully"))
}

// joinTrip files a join request for the caller
func (s *Server) joinTrip(c *gin.Context) {
	user, ok := s.requireUser(c)
	if !ok {
		return
	}

	id, ok := s.idParam(c, "id", "trip")
	if !ok {
		return
	}

	var req JoinTripRequest
	if !s.bindJSON(c, &req) {
		return
	}

	joinRequest, err := s.services.Requests.Request(c.Request.Context(), id, user.ID, req.Message)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, utils.NewSuccessResponse(joinRequest, "Join request sent successfully"))
}

// getJoinStatus reports the caller's relationship to a trip
func (s *Server) getJoinStatus(c *gin.Context) {
	user, ok := s.requireUser(c)
	if !ok {
		return
	}

	id, ok := s.idParam(c, "id", "trip")
	if !ok {
		return
	}

	status, err := s.services.Requests.Status(c.Request.Context(), id, user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(status, "Join status retrieved successfully"))
}

// getTripRequests lists a trip's join requests. Creator only.
func (s *Server) getTripRequests(c *gin.Context) {
	user, ok := s.requireUser(c)
	if !ok {
		return
	}

	id, ok := s.idParam(c, "id", "trip")
	if !ok {
		return
	}

	requests, err := s.services.Requests.ListForTrip(c.Request.Context(), id, user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewListResponse(requests, len(requests), "Join requests retrieved successfully"))
}

func (s *Server) getTripRequestCount(c *gin.Context) {
	user, ok := s.requireUser(c)
	if !ok {
		return
	}

	id, ok := s.idParam(c, "id", "trip")
	if !ok {
		return
	}

	count, err := s.services.Requests.PendingCountForTrip(c.Request.Context(), id, user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(gin.H{"count": count}, "Pending request count retrieved successfully"))
}

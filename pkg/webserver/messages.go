package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/1mt4y/travelbuddy/pkg/utils"
)

// SendMessageRequest is the body of POST /messages
type SendMessageRequest struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
}

// getConversations lists one summary per counterpart, most recent first
func (s *Server) getConversations(c *gin.Context) {
	user, ok := s.requireUser(c)
	if !ok {
		return
	}

	conversations, err := s.services.Messaging.Conversations(c.Request.Context(), user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewListResponse(conversations, len(conversations), "Conversations retrieved successfully"))
}

// sendMessage appends a direct message from the caller
func (s *Server) sendMessage(c *gin.Context) {
	user, ok := s.requireUser(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if !s.bindJSON(c, &req) {
		return
	}

	msg, err := s.services.Messaging.Send(c.Request.Context(), user.ID, req.ReceiverID, req.Content)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, utils.NewSuccessResponse(msg, "Message sent successfully"))
}

// getConversation returns the thread with :userId and marks it read.
// ?since=<messageId> limits the result to newer messages.
func (s *Server) getConversation(c *gin.Context) {
	user, ok := s.requireUser(c)
	if !ok {
		return
	}

	otherID, ok := s.idParam(c, "userId", "user")
	if !ok {
		return
	}

	conversation, err := s.services.Messaging.Conversation(c.Request.Context(), user.ID, otherID, c.Query("since"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(conversation, "Conversation retrieved successfully"))
}

func (s *Server) markConversationRead(c *gin.Context) {
	user, ok := s.requireUser(c)
	if !ok {
		return
	}

	otherID, ok := s.idParam(c, "userId", "user")
	if !ok {
		return
	}

	updated, err := s.services.Messaging.MarkRead(c.Request.Context(), user.ID, otherID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(gin.H{"updated": updated}, "Messages marked as read"))
}

func (s *Server) getUnreadCount(c *gin.Context) {
	user, ok := s.requireUser(c)
	if !ok {
		return
	}

	count, err := s.services.Messaging.UnreadCount(c.Request.Context(), user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(gin.H{"count": count}, "Unread count retrieved successfully"))
}

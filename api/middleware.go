package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/judgegodwins/pericon-server/http_utils"
)

// TicketMiddleware checks the ticket handed out by the matchmaker. Without
// REQUIRE_TICKET a missing ticket is let through, but a bad one never is.
func (s *Server) TicketMiddleware(c *gin.Context) {
	ticket := c.Query("ticket")

	if ticket == "" && !s.config.RequireTicket {
		c.Next()
		return
	}

	if ticket == "" {
		c.JSON(http.StatusUnauthorized, http_utils.ErrorResponse("ticket required"))
		c.Abort()
		return
	}

	payload, err := s.tokenMaker.VerifyToken(ticket)
	if err != nil {
		c.JSON(http.StatusUnauthorized, http_utils.ErrorResponse("invalid ticket"))
		c.Abort()
		return
	}

	if payload.RoomID != c.Param("room_name") {
		c.JSON(http.StatusUnauthorized, http_utils.ErrorResponse("ticket is for another room"))
		c.Abort()
		return
	}

	c.Next()
}

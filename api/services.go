package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/judgegodwins/pericon-server/http_utils"
	"github.com/judgegodwins/pericon-server/store"
)

type checkRoomRequest struct {
	RoomID string `uri:"id" binding:"required,alphanum,max=32"`
}

type roomSummary struct {
	ID       string   `json:"id"`
	Players  []string `json:"players"`
	Full     bool     `json:"full"`
	Round    int      `json:"round"`
	Finished bool     `json:"finished"`
}

func (s *Server) CheckRoom(c *gin.Context) {
	var data checkRoomRequest

	if err := c.ShouldBindUri(&data); err != nil {
		c.JSON(http.StatusUnprocessableEntity, http_utils.ValidationResponse(err))
		return
	}

	room, err := s.game.Room(c.Request.Context(), data.RoomID)

	if errors.Is(err, store.ErrRoomNotFound) {
		c.JSON(http.StatusNotFound, http_utils.ErrorResponse("room not found"))
		return
	}

	if err != nil {
		log.Println("error getting room data:", err)
		c.JSON(http.StatusInternalServerError, http_utils.ErrorResponse(http_utils.ErrorMessage500))
		return
	}

	c.JSON(http.StatusOK, http_utils.SuccessResponse("room data", roomSummary{
		ID:       room.ID,
		Players:  room.Names(),
		Full:     room.IsFull(),
		Round:    room.Round,
		Finished: room.Finished,
	}))
}

func (s *Server) Healthz(c *gin.Context) {
	if s.rdb != nil {
		if err := s.rdb.Ping(c.Request.Context()).Err(); err != nil {
			log.Println("redis ping failed:", err)
			c.JSON(http.StatusServiceUnavailable, http_utils.ErrorResponse("redis unavailable"))
			return
		}
	}

	c.JSON(http.StatusOK, http_utils.NewBaseResponse(true, "ok"))
}

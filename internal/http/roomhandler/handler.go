package roomhandler

import (
	"errors"
	"net/http"
	"sort"

	"repcount/internal/services/results"
	"repcount/internal/ws"

	"github.com/gin-gonic/gin"
)

var ErrRoomNotFound = errors.New("room not found")

type Handler struct {
	hub *ws.Hub
	svc results.IResultsService
}

func New(hub *ws.Hub, svc results.IResultsService) *Handler {
	return &Handler{hub: hub, svc: svc}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/rooms", h.list)
	r.GET("/rooms/:code", h.info)
	r.GET("/rooms/:code/results", h.roundResults)
}

// @Summary		List live rooms
// @Description	Rooms that currently have at least one player.
// @Tags			Rooms
// @Success		200	{array}	RoomSummary
// @Router			/rooms [get]
func (h *Handler) list(c *gin.Context) {
	out := make([]RoomSummary, 0)
	h.hub.Range(func(r *ws.Room) bool {
		snap := r.Snapshot()
		if len(snap.Players) == 0 {
			return true
		}
		out = append(out, RoomSummary{
			Room:    snap.Room,
			Target:  snap.Target,
			Players: len(snap.Players),
			Winner:  snap.Winner,
		})
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Room < out[j].Room })
	c.JSON(http.StatusOK, out)
}

// @Summary		Get room state
// @Description	Returns the live leaderboard, target and winner of a room.
// @Tags			Rooms
// @Param			code	path		string	true	"Room code"	default(GYM1)
// @Success		200		{object}	RoomState
// @Failure		404		{object}	ErrorResponse
// @Router			/rooms/{code} [get]
func (h *Handler) info(c *gin.Context) {
	r, ok := h.hub.Lookup(c.Param("code"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: ErrRoomNotFound.Error()})
		return
	}
	snap := r.Snapshot()
	c.JSON(http.StatusOK, RoomState{
		Room:    snap.Room,
		Target:  snap.Target,
		Winner:  snap.Winner,
		Players: snap.Players,
	})
}

// @Summary		List decided rounds
// @Description	Persisted round results of a room, newest first.
// @Tags			Rooms
// @Param			code	path		string	true	"Room code"				default(GYM1)
// @Param			limit	query		int		false	"Max results (0‑100)"	minimum(0)	maximum(100)	default(10)
// @Param			offset	query		int		false	"Offset for pagination"	minimum(0)	default(0)
// @Success		200		{array}		results.RoundResult
// @Failure		400		{object}	ErrorResponse
// @Failure		500		{object}	ErrorResponse
// @Router			/rooms/{code}/results [get]
func (h *Handler) roundResults(c *gin.Context) {
	var q ListResultsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	out, err := h.svc.ListResults(c.Request.Context(), ws.NormalizeCode(c.Param("code")), q.Limit, q.Offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

package roomhandler

import "repcount/internal/ws"

type RoomSummary struct {
	Room    string       `json:"room"    example:"GYM1"`
	Target  int          `json:"target"  example:"5"`
	Players int          `json:"players" example:"3"`
	Winner  *ws.Standing `json:"winner,omitempty"`
} // @name RoomSummary

type RoomState struct {
	Room    string        `json:"room"   example:"GYM1"`
	Target  int           `json:"target" example:"5"`
	Winner  *ws.Standing  `json:"winner,omitempty"`
	Players []ws.Standing `json:"players"`
} // @name RoomState

type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse

type ListResultsQuery struct {
	Limit  int `form:"limit,default=10"  binding:"gte=0,lte=100"`
	Offset int `form:"offset,default=0"  binding:"gte=0"`
} // @name ListResultsQuery

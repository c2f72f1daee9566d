package ws

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const DefaultPlayerName = "Player"

type Player struct {
	ID       string
	Name     string
	Count    int
	LastSeen time.Time

	conn Conn
}

// Standing is the public {id, name, count} view of a player.
type Standing struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func (p *Player) standing() Standing {
	return Standing{ID: p.ID, Name: p.Name, Count: p.Count}
}

func newPlayerID() string {
	return uuid.NewString()[:8]
}

// NormalizeCode upper-cases a room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeName falls back to DefaultPlayerName and keeps at most maxLen runes.
func NormalizeName(name string, maxLen int) string {
	if name == "" {
		return DefaultPlayerName
	}
	if utf8.RuneCountInString(name) <= maxLen {
		return name
	}
	return string([]rune(name)[:maxLen])
}

package websocket

import (
	"encoding/json"
	"time"
)

// EventType names what happened to a reader's rewards.
type EventType string

const (
	TypePointsAwarded      EventType = "points_awarded"      // sent to the user who earned points
	TypeLevelUp            EventType = "level_up"            // sent to the user who crossed a level
	TypeLeaderboardChanged EventType = "leaderboard_changed" // sent to every subscriber
	TypeSystem             EventType = "system"
)

// Event is the JSON frame pushed to feed subscribers.
type Event struct {
	Type      EventType `json:"type"`
	UserID    string    `json:"user_id,omitempty"`
	Amount    int       `json:"amount,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Points    int       `json:"points,omitempty"`
	Level     int       `json:"level,omitempty"`
	Content   string    `json:"content,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSystemEvent(content string) *Event {
	return &Event{Type: TypeSystem, Content: content, Timestamp: time.Now().UTC()}
}

// ToJSON marshals the event for the wire.
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON is used by clients reading the feed.
func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

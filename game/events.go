package game

// Outbound message types.
const (
	EventRoundCards       = "round cards"
	EventMiddleCard       = "middle card"
	EventTurnPlayedCards  = "turn played cards"
	EventRoundPlayedCards = "round played cards"
	EventTurnWinner       = "turn winner"
	EventRoundWinner      = "round winner"
	EventGameWinner       = "game winner"
	EventPoints           = "points"
	EventUsernames        = "usernames"
	EventError            = "error"
)

// Draw is the winner value of a tied turn or round.
const Draw = "draw"

// Recipient selects who an Event is delivered to.
type Recipient int

const (
	// Sender is the connection whose message produced the event.
	Sender Recipient = iota
	// Room is every connection in the room's group.
	Room
)

// Event is one outbound message produced by a game operation.
type Event struct {
	To    Recipient
	Type  string
	Value any
}

// Outcome is what a transport must do after an operation commits: deliver
// Events in order, then drop the whole room if DisconnectRoom is set.
type Outcome struct {
	Events         []Event
	DisconnectRoom bool
}

func (o *Outcome) toSender(evtType string, value any) {
	o.Events = append(o.Events, Event{To: Sender, Type: evtType, Value: value})
}

func (o *Outcome) toRoom(evtType string, value any) {
	o.Events = append(o.Events, Event{To: Room, Type: evtType, Value: value})
}

// Types lists the event types in delivery order.
func (o *Outcome) Types() []string {
	types := make([]string, len(o.Events))
	for i, e := range o.Events {
		types[i] = e.Type
	}
	return types
}

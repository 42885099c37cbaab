package relay

// EventType discriminates normalized stream events.
type EventType string

const (
	EventContent EventType = "content"
	EventError   EventType = "error"
	EventDone    EventType = "done"
)

// Event is one normalized chunk of an upstream event stream. Exactly one of
// Delta or Message is meaningful depending on Type; a stream ends with a
// single done or error event, or with no terminal event at all when the
// caller cancelled.
type Event struct {
	Type    EventType
	Delta   string
	Message string
}

func contentEvent(delta string) Event {
	return Event{Type: EventContent, Delta: delta}
}

func errorEvent(message string) Event {
	return Event{Type: EventError, Message: message}
}

func doneEvent() Event {
	return Event{Type: EventDone}
}

package showroom

type EventType int

const (
	EventEngineStarted EventType = iota
	EventEngineStopped
	EventRevStart
	EventRevEnd
	EventBurst
	EventReady
)

type Event struct {
	Type EventType
	At   float64 // seconds since the window opened
	Data int     // e.g. the flash index for a burst
}

type EventHandler func(Event)

type EventBus struct {
	handlers map[EventType][]EventHandler
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]EventHandler),
	}
}

func (eb *EventBus) Subscribe(t EventType, fn EventHandler) {
	eb.handlers[t] = append(eb.handlers[t], fn)
}

func (eb *EventBus) Emit(e Event) {
	for _, fn := range eb.handlers[e.Type] {
		fn(e)
	}
}

package events

// Handler processes the event types it declares.
type Handler interface {
	Handles() []string
	// Handle must be idempotent; events may be redelivered.
	Handle(event Event) error
}

// Publisher is the publishing side of the Bus.
type Publisher interface {
	Publish(event Event)
}

package publisher

// Publisher represents a service for fanning new listings out to
// downstream consumers
type Publisher interface {
	// Publish publishes a message keyed by the source it came from
	Publish(source string, message []byte) error

	// Close closes the publisher connection
	Close() error
}

// Noop is a Publisher that discards everything. It is used when no
// Redis address is configured.
type Noop struct{}

// Publish discards the message
func (Noop) Publish(source string, message []byte) error { return nil }

// Close does nothing
func (Noop) Close() error { return nil }

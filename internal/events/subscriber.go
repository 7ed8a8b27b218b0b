package events

// Subscriber receives event notifications from the broadcast bus.
type Subscriber interface {
	// Subscribe delivers raw notification payloads on the returned channel.
	// Call the returned cancel function to unsubscribe and close the channel.
	Subscribe(topic string) (<-chan []byte, func(), error)
	Close() error
}

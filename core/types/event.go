package types

// Event is the raw structured record appended to the host's event log.
type Event struct {
	Type       string
	Attributes map[string]string
}

package outbox

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType (event per topic).
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// Event types emitted by the portal.
const (
	EventBookingCreated  = "portal.booking.created.v1"
	EventPaymentRecorded = "portal.payment.recorded.v1"
	EventUserPromoted    = "portal.user.promoted.v1"
)

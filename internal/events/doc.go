// Package events carries task lifecycle events from the service layer to
// whoever wants them.
//
// The service emits a TaskEvent after every successful write. The in-memory
// emitter fans it out to registered handlers; PublishingHandler forwards
// events to a RabbitMQ topic exchange behind a circuit breaker.
package events

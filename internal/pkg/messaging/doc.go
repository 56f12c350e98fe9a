// Package messaging provides a broker-agnostic publisher for domain events.
//
// The service only produces events (call placed, verification result);
// consumers live in other systems, so no consume side is exposed here.
// Implementations wrap NATS and Kafka behind one small interface.
package messaging

package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

// Message wraps a job with its broker delivery so consumers can ack or nack
type Message struct {
	job      *Job
	delivery amqp.Delivery
}

// Job returns the decoded job
func (m *Message) Job() *Job {
	return m.job
}

// Ack acknowledges the message
func (m *Message) Ack() error {
	return m.delivery.Ack(false)
}

// Nack negatively acknowledges the message. requeue=false routes the
// message to the dead letter queue.
func (m *Message) Nack(requeue bool) error {
	return m.delivery.Nack(false, requeue)
}

/*
Package rabbitmq provides a RabbitMQ adapter for the destination publisher.
Queues are addressed through the default exchange, topics through an exchange of the
same name. Resolution uses passive declares; each session owns its own confirm-mode AMQP
channel on top of an auto-reconnecting connection, and every send waits for the
broker's confirmation.
*/
package rabbitmq

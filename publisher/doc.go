/*
Package publisher sends fixed batches of text messages to an ordered set of resolved
destinations. Each destination is attempted independently: a failing send stops the
batch for that destination only, is reported through a Sink and never aborts the pass.
*/
package publisher

// Package channel provides generic channel interfaces so producers and
// the worker pool agree only on element types, not buffering.
package channel

// Receiver provides read access to a channel. Len reports buffered
// elements, which the progress monitor samples as backlog.
type Receiver[T any] interface {
	Receive() <-chan T
	Len() int
}

// Sender provides write access to a channel.
type Sender[T any] interface {
	Send(T)
}

// Channel combines read and write access. The feeding side calls Close
// when the batch is fully submitted.
type Channel[T any] interface {
	Receiver[T]
	Sender[T]
	Close()
}

package channel

// Chan adapts a native Go channel to the Channel interface. Buffering is
// fixed at construction; an unbuffered Chan makes every Send a handoff.
type Chan[T any] struct {
	ch chan T
}

// NewBuffered returns a Chan that lets producers run ahead of consumers
// by up to size elements.
func NewBuffered[T any](size int) *Chan[T] {
	return &Chan[T]{ch: make(chan T, size)}
}

// NewUnbuffered returns a Chan whose sends block until received.
func NewUnbuffered[T any]() *Chan[T] {
	return &Chan[T]{ch: make(chan T)}
}

// Send delivers v, blocking while the buffer is full.
func (c *Chan[T]) Send(v T) {
	c.ch <- v
}

// Receive exposes the receiving side for range loops and selects.
func (c *Chan[T]) Receive() <-chan T {
	return c.ch
}

// Len reports how many elements sit in the buffer right now.
func (c *Chan[T]) Len() int {
	return len(c.ch)
}

// Close marks the sending side done.
func (c *Chan[T]) Close() {
	close(c.ch)
}

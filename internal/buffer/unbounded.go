// Package buffer provides an unbounded FIFO used to decouple event
// producers from stream consumers.
package buffer

import "sync"

// Unbounded is a FIFO queue with non-blocking sends and unlimited
// capacity. Producers never wait on consumers: Send appends under a
// mutex and a background goroutine forwards queued items to the
// receive channel in order.
//
//	buf := buffer.NewUnbounded[string]()
//	go func() {
//	    for item := range buf.Receive() {
//	        handle(item)
//	    }
//	}()
//	buf.Send("a") // never blocks
//	buf.Close()   // receive channel closes once drained
type Unbounded[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []T
	head   int
	closed bool

	out chan T
}

// NewUnbounded creates an empty buffer and starts its forwarding
// goroutine. The goroutine exits after Close once the queue is empty.
func NewUnbounded[T any]() *Unbounded[T] {
	b := &Unbounded[T]{
		queue: make([]T, 0, 16),
		out:   make(chan T, 1),
	}
	b.cond = sync.NewCond(&b.mu)
	go b.forward()
	return b
}

// Send enqueues an item. It never blocks and is safe from any
// goroutine. Items sent after Close are dropped.
func (b *Unbounded[T]) Send(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.queue = append(b.queue, item)
	b.cond.Signal()
}

// Receive returns the channel items are delivered on, in send order.
// The channel closes after Close once all queued items have been
// delivered.
func (b *Unbounded[T]) Receive() <-chan T {
	return b.out
}

// Close stops the buffer. Pending items are still delivered; further
// Sends are dropped. Safe to call more than once.
func (b *Unbounded[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.cond.Signal()
}

// Drain discards items in the background until the receive channel
// closes. Use it when abandoning a buffer so the forwarding goroutine
// is not left blocked on a consumer that went away.
func (b *Unbounded[T]) Drain() {
	go func() {
		for range b.out {
		}
	}()
}

// Len reports the number of items queued but not yet handed to the
// forwarding goroutine.
func (b *Unbounded[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue) - b.head
}

// forward moves items from the queue to the output channel. The send
// on out may block on a slow consumer; the queue keeps absorbing
// producer items in the meantime.
func (b *Unbounded[T]) forward() {
	for {
		item, ok := b.next()
		if !ok {
			close(b.out)
			return
		}
		b.out <- item
	}
}

// next blocks until an item is available or the buffer is closed and
// empty. The head index avoids reslicing on every dequeue; the
// backing array is recycled once fully consumed.
func (b *Unbounded[T]) next() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for len(b.queue) == b.head && !b.closed {
		b.cond.Wait()
	}
	if len(b.queue) == b.head {
		var zero T
		return zero, false
	}

	item := b.queue[b.head]
	var zero T
	b.queue[b.head] = zero
	b.head++
	if b.head == len(b.queue) {
		b.queue = b.queue[:0]
		b.head = 0
	}
	return item, true
}

package stream

// Ring is a fixed-capacity FIFO. Pushing into a full ring drops the oldest element.
// Ring is not safe for concurrent use; the Handler serialises access.
type Ring[T any] struct {
	data  []T
	head  int // next write position
	count int
}

// NewRing creates a ring holding at most capacity elements.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring[T]{data: make([]T, capacity)}
}

// Push appends v, evicting the oldest element when full.
func (r *Ring[T]) Push(v T) {
	r.data[r.head] = v
	r.head = (r.head + 1) % len(r.data)
	if r.count < len(r.data) {
		r.count++
	}
}

func (r *Ring[T]) Len() int { return r.count }

func (r *Ring[T]) Cap() int { return len(r.data) }

// Last returns the newest element.
func (r *Ring[T]) Last() (T, bool) {
	var zero T
	if r.count == 0 {
		return zero, false
	}
	return r.data[(r.head-1+len(r.data))%len(r.data)], true
}

// Tail returns a copy of the newest n elements, oldest first.
func (r *Ring[T]) Tail(n int) []T {
	if n > r.count {
		n = r.count
	}
	if n <= 0 {
		return nil
	}
	out := make([]T, n)
	start := (r.head - n + len(r.data)) % len(r.data)
	for i := 0; i < n; i++ {
		out[i] = r.data[(start+i)%len(r.data)]
	}
	return out
}

// Values returns a copy of every element, oldest first.
func (r *Ring[T]) Values() []T { return r.Tail(r.count) }

// Each calls fn for every element, oldest first, without copying.
func (r *Ring[T]) Each(fn func(T)) {
	start := (r.head - r.count + len(r.data)) % len(r.data)
	for i := 0; i < r.count; i++ {
		fn(r.data[(start+i)%len(r.data)])
	}
}

// Clear drops every element and keeps the capacity.
func (r *Ring[T]) Clear() {
	var zero T
	for i := range r.data {
		r.data[i] = zero
	}
	r.head = 0
	r.count = 0
}

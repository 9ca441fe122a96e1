package logging

import (
	"bytes"
	"sync"
)

// DefaultQueueLimit bounds the number of complete lines a Queue retains.
const DefaultQueueLimit = 1000

// Queue is an io.Writer that splits writes into lines and buffers them until
// a consumer drains them. It is safe for concurrent use, so worker goroutines
// can write while an interactive front-end periodically drains.
type Queue struct {
	mu      sync.Mutex
	partial []byte
	lines   []string
	limit   int
	dropped int
}

// NewQueue returns a Queue keeping at most limit pending lines. A
// non-positive limit uses DefaultQueueLimit.
func NewQueue(limit int) *Queue {
	if limit <= 0 {
		limit = DefaultQueueLimit
	}

	return &Queue{limit: limit}
}

// Write implements io.Writer. Incomplete trailing text is held until the
// next newline arrives.
func (q *Queue) Write(p []byte) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.partial = append(q.partial, p...)

	for {
		i := bytes.IndexByte(q.partial, '\n')
		if i < 0 {
			break
		}

		q.push(string(bytes.TrimRight(q.partial[:i], "\r")))
		q.partial = q.partial[i+1:]
	}

	return len(p), nil
}

// push appends a line, discarding the oldest when the queue is full.
func (q *Queue) push(line string) {
	if len(q.lines) >= q.limit {
		q.lines = q.lines[1:]
		q.dropped++
	}

	q.lines = append(q.lines, line)
}

// Drain returns all complete lines written since the last call and empties
// the queue.
func (q *Queue) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.lines) == 0 {
		return nil
	}

	out := q.lines
	q.lines = nil

	return out
}

// Flush moves any incomplete trailing text into the queue as a line.
func (q *Queue) Flush() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.partial) > 0 {
		q.push(string(q.partial))
		q.partial = nil
	}
}

// Dropped reports how many lines were discarded because the queue was full.
func (q *Queue) Dropped() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.dropped
}

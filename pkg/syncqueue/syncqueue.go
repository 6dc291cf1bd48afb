// Package syncqueue coalesces successive partial mutations into a single
// debounced outbound payload. A later enqueue of the same collection key
// supersedes the earlier pending one, so at flush time the payload carries
// only the latest full collections.
//
// Replication is fire-and-forget: a failed push degrades the storage mode
// to "local" and drops the payload without scheduling a retry. The next
// mutation's enqueue is what eventually pushes the latest state. The
// debounce window does not serialize overlapping flushes either; if it is
// shorter than network latency two requests can be in flight at once and
// the last response processed wins.
package syncqueue

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/skcglow/glowpos/pkg/client"
	"github.com/skcglow/glowpos/pkg/models"
)

// DefaultDebounce is the fixed delay after the last mutation before a
// batched sync request is sent.
const DefaultDebounce = 250 * time.Millisecond

// Mode is the client-visible storage mode flag.
type Mode string

const (
	// ModeLocal means the last push failed; only local state is current.
	ModeLocal Mode = "local"
	// ModeRemote means the last successful sync reached the backend.
	ModeRemote Mode = "remote"
	// ModeMemory means the server accepted the push but held it only in its
	// in-process fallback.
	ModeMemory Mode = "memory"
)

// Pusher is the outbound half of the gateway, abstracted for tests.
type Pusher interface {
	Push(ctx context.Context, partial models.Partial) (*client.Response, error)
}

// Queue holds the pending payload and the debounce timer.
type Queue struct {
	mu       sync.Mutex
	pending  models.Partial
	timer    *time.Timer
	debounce time.Duration
	pusher   Pusher
	mode     Mode
	onDoc    func(models.Document, Mode)
	log      zerolog.Logger
}

// New creates a queue around the pusher. A non-positive debounce falls back
// to DefaultDebounce.
func New(pusher Pusher, debounce time.Duration, log zerolog.Logger) *Queue {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Queue{
		debounce: debounce,
		pusher:   pusher,
		mode:     ModeLocal,
		log:      log.With().Str("component", "syncqueue").Logger(),
	}
}

// OnDocument registers the reconcile callback invoked with the merged
// document after each successful push. Responses may arrive out of order;
// the last one processed wins.
func (q *Queue) OnDocument(fn func(models.Document, Mode)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onDoc = fn
}

// Mode returns the current storage mode flag.
func (q *Queue) Mode() Mode {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.mode
}

// Enqueue merges the partial into the pending payload and restarts the
// debounce timer.
func (q *Queue) Enqueue(partial models.Partial) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.pending.Merge(partial)

	if q.timer != nil {
		q.timer.Stop()
	}
	q.timer = time.AfterFunc(q.debounce, func() {
		q.Flush(context.Background())
	})
}

// Flush pushes the pending payload now, if any. It is called by the timer
// on expiry and may be called directly before shutdown.
func (q *Queue) Flush(ctx context.Context) {
	q.mu.Lock()
	captured := q.pending
	q.pending = models.Partial{}
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
	q.mu.Unlock()

	if captured.Empty() {
		return
	}

	resp, err := q.pusher.Push(ctx, captured)
	if err != nil {
		// Deliberately no requeue: the payload is dropped and the next
		// mutation carries the latest state instead.
		q.log.Warn().Err(err).Msg("sync push failed, staying local")
		q.setMode(ModeLocal, nil)
		return
	}

	mode := ModeRemote
	if resp.Storage == string(ModeMemory) {
		mode = ModeMemory
	}
	q.setMode(mode, &resp.Data)
}

func (q *Queue) setMode(mode Mode, doc *models.Document) {
	q.mu.Lock()
	q.mode = mode
	onDoc := q.onDoc
	q.mu.Unlock()

	if doc != nil && onDoc != nil {
		onDoc(*doc, mode)
	}
}

package coalesce

import (
	"context"
	"errors"
	"github.com/go-kit/log"
	"muni-form-assist/domain"
	"sync"
	"time"
)

// SearchFunc looks suggestions up for a term.
// Implementations must honour ctx cancellation and be concurrency-safe.
type SearchFunc func(ctx context.Context, term string) ([]domain.Suggestion, error)

// Result the answer to the latest submitted term
type Result struct {
	Term        string
	Suggestions []domain.Suggestion
	Err         error
}

// Coalescer turns a burst of submitted terms into a single search for the
// last one. A submission restarts the debounce delay and cancels any search
// still in flight, so only the answer for the latest term is ever delivered.
type Coalescer struct {
	// search to look terms up
	search SearchFunc

	// delay how long a term must stay unchanged before it is searched
	delay time.Duration

	logger log.Logger

	// ctx is the parent of every search and is cancelled by Close
	ctx    context.Context
	cancel context.CancelFunc

	// lock guards everything below
	lock sync.Mutex

	// seq numbers submissions; a result is delivered only when its seq is still current
	seq uint64

	timer    *time.Timer
	inflight context.CancelFunc
	closed   bool

	results chan Result
}

// New constructs a Coalescer
func New(search SearchFunc, delay time.Duration, logger log.Logger) *Coalescer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coalescer{
		search:  search,
		delay:   delay,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		results: make(chan Result, 1),
	}
}

// Results delivers the answer to the latest term. The channel holds at most
// one result; an unread result is replaced by a newer one.
func (c *Coalescer) Results() <-chan Result {
	return c.results
}

// Submit schedules a search for term, superseding every earlier submission
func (c *Coalescer) Submit(term string) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.closed {
		return
	}

	c.seq++
	seq := c.seq
	c.stop()

	// an unread answer to an earlier term is stale now
	select {
	case <-c.results:
	default:
	}

	c.timer = time.AfterFunc(c.delay, func() { c.start(seq, term) })
}

// Close cancels any pending or in-flight search and closes Results
func (c *Coalescer) Close() {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.seq++
	c.stop()
	c.cancel()
	close(c.results)
}

// stop the pending timer and the in-flight search. Must hold lock.
func (c *Coalescer) stop() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.inflight != nil {
		c.inflight()
		c.inflight = nil
	}
}

// start runs the search for seq once its delay elapsed
func (c *Coalescer) start(seq uint64, term string) {
	c.lock.Lock()
	if seq != c.seq {
		c.lock.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.inflight = cancel
	c.timer = nil
	c.lock.Unlock()

	c.logger.Log("msg", "searching", "term", term, "seq", seq)
	suggestions, err := c.search(ctx, term)
	cancel()

	c.deliver(seq, Result{Term: term, Suggestions: suggestions, Err: err})
}

// deliver publishes r unless a later submission superseded it
func (c *Coalescer) deliver(seq uint64, r Result) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if seq != c.seq || c.closed {
		c.logger.Log("msg", "dropping superseded result", "term", r.Term, "seq", seq)
		return
	}
	c.inflight = nil
	if errors.Is(r.Err, context.Canceled) {
		return
	}

	// replace an unread result rather than block
	select {
	case <-c.results:
	default:
	}
	c.results <- r
}

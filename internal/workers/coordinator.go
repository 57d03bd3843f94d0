// Package workers coordinates a fixed pool of goroutines: atomic range
// claiming over an index space, and a reusable counting barrier.
package workers

import (
	"sync"
	"sync/atomic"
	"time"
)

// counter is padded to its own cache line so tasks claimed by different
// workers do not false-share.
type counter struct {
	next atomic.Int64
	_    [56]byte
}

// Coordinator is shared by every worker of a pool.
type Coordinator struct {
	mu      sync.Mutex
	cond    *sync.Cond
	arrived int
	gen     uint64
	// abortedGen is gen+1 of the last round that ended by timeout.
	abortedGen uint64
	stopped    bool

	counters []counter
	timeouts atomic.Int64
}

// New creates a coordinator with independent claim counters for task ids
// [0, tasks).
func New(tasks int) *Coordinator {
	if tasks < 1 {
		tasks = 1
	}
	c := &Coordinator{counters: make([]counter, tasks)}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// PrepNewWorkLoop rewinds every task counter. It must run, with no worker
// claiming, before a task id is reused; a stale counter hands out no work.
func (c *Coordinator) PrepNewWorkLoop() {
	for i := range c.counters {
		c.counters[i].next.Store(0)
	}
}

// ResetTask rewinds a single task counter.
func (c *Coordinator) ResetTask(taskID int) {
	c.counters[taskID].next.Store(0)
}

// LoadRepartition claims [start, start+chunk) ranges of [0, total) from the
// task's counter and calls fn for each, until the range is exhausted. Every
// worker of the pool calls it with the same arguments; together they cover
// each index exactly once.
func (c *Coordinator) LoadRepartition(taskID, total, chunk int, fn func(start, end int)) {
	if chunk < 1 {
		chunk = 1
	}
	ctr := &c.counters[taskID].next
	step := int64(chunk)
	for {
		start := int(ctr.Add(step) - step)
		if start >= total {
			return
		}
		end := start + chunk
		if end > total {
			end = total
		}
		fn(start, end)
	}
}

// Synchronize blocks until n callers have arrived in the current round.
//
// The first caller of a round runs leader before anyone can be released; the
// caller completing the round runs trailer, then releases everyone. Both
// callbacks run with the barrier lock held and must not call back into the
// coordinator's barrier.
//
// A caller still waiting after timeout ends the round: the arrival count is
// reset for the next round and every waiter of the aborted round returns
// false. timeout <= 0 waits without limit. Synchronize also returns false
// once Stop has been called.
func (c *Coordinator) Synchronize(n int, timeout time.Duration, leader, trailer func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return false
	}
	gen := c.gen
	c.arrived++
	if c.arrived == 1 && leader != nil {
		leader()
	}
	if c.arrived >= n {
		if trailer != nil {
			trailer()
		}
		c.advance(false)
		return true
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
		timer := time.AfterFunc(timeout, func() {
			c.mu.Lock()
			c.cond.Broadcast()
			c.mu.Unlock()
		})
		defer timer.Stop()
	}

	for c.gen == gen && !c.stopped {
		if timeout > 0 && !time.Now().Before(deadline) {
			c.timeouts.Add(1)
			c.advance(true)
			return false
		}
		c.cond.Wait()
	}
	if c.gen == gen {
		// Stopped before the round completed.
		return false
	}
	return c.abortedGen != gen+1
}

// advance closes the current round. Caller holds mu.
func (c *Coordinator) advance(aborted bool) {
	if aborted {
		c.abortedGen = c.gen + 1
	}
	c.arrived = 0
	c.gen++
	c.cond.Broadcast()
}

// Stop releases every waiter and makes further Synchronize calls return
// false immediately.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.cond.Broadcast()
	c.mu.Unlock()
}

// Reset re-arms a stopped coordinator for a new pool.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	c.stopped = false
	c.arrived = 0
	c.gen++
	c.mu.Unlock()
	c.PrepNewWorkLoop()
}

// Timeouts returns how many rounds were ended by a timeout.
func (c *Coordinator) Timeouts() int64 {
	return c.timeouts.Load()
}

// SPDX-License-Identifier: GPL-3.0-or-later
package sync

import (
	"fmt"
	"sync"

	"github.com/mailsmith/go-mail-sync/cache"
	"github.com/mailsmith/go-mail-sync/domain"
	"github.com/mailsmith/go-mail-sync/log"

	"github.com/sirupsen/logrus"
)

const DefaultPoolSize = 8

// Builders bundles the factories a worker uses to build its own connection
// set: the two live backends plus one private cache store on the shared
// database file. Nothing produced by a builder is ever shared between
// workers.
type Builders struct {
	Left  domain.BackendBuilder
	Right domain.BackendBuilder
	Cache func() (*cache.Store, error)
}

// Event is one progress notification: a hunk was attempted, with its
// outcome.
type Event struct {
	Hunk Hunk
	Err  error
}

// Pool applies one phase's hunks with bounded parallelism. Hunks within a
// phase are independent, so workers drain a shared queue in no particular
// order; each worker's partial report is merged into the returned one.
type Pool struct {
	leftAccount  string
	rightAccount string
	builders     Builders
	size         int
	events       chan<- Event

	l *logrus.Logger
}

func NewPool(leftAccount, rightAccount string, builders Builders, size int, events chan<- Event) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		leftAccount:  leftAccount,
		rightAccount: rightAccount,
		builders:     builders,
		size:         size,
		events:       events,
		l:            log.Logger(log.LOG_POOL),
	}
}

// Run applies all hunks and returns the merged report. A hunk failure is
// recorded and the queue keeps draining; a worker that cannot build its
// connections is logged and contributes nothing, the remaining workers pick
// up its share.
func (p *Pool) Run(hunks []Hunk) *Report {
	size := p.size
	if size > len(hunks) {
		size = len(hunks)
	}
	if size == 0 {
		return NewReport()
	}

	queue := &hunkQueue{hunks: hunks}
	partials := make([]*Report, size)

	wg := &sync.WaitGroup{}
	for i := 0; i < size; i++ {
		partials[i] = NewReport()
		wg.Add(1)
		go p.work(i, queue, partials[i], wg)
	}
	wg.Wait()

	report := NewReport()
	for _, partial := range partials {
		report.Extend(partial)
	}
	return report
}

// work is one worker's life: build the connection set once, then pop and
// process hunks until the queue is empty.
func (p *Pool) work(id int, queue *hunkQueue, report *Report, wg *sync.WaitGroup) {
	defer wg.Done()

	conns, err := p.connect()
	if err != nil {
		p.l.WithFields(logrus.Fields{"worker": id, "error": err}).Error("Could not build worker connections")
		return
	}
	defer conns.close()

	for {
		hunk, ok := queue.pop()
		if !ok {
			p.l.WithField("worker", id).Debug("Queue drained")
			return
		}

		err := p.apply(conns, hunk)
		report.Add(hunk, err)
		if err != nil {
			p.l.WithFields(logrus.Fields{"worker": id, "hunk": hunk.String(), "error": err}).Warn("Hunk failed")
		} else {
			p.l.WithFields(logrus.Fields{"worker": id, "hunk": hunk.String()}).Debug("Hunk applied")
		}

		if p.events != nil {
			p.events <- Event{Hunk: hunk, Err: err}
		}
	}
}

type connections struct {
	left  domain.Backend
	right domain.Backend
	cache *cache.Store
}

func (p *Pool) connect() (*connections, error) {
	left, err := p.builders.Left()
	if err != nil {
		return nil, fmt.Errorf("could not build left backend: %w", err)
	}

	right, err := p.builders.Right()
	if err != nil {
		left.Close()
		return nil, fmt.Errorf("could not build right backend: %w", err)
	}

	store, err := p.builders.Cache()
	if err != nil {
		left.Close()
		right.Close()
		return nil, fmt.Errorf("could not build cache store: %w", err)
	}

	return &connections{left: left, right: right, cache: store}, nil
}

func (c *connections) close() {
	c.left.Close()
	c.right.Close()
	c.cache.Close()
}

// hunkQueue is the single resource shared across workers. Contention is
// negligible next to per-hunk I/O, a plain mutex around pop is enough.
type hunkQueue struct {
	mu    sync.Mutex
	hunks []Hunk
}

func (q *hunkQueue) pop() (Hunk, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.hunks) == 0 {
		return nil, false
	}
	hunk := q.hunks[0]
	q.hunks = q.hunks[1:]
	return hunk, true
}

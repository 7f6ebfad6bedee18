// Package workpool bounds the number of concurrent per-record operations in
// a pass. Waiters are admitted in FIFO order.
package workpool

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

const DefaultSize = 10

type Pool struct {
	sem      *semaphore.Weighted
	wg       sync.WaitGroup
	inFlight atomic.Int64
	peak     atomic.Int64
}

// New returns a pool admitting at most size concurrent tasks. A size below
// one uses DefaultSize.
func New(size int) *Pool {
	if size < 1 {
		size = DefaultSize
	}
	return &Pool{sem: semaphore.NewWeighted(int64(size))}
}

// Go blocks until a slot is free and runs fn in its own goroutine. It
// returns ctx.Err() without running fn if ctx ends first.
func (p *Pool) Go(ctx context.Context, fn func()) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	n := p.inFlight.Add(1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	p.wg.Add(1)
	go func() {
		defer func() {
			p.inFlight.Add(-1)
			p.sem.Release(1)
			p.wg.Done()
		}()
		fn()
	}()
	return nil
}

// Wait blocks until every task started with Go has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) InFlight() int {
	return int(p.inFlight.Load())
}

// Peak is the highest InFlight value observed since the pool was created.
func (p *Pool) Peak() int {
	return int(p.peak.Load())
}

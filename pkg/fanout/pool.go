package fanout

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// Pool runs wait-for-all fan-outs on a bounded ants pool. Components that
// fan out from inside another fan-out must own separate pools, otherwise
// inner submissions can starve behind the outer tasks holding every worker.
type Pool struct {
	pool *ants.Pool
}

// NewPool creates a pool with size workers; size <= 0 means NumCPU.
func NewPool(size int) (*Pool, error) {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	return &Pool{pool: pool}, nil
}

func (p *Pool) Release() {
	p.pool.Release()
}

// Each calls fn(i) for every i in [0, n) and returns once all calls have
// finished. fn must write its own result slot; Each only reports
// submission failures, never task errors. A panicking task is recovered by
// ants and counts as finished.
func (p *Pool) Each(n int, fn func(i int)) error {
	var (
		wg        sync.WaitGroup
		submitErr error
	)

	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			fn(i)
		})
		if err != nil {
			wg.Done()
			if submitErr == nil {
				submitErr = fmt.Errorf("submit task %d: %w", i, err)
			}
		}
	}

	wg.Wait()
	return submitErr
}

package depot

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/TheBitDrifter/bark"
)

// WorkerPool is a fixed set of goroutines that fan out one chunked job at a time.
// Workers meet the owner at a start barrier, run their chunks, and meet again at
// an end barrier, so Execute returns only after every chunk has finished.
type WorkerPool struct {
	workers int
	start   *barrier
	end     *barrier
	job     poolJob
	stop    bool
	closed  bool

	dispatch sync.Mutex
	busy     atomic.Bool
	mu       sync.Mutex
	failure  any
	wg       sync.WaitGroup
	log      *slog.Logger
}

type poolJob struct {
	total     int
	chunkSize int
	fn        func(start, end int)
}

// NewWorkerPool starts workers goroutines; zero or less uses GOMAXPROCS
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &WorkerPool{
		workers: workers,
		start:   newBarrier(workers + 1),
		end:     newBarrier(workers + 1),
		log:     bark.For("pool"),
	}
	p.wg.Add(workers)
	for id := range workers {
		go p.work(id)
	}
	p.log.Debug("worker pool started", "workers", workers)
	return p
}

func (p *WorkerPool) Workers() int {
	return p.workers
}

func (p *WorkerPool) work(id int) {
	defer p.wg.Done()
	for {
		p.start.wait()
		if p.stop {
			return
		}
		p.runShard(id)
		p.end.wait()
	}
}

// runShard processes chunks id, id+W, id+2W, ... of the current job
func (p *WorkerPool) runShard(id int) {
	defer func() {
		if r := recover(); r != nil {
			p.mu.Lock()
			if p.failure == nil {
				p.failure = r
			}
			p.mu.Unlock()
		}
	}()
	job := p.job
	chunks := (job.total + job.chunkSize - 1) / job.chunkSize
	for k := id; k < chunks; k += p.workers {
		start := k * job.chunkSize
		job.fn(start, min(start+job.chunkSize, job.total))
	}
}

// Execute splits [0, total) into contiguous chunks of chunkSize and calls fn once
// per chunk across the workers. Chunk k always runs on worker k mod Workers().
// A panic in any chunk is re-raised here after the join. Execute is not
// re-entrant: a call made while a dispatch is running, including one from inside
// a chunk, returns PoolBusyError instead of waiting.
func (p *WorkerPool) Execute(total, chunkSize int, fn func(start, end int)) error {
	if !p.busy.CompareAndSwap(false, true) {
		return PoolBusyError{}
	}
	defer p.busy.Store(false)
	p.dispatch.Lock()
	defer p.dispatch.Unlock()
	if p.closed {
		return PoolClosedError{}
	}
	if total <= 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = Config.defaultChunkSize
	}

	p.job = poolJob{total: total, chunkSize: chunkSize, fn: fn}
	p.failure = nil
	p.start.wait()
	p.end.wait()
	p.job = poolJob{}

	if p.failure != nil {
		failure := p.failure
		p.failure = nil
		panic(bark.AddTrace(WorkerPanicError{Value: fmt.Sprint(failure)}))
	}
	return nil
}

// Shutdown stops every worker and waits for them to exit. Later Execute calls
// return PoolClosedError.
func (p *WorkerPool) Shutdown() {
	p.dispatch.Lock()
	defer p.dispatch.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.stop = true
	p.start.wait()
	p.wg.Wait()
	p.log.Debug("worker pool stopped", "workers", p.workers)
}

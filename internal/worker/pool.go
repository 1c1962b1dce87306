// Package worker fans batch processing across a fixed pool of goroutines.
package worker

import (
	"sync"
	"sync/atomic"

	"github.com/osm3d/pitchmark/internal/channel"
	"github.com/osm3d/pitchmark/internal/pipeline"
	"github.com/osm3d/pitchmark/internal/queue"
	"github.com/osm3d/pitchmark/pkg/core"
)

// feedBuffer is the area channel capacity. Submitting blocks once the
// workers fall this far behind.
const feedBuffer = 1024

// Processor handles one area. Satisfied by pipeline.Service.
type Processor interface {
	Process(area core.Area) (pipeline.Result, error)
}

// Pool drains a feed of areas through a Processor on size goroutines.
// Results collect unordered; apart from order the output matches a
// sequential pipeline.Service.ProcessAll run.
type Pool struct {
	size   int
	proc   Processor
	logger pipeline.Logger

	feed    channel.Channel[core.Area]
	results *queue.Queue[pipeline.Result]

	wg        sync.WaitGroup
	processed atomic.Int64
}

// NewPool creates a pool of the given size. Sizes below one are raised
// to one.
func NewPool(size int, proc Processor, logger pipeline.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		size:    size,
		proc:    proc,
		logger:  logger,
		feed:    channel.New[core.Area](feedBuffer),
		results: queue.New[pipeline.Result](),
	}
}

// Start launches the worker goroutines. Call once.
func (p *Pool) Start() {
	p.logger.Debug("starting worker pool", "workers", p.size)
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.work()
	}
}

func (p *Pool) work() {
	defer p.wg.Done()
	for area := range p.feed.Receive() {
		// Process stores failures in the result, so the error return
		// only matters to sequential callers.
		res, _ := p.proc.Process(area)
		p.results.Push(res)
		p.processed.Add(1)
	}
}

// Submit queues one area. Blocks while the feed buffer is full. Must not
// be called after Wait.
func (p *Pool) Submit(area core.Area) {
	p.feed.Send(area)
}

// Wait closes the feed, blocks until the workers drain it and returns
// the collected results with their summary.
func (p *Pool) Wait() ([]pipeline.Result, pipeline.Summary) {
	p.feed.Close()
	p.wg.Wait()

	results := p.results.GetAndEmpty()
	sum := pipeline.Summarize(results)
	p.logger.Info("worker pool drained",
		"workers", p.size,
		"total", sum.Total,
		"fitted", sum.Fitted,
		"fallback", sum.Fallback,
		"skipped", sum.Skipped,
		"failed", sum.Failed,
	)
	return results, sum
}

// Run feeds the whole batch through the pool and waits for it.
func (p *Pool) Run(areas []core.Area) ([]pipeline.Result, pipeline.Summary) {
	p.Start()
	for _, area := range areas {
		p.Submit(area)
	}
	return p.Wait()
}

// Pending reports areas buffered in the feed. Monitor hook.
func (p *Pool) Pending() int {
	return p.feed.Len()
}

// ResultCount reports results collected so far. Monitor hook.
func (p *Pool) ResultCount() int {
	return p.results.Len()
}

// Processed reports areas handled so far. Monitor hook.
func (p *Pool) Processed() int64 {
	return p.processed.Load()
}

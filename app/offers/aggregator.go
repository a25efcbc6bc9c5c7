package offers

import (
	"context"
	"log/slog"
	"time"
)

// Fetcher is the one capability the aggregator depends on. Every provider
// adapter implements it; the aggregator never branches on provider identity.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, addr Address) ([]Offer, error)
}

const (
	DefaultTaskTimeout  = 20 * time.Second
	DefaultBatchTimeout = 25 * time.Second
)

// Aggregator fans a single address query out to all configured providers
// under a bounded worker pool and merges whatever arrives in time.
type Aggregator struct {
	fetchers     []Fetcher
	workerCount  int
	taskTimeout  time.Duration
	batchTimeout time.Duration
}

type taskResult struct {
	provider string
	offers   []Offer
	err      error
	duration time.Duration
}

func NewAggregator(fetchers []Fetcher, workerCount int, taskTimeout, batchTimeout time.Duration) *Aggregator {
	if workerCount <= 0 || workerCount > len(fetchers) {
		workerCount = len(fetchers)
	}
	if taskTimeout <= 0 {
		taskTimeout = DefaultTaskTimeout
	}
	if batchTimeout <= taskTimeout {
		batchTimeout = taskTimeout + 5*time.Second
	}
	return &Aggregator{
		fetchers:     fetchers,
		workerCount:  workerCount,
		taskTimeout:  taskTimeout,
		batchTimeout: batchTimeout,
	}
}

// ProviderCount returns the number of fetch tasks a single run dispatches.
func (a *Aggregator) ProviderCount() int {
	return len(a.fetchers)
}

// Run executes one aggregation batch. A task that fails, times out, or is
// still running when the batch ceiling hits contributes zero offers; the
// batch itself always completes. Result order is completion order and is not
// a contract.
func (a *Aggregator) Run(ctx context.Context, addr Address) []Offer {
	addr = addr.WithDefaults()

	merged := make([]Offer, 0, 16)
	if len(a.fetchers) == 0 {
		return merged
	}

	batchCtx, cancel := context.WithTimeout(ctx, a.batchTimeout)
	defer cancel()

	tasks := make(chan Fetcher, len(a.fetchers))
	results := make(chan taskResult, len(a.fetchers))

	for i := 0; i < a.workerCount; i++ {
		go a.worker(batchCtx, addr, tasks, results)
	}

	for _, f := range a.fetchers {
		tasks <- f
	}
	close(tasks)

	// One slot per task: collect until every task settled or the batch
	// ceiling expired. Workers left behind write into the buffered channel
	// and are simply never read.
	settled := 0
	for settled < len(a.fetchers) {
		select {
		case res := <-results:
			settled++
			if res.err != nil {
				slog.Warn("Provider fetch failed", "provider", res.provider, "duration", res.duration, "error", res.err)
				continue
			}
			slog.Info("Provider fetch completed", "provider", res.provider, "duration", res.duration, "offers", len(res.offers))
			merged = append(merged, res.offers...)
		case <-batchCtx.Done():
			slog.Warn("Aggregation batch ceiling reached", "settled", settled, "total", len(a.fetchers))
			return merged
		}
	}

	return merged
}

func (a *Aggregator) worker(ctx context.Context, addr Address, tasks <-chan Fetcher, results chan<- taskResult) {
	for f := range tasks {
		start := time.Now()
		taskCtx, cancel := context.WithTimeout(ctx, a.taskTimeout)
		offs, err := f.Fetch(taskCtx, addr)
		cancel()

		select {
		case results <- taskResult{provider: f.Name(), offers: offs, err: err, duration: time.Since(start)}:
		case <-ctx.Done():
			return
		}
	}
}

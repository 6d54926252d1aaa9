package frame

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/decibelcooper/phiana/event"
)

// Source streams events. fn takes ownership of ev; a source must not
// reuse its slices after handing it over.
type Source interface {
	Scan(ctx context.Context, fn func(ev event.Event) error) error
}

// Sink receives the records kept by a plan, in input order.
type Sink interface {
	Write(rec Record) error
}

// SliceSource serves events from memory.
type SliceSource []event.Event

func (s SliceSource) Scan(ctx context.Context, fn func(ev event.Event) error) error {
	for i := range s {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(s[i]); err != nil {
			return err
		}
	}
	return nil
}

// MemorySink keeps records in memory.
type MemorySink struct {
	Records []Record
}

func (m *MemorySink) Write(rec Record) error {
	m.Records = append(m.Records, rec)
	return nil
}

// Stats counts the events handed to the plan and the events kept.
type Stats struct {
	Read int64
	Kept int64
}

type runConfig struct {
	workers int
	skip    int64
	limit   int64
}

type RunOption func(*runConfig)

// WithWorkers sets the number of events evaluated concurrently.
func WithWorkers(n int) RunOption {
	return func(c *runConfig) { c.workers = n }
}

// WithSkip discards the first n events of the source.
func WithSkip(n int64) RunOption {
	return func(c *runConfig) { c.skip = n }
}

// WithLimit stops after n events have been read; 0 means no limit.
func WithLimit(n int64) RunOption {
	return func(c *runConfig) { c.limit = n }
}

var errLimit = errors.New("frame: event limit reached")

// Run evaluates the plan on every event of src and writes kept records
// to sink. Events are evaluated concurrently; records reach the sink in
// source order. A misaligned event stops the run with *event.ErrMisaligned.
func (p *Plan) Run(ctx context.Context, src Source, sink Sink, opts ...RunOption) (Stats, error) {
	if p.err != nil {
		return Stats{}, p.err
	}
	cfg := runConfig{workers: runtime.NumCPU()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.workers < 1 {
		cfg.workers = 1
	}

	type job struct {
		seq int64
		ev  event.Event
	}
	type result struct {
		seq  int64
		rec  Record
		keep bool
	}

	var stats Stats
	g, ctx := errgroup.WithContext(ctx)
	jobs := make(chan job, cfg.workers)
	results := make(chan result, cfg.workers)

	g.Go(func() error {
		defer close(jobs)
		var seen int64
		err := src.Scan(ctx, func(ev event.Event) error {
			seen++
			if seen <= cfg.skip {
				return nil
			}
			if cfg.limit > 0 && stats.Read >= cfg.limit {
				return errLimit
			}
			j := job{seq: stats.Read, ev: ev}
			stats.Read++
			select {
			case jobs <- j:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if errors.Is(err, errLimit) {
			return nil
		}
		return err
	})

	var wg sync.WaitGroup
	for w := 1; w <= cfg.workers; w++ {
		w := w
		wg.Add(1)
		g.Go(func() (err error) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("frame: worker %d recovered from panic: %v", w, r)
				}
			}()
			for j := range jobs {
				ev := j.ev
				if err := ev.Validate(); err != nil {
					return err
				}
				rec, keep := p.eval(&ev)
				select {
				case results <- result{seq: j.seq, rec: rec, keep: keep}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	g.Go(func() error {
		pending := make(map[int64]result)
		var next int64
		for r := range results {
			pending[r.seq] = r
			for {
				r, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				next++
				if !r.keep {
					continue
				}
				if err := sink.Write(r.rec); err != nil {
					return err
				}
				stats.Kept++
			}
		}
		return nil
	})

	err := g.Wait()
	return stats, err
}

// Collect runs the plan and returns the kept records.
func (p *Plan) Collect(ctx context.Context, src Source, opts ...RunOption) ([]Record, Stats, error) {
	var sink MemorySink
	stats, err := p.Run(ctx, src, &sink, opts...)
	return sink.Records, stats, err
}

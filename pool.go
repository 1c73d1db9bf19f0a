package htmlexport

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chrome child processes.
	cpuDivisor = 2
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("exporter pool is closed")

// ExporterPool lends Exporters to concurrent callers. Each Exporter has its
// own browser, so PDF exports run in parallel up to the pool size.
// Exporters are created lazily on first acquire to avoid startup delay.
type ExporterPool struct {
	size      int
	newFn     func() (*Exporter, error)
	exporters []*Exporter
	sem       chan *Exporter
	mu        sync.Mutex
	created   int
	closed    bool
}

// NewExporterPool creates a pool with capacity for n Exporters, each built
// with opts.
func NewExporterPool(n int, opts ...Option) *ExporterPool {
	if n < 1 {
		n = 1
	}
	return &ExporterPool{
		size:      n,
		newFn:     func() (*Exporter, error) { return New(opts...) },
		exporters: make([]*Exporter, 0, n),
		sem:       make(chan *Exporter, n),
	}
}

// Acquire gets an Exporter from the pool, creating one if needed.
// Blocks until one is released or ctx is done.
func (p *ExporterPool) Acquire(ctx context.Context) (*Exporter, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrPoolClosed
	}

	select {
	case exp, ok := <-p.sem:
		if !ok {
			return nil, ErrPoolClosed
		}
		return exp, nil
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		// Create outside the lock
		exp, err := p.newFn()
		if err != nil {
			p.mu.Lock()
			p.created--
			p.mu.Unlock()
			return nil, err
		}

		p.mu.Lock()
		p.exporters = append(p.exporters, exp)
		p.mu.Unlock()
		return exp, nil
	}
	p.mu.Unlock()

	select {
	case exp, ok := <-p.sem:
		if !ok {
			return nil, ErrPoolClosed
		}
		return exp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns an Exporter to the pool.
// The lock is released before sending to avoid deadlock when channel is full.
func (p *ExporterPool) Release(exp *Exporter) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.sem <- exp
}

// ExportPDF borrows an Exporter for one PDF export.
func (p *ExporterPool) ExportPDF(ctx context.Context, content string) (*PDFResult, error) {
	exp, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Release(exp)
	return exp.ExportPDF(ctx, content)
}

// ExportWord borrows an Exporter for one Word export.
func (p *ExporterPool) ExportWord(ctx context.Context, content string) (*WordResult, error) {
	exp, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer p.Release(exp)
	return exp.ExportWord(ctx, content)
}

// Close releases all browser resources.
// Returns an aggregated error if multiple exporters fail to close.
func (p *ExporterPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	exporters := p.exporters
	p.mu.Unlock()

	var errs []error
	for _, exp := range exporters {
		if err := exp.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *ExporterPool) Size() int {
	return p.size
}

// ResolvePoolSize determines the pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs for containers
	n := runtime.GOMAXPROCS(0) / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}

package worker

import (
	"context"
	"sync"
)

type StartOptions[J any] struct {
	Ctx    context.Context
	Sem    chan struct{}
	Jobs   <-chan J
	Handle func(context.Context, J)
	Done   func()
}

// Start runs jobs from one queue in order, holding a slot in Sem while each
// job runs so the total across queues stays bounded.
func Start[J any](opts StartOptions[J]) {
	go func() {
		if opts.Done != nil {
			defer opts.Done()
		}
		for {
			select {
			case <-opts.Ctx.Done():
				return
			case job, ok := <-opts.Jobs:
				if !ok {
					return
				}
				select {
				case opts.Sem <- struct{}{}:
				case <-opts.Ctx.Done():
					return
				}
				func() {
					defer func() { <-opts.Sem }()
					opts.Handle(opts.Ctx, job)
				}()
			}
		}
	}()
}

func Enqueue[J any](ctx, workersCtx context.Context, jobs chan<- J, job J) error {
	if ctx == nil {
		ctx = workersCtx
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-workersCtx.Done():
		return workersCtx.Err()
	case jobs <- job:
		return nil
	}
}

// Pool keeps one ordered queue per key, started lazily. Jobs for the same
// key never overlap; jobs for different keys share MaxConcurrency slots.
type Pool[J any] struct {
	ctx    context.Context
	cancel context.CancelFunc
	sem    chan struct{}
	handle func(context.Context, J)
	depth  int

	mu     sync.Mutex
	queues map[string]chan J
	wg     sync.WaitGroup
}

func NewPool[J any](ctx context.Context, maxConcurrency, queueDepth int, handle func(context.Context, J)) *Pool[J] {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	if queueDepth <= 0 {
		queueDepth = 16
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Pool[J]{
		ctx:    ctx,
		cancel: cancel,
		sem:    make(chan struct{}, maxConcurrency),
		handle: handle,
		depth:  queueDepth,
		queues: map[string]chan J{},
	}
}

// Submit queues job under key, blocking while that queue is full.
func (p *Pool[J]) Submit(ctx context.Context, key string, job J) error {
	p.mu.Lock()
	if err := p.ctx.Err(); err != nil {
		p.mu.Unlock()
		return err
	}
	q, ok := p.queues[key]
	if !ok {
		q = make(chan J, p.depth)
		p.queues[key] = q
		p.wg.Add(1)
		Start(StartOptions[J]{
			Ctx:    p.ctx,
			Sem:    p.sem,
			Jobs:   q,
			Handle: p.handle,
			Done:   p.wg.Done,
		})
	}
	p.mu.Unlock()
	return Enqueue(ctx, p.ctx, q, job)
}

// Close stops accepting jobs, cancels running ones and waits for every
// queue goroutine to exit.
func (p *Pool[J]) Close() {
	p.mu.Lock()
	p.cancel()
	p.mu.Unlock()
	p.wg.Wait()
}

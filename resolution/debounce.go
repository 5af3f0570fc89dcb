package resolution

import (
	"context"
	"sync"
	"time"

	tbtypes "github.com/Zolldyk/TippinBit-sub000/types"
)

// Binder connects rapidly-changing identifier input to the resolver. Input
// settles for the debounce delay before a resolution is issued, so a lookup
// is not fired on every keystroke. While a resolution is outstanding the
// binder emits a loading snapshot; a result for input that has since changed
// is dropped.
type Binder struct {
	resolver *Resolver
	delay    time.Duration

	mu   sync.Mutex
	gen  uint64
	out  chan tbtypes.ResolutionResult
	stop chan struct{}
	once sync.Once
}

func NewBinder(resolver *Resolver, delay time.Duration) *Binder {
	return &Binder{
		resolver: resolver,
		delay:    delay,
		out:      make(chan tbtypes.ResolutionResult, 16),
		stop:     make(chan struct{}),
	}
}

// Results is the snapshot stream consumed by the view layer.
func (b *Binder) Results() <-chan tbtypes.ResolutionResult {
	return b.out
}

// Input registers the latest raw identifier. Earlier pending input is
// superseded.
func (b *Binder) Input(ctx context.Context, identifier string) {
	b.mu.Lock()
	b.gen++
	gen := b.gen
	b.mu.Unlock()

	go b.settle(ctx, gen, identifier)
}

func (b *Binder) settle(ctx context.Context, gen uint64, identifier string) {
	timer := time.NewTimer(b.delay)
	defer timer.Stop()

	select {
	case <-b.stop:
		return
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	if !b.current(gen) {
		return
	}

	b.emit(gen, tbtypes.ResolutionResult{Status: tbtypes.ResolutionLoading})

	result := b.resolver.Resolve(ctx, identifier)
	b.emit(gen, result)
}

func (b *Binder) current(gen uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return gen == b.gen
}

func (b *Binder) emit(gen uint64, result tbtypes.ResolutionResult) {
	if !b.current(gen) {
		return
	}

	select {
	case b.out <- result:
	case <-b.stop:
	}
}

// Close stops the binder and releases its result channel.
func (b *Binder) Close() {
	b.once.Do(func() { close(b.stop) })
}

package command

import "sync"

// CommandBufferPool is a free-list of reusable CommandBuffers, avoiding a
// fresh allocation (and fresh backing-slice growth) every frame. Mirrors the
// lazy-create, keep-around caching idiom used for pipeline/shader caches
// elsewhere in this module, generalized to a pool of interchangeable
// buffers instead of a name-keyed cache.
type CommandBufferPool struct {
	mu     sync.Mutex
	free   []*CommandBuffer
	inUse  map[*CommandBuffer]struct{}
	newBuf func() *CommandBuffer
}

// NewCommandBufferPool constructs an empty pool.
func NewCommandBufferPool() *CommandBufferPool {
	return &CommandBufferPool{
		inUse:  make(map[*CommandBuffer]struct{}),
		newBuf: NewCommandBuffer,
	}
}

// Acquire returns a reset, unsealed buffer: either one taken from the free
// list, or a freshly allocated one if the free list is empty.
func (p *CommandBufferPool) Acquire() *CommandBuffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	var b *CommandBuffer
	if n := len(p.free); n > 0 {
		b = p.free[n-1]
		p.free = p.free[:n-1]
		b.Reset()
	} else {
		b = p.newBuf()
	}
	p.inUse[b] = struct{}{}
	return b
}

// Release clears a buffer and returns it to the free list. Releasing a
// buffer not currently checked out from this pool is a no-op.
func (p *CommandBufferPool) Release(b *CommandBuffer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.inUse[b]; !ok {
		return
	}
	delete(p.inUse, b)
	b.Reset()
	p.free = append(p.free, b)
}

// ReleaseAll empties the in-use set, returning every checked-out buffer to
// the free list.
func (p *CommandBufferPool) ReleaseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for b := range p.inUse {
		b.Reset()
		p.free = append(p.free, b)
	}
	p.inUse = make(map[*CommandBuffer]struct{})
}

// InUseCount reports how many buffers are currently checked out.
func (p *CommandBufferPool) InUseCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inUse)
}

// FreeCount reports how many buffers are available for reuse.
func (p *CommandBufferPool) FreeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

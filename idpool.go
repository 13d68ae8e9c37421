package tracewire

import "sync"

// IDPool keeps a buffer of pre-generated identifiers so span creation
// does not pay crypto/rand latency on the hot path. A background
// goroutine refills the buffer; if it runs dry under burst load, Get
// falls back to generating inline.
type IDPool struct {
	factory func() string
	ids     chan string
	stop    chan struct{}
	once    sync.Once
}

// NewIDPool starts a pool holding up to capacity identifiers produced by
// factory.
func NewIDPool(capacity int, factory func() string) *IDPool {
	if capacity < 1 {
		capacity = 1
	}
	p := &IDPool{
		factory: factory,
		ids:     make(chan string, capacity),
		stop:    make(chan struct{}),
	}
	go p.refill()
	return p
}

// Get returns a pooled identifier, or a freshly generated one when the
// pool is empty.
func (p *IDPool) Get() string {
	select {
	case id := <-p.ids:
		return id
	default:
		return p.factory()
	}
}

// refill blocks pushing fresh ids until the pool is full, then resumes
// as Get drains it.
func (p *IDPool) refill() {
	for {
		select {
		case p.ids <- p.factory():
		case <-p.stop:
			return
		}
	}
}

// Close stops the refill goroutine. Safe to call more than once.
func (p *IDPool) Close() {
	p.once.Do(func() {
		close(p.stop)
	})
}

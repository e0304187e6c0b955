package ledger

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// persister writes snapshots to the blob store without ever blocking a
// mutator. It keeps a single pending slot: if several mutations land before a
// write completes, only the newest snapshot is written (last-write-wins, which
// is exact with a single in-memory writer).
type persister struct {
	store BlobStore
	key   string
	log   zerolog.Logger

	mu      sync.Mutex
	pending []byte

	kick chan struct{}
	quit chan struct{}
	done chan struct{}
}

func newPersister(store BlobStore, key string, log zerolog.Logger) *persister {
	p := &persister{
		store: store,
		key:   key,
		log:   log,
		kick:  make(chan struct{}, 1),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go p.run()
	return p
}

// offer replaces the pending snapshot and wakes the writer. Never blocks.
func (p *persister) offer(data []byte) {
	p.mu.Lock()
	p.pending = data
	p.mu.Unlock()

	select {
	case p.kick <- struct{}{}:
	default:
	}
}

func (p *persister) take() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	data := p.pending
	p.pending = nil
	return data
}

func (p *persister) run() {
	defer close(p.done)
	for {
		select {
		case <-p.kick:
			p.write()
		case <-p.quit:
			// Drain the last pending snapshot before exiting.
			p.write()
			return
		}
	}
}

func (p *persister) write() {
	data := p.take()
	if data == nil {
		return
	}
	if err := p.store.Save(context.Background(), p.key, data); err != nil {
		// Persistence failures never propagate to mutators; the in-memory
		// state stays the source of truth until the next successful write.
		p.log.Error().Err(err).Str("key", p.key).Msg("snapshot save failed")
	}
}

// Close flushes any pending snapshot and stops the writer goroutine.
func (p *persister) Close() {
	close(p.quit)
	<-p.done
}

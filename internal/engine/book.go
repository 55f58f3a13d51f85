package engine

import (
	"sync"

	"github.com/moonwatch/backend/internal/contracts"
)

// Book is the in-memory active signal set. It provides per-signal keyed
// locks so that vote application and lifecycle evaluation for the same
// signal never interleave; across different signals no ordering is imposed.
type Book struct {
	mu      sync.RWMutex
	signals map[string]*contracts.Signal
	locks   map[string]*sync.Mutex
}

// NewBook creates an empty active book.
func NewBook() *Book {
	return &Book{
		signals: make(map[string]*contracts.Signal),
		locks:   make(map[string]*sync.Mutex),
	}
}

// Add inserts a signal into the active set.
func (b *Book) Add(sig *contracts.Signal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.signals[sig.ID] = sig
	if _, ok := b.locks[sig.ID]; !ok {
		b.locks[sig.ID] = &sync.Mutex{}
	}
}

// Get returns the signal with the given id.
func (b *Book) Get(id string) (*contracts.Signal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	sig, ok := b.signals[id]
	return sig, ok
}

// Remove drops a signal and its lock from the active set.
func (b *Book) Remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.signals, id)
	delete(b.locks, id)
}

// Len returns the number of active signals.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.signals)
}

// Active returns a snapshot of all signals in the book.
func (b *Book) Active() []*contracts.Signal {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*contracts.Signal, 0, len(b.signals))
	for _, sig := range b.signals {
		out = append(out, sig)
	}
	return out
}

// HasOpenCall reports whether an active, non-terminal signal already exists
// for the ticker-direction pair. At most one is issued per pair per cycle.
func (b *Book) HasOpenCall(ticker string, direction contracts.Direction) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sig := range b.signals {
		if sig.Ticker == ticker && sig.Direction == direction && !sig.State.Terminal() {
			return true
		}
	}
	return false
}

// WithSignal runs fn with the signal's keyed lock held. All mutation of a
// signal after issuance goes through here.
func (b *Book) WithSignal(id string, fn func(*contracts.Signal) error) error {
	b.mu.RLock()
	sig, ok := b.signals[id]
	lock := b.locks[id]
	b.mu.RUnlock()

	if !ok {
		return contracts.ErrSignalNotFound
	}

	lock.Lock()
	defer lock.Unlock()
	return fn(sig)
}

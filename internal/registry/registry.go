package registry

import (
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/models"
)

var (
	ErrNotFound        = errors.New("bin not found")
	ErrVersionConflict = errors.New("bin version conflict")
	ErrDuplicateID     = errors.New("bin id already registered")
)

// VersionAny skips the expected-version check in CompareAndApply: the
// mutation always applies against whatever version is current.
const VersionAny int64 = -1

// MutateFunc receives a working copy of the bin with its version already
// advanced to the value the mutation will commit at. Returning an error
// aborts the mutation and leaves the bin untouched; the error is passed
// through to the caller unchanged.
type MutateFunc func(b *models.Bin) error

// Persister receives a snapshot of every committed bin state. Implementations
// must tolerate out-of-order snapshots (guard on version).
type Persister interface {
	SaveBin(b *models.Bin) error
	DeleteBin(binID string) error
}

// Registry is the single owner of all mutable bin state. All writes go
// through CompareAndApply; readers get consistent clones. Bins are
// independent, so one lock over the map is enough — mutations are pure
// in-memory work and never block on I/O while holding it.
type Registry struct {
	mu        sync.RWMutex
	bins      map[string]*models.Bin
	persister Persister
}

// New creates an empty registry. persister may be nil (no durability).
func New(persister Persister) *Registry {
	return &Registry{
		bins:      make(map[string]*models.Bin),
		persister: persister,
	}
}

// Load seeds the registry from persisted snapshots. Called once at startup
// before any traffic.
func (r *Registry) Load(bins []*models.Bin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range bins {
		r.bins[b.ID] = b.Clone()
	}
}

// Get returns a snapshot of one bin.
func (r *Registry) Get(binID string) (*models.Bin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bins[binID]
	if !ok {
		return nil, ErrNotFound
	}
	return b.Clone(), nil
}

// List returns snapshots of all bins ordered by bin number.
func (r *Registry) List() []*models.Bin {
	r.mu.RLock()
	out := make([]*models.Bin, 0, len(r.bins))
	for _, b := range r.bins {
		out = append(out, b.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].BinNumber < out[j].BinNumber })
	return out
}

// Register adds a new bin. Duplicate ids are rejected.
func (r *Registry) Register(b *models.Bin) error {
	r.mu.Lock()
	if _, ok := r.bins[b.ID]; ok {
		r.mu.Unlock()
		return ErrDuplicateID
	}
	stored := b.Clone()
	now := time.Now().Unix()
	if stored.CreatedAt == 0 {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	if stored.LidState == "" {
		stored.LidState = models.LidClosed
	}
	r.bins[b.ID] = stored
	snapshot := stored.Clone()
	r.mu.Unlock()

	r.persist(snapshot)
	return nil
}

// Deregister removes a bin.
func (r *Registry) Deregister(binID string) error {
	r.mu.Lock()
	if _, ok := r.bins[binID]; !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	delete(r.bins, binID)
	r.mu.Unlock()

	if r.persister != nil {
		if err := r.persister.DeleteBin(binID); err != nil {
			log.Printf("registry: delete bin %s from store: %v", binID, err)
		}
	}
	return nil
}

// CompareAndApply atomically reads the bin, checks the expected version
// (skipped for VersionAny), applies mutate to a working copy with the
// version already incremented, and commits it. This is the only mutation
// primitive: telemetry and action commands racing on the same bin resolve
// as a retryable ErrVersionConflict instead of a data race.
func (r *Registry) CompareAndApply(binID string, expectedVersion int64, mutate MutateFunc) (*models.Bin, error) {
	r.mu.Lock()
	cur, ok := r.bins[binID]
	if !ok {
		r.mu.Unlock()
		return nil, ErrNotFound
	}
	if expectedVersion != VersionAny && cur.Version != expectedVersion {
		r.mu.Unlock()
		return nil, ErrVersionConflict
	}

	next := cur.Clone()
	next.Version = cur.Version + 1
	next.UpdatedAt = time.Now().Unix()
	if err := mutate(next); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	r.bins[binID] = next
	snapshot := next.Clone()
	r.mu.Unlock()

	r.persist(snapshot)
	return snapshot.Clone(), nil
}

// persist runs outside the registry lock so a slow store never stalls
// mutations. Failures are logged; the in-memory state stays authoritative.
func (r *Registry) persist(b *models.Bin) {
	if r.persister == nil {
		return
	}
	if err := r.persister.SaveBin(b); err != nil {
		log.Printf("registry: persist bin %s v%d: %v", b.ID, b.Version, err)
	}
}

package alert

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/models"
)

type fakeStore struct {
	mu       sync.Mutex
	inserted []models.Notification
	statuses map[string]models.DeliveryStatus
}

func newFakeStore() *fakeStore {
	return &fakeStore{statuses: make(map[string]models.DeliveryStatus)}
}

func (f *fakeStore) InsertNotification(n models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, n)
	return nil
}

func (f *fakeStore) UpdateNotificationStatus(id string, status models.DeliveryStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = status
	return nil
}

type fakeDeliverer struct {
	mu        sync.Mutex
	delivered []models.Notification
	err       error
}

func (f *fakeDeliverer) Deliver(n models.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.delivered = append(f.delivered, n)
	return nil
}

func note(id string) models.Notification {
	return models.Notification{
		ID:             id,
		BinID:          "bin-1",
		BinNumber:      7,
		Severity:       models.SeverityWarning,
		Reason:         models.ReasonFillThreshold,
		Message:        "test",
		DeliveryStatus: models.DeliveryPending,
	}
}

func TestDispatcherDelivers(t *testing.T) {
	store := newFakeStore()
	del := &fakeDeliverer{}
	d := NewDispatcher(store, del, 8)
	d.Start()

	d.Enqueue(note("n1"))
	d.Enqueue(note("n2"))
	d.Stop() // drains the queue before returning

	require.Len(t, store.inserted, 2)
	assert.Equal(t, models.DeliveryPending, store.inserted[0].DeliveryStatus)
	assert.Len(t, del.delivered, 2)
	assert.Equal(t, models.DeliveryDelivered, store.statuses["n1"])
	assert.Equal(t, models.DeliveryDelivered, store.statuses["n2"])
}

func TestDispatcherSuppressesOnDeliveryFailure(t *testing.T) {
	store := newFakeStore()
	del := &fakeDeliverer{err: errors.New("push channel down")}
	d := NewDispatcher(store, del, 8)
	d.Start()

	d.Enqueue(note("n1"))
	d.Stop()

	assert.Equal(t, models.DeliverySuppressed, store.statuses["n1"])
	assert.Empty(t, del.delivered)
}

func TestDispatcherNilDelivererSuppresses(t *testing.T) {
	store := newFakeStore()
	d := NewDispatcher(store, nil, 8)
	d.Start()

	d.Enqueue(note("n1"))
	d.Stop()

	// Still stored for the history view, just never pushed.
	require.Len(t, store.inserted, 1)
	assert.Equal(t, models.DeliverySuppressed, store.statuses["n1"])
}

func TestDispatcherFullQueueSuppressesInsteadOfBlocking(t *testing.T) {
	store := newFakeStore()
	d := NewDispatcher(store, &fakeDeliverer{}, 1)
	// No consumer running: the second enqueue finds the queue full and must
	// not block the caller.
	d.Enqueue(note("n1"))
	d.Enqueue(note("n2"))

	assert.Equal(t, models.DeliverySuppressed, store.statuses["n2"])
	_, resolved := store.statuses["n1"]
	assert.False(t, resolved)
}

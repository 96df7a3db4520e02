package alert

import (
	"log"

	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/metrics"
	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/models"
)

// Deliverer pushes one notification to the outside world (FCM, dashboard
// feed). Delivery failures only ever affect delivery status, never bin state.
type Deliverer interface {
	Deliver(n models.Notification) error
}

// Store persists notification records and their delivery outcomes.
type Store interface {
	InsertNotification(n models.Notification) error
	UpdateNotificationStatus(id string, status models.DeliveryStatus) error
}

// Dispatcher decouples notification delivery from telemetry ingestion: the
// engine's notifications are enqueued fire-and-forget and a single consumer
// goroutine walks the queue, so a slow push channel can never stall the
// registry's mutation path.
type Dispatcher struct {
	queue     chan models.Notification
	store     Store
	deliverer Deliverer
	done      chan struct{}
}

// NewDispatcher creates a dispatcher with the given queue depth. store and
// deliverer may be nil; undeliverable notifications are marked suppressed.
func NewDispatcher(store Store, deliverer Deliverer, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Dispatcher{
		queue:     make(chan models.Notification, buffer),
		store:     store,
		deliverer: deliverer,
		done:      make(chan struct{}),
	}
}

// Start launches the delivery consumer.
func (d *Dispatcher) Start() {
	go d.run()
}

// Stop closes the queue; the consumer drains what is left and exits.
func (d *Dispatcher) Stop() {
	close(d.queue)
	<-d.done
}

// Enqueue records the notification as pending and hands it to the delivery
// consumer. If the queue is full the notification is suppressed rather than
// blocking the caller.
func (d *Dispatcher) Enqueue(n models.Notification) {
	metrics.NotificationsEmitted.WithLabelValues(string(n.Severity), string(n.Reason)).Inc()
	if d.store != nil {
		if err := d.store.InsertNotification(n); err != nil {
			log.Printf("alert: store notification %s: %v", n.ID, err)
		}
	}
	select {
	case d.queue <- n:
	default:
		log.Printf("alert: delivery queue full, suppressing %s/%s for bin #%d", n.Severity, n.Reason, n.BinNumber)
		d.resolve(n.ID, models.DeliverySuppressed)
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for n := range d.queue {
		if d.deliverer == nil {
			d.resolve(n.ID, models.DeliverySuppressed)
			continue
		}
		if err := d.deliverer.Deliver(n); err != nil {
			log.Printf("alert: deliver %s/%s for bin #%d: %v", n.Severity, n.Reason, n.BinNumber, err)
			d.resolve(n.ID, models.DeliverySuppressed)
			continue
		}
		d.resolve(n.ID, models.DeliveryDelivered)
	}
}

func (d *Dispatcher) resolve(id string, status models.DeliveryStatus) {
	metrics.NotificationsResolved.WithLabelValues(string(status)).Inc()
	if d.store == nil {
		return
	}
	if err := d.store.UpdateNotificationStatus(id, status); err != nil {
		log.Printf("alert: update notification %s status: %v", id, err)
	}
}

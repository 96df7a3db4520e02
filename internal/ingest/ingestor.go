package ingest

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/alert"
	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/metrics"
	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/models"
	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/registry"
)

// Status classifies what happened to one reading. Duplicate and OutOfOrder
// are explicit non-error outcomes: clients can tell "nothing happened
// because it already happened" from "something broke".
type Status string

const (
	StatusAccepted        Status = "accepted"
	StatusDuplicate       Status = "duplicate"
	StatusOutOfOrder      Status = "out-of-order" // applied, but the sequence skipped past last+1
	StatusRejectedInvalid Status = "rejected-invalid"
)

// ErrUnavailable is returned when a reading kept colliding with concurrent
// mutations past the retry bound. The reading was not applied; the sensor
// link may redeliver it safely.
var ErrUnavailable = errors.New("bin busy, retries exhausted")

// errDuplicate aborts the compare-and-apply closure without mutating.
var errDuplicate = errors.New("duplicate sequence number")

const (
	maxConflictRetries = 5
	retryBackoff       = 2 * time.Millisecond
)

// Result is the outcome of one ingest call.
type Result struct {
	Status     Status `json:"status"`
	NewVersion int64  `json:"new_version,omitempty"`
	Gap        bool   `json:"gap,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// Archive keeps an insert-only copy of every accepted reading.
type Archive interface {
	InsertReading(r models.SensorReading, binVersion int64) error
}

// Broadcaster pushes accepted state changes to live dashboard clients.
type Broadcaster interface {
	BinUpdated(b *models.Bin)
}

// Ingestor validates sensor readings and applies them to bin state through
// the registry's compare-and-apply primitive.
type Ingestor struct {
	reg        *registry.Registry
	engine     *alert.Engine
	dispatcher *alert.Dispatcher
	archive    Archive
	broadcast  Broadcaster
}

// New wires an ingestor. archive and broadcast may be nil.
func New(reg *registry.Registry, engine *alert.Engine, dispatcher *alert.Dispatcher, archive Archive, broadcast Broadcaster) *Ingestor {
	return &Ingestor{
		reg:        reg,
		engine:     engine,
		dispatcher: dispatcher,
		archive:    archive,
		broadcast:  broadcast,
	}
}

// Ingest applies one reading. The per-device duplicate check runs inside
// the compare-and-apply closure so redelivery from an unreliable sensor
// link can never double-apply, even under concurrent action commands.
// Version conflicts (a command slipped in between read and write) retry up
// to maxConflictRetries with a small fixed backoff, then surface as
// ErrUnavailable.
func (ing *Ingestor) Ingest(reading models.SensorReading) (Result, error) {
	if reading.BinID == "" {
		return ing.reject("bin_id is required"), nil
	}
	if reading.FillPercentage < 0 || reading.FillPercentage > 100 {
		return ing.reject(fmt.Sprintf("fill_percentage %d outside [0,100]", reading.FillPercentage)), nil
	}
	if reading.SequenceNumber <= 0 {
		return ing.reject("sequence_number must be positive"), nil
	}

	deviceID := reading.DeviceID
	if deviceID == "" {
		// Reading from the bin's built-in sensor.
		deviceID = reading.BinID
	}

	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		snapshot, err := ing.reg.Get(reading.BinID)
		if errors.Is(err, registry.ErrNotFound) {
			return ing.reject("unknown bin"), nil
		}

		var (
			gap   bool
			notes []models.Notification
		)
		newBin, err := ing.reg.CompareAndApply(reading.BinID, snapshot.Version, func(b *models.Bin) error {
			last := b.DeviceSeqs[deviceID]
			if reading.SequenceNumber <= last {
				return errDuplicate
			}
			gap = last != 0 && reading.SequenceNumber != last+1

			prev := b.Clone()
			b.FillPercentage = reading.FillPercentage
			b.BatteryLow = reading.Health.BatteryLow
			b.DeviceFault = reading.Health.DeviceFault
			if reading.Health.DeviceFault {
				// External fault signal: any lid state may drop to fault.
				b.LidState = models.LidFault
			}
			ts := reading.DeviceTime
			if ts == 0 {
				ts = time.Now().Unix()
			}
			b.LastReadingAt = &ts
			if b.DeviceSeqs == nil {
				b.DeviceSeqs = make(map[string]int64)
			}
			b.DeviceSeqs[deviceID] = reading.SequenceNumber

			notes = ing.engine.Evaluate(prev, b)
			return nil
		})

		switch {
		case errors.Is(err, errDuplicate):
			metrics.ReadingsIngested.WithLabelValues(string(StatusDuplicate)).Inc()
			return Result{Status: StatusDuplicate}, nil
		case errors.Is(err, registry.ErrNotFound):
			return ing.reject("unknown bin"), nil
		case errors.Is(err, registry.ErrVersionConflict):
			// A concurrent action command moved the version. Conflicts are
			// rare and resolve quickly; back off briefly and redo the step.
			metrics.ConflictRetries.Inc()
			time.Sleep(retryBackoff)
			continue
		case err != nil:
			return Result{}, err
		}

		ing.commit(reading, newBin, notes)

		status := StatusAccepted
		if gap {
			status = StatusOutOfOrder
			metrics.SequenceGaps.Inc()
		}
		metrics.ReadingsIngested.WithLabelValues(string(status)).Inc()
		return Result{Status: status, NewVersion: newBin.Version, Gap: gap}, nil
	}

	metrics.ReadingsIngested.WithLabelValues("unavailable").Inc()
	return Result{}, ErrUnavailable
}

// commit runs the fire-and-forget follow-ups of an accepted reading:
// notification handoff, archive row, dashboard broadcast. None of them can
// fail ingestion.
func (ing *Ingestor) commit(reading models.SensorReading, newBin *models.Bin, notes []models.Notification) {
	for _, n := range notes {
		ing.dispatcher.Enqueue(n)
	}
	if ing.archive != nil {
		if err := ing.archive.InsertReading(reading, newBin.Version); err != nil {
			log.Printf("ingest: archive reading bin=%s seq=%d: %v", reading.BinID, reading.SequenceNumber, err)
		}
	}
	if ing.broadcast != nil {
		ing.broadcast.BinUpdated(newBin)
	}
}

func (ing *Ingestor) reject(detail string) Result {
	metrics.ReadingsIngested.WithLabelValues(string(StatusRejectedInvalid)).Inc()
	return Result{Status: StatusRejectedInvalid, Detail: detail}
}

package database

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AzahwaCelinaLatifa/smartecobin-pangaea/internal/models"
)

func newMockStore(t *testing.T) (*BinStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewBinStore(sqlx.NewDb(db, "sqlmock")), mock
}

func TestSaveBinUpsertsWithVersionGuard(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bins")).
		WithArgs("bin-1", 7, "north", nil, nil, 240,
			85, "closed", false, false,
			nil, nil, int64(3), []byte(`{"bin-1":12}`), []byte(`{"fill-threshold":"warning"}`),
			int64(1756700000), int64(1756700100)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.SaveBin(&models.Bin{
		ID:             "bin-1",
		BinNumber:      7,
		Zone:           "north",
		CapacityLiters: 240,
		FillPercentage: 85,
		LidState:       models.LidClosed,
		Version:        3,
		DeviceSeqs:     map[string]int64{"bin-1": 12},
		ActiveAlerts:   map[models.ReasonCode]models.Severity{models.ReasonFillThreshold: models.SeverityWarning},
		CreatedAt:      1756700000,
		UpdatedAt:      1756700100,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteBin(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bins WHERE id = $1")).
		WithArgs("bin-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.DeleteBin("bin-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadBinsRestoresMaps(t *testing.T) {
	store, mock := newMockStore(t)

	cols := []string{"id", "bin_number", "zone", "latitude", "longitude", "capacity_liters",
		"fill_percentage", "lid_state", "battery_low", "device_fault",
		"last_reading_at", "last_action_at", "version", "device_seqs", "active_alerts",
		"created_at", "updated_at"}

	mock.ExpectQuery("SELECT (.+) FROM bins").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("bin-1", 1, "north", nil, nil, 240,
				85, "closed", false, false,
				nil, nil, int64(3), []byte(`{"bin-1":12}`), []byte(`{"fill-threshold":"warning"}`),
				int64(1756700000), int64(1756700100)).
			AddRow("bin-2", 2, "south", nil, nil, 120,
				10, "fault", false, true,
				int64(1756700050), nil, int64(9), []byte(`{}`), []byte(`{}`),
				int64(1756700000), int64(1756700200)))

	bins, err := store.LoadBins()
	require.NoError(t, err)
	require.Len(t, bins, 2)

	assert.Equal(t, "bin-1", bins[0].ID)
	assert.Equal(t, models.LidClosed, bins[0].LidState)
	assert.Equal(t, int64(3), bins[0].Version)
	assert.Equal(t, int64(12), bins[0].DeviceSeqs["bin-1"])
	assert.Equal(t, models.SeverityWarning, bins[0].ActiveAlerts[models.ReasonFillThreshold])

	assert.Equal(t, models.LidFault, bins[1].LidState)
	assert.True(t, bins[1].DeviceFault)
	require.NotNil(t, bins[1].LastReadingAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

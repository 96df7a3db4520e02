package database

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func Connect(dbURL string) (*sqlx.DB, error) {
	log.Println("🔌 Connecting to Postgres...")

	db, err := sqlx.Connect("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Database connection established")
	return db, nil
}

func Migrate(db *sqlx.DB) error {
	migrations := []string{
		// Create users table
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			name TEXT NOT NULL,
			role TEXT NOT NULL CHECK(role IN ('officer', 'admin')),
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		// Create bins table (registry snapshots; the in-memory registry is
		// authoritative, this table survives restarts and feeds dashboards)
		`CREATE TABLE IF NOT EXISTS bins (
			id TEXT PRIMARY KEY,
			bin_number INT NOT NULL UNIQUE,
			zone TEXT NOT NULL DEFAULT '',
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			capacity_liters INT NOT NULL DEFAULT 0,
			fill_percentage INT NOT NULL DEFAULT 0 CHECK(fill_percentage BETWEEN 0 AND 100),
			lid_state TEXT NOT NULL DEFAULT 'closed' CHECK(lid_state IN ('closed', 'open', 'compacting', 'fault')),
			battery_low BOOLEAN NOT NULL DEFAULT FALSE,
			device_fault BOOLEAN NOT NULL DEFAULT FALSE,
			last_reading_at BIGINT,
			last_action_at BIGINT,
			version BIGINT NOT NULL DEFAULT 0,
			device_seqs JSONB NOT NULL DEFAULT '{}'::JSONB,
			active_alerts JSONB NOT NULL DEFAULT '{}'::JSONB,
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		// Create sensor_readings archive (insert-only)
		`CREATE TABLE IF NOT EXISTS sensor_readings (
			id SERIAL PRIMARY KEY,
			bin_id TEXT NOT NULL,
			device_id TEXT NOT NULL,
			fill_percentage INT NOT NULL,
			sequence_number BIGINT NOT NULL,
			device_timestamp BIGINT NOT NULL,
			battery_low BOOLEAN NOT NULL DEFAULT FALSE,
			device_fault BOOLEAN NOT NULL DEFAULT FALSE,
			bin_version BIGINT NOT NULL,
			received_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (bin_id) REFERENCES bins(id) ON DELETE CASCADE
		)`,

		// Create notifications table
		`CREATE TABLE IF NOT EXISTS notifications (
			id TEXT PRIMARY KEY,
			bin_id TEXT NOT NULL,
			bin_number INT NOT NULL DEFAULT 0,
			severity TEXT NOT NULL CHECK(severity IN ('info', 'warning', 'critical')),
			reason TEXT NOT NULL,
			message TEXT NOT NULL,
			bin_version BIGINT NOT NULL DEFAULT 0,
			delivery_status TEXT NOT NULL DEFAULT 'pending' CHECK(delivery_status IN ('pending', 'delivered', 'suppressed')),
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`,

		// Create action_commands audit table (rows are never mutated after
		// resolution; the insert happens at resolution time)
		`CREATE TABLE IF NOT EXISTS action_commands (
			id TEXT PRIMARY KEY,
			bin_id TEXT NOT NULL,
			command_type TEXT NOT NULL,
			requester_id TEXT NOT NULL DEFAULT '',
			requester_role TEXT NOT NULL,
			requested_at BIGINT NOT NULL,
			issued_version BIGINT NOT NULL DEFAULT 0,
			outcome TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			resolved_version BIGINT NOT NULL DEFAULT 0,
			resolved_at BIGINT NOT NULL DEFAULT 0
		)`,

		// Create FCM tokens table
		`CREATE TABLE IF NOT EXISTS fcm_tokens (
			id SERIAL PRIMARY KEY,
			user_id TEXT NOT NULL,
			token TEXT NOT NULL UNIQUE,
			device_type TEXT NOT NULL CHECK(device_type IN ('ios', 'android')),
			created_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			updated_at BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		)`,

		// Create indexes
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_sensor_readings_bin_id ON sensor_readings(bin_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sensor_readings_received_at ON sensor_readings(received_at)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_bin_id ON notifications(bin_id)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_created_at ON notifications(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_delivery_status ON notifications(delivery_status)`,
		`CREATE INDEX IF NOT EXISTS idx_action_commands_bin_id ON action_commands(bin_id)`,
		`CREATE INDEX IF NOT EXISTS idx_action_commands_requested_at ON action_commands(requested_at)`,
		`CREATE INDEX IF NOT EXISTS idx_fcm_tokens_user_id ON fcm_tokens(user_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_fcm_tokens_token ON fcm_tokens(token)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}

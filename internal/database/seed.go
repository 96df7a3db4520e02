package database

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

func SeedUsers(db *sqlx.DB) error {
	// Check if users already exist
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM users"); err != nil {
		return err
	}

	if count > 0 {
		log.Println("✓ Users already seeded, skipping...")
		return nil
	}

	users := []struct {
		Email    string
		Password string
		Name     string
		Role     string
	}{
		{"admin@smartecobin.io", "admin123", "Fleet Admin", "admin"},
		{"officer@smartecobin.io", "officer123", "Sanitation Officer", "officer"},
	}

	for _, u := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		_, err = db.Exec(`
			INSERT INTO users (id, email, password, name, role)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.New().String(), u.Email, string(hash), u.Name, u.Role)
		if err != nil {
			return err
		}
	}

	log.Printf("🌱 Seeded %d users", len(users))
	return nil
}

func SeedBins(db *sqlx.DB) error {
	// Check if bins already exist
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM bins"); err != nil {
		return err
	}

	if count > 0 {
		log.Println("✓ Bins already seeded, skipping...")
		return nil
	}

	bins := []map[string]interface{}{
		{"bin_number": 1, "zone": "Downtown Plaza", "capacity_liters": 240, "fill_percentage": 45, "latitude": 37.3329, "longitude": -121.8866},
		{"bin_number": 2, "zone": "Downtown Plaza", "capacity_liters": 240, "fill_percentage": 67, "latitude": 37.3361, "longitude": -121.8869},
		{"bin_number": 3, "zone": "Convention Center", "capacity_liters": 360, "fill_percentage": 23, "latitude": 37.3343, "longitude": -121.8936},
		{"bin_number": 4, "zone": "Convention Center", "capacity_liters": 360, "fill_percentage": 89, "latitude": 37.3313, "longitude": -121.8917},
		{"bin_number": 5, "zone": "Park Avenue", "capacity_liters": 240, "fill_percentage": 12, "latitude": 37.3351, "longitude": -121.8894},
		{"bin_number": 6, "zone": "Park Avenue", "capacity_liters": 240, "fill_percentage": 78, "latitude": 37.3352, "longitude": -121.8931},
		{"bin_number": 7, "zone": "East Market", "capacity_liters": 120, "fill_percentage": 56, "latitude": 37.3357, "longitude": -121.8826},
		{"bin_number": 8, "zone": "East Market", "capacity_liters": 120, "fill_percentage": 34, "latitude": 37.3339, "longitude": -121.8905},
	}

	emptySeqs, _ := json.Marshal(map[string]int64{})

	for _, bin := range bins {
		_, err := db.Exec(`
			INSERT INTO bins (id, bin_number, zone, capacity_liters, fill_percentage, lid_state, latitude, longitude, device_seqs, active_alerts)
			VALUES ($1, $2, $3, $4, $5, 'closed', $6, $7, $8, $9)
		`, uuid.New().String(), bin["bin_number"], bin["zone"], bin["capacity_liters"],
			bin["fill_percentage"], bin["latitude"], bin["longitude"], emptySeqs, emptySeqs)
		if err != nil {
			return err
		}
	}

	log.Printf("🌱 Seeded %d bins", len(bins))
	return nil
}

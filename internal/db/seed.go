package db

import (
	"database/sql"
	"fmt"
	"time"
)

// Fixture IDs created by SeedFixtures.
const (
	FixtureAgencyID = "agency-metro"
	FixtureTeamID   = "team-north"
)

// SeedFixtures populates the database with development fixtures: one agency,
// one team and a small surveillance squad. Seeding twice is a no-op.
func SeedFixtures(database *sql.DB) error {
	now := time.Now().UTC()

	tx, err := database.Begin()
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT OR IGNORE INTO agencies (id, name, created_at) VALUES (?, ?, ?)",
		FixtureAgencyID, "Metro Police Department", now,
	); err != nil {
		return fmt.Errorf("seed agencies: %w", err)
	}

	if _, err := tx.Exec(
		"INSERT OR IGNORE INTO teams (id, agency_id, name, created_at) VALUES (?, ?, ?, ?)",
		FixtureTeamID, FixtureAgencyID, "North Surveillance", now,
	); err != nil {
		return fmt.Errorf("seed teams: %w", err)
	}

	users := []struct{ id, name, callsign, vehicleType, vehicleColor string }{
		{"user-reyes", "Dana Reyes", "Nora 1", "sedan", "gray"},
		{"user-okafor", "Sam Okafor", "Nora 2", "pickup", "white"},
		{"user-lindqvist", "Jo Lindqvist", "Nora 3", "hatchback", "blue"},
		{"user-park", "Min Park", "Nora 4", "suv", "black"},
	}
	for _, u := range users {
		if _, err := tx.Exec(
			`INSERT OR IGNORE INTO users (id, team_id, agency_id, name, callsign, vehicle_type, vehicle_color, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			u.id, FixtureTeamID, FixtureAgencyID, u.name, u.callsign, u.vehicleType, u.vehicleColor, now,
		); err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
	}

	return tx.Commit()
}

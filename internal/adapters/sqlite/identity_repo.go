package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/stakeout/internal/ports/secondary"
)

// IdentityRepository implements secondary.IdentityRepository with SQLite.
type IdentityRepository struct {
	db *sql.DB
}

// NewIdentityRepository creates a new SQLite identity repository.
func NewIdentityRepository(db *sql.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// CreateAgency persists a new agency.
func (r *IdentityRepository) CreateAgency(ctx context.Context, agency *secondary.AgencyRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO agencies (id, name, created_at) VALUES (?, ?, ?)",
		agency.ID, agency.Name, agency.CreatedAt,
	)
	if err != nil {
		return storeErr("create agency", err)
	}
	return nil
}

// CreateTeam persists a new team.
func (r *IdentityRepository) CreateTeam(ctx context.Context, team *secondary.TeamRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO teams (id, agency_id, name, created_at) VALUES (?, ?, ?, ?)",
		team.ID, team.AgencyID, team.Name, team.CreatedAt,
	)
	if err != nil {
		return storeErr("create team", err)
	}
	return nil
}

// CreateUser persists a new user.
func (r *IdentityRepository) CreateUser(ctx context.Context, user *secondary.UserRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, team_id, agency_id, name, callsign, vehicle_type, vehicle_color, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.TeamID, user.AgencyID, user.Name,
		nullString(user.Callsign), nullString(user.VehicleType), nullString(user.VehicleColor),
		user.CreatedAt,
	)
	if err != nil {
		return storeErr("create user", err)
	}
	return nil
}

// UpdateProfile updates the mutable profile fields of a user.
func (r *IdentityRepository) UpdateProfile(ctx context.Context, userID, callsign, vehicleType, vehicleColor string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE users SET callsign = ?, vehicle_type = ?, vehicle_color = ? WHERE id = ?",
		nullString(callsign), nullString(vehicleType), nullString(vehicleColor), userID,
	)
	if err != nil {
		return storeErr("update profile", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound("user", userID)
	}
	return nil
}

// GetAgency retrieves an agency by its ID.
func (r *IdentityRepository) GetAgency(ctx context.Context, id string) (*secondary.AgencyRecord, error) {
	record := &secondary.AgencyRecord{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM agencies WHERE id = ?", id,
	).Scan(&record.ID, &record.Name, &record.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("agency", id)
	}
	if err != nil {
		return nil, storeErr("get agency", err)
	}
	return record, nil
}

// GetTeam retrieves a team by its ID.
func (r *IdentityRepository) GetTeam(ctx context.Context, id string) (*secondary.TeamRecord, error) {
	record := &secondary.TeamRecord{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, agency_id, name, created_at FROM teams WHERE id = ?", id,
	).Scan(&record.ID, &record.AgencyID, &record.Name, &record.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("team", id)
	}
	if err != nil {
		return nil, storeErr("get team", err)
	}
	return record, nil
}

const userColumns = "id, team_id, agency_id, name, callsign, vehicle_type, vehicle_color, created_at"

// GetUser retrieves a user by its ID.
func (r *IdentityRepository) GetUser(ctx context.Context, id string) (*secondary.UserRecord, error) {
	record, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", id)
	}
	if err != nil {
		return nil, storeErr("get user", err)
	}
	return record, nil
}

// ListUsers retrieves users matching the given filters, ordered by name.
func (r *IdentityRepository) ListUsers(ctx context.Context, filters secondary.UserFilters) ([]*secondary.UserRecord, error) {
	var conditions []string
	var args []any
	if filters.TeamID != "" {
		conditions = append(conditions, "team_id = ?")
		args = append(args, filters.TeamID)
	}
	if filters.AgencyID != "" {
		conditions = append(conditions, "agency_id = ?")
		args = append(args, filters.AgencyID)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users"+where(conditions)+" ORDER BY name ASC", args...)
	if err != nil {
		return nil, storeErr("list users", err)
	}
	defer rows.Close()

	var users []*secondary.UserRecord
	for rows.Next() {
		record, err := scanUser(rows)
		if err != nil {
			return nil, storeErr("scan user", err)
		}
		users = append(users, record)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list users", err)
	}
	return users, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*secondary.UserRecord, error) {
	var callsign, vehicleType, vehicleColor sql.NullString
	record := &secondary.UserRecord{}
	err := row.Scan(&record.ID, &record.TeamID, &record.AgencyID, &record.Name,
		&callsign, &vehicleType, &vehicleColor, &record.CreatedAt)
	if err != nil {
		return nil, err
	}
	record.CreatedAt = record.CreatedAt.UTC()
	record.Callsign = callsign.String
	record.VehicleType = vehicleType.String
	record.VehicleColor = vehicleColor.String
	return record, nil
}

// Ensure IdentityRepository implements the interface.
var _ secondary.IdentityRepository = (*IdentityRepository)(nil)

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/stakeout/internal/ports/secondary"
)

// AssignmentRepository implements secondary.AssignmentRepository with SQLite.
type AssignmentRepository struct {
	db *sql.DB
}

// NewAssignmentRepository creates a new SQLite assignment repository.
func NewAssignmentRepository(db *sql.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create persists a new assignment.
func (r *AssignmentRepository) Create(ctx context.Context, a *secondary.AssignmentRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO assigned_locations (id, operation_id, assigned_by_user_id, assigned_to_user_id, lat, lng,
		                                 label, notes, status, assigned_at, updated_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.OperationID, a.AssignedByUserID, a.AssignedToUserID, a.Lat, a.Lng,
		nullString(a.Label), nullString(a.Notes), a.Status, a.AssignedAt,
		nullTime(a.UpdatedAt), nullTime(a.CompletedAt),
	)
	if err != nil {
		return storeErr("create assignment", err)
	}
	return nil
}

const assignmentColumns = `id, operation_id, assigned_by_user_id, assigned_to_user_id, lat, lng,
	label, notes, status, assigned_at, updated_at, completed_at`

// GetByID retrieves an assignment by its ID.
func (r *AssignmentRepository) GetByID(ctx context.Context, id string) (*secondary.AssignmentRecord, error) {
	record, err := scanAssignment(r.db.QueryRowContext(ctx,
		"SELECT "+assignmentColumns+" FROM assigned_locations WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("assignment", id)
	}
	if err != nil {
		return nil, storeErr("get assignment", err)
	}
	return record, nil
}

// List retrieves assignments matching the given filters, newest first.
func (r *AssignmentRepository) List(ctx context.Context, filters secondary.AssignmentFilters) ([]*secondary.AssignmentRecord, error) {
	var conditions []string
	var args []any
	if filters.OperationID != "" {
		conditions = append(conditions, "operation_id = ?")
		args = append(args, filters.OperationID)
	}
	if filters.AssignedToUserID != "" {
		conditions = append(conditions, "assigned_to_user_id = ?")
		args = append(args, filters.AssignedToUserID)
	}
	if len(filters.Statuses) > 0 {
		conditions = append(conditions, "status IN ("+placeholders(len(filters.Statuses))+")")
		for _, s := range filters.Statuses {
			args = append(args, s)
		}
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+assignmentColumns+" FROM assigned_locations"+where(conditions)+
			" ORDER BY assigned_at DESC, rowid DESC",
		args...)
	if err != nil {
		return nil, storeErr("list assignments", err)
	}
	defer rows.Close()

	var assignments []*secondary.AssignmentRecord
	for rows.Next() {
		record, err := scanAssignment(rows)
		if err != nil {
			return nil, storeErr("scan assignment", err)
		}
		assignments = append(assignments, record)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list assignments", err)
	}
	return assignments, nil
}

// UpdateStatus writes a status transition. completedAt is only written when set.
func (r *AssignmentRepository) UpdateStatus(ctx context.Context, id, status string, updatedAt time.Time, completedAt *time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE assigned_locations SET status = ?, updated_at = ?, completed_at = COALESCE(?, completed_at)
		 WHERE id = ?`,
		status, updatedAt, nullTime(completedAt), id,
	)
	if err != nil {
		return storeErr("update assignment", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound("assignment", id)
	}
	return nil
}

func scanAssignment(row scanner) (*secondary.AssignmentRecord, error) {
	var (
		label, notes           sql.NullString
		updatedAt, completedAt sql.NullTime
	)
	record := &secondary.AssignmentRecord{}
	err := row.Scan(&record.ID, &record.OperationID, &record.AssignedByUserID, &record.AssignedToUserID,
		&record.Lat, &record.Lng, &label, &notes, &record.Status, &record.AssignedAt, &updatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	record.Label = label.String
	record.Notes = notes.String
	record.AssignedAt = record.AssignedAt.UTC()
	record.UpdatedAt = timePtr(updatedAt)
	record.CompletedAt = timePtr(completedAt)
	return record, nil
}

// Ensure AssignmentRepository implements the interface.
var _ secondary.AssignmentRepository = (*AssignmentRepository)(nil)

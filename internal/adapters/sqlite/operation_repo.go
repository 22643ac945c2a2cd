package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/stakeout/internal/core/guard"
	"github.com/example/stakeout/internal/ports/secondary"
)

// OperationRepository implements secondary.OperationRepository with SQLite.
type OperationRepository struct {
	db *sql.DB
}

// NewOperationRepository creates a new SQLite operation repository.
func NewOperationRepository(db *sql.DB) *OperationRepository {
	return &OperationRepository{db: db}
}

// Create persists a new operation together with its case agent membership.
func (r *OperationRepository) Create(ctx context.Context, op *secondary.OperationRecord, caseAgent *secondary.MemberRecord) error {
	return withTx(ctx, r.db, "create operation", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO operations (id, name, incident_number, state, created_by_user_id, team_id, agency_id,
			                         created_at, updated_at, starts_at, ends_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			op.ID, op.Name, nullString(op.IncidentNumber), op.State, op.CreatedByUserID,
			nullString(op.TeamID), nullString(op.AgencyID),
			op.CreatedAt, op.UpdatedAt, nullTime(op.StartsAt), nullTime(op.EndsAt),
		)
		if err != nil {
			return storeErr("create operation", err)
		}
		if caseAgent != nil {
			if _, err := upsertMember(ctx, tx, caseAgent); err != nil {
				return err
			}
		}
		return nil
	})
}

const operationColumns = `id, name, incident_number, state, created_by_user_id, team_id, agency_id,
	created_at, updated_at, starts_at, ends_at`

// GetByID retrieves an operation by its ID.
func (r *OperationRepository) GetByID(ctx context.Context, id string) (*secondary.OperationRecord, error) {
	record, err := scanOperation(r.db.QueryRowContext(ctx,
		"SELECT "+operationColumns+" FROM operations WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("operation", id)
	}
	if err != nil {
		return nil, storeErr("get operation", err)
	}
	return record, nil
}

// Update edits name and incident number.
func (r *OperationRepository) Update(ctx context.Context, id, name, incidentNumber string, updatedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE operations SET name = ?, incident_number = ?, updated_at = ? WHERE id = ?",
		name, nullString(incidentNumber), updatedAt, id,
	)
	if err != nil {
		return storeErr("update operation", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound("operation", id)
	}
	return nil
}

// Start moves a draft operation to active.
func (r *OperationRepository) Start(ctx context.Context, id string, startsAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE operations SET state = 'active', starts_at = ?, updated_at = ? WHERE id = ? AND state = 'draft'",
		startsAt, startsAt, id,
	)
	if err != nil {
		return storeErr("start operation", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: operation %s is not a draft", guard.ErrInvalidTransition, id)
	}
	return nil
}

// End moves an operation to ended and marks every current member as left.
func (r *OperationRepository) End(ctx context.Context, id string, endsAt time.Time) error {
	return withTx(ctx, r.db, "end operation", func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			"UPDATE operations SET state = 'ended', ends_at = ?, updated_at = ? WHERE id = ? AND state != 'ended'",
			endsAt, endsAt, id,
		)
		if err != nil {
			return storeErr("end operation", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: operation %s has already ended", guard.ErrInvalidTransition, id)
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE operation_members SET left_at = ?, is_active = 0 WHERE operation_id = ? AND left_at IS NULL",
			endsAt, id,
		)
		if err != nil {
			return storeErr("release members", err)
		}
		return nil
	})
}

// List retrieves operations matching the given filters, newest first.
func (r *OperationRepository) List(ctx context.Context, filters secondary.OperationFilters) ([]*secondary.OperationRecord, error) {
	var conditions []string
	var args []any
	if filters.AgencyID != "" {
		conditions = append(conditions, "agency_id = ?")
		args = append(args, filters.AgencyID)
	}
	if len(filters.States) > 0 {
		conditions = append(conditions, "state IN ("+placeholders(len(filters.States))+")")
		for _, s := range filters.States {
			args = append(args, s)
		}
	}
	if filters.MemberID != "" {
		conditions = append(conditions,
			"EXISTS (SELECT 1 FROM operation_members m WHERE m.operation_id = operations.id AND m.user_id = ?)")
		args = append(args, filters.MemberID)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+operationColumns+" FROM operations"+where(conditions)+
			" ORDER BY COALESCE(ends_at, created_at) DESC, created_at DESC",
		args...)
	if err != nil {
		return nil, storeErr("list operations", err)
	}
	defer rows.Close()

	var operations []*secondary.OperationRecord
	for rows.Next() {
		record, err := scanOperation(rows)
		if err != nil {
			return nil, storeErr("scan operation", err)
		}
		operations = append(operations, record)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list operations", err)
	}
	return operations, nil
}

func scanOperation(row scanner) (*secondary.OperationRecord, error) {
	var (
		incident, teamID, agencyID sql.NullString
		startsAt, endsAt           sql.NullTime
	)
	record := &secondary.OperationRecord{}
	err := row.Scan(&record.ID, &record.Name, &incident, &record.State, &record.CreatedByUserID,
		&teamID, &agencyID, &record.CreatedAt, &record.UpdatedAt, &startsAt, &endsAt)
	if err != nil {
		return nil, err
	}
	record.IncidentNumber = incident.String
	record.TeamID = teamID.String
	record.AgencyID = agencyID.String
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	record.StartsAt = timePtr(startsAt)
	record.EndsAt = timePtr(endsAt)
	return record, nil
}

// Ensure OperationRepository implements the interface.
var _ secondary.OperationRepository = (*OperationRepository)(nil)

package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/stakeout/internal/ports/secondary"
)

// StagingRepository implements secondary.StagingRepository with SQLite.
type StagingRepository struct {
	db *sql.DB
}

// NewStagingRepository creates a new SQLite staging point repository.
func NewStagingRepository(db *sql.DB) *StagingRepository {
	return &StagingRepository{db: db}
}

// Create persists a staging point.
func (r *StagingRepository) Create(ctx context.Context, point *secondary.StagingRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO staging_points (id, operation_id, label, address, lat, lng, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		point.ID, point.OperationID, point.Label, nullString(point.Address), point.Lat, point.Lng, point.CreatedAt,
	)
	if err != nil {
		return storeErr("create staging point", err)
	}
	return nil
}

// Delete removes a staging point.
func (r *StagingRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM staging_points WHERE id = ?", id)
	if err != nil {
		return storeErr("delete staging point", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound("staging point", id)
	}
	return nil
}

// ListByOperation retrieves all staging points of an operation in creation order.
func (r *StagingRepository) ListByOperation(ctx context.Context, operationID string) ([]*secondary.StagingRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, operation_id, label, address, lat, lng, created_at
		 FROM staging_points WHERE operation_id = ? ORDER BY created_at ASC, rowid ASC`,
		operationID)
	if err != nil {
		return nil, storeErr("list staging points", err)
	}
	defer rows.Close()

	var points []*secondary.StagingRecord
	for rows.Next() {
		var address sql.NullString
		record := &secondary.StagingRecord{}
		err := rows.Scan(&record.ID, &record.OperationID, &record.Label, &address, &record.Lat, &record.Lng, &record.CreatedAt)
		if err != nil {
			return nil, storeErr("scan staging point", err)
		}
		record.Address = address.String
		record.CreatedAt = record.CreatedAt.UTC()
		points = append(points, record)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list staging points", err)
	}
	return points, nil
}

// Ensure StagingRepository implements the interface.
var _ secondary.StagingRepository = (*StagingRepository)(nil)

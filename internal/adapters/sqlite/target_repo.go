package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/example/stakeout/internal/ports/secondary"
)

// TargetRepository implements secondary.TargetRepository with SQLite.
type TargetRepository struct {
	db *sql.DB
}

// NewTargetRepository creates a new SQLite target repository.
func NewTargetRepository(db *sql.DB) *TargetRepository {
	return &TargetRepository{db: db}
}

// Create persists a target and its inline images in one transaction.
func (r *TargetRepository) Create(ctx context.Context, target *secondary.TargetRecord) error {
	fields, err := json.Marshal(target.Fields)
	if err != nil {
		return storeErr("encode target fields", err)
	}
	if target.Fields == nil {
		fields = []byte("{}")
	}

	return withTx(ctx, r.db, "create target", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO op_targets (id, operation_id, kind, status, fields, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			target.ID, target.OperationID, target.Kind, target.Status, string(fields), target.CreatedAt,
		)
		if err != nil {
			return storeErr("create target", err)
		}

		for _, img := range target.Images {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO op_target_images (id, target_id, storage_kind, filename, remote_url, local_path,
				                               caption, width, height, byte_size, position, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				img.ID, target.ID, img.StorageKind, img.Filename,
				nullString(img.RemoteURL), nullString(img.LocalPath), nullString(img.Caption),
				img.Width, img.Height, img.ByteSize, img.Position, img.CreatedAt,
			)
			if err != nil {
				return storeErr("create target image", err)
			}
		}
		return nil
	})
}

// Delete removes a target. Its images go with it through the cascade.
func (r *TargetRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM op_targets WHERE id = ?", id)
	if err != nil {
		return storeErr("delete target", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound("target", id)
	}
	return nil
}

// ListByOperation retrieves all targets of an operation with their images,
// in creation order.
func (r *TargetRepository) ListByOperation(ctx context.Context, operationID string) ([]*secondary.TargetRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, operation_id, kind, status, fields, created_at
		 FROM op_targets WHERE operation_id = ? ORDER BY created_at ASC, rowid ASC`,
		operationID)
	if err != nil {
		return nil, storeErr("list targets", err)
	}
	defer rows.Close()

	var targets []*secondary.TargetRecord
	byID := make(map[string]*secondary.TargetRecord)
	for rows.Next() {
		var fields string
		record := &secondary.TargetRecord{}
		if err := rows.Scan(&record.ID, &record.OperationID, &record.Kind, &record.Status, &fields, &record.CreatedAt); err != nil {
			return nil, storeErr("scan target", err)
		}
		record.CreatedAt = record.CreatedAt.UTC()
		if err := json.Unmarshal([]byte(fields), &record.Fields); err != nil {
			return nil, storeErr("decode target fields", err)
		}
		targets = append(targets, record)
		byID[record.ID] = record
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list targets", err)
	}
	if len(targets) == 0 {
		return targets, nil
	}

	imgRows, err := r.db.QueryContext(ctx,
		`SELECT i.id, i.target_id, i.storage_kind, i.filename, i.remote_url, i.local_path, i.caption,
		        i.width, i.height, i.byte_size, i.position, i.created_at
		 FROM op_target_images i JOIN op_targets t ON t.id = i.target_id
		 WHERE t.operation_id = ? ORDER BY i.target_id, i.position ASC`,
		operationID)
	if err != nil {
		return nil, storeErr("list target images", err)
	}
	defer imgRows.Close()

	for imgRows.Next() {
		var (
			targetID                      string
			remoteURL, localPath, caption sql.NullString
			width, height, byteSize       sql.NullInt64
			img                           secondary.TargetImageRecord
		)
		err := imgRows.Scan(&img.ID, &targetID, &img.StorageKind, &img.Filename, &remoteURL, &localPath, &caption,
			&width, &height, &byteSize, &img.Position, &img.CreatedAt)
		if err != nil {
			return nil, storeErr("scan target image", err)
		}
		img.RemoteURL = remoteURL.String
		img.LocalPath = localPath.String
		img.Caption = caption.String
		img.Width = int(width.Int64)
		img.Height = int(height.Int64)
		img.ByteSize = byteSize.Int64
		img.CreatedAt = img.CreatedAt.UTC()
		if t, ok := byID[targetID]; ok {
			t.Images = append(t.Images, img)
		}
	}
	if err := imgRows.Err(); err != nil {
		return nil, storeErr("list target images", err)
	}
	return targets, nil
}

// Ensure TargetRepository implements the interface.
var _ secondary.TargetRepository = (*TargetRepository)(nil)

package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"mediarelay/internal/models"
)

// UploadRepository is the append-only history of finalized uploads. Pending
// candidates never reach the database.
type UploadRepository struct {
	pool *pgxpool.Pool
}

func NewUploadRepository(pool *pgxpool.Pool) *UploadRepository {
	return &UploadRepository{pool: pool}
}

// EnsureSchema creates the uploads table on first start.
func (r *UploadRepository) EnsureSchema(ctx context.Context) error {
	const query = `
		CREATE TABLE IF NOT EXISTS uploads (
			id TEXT PRIMARY KEY,
			handle TEXT NOT NULL,
			kind TEXT NOT NULL,
			file_name TEXT NOT NULL,
			mime_type TEXT NOT NULL,
			size_bytes BIGINT NOT NULL,
			caption TEXT NOT NULL DEFAULT '',
			storage_url TEXT NOT NULL,
			uploaded_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_uploads_uploaded_at ON uploads (uploaded_at DESC);
	`
	_, err := r.pool.Exec(ctx, query)
	return err
}

func (r *UploadRepository) Record(ctx context.Context, rec models.UploadRecord) error {
	const query = `
		INSERT INTO uploads (
			id, handle, kind, file_name, mime_type, size_bytes, caption, storage_url, uploaded_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	_, err := r.pool.Exec(ctx, query,
		rec.ID,
		rec.Handle,
		rec.Kind,
		rec.FileName,
		rec.MimeType,
		rec.SizeBytes,
		rec.Caption,
		rec.StorageURL,
		rec.UploadedAt,
	)
	return err
}

func (r *UploadRepository) ListRecent(ctx context.Context, limit int) ([]models.UploadRecord, error) {
	const query = `
		SELECT id, handle, kind, file_name, mime_type, size_bytes, caption, storage_url, uploaded_at
		FROM uploads
		ORDER BY uploaded_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.UploadRecord
	for rows.Next() {
		var rec models.UploadRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Handle,
			&rec.Kind,
			&rec.FileName,
			&rec.MimeType,
			&rec.SizeBytes,
			&rec.Caption,
			&rec.StorageURL,
			&rec.UploadedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Stats summarizes the upload history for the /status command and the daily
// digest.
type Stats struct {
	TotalFiles int64
	TotalBytes int64
	Photos     int64
	Documents  int64
}

func (r *UploadRepository) Stats(ctx context.Context) (Stats, error) {
	const query = `
		SELECT
			COUNT(*),
			COALESCE(SUM(size_bytes), 0),
			COUNT(*) FILTER (WHERE kind = 'photo'),
			COUNT(*) FILTER (WHERE kind = 'document')
		FROM uploads
	`

	var stats Stats
	row := r.pool.QueryRow(ctx, query)
	if err := row.Scan(&stats.TotalFiles, &stats.TotalBytes, &stats.Photos, &stats.Documents); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

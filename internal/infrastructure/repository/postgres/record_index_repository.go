package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/alizenart/closeted/internal/core/domain"
)

// RecordIndexRepository is a derived projection of the blob store. Losing a
// row never loses a record; listings keep reading the blob store.
type RecordIndexRepository struct {
	db *sql.DB
}

func NewRecordIndexRepository(db *sql.DB) *RecordIndexRepository {
	return &RecordIndexRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// IndexRecord is idempotent: redelivered events leave the first row untouched.
func (r *RecordIndexRepository) IndexRecord(ctx context.Context, entry domain.IndexEntry) error {
	if !entry.Namespace.Valid() || entry.OwnerID == "" || entry.RecordID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "index record", fmt.Errorf("incomplete entry %+v", entry))
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO record_index (owner_id, namespace, record_id, image_path, metadata_path, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (owner_id, namespace, record_id) DO NOTHING
`,
		entry.OwnerID, string(entry.Namespace), entry.RecordID, entry.ImagePath, entry.MetadataPath, entry.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert record index: %w", err)
	}
	return nil
}

// CountByOwner always reports both namespaces, zero when nothing is indexed.
func (r *RecordIndexRepository) CountByOwner(ctx context.Context, ownerID string) ([]domain.NamespaceCount, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT namespace, COUNT(*)
FROM record_index
WHERE owner_id = $1
GROUP BY namespace
`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	defer rows.Close()

	counts := map[domain.Namespace]int{}
	for rows.Next() {
		var ns string
		var n int
		if err := rows.Scan(&ns, &n); err != nil {
			return nil, fmt.Errorf("scan record count: %w", err)
		}
		counts[domain.Namespace(ns)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate record counts: %w", err)
	}

	return []domain.NamespaceCount{
		{Namespace: domain.NamespaceOutfits, Records: counts[domain.NamespaceOutfits]},
		{Namespace: domain.NamespaceWishlist, Records: counts[domain.NamespaceWishlist]},
	}, nil
}

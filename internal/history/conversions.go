package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LookupConversion returns the ledger entry for a canonical file, or false
// when none is recorded.
func (s *Store) LookupConversion(ctx context.Context, canonicalPath string) (Conversion, bool, error) {
	var (
		c       Conversion
		mtime   int64
		created sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `SELECT canonical_path, source_path, source_size, source_mtime, content_hash, target_format, created_at
		FROM conversions WHERE canonical_path = ?`, canonicalPath).
		Scan(&c.CanonicalPath, &c.SourcePath, &c.SourceSize, &mtime, &c.ContentHash, &c.TargetFormat, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Conversion{}, false, nil
	}
	if err != nil {
		return Conversion{}, false, fmt.Errorf("lookup conversion: %w", err)
	}
	c.SourceModTime = time.Unix(0, mtime)
	c.CreatedAt = parseTime(created)
	return c, true, nil
}

// PutConversion records (or replaces) the ledger entry for a canonical file.
func (s *Store) PutConversion(ctx context.Context, c Conversion) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	return s.exec(ctx, `INSERT INTO conversions (canonical_path, source_path, source_size, source_mtime, content_hash, target_format, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(canonical_path) DO UPDATE SET
			source_path = excluded.source_path,
			source_size = excluded.source_size,
			source_mtime = excluded.source_mtime,
			content_hash = excluded.content_hash,
			target_format = excluded.target_format,
			created_at = excluded.created_at`,
		c.CanonicalPath, c.SourcePath, c.SourceSize, c.SourceModTime.UnixNano(), c.ContentHash, c.TargetFormat, formatTime(c.CreatedAt),
	)
}

// DeleteConversion forgets the ledger entry for a canonical file.
func (s *Store) DeleteConversion(ctx context.Context, canonicalPath string) error {
	return s.exec(ctx, `DELETE FROM conversions WHERE canonical_path = ?`, canonicalPath)
}

package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sagarc03/cachekeep"
)

func (s *Store) URI() string { return s.uri }

func (s *Store) Store(ctx context.Context, metadata cachekeep.FileMetadata) (int32, error) {
	kind, seconds, err := encodePolicy(metadata.StorePolicy)
	if err != nil {
		return 0, err
	}
	fp := cachekeep.FingerprintOf(metadata.Source)

	const q = `
		INSERT INTO files (source, fingerprint, filename, path, policy_kind, policy_duration_seconds, status, created_at, last_used_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	var id int32
	err = s.pool.QueryRow(ctx, q,
		metadata.Source.String(), string(fp), metadata.Filename, metadata.Path,
		kind, seconds, int(cachekeep.StatusPending), metadata.Created, metadata.LastUsed,
	).Scan(&id)
	if err != nil {
		return 0, wrapErr("store", err)
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, id int32) (cachekeep.FileRecord, error) {
	const q = `
		SELECT id, source, filename, path, policy_kind, policy_duration_seconds, status, created_at, last_used_at
		FROM files WHERE id = $1`
	return scanRecord(s.pool.QueryRow(ctx, q, id))
}

func (s *Store) GetByPath(ctx context.Context, path string) (cachekeep.FileRecord, error) {
	const q = `
		SELECT id, source, filename, path, policy_kind, policy_duration_seconds, status, created_at, last_used_at
		FROM files WHERE path = $1`
	return scanRecord(s.pool.QueryRow(ctx, q, path))
}

func (s *Store) Remove(ctx context.Context, id int32) error {
	const q = `DELETE FROM files WHERE id = $1`
	if _, err := s.pool.Exec(ctx, q, id); err != nil {
		return wrapErr("remove", err)
	}
	return nil
}

func (s *Store) SelectBySource(ctx context.Context, source cachekeep.SourceIdentifier) ([]cachekeep.FileRecord, error) {
	fp := cachekeep.FingerprintOf(source)
	const q = `
		SELECT id, source, filename, path, policy_kind, policy_duration_seconds, status, created_at, last_used_at
		FROM files WHERE fingerprint = $1`
	rows, err := s.pool.Query(ctx, q, string(fp))
	if err != nil {
		return nil, wrapErr("select_by_source", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

func (s *Store) UpdateStatus(ctx context.Context, id int32, status cachekeep.FileStatus) (cachekeep.FileRecord, error) {
	const q = `UPDATE files SET status = $1 WHERE id = $2`
	tag, err := s.pool.Exec(ctx, q, int(status), id)
	if err != nil {
		return cachekeep.FileRecord{}, wrapErr("update_status", err)
	}
	if tag.RowsAffected() == 0 {
		return cachekeep.FileRecord{}, wrapErr("update_status", pgx.ErrNoRows)
	}
	return s.Get(ctx, id)
}

func (s *Store) TouchLastUsed(ctx context.Context, id int32) error {
	const q = `UPDATE files SET last_used_at = $1 WHERE id = $2`
	tag, err := s.pool.Exec(ctx, q, time.Now().UTC(), id)
	if err != nil {
		return wrapErr("touch_last_used", err)
	}
	if tag.RowsAffected() == 0 {
		return wrapErr("touch_last_used", pgx.ErrNoRows)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]cachekeep.FileRecord, error) {
	const q = `
		SELECT id, source, filename, path, policy_kind, policy_duration_seconds, status, created_at, last_used_at
		FROM files`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, wrapErr("list", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (cachekeep.FileRecord, error) {
	var (
		id                 int32
		source, filename   string
		path               string
		policyKind         int
		policyDurationSecs *int64
		status             int
		createdAt, lastUsed time.Time
	)
	if err := row.Scan(&id, &source, &filename, &path, &policyKind, &policyDurationSecs, &status, &createdAt, &lastUsed); err != nil {
		return cachekeep.FileRecord{}, wrapErr("scan", err)
	}

	policy, err := decodePolicy(policyKind, policyDurationSecs)
	if err != nil {
		return cachekeep.FileRecord{}, wrapErr("decode policy", err)
	}

	return cachekeep.FileRecord{
		ID:     id,
		Status: cachekeep.FileStatus(status),
		Metadata: cachekeep.FileMetadata{
			Source:      cachekeep.ParseSource(source),
			Filename:    filename,
			Path:        path,
			StorePolicy: policy,
			Created:     createdAt,
			LastUsed:    lastUsed,
		},
	}, nil
}

func scanRows(rows pgx.Rows) ([]cachekeep.FileRecord, error) {
	var out []cachekeep.FileRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("scan rows", err)
	}
	return out, nil
}

var _ cachekeep.MetadataStore = (*Store)(nil)

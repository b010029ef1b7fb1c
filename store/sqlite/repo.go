package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sagarc03/cachekeep"
)

const timeLayout = time.RFC3339Nano

func (s *Store) URI() string { return s.uri }

func (s *Store) Store(ctx context.Context, metadata cachekeep.FileMetadata) (int32, error) {
	kind, seconds, err := encodePolicy(metadata.StorePolicy)
	if err != nil {
		return 0, err
	}
	fp := cachekeep.FingerprintOf(metadata.Source)

	const q = `
		INSERT INTO files (source, fingerprint, filename, path, policy_kind, policy_duration_seconds, status, created_at, last_used_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, q,
		metadata.Source.String(), string(fp), metadata.Filename, metadata.Path,
		kind, seconds, int(cachekeep.StatusPending),
		metadata.Created.Format(timeLayout), metadata.LastUsed.Format(timeLayout),
	)
	if err != nil {
		return 0, wrapErr("store", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrapErr("store: last insert id", err)
	}
	return int32(id), nil
}

func (s *Store) Get(ctx context.Context, id int32) (cachekeep.FileRecord, error) {
	const q = `
		SELECT id, source, filename, path, policy_kind, policy_duration_seconds, status, created_at, last_used_at
		FROM files WHERE id = ?`
	row := s.db.QueryRowContext(ctx, q, id)
	return scanRecord(row)
}

func (s *Store) GetByPath(ctx context.Context, path string) (cachekeep.FileRecord, error) {
	const q = `
		SELECT id, source, filename, path, policy_kind, policy_duration_seconds, status, created_at, last_used_at
		FROM files WHERE path = ?`
	row := s.db.QueryRowContext(ctx, q, path)
	return scanRecord(row)
}

func (s *Store) Remove(ctx context.Context, id int32) error {
	const q = `DELETE FROM files WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, q, id); err != nil {
		return wrapErr("remove", err)
	}
	return nil
}

func (s *Store) SelectBySource(ctx context.Context, source cachekeep.SourceIdentifier) ([]cachekeep.FileRecord, error) {
	fp := cachekeep.FingerprintOf(source)
	const q = `
		SELECT id, source, filename, path, policy_kind, policy_duration_seconds, status, created_at, last_used_at
		FROM files WHERE fingerprint = ?`
	rows, err := s.db.QueryContext(ctx, q, string(fp))
	if err != nil {
		return nil, wrapErr("select_by_source", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *Store) UpdateStatus(ctx context.Context, id int32, status cachekeep.FileStatus) (cachekeep.FileRecord, error) {
	const q = `UPDATE files SET status = ? WHERE id = ?`
	res, err := s.db.ExecContext(ctx, q, int(status), id)
	if err != nil {
		return cachekeep.FileRecord{}, wrapErr("update_status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return cachekeep.FileRecord{}, wrapErr("update_status: rows affected", err)
	}
	if n == 0 {
		return cachekeep.FileRecord{}, wrapErr("update_status", sql.ErrNoRows)
	}
	return s.Get(ctx, id)
}

func (s *Store) TouchLastUsed(ctx context.Context, id int32) error {
	const q = `UPDATE files SET last_used_at = ? WHERE id = ?`
	res, err := s.db.ExecContext(ctx, q, time.Now().UTC().Format(timeLayout), id)
	if err != nil {
		return wrapErr("touch_last_used", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr("touch_last_used: rows affected", err)
	}
	if n == 0 {
		return wrapErr("touch_last_used", sql.ErrNoRows)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]cachekeep.FileRecord, error) {
	const q = `
		SELECT id, source, filename, path, policy_kind, policy_duration_seconds, status, created_at, last_used_at
		FROM files`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, wrapErr("list", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (cachekeep.FileRecord, error) {
	var (
		id                  int32
		source, filename    string
		path                string
		policyKind          int
		policyDurationSecs  sql.NullInt64
		status              int
		createdAt, lastUsed string
	)

	if err := row.Scan(&id, &source, &filename, &path, &policyKind, &policyDurationSecs, &status, &createdAt, &lastUsed); err != nil {
		return cachekeep.FileRecord{}, wrapErr("scan", err)
	}

	return buildRecord(id, source, filename, path, policyKind, policyDurationSecs, status, createdAt, lastUsed)
}

func scanRecords(rows *sql.Rows) ([]cachekeep.FileRecord, error) {
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

func buildRecord(id int32, source, filename, path string, policyKind int, policyDurationSecs sql.NullInt64, status int, createdAt, lastUsed string) (cachekeep.FileRecord, error) {
	policy, err := decodePolicy(policyKind, policyDurationSecs)
	if err != nil {
		return cachekeep.FileRecord{}, fmt.Errorf("sqlite: decode policy for id %d: %w", id, err)
	}

	created, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return cachekeep.FileRecord{}, fmt.Errorf("sqlite: parse created_at for id %d: %w", id, err)
	}
	lastUsedAt, err := time.Parse(timeLayout, lastUsed)
	if err != nil {
		return cachekeep.FileRecord{}, fmt.Errorf("sqlite: parse last_used_at for id %d: %w", id, err)
	}

	return cachekeep.FileRecord{
		ID:     id,
		Status: cachekeep.FileStatus(status),
		Metadata: cachekeep.FileMetadata{
			Source:      cachekeep.ParseSource(source),
			Filename:    filename,
			Path:        path,
			StorePolicy: policy,
			Created:     created,
			LastUsed:    lastUsedAt,
		},
	}, nil
}

var _ cachekeep.MetadataStore = (*Store)(nil)

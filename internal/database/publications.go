package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrPublicationNotFound is returned by GetPublication for unknown ids.
var ErrPublicationNotFound = errors.New("publication not found")

// Publication is one publish run that wrote a zone file.
type Publication struct {
	ID             int64
	ZoneFile       string
	Origin         string
	Serial         string
	PreviousSerial string
	Changed        bool
	Bumped         bool
	PublishedAt    time.Time
	Documents      []PublishedDocument
}

// PublishedDocument is a document as it was written by a publication.
type PublishedDocument struct {
	Name          string
	Path          string
	MimeType      string
	HashAlgorithm string
	Hash          string
	ChunkCount    int
}

// RecordPublication stores p and its documents and returns the new id.
// A zero PublishedAt is stored as the current time.
func (db *DB) RecordPublication(ctx context.Context, p Publication) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if p.PublishedAt.IsZero() {
		p.PublishedAt = time.Now()
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO publications (zone_file, origin, serial, previous_serial, changed, bumped, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ZoneFile, p.Origin, p.Serial, p.PreviousSerial, p.Changed, p.Bumped, p.PublishedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert publication: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read publication id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO published_documents (publication_id, position, name, path, mime_type, hash_algorithm, hash, chunk_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare document insert: %w", err)
	}
	defer stmt.Close()

	for i, d := range p.Documents {
		if _, err := stmt.ExecContext(ctx, id, i, d.Name, d.Path, d.MimeType, d.HashAlgorithm, d.Hash, d.ChunkCount); err != nil {
			return 0, fmt.Errorf("failed to insert document %s: %w", d.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit publication: %w", err)
	}
	return id, nil
}

// ListPublications returns the newest publications first, without documents.
// A limit <= 0 returns all of them.
func (db *DB) ListPublications(ctx context.Context, limit int) ([]Publication, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, zone_file, origin, serial, previous_serial, changed, bumped, published_at
		FROM publications
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query publications: %w", err)
	}
	defer rows.Close()

	var out []Publication
	for rows.Next() {
		p, err := scanPublication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating publications: %w", err)
	}
	return out, nil
}

// GetPublication returns one publication with its documents in zone order.
func (db *DB) GetPublication(ctx context.Context, id int64) (Publication, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	row := db.conn.QueryRowContext(ctx, `
		SELECT id, zone_file, origin, serial, previous_serial, changed, bumped, published_at
		FROM publications
		WHERE id = ?
	`, id)
	p, err := scanPublication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Publication{}, fmt.Errorf("%w: %d", ErrPublicationNotFound, id)
	}
	if err != nil {
		return Publication{}, err
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT name, path, mime_type, hash_algorithm, hash, chunk_count
		FROM published_documents
		WHERE publication_id = ?
		ORDER BY position
	`, id)
	if err != nil {
		return Publication{}, fmt.Errorf("failed to query documents of publication %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var d PublishedDocument
		if err := rows.Scan(&d.Name, &d.Path, &d.MimeType, &d.HashAlgorithm, &d.Hash, &d.ChunkCount); err != nil {
			return Publication{}, fmt.Errorf("failed to scan document: %w", err)
		}
		p.Documents = append(p.Documents, d)
	}
	if err := rows.Err(); err != nil {
		return Publication{}, fmt.Errorf("error iterating documents: %w", err)
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPublication(s scanner) (Publication, error) {
	var p Publication
	err := s.Scan(&p.ID, &p.ZoneFile, &p.Origin, &p.Serial, &p.PreviousSerial, &p.Changed, &p.Bumped, &p.PublishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Publication{}, err
	}
	if err != nil {
		return Publication{}, fmt.Errorf("failed to scan publication: %w", err)
	}
	return p, nil
}

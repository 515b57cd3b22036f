package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"biolink-cli/internal/model"

	"go.uber.org/zap"
)

type PageSummary struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Elements  int       `json:"elements" yaml:"elements"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// SavePage upserts p. Invalid pages are refused so the table only ever holds documents
// that load cleanly.
func (s *Store) SavePage(ctx context.Context, p *model.Page) error {
	if err := p.Validate(); err != nil {
		return err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode page %s: %w", p.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO pages(id, title, json, updated_at_unixms) VALUES(?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, json = excluded.json, updated_at_unixms = excluded.updated_at_unixms`,
		p.ID, p.Title, string(raw), time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("save page %s: %w", p.ID, err)
	}
	s.log.Debug("page saved", zap.String("page_id", p.ID), zap.Int("elements", len(p.Elements)))
	return nil
}

func (s *Store) LoadPage(ctx context.Context, id string) (*model.Page, error) {
	id = strings.TrimSpace(id)
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT json FROM pages WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var p model.Page
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode page %s: %w", id, err)
	}
	return &p, nil
}

// ListPages returns every page, most recently saved first.
func (s *Store) ListPages(ctx context.Context) ([]PageSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, json, updated_at_unixms FROM pages ORDER BY updated_at_unixms DESC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PageSummary
	for rows.Next() {
		var (
			id, title, raw string
			updatedMs      int64
		)
		if err := rows.Scan(&id, &title, &raw, &updatedMs); err != nil {
			return nil, err
		}
		var p model.Page
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			s.log.Warn("skipping undecodable page row", zap.String("page_id", id), zap.Error(err))
			continue
		}
		out = append(out, PageSummary{
			ID:        id,
			Title:     title,
			Elements:  len(p.Elements),
			UpdatedAt: time.UnixMilli(updatedMs).UTC(),
		})
	}
	return out, rows.Err()
}

// DeletePage removes the page together with its history.
func (s *Store) DeletePage(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrPageNotFound, id)
	}
	for _, q := range []string{
		`DELETE FROM history_entries WHERE page_id = ?`,
		`DELETE FROM history_meta WHERE page_id = ?`,
		`DELETE FROM meta WHERE k = 'current_page_id' AND v = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

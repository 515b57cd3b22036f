package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"biolink-cli/internal/history"
	"biolink-cli/internal/model"

	"go.uber.org/zap"
)

const (
	stackPast   = "past"
	stackFuture = "future"
)

// SaveHistory replaces the stored undo/redo stacks of pageID with st.
func (s *Store) SaveHistory(ctx context.Context, pageID string, st history.State) error {
	pageID = strings.TrimSpace(pageID)
	if pageID == "" {
		return errors.New("save history: empty page id")
	}
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// Replace-all: the stacks are small (bounded by the history limit).
	if _, err := tx.ExecContext(ctx, `DELETE FROM history_entries WHERE page_id = ?`, pageID); err != nil {
		return err
	}
	stacks := []struct {
		name  string
		pages []*model.Page
	}{
		{stackPast, st.Past},
		{stackFuture, st.Future},
	}
	for _, stack := range stacks {
		for seq, p := range stack.pages {
			raw, err := json.Marshal(p)
			if err != nil {
				return fmt.Errorf("encode %s entry %d: %w", stack.name, seq, err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO history_entries(page_id, stack, seq, json) VALUES(?, ?, ?, ?)`,
				pageID, stack.name, seq, string(raw)); err != nil {
				return err
			}
		}
	}
	var lastPushMs int64
	if !st.LastPush.IsZero() {
		lastPushMs = st.LastPush.UnixMilli()
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO history_meta(page_id, last_action, last_push_unixms) VALUES(?, ?, ?)`,
		pageID, st.LastAction, lastPushMs); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadHistory reads the stacks saved for pageID. Rows that no longer decode are kept as
// empty placeholder pages so undo can discard them in order instead of failing here.
func (s *Store) LoadHistory(ctx context.Context, pageID string) (history.State, error) {
	pageID = strings.TrimSpace(pageID)
	var st history.State

	rows, err := s.db.QueryContext(ctx, `SELECT stack, seq, json FROM history_entries WHERE page_id = ? ORDER BY stack, seq`, pageID)
	if err != nil {
		return st, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			stack, raw string
			seq        int
		)
		if err := rows.Scan(&stack, &seq, &raw); err != nil {
			return st, err
		}
		p := &model.Page{}
		if err := json.Unmarshal([]byte(raw), p); err != nil {
			s.log.Warn("malformed history row kept as placeholder",
				zap.String("page_id", pageID), zap.String("stack", stack), zap.Int("seq", seq), zap.Error(err))
			p = &model.Page{}
		}
		switch stack {
		case stackPast:
			st.Past = append(st.Past, p)
		case stackFuture:
			st.Future = append(st.Future, p)
		}
	}
	if err := rows.Err(); err != nil {
		return st, err
	}

	var lastPushMs int64
	err = s.db.QueryRowContext(ctx, `SELECT last_action, last_push_unixms FROM history_meta WHERE page_id = ?`, pageID).
		Scan(&st.LastAction, &lastPushMs)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return st, err
	}
	if lastPushMs > 0 {
		st.LastPush = time.UnixMilli(lastPushMs)
	}
	return st, nil
}

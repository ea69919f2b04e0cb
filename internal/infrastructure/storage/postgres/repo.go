package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"tickboard/internal/application/port"
	"tickboard/internal/domain"
)

type Repo struct {
	db *sql.DB
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS watchlist (
  id BIGSERIAL PRIMARY KEY,
  category TEXT NOT NULL,
  symbol TEXT NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  icon TEXT NOT NULL DEFAULT '',
  source TEXT NOT NULL DEFAULT '',
  trading_pair TEXT NOT NULL DEFAULT '',
  network TEXT NOT NULL DEFAULT '',
  contract_address TEXT NOT NULL DEFAULT '',
  note TEXT NOT NULL DEFAULT '',
  token_id TEXT NOT NULL DEFAULT '',
  position BIGINT NOT NULL DEFAULT 0,
  created_at BIGINT NOT NULL,
  UNIQUE(category, symbol)
);
CREATE INDEX IF NOT EXISTS idx_watchlist_category ON watchlist(category);

CREATE TABLE IF NOT EXISTS settings (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at BIGINT NOT NULL
);
`)
	return err
}

func (r *Repo) ListEntries(ctx context.Context, category string) ([]domain.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, name, icon, source, trading_pair, network, contract_address, note, token_id
		FROM watchlist
		WHERE category=$1
		ORDER BY position ASC, id ASC
	`, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.Entry
	for rows.Next() {
		var e domain.Entry
		if err := rows.Scan(&e.Symbol, &e.Name, &e.Icon, &e.Source, &e.TradingPair,
			&e.Network, &e.ContractAddress, &e.Note, &e.TokenID); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *Repo) AddEntry(ctx context.Context, category string, e domain.Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO watchlist(
			category, symbol, name, icon, source, trading_pair,
			network, contract_address, note, token_id, position, created_at
		) VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM watchlist WHERE category=$11), $12)
		ON CONFLICT(category, symbol) DO UPDATE SET
		name=excluded.name, icon=excluded.icon, source=excluded.source,
		trading_pair=excluded.trading_pair, network=excluded.network,
		contract_address=excluded.contract_address, note=excluded.note, token_id=excluded.token_id
	`, category, e.Symbol, e.Name, e.Icon, e.Source, e.TradingPair,
		e.Network, e.ContractAddress, e.Note, e.TokenID, category, time.Now().UnixMilli())
	return err
}

func (r *Repo) RemoveEntry(ctx context.Context, category, symbol string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM watchlist WHERE category=$1 AND symbol=$2`, category, symbol)
	return err
}

func (r *Repo) SeedDefaults(ctx context.Context) error {
	for _, category := range domain.Categories {
		for _, e := range domain.DefaultsFor(category) {
			_, err := r.db.ExecContext(ctx, `
				INSERT INTO watchlist(
					category, symbol, name, icon, source, trading_pair,
					network, contract_address, note, token_id, position, created_at
				) VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
					(SELECT COALESCE(MAX(position), 0) + 1 FROM watchlist WHERE category=$11), $12)
				ON CONFLICT(category, symbol) DO NOTHING
			`, category, e.Symbol, e.Name, e.Icon, e.Source, e.TradingPair,
				e.Network, e.ContractAddress, e.Note, e.TokenID, category, time.Now().UnixMilli())
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Repo) ExportJSON(ctx context.Context) ([]byte, error) {
	payload := make(map[string][]domain.Entry, len(domain.Categories))
	for _, category := range domain.Categories {
		entries, err := r.ListEntries(ctx, category)
		if err != nil {
			return nil, err
		}
		if entries == nil {
			entries = []domain.Entry{}
		}
		payload[category] = entries
	}
	return json.Marshal(payload)
}

func (r *Repo) ImportJSON(ctx context.Context, blob []byte) error {
	var payload map[string][]domain.Entry
	if err := json.Unmarshal(blob, &payload); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, category := range domain.Categories {
		entries, ok := payload[category]
		if !ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM watchlist WHERE category=$1`, category); err != nil {
			return err
		}
		for i, e := range entries {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO watchlist(
					category, symbol, name, icon, source, trading_pair,
					network, contract_address, note, token_id, position, created_at
				) VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			`, category, e.Symbol, e.Name, e.Icon, e.Source, e.TradingPair,
				e.Network, e.ContractAddress, e.Note, e.TokenID, i+1, time.Now().UnixMilli())
			if err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func (r *Repo) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key=$1`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *Repo) PutSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings(key, value, updated_at) VALUES($1, $2, $3)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
	`, key, value, time.Now().UnixMilli())
	return err
}

var _ port.WatchlistStore = (*Repo)(nil)

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"tickboard/internal/application/port"
	"tickboard/internal/domain"
)

type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) GetDB() *sql.DB {
	return r.db
}

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS watchlist (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
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
  position INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL,
  UNIQUE(category, symbol)
);
CREATE INDEX IF NOT EXISTS idx_watchlist_category ON watchlist(category);

CREATE TABLE IF NOT EXISTS settings (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at INTEGER NOT NULL
);
`)
	return err
}

// ListEntries 按写入顺序返回一个面板的条目
func (r *Repo) ListEntries(ctx context.Context, category string) ([]domain.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT symbol, name, icon, source, trading_pair, network, contract_address, note, token_id
		FROM watchlist
		WHERE category=?
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
		) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM watchlist WHERE category=?), ?)
		ON CONFLICT(category, symbol) DO UPDATE SET
		name=excluded.name, icon=excluded.icon, source=excluded.source,
		trading_pair=excluded.trading_pair, network=excluded.network,
		contract_address=excluded.contract_address, note=excluded.note, token_id=excluded.token_id
	`, category, e.Symbol, e.Name, e.Icon, e.Source, e.TradingPair,
		e.Network, e.ContractAddress, e.Note, e.TokenID, category, time.Now().UnixMilli())
	return err
}

func (r *Repo) RemoveEntry(ctx context.Context, category, symbol string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM watchlist WHERE category=? AND symbol=?`, category, symbol)
	return err
}

// SeedDefaults 写入内置默认项，已有同名条目时保持原样
func (r *Repo) SeedDefaults(ctx context.Context) error {
	for _, category := range domain.Categories {
		for _, e := range domain.DefaultsFor(category) {
			_, err := r.db.ExecContext(ctx, `
				INSERT OR IGNORE INTO watchlist(
					category, symbol, name, icon, source, trading_pair,
					network, contract_address, note, token_id, position, created_at
				) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
					(SELECT COALESCE(MAX(position), 0) + 1 FROM watchlist WHERE category=?), ?)
			`, category, e.Symbol, e.Name, e.Icon, e.Source, e.TradingPair,
				e.Network, e.ContractAddress, e.Note, e.TokenID, category, time.Now().UnixMilli())
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// ExportJSON 导出全部面板与设置，格式与远端同步接口一致
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

// ImportJSON 整体导入：出现的面板先清空再写入，缺席的面板不动
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
		if _, err := tx.ExecContext(ctx, `DELETE FROM watchlist WHERE category=?`, category); err != nil {
			return err
		}
		for i, e := range entries {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO watchlist(
					category, symbol, name, icon, source, trading_pair,
					network, contract_address, note, token_id, position, created_at
				) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
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
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key=?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (r *Repo) PutSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings(key, value, updated_at) VALUES(?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
	`, key, value, time.Now().UnixMilli())
	return err
}

var _ port.WatchlistStore = (*Repo)(nil)

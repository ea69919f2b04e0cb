package service

import (
	"context"
	"errors"
	"testing"

	"tickboard/internal/domain"
)

type mockStore struct {
	lists  map[string][]domain.Entry
	addErr error
}

func newMockStore() *mockStore {
	return &mockStore{lists: make(map[string][]domain.Entry)}
}

func (m *mockStore) ListEntries(ctx context.Context, category string) ([]domain.Entry, error) {
	return m.lists[category], nil
}

func (m *mockStore) AddEntry(ctx context.Context, category string, e domain.Entry) error {
	if m.addErr != nil {
		return m.addErr
	}
	m.lists[category] = append(m.lists[category], e)
	return nil
}

func (m *mockStore) RemoveEntry(ctx context.Context, category, symbol string) error {
	kept := m.lists[category][:0]
	for _, e := range m.lists[category] {
		if e.Symbol != symbol {
			kept = append(kept, e)
		}
	}
	m.lists[category] = kept
	return nil
}

func (m *mockStore) SeedDefaults(ctx context.Context) error            { return nil }
func (m *mockStore) ExportJSON(ctx context.Context) ([]byte, error)    { return nil, nil }
func (m *mockStore) ImportJSON(ctx context.Context, blob []byte) error { return nil }
func (m *mockStore) GetSetting(ctx context.Context, key string) (string, error) {
	return "", nil
}
func (m *mockStore) PutSetting(ctx context.Context, key, value string) error { return nil }
func (m *mockStore) Close() error                                            { return nil }

type mockSupervisor struct {
	startAll  int
	stopAll   int
	replaced  []domain.Entry
	removed   []domain.Entry
	lastLists map[string][]domain.Entry
}

func (m *mockSupervisor) StartAll(ctx context.Context, lists map[string][]domain.Entry) {
	m.startAll++
	m.lastLists = lists
}
func (m *mockSupervisor) StopAll() { m.stopAll++ }
func (m *mockSupervisor) StartGroup(ctx context.Context, source string, entries []domain.Entry) {
}
func (m *mockSupervisor) ReplaceOne(ctx context.Context, e domain.Entry) {
	m.replaced = append(m.replaced, e)
}
func (m *mockSupervisor) Remove(ctx context.Context, e domain.Entry) {
	m.removed = append(m.removed, e)
}

func TestWatchlistAddStartsFeed(t *testing.T) {
	store := newMockStore()
	sup := &mockSupervisor{}
	w := NewWatchlist(store, sup)

	e := domain.Entry{Symbol: "DOGEUSDT", Name: "DOGE", Source: "binance", TradingPair: "DOGEUSDT"}
	if err := w.Add(context.Background(), domain.CategoryCrypto, e); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if len(sup.replaced) != 1 || sup.replaced[0].Symbol != "DOGEUSDT" {
		t.Fatalf("supervisor not driven by add: %+v", sup.replaced)
	}
	if len(store.lists[domain.CategoryCrypto]) != 1 {
		t.Fatal("entry not persisted")
	}
}

func TestWatchlistAddValidation(t *testing.T) {
	w := NewWatchlist(newMockStore(), &mockSupervisor{})
	ctx := context.Background()

	if err := w.Add(ctx, domain.CategoryCrypto, domain.Entry{Symbol: "  "}); !errors.Is(err, ErrEmptySymbol) {
		t.Fatalf("expected ErrEmptySymbol, got %v", err)
	}
	if err := w.Add(ctx, "bonds", domain.Entry{Symbol: "X"}); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	meme := domain.Entry{Symbol: "MEME_BSC_X", Name: "PEPE", Source: "meme"}
	if err := w.Add(ctx, domain.CategoryMeme, meme); !errors.Is(err, ErrMissingContract) {
		t.Fatalf("expected ErrMissingContract, got %v", err)
	}
}

func TestWatchlistAddStoreErrorDoesNotTouchSupervisor(t *testing.T) {
	store := newMockStore()
	store.addErr = errors.New("duplicate symbol")
	sup := &mockSupervisor{}
	w := NewWatchlist(store, sup)

	err := w.Add(context.Background(), domain.CategoryCrypto,
		domain.Entry{Symbol: "BTCUSDT", Source: "binance"})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(sup.replaced) != 0 {
		t.Fatal("supervisor must not be driven when persist fails")
	}
}

func TestWatchlistRemoveStopsFeed(t *testing.T) {
	store := newMockStore()
	store.lists[domain.CategoryCrypto] = []domain.Entry{
		{Symbol: "BTCUSDT", Source: "binance"},
	}
	sup := &mockSupervisor{}
	w := NewWatchlist(store, sup)

	if err := w.Remove(context.Background(), domain.CategoryCrypto, "BTCUSDT"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if len(sup.removed) != 1 || sup.removed[0].Symbol != "BTCUSDT" {
		t.Fatalf("supervisor not told about removal: %+v", sup.removed)
	}
	if len(store.lists[domain.CategoryCrypto]) != 0 {
		t.Fatal("entry not removed from store")
	}
}

func TestWatchlistRefreshTearsDownThenRebuilds(t *testing.T) {
	store := newMockStore()
	store.lists[domain.CategoryCrypto] = []domain.Entry{{Symbol: "BTCUSDT", Source: "binance"}}
	sup := &mockSupervisor{}
	w := NewWatchlist(store, sup)

	if err := w.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if sup.stopAll != 1 || sup.startAll != 1 {
		t.Fatalf("expected stopAll then startAll, got stop=%d start=%d", sup.stopAll, sup.startAll)
	}
	if len(sup.lastLists[domain.CategoryCrypto]) != 1 {
		t.Fatal("rebuild did not carry store entries")
	}
}

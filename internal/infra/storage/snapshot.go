package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/shopspring/decimal"

	"grid_go/internal/domain"
)

// snapshotDocument is the canonical on-disk schema. Monetary fields ride
// on decimal's string encoding; prices are integer cents. The loader is
// strict: any field it does not recognize fails the decode and the
// engine falls back to defaults.
type snapshotDocument struct {
	BuyOrders         []domain.BuyOrder         `json:"buy_orders"`
	SellOrders        []domain.SellOrder        `json:"sell_orders"`
	Positions         map[int64]domain.Position `json:"positions"`
	Budget            decimal.Decimal           `json:"budget"`
	TotalProfitLoss   decimal.Decimal           `json:"total_profit_loss"`
	OccupiedPrices    []domain.Cents            `json:"occupied_prices"`
	LastPriceCents    domain.Cents              `json:"last_price_cents"`
	PositionIDCounter int64                     `json:"position_id_counter"`
}

// SnapshotStore persists the full engine state as one JSON document.
// Save writes a temporary file in the snapshot directory and renames it
// over the previous snapshot, so a crash mid-write never corrupts the
// last good copy.
type SnapshotStore struct {
	path string
}

var _ domain.StateStore = (*SnapshotStore)(nil)

// NewSnapshotStore creates a store writing to the given file path.
func NewSnapshotStore(path string) (*SnapshotStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &SnapshotStore{path: path}, nil
}

// Save atomically replaces the snapshot with the current state.
func (s *SnapshotStore) Save(state *domain.EngineState) error {
	doc := snapshotDocument{
		BuyOrders:         state.BuyOrders,
		SellOrders:        state.SellOrders,
		Positions:         state.Positions,
		Budget:            state.Budget,
		TotalProfitLoss:   state.RealizedPnL,
		OccupiedPrices:    sortedOccupied(state),
		LastPriceCents:    state.LastPriceCents,
		PositionIDCounter: state.PositionIDCounter,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &domain.PersistError{Path: s.path, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".snapshot-*.json")
	if err != nil {
		return &domain.PersistError{Path: s.path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &domain.PersistError{Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &domain.PersistError{Path: s.path, Err: err}
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return &domain.PersistError{Path: s.path, Err: err}
	}
	return nil
}

// Load restores the last saved state. A missing file returns (nil, nil)
// and a corrupt one is logged and also yields (nil, nil): the caller
// starts from defaults instead of trading on a half-read book.
func (s *SnapshotStore) Load() (*domain.EngineState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &domain.PersistError{Path: s.path, Err: err}
	}

	doc, err := decodeStrict(data)
	if err != nil {
		slog.Warn("Snapshot is corrupt, resetting state to defaults",
			slog.String("path", s.path), slog.Any("error", err))
		return nil, nil
	}

	state := &domain.EngineState{
		BuyOrders:         doc.BuyOrders,
		SellOrders:        doc.SellOrders,
		Positions:         doc.Positions,
		Occupied:          make(map[domain.Cents]struct{}, len(doc.OccupiedPrices)),
		Budget:            doc.Budget,
		RealizedPnL:       doc.TotalProfitLoss,
		LastPriceCents:    doc.LastPriceCents,
		PositionIDCounter: doc.PositionIDCounter,
	}
	if state.Positions == nil {
		state.Positions = make(map[int64]domain.Position)
	}
	for _, price := range doc.OccupiedPrices {
		state.Occupied[price] = struct{}{}
	}
	return state, nil
}

// decodeStrict unmarshals the document, failing on unknown fields.
func decodeStrict(data []byte) (*snapshotDocument, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var doc snapshotDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCorruptSnapshot, err)
	}
	return &doc, nil
}

// sortedOccupied returns the occupied set as a sorted slice so snapshots
// of equal states are byte-identical.
func sortedOccupied(state *domain.EngineState) []domain.Cents {
	prices := make([]domain.Cents, 0, len(state.Occupied))
	for p := range state.Occupied {
		prices = append(prices, p)
	}
	sort.Slice(prices, func(i, j int) bool { return prices[i] < prices[j] })
	return prices
}

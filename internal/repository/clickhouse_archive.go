package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"PulseFeed/internal/domain/models"
	domrepo "PulseFeed/internal/domain/repository"
	pkgch "PulseFeed/pkg/clickhouse"
)

// ClickHouseArchive writes accepted snapshots into a ClickHouse table.
// The bounds distribution is stored as a JSON column; analytical queries
// over it stay in ClickHouse, the hot path never reads back.
type ClickHouseArchive struct {
	db    *sql.DB
	table string
}

func NewClickHouseArchive(ch *pkgch.Client, table string) *ClickHouseArchive {
	return &ClickHouseArchive{db: ch.DB(), table: table}
}

// Schema returns the DDL for the archive table, applied at startup via
// the client's InitSchema.
func (a *ClickHouseArchive) Schema() []string {
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            ts      DateTime64(3),
            asset   LowCardinality(String),
            horizon LowCardinality(String),
            bounds  String
        ) ENGINE = MergeTree()
        ORDER BY (asset, ts)
    `, a.table)}
}

func (a *ClickHouseArchive) Archive(ctx context.Context, asset string, snap models.Snapshot) error {
	bounds, err := json.Marshal(&snap.Bounds)
	if err != nil {
		return fmt.Errorf("encode bounds: %w", err)
	}

	q := fmt.Sprintf("INSERT INTO %s (ts, asset, horizon, bounds) VALUES (?, ?, ?, ?)", a.table)
	_, err = a.db.ExecContext(ctx, q,
		time.UnixMilli(snap.Timestamp),
		asset,
		snap.Bounds.Horizon,
		string(bounds),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot %s: %w", asset, err)
	}
	return nil
}

func (a *ClickHouseArchive) Name() string { return "clickhouse" }

func (a *ClickHouseArchive) Close() error { return nil }

var _ domrepo.SnapshotArchive = (*ClickHouseArchive)(nil)

package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// statsTables is the fixed set reported by the stats endpoint.
var statsTables = []string{
	"parroquias",
	"lugares_turisticos",
	"actividades",
	"locales_turisticos",
	"servicios",
	"horarios",
	"tags",
}

// Pg is a thin connection used for health checks and live table counts. The
// knowledge base itself is loaded separately and held in memory; this exists
// so operators can compare the loaded store against the database.
type Pg struct {
	db *sql.DB
}

func NewPg(connStr string) (*Pg, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Pg{db: db}, nil
}

func (p *Pg) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// TableCounts returns live row counts for the tourism tables.
func (p *Pg) TableCounts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(statsTables))
	for _, table := range statsTables {
		var n int64
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
		if err := p.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

func (p *Pg) Close() error {
	return p.db.Close()
}

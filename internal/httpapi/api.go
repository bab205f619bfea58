// Package httpapi exposes the course catalog and per-user progress over
// HTTP. All endpoints are guest-scoped: a cookie-backed identity is minted
// on first contact and every read and write is keyed to it.
package httpapi

import (
	"fmt"

	"github.com/ai-academy/academy-server/internal/catalog"
	"github.com/ai-academy/academy-server/internal/progress"
	"github.com/ai-academy/academy-server/internal/report"
)

// API holds the handler dependencies.
type API struct {
	catalog *catalog.Catalog
	engine  *progress.Engine
	queries *progress.Queries
	reports *report.Builder
}

// NewAPI creates the HTTP handler set. The report builder is optional; when
// nil the export endpoint responds 404.
func NewAPI(cat *catalog.Catalog, engine *progress.Engine, queries *progress.Queries, reports *report.Builder) (*API, error) {
	if cat == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if queries == nil {
		return nil, fmt.Errorf("queries are required")
	}
	return &API{catalog: cat, engine: engine, queries: queries, reports: reports}, nil
}

package registry

import (
	"context"
	"fmt"

	"mark-risk-eval/internal/match"
	"mark-risk-eval/internal/store"
)

// defaultLocalLimit caps how many raw rows a single local lookup returns to
// the ranker.
const defaultLocalLimit = 200

// LocalRegistry serves designation candidates from the locally ingested
// trademark database.
type LocalRegistry struct {
	db    *store.Database
	limit int
}

// NewLocalRegistry wires the registry to the database.
func NewLocalRegistry(db *store.Database) *LocalRegistry {
	return &LocalRegistry{db: db, limit: defaultLocalLimit}
}

// Name identifies the source in check results and logs.
func (r *LocalRegistry) Name() string {
	return "local trademark registry"
}

// Search returns candidate records whose stored text contains the query.
func (r *LocalRegistry) Search(ctx context.Context, query string) ([]match.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	normalized := match.Normalize(query)
	if normalized == "" {
		return nil, nil
	}
	rows, err := r.db.SearchRegistryRecords(normalized, match.NoSpaces(query), r.limit)
	if err != nil {
		return nil, fmt.Errorf("search registry records: %w", err)
	}
	candidates := make([]match.Candidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, match.Candidate{
			Registration: row.Registration,
			Text:         row.Text,
			Classes:      row.Classes(),
			Status:       ParseStatus(row.Status),
			Holder:       row.Holder,
		})
	}
	return candidates, nil
}

// ParseStatus maps free-form registry status strings onto the closed
// candidate status set. Unrecognized values stay unknown rather than failing.
func ParseStatus(value string) match.CandidateStatus {
	switch match.Normalize(value) {
	case "active", "registered", "live", "valid":
		return match.StatusActive
	case "pending", "filed", "under examination":
		return match.StatusPending
	case "expired", "dead", "cancelled", "canceled", "inactive", "lapsed":
		return match.StatusExpired
	default:
		return match.StatusUnknown
	}
}

package report

import (
	"context"
	"fmt"
	"time"

	"github.com/miyata-dev/campuscrawl/internal/database"
)

// recentLimit caps the identity listing in reports.
const recentLimit = 20

// storeReader is the read surface Collect needs. Satisfied by
// *database.IdentityDB.
type storeReader interface {
	MaxCrawlID(ctx context.Context) (int, error)
	CountOutcomes(ctx context.Context) ([]database.OutcomeCount, error)
	CountIdentities(ctx context.Context) (int, error)
	CountErrors(ctx context.Context) (int, error)
	CountSearches(ctx context.Context) (int, error)
	CountIdentityTypes(ctx context.Context) (map[string]int, error)
	RecentIdentities(ctx context.Context, limit int) ([]database.IdentitySummary, error)
}

// Summary is everything a report renders, collected in one pass.
type Summary struct {
	// GeneratedAt is when the summary was collected.
	GeneratedAt time.Time `json:"generated_at"`

	// MaxCrawlID is the highest crawl id with a stored identity.
	MaxCrawlID int `json:"max_crawl_id"`

	// Identities is the total number of stored identities.
	Identities int `json:"identities"`

	// Searches is the number of directory search audit rows.
	Searches int `json:"searches"`

	// Errors is the number of error log rows.
	Errors int `json:"errors"`

	// Outcomes is the web request audit log grouped by outcome,
	// largest bucket first.
	Outcomes []database.OutcomeCount `json:"outcomes"`

	// Types groups stored identities by account type.
	Types map[string]int `json:"types"`

	// Recent lists the most recently crawled identities.
	Recent []database.IdentitySummary `json:"recent"`
}

// Requests returns the total number of audited profile-page fetches.
func (s *Summary) Requests() int {
	var total int
	for _, outcome := range s.Outcomes {
		total += outcome.Count
	}
	return total
}

// Collect reads a full Summary out of the store.
func Collect(ctx context.Context, store storeReader) (*Summary, error) {
	summary := &Summary{GeneratedAt: time.Now()}

	var err error
	if summary.MaxCrawlID, err = store.MaxCrawlID(ctx); err != nil {
		return nil, fmt.Errorf("collecting max crawl id: %w", err)
	}
	if summary.Outcomes, err = store.CountOutcomes(ctx); err != nil {
		return nil, fmt.Errorf("collecting outcomes: %w", err)
	}
	if summary.Identities, err = store.CountIdentities(ctx); err != nil {
		return nil, fmt.Errorf("collecting identity count: %w", err)
	}
	if summary.Errors, err = store.CountErrors(ctx); err != nil {
		return nil, fmt.Errorf("collecting error count: %w", err)
	}
	if summary.Searches, err = store.CountSearches(ctx); err != nil {
		return nil, fmt.Errorf("collecting search count: %w", err)
	}
	if summary.Types, err = store.CountIdentityTypes(ctx); err != nil {
		return nil, fmt.Errorf("collecting identity types: %w", err)
	}
	if summary.Recent, err = store.RecentIdentities(ctx, recentLimit); err != nil {
		return nil, fmt.Errorf("collecting recent identities: %w", err)
	}
	return summary, nil
}

package database

import (
	"context"
	"fmt"
)

// OutcomeCount is one row of the per-outcome summary of the web
// request audit log.
type OutcomeCount struct {
	// Outcome is the classification variant name.
	Outcome string

	// Count is the number of audit rows with that outcome.
	Count int
}

// CountOutcomes summarizes the web request audit log by outcome,
// largest bucket first.
func (idb *IdentityDB) CountOutcomes(ctx context.Context) ([]OutcomeCount, error) {
	rows, err := idb.db.QueryContext(ctx, `
	SELECT outcome, COUNT(*) FROM web_request_log
	GROUP BY outcome
	ORDER BY COUNT(*) DESC, outcome`)
	if err != nil {
		return nil, fmt.Errorf("failed to count outcomes: %w", err)
	}
	defer rows.Close()

	var counts []OutcomeCount
	for rows.Next() {
		var count OutcomeCount
		if err := rows.Scan(&count.Outcome, &count.Count); err != nil {
			return nil, fmt.Errorf("failed to scan outcome count: %w", err)
		}
		counts = append(counts, count)
	}
	return counts, rows.Err()
}

// CountIdentities returns the number of stored identities.
func (idb *IdentityDB) CountIdentities(ctx context.Context) (int, error) {
	var count int
	if err := idb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM identities`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count identities: %w", err)
	}
	return count, nil
}

// CountErrors returns the number of error log rows.
func (idb *IdentityDB) CountErrors(ctx context.Context) (int, error) {
	var count int
	if err := idb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM error_log`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count errors: %w", err)
	}
	return count, nil
}

// CountSearches returns the number of directory search audit rows.
func (idb *IdentityDB) CountSearches(ctx context.Context) (int, error) {
	var count int
	if err := idb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM directory_search_log`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count searches: %w", err)
	}
	return count, nil
}

// IdentitySummary is one stored identity trimmed down for report
// listings.
type IdentitySummary struct {
	CrawlID  int
	FullName string
	Email    string
	Type     string
	Campus   string
}

// RecentIdentities returns up to limit identities, most recently
// crawled first.
func (idb *IdentityDB) RecentIdentities(ctx context.Context, limit int) ([]IdentitySummary, error) {
	rows, err := idb.db.QueryContext(ctx, `
	SELECT crawl_id, full_name, email, type, COALESCE(campus, '')
	FROM identities
	ORDER BY crawl_id DESC
	LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list identities: %w", err)
	}
	defer rows.Close()

	var identities []IdentitySummary
	for rows.Next() {
		var identity IdentitySummary
		if err := rows.Scan(&identity.CrawlID, &identity.FullName, &identity.Email, &identity.Type, &identity.Campus); err != nil {
			return nil, fmt.Errorf("failed to scan identity: %w", err)
		}
		identities = append(identities, identity)
	}
	return identities, rows.Err()
}

// CountIdentityTypes summarizes stored identities by account type,
// largest bucket first.
func (idb *IdentityDB) CountIdentityTypes(ctx context.Context) (map[string]int, error) {
	rows, err := idb.db.QueryContext(ctx, `
	SELECT type, COUNT(*) FROM identities GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count identity types: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var accountType string
		var count int
		if err := rows.Scan(&accountType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan type count: %w", err)
		}
		counts[accountType] = count
	}
	return counts, rows.Err()
}

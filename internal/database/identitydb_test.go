package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/miyata-dev/campuscrawl/internal/model"
)

func openTestDB(t *testing.T) *IdentityDB {
	t.Helper()

	idb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := idb.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return idb
}

func sampleProfile(lkID, email string) *model.IdentityProfile {
	birthDate := "1990-05-17"
	return &model.IdentityProfile{
		ID:          lkID,
		FullName:    "Иванов Иван Иванович",
		Email:       email,
		Description: "Доцент",
		HasPhone:    true,
		Type:        "staff",
		Names: model.NameParts{
			LastName:   "Иванов",
			FirstName:  "Иван",
			MiddleName: "Иванович",
		},
		IsTimetableAvailable: true,
		StaffPositions: []model.StaffPosition{
			{
				UnitName:     "Кафедра высшей математики",
				UnitID:       731,
				IsMain:       true,
				PositionName: "Доцент",
				Chief: &model.Chief{
					ID:       "chief-1",
					FullName: "Петров Пётр",
					Email:    "ppetrov@example.ru",
					HasPhone: true,
					Type:     "staff",
				},
			},
			{UnitName: "Лаборатория анализа данных", UnitID: 902, PositionName: "Научный сотрудник"},
		},
		StaffAddresses: []model.StaffAddress{
			{
				Label:      "Покровский бульвар, 11",
				RoomCode:   "S-832",
				IsMain:     true,
				Navigation: &model.Navigation{Room: 832, Floor: 8},
				Campus:     "Москва",
			},
		},
		Education: []model.Education{
			{
				UniversityTitle: "НИУ ВШЭ",
				StartYear:       "2008",
				DegreeLevel:     "Специалист",
				ProgramTitle:    "Математика",
				FacultyTitle:    "Факультет математики",
				Campus:          "Москва",
				GroupTitle:      "М-081",
				Degree:          "specialist",
			},
		},
		BirthDate: &birthDate,
	}
}

// countRows is a test helper for asserting sub-record counts.
func countRows(t *testing.T, idb *IdentityDB, table string) int {
	t.Helper()

	var count int
	if err := idb.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
		t.Fatalf("counting %s: %v", table, err)
	}
	return count
}

// TestOpenRequiresExistingDB verifies the read-only open mode.
func TestOpenRequiresExistingDB(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := Open(dir, Options{CreateIfNotExists: false}); err == nil {
		t.Fatal("Open() should fail when the database does not exist")
	}

	idb, err := Open(dir, DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := idb.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(dir, Options{CreateIfNotExists: false})
	if err != nil {
		t.Fatalf("Open() after create error = %v", err)
	}
	if err := reopened.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

// TestStoreIdentity verifies the transactional insert with all
// sub-records.
func TestStoreIdentity(t *testing.T) {
	t.Parallel()

	idb := openTestDB(t)
	ctx := context.Background()

	stored, err := idb.StoreIdentity(ctx, 101, sampleProfile("lk-1", "iivanov@example.ru"))
	if err != nil {
		t.Fatalf("StoreIdentity() error = %v", err)
	}
	if !stored {
		t.Fatal("StoreIdentity() = false, want true for a new identity")
	}

	if got := countRows(t, idb, "identities"); got != 1 {
		t.Errorf("identities = %d, want 1", got)
	}
	if got := countRows(t, idb, "staff_positions"); got != 2 {
		t.Errorf("staff_positions = %d, want 2", got)
	}
	if got := countRows(t, idb, "staff_addresses"); got != 1 {
		t.Errorf("staff_addresses = %d, want 1", got)
	}
	if got := countRows(t, idb, "educations"); got != 1 {
		t.Errorf("educations = %d, want 1", got)
	}

	var chiefName *string
	err = idb.db.QueryRow(`SELECT chief_full_name FROM staff_positions WHERE unit_id = 902`).Scan(&chiefName)
	if err != nil {
		t.Fatalf("querying chief: %v", err)
	}
	if chiefName != nil {
		t.Errorf("chief_full_name = %q, want NULL for a position without a chief", *chiefName)
	}
}

// TestStoreIdentitySameCrawlID verifies that re-storing a crawl id is a
// silent skip.
func TestStoreIdentitySameCrawlID(t *testing.T) {
	t.Parallel()

	idb := openTestDB(t)
	ctx := context.Background()

	if _, err := idb.StoreIdentity(ctx, 101, sampleProfile("lk-1", "a@example.ru")); err != nil {
		t.Fatalf("StoreIdentity() error = %v", err)
	}

	stored, err := idb.StoreIdentity(ctx, 101, sampleProfile("lk-2", "b@example.ru"))
	if err != nil {
		t.Fatalf("StoreIdentity() error = %v", err)
	}
	if stored {
		t.Error("StoreIdentity() = true, want false for a repeated crawl id")
	}
	if got := countRows(t, idb, "identities"); got != 1 {
		t.Errorf("identities = %d, want 1", got)
	}
	if got := countRows(t, idb, "staff_positions"); got != 2 {
		t.Errorf("staff_positions = %d, want 2 (no sub-records for a skipped identity)", got)
	}
}

// TestStoreIdentitySharedEmail verifies that two crawl ids resolving to
// the same directory record keep a single identity row.
func TestStoreIdentitySharedEmail(t *testing.T) {
	t.Parallel()

	idb := openTestDB(t)
	ctx := context.Background()

	if _, err := idb.StoreIdentity(ctx, 101, sampleProfile("lk-1", "shared@example.ru")); err != nil {
		t.Fatalf("StoreIdentity() error = %v", err)
	}

	stored, err := idb.StoreIdentity(ctx, 202, sampleProfile("lk-1", "shared@example.ru"))
	if err != nil {
		t.Fatalf("StoreIdentity() error = %v", err)
	}
	if stored {
		t.Error("StoreIdentity() = true, want false for an already stored person")
	}
	if got := countRows(t, idb, "identities"); got != 1 {
		t.Errorf("identities = %d, want 1", got)
	}
}

// TestMaxCrawlID verifies the checkpoint source.
func TestMaxCrawlID(t *testing.T) {
	t.Parallel()

	idb := openTestDB(t)
	ctx := context.Background()

	got, err := idb.MaxCrawlID(ctx)
	if err != nil {
		t.Fatalf("MaxCrawlID() error = %v", err)
	}
	if got != 0 {
		t.Errorf("MaxCrawlID() = %d on an empty store, want 0", got)
	}

	for i, id := range []int{300, 150, 275} {
		profile := sampleProfile(fmt.Sprintf("lk-%d", i), fmt.Sprintf("u%d@example.ru", i))
		if _, err := idb.StoreIdentity(ctx, id, profile); err != nil {
			t.Fatalf("StoreIdentity(%d) error = %v", id, err)
		}
	}

	got, err = idb.MaxCrawlID(ctx)
	if err != nil {
		t.Fatalf("MaxCrawlID() error = %v", err)
	}
	if got != 300 {
		t.Errorf("MaxCrawlID() = %d, want 300", got)
	}
}

// TestAuditLogs verifies the three append-only logs and their report
// summaries.
func TestAuditLogs(t *testing.T) {
	t.Parallel()

	idb := openTestDB(t)
	ctx := context.Background()

	outcomes := []model.ResolutionOutcome{
		model.Success{Name: "Иванов Иван"},
		model.Success{Name: "Петров Пётр"},
		model.PermissionDenied{},
		model.NotFound{},
		model.NotFound{},
		model.NotFound{},
		model.OtherError{Message: "HTTP status: 503"},
	}
	for i, outcome := range outcomes {
		if err := idb.LogWebRequest(ctx, 100+i, outcome); err != nil {
			t.Fatalf("LogWebRequest() error = %v", err)
		}
	}

	matches := []model.DirectoryMatch{{FullName: "Иванов Иван", Email: "a@example.ru"}}
	if err := idb.LogDirectorySearch(ctx, "Иванов Иван", matches); err != nil {
		t.Fatalf("LogDirectorySearch() error = %v", err)
	}
	if err := idb.LogDirectorySearch(ctx, "Петров Пётр", nil); err != nil {
		t.Fatalf("LogDirectorySearch() error = %v", err)
	}

	if err := idb.LogError(ctx, 105, "directory", "HTTP status: 500", ""); err != nil {
		t.Fatalf("LogError() error = %v", err)
	}

	counts, err := idb.CountOutcomes(ctx)
	if err != nil {
		t.Fatalf("CountOutcomes() error = %v", err)
	}
	want := []OutcomeCount{
		{Outcome: "NotFound", Count: 3},
		{Outcome: "Success", Count: 2},
		{Outcome: "OtherError", Count: 1},
		{Outcome: "PermissionDenied", Count: 1},
	}
	if len(counts) != len(want) {
		t.Fatalf("CountOutcomes() = %v, want %v", counts, want)
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("CountOutcomes()[%d] = %v, want %v", i, counts[i], want[i])
		}
	}

	var searchResult string
	if err := idb.db.QueryRow(`SELECT result FROM directory_search_log WHERE name = ?`, "Иванов Иван").Scan(&searchResult); err != nil {
		t.Fatalf("querying search log: %v", err)
	}
	if searchResult != "Иванов Иван <a@example.ru>" {
		t.Errorf("search result = %q", searchResult)
	}

	if got, err := idb.CountSearches(ctx); err != nil || got != 2 {
		t.Errorf("CountSearches() = %d, %v, want 2", got, err)
	}
	if got, err := idb.CountErrors(ctx); err != nil || got != 1 {
		t.Errorf("CountErrors() = %d, %v, want 1", got, err)
	}
}

// TestRecentIdentities verifies the report listing order and limit.
func TestRecentIdentities(t *testing.T) {
	t.Parallel()

	idb := openTestDB(t)
	ctx := context.Background()

	for i, id := range []int{100, 300, 200} {
		profile := sampleProfile(fmt.Sprintf("lk-%d", i), fmt.Sprintf("u%d@example.ru", i))
		if _, err := idb.StoreIdentity(ctx, id, profile); err != nil {
			t.Fatalf("StoreIdentity(%d) error = %v", id, err)
		}
	}

	identities, err := idb.RecentIdentities(ctx, 2)
	if err != nil {
		t.Fatalf("RecentIdentities() error = %v", err)
	}
	if len(identities) != 2 {
		t.Fatalf("len = %d, want 2", len(identities))
	}
	if identities[0].CrawlID != 300 || identities[1].CrawlID != 200 {
		t.Errorf("order = %d, %d, want 300, 200", identities[0].CrawlID, identities[1].CrawlID)
	}
	if identities[0].FullName == "" || identities[0].Email == "" {
		t.Errorf("summary incomplete: %#v", identities[0])
	}

	types, err := idb.CountIdentityTypes(ctx)
	if err != nil {
		t.Fatalf("CountIdentityTypes() error = %v", err)
	}
	if types["staff"] != 3 {
		t.Errorf("staff count = %d, want 3", types["staff"])
	}

	count, err := idb.CountIdentities(ctx)
	if err != nil || count != 3 {
		t.Errorf("CountIdentities() = %d, %v, want 3", count, err)
	}
}

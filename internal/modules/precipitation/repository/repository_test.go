package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"niederschlag-server/internal/migrate"
	"niederschlag-server/internal/modules/precipitation/types"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if closeErr := db.Close(); closeErr != nil {
			t.Fatalf("close db: %v", closeErr)
		}
	})
	if err := migrate.Run(context.Background(), db, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func strPtr(s string) *string { return &s }

func sampleRecords() []types.Record {
	return []types.Record{
		{RegionCode: strPtr("AT13"), DistrictCode: 91900, RefYear: 1872, RefDate: 187205, Precipitation: strPtr("990.9"), PrecipitationMax: strPtr("1003.2"), PrecipitationMin: strPtr("981.2")},
		{RegionCode: strPtr("AT12"), DistrictCode: 31000, RefYear: 1873, RefDate: 187301, Precipitation: strPtr("-999"), PrecipitationMax: nil, PrecipitationMin: strPtr("n/a")},
		{DistrictCode: 0},
	}
}

func TestNewRepository(t *testing.T) {
	if repo := NewRepository(setupTestDB(t)); repo == nil {
		t.Fatal("NewRepository returned nil")
	}
}

func TestFindAll_Empty(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	records, err := repo.FindAll(context.Background())
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if records == nil {
		t.Fatal("FindAll returned nil slice; want empty")
	}
	if len(records) != 0 {
		t.Fatalf("FindAll: got %d records, want 0", len(records))
	}
}

func TestSaveAll_ThenFindAll(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))
	in := sampleRecords()

	if err := repo.SaveAll(ctx, in); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	got, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(got) != len(in) {
		t.Fatalf("FindAll: got %d records, want %d", len(got), len(in))
	}

	seen := map[int64]bool{}
	for i, rec := range got {
		if rec.ID <= 0 {
			t.Errorf("record %d: id = %d, want store-assigned positive id", i, rec.ID)
		}
		if seen[rec.ID] {
			t.Errorf("record %d: duplicate id %d", i, rec.ID)
		}
		seen[rec.ID] = true

		want := in[i]
		want.ID = rec.ID
		assertRecordEqual(t, rec, want)
	}
}

func TestSaveAll_KeepsPlaceholderStrings(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))

	if err := repo.SaveAll(ctx, []types.Record{{Precipitation: strPtr("k.A."), PrecipitationMax: strPtr(""), PrecipitationMin: strPtr("NaN")}}); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	got, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if *got[0].Precipitation != "k.A." || *got[0].PrecipitationMax != "" || *got[0].PrecipitationMin != "NaN" {
		t.Errorf("placeholders changed: %q %q %q", *got[0].Precipitation, *got[0].PrecipitationMax, *got[0].PrecipitationMin)
	}
}

func TestSaveAll_Empty(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	if err := repo.SaveAll(context.Background(), nil); err != nil {
		t.Fatalf("SaveAll(nil): %v", err)
	}
	n, err := repo.Count(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("Count = %d, %v; want 0, nil", n, err)
	}
}

func TestSaveAll_TwiceDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))

	for i := 0; i < 2; i++ {
		if err := repo.SaveAll(ctx, sampleRecords()); err != nil {
			t.Fatalf("SaveAll #%d: %v", i, err)
		}
	}
	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2*len(sampleRecords()) {
		t.Fatalf("Count = %d; want %d", n, 2*len(sampleRecords()))
	}
}

func TestSaveAll_CanceledContextInsertsNothing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.SaveAll(ctx, sampleRecords())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("SaveAll error = %v; want context.Canceled", err)
	}
	n, err := repo.Count(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("Count = %d, %v; want 0 after failed save", n, err)
	}
}

func TestFindAll_StorageError(t *testing.T) {
	db := setupTestDB(t)
	if _, err := db.Exec(`DROP TABLE records`); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	repo := NewRepository(db)

	if _, err := repo.FindAll(context.Background()); err == nil {
		t.Fatal("FindAll: expected error when table is missing")
	}
	if _, err := repo.Count(context.Background()); err == nil {
		t.Fatal("Count: expected error when table is missing")
	}
}

func assertRecordEqual(t *testing.T, got, want types.Record) {
	t.Helper()
	if got.ID != want.ID || got.DistrictCode != want.DistrictCode || got.RefYear != want.RefYear || got.RefDate != want.RefDate {
		t.Errorf("scalars: got %+v, want %+v", got, want)
	}
	for name, pair := range map[string][2]*string{
		"RegionCode":       {got.RegionCode, want.RegionCode},
		"Precipitation":    {got.Precipitation, want.Precipitation},
		"PrecipitationMax": {got.PrecipitationMax, want.PrecipitationMax},
		"PrecipitationMin": {got.PrecipitationMin, want.PrecipitationMin},
	} {
		g, w := pair[0], pair[1]
		if (g == nil) != (w == nil) || (g != nil && *g != *w) {
			t.Errorf("%s: got %v, want %v", name, deref(g), deref(w))
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}

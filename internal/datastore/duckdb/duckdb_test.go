package duckdb

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/reclinepreview/internal/datastore"
	"github.com/leapstack-labs/reclinepreview/internal/testutil"
)

const pricesCSV = `year,price,country
2019,9,NL
2020,10,NL
2021,12,BE
2022,15,BE
`

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:", testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func loadPrices(t *testing.T, s *Store, resourceID string) {
	t.Helper()
	table, err := datastore.ReadCSV(strings.NewReader(pricesCSV))
	require.NoError(t, err)
	require.NoError(t, s.Create(context.Background(), resourceID, table))
}

func TestStore_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.duckdb")
	s, err := Open(context.Background(), path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was created")
}

func TestStore_Search(t *testing.T) {
	s := setupStore(t)
	loadPrices(t, s, "prices-1")
	ctx := context.Background()

	tests := []struct {
		name      string
		params    datastore.SearchParams
		wantYears []string
	}{
		{"defaults", datastore.SearchParams{}, []string{"2019", "2020", "2021", "2022"}},
		{"offset", datastore.SearchParams{Offset: 2}, []string{"2021", "2022"}},
		{"limit", datastore.SearchParams{Limit: datastore.Limit(1)}, []string{"2019"}},
		{"zero limit", datastore.SearchParams{Limit: datastore.Limit(0)}, []string{}},
		{"page", datastore.SearchParams{Offset: 1, Limit: datastore.Limit(2)}, []string{"2020", "2021"}},
		{"past the end", datastore.SearchParams{Offset: 10}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.params.ResourceID = "prices-1"
			res, err := s.Search(ctx, tt.params)
			require.NoError(t, err)

			assert.Equal(t, int64(4), res.Total)
			assert.Equal(t, []datastore.Field{
				{ID: "year", Type: "text"},
				{ID: "price", Type: "text"},
				{ID: "country", Type: "text"},
			}, res.Fields)

			years := make([]string, 0, len(res.Records))
			for _, r := range res.Records {
				assert.NotContains(t, r, datastore.RowIDColumn)
				years = append(years, r["year"].(string))
			}
			assert.Equal(t, tt.wantYears, years)
		})
	}
}

func TestStore_CreateReplaces(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	loadPrices(t, s, "r1")

	require.NoError(t, s.Create(ctx, "r1", &datastore.Table{
		Fields:  []datastore.Field{{ID: "name", Type: "text"}},
		Records: [][]string{{"only"}},
	}))

	res, err := s.Search(ctx, datastore.SearchParams{ResourceID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Total)
	assert.Equal(t, []map[string]any{{"name": "only"}}, res.Records)
}

func TestStore_DeleteAndMissing(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Search(ctx, datastore.SearchParams{ResourceID: "nope"})
	assert.True(t, errors.Is(err, datastore.ErrNotFound))

	loadPrices(t, s, "r1")
	require.NoError(t, s.Delete(ctx, "r1"))
	require.NoError(t, s.Delete(ctx, "r1"), "deleting twice is fine")

	_, err = s.Search(ctx, datastore.SearchParams{ResourceID: "r1"})
	assert.True(t, errors.Is(err, datastore.ErrNotFound))
}

func TestStore_CreateWithoutFields(t *testing.T) {
	s := setupStore(t)
	err := s.Create(context.Background(), "r1", &datastore.Table{})
	assert.Error(t, err)
}

func TestRegistered(t *testing.T) {
	ds, err := datastore.Open(context.Background(), datastore.Config{Type: Name}, nil)
	require.NoError(t, err)
	defer func() { _ = ds.Close() }()

	_, ok := ds.(*Store)
	assert.True(t, ok)
}

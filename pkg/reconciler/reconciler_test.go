package reconciler_test

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/venuemap/pkg/reconciler"
	"github.com/agentstation/venuemap/pkg/venues"
)

func latte(amount int64) []venues.PriceEntry {
	return []venues.PriceEntry{{ItemName: "Latte", Price: decimal.NewFromInt(amount), Currency: "TRY"}}
}

func curatedLab() venues.Venue {
	return venues.Venue{ID: "c1", Name: "Lab Coffee", Latitude: 41.0122, Longitude: 28.9760, Prices: latte(85)}
}

func feedLab() venues.Venue {
	return venues.Venue{ID: "osm:node/1", Name: "lab coffee", Latitude: 41.0121, Longitude: 28.9761}
}

func ids(vs []venues.Venue) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.ID
	}
	return out
}

func newReconciler(t *testing.T, opts ...reconciler.Option) reconciler.Reconciler {
	t.Helper()
	r, err := reconciler.New(opts...)
	require.NoError(t, err)
	return r
}

func TestMergeLabCoffee(t *testing.T) {
	r := newReconciler(t)
	result := r.Merge(context.Background(), nil, []venues.Venue{curatedLab()}, []venues.Venue{feedLab()})

	require.Len(t, result.Venues, 1)
	got := result.Venues[0]
	assert.Equal(t, "c1", got.ID)
	assert.Equal(t, venues.OriginCurated, got.Origin)
	require.Len(t, got.Prices, 1)
	assert.Equal(t, "Latte", got.Prices[0].ItemName)
	assert.True(t, got.Prices[0].Price.Equal(decimal.NewFromInt(85)))
	assert.Equal(t, "TRY", got.Prices[0].Currency)
	assert.Equal(t, 1, result.Stats.FeedDuplicates)
}

func TestMergeIdempotent(t *testing.T) {
	curated := []venues.Venue{
		curatedLab(),
		{ID: "c2", Name: "Kahve Dunyasi", Latitude: 41.0300, Longitude: 28.9800, Prices: latte(90)},
	}
	feed := []venues.Venue{
		feedLab(),
		{ID: "osm:node/2", Name: "Corner Cafe", Latitude: 41.0050, Longitude: 28.9700},
		{ID: "osm:way/3", Name: "corner cafe", Latitude: 41.00505, Longitude: 28.97005},
		{ID: "osm:node/4", Name: "Corner Cafe", Latitude: 41.0100, Longitude: 28.9700},
	}

	r := newReconciler(t)
	first := r.Merge(context.Background(), nil, curated, feed)
	second := r.Merge(context.Background(), first.Venues, curated, feed)

	assert.Equal(t, []string{"c1", "c2", "osm:node/2", "osm:node/4"}, ids(first.Venues))
	if diff := cmp.Diff(first.Venues, second.Venues, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("second merge changed the collection (-first +second):\n%s", diff)
	}
	assert.Equal(t, 0, second.Stats.Added())
	assert.Equal(t, 2, second.Stats.CuratedReplaced)
}

func TestMergeCuratedPrecedence(t *testing.T) {
	feed := feedLab()
	feed.Website = "https://osm.example/lab"

	t.Run("same pass", func(t *testing.T) {
		got := reconciler.Merge(nil, []venues.Venue{curatedLab()}, []venues.Venue{feed})
		require.Len(t, got, 1)
		assert.Equal(t, latte(85), got[0].Prices)
	})

	t.Run("feed arrived first", func(t *testing.T) {
		// a previous refresh only reached the feed
		existing := reconciler.Merge(nil, nil, []venues.Venue{feed})
		require.Len(t, existing, 1)

		got := reconciler.Merge(existing, []venues.Venue{curatedLab()}, []venues.Venue{feed})
		require.Len(t, got, 1)
		assert.Equal(t, "c1", got[0].ID)
		assert.Equal(t, venues.OriginCurated, got[0].Origin)
		assert.Equal(t, latte(85), got[0].Prices)
		assert.Equal(t, "Lab Coffee", got[0].Name)
		assert.Equal(t, "https://osm.example/lab", got[0].Website, "feed website survives when curated has none")
	})

	t.Run("feed never overwrites", func(t *testing.T) {
		renamed := feed
		renamed.ID = "c1"
		renamed.Name = "Something Else"
		got := reconciler.Merge([]venues.Venue{curatedLab()}, nil, []venues.Venue{renamed})
		require.Len(t, got, 1)
		assert.Equal(t, "Lab Coffee", got[0].Name)
	})
}

func TestMergeToleranceBoundary(t *testing.T) {
	base := venues.Venue{ID: "c1", Name: "Twin", Latitude: 41.0000, Longitude: 29.0000}

	tests := []struct {
		name     string
		dLat     float64
		dLng     float64
		wantSize int
	}{
		{"well inside", 0.00005, 0.00005, 1},
		{"exactly one step of four decimals", 0.0001, 0.0001, 1},
		{"outside on latitude", 0.0002, 0, 2},
		{"outside on longitude", 0, 0.0003, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			near := venues.Venue{ID: "osm:node/9", Name: "TWIN", Latitude: base.Latitude + tt.dLat, Longitude: base.Longitude + tt.dLng}
			got := reconciler.Merge(nil, []venues.Venue{base}, []venues.Venue{near})
			assert.Len(t, got, tt.wantSize)
		})
	}

	t.Run("custom tolerance", func(t *testing.T) {
		r := newReconciler(t, reconciler.WithTolerance(0.001))
		assert.Equal(t, 0.001, r.Tolerance())
		near := venues.Venue{ID: "osm:node/9", Name: "twin", Latitude: 41.0008, Longitude: 29.0}
		got := r.Merge(context.Background(), nil, []venues.Venue{base}, []venues.Venue{near})
		assert.Len(t, got.Venues, 1)
	})

	t.Run("different names never merge", func(t *testing.T) {
		other := venues.Venue{ID: "osm:node/9", Name: "Twin Peaks", Latitude: 41.0, Longitude: 29.0}
		assert.Len(t, reconciler.Merge(nil, []venues.Venue{base}, []venues.Venue{other}), 2)
	})
}

func TestMergeOrdering(t *testing.T) {
	existing := []venues.Venue{
		{ID: "a", Name: "A", Latitude: 1, Longitude: 1, Origin: venues.OriginCurated},
		{ID: "b", Name: "B", Latitude: 2, Longitude: 2, Origin: venues.OriginCurated},
	}
	curated := []venues.Venue{
		{ID: "d", Name: "D", Latitude: 4, Longitude: 4},
		{ID: "b", Name: "B2", Latitude: 2, Longitude: 2},
		{ID: "e", Name: "E", Latitude: 5, Longitude: 5},
	}
	feed := []venues.Venue{
		{ID: "osm:node/2", Name: "F2", Latitude: 7, Longitude: 7},
		{ID: "osm:node/1", Name: "F1", Latitude: 6, Longitude: 6},
	}

	got := reconciler.Merge(existing, curated, feed)
	assert.Equal(t, []string{"a", "b", "d", "e", "osm:node/2", "osm:node/1"}, ids(got))
	assert.Equal(t, "B2", got[1].Name)
}

func TestMergeDropsMalformed(t *testing.T) {
	r := newReconciler(t)
	result := r.Merge(context.Background(),
		[]venues.Venue{{ID: "stale", Name: "Stale", Latitude: math.NaN(), Longitude: 29}},
		[]venues.Venue{{ID: "", Name: "No ID", Latitude: 41, Longitude: 29}, curatedLab()},
		[]venues.Venue{
			{ID: "osm:node/5", Name: "Nowhere", Latitude: math.Inf(1), Longitude: 29},
			{ID: "osm:node/6", Name: "Off the map", Latitude: 123, Longitude: 29},
		},
	)
	assert.Equal(t, []string{"c1"}, ids(result.Venues))
	assert.Equal(t, 4, result.Stats.Dropped)
	assert.Contains(t, result.Summary(), "4 dropped")
}

func TestMergeEmptyInputs(t *testing.T) {
	got := reconciler.Merge(nil, nil, nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	existing := []venues.Venue{curatedLab()}
	kept := reconciler.Merge(existing, nil, nil)
	assert.Equal(t, ids(existing), ids(kept))
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	existing := []venues.Venue{{ID: "c1", Name: "Lab Coffee", Latitude: 41.0122, Longitude: 28.9760, Prices: latte(80)}}
	curated := []venues.Venue{curatedLab()}
	before := venues.CloneAll(existing)

	got := reconciler.Merge(existing, curated, nil)
	got[0].Prices[0].ItemName = "changed"

	if diff := cmp.Diff(before, existing); diff != "" {
		t.Errorf("existing mutated (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Latte", curated[0].Prices[0].ItemName)
}

func TestWithToleranceRejectsInvalid(t *testing.T) {
	for _, bad := range []float64{-0.1, math.NaN(), math.Inf(1)} {
		_, err := reconciler.New(reconciler.WithTolerance(bad))
		assert.Error(t, err, "%v", bad)
	}
}

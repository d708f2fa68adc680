package enhancer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agentstation/venuemap/pkg/enhancer"
	"github.com/agentstation/venuemap/pkg/logging"
	"github.com/agentstation/venuemap/pkg/venues"
)

func TestInferMenuURL(t *testing.T) {
	tests := []struct {
		name  string
		venue venues.Venue
		want  string
	}{
		{
			name:  "bare host",
			venue: venues.Venue{Name: "Lab", Website: "https://lab.example"},
			want:  "https://lab.example/menu",
		},
		{
			name:  "trailing slash",
			venue: venues.Venue{Name: "Lab", Website: "https://lab.example/"},
			want:  "https://lab.example/menu",
		},
		{
			name:  "existing path",
			venue: venues.Venue{Name: "Lab", Website: "http://lab.example/tr/"},
			want:  "http://lab.example/tr/menu",
		},
		{
			name:  "query dropped",
			venue: venues.Venue{Name: "Lab", Website: "https://lab.example/home?ref=osm#top"},
			want:  "https://lab.example/home/menu",
		},
		{
			name:  "no website",
			venue: venues.Venue{Name: "Boron-X Lab Coffee"},
			want:  "https://www.google.com/search?q=Boron-X+Lab+Coffee+menu+pdf",
		},
		{
			name:  "relative website",
			venue: venues.Venue{Name: "Kahve & Co", Website: "kahve.example"},
			want:  "https://www.google.com/search?q=Kahve+%26+Co+menu+pdf",
		},
		{
			name:  "non-http scheme",
			venue: venues.Venue{Name: "Lab", Website: "mailto:hi@lab.example"},
			want:  "https://www.google.com/search?q=Lab+menu+pdf",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, enhancer.InferMenuURL(tt.venue))
		})
	}
}

func TestMenuLinkEnhancer(t *testing.T) {
	e := enhancer.NewMenuLinkEnhancer("https://search.example/q")

	assert.False(t, e.CanEnhance(venues.Venue{MenuURL: "https://lab.example/carte"}))
	assert.True(t, e.CanEnhance(venues.Venue{MenuURL: "  "}))

	got, err := e.Enhance(context.Background(), venues.Venue{Name: "Lab"})
	assert.NoError(t, err)
	assert.Equal(t, "https://search.example/q?q=Lab+menu+pdf", got.MenuURL)
}

func TestPipelineOrderAndFailureIsolation(t *testing.T) {
	logging.DisableLoggingForTest(t)

	var order []string
	record := func(name string, err error) enhancer.Func {
		return enhancer.Func{
			ID:   name,
			Rank: map[string]int{"low": 1, "failing": 5, "high": 10}[name],
			Apply: func(_ context.Context, v venues.Venue) (venues.Venue, error) {
				order = append(order, name)
				if err != nil {
					v.Name = "should not stick"
					return v, err
				}
				v.Address += name + ";"
				return v, nil
			},
		}
	}

	p := enhancer.NewPipeline(record("low", nil), record("failing", errors.New("boom")), record("high", nil))
	assert.Equal(t, []string{"high", "failing", "low"}, p.Names())

	in := venues.Venue{ID: "c1", Name: "Lab"}
	got := p.Enhance(context.Background(), in)

	assert.Equal(t, []string{"high", "failing", "low"}, order)
	assert.Equal(t, "Lab", got.Name)
	assert.Equal(t, "high;low;", got.Address)
	assert.Empty(t, in.Address)
}

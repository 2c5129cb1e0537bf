package listing

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSorter struct {
	mu     sync.Mutex
	params []url.Values
	items  []domain.Product
	err    error
	delay  time.Duration
	calls  atomic.Int32
}

func (m *mockSorter) SortProducts(_ context.Context, params url.Values) ([]domain.Product, error) {
	m.calls.Add(1)
	time.Sleep(m.delay)
	m.mu.Lock()
	m.params = append(m.params, params)
	m.mu.Unlock()
	return m.items, m.err
}

func TestQuery_Values(t *testing.T) {
	avail := false
	q := Query{
		Scope: Scope{CategoryID: "c1", TagID: "t1", Search: "galaxy"},
		Filters: Filters{
			IsAvailable:    &avail,
			OnlyDiscounted: true,
			FastShipping:   true,
			MinPrice:       1000,
			MaxPrice:       50000,
			Color:          "black",
			Networks:       []string{"4G", "5G"},
		},
		Sort: Sort{Field: SortPrice, Direction: Asc},
	}

	v := q.Values(3)

	assert.Equal(t, url.Values{
		"categoryId":     {"c1"},
		"tagId":          {"t1"},
		"search":         {"galaxy"},
		"take":           {"20"},
		"skip":           {"40"},
		"isAvailable":    {"false"},
		"onlyDiscounted": {"true"},
		"fastShipping":   {"true"},
		"minPrice":       {"1000"},
		"maxPrice":       {"50000"},
		"color":          {"black"},
		"networks":       {"4G,5G"},
		"sortBy":         {"price"},
		"order":          {"asc"},
	}, v)
}

func TestQuery_ValuesOmitsUnset(t *testing.T) {
	v := Query{}.Normalize().Values(1)

	assert.Equal(t, url.Values{
		"take":   {"20"},
		"skip":   {"0"},
		"sortBy": {"createdAt"},
		"order":  {"desc"},
	}, v)
}

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Query
		wantErr string
	}{
		{
			name: "defaults",
			raw:  "",
			want: Query{Sort: Sort{Field: SortCreatedAt, Direction: Desc}},
		},
		{
			name: "full",
			raw:  "categoryId=c&isAvailable=true&onlyDiscounted=true&minPrice=5&networks=4G,,5G&sortBy=off&order=desc",
			want: Query{
				Scope:   Scope{CategoryID: "c"},
				Filters: Filters{IsAvailable: boolPtr(true), OnlyDiscounted: true, MinPrice: 5, Networks: []string{"4G", "5G"}},
				Sort:    Sort{Field: SortOff, Direction: Desc},
			},
		},
		{name: "bad price", raw: "minPrice=-4", wantErr: "minPrice"},
		{name: "bad flag", raw: "fastShipping=maybe", wantErr: "fastShipping"},
		{name: "bad availability", raw: "isAvailable=yes", wantErr: "isAvailable"},
		{name: "bad sort", raw: "sortBy=name", wantErr: "sortBy"},
		{name: "bad order", raw: "order=up", wantErr: "order"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := url.ParseQuery(tt.raw)
			require.NoError(t, err)

			q, err := ParseQuery(v)

			if tt.wantErr != "" {
				var vErr *domain.ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, tt.wantErr, vErr.Field)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(q), "got %+v", q)
		})
	}
}

func TestRemoteSource_Fetch(t *testing.T) {
	ctx := context.Background()

	t.Run("full page has more", func(t *testing.T) {
		sorter := &mockSorter{items: makeProducts("p", 0, PageSize)}
		src := NewRemoteSource(sorter)

		page, err := src.Fetch(ctx, Query{}.Normalize(), 2)

		require.NoError(t, err)
		assert.True(t, page.HasMore)
		assert.Len(t, page.Items, PageSize)
		assert.Equal(t, "20", sorter.params[0].Get("skip"))
	})

	t.Run("short page is the last", func(t *testing.T) {
		src := NewRemoteSource(&mockSorter{items: makeProducts("p", 0, 4)})

		page, err := src.Fetch(ctx, Query{}, 1)

		require.NoError(t, err)
		assert.False(t, page.HasMore)
	})

	t.Run("error is wrapped", func(t *testing.T) {
		cause := errors.New("503")
		src := NewRemoteSource(&mockSorter{err: cause})

		_, err := src.Fetch(ctx, Query{}, 1)

		assert.ErrorIs(t, err, cause)
	})

	t.Run("concurrent identical requests share one call", func(t *testing.T) {
		sorter := &mockSorter{items: makeProducts("p", 0, 3), delay: 50 * time.Millisecond}
		src := NewRemoteSource(sorter)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				page, err := src.Fetch(ctx, Query{}, 1)
				assert.NoError(t, err)
				assert.Len(t, page.Items, 3)
			}()
		}
		wg.Wait()

		assert.Less(t, int(sorter.calls.Load()), 10)
	})
}

func TestMemorySource_FiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	products := []domain.Product{
		{ID: "a", Price: 300, Off: 0, IsAvailable: true, CreatedAt: "2024-01-03T00:00:00Z"},
		{ID: "b", Price: 100, Off: 10, IsAvailable: false, CreatedAt: "2024-01-01T00:00:00Z"},
		{ID: "c", Price: 200, Off: 25, IsAvailable: true, CreatedAt: "2024-01-02T00:00:00Z"},
		{ID: "d", Price: 200, Off: 5, IsAvailable: true, CreatedAt: "2024-01-04T00:00:00Z"},
	}
	src := NewMemorySource(products)

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"newest first by default", Query{}.Normalize(), []string{"d", "a", "c", "b"}},
		{"price asc keeps input order on ties", Query{Sort: Sort{Field: SortPrice, Direction: Asc}}, []string{"b", "c", "d", "a"}},
		{"price desc keeps input order on ties", Query{Sort: Sort{Field: SortPrice, Direction: Desc}}, []string{"a", "c", "d", "b"}},
		{"biggest discount", Query{Sort: Sort{Field: SortOff, Direction: Desc}}, []string{"c", "b", "d", "a"}},
		{"available only", Query{Filters: Filters{IsAvailable: boolPtr(true)}}, []string{"a", "c", "d"}},
		{"unavailable only", Query{Filters: Filters{IsAvailable: boolPtr(false)}}, []string{"b"}},
		{"discounted", Query{Filters: Filters{OnlyDiscounted: true}}, []string{"b", "c", "d"}},
		{"price range", Query{Filters: Filters{MinPrice: 150, MaxPrice: 250}}, []string{"c", "d"}},
		{"color and networks are ignored", Query{Filters: Filters{Color: "red", Networks: []string{"5G"}, FastShipping: true}}, []string{"a", "b", "c", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := src.Fetch(ctx, tt.q, 1)

			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(page.Items))
			assert.False(t, page.HasMore)
		})
	}

	t.Run("later pages are empty", func(t *testing.T) {
		page, err := src.Fetch(ctx, Query{}, 2)
		require.NoError(t, err)
		assert.Empty(t, page.Items)
	})
}

func boolPtr(b bool) *bool { return &b }

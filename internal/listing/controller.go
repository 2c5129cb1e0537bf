package listing

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// ErrSuperseded is returned to a caller whose page arrived after the query
// had changed. The page is dropped.
var ErrSuperseded = errors.New("listing query changed while loading")

// Result is the accumulated state of a listing view.
type Result struct {
	Query   Query            `json:"query"`
	Items   []domain.Product `json:"items"`
	HasMore bool             `json:"hasMore"`
	Page    int              `json:"page"`
	Loading bool             `json:"loading"`
}

// Controller accumulates pages of one listing view. Every query change
// starts a new generation; pages fetched for an older generation are never
// merged.
type Controller struct {
	source ProductSource
	log    *slog.Logger

	mu         sync.Mutex
	query      Query
	items      []domain.Product
	ids        map[string]struct{}
	page       int
	hasMore    bool
	loading    bool
	generation uint64
}

func NewController(source ProductSource, log *slog.Logger) *Controller {
	return &Controller{
		source: source,
		log:    log,
		query:  Query{}.Normalize(),
		ids:    make(map[string]struct{}),
	}
}

// SetQuery switches the listing to q and loads its first page. Setting the
// query that is already shown, or already loading, keeps the current state.
func (c *Controller) SetQuery(ctx context.Context, q Query) (Result, error) {
	q = q.Normalize()
	if err := q.Validate(); err != nil {
		return c.Result(), err
	}

	c.mu.Lock()
	if (c.page > 0 || c.loading) && c.query.Equal(q) {
		res := c.snapshot()
		c.mu.Unlock()
		return res, nil
	}
	c.generation++
	c.query = q
	c.items = nil
	c.ids = make(map[string]struct{})
	c.page = 0
	c.hasMore = false
	return c.load(ctx, 1)
}

// Advance loads the next page. It does nothing while a page is loading or
// when the last page came back short.
func (c *Controller) Advance(ctx context.Context) (Result, error) {
	c.mu.Lock()
	if c.loading || !c.hasMore {
		res := c.snapshot()
		c.mu.Unlock()
		return res, nil
	}
	return c.load(ctx, c.page+1)
}

// Seed installs products rendered ahead of time as the first page of q.
func (c *Controller) Seed(q Query, items []domain.Product) Result {
	q = q.Normalize()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.query = q
	c.items = nil
	c.ids = make(map[string]struct{})
	c.merge(items)
	c.page = 1
	c.hasMore = len(items) == PageSize
	c.loading = false
	return c.snapshot()
}

func (c *Controller) Result() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// load must be called with c.mu held; it releases the lock.
func (c *Controller) load(ctx context.Context, page int) (Result, error) {
	gen := c.generation
	q := c.query
	c.loading = true
	c.mu.Unlock()

	fetched, err := c.source.Fetch(ctx, q, page)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		c.log.DebugContext(ctx, "dropping superseded listing page", slog.Int("page", page))
		return c.snapshot(), ErrSuperseded
	}
	c.loading = false
	if err != nil {
		c.log.WarnContext(ctx, "listing page fetch failed", slog.Int("page", page), slog.Any("error", err))
		return c.snapshot(), err
	}

	c.merge(fetched.Items)
	c.page = page
	c.hasMore = fetched.HasMore
	return c.snapshot(), nil
}

func (c *Controller) merge(items []domain.Product) {
	for _, p := range items {
		if _, ok := c.ids[p.ID]; ok {
			continue
		}
		c.ids[p.ID] = struct{}{}
		c.items = append(c.items, p)
	}
}

func (c *Controller) snapshot() Result {
	items := slices.Clone(c.items)
	if items == nil {
		items = []domain.Product{}
	}
	return Result{
		Query:   c.query,
		Items:   items,
		HasMore: c.hasMore,
		Page:    c.page,
		Loading: c.loading,
	}
}

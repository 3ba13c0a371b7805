package catalog

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/lodgeline/booking-engine/internal/domain"
	"github.com/lodgeline/booking-engine/internal/platform/pms"
	"github.com/lodgeline/booking-engine/pkg/events"
	"github.com/lodgeline/booking-engine/pkg/logger"
)

// InventoryLister is the slice of the PMS client the aggregator needs.
type InventoryLister interface {
	ListProperties(ctx context.Context, page, pageSize int) ([]domain.PropertyOption, int, error)
	ListUnitTypes(ctx context.Context, propertyID int64, page, pageSize int) ([]domain.UnitTypeOption, int, error)
	ListSalesChannels(ctx context.Context, propertyID int64, page, pageSize int) ([]domain.SalesChannelOption, int, error)
}

// Aggregator discovers properties, unit types and sales channels from the PMS
// and caches the assembled catalog in memory. Concurrent cold-cache loads
// collapse into one upstream fetch sequence.
type Aggregator struct {
	client   InventoryLister
	pageSize int
	ttl      time.Duration // 0 = cache never goes stale
	bus      events.Publisher

	group singleflight.Group
	now   func() time.Time

	mu       sync.Mutex
	cached   *domain.OptionsCatalog
	cachedAt time.Time
}

func NewAggregator(client InventoryLister, pageSize int, ttl time.Duration, bus events.Publisher) *Aggregator {
	if pageSize <= 0 {
		pageSize = 30
	}
	if bus == nil {
		bus = events.NoopBus{}
	}
	return &Aggregator{
		client:   client,
		pageSize: pageSize,
		ttl:      ttl,
		bus:      bus,
		now:      time.Now,
	}
}

// LoadOptions returns the cached catalog when fresh, otherwise rebuilds it.
// It never returns an error: a failed rebuild falls back to the last good
// catalog, or an empty one if none exists.
func (a *Aggregator) LoadOptions(ctx context.Context, forceReload bool) *domain.OptionsCatalog {
	if !forceReload {
		if catalog, ok := a.fresh(); ok {
			return catalog
		}
	}

	v, _, shared := a.group.Do("options", func() (interface{}, error) {
		return a.build(ctx), nil
	})
	if shared {
		logger.DebugContext(ctx, "options load shared with concurrent caller")
	}
	return v.(*domain.OptionsCatalog)
}

func (a *Aggregator) fresh() (*domain.OptionsCatalog, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cached == nil {
		return nil, false
	}
	if a.ttl > 0 && a.now().Sub(a.cachedAt) > a.ttl {
		// Stale: still kept as the last-good fallback, but not served directly.
		return nil, false
	}
	return a.cached, true
}

func (a *Aggregator) lastGood() *domain.OptionsCatalog {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cached != nil {
		return a.cached
	}
	return domain.EmptyCatalog()
}

func (a *Aggregator) store(catalog *domain.OptionsCatalog) {
	a.mu.Lock()
	a.cached = catalog
	a.cachedAt = a.now()
	a.mu.Unlock()
}

func (a *Aggregator) build(ctx context.Context) *domain.OptionsCatalog {
	properties, err := a.listAllProperties(ctx)
	if err != nil {
		if errors.Is(err, pms.ErrNoCredential) {
			logger.WarnContext(ctx, "options load skipped: no PMS credential configured")
			return domain.EmptyCatalog()
		}
		logger.ErrorContext(ctx, "property listing failed, serving last good catalog", "error", err)
		return a.lastGood()
	}

	catalog := &domain.OptionsCatalog{
		PropertyOptions:         properties,
		UnitTypesByProperty:     make(map[int64][]domain.UnitTypeOption, len(properties)),
		SalesChannelsByProperty: make(map[int64][]domain.SalesChannelOption, len(properties)),
	}

	for _, property := range properties {
		unitTypes, err := a.listAllUnitTypes(ctx, property.ID)
		if err != nil {
			logger.WarnContext(ctx, "unit type listing failed for property",
				"property_id", property.ID, "error", err)
			unitTypes = []domain.UnitTypeOption{}
		}
		catalog.UnitTypesByProperty[property.ID] = unitTypes

		channels, err := a.listAllSalesChannels(ctx, property.ID)
		if err != nil {
			logger.WarnContext(ctx, "sales channel listing failed for property",
				"property_id", property.ID, "error", err)
			channels = []domain.SalesChannelOption{}
		}
		catalog.SalesChannelsByProperty[property.ID] = channels
	}

	a.store(catalog)

	if err := a.bus.Publish(ctx, events.CatalogRefreshed, events.CatalogRefreshedEvent{
		Properties:  len(properties),
		RefreshedAt: time.Now(),
	}); err != nil {
		logger.WarnContext(ctx, "failed to publish catalog refreshed event", "error", err)
	}

	return catalog
}

func (a *Aggregator) listAllProperties(ctx context.Context) ([]domain.PropertyOption, error) {
	var all []domain.PropertyOption
	for page := 1; ; page++ {
		options, total, err := a.client.ListProperties(ctx, page, a.pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, options...)
		if len(options) < a.pageSize || (total > 0 && len(all) >= total) {
			break
		}
	}
	if all == nil {
		all = []domain.PropertyOption{}
	}
	return all, nil
}

func (a *Aggregator) listAllUnitTypes(ctx context.Context, propertyID int64) ([]domain.UnitTypeOption, error) {
	var all []domain.UnitTypeOption
	for page := 1; ; page++ {
		options, total, err := a.client.ListUnitTypes(ctx, propertyID, page, a.pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, options...)
		if len(options) < a.pageSize || (total > 0 && len(all) >= total) {
			break
		}
	}
	if all == nil {
		all = []domain.UnitTypeOption{}
	}
	return all, nil
}

func (a *Aggregator) listAllSalesChannels(ctx context.Context, propertyID int64) ([]domain.SalesChannelOption, error) {
	var all []domain.SalesChannelOption
	for page := 1; ; page++ {
		options, total, err := a.client.ListSalesChannels(ctx, propertyID, page, a.pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, options...)
		if len(options) < a.pageSize || (total > 0 && len(all) >= total) {
			break
		}
	}
	if all == nil {
		all = []domain.SalesChannelOption{}
	}
	return all, nil
}

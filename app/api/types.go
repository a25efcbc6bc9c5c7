package api

import (
	"context"

	"github.com/jhartig/offer-comb/app/cache"
	"github.com/jhartig/offer-comb/app/database"
	"github.com/jhartig/offer-comb/app/offers"
)

// AggregatorInterface is the aggregation capability the handlers depend on.
type AggregatorInterface interface {
	Run(ctx context.Context, addr offers.Address) []offers.Offer
	ProviderCount() int
}

var _ AggregatorInterface = (*offers.Aggregator)(nil)

// ShareCache is the optional share-payload cache; a nil handler field
// disables caching.
type ShareCache interface {
	GetShare(ctx context.Context, id string) (string, bool, error)
	SetShare(ctx context.Context, id, payload string) error
	Health(ctx context.Context) map[string]any
}

var _ ShareCache = (*cache.Cache)(nil)

type Handler struct {
	aggregator AggregatorInterface
	shareRepo  database.ShareRepository
	cache      ShareCache
	version    string
}

// NewHandler creates the API handler. cache may be nil.
func NewHandler(aggregator AggregatorInterface, shareRepo database.ShareRepository, shareCache ShareCache, version string) *Handler {
	return &Handler{
		aggregator: aggregator,
		shareRepo:  shareRepo,
		cache:      shareCache,
		version:    version,
	}
}

// Package refresh pulls the three source collections from the remote
// store and replaces the local stock cache with their normalized
// projection.
package refresh

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"stockops/internal/cache"
	"stockops/internal/metrics"
	"stockops/internal/stock"
)

// Fetcher is the slice of the store client a refresh needs.
type Fetcher interface {
	FetchProducts(ctx context.Context) ([]stock.Product, error)
	FetchDonations(ctx context.Context) ([]stock.Donation, error)
	FetchExchanges(ctx context.Context) ([]stock.Exchange, error)
}

type Refresher struct {
	fetcher Fetcher
	cache   cache.Store
	mets    *metrics.Registry
}

// New wires the refresher. mets may be nil.
func New(fetcher Fetcher, store cache.Store, mets *metrics.Registry) *Refresher {
	return &Refresher{fetcher: fetcher, cache: store, mets: mets}
}

// Once fetches all three collections concurrently and swaps the cache.
// Any fetch failure aborts the refresh and keeps the previous snapshot.
func (r *Refresher) Once(ctx context.Context) error {
	var (
		products  []stock.Product
		donations []stock.Donation
		exchanges []stock.Exchange
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = r.fetcher.FetchProducts(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		donations, err = r.fetcher.FetchDonations(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		exchanges, err = r.fetcher.FetchExchanges(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		if r.mets != nil {
			r.mets.RefreshFailures.Inc()
		}
		return fmt.Errorf("fetch sources: %w", err)
	}

	items := stock.Normalize(products, donations, exchanges)
	if err := r.cache.ReplaceAll(items); err != nil {
		if r.mets != nil {
			r.mets.RefreshFailures.Inc()
		}
		return fmt.Errorf("replace cache: %w", err)
	}
	if r.mets != nil {
		r.mets.SourceRefreshes.Inc()
		r.mets.CachedItems.Set(float64(len(items)))
	}
	return nil
}

// Run refreshes once immediately, then on every tick until ctx ends.
// A failed refresh is logged and retried at the next tick.
func (r *Refresher) Run(ctx context.Context, interval time.Duration) {
	if err := r.Once(ctx); err != nil {
		log.Printf("refresh failed err=%v", err)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Once(ctx); err != nil {
				log.Printf("refresh failed err=%v", err)
			}
		}
	}
}

package usecase

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

type ResolvedAsset struct {
	Ref   AssetRef
	Asset Asset
}

// Resolver decides which catalog an asset id belongs to. Models take
// precedence over components when an id exists in both.
//
// finders are the catalogs themselves. lookups may front them with a cache
// and only serve placement and browsing; Verify always reads finders.
type Resolver struct {
	order       []Catalog
	finders     map[Catalog]AssetFinder
	lookups     map[Catalog]AssetFinder
	concurrency int
}

func NewResolver(models, components AssetFinder, concurrency int) *Resolver {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Resolver{
		order: []Catalog{CatalogModel, CatalogComponent},
		finders: map[Catalog]AssetFinder{
			CatalogModel:     models,
			CatalogComponent: components,
		},
		lookups: map[Catalog]AssetFinder{
			CatalogModel:     models,
			CatalogComponent: components,
		},
		concurrency: concurrency,
	}
}

// WithLookups serves Resolve and Lookup from the given finders. Nil finders
// keep the catalog itself.
func (r *Resolver) WithLookups(models, components AssetFinder) *Resolver {
	if models != nil {
		r.lookups[CatalogModel] = models
	}
	if components != nil {
		r.lookups[CatalogComponent] = components
	}
	return r
}

// Resolve tries each catalog in precedence order and returns the first hit.
func (r *Resolver) Resolve(ctx context.Context, assetID string) (ResolvedAsset, bool, error) {
	if assetID == "" {
		return ResolvedAsset{}, false, nil
	}
	for _, c := range r.order {
		asset, ok, err := r.lookups[c].FindAssetByID(ctx, assetID)
		if err != nil {
			return ResolvedAsset{}, false, fmt.Errorf("resolve %s in %s: %w", assetID, c, err)
		}
		if ok {
			asset.Catalog = c
			return ResolvedAsset{
				Ref:   AssetRef{AssetID: assetID, Catalog: c},
				Asset: asset,
			}, true, nil
		}
	}
	return ResolvedAsset{}, false, nil
}

// Lookup reads one tagged catalog through the lookup finders.
func (r *Resolver) Lookup(ctx context.Context, ref AssetRef) (Asset, bool, error) {
	return find(ctx, r.lookups, ref)
}

// Verify re-checks an existing reference against its own catalog only.
func (r *Resolver) Verify(ctx context.Context, ref AssetRef) (Asset, bool, error) {
	return find(ctx, r.finders, ref)
}

func find(ctx context.Context, finders map[Catalog]AssetFinder, ref AssetRef) (Asset, bool, error) {
	finder, known := finders[ref.Catalog]
	if !known || ref.AssetID == "" {
		return Asset{}, false, nil
	}
	asset, ok, err := finder.FindAssetByID(ctx, ref.AssetID)
	if err != nil {
		return Asset{}, false, fmt.Errorf("find %s in %s: %w", ref.AssetID, ref.Catalog, err)
	}
	if ok {
		asset.Catalog = ref.Catalog
	}
	return asset, ok, nil
}

type Verification struct {
	Ref   AssetRef
	Asset Asset
	OK    bool
}

// VerifyAll verifies refs concurrently. Results are in input order.
func (r *Resolver) VerifyAll(ctx context.Context, refs []AssetRef) ([]Verification, error) {
	out := make([]Verification, len(refs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, ref := range refs {
		g.Go(func() error {
			asset, ok, err := r.Verify(ctx, ref)
			if err != nil {
				return err
			}
			out[i] = Verification{Ref: ref, Asset: asset, OK: ok}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/nightwatch/internal/classifier"
	"github.com/sells-group/nightwatch/internal/gazetteer"
	"github.com/sells-group/nightwatch/internal/resilience"
	"github.com/sells-group/nightwatch/internal/safety"
	"github.com/sells-group/nightwatch/internal/scorer"
	"github.com/sells-group/nightwatch/internal/signal"
	"github.com/sells-group/nightwatch/internal/store"
	"github.com/sells-group/nightwatch/pkg/geocode"
	"github.com/sells-group/nightwatch/pkg/overpass"
	"github.com/sells-group/nightwatch/pkg/places"
)

// serviceEnv holds the initialized pipeline and the resources behind it,
// shared by the serve/score/heatmap commands.
type serviceEnv struct {
	Service *safety.Service
	cache   store.Cache
}

// Close releases resources held by the environment.
func (e *serviceEnv) Close() {
	if e.cache != nil {
		_ = e.cache.Close()
	}
}

// initService wires the gazetteer, cache, geocoding cascade, signal providers
// and classifier into a Service. Callers should defer env.Close().
func initService(ctx context.Context) (*serviceEnv, error) {
	if err := scorer.ValidateConfig(cfg.Scorer); err != nil {
		return nil, err
	}

	table, err := gazetteer.Load()
	if err != nil {
		return nil, err
	}

	model, err := classifier.Load(cfg.Classifier.ForestPath, cfg.Classifier.LabelsPath)
	if err != nil {
		return nil, err
	}

	cache, err := initCache(ctx)
	if err != nil {
		return nil, err
	}

	googleProvider := geocode.NewGoogleProvider(cfg.Google.APIKey,
		geocode.WithGoogleBaseURL(cfg.Google.GeocodeBaseURL),
		geocode.WithRegionSuffix(cfg.Google.RegionSuffix),
	)
	if !googleProvider.Available() {
		zap.L().Warn("NIGHTWATCH_GOOGLE_API_KEY not set, geocoding limited to the offline gazetteer")
	}

	var resolverOpts []geocode.ResolverOption
	if cache != nil {
		resolverOpts = append(resolverOpts, geocode.WithCache(cache))
	}
	resolver := geocode.NewResolver(table, []geocode.Provider{googleProvider}, resolverOpts...)

	placesClient := places.NewClient(cfg.Google.APIKey,
		places.WithBaseURL(cfg.Google.PlacesBaseURL),
	)
	overpassClient := overpass.NewClient(
		overpass.WithBaseURL(cfg.Overpass.BaseURL),
		overpass.WithRetry(resilience.RetryConfig{MaxAttempts: cfg.Overpass.MaxRetries + 1}),
	)

	googleTimeout := time.Duration(cfg.Google.TimeoutSecs) * time.Second
	overpassTimeout := time.Duration(cfg.Overpass.TimeoutSecs) * time.Second

	collector := signal.NewCollector(
		signal.NewPoliceProvider(placesClient, cfg.Signals.PoliceRadiusMeters, googleTimeout),
		signal.NewAccidentProvider(cfg.Signals.AccidentFallback),
		signal.NewStreetlightProvider(overpassClient,
			cfg.Signals.StreetlightRadiusMeters,
			cfg.Signals.StreetlightFallbackCount,
			cfg.Signals.StreetlightFallbackDensity,
			overpassTimeout,
		),
	)

	svc := safety.NewService(resolver, collector, model, cfg.Scorer, cfg.Classifier, cfg.Heatmap)

	zap.L().Info("service initialized",
		zap.Int("gazetteer_entries", table.Len()),
		zap.Bool("google_geocoding", googleProvider.Available()),
		zap.String("cache_driver", cfg.Cache.Driver),
	)

	return &serviceEnv{Service: svc, cache: cache}, nil
}

// initCache opens the geocode cache named by cache.driver. An empty driver
// runs without a cache.
func initCache(ctx context.Context) (store.Cache, error) {
	switch cfg.Cache.Driver {
	case "":
		return nil, nil
	case "sqlite":
		c, err := store.NewSQLite(cfg.Cache.Path, cfg.Cache.TTLDays)
		if err != nil {
			return nil, err
		}
		if err := c.Migrate(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
		return c, nil
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Cache.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "connect postgres cache")
		}
		c := store.NewPostgres(pool, cfg.Cache.TTLDays)
		if err := c.Migrate(ctx); err != nil {
			_ = c.Close()
			return nil, err
		}
		return c, nil
	default:
		return nil, eris.Errorf("unknown cache driver %q (want sqlite, postgres or empty)", cfg.Cache.Driver)
	}
}

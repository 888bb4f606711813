package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yashdhanani30/medidown"
	"github.com/yashdhanani30/medidown/async"
	"github.com/yashdhanani30/medidown/extractor/ytdlp"
	"github.com/yashdhanani30/medidown/internal/cache"
	"github.com/yashdhanani30/medidown/planner"
	"github.com/yashdhanani30/medidown/resolver"
	"github.com/yashdhanani30/medidown/scrape"
	"github.com/yashdhanani30/medidown/sources/all"
)

func main() {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, err := config.Build()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()
	zap.RedirectStdLog(logger)
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &cli.App{
		Name:  "medidown",
		Usage: "resolve media URLs into format catalogs and fulfillment plans",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "load configuration from `FILE`",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "resolve",
				Usage:     "resolve a URL into its format catalog",
				ArgsUsage: "URL...",
				Action: func(c *cli.Context) error {
					return withEngine(c, func(e *engine) error {
						for _, rawURL := range c.Args().Slice() {
							result, err := e.resolver.Resolve(ctx, rawURL)
							if err != nil {
								return err
							}
							if err := printJSON(result); err != nil {
								return err
							}
						}
						return nil
					})
				},
			},
			{
				Name:      "plan",
				Usage:     "plan fulfillment of a format for a URL",
				ArgsUsage: "URL FORMAT_ID",
				Action: func(c *cli.Context) error {
					if c.NArg() != 2 {
						return fmt.Errorf("expected URL and FORMAT_ID arguments")
					}
					return withEngine(c, func(e *engine) error {
						fulfillment, err := e.planner.Plan(ctx, c.Args().Get(0), c.Args().Get(1), nil)
						if err != nil {
							return err
						}
						return printJSON(fulfillment)
					})
				},
			},
			{
				Name:  "cache",
				Usage: "inspect and maintain the resolution cache",
				Subcommands: []*cli.Command{
					{
						Name:  "stats",
						Usage: "show cache statistics",
						Action: func(c *cli.Context) error {
							return withEngine(c, func(e *engine) error {
								stats, err := e.cache.Stats()
								if err != nil {
									return err
								}
								return printJSON(stats)
							})
						},
					},
					{
						Name:  "sweep",
						Usage: "delete expired cache entries",
						Action: func(c *cli.Context) error {
							return withEngine(c, func(e *engine) error {
								deleted, err := e.cache.Sweep()
								if err != nil {
									return err
								}
								fmt.Printf("deleted %d expired entries\n", deleted)
								return nil
							})
						},
					},
					{
						Name:  "purge",
						Usage: "delete every cache entry",
						Action: func(c *cli.Context) error {
							return withEngine(c, func(e *engine) error {
								return e.cache.Purge()
							})
						},
					},
				},
			},
		},
		HideHelpCommand: true,
	}

	result := async.Run(func() error { return app.Run(os.Args) })

	select {
	case err = <-result:
		if err != nil {
			logger.Fatal(err.Error())
		}
	case <-ctx.Done():
		stop()
		err = <-result
		if err != nil {
			logger.Fatal(err.Error())
		}
	}
}

type engine struct {
	config   medidown.Config
	cache    *cache.Cache
	resolver *resolver.Resolver
	planner  *planner.Planner
}

func withEngine(c *cli.Context, f func(*engine) error) error {
	log := zap.S()

	config, err := medidown.LoadConfig(c.String("config"))
	if err != nil {
		return err
	}

	store, err := cache.Open(config.CachePath, config.CacheTTL(), log)
	if err != nil {
		return err
	}
	defer store.Close()

	scraper := scrape.NewClient(scrape.ClientOptions{
		UserAgent:      config.UserAgent,
		AcceptLanguage: config.AcceptLanguage,
		Proxy:          config.Proxy,
	}, log)
	links := resolver.NewShortlinkResolver(scraper)
	registry := all.New(all.Options{
		Scraper:               scraper,
		FacebookForceFallback: config.Sources["facebook"].ForceFallback,
	})

	res := resolver.New(resolver.Deps{
		Registry:  registry,
		Extractor: ytdlp.New("", log),
		Store:     store,
		Links:     links,
		Scraper:   scraper,
		Config:    config,
		Logger:    log,
	})

	return f(&engine{
		config:   config,
		cache:    store,
		resolver: res,
		planner:  planner.New(registry, res, log),
	})
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

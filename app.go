package main

import (
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/finneas-io/edgar/adapter/apiclient"
	"github.com/finneas-io/edgar/adapter/apiclient/httpclient"
	"github.com/finneas-io/edgar/adapter/apiclient/rawclient"
	"github.com/finneas-io/edgar/adapter/bucket"
	"github.com/finneas-io/edgar/adapter/bucket/folder"
	"github.com/finneas-io/edgar/adapter/bucket/objstore"
	"github.com/finneas-io/edgar/adapter/cache"
	"github.com/finneas-io/edgar/adapter/database"
	"github.com/finneas-io/edgar/adapter/database/postgres"
	"github.com/finneas-io/edgar/adapter/logger"
	"github.com/finneas-io/edgar/adapter/logger/console"
	"github.com/finneas-io/edgar/adapter/metrics"
	"github.com/finneas-io/edgar/config"
	"github.com/finneas-io/edgar/service/directory"
	"github.com/finneas-io/edgar/service/facts"
	"github.com/finneas-io/edgar/service/filings"
)

// app holds the adapters and services shared by all commands.
type app struct {
	cfg       *config.Config
	logger    logger.Logger
	metrics   *metrics.Metrics
	client    apiclient.Client
	directory *directory.Service
	filings   *filings.Service
	facts     *facts.Service
	db        database.Database
}

func newApp(cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, metrics: metrics.New()}

	pretty := cfg.Log.Pretty
	if pretty {
		// keep JSON lines when stderr is redirected
		if fi, err := os.Stderr.Stat(); err == nil && fi.Mode()&os.ModeCharDevice == 0 {
			pretty = false
		}
	}
	a.logger = console.New(cfg.Log.Level, pretty)

	switch cfg.Client.Transport {
	case "http":
		a.client = httpclient.New(
			cfg.Client.UserAgent,
			httpclient.WithAccept(cfg.Client.Accept),
			httpclient.WithTimeout(cfg.Client.Timeout),
			httpclient.WithMetrics(a.metrics),
		)
	default:
		a.client = rawclient.New(
			cfg.Client.UserAgent,
			rawclient.WithAccept(cfg.Client.Accept),
			rawclient.WithTimeout(cfg.Client.Timeout),
			rawclient.WithLogger(a.logger.With("adapter", "rawclient")),
			rawclient.WithMetrics(a.metrics),
		)
	}

	opts := []directory.Option{
		directory.WithMetrics(a.metrics),
		directory.WithEndpoint(cfg.Directory.Host, cfg.Directory.Path),
	}
	b, err := newBucket(cfg.Bucket)
	if err != nil {
		return nil, err
	}
	if b != nil {
		opts = append(opts, directory.WithCache(cache.New(b, cfg.Directory.CacheTTL)))
	}

	if cfg.Directory.DBFallback {
		db, err := a.database()
		if err != nil {
			return nil, err
		}
		opts = append(opts, directory.WithFallback(db))
	}

	a.directory = directory.New(a.client, a.logger.With("service", "directory"), opts...)
	a.filings = filings.New(a.client, a.logger.With("service", "filings"), a.metrics)
	a.facts = facts.New(a.client, a.logger.With("service", "facts"))

	return a, nil
}

func newBucket(cfg config.BucketConfig) (bucket.Bucket, error) {
	switch cfg.Kind {
	case "folder":
		return folder.New(cfg.Path)
	case "s3":
		sess, err := session.NewSession(&aws.Config{Region: aws.String(cfg.Region)})
		if err != nil {
			return nil, err
		}
		return objstore.New(sess, cfg.Name, cfg.Prefix), nil
	}
	return nil, nil
}

// database connects on first use and reuses the pool afterwards.
func (a *app) database() (database.Database, error) {
	if a.db != nil {
		return a.db, nil
	}
	cfg := a.cfg.Database
	if !cfg.Configured() {
		return nil, fmt.Errorf("%w: database.url or database.host is required", config.ErrInvalidConfig)
	}
	url := cfg.URL
	if len(url) < 1 {
		url = postgres.ConnString(cfg.Host, cfg.Port, cfg.Name, cfg.User, cfg.Password)
	}
	db, err := postgres.New(url)
	if err != nil {
		return nil, err
	}
	if err := db.CreateBaseTables(); err != nil {
		db.Close()
		return nil, err
	}
	a.db = db
	return db, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}

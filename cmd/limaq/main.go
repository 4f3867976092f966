package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/dmeza/limaq/internal/api"
	"github.com/dmeza/limaq/internal/config"
	"github.com/dmeza/limaq/internal/ingest"
	"github.com/dmeza/limaq/internal/models"
	"github.com/dmeza/limaq/internal/reports"
	"github.com/dmeza/limaq/internal/stage"
)

var cli struct {
	EnvFile string `default:".env" help:"Env file consulted for keys missing from the environment."`

	Ingest ingestCmd `cmd:"" help:"Fetch current air quality for every district and land it in the stage."`
	Serve  serveCmd  `cmd:"" help:"Serve the reporting dashboard from the warehouse."`
}

type ingestCmd struct {
	DataDir   string `default:"." help:"Directory holding the local data/ tree."`
	Locations string `help:"JSON file overriding the built-in Lima district list." type:"existingfile"`
}

func (c *ingestCmd) Run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	locations := models.DefaultLocations
	if c.Locations != "" {
		var err error
		locations, err = models.LoadLocations(c.Locations)
		if err != nil {
			return fmt.Errorf("load locations: %w", err)
		}
	}

	runner, cleanup, err := buildRunner(ctx, cfg, c.DataDir)
	if err != nil {
		return err
	}
	defer cleanup()

	summary := runner.Run(ctx, locations)
	fmt.Println(summary.String())
	return nil
}

type serveCmd struct {
	Port         string        `default:"8080" help:"HTTP listen port."`
	DataDir      string        `default:"." help:"Directory holding the local data/ tree."`
	PollInterval time.Duration `help:"When set, run ingestion passes on this interval alongside the server."`
}

func (c *serveCmd) Run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open(cfg.WarehouseDriver, cfg.DSN())
	if err != nil {
		return fmt.Errorf("open warehouse: %w", err)
	}
	defer db.Close()

	schema := ""
	if cfg.WarehouseDriver == "postgres" {
		schema = reports.PublishSchema
	}
	server := api.NewServer(reports.New(db, schema), c.Port)

	if c.PollInterval > 0 {
		runner, cleanup, err := buildRunner(ctx, cfg, c.DataDir)
		if err != nil {
			return err
		}
		defer cleanup()
		go ingest.NewScheduler(runner, models.DefaultLocations, c.PollInterval).Run(ctx)
	}

	return server.Run(ctx)
}

func buildRunner(ctx context.Context, cfg *config.Config, dataDir string) (*ingest.Runner, func(), error) {
	var uploader stage.Uploader = stage.NopUploader{}
	cleanup := func() {}
	if cfg.StageBucket != "" {
		gcs, err := stage.NewGCSUploader(ctx, cfg.StageBucket)
		if err != nil {
			return nil, nil, fmt.Errorf("open stage bucket %s: %w", cfg.StageBucket, err)
		}
		uploader = gcs
		cleanup = func() { gcs.Close() }
	} else {
		log.Println("STAGE_BUCKET unset, staged files stay local")
	}

	client := ingest.NewClient(cfg.APIURL, cfg.APIToken)
	return ingest.NewRunner(client, stage.NewWriter(dataDir), uploader), cleanup, nil
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("limaq"),
		kong.Description("Lima air quality ingestion and reporting."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load(cli.EnvFile)
	kctx.FatalIfErrorf(err)

	kctx.FatalIfErrorf(kctx.Run(cfg))
}

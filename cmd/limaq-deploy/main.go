package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/dmeza/limaq/internal/config"
	"github.com/dmeza/limaq/internal/deploy"
)

var cli struct {
	EnvFile string `default:".env" help:"Env file consulted for keys missing from the environment."`
	SQLDir  string `default:"sql" help:"Directory holding the ddl/ and dml/ script trees."`

	Env        string `default:"dev" enum:"dev,prod" help:"Target environment."`
	SkipTests  bool   `help:"Skip the post-deployment verification battery."`
	DDLOnly    bool   `name:"ddl-only" help:"Deploy DDL scripts only, skipping DML."`
	VerifyOnly bool   `name:"verify-only" help:"Run only the verification battery against an existing deployment."`
}

func run(ctx context.Context) error {
	cfg, err := config.Load(cli.EnvFile)
	if err != nil {
		return err
	}

	log.Printf("deploying to %s (%s)", cli.Env, cfg.WarehouseDriver)

	db, err := sql.Open(cfg.WarehouseDriver, cfg.DSN())
	if err != nil {
		return fmt.Errorf("open warehouse: %w", err)
	}
	defer db.Close()

	d := deploy.New(db, cli.SQLDir)
	if err := d.Connect(ctx); err != nil {
		return err
	}

	if cli.VerifyOnly {
		return d.Verify(ctx)
	}

	if err := d.DeployDDL(ctx); err != nil {
		return err
	}

	if !cli.DDLOnly {
		if err := d.DeployDML(ctx); err != nil {
			return err
		}
	}

	if cli.SkipTests {
		log.Println("verification skipped")
		return nil
	}
	return d.Verify(ctx)
}

func main() {
	kong.Parse(&cli,
		kong.Name("limaq-deploy"),
		kong.Description("Deploy warehouse DDL and DML scripts, then verify the deployment."),
		kong.UsageOnError(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("deployment failed: %v", err)
		os.Exit(1)
	}
	log.Println("deployment succeeded")
}

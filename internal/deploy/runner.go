// Package deploy runs SQL DDL/DML files against the warehouse and verifies
// object creation. It is a separate concern from the ingestion data path,
// invoked by its own binary.
package deploy

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/dmeza/limaq/internal/metrics"
)

// Deployer walks connect → deploy-ddl → deploy-dml → verify against a
// single warehouse session. The session handle is owned by the caller and
// must be closed by the caller regardless of which stage failed.
type Deployer struct {
	db     *sql.DB
	sqlDir string
	checks []check
}

type check struct {
	name  string
	query string
}

// defaultChecks is the fixed post-deploy existence battery: the database,
// the three schemas, and the tables within them.
var defaultChecks = []check{
	{"Databases", "SELECT datname FROM pg_database WHERE datname = current_database()"},
	{"Schemas", "SELECT schema_name FROM information_schema.schemata WHERE schema_name IN ('stage_sch', 'clean_sch', 'consumption_sch')"},
	{"Stage Tables", "SELECT table_name FROM information_schema.tables WHERE table_schema = 'stage_sch'"},
	{"Clean Tables", "SELECT table_name FROM information_schema.tables WHERE table_schema = 'clean_sch'"},
	{"Consumption Tables", "SELECT table_name FROM information_schema.tables WHERE table_schema = 'consumption_sch'"},
}

// New returns a Deployer reading SQL files from sqlDir/ddl and sqlDir/dml.
func New(db *sql.DB, sqlDir string) *Deployer {
	return &Deployer{db: db, sqlDir: sqlDir, checks: defaultChecks}
}

// Connect verifies the warehouse session is usable. A failure here aborts
// the whole run.
func (d *Deployer) Connect(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("connect to warehouse: %w", err)
	}
	log.Println("connected to warehouse")
	return nil
}

// DeployDDL executes every schema-definition file in lexical order. The
// first file that fails stops the stage; remaining files are not attempted.
func (d *Deployer) DeployDDL(ctx context.Context) error {
	files, err := d.discover("ddl")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no DDL files found in %s", filepath.Join(d.sqlDir, "ddl"))
	}

	for _, file := range files {
		if err := d.executeFile(ctx, file, "ddl"); err != nil {
			return fmt.Errorf("deployment failed at %s: %w", filepath.Base(file), err)
		}
	}
	return nil
}

// DeployDML executes every data-manipulation file in lexical order. A
// failed file is logged and skipped; the stage never fails because of it.
func (d *Deployer) DeployDML(ctx context.Context) error {
	files, err := d.discover("dml")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Println("no DML files found")
		return nil
	}

	for _, file := range files {
		if err := d.executeFile(ctx, file, "dml"); err != nil {
			log.Printf("DML script %s failed (non-critical): %v", filepath.Base(file), err)
		}
	}
	return nil
}

// Verify runs the fixed existence-check battery. Every check is attempted
// and logged; the battery passes only if all checks pass.
func (d *Deployer) Verify(ctx context.Context) error {
	var result *multierror.Error
	for _, c := range d.checks {
		count, err := d.countRows(ctx, c.query)
		if err != nil {
			log.Printf("check failed %s: %v", c.name, err)
			result = multierror.Append(result, fmt.Errorf("%s: %w", c.name, err))
			continue
		}
		log.Printf("check passed %s: %d objects found", c.name, count)
	}
	return result.ErrorOrNil()
}

func (d *Deployer) countRows(ctx context.Context, query string) (int, error) {
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		count++
	}
	return count, rows.Err()
}

func (d *Deployer) discover(group string) ([]string, error) {
	pattern := filepath.Join(d.sqlDir, group, "*.sql")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("discover %s files: %w", group, err)
	}
	sort.Strings(files)
	return files, nil
}

// executeFile runs each semicolon-delimited statement in the file.
// Individual statement failures are logged and swallowed; the file only
// fails when it cannot be read at all. A file can therefore succeed even
// though statements inside it failed, so DDL's stop-on-file-failure policy
// only triggers on unreadable files.
func (d *Deployer) executeFile(ctx context.Context, path, group string) error {
	log.Printf("executing %s", filepath.Base(path))

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	statements := SplitStatements(string(content))
	for i, stmt := range statements {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			metrics.DeployStatementsTotal.WithLabelValues(group, "error").Inc()
			log.Printf("  statement %d/%d failed: %v", i+1, len(statements), err)
			continue
		}
		metrics.DeployStatementsTotal.WithLabelValues(group, "ok").Inc()
	}

	log.Printf("completed %s", filepath.Base(path))
	return nil
}

// SplitStatements splits SQL text on semicolons, trimming whitespace and
// dropping empty fragments and fragments that are only line comments.
func SplitStatements(content string) []string {
	var statements []string
	for _, raw := range strings.Split(content, ";") {
		stmt := strings.TrimSpace(raw)
		if stmt == "" || isCommentOnly(stmt) {
			continue
		}
		statements = append(statements, stmt)
	}
	return statements
}

func isCommentOnly(stmt string) bool {
	for _, line := range strings.Split(stmt, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return false
		}
	}
	return true
}

// Package migrate manages the ClickHouse schema used by the clickhouse
// transport.
package migrate

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/clickhouse" // ClickHouse driver.
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
)

// Table is the series table the embedded migrations create.
const Table = "series"

//go:embed sql/*.sql
var migrations embed.FS

// ErrUnmanagedTable is returned when the configured table is not the one the
// embedded migrations create.
var ErrUnmanagedTable = errors.New("table is not managed by migrations")

// Status describes the applied schema of the series table.
type Status struct {
	Table   string
	Version uint
	Latest  uint
	Dirty   bool
}

// Pending reports whether embedded migrations remain to be applied.
func (s Status) Pending() bool {
	return s.Version < s.Latest
}

func (s Status) String() string {
	return fmt.Sprintf("table=%s version=%d latest=%d dirty=%t", s.Table, s.Version, s.Latest, s.Dirty)
}

// Migrator applies the series table schema.
type Migrator interface {
	Up(ctx context.Context) error
	Down(ctx context.Context) error
	Status(ctx context.Context) (Status, error)
}

type migrator struct {
	log    logrus.FieldLogger
	dsn    string
	latest uint
	count  int
}

// New returns a Migrator for the series table reachable through dsn, e.g.
// "clickhouse://host:9000/database". table must be Table; a custom table
// has to be created by hand.
func New(log logrus.FieldLogger, dsn, table string) (Migrator, error) {
	if table != Table {
		return nil, fmt.Errorf("%w: %q (migrations create %q)", ErrUnmanagedTable, table, Table)
	}

	versions, err := embeddedVersions()
	if err != nil {
		return nil, err
	}

	m := &migrator{
		log:   log.WithFields(logrus.Fields{"component": "migrate", "table": Table}),
		dsn:   dsn,
		count: len(versions),
	}

	if len(versions) > 0 {
		m.latest = versions[len(versions)-1]
	}

	return m, nil
}

func (m *migrator) Up(_ context.Context) error {
	mig, err := m.open()
	if err != nil {
		return err
	}
	defer mig.Close()

	m.log.WithFields(logrus.Fields{
		"embedded": m.count,
		"latest":   m.latest,
	}).Info("Applying series schema migrations")

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying series schema: %w", err)
	}

	version, _, _ := mig.Version()
	m.log.WithField("version", version).Info("Series schema is up to date")

	return nil
}

func (m *migrator) Down(_ context.Context) error {
	mig, err := m.open()
	if err != nil {
		return err
	}
	defer mig.Close()

	m.log.Warn("Rolling back last series schema migration")

	if err := mig.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rolling back series schema: %w", err)
	}

	return nil
}

func (m *migrator) Status(_ context.Context) (Status, error) {
	st := Status{Table: Table, Latest: m.latest}

	mig, err := m.open()
	if err != nil {
		return st, err
	}
	defer mig.Close()

	version, dirty, err := mig.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return st, fmt.Errorf("reading series schema version: %w", err)
	}

	st.Version = version
	st.Dirty = dirty

	return st, nil
}

func (m *migrator) open() (*migrate.Migrate, error) {
	source, err := iofs.New(migrations, "sql")
	if err != nil {
		return nil, fmt.Errorf("opening embedded migrations: %w", err)
	}

	mig, err := migrate.NewWithSourceInstance("iofs", source, multiStatementDSN(m.dsn))
	if err != nil {
		return nil, fmt.Errorf("connecting to clickhouse: %w", err)
	}

	return mig, nil
}

// embeddedVersions returns the versions of the embedded up migrations in
// ascending order.
func embeddedVersions() ([]uint, error) {
	files, err := fs.Glob(migrations, "sql/*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("listing embedded migrations: %w", err)
	}

	versions := make([]uint, 0, len(files))

	for _, f := range files {
		base := strings.TrimPrefix(f, "sql/")

		prefix, _, ok := strings.Cut(base, "_")
		if !ok {
			return nil, fmt.Errorf("migration %q has no version prefix", base)
		}

		v, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("migration %q: %w", base, err)
		}

		versions = append(versions, uint(v))
	}

	// fs.Glob returns names in lexical order; zero-padded prefixes keep that
	// numeric.
	return versions, nil
}

// multiStatementDSN enables multi-statement migration files.
func multiStatementDSN(dsn string) string {
	if strings.Contains(dsn, "?") {
		return dsn + "&x-multi-statement=true"
	}

	return dsn + "?x-multi-statement=true"
}

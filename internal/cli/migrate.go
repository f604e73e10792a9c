package cli

import (
	"fmt"

	"github.com/julianstephens/flowmind/internal/migration"
)

// migrator is implemented by every SQL-backed provider.
type migrator interface {
	Migrations() (*migration.Runner, error)
}

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *Context) error {
	runner, err := migrationRunner(ctx)
	if err != nil {
		return err
	}

	count, err := runner.ApplyMigrations(func(msg string) {
		ctx.println(msg)
	})
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if count == 0 {
		ctx.println("No migrations to apply. Database is up to date.")
	} else {
		ctx.printf("\nSuccessfully applied %d migration(s).\n", count)
	}
	return nil
}

func migrationRunner(ctx *Context) (*migration.Runner, error) {
	m, ok := ctx.Store.(migrator)
	if !ok {
		return nil, fmt.Errorf("storage provider does not support migrations")
	}
	return m.Migrations()
}

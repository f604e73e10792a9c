package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *Context) error {
	mgr, err := ctx.backupManager()
	if err != nil {
		return err
	}
	path, err := mgr.Create()
	if err != nil {
		return fmt.Errorf("failed to create backup: %w", err)
	}
	ctx.printf("Backup created: %s\n", path)
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *Context) error {
	mgr, err := ctx.backupManager()
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		ctx.printf("No backups found in %s\n", mgr.Dir())
		return nil
	}

	ctx.printf("Backups in %s:\n", mgr.Dir())
	for _, b := range backups {
		ctx.printf("  %s  %-10s  %s\n", b.Timestamp.Format("2006-01-02 15:04:05"), humanize.Bytes(uint64(b.Size)), b.Path)
	}
	return nil
}

type BackupRestoreCmd struct {
	File string `arg:"" help:"Backup file name or path."`
}

func (c *BackupRestoreCmd) Run(ctx *Context) error {
	mgr, err := ctx.backupManager()
	if err != nil {
		return err
	}
	if err := ctx.Store.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	safety, err := mgr.Restore(mgr.Resolve(c.File))
	if err != nil {
		return err
	}
	if safety != "" {
		ctx.printf("Previous database saved to: %s\n", safety)
	}
	ctx.printf("Restored database from: %s\n", c.File)
	return nil
}

package cli

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/julianstephens/flowmind/internal/keyring"
	"github.com/julianstephens/flowmind/internal/notifier"
	"github.com/julianstephens/flowmind/internal/utils"
)

type check struct {
	name string
	run  func(*Context) error
	// warnOnly failures are reported but do not fail the command.
	warnOnly bool
	// needsDB checks are skipped when the database is unreachable.
	needsDB bool
}

var doctorChecks = []check{
	{name: "Database reachable", run: checkDBReachable},
	{name: "Schema version", run: checkSchemaVersion, needsDB: true},
	{name: "Migrations complete", run: checkMigrationsComplete, needsDB: true},
	{name: "Task integrity", run: checkTaskIntegrity, needsDB: true},
	{name: "Timezone", run: checkTimezone, needsDB: true},
	{name: "Clock", run: checkClock},
	{name: "Backups present", run: checkBackupsPresent, warnOnly: true},
	{name: "OS keyring", run: checkKeyring, warnOnly: true},
	{name: "Tray app", run: checkTray, warnOnly: true},
	{name: "Sound player", run: checkSoundPlayer, warnOnly: true, needsDB: true},
}

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *Context) error {
	ctx.println("Running diagnostics...")
	ctx.println()

	hasError := false
	dbReachable := true
	for i, c := range doctorChecks {
		if c.needsDB && !dbReachable {
			ctx.printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			ctx.printf("✓ %s: OK\n", c.name)
		case c.warnOnly:
			ctx.printf("⚠ %s: WARNING\n", c.name)
			ctx.printf("   %v\n", err)
		default:
			ctx.printf("❌ %s: FAIL\n", c.name)
			ctx.printf("   Error: %v\n", err)
			hasError = true
			if i == 0 {
				dbReachable = false
			}
		}
	}

	ctx.println()
	if hasError {
		ctx.println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	ctx.println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	_, err := ctx.Store.GetSettings(context.Background())
	return err
}

func checkSchemaVersion(ctx *Context) error {
	runner, err := migrationRunner(ctx)
	if err != nil {
		return err
	}
	return runner.ValidateVersion()
}

func checkMigrationsComplete(ctx *Context) error {
	runner, err := migrationRunner(ctx)
	if err != nil {
		return err
	}
	current, err := runner.GetCurrentVersion()
	if err != nil {
		return err
	}
	latest, err := runner.GetLatestVersion()
	if err != nil {
		return err
	}
	if current < latest {
		return fmt.Errorf("database is at version %d, latest is %d (run 'migrate')", current, latest)
	}
	return nil
}

func checkTaskIntegrity(ctx *Context) error {
	all, err := ctx.Store.GetAllTasks(context.Background())
	if err != nil {
		return err
	}
	var bad []string
	for _, t := range all {
		if err := t.Validate(); err != nil {
			bad = append(bad, fmt.Sprintf("%s: %v", t.ID, err))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%d invalid task(s):\n   %s", len(bad), strings.Join(bad, "\n   "))
	}
	return nil
}

func checkTimezone(ctx *Context) error {
	settings, err := ctx.Settings(context.Background())
	if err != nil {
		return err
	}
	if _, err := utils.LoadLocation(settings.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", settings.Timezone, err)
	}
	return nil
}

func checkClock(ctx *Context) error {
	now := ctx.now()
	if now.Year() < 2020 {
		return fmt.Errorf("system clock looks wrong: %s", now.Format(time.RFC3339))
	}
	return nil
}

func checkBackupsPresent(ctx *Context) error {
	mgr, err := ctx.backupManager()
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found (run 'backup create')")
	}
	if age := ctx.now().Sub(backups[0].Timestamp); age > 7*24*time.Hour {
		return fmt.Errorf("latest backup is %d days old", int(age.Hours()/24))
	}
	return nil
}

func checkKeyring(ctx *Context) error {
	if !keyring.IsAvailable() {
		return keyring.ErrKeyringUnavailable
	}
	return nil
}

func checkTray(ctx *Context) error {
	if err := notifier.CheckTray(); err != nil {
		return fmt.Errorf("notifications will not be delivered: %w", err)
	}
	return nil
}

func checkSoundPlayer(ctx *Context) error {
	settings, err := ctx.Settings(context.Background())
	if err != nil {
		return err
	}
	fields := strings.Fields(settings.SoundPlayer)
	if len(fields) == 0 {
		return fmt.Errorf("no sound player configured")
	}
	if _, err := exec.LookPath(fields[0]); err != nil {
		return fmt.Errorf("sound player %q not found on PATH", fields[0])
	}
	return nil
}

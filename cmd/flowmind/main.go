package main

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/flowmind/internal/cli"
	"github.com/julianstephens/flowmind/internal/constants"
	"github.com/julianstephens/flowmind/internal/errors"
	"github.com/julianstephens/flowmind/internal/keyring"
	"github.com/julianstephens/flowmind/internal/logger"
	"github.com/julianstephens/flowmind/internal/storage"
	"github.com/julianstephens/flowmind/internal/storage/postgres"
	"github.com/julianstephens/flowmind/internal/storage/sqlite"
)

var CLI struct {
	Version   kong.VersionFlag
	Config    string `help:"SQLite database path or PostgreSQL connection string. PostgreSQL passwords must NOT be embedded; use the OS keyring, FLOWMIND_DB_CONNECTION or .pgpass instead." type:"string" default:"${config}"`
	DebugLog  bool   `help:"Enable debug logging to stderr." name:"debug"`
	LogStderr bool   `help:"Mirror info-level logs to stderr." name:"log-stderr"`

	Init    cli.InitCmd    `cmd:"" help:"Initialize flowmind storage."`
	Migrate cli.MigrateCmd `cmd:"" help:"Run database migrations."`
	Add     cli.AddCmd     `cmd:"" help:"Schedule tasks described in plain language."`
	Day     cli.DayCmd     `cmd:"" help:"Show the tasks on a day." default:"withargs"`
	Overdue cli.OverdueCmd `cmd:"" help:"List unfinished tasks from earlier days."`
	Slots   cli.SlotsCmd   `cmd:"" help:"Find free time slots."`
	Task    struct {
		Add     cli.TaskAddCmd     `cmd:"" help:"Add a task at an exact time."`
		List    cli.TaskListCmd    `cmd:"" help:"List all tasks."`
		Done    cli.TaskDoneCmd    `cmd:"" help:"Mark a task done."`
		Edit    cli.TaskEditCmd    `cmd:"" help:"Edit a task."`
		Delete  cli.TaskDeleteCmd  `cmd:"" help:"Delete a task."`
		Restore cli.TaskRestoreCmd `cmd:"" help:"Restore a deleted task."`
		Move    cli.TaskMoveCmd    `cmd:"" help:"Move tasks to another day, keeping their times."`
		Extend  cli.TaskExtendCmd  `cmd:"" help:"Give a running task more time and push later tasks back."`
	} `cmd:"" help:"Manage tasks."`
	Focus struct {
		Task     cli.FocusTaskCmd     `cmd:"" help:"Focus on one task until it ends."`
		Queue    cli.FocusQueueCmd    `cmd:"" help:"Work through a day's tasks in order."`
		Pomodoro cli.FocusPomodoroCmd `cmd:"" help:"Run focus and break cycles on a task."`
	} `cmd:"" help:"Start a focus session."`
	Settings struct {
		Get cli.SettingsGetCmd `cmd:"" help:"Show settings." default:"withargs"`
		Set cli.SettingsSetCmd `cmd:"" help:"Change a setting."`
	} `cmd:"" help:"Manage application settings."`
	Keyring struct {
		Set    cli.KeyringSetCmd    `cmd:"" help:"Store a secret in the OS keyring."`
		Get    cli.KeyringGetCmd    `cmd:"" help:"Show a stored secret (masked)."`
		Delete cli.KeyringDeleteCmd `cmd:"" help:"Remove a secret from the OS keyring."`
		Status cli.KeyringStatusCmd `cmd:"" help:"Check OS keyring availability."`
	} `cmd:"" help:"Manage the database connection and interpreter API key."`
	Backup struct {
		Create  cli.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    cli.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore cli.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
	Debug struct {
		DBPath   cli.DebugDBPathCmd   `cmd:"" name:"db-path" help:"Show database path."`
		DumpTask cli.DebugDumpTaskCmd `cmd:"" help:"Dump a task as JSON."`
		DumpDay  cli.DebugDumpDayCmd  `cmd:"" help:"Dump a day's projected tasks as JSON."`
	} `cmd:"" help:"Debug commands for troubleshooting."`
	Doctor cli.DoctorCmd `cmd:"" help:"Run health checks and diagnostics."`
	Mcp    cli.McpCmd    `cmd:"" help:"Serve tasks to AI assistants over MCP (stdio)."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Time-blocked tasks, conflict-aware scheduling and focus sessions"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": constants.Version,
			"config":  constants.DefaultConfigPath,
		},
	)

	store, err := openStore(CLI.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Debug:     CLI.DebugLog,
		ConfigDir: logDir(store),
		Stderr:    CLI.LogStderr,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	appCtx := &cli.Context{Store: store}

	if needsStore(ctx.Command()) {
		if err := store.Load(); err != nil {
			errors.Fatal(err)
		}
	}

	err = ctx.Run(appCtx)
	if closeErr := store.Close(); closeErr != nil {
		logger.Warn("Failed to close database", "error", closeErr)
	}
	errors.Fatal(err)
}

// openStore picks PostgreSQL when config is a connection string, or when the
// default path is in use and a connection is configured in the environment
// or keyring. Everything else is a SQLite path.
func openStore(config string) (storage.Provider, error) {
	if postgres.IsConnString(config) {
		if err := postgres.ValidateConnString(config); err != nil {
			if stderrors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("PostgreSQL connection strings with embedded credentials are NOT allowed on the command line.\n" +
					"       Store it with '" + constants.AppName + " keyring set connection <url>', set " + constants.DBConnectionEnvVar + ", or use .pgpass")
			}
			return nil, err
		}
		return postgres.New(config), nil
	}

	if config == constants.DefaultConfigPath {
		if conn := os.Getenv(constants.DBConnectionEnvVar); conn != "" {
			return postgres.New(conn), nil
		}
		if conn, err := keyring.GetConnectionString(); err == nil && conn != "" {
			return postgres.New(conn), nil
		}
	}
	return sqlite.NewStore(config), nil
}

func logDir(store storage.Provider) string {
	if s, ok := store.(*sqlite.Store); ok {
		return filepath.Dir(s.GetConfigPath())
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, constants.AppName)
	}
	return os.TempDir()
}

// needsStore reports whether command reads or writes the database. init
// creates it and keyring and backup restore never open it.
func needsStore(command string) bool {
	for _, prefix := range []string{"init", "keyring", "backup restore", "doctor", "debug db-path"} {
		if strings.HasPrefix(command, prefix) {
			return false
		}
	}
	return true
}

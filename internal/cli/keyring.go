package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/flowmind/internal/constants"
	"github.com/julianstephens/flowmind/internal/keyring"
	"github.com/julianstephens/flowmind/internal/storage/postgres"
)

// KeyringSetCmd stores a secret in the OS keyring
type KeyringSetCmd struct {
	Secret string `arg:"" enum:"connection,api-key" help:"Which secret to store (connection or api-key)."`
	Value  string `arg:"" help:"Secret value."`
}

func (cmd *KeyringSetCmd) Run(ctx *Context) error {
	secret, err := keyring.ParseSecret(cmd.Secret)
	if err != nil {
		return err
	}

	if secret == keyring.Connection {
		if err := postgres.ValidateConnString(cmd.Value); err != nil {
			if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return fmt.Errorf("invalid connection string: %w", err)
			}
			ctx.println("Warning: connection string contains embedded credentials.")
			ctx.println("  It will be stored as-is in the encrypted OS keyring.")
		}
	}

	if err := keyring.Set(secret, cmd.Value); err != nil {
		return err
	}
	ctx.printf("✓ %s stored in OS keyring\n", cmd.Secret)
	return nil
}

// KeyringGetCmd shows a stored secret with its sensitive part masked
type KeyringGetCmd struct {
	Secret string `arg:"" enum:"connection,api-key" help:"Which secret to show (connection or api-key)."`
}

func (cmd *KeyringGetCmd) Run(ctx *Context) error {
	secret, err := keyring.ParseSecret(cmd.Secret)
	if err != nil {
		return err
	}
	value, err := keyring.Get(secret)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s found in keyring. Use '%s keyring set %s' to store one", cmd.Secret, constants.AppName, cmd.Secret)
		}
		return err
	}

	if secret == keyring.Connection {
		ctx.println(maskPassword(value))
	} else {
		ctx.println(maskKey(value))
	}
	return nil
}

// KeyringDeleteCmd removes a secret from the OS keyring
type KeyringDeleteCmd struct {
	Secret string `arg:"" enum:"connection,api-key" help:"Which secret to delete (connection or api-key)."`
}

func (cmd *KeyringDeleteCmd) Run(ctx *Context) error {
	secret, err := keyring.ParseSecret(cmd.Secret)
	if err != nil {
		return err
	}
	if err := keyring.Delete(secret); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s found in keyring", cmd.Secret)
		}
		return err
	}
	ctx.printf("✓ %s deleted from OS keyring\n", cmd.Secret)
	return nil
}

// KeyringStatusCmd checks the availability of the OS keyring
type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *Context) error {
	if !keyring.IsAvailable() {
		ctx.println("❌ OS keyring is not available on this system")
		return keyring.ErrKeyringUnavailable
	}
	ctx.println("✓ OS keyring is available")
	for _, name := range []string{"connection", "api-key"} {
		secret, _ := keyring.ParseSecret(name)
		if _, err := keyring.Get(secret); err == nil {
			ctx.printf("✓ %s is stored\n", name)
		} else {
			ctx.printf("ℹ no %s stored\n", name)
		}
	}
	return nil
}

// maskPassword masks passwords in connection strings for display
func maskPassword(connStr string) string {
	if postgres.IsConnString(connStr) {
		idx := strings.Index(connStr, "://")
		remaining := connStr[idx+3:]
		if atIdx := strings.LastIndex(remaining, "@"); atIdx != -1 {
			userInfo := remaining[:atIdx]
			if colonIdx := strings.Index(userInfo, ":"); colonIdx != -1 {
				return connStr[:idx+3] + userInfo[:colonIdx] + ":****" + connStr[idx+3+atIdx:]
			}
		}
		return connStr
	}

	if strings.Contains(connStr, "password=") {
		parts := strings.Fields(connStr)
		for i, part := range parts {
			if strings.HasPrefix(part, "password=") {
				parts[i] = "password=****"
			}
		}
		return strings.Join(parts, " ")
	}
	return connStr
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

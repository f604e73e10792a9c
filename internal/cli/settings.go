package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/flowmind/internal/constants"
	"github.com/julianstephens/flowmind/internal/models"
	"github.com/julianstephens/flowmind/internal/utils"
)

type SettingsGetCmd struct {
	Key string `arg:"" optional:"" help:"Setting to show. All settings are listed when omitted."`
}

func (c *SettingsGetCmd) Run(ctx *Context) error {
	settings, err := ctx.Settings(context.Background())
	if err != nil {
		return err
	}
	values := models.SettingsToMap(settings)

	if c.Key != "" {
		v, ok := values[c.Key]
		if !ok {
			return unknownSettingError(c.Key, values)
		}
		ctx.println(v)
		return nil
	}

	keys := sortedKeys(values)
	width := 0
	for _, k := range keys {
		width = max(width, len(k))
	}
	for _, k := range keys {
		ctx.printf("  %-*s  %s\n", width, k, values[k])
	}
	return nil
}

type SettingsSetCmd struct {
	Key   string `arg:"" help:"Setting to change."`
	Value string `arg:"" help:"New value."`
}

func (c *SettingsSetCmd) Run(ctx *Context) error {
	bg := context.Background()
	settings, err := ctx.Settings(bg)
	if err != nil {
		return err
	}
	values := models.SettingsToMap(settings)
	if _, ok := values[c.Key]; !ok {
		return unknownSettingError(c.Key, values)
	}

	value := strings.TrimSpace(c.Value)
	switch c.Key {
	case constants.SettingNotificationsEnabled, constants.SettingPlayFocusEndSound, constants.SettingPlayBreakEndSound:
		if value != "true" && value != "false" {
			return fmt.Errorf("%s must be true or false", c.Key)
		}
	case constants.SettingTimezone:
		if !utils.ValidateTimezone(value) {
			return fmt.Errorf("invalid timezone %q (use an IANA name such as Europe/London, or Local)", value)
		}
	}

	values[c.Key] = value
	updated, err := models.MapToSettings(values)
	if err != nil {
		return err
	}
	if (c.Key == constants.SettingSuggestionCount && updated.SuggestionCount <= 0) ||
		(c.Key == constants.SettingSearchHorizonDays && updated.SearchHorizonDays <= 0) {
		return fmt.Errorf("%s must be a positive number", c.Key)
	}

	if err := ctx.Store.SetSetting(bg, c.Key, value); err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}
	ctx.printf("%s = %s\n", c.Key, value)
	return nil
}

func unknownSettingError(key string, values map[string]string) error {
	return fmt.Errorf("unknown setting %q (known: %s)", key, strings.Join(sortedKeys(values), ", "))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

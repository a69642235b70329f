package transcribe

import (
	"context"
	"fmt"

	"github.com/kbukum/scribe/redis"
)

// settingsField is the per-channel toggle field.
const settingsField = "auto_transcribe_enabled"

// settingsKey returns the per-channel settings hash key.
func settingsKey(guildID, channelID string) string {
	return fmt.Sprintf("guild.%s.channel.%s", guildID, channelID)
}

// Settings is the Redis-backed SettingsStore.
type Settings struct {
	rdb *redis.Client
}

// NewSettings creates a Settings store.
func NewSettings(rdb *redis.Client) *Settings {
	return &Settings{rdb: rdb}
}

// Enabled reports whether auto-transcription is on for the channel.
// An absent setting means enabled.
func (s *Settings) Enabled(ctx context.Context, guildID, channelID string) (bool, error) {
	val, err := s.rdb.HGet(ctx, settingsKey(guildID, channelID), settingsField)
	if err != nil {
		if redis.IsNil(err) {
			return true, nil
		}
		return true, fmt.Errorf("read channel settings %s/%s: %w", guildID, channelID, err)
	}
	return val == "true", nil
}

// SetEnabled turns auto-transcription on or off for the channel.
func (s *Settings) SetEnabled(ctx context.Context, guildID, channelID string, enabled bool) error {
	val := "false"
	if enabled {
		val = "true"
	}
	if err := s.rdb.HSet(ctx, settingsKey(guildID, channelID), settingsField, val); err != nil {
		return fmt.Errorf("write channel settings %s/%s: %w", guildID, channelID, err)
	}
	return nil
}

var _ SettingsStore = (*Settings)(nil)

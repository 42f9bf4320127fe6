package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidateMissingVenueId(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Venue.VenueId = ""
	assert.ErrorIs(t, cfg.Validate(), ErrMissingVenueId)
}

func TestValidateMissingTimezone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Venue.Timezone = ""
	assert.ErrorIs(t, cfg.Validate(), ErrMissingTimezone)
}

func TestValidateInvalidChannelQueue(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Venue.ChannelQueueSize = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidChannelQueue)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "venue.yaml")
	contents := []byte(`
venue:
  venue_id: TESTVENUE
  timezone: Europe/Warsaw
  snapshot_path: /tmp/snap.json
  instruments_file: /tmp/instruments.yaml
  channel_queue_size: 2048
logging:
  level: debug
matching:
  max_depth_levels: 10
`)
	require.NoError(t, os.WriteFile(path, contents, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "TESTVENUE", cfg.Venue.VenueId)
	assert.Equal(t, "Europe/Warsaw", cfg.Venue.Timezone)
	assert.Equal(t, 2048, cfg.Venue.ChannelQueueSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 10, cfg.Matching.MaxDepthLevels)
}

func TestLocationRejectsUnknownTimezone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Venue.Timezone = "Not/AZone"
	_, err := cfg.Location()
	assert.Error(t, err)
}

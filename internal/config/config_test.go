package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.False(t, cfg.AuthRequired)

	assert.Equal(t, 75.0, cfg.NearbyRadiusMeters)
	assert.Equal(t, 8.0, cfg.BlindSpotRadiusBoostMeters)
	assert.Equal(t, 45.0, cfg.AngularVelHighDegS)
	assert.Equal(t, 50, cfg.MaxNeighbors)
	assert.Equal(t, int64(4000), cfg.StaleMS)

	assert.Equal(t, 3.0, cfg.ProjectionTimeSeconds)
	assert.Equal(t, 10.0, cfg.ClosingSpeedStrongMS)
	assert.Equal(t, 5, cfg.LookaheadS)
	assert.Equal(t, 4.0, cfg.CollisionRadiusM)
	assert.Equal(t, 2.0, cfg.SuddenDecelMS2)
	assert.Equal(t, 150.0, cfg.WrongDirDiffDeg)
	assert.Equal(t, 3.0, cfg.OvertakeSideMaxM)

	assert.Equal(t, 10, cfg.TelemetryTTLFastS)
	assert.Equal(t, 30, cfg.TelemetryTTLSlowS)
	assert.Equal(t, 5.0, cfg.FastTTLSpeedMS)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("NEARBY_RADIUS_METERS", "120")
	t.Setenv("MAX_NEIGHBORS", "10")
	t.Setenv("AUTH_REQUIRED", "true")
	t.Setenv("AUTH_STATIC_SUBJECTS", "car-1, car-2,,car-3")

	cfg := Load()
	assert.Equal(t, 120.0, cfg.NearbyRadiusMeters)
	assert.Equal(t, 10, cfg.MaxNeighbors)
	assert.True(t, cfg.AuthRequired)
	assert.Equal(t, []string{"car-1", "car-2", "car-3"}, cfg.AuthStaticSubjects)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("MAX_NEIGHBORS", "lots")
	t.Setenv("NEARBY_RADIUS_METERS", "wide")
	t.Setenv("AUTH_REQUIRED", "yep")

	cfg := Load()
	assert.Equal(t, 50, cfg.MaxNeighbors)
	assert.Equal(t, 75.0, cfg.NearbyRadiusMeters)
	assert.False(t, cfg.AuthRequired)
}

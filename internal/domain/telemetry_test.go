package domain

import (
	"math"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleUnmarshalFullPayload(t *testing.T) {
	raw := []byte(`{
		"userId": "car-1",
		"latitude": 40.7128,
		"longitude": -74.0060,
		"speed": 12.5,
		"heading": 87.3,
		"accel": {"x": 0.1, "y": -0.2, "z": 9.8},
		"gyro": {"x": 0, "y": 0, "z": 0.3},
		"horizontalAccuracy": 4.2,
		"timestamp": "2026-08-26T10:00:00Z"
	}`)

	var s Sample
	require.NoError(t, json.Unmarshal(raw, &s))
	assert.Equal(t, "car-1", s.UserID)
	assert.Equal(t, 40.7128, s.Latitude)
	assert.Equal(t, 12.5, s.Speed)
	require.NotNil(t, s.Gyro)
	assert.Equal(t, 0.3, s.Gyro.Z)
	assert.Equal(t, 4.2, s.HorizontalAccuracy)
	assert.Equal(t, time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC), s.Timestamp.Time())
}

func TestTimestampFormats(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"rfc3339", `"2026-08-26T10:00:00Z"`, time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)},
		{"epoch_millis", `1787133600000`, time.UnixMilli(1787133600000)},
		{"epoch_seconds", `1787133600`, time.Unix(1787133600, 0)},
		{"numeric_string", `"1787133600000"`, time.UnixMilli(1787133600000)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(c.raw), &ts))
			assert.True(t, ts.Time().Equal(c.want), "got %v want %v", ts.Time(), c.want)
		})
	}
}

func TestTimestampGarbageCollapsesToZero(t *testing.T) {
	for _, raw := range []string{`null`, `""`, `"not a time"`, `-5`, `0`} {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(raw), &ts), "raw=%s", raw)
		assert.True(t, ts.IsZero(), "raw=%s", raw)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		sample Sample
		want   string
	}{
		{"valid", Sample{UserID: "a", Latitude: 40, Longitude: -74}, ""},
		{"missing user", Sample{Latitude: 40, Longitude: -74}, "missing userId"},
		{"blank user", Sample{UserID: "   ", Latitude: 40, Longitude: -74}, "missing userId"},
		{"lat out of range", Sample{UserID: "a", Latitude: 123, Longitude: 0}, "invalid coordinates"},
		{"lon out of range", Sample{UserID: "a", Latitude: 0, Longitude: -181}, "invalid coordinates"},
		{"nan lat", Sample{UserID: "a", Latitude: math.NaN(), Longitude: 0}, "invalid coordinates"},
		{"inf lon", Sample{UserID: "a", Latitude: 0, Longitude: math.Inf(1)}, "invalid coordinates"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.sample.Validate())
		})
	}
}

func TestSanitize(t *testing.T) {
	s := Sample{UserID: "a", Speed: -3, Heading: 450}
	s.Sanitize()
	assert.Equal(t, 0.0, s.Speed)
	assert.Equal(t, 90.0, s.Heading)

	s = Sample{UserID: "a", Speed: math.NaN(), Heading: -90}
	s.Sanitize()
	assert.Equal(t, 0.0, s.Speed)
	assert.Equal(t, 270.0, s.Heading)
}

func TestDeriveKinematicsGyroUnits(t *testing.T) {
	// Small magnitude: rad/s, converted to deg/s.
	s := Sample{UserID: "a", Gyro: &Vector3{Z: 0.3}}
	k := DeriveKinematics(&s)
	assert.InDelta(t, 0.3*180/math.Pi, k.YawRateDegS, 1e-9)

	// Large magnitude: already deg/s.
	s = Sample{UserID: "a", Gyro: &Vector3{Z: 40}}
	k = DeriveKinematics(&s)
	assert.InDelta(t, 40, k.YawRateDegS, 1e-9)

	// Negative small magnitude still converts.
	s = Sample{UserID: "a", Gyro: &Vector3{Z: -0.4}}
	k = DeriveKinematics(&s)
	assert.InDelta(t, -0.4*180/math.Pi, k.YawRateDegS, 1e-9)
}

func TestDeriveKinematicsVelocityAndAccel(t *testing.T) {
	s := Sample{UserID: "a", Speed: 10, Heading: 90, Accel: &Vector3{X: 3, Y: 4, Z: 0}}
	k := DeriveKinematics(&s)
	assert.InDelta(t, 10, k.VelEast, 1e-9)
	assert.InDelta(t, 0, k.VelNorth, 1e-9)
	assert.InDelta(t, 5, k.AccelMagMS2, 1e-9)
}

func TestAgeAgainst(t *testing.T) {
	now := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)

	s := Sample{Timestamp: NewTimestamp(now.Add(-2 * time.Second))}
	assert.Equal(t, 2*time.Second, s.AgeAgainst(now))

	// No timestamp: effectively infinitely old.
	s = Sample{}
	assert.Greater(t, s.AgeAgainst(now), 100*365*24*time.Hour)
}

func TestThreatPayloadRecipientRelative(t *testing.T) {
	counterpart := &Sample{UserID: "car-2", Latitude: 1, Longitude: 2, Speed: 3, Heading: 4}
	threat := &Threat{
		Type:      ThreatRearEnd,
		DistanceM: F64(8),
		Message:   "brake",
	}

	p := threat.PayloadFor(counterpart)
	assert.Equal(t, ThreatRearEnd, p.Type)
	assert.Equal(t, "car-2", p.ID)
	assert.Equal(t, 1.0, p.Lat)
	assert.Equal(t, 2.0, p.Lng)
	assert.Equal(t, "car-2", p.SourceVehicle.UserID)
	require.NotNil(t, p.DistanceM)
	assert.Equal(t, 8.0, *p.DistanceM)
	assert.Nil(t, p.TimeS)
}

func TestAckMarshalsEmptyThreats(t *testing.T) {
	ack := Ack{Status: "received", Timestamp: "2026-08-26T10:00:00Z", Threats: []ThreatPayload{}}
	b, err := json.Marshal(ack)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"threats":[]`)
}

package domain

import (
	"math"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"v2v-radar/service/internal/geo"
)

// Vector3 is a raw 3-axis sensor reading.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Timestamp accepts the client formats seen in the wild: RFC-3339 strings,
// epoch seconds, epoch milliseconds, and numeric strings. Unparseable values
// collapse to the zero time rather than failing the whole message.
type Timestamp struct {
	t time.Time
}

func NewTimestamp(t time.Time) Timestamp { return Timestamp{t: t} }

func (ts Timestamp) Time() time.Time { return ts.t }
func (ts Timestamp) IsZero() bool    { return ts.t.IsZero() }

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		ts.t = time.Time{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			ts.t = time.Time{}
			return nil
		}
		if t, err := time.Parse(time.RFC3339Nano, str); err == nil {
			ts.t = t
			return nil
		}
		if f, err := strconv.ParseFloat(str, 64); err == nil {
			ts.t = epochToTime(f)
			return nil
		}
		ts.t = time.Time{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		ts.t = time.Time{}
		return nil
	}
	ts.t = epochToTime(f)
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.t.Format(time.RFC3339Nano))
}

// Values above 1e12 can only be milliseconds.
func epochToTime(v float64) time.Time {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return time.Time{}
	}
	if v > 1e12 {
		return time.UnixMilli(int64(v))
	}
	return time.Unix(int64(v), int64((v-math.Trunc(v))*1e9))
}

// Sample is one telemetry message from a vehicle.
type Sample struct {
	UserID             string    `json:"userId"`
	Latitude           float64   `json:"latitude"`
	Longitude          float64   `json:"longitude"`
	Speed              float64   `json:"speed"`
	Heading            float64   `json:"heading"`
	Accel              *Vector3  `json:"accel,omitempty"`
	Gyro               *Vector3  `json:"gyro,omitempty"`
	HorizontalAccuracy float64   `json:"horizontalAccuracy,omitempty"`
	Timestamp          Timestamp `json:"timestamp,omitempty"`
}

// Validate reports the rejection reason for a sample that must not enter the
// stores, or "" when the sample is acceptable.
func (s *Sample) Validate() string {
	if strings.TrimSpace(s.UserID) == "" {
		return "missing userId"
	}
	if !isFinite(s.Latitude) || !isFinite(s.Longitude) ||
		math.Abs(s.Latitude) > 90 || math.Abs(s.Longitude) > 180 {
		return "invalid coordinates"
	}
	return ""
}

// Sanitize coerces the tolerated-garbage fields in place: non-finite or
// negative speed becomes 0 and the heading wraps into [0, 360).
func (s *Sample) Sanitize() {
	if !isFinite(s.Speed) || s.Speed < 0 {
		s.Speed = 0
	}
	s.Heading = geo.NormalizeHeading(s.Heading)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Kinematics is the derived per-vehicle state the predictors work on.
type Kinematics struct {
	Lat         float64
	Lon         float64
	HeadingDeg  float64
	SpeedMS     float64
	VelEast     float64
	VelNorth    float64
	YawRateDegS float64
	AccelMagMS2 float64
}

// DeriveKinematics sanitizes the sample and builds its kinematic state.
// Gyro z below 0.5 in magnitude is taken as rad/s and converted; anything
// larger is already deg/s.
func DeriveKinematics(s *Sample) Kinematics {
	s.Sanitize()

	k := Kinematics{
		Lat:        s.Latitude,
		Lon:        s.Longitude,
		HeadingDeg: s.Heading,
		SpeedMS:    s.Speed,
	}
	k.VelEast, k.VelNorth = geo.VelocityENU(k.SpeedMS, k.HeadingDeg)

	if s.Gyro != nil && isFinite(s.Gyro.Z) {
		z := s.Gyro.Z
		if math.Abs(z) < 0.5 {
			z = z * 180 / math.Pi
		}
		k.YawRateDegS = z
	}
	if s.Accel != nil && isFinite(s.Accel.X) && isFinite(s.Accel.Y) && isFinite(s.Accel.Z) {
		k.AccelMagMS2 = math.Sqrt(s.Accel.X*s.Accel.X + s.Accel.Y*s.Accel.Y + s.Accel.Z*s.Accel.Z)
	}
	return k
}

// AgeAgainst returns the sample's age relative to server time. Samples with
// no usable timestamp report a huge age so staleness checks drop them.
func (s *Sample) AgeAgainst(now time.Time) time.Duration {
	if s.Timestamp.IsZero() {
		return time.Duration(math.MaxInt64)
	}
	return now.Sub(s.Timestamp.Time())
}

package domain

type ThreatType string

const (
	ThreatPredictedCollision    ThreatType = "predicted_collision"
	ThreatRearEnd               ThreatType = "rear_end"
	ThreatWrongDirection        ThreatType = "wrong_direction"
	ThreatIntersectionCollision ThreatType = "intersection_collision"
	ThreatOvertake              ThreatType = "overtake"
)

// Threat is a detected hazardous interaction between two vehicles. The
// numeric fields are per-type: a nil pointer means the field does not apply.
type Threat struct {
	Type            ThreatType
	FutureDistanceM *float64
	TimeS           *float64
	DistanceM       *float64
	Deceleration    *float64
	TimeToCPAS      *float64
	LateralM        *float64
	Message         string
}

// SourceVehicle is the counterpart's state as seen by a threat recipient.
type SourceVehicle struct {
	UserID    string  `json:"userId"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Speed     float64 `json:"speed"`
	Heading   float64 `json:"heading"`
}

// ThreatPayload is the recipient-relative wire form of a Threat: id/lat/lng
// and sourceVehicle always describe the other vehicle.
type ThreatPayload struct {
	Type            ThreatType    `json:"type"`
	ID              string        `json:"id"`
	Lat             float64       `json:"lat"`
	Lng             float64       `json:"lng"`
	SourceVehicle   SourceVehicle `json:"sourceVehicle"`
	FutureDistanceM *float64      `json:"future_distance_m,omitempty"`
	TimeS           *float64      `json:"time_s,omitempty"`
	DistanceM       *float64      `json:"distance_m,omitempty"`
	Deceleration    *float64      `json:"deceleration,omitempty"`
	TimeToCPAS      *float64      `json:"timeToCPA_s,omitempty"`
	LateralM        *float64      `json:"lateral_m,omitempty"`
	Message         string        `json:"message"`
}

// PayloadFor renders the threat for one recipient, with counterpart being
// the vehicle on the other side of the interaction.
func (t *Threat) PayloadFor(counterpart *Sample) ThreatPayload {
	return ThreatPayload{
		Type: t.Type,
		ID:   counterpart.UserID,
		Lat:  counterpart.Latitude,
		Lng:  counterpart.Longitude,
		SourceVehicle: SourceVehicle{
			UserID:    counterpart.UserID,
			Latitude:  counterpart.Latitude,
			Longitude: counterpart.Longitude,
			Speed:     counterpart.Speed,
			Heading:   counterpart.Heading,
		},
		FutureDistanceM: t.FutureDistanceM,
		TimeS:           t.TimeS,
		DistanceM:       t.DistanceM,
		Deceleration:    t.Deceleration,
		TimeToCPAS:      t.TimeToCPAS,
		LateralM:        t.LateralM,
		Message:         t.Message,
	}
}

// Ack is the per-message response to the origin channel. Threats marshals
// as [] rather than null so clients can iterate unconditionally.
type Ack struct {
	Status    string          `json:"status"`
	Timestamp string          `json:"timestamp"`
	Threats   []ThreatPayload `json:"threats"`
}

// ErrorAck is the rejection response for invalid messages.
type ErrorAck struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// Push is the unsolicited notification to a counterpart channel.
type Push struct {
	Status string        `json:"status"`
	Data   ThreatPayload `json:"data"`
}

// F64 boxes an optional threat metric.
func F64(v float64) *float64 { return &v }

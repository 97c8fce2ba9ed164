// Package predict holds the collision predictor bank. Each predictor is a
// pure function of two vehicle states plus derived context; the bank is
// ordered and the first hit wins for a given pair.
package predict

import (
	"fmt"
	"math"

	"v2v-radar/service/internal/config"
	"v2v-radar/service/internal/domain"
	"v2v-radar/service/internal/geo"
	"v2v-radar/service/internal/history"
)

// Gates that are part of the detector definitions rather than the tuning
// surface.
const (
	rearEndMinClosingMS = 0.5

	wrongDirectionMaxM = 40.0

	intersectionMinSpeedMS = 2.78 // ~10 km/h
	intersectionMinDiffDeg = 60.0
	intersectionMaxDiffDeg = 120.0
	intersectionCPAMaxM    = 8.0

	overtakeMaxDiffDeg    = 20.0
	overtakeMaxDistM      = 12.0
	overtakeMinSpeedGapMS = 1.5
	overtakeMinClosingMS  = 0.3
	overtakeMaxTTCS       = 2.0
)

// Input is everything a predictor may look at for one (self, other) pair.
type Input struct {
	Self  *domain.Sample
	Other *domain.Sample

	SelfState  domain.Kinematics
	OtherState domain.Kinematics

	// OtherHistory is the counterpart's recent speed window, oldest first.
	OtherHistory []history.Entry

	// MajorityHeading is the dominant direction of travel of the
	// neighborhood, self included.
	MajorityHeading float64

	// DistanceM is the current great-circle separation.
	DistanceM float64

	// SelfTurning is set when the origin's yaw rate crosses the sudden-turn
	// threshold; it widens the predicted-collision radius.
	SelfTurning bool

	Cfg *config.Config
}

type Predictor struct {
	Type     domain.ThreatType
	Evaluate func(in *Input) *domain.Threat
}

// Bank is evaluated in order; keep predicted-collision first and overtake
// last, the dispatch contract depends on it.
var Bank = []Predictor{
	{Type: domain.ThreatPredictedCollision, Evaluate: predictedCollision},
	{Type: domain.ThreatRearEnd, Evaluate: rearEnd},
	{Type: domain.ThreatWrongDirection, Evaluate: wrongDirection},
	{Type: domain.ThreatIntersectionCollision, Evaluate: intersection},
	{Type: domain.ThreatOvertake, Evaluate: overtake},
}

// Run evaluates the bank and returns the first threat found, or nil.
func Run(in *Input) *domain.Threat {
	for _, p := range Bank {
		if t := p.Evaluate(in); t != nil {
			return t
		}
	}
	return nil
}

// predictedCollision walks both trajectories forward in whole-second steps
// on the sphere and fires at the first step where the projected separation
// drops inside the collision radius.
func predictedCollision(in *Input) *domain.Threat {
	step := in.Cfg.PredictStep
	if step < 1 {
		step = 1
	}
	radius := in.Cfg.CollisionRadiusM
	if in.SelfTurning {
		radius += in.Cfg.UncertaintyInflationMeters
	}

	for t := step; t <= in.Cfg.LookaheadS; t += step {
		ft := float64(t)
		sLat, sLon := geo.ProjectGeodesic(
			in.SelfState.Lat, in.SelfState.Lon, in.SelfState.HeadingDeg, in.SelfState.SpeedMS*ft)
		oLat, oLon := geo.ProjectGeodesic(
			in.OtherState.Lat, in.OtherState.Lon, in.OtherState.HeadingDeg, in.OtherState.SpeedMS*ft)

		d := geo.GreatCircleMeters(sLat, sLon, oLat, oLon)
		if d <= radius {
			return &domain.Threat{
				Type:            domain.ThreatPredictedCollision,
				TimeS:           domain.F64(ft),
				FutureDistanceM: domain.F64(d),
				Message:         fmt.Sprintf("Collision predicted in %ds, projected gap %.1fm", t, d),
			}
		}
	}
	return nil
}

// rearEnd fires when the vehicle ahead is braking hard while the gap is
// short and still closing. The deceleration comes from the counterpart's
// speed history, not from a single sample.
func rearEnd(in *Input) *domain.Threat {
	h := in.OtherHistory
	if len(h) < 2 {
		return nil
	}
	last := h[len(h)-1]
	prev := h[len(h)-2]

	dt := float64(last.ReceivedAtMs-prev.ReceivedAtMs) / 1000.0
	if dt < 1 {
		dt = 1
	}
	decel := (prev.SpeedMS - last.SpeedMS) / dt
	closing := in.SelfState.SpeedMS - in.OtherState.SpeedMS

	if decel >= in.Cfg.SuddenDecelMS2 &&
		in.DistanceM <= in.Cfg.RearEndDistanceM &&
		closing > rearEndMinClosingMS {
		return &domain.Threat{
			Type:         domain.ThreatRearEnd,
			DistanceM:    domain.F64(in.DistanceM),
			Deceleration: domain.F64(decel),
			Message:      fmt.Sprintf("Vehicle %.0fm ahead braking at %.1f m/s²", in.DistanceM, decel),
		}
	}
	return nil
}

// wrongDirection flags a nearby counterpart moving against the
// neighborhood's majority heading.
func wrongDirection(in *Input) *domain.Threat {
	diff := geo.HeadingDiff(in.OtherState.HeadingDeg, in.MajorityHeading)
	if diff >= in.Cfg.WrongDirDiffDeg && in.DistanceM <= wrongDirectionMaxM {
		return &domain.Threat{
			Type:      domain.ThreatWrongDirection,
			DistanceM: domain.F64(in.DistanceM),
			Message:   fmt.Sprintf("Oncoming vehicle against traffic, %.0fm away", in.DistanceM),
		}
	}
	return nil
}

// intersection covers crossing paths (T or L shapes): both vehicles moving
// at road speed, headings 60-120° apart, closest approach inside 8m within
// the TTC horizon.
func intersection(in *Input) *domain.Threat {
	if in.SelfState.SpeedMS < intersectionMinSpeedMS || in.OtherState.SpeedMS < intersectionMinSpeedMS {
		return nil
	}
	diff := geo.HeadingDiff(in.SelfState.HeadingDeg, in.OtherState.HeadingDeg)
	if diff < intersectionMinDiffDeg || diff > intersectionMaxDiffDeg {
		return nil
	}

	oe, on := geo.LocalENU(in.SelfState.Lat, in.SelfState.Lon, in.OtherState.Lat, in.OtherState.Lon)
	cpa := geo.ComputeCPATTC(
		0, 0, in.SelfState.VelEast, in.SelfState.VelNorth,
		oe, on, in.OtherState.VelEast, in.OtherState.VelNorth,
		in.Cfg.ProjectionTimeSeconds)

	if cpa.DistM <= intersectionCPAMaxM && cpa.TStar <= in.Cfg.TTCMaxSeconds {
		return &domain.Threat{
			Type:       domain.ThreatIntersectionCollision,
			TimeToCPAS: domain.F64(cpa.TStar),
			DistanceM:  domain.F64(cpa.DistM),
			Message:    fmt.Sprintf("Crossing vehicle, closest approach %.1fm in %.1fs", cpa.DistM, cpa.TStar),
		}
	}
	return nil
}

// overtake detects a faster vehicle pulling alongside on a near-parallel
// course, confirmed by the CPA solver so a car merely parked close by does
// not trip it.
func overtake(in *Input) *domain.Threat {
	if geo.HeadingDiff(in.SelfState.HeadingDeg, in.OtherState.HeadingDeg) > overtakeMaxDiffDeg {
		return nil
	}
	if in.DistanceM > overtakeMaxDistM {
		return nil
	}
	if in.OtherState.SpeedMS <= in.SelfState.SpeedMS+overtakeMinSpeedGapMS {
		return nil
	}

	oe, on := geo.LocalENU(in.SelfState.Lat, in.SelfState.Lon, in.OtherState.Lat, in.OtherState.Lon)

	// Lateral offset: component of the relative position orthogonal to
	// self's heading unit vector (sin θ, cos θ).
	theta := in.SelfState.HeadingDeg * math.Pi / 180
	lateral := math.Abs(oe*math.Cos(theta) - on*math.Sin(theta))
	if lateral > in.Cfg.OvertakeSideMaxM {
		return nil
	}

	cpa := geo.ComputeCPATTC(
		0, 0, in.SelfState.VelEast, in.SelfState.VelNorth,
		oe, on, in.OtherState.VelEast, in.OtherState.VelNorth,
		in.Cfg.ProjectionTimeSeconds)
	if cpa.ClosingSpeed > overtakeMinClosingMS && cpa.TStar <= overtakeMaxTTCS {
		return &domain.Threat{
			Type:       domain.ThreatOvertake,
			LateralM:   domain.F64(lateral),
			TimeToCPAS: domain.F64(cpa.TStar),
			Message:    fmt.Sprintf("Being overtaken, %.1fm to the side", lateral),
		}
	}
	return nil
}

// Package geo is the geometry kernel for the collision engine.
//
// Headings are compass bearings: 0° = north, increasing clockwise, so 90° is
// due east. Local-plane vectors are ENU (x = east, y = north) in meters.
// Every caller of this package shares that convention.
package geo

import "math"

const (
	EarthRadiusM = 6371000.0

	metersPerDegLat = 111320.0
)

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
func rad2deg(r float64) float64 { return r * 180 / math.Pi }

// NormalizeHeading wraps a bearing into [0, 360). NaN and Inf collapse to 0.
func NormalizeHeading(deg float64) float64 {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0
	}
	h := math.Mod(deg, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// HeadingDiff returns the smallest-arc difference between two bearings,
// always in [0, 180].
func HeadingDiff(a, b float64) float64 {
	d := math.Abs(NormalizeHeading(a) - NormalizeHeading(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// GreatCircleMeters is the haversine distance between two WGS-84 points.
func GreatCircleMeters(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := deg2rad(lat1)
	phi2 := deg2rad(lat2)
	dPhi := deg2rad(lat2 - lat1)
	dLambda := deg2rad(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return EarthRadiusM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// ProjectGeodesic moves a point along a bearing on the sphere. The returned
// longitude is wrapped to (-180, 180].
func ProjectGeodesic(lat, lon, bearingDeg, distMeters float64) (float64, float64) {
	phi1 := deg2rad(lat)
	lambda1 := deg2rad(lon)
	theta := deg2rad(bearingDeg)
	delta := distMeters / EarthRadiusM

	sinPhi2 := math.Sin(phi1)*math.Cos(delta) + math.Cos(phi1)*math.Sin(delta)*math.Cos(theta)
	phi2 := math.Asin(sinPhi2)
	lambda2 := lambda1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(phi1),
		math.Cos(delta)-math.Sin(phi1)*sinPhi2,
	)

	lonOut := math.Mod(rad2deg(lambda2)+540, 360) - 180
	if lonOut == -180 {
		lonOut = 180
	}
	return rad2deg(phi2), lonOut
}

// LocalENU linearizes a point into (east, north) meters around a reference.
// Equirectangular; only valid within a few hundred meters of the reference.
func LocalENU(refLat, refLon, lat, lon float64) (east, north float64) {
	metersPerDegLon := metersPerDegLat * math.Cos(deg2rad(refLat))
	east = (lon - refLon) * metersPerDegLon
	north = (lat - refLat) * metersPerDegLat
	return east, north
}

// VelocityENU converts ground speed and compass heading to an ENU velocity.
func VelocityENU(speed, headingDeg float64) (ve, vn float64) {
	theta := deg2rad(headingDeg)
	return speed * math.Sin(theta), speed * math.Cos(theta)
}

// MajorityHeading is the argument of the unit-vector sum of the given
// bearings, robust to the 0°/360° wrap. ok is false when the sum is
// degenerate (vectors cancel out), in which case the caller should fall back
// to its own heading.
func MajorityHeading(headings []float64) (float64, bool) {
	var sumE, sumN float64
	for _, h := range headings {
		theta := deg2rad(NormalizeHeading(h))
		sumE += math.Sin(theta)
		sumN += math.Cos(theta)
	}
	if math.Hypot(sumE, sumN) < 1e-9 {
		return 0, false
	}
	return NormalizeHeading(rad2deg(math.Atan2(sumE, sumN))), true
}

// CPA describes the closest point of approach of two straight-line ENU
// trajectories over [0, maxT].
type CPA struct {
	TStar        float64 // seconds until closest approach, clamped to [0, maxT]
	DistM        float64 // separation at TStar
	ClosingSpeed float64 // positive when the vehicles are converging now
	SelfEast     float64
	SelfNorth    float64
	OtherEast    float64
	OtherNorth   float64
}

// ComputeCPATTC solves the relative-motion closest approach for two vehicles
// given ENU positions and velocities. Degenerate relative velocity
// (|v|^2 <= 1e-6) pins TStar to 0.
func ComputeCPATTC(selfE, selfN, selfVE, selfVN, otherE, otherN, otherVE, otherVN, maxT float64) CPA {
	rE := otherE - selfE
	rN := otherN - selfN
	vE := otherVE - selfVE
	vN := otherVN - selfVN

	rv := rE*vE + rN*vN
	vv := vE*vE + vN*vN
	rMag := math.Hypot(rE, rN)

	var tStar float64
	if vv <= 1e-6 {
		tStar = 0
	} else {
		tStar = -rv / vv
		if tStar < 0 {
			tStar = 0
		} else if tStar > maxT {
			tStar = maxT
		}
	}

	cpa := CPA{
		TStar:      tStar,
		SelfEast:   selfE + selfVE*tStar,
		SelfNorth:  selfN + selfVN*tStar,
		OtherEast:  otherE + otherVE*tStar,
		OtherNorth: otherN + otherVN*tStar,
	}
	cpa.DistM = math.Hypot(cpa.OtherEast-cpa.SelfEast, cpa.OtherNorth-cpa.SelfNorth)
	if rMag > 1e-9 {
		cpa.ClosingSpeed = -rv / rMag
	}
	return cpa
}

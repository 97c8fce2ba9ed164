// Package engine runs the per-message collision pipeline:
// validate -> persist -> neighbors -> predict -> dispatch.
package engine

import (
	"context"
	"math"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"v2v-radar/service/internal/config"
	"v2v-radar/service/internal/domain"
	"v2v-radar/service/internal/geo"
	"v2v-radar/service/internal/history"
	"v2v-radar/service/internal/metrics"
	"v2v-radar/service/internal/predict"
	"v2v-radar/service/internal/session"
)

// Store is the shared geo index + telemetry view the engine reads and
// writes. RadiusByMember includes the query member itself; FetchSamples is
// order preserving with nil for missing entries.
type Store interface {
	UpsertVehicle(ctx context.Context, s *domain.Sample, ttl time.Duration) error
	RadiusByMember(ctx context.Context, id string, meters float64, count int) ([]string, error)
	FetchSamples(ctx context.Context, ids []string) ([]*domain.Sample, error)
}

type Engine struct {
	store    Store
	history  *history.Buffer
	sessions *session.Registry
	cfg      *config.Config
	log      *zap.Logger

	now func() time.Time
}

func New(store Store, sessions *session.Registry, cfg *config.Config, log *zap.Logger) *Engine {
	return &Engine{
		store:    store,
		history:  history.NewBuffer(),
		sessions: sessions,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// HandleMessage processes one inbound telemetry message. The caller (one
// read loop per session) invokes it sequentially, which is what preserves
// per-session ordering; everything shared underneath is concurrent-safe.
func (e *Engine) HandleMessage(ctx context.Context, origin session.Channel, raw []byte) {
	metrics.MessagesReceived.Inc()

	var s domain.Sample
	if err := json.Unmarshal(raw, &s); err != nil {
		metrics.MessagesRejected.WithLabelValues("parse").Inc()
		e.log.Warn("dropping unparseable telemetry message", zap.Error(err))
		return
	}

	if reason := s.Validate(); reason != "" {
		metrics.MessagesRejected.WithLabelValues("validation").Inc()
		e.log.Warn("rejecting invalid telemetry",
			zap.String("vehicle_id", s.UserID), zap.String("reason", reason))
		e.send(origin, domain.ErrorAck{Status: "error", Reason: reason})
		return
	}

	selfState := domain.DeriveKinematics(&s)
	now := e.now()

	ttl := time.Duration(e.cfg.TelemetryTTLSlowS) * time.Second
	if s.Speed > e.cfg.FastTTLSpeedMS {
		ttl = time.Duration(e.cfg.TelemetryTTLFastS) * time.Second
	}
	if err := e.store.UpsertVehicle(ctx, &s, ttl); err != nil {
		e.log.Error("telemetry upsert failed", zap.String("vehicle_id", s.UserID), zap.Error(err))
		e.send(origin, domain.ErrorAck{Status: "error", Reason: "internal error"})
		return
	}

	e.history.Append(s.UserID, s.Speed, now.UnixMilli())
	e.sessions.Bind(s.UserID, origin)

	turning := math.Abs(selfState.YawRateDegS) >= e.cfg.AngularVelHighDegS
	radius := e.cfg.NearbyRadiusMeters
	if turning {
		radius += e.cfg.BlindSpotRadiusBoostMeters
	}

	ids, err := e.store.RadiusByMember(ctx, s.UserID, radius, e.cfg.MaxNeighbors)
	if err != nil {
		e.log.Error("neighbor query failed", zap.String("vehicle_id", s.UserID), zap.Error(err))
		e.send(origin, domain.ErrorAck{Status: "error", Reason: "internal error"})
		return
	}

	neighborIDs := ids[:0:0]
	for _, id := range ids {
		if id != s.UserID {
			neighborIDs = append(neighborIDs, id)
		}
	}
	if len(neighborIDs) == 0 {
		e.send(origin, e.receivedAck(now, nil))
		return
	}

	samples, err := e.store.FetchSamples(ctx, neighborIDs)
	if err != nil {
		e.log.Error("neighbor fetch failed", zap.String("vehicle_id", s.UserID), zap.Error(err))
		e.send(origin, domain.ErrorAck{Status: "error", Reason: "internal error"})
		return
	}

	majority := e.majorityHeading(selfState, samples)
	staleAfter := time.Duration(e.cfg.StaleMS) * time.Millisecond

	var threats []domain.ThreatPayload
	for i, other := range samples {
		if other == nil {
			metrics.NeighborsSkipped.Inc()
			e.log.Debug("skipping neighbor without payload", zap.String("vehicle_id", neighborIDs[i]))
			continue
		}
		if other.AgeAgainst(now) > staleAfter {
			metrics.NeighborsSkipped.Inc()
			e.log.Debug("skipping stale neighbor", zap.String("vehicle_id", other.UserID))
			continue
		}

		otherState := domain.DeriveKinematics(other)
		if selfState.SpeedMS < e.cfg.MinMovingSpeedMS && otherState.SpeedMS < e.cfg.MinMovingSpeedMS {
			continue
		}

		in := &predict.Input{
			Self:            &s,
			Other:           other,
			SelfState:       selfState,
			OtherState:      otherState,
			OtherHistory:    e.history.LatestN(other.UserID),
			MajorityHeading: majority,
			DistanceM: geo.GreatCircleMeters(
				selfState.Lat, selfState.Lon, otherState.Lat, otherState.Lon),
			SelfTurning: turning,
			Cfg:         e.cfg,
		}

		threat := predict.Run(in)
		if threat == nil {
			continue
		}
		metrics.ThreatsEmitted.WithLabelValues(string(threat.Type)).Inc()
		threats = append(threats, e.dispatch(&s, other, threat))
	}

	e.send(origin, e.receivedAck(now, threats))
}

// majorityHeading folds self plus all fetched neighbors into the dominant
// direction of travel. When the unit vectors cancel out the receiver's own
// heading stands in.
func (e *Engine) majorityHeading(self domain.Kinematics, samples []*domain.Sample) float64 {
	headings := []float64{self.HeadingDeg}
	for _, other := range samples {
		if other != nil {
			headings = append(headings, geo.NormalizeHeading(other.Heading))
		}
	}
	majority, ok := geo.MajorityHeading(headings)
	if !ok {
		return self.HeadingDeg
	}
	return majority
}

func (e *Engine) receivedAck(now time.Time, threats []domain.ThreatPayload) domain.Ack {
	if threats == nil {
		threats = []domain.ThreatPayload{}
	}
	return domain.Ack{
		Status:    "received",
		Timestamp: now.UTC().Format(time.RFC3339),
		Threats:   threats,
	}
}

func (e *Engine) send(origin session.Channel, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		e.log.Error("failed to marshal response", zap.Error(err))
		return
	}
	if err := origin.Send(b); err != nil {
		e.log.Debug("origin send failed", zap.Error(err))
	}
}

package engine

import (
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"v2v-radar/service/internal/domain"
	"v2v-radar/service/internal/metrics"
)

// dispatch fans one threat out to both endpoints. The origin's copy rides
// back in the ack (returned here); the counterpart, if it has a live
// binding, gets an immediate push in which the origin is the source
// vehicle. Push failures are logged and swallowed: a slow or closed
// counterpart must never stall the origin's pipeline.
func (e *Engine) dispatch(self, other *domain.Sample, t *domain.Threat) domain.ThreatPayload {
	if ch, ok := e.sessions.Lookup(other.UserID); ok {
		push := domain.Push{Status: "threat", Data: t.PayloadFor(self)}
		b, err := json.Marshal(push)
		if err != nil {
			e.log.Error("failed to marshal threat push", zap.Error(err))
		} else if err := ch.Send(b); err != nil {
			metrics.PushDrops.Inc()
			e.log.Debug("counterpart push dropped",
				zap.String("vehicle_id", other.UserID),
				zap.String("threat_type", string(t.Type)),
				zap.Error(err))
		}
	}
	return t.PayloadFor(other)
}

package events

import (
	"time"

	"github.com/google/uuid"
)

const TypeQueryOrchestrated = "BRAIN_QUERY_ORCHESTRATED"

// SelectedDomain is one routed domain inside a QueryOrchestrated event.
type SelectedDomain struct {
	DomainId       uuid.UUID
	RelevanceScore float64
}

// QueryOrchestrated is emitted after every answered Master Brain query.
type QueryOrchestrated struct {
	UserId     uuid.UUID
	RoutingId  uuid.UUID
	Domains    []SelectedDomain
	Confidence float64
	TokensUsed int
	LatencyMs  int64
	OccurredAt time.Time
}

func (e QueryOrchestrated) EventType() string {
	return TypeQueryOrchestrated
}

func (e QueryOrchestrated) Payload() map[string]interface{} {
	domains := make([]interface{}, 0, len(e.Domains))
	for _, d := range e.Domains {
		domains = append(domains, map[string]interface{}{
			"domain_id":       d.DomainId.String(),
			"relevance_score": d.RelevanceScore,
		})
	}
	return map[string]interface{}{
		"user_id":     e.UserId.String(),
		"routing_id":  e.RoutingId.String(),
		"domains":     domains,
		"confidence":  e.Confidence,
		"tokens_used": e.TokensUsed,
		"latency_ms":  e.LatencyMs,
		"occurred_at": e.OccurredAt.Format(time.RFC3339Nano),
	}
}

func (e QueryOrchestrated) Timestamp() time.Time {
	return e.OccurredAt
}

// ParseQueryOrchestrated rebuilds the event from a decoded JSON payload.
func ParseQueryOrchestrated(data map[string]interface{}) (QueryOrchestrated, error) {
	var e QueryOrchestrated
	var err error

	if e.UserId, err = uuidField(data, "user_id"); err != nil {
		return e, err
	}
	if e.RoutingId, err = uuidField(data, "routing_id"); err != nil {
		return e, err
	}

	e.Confidence, _ = data["confidence"].(float64)
	if tokens, ok := data["tokens_used"].(float64); ok {
		e.TokensUsed = int(tokens)
	}
	if latency, ok := data["latency_ms"].(float64); ok {
		e.LatencyMs = int64(latency)
	}
	if raw, ok := data["occurred_at"].(string); ok {
		e.OccurredAt, _ = time.Parse(time.RFC3339Nano, raw)
	}

	rawDomains, _ := data["domains"].([]interface{})
	for _, raw := range rawDomains {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			return e, errMalformed("domains")
		}
		id, err := uuidField(entry, "domain_id")
		if err != nil {
			return e, err
		}
		score, _ := entry["relevance_score"].(float64)
		e.Domains = append(e.Domains, SelectedDomain{DomainId: id, RelevanceScore: score})
	}

	return e, nil
}

type malformedError string

func (m malformedError) Error() string {
	return "malformed event field: " + string(m)
}

func errMalformed(field string) error {
	return malformedError(field)
}

func uuidField(data map[string]interface{}, key string) (uuid.UUID, error) {
	raw, ok := data[key].(string)
	if !ok {
		return uuid.Nil, errMalformed(key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errMalformed(key)
	}
	return id, nil
}

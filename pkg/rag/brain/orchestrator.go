package brain

import (
	"context"
	"strings"
	"time"

	"ai-masterbrain-be/internal/entity"
	"ai-masterbrain-be/internal/pkg/logger"
	"ai-masterbrain-be/internal/repository/specification"
	"ai-masterbrain-be/internal/repository/unitofwork"
	"ai-masterbrain-be/pkg/apperror"
	"ai-masterbrain-be/pkg/events"
	"ai-masterbrain-be/pkg/fanout"
	"ai-masterbrain-be/pkg/metrics"
	ragcontext "ai-masterbrain-be/pkg/rag/context"
	"ai-masterbrain-be/pkg/rag/rerank"
	"ai-masterbrain-be/pkg/rag/response"
	"ai-masterbrain-be/pkg/rag/router"
	"ai-masterbrain-be/pkg/rag/search"
	"ai-masterbrain-be/pkg/rag/session"
	"ai-masterbrain-be/pkg/rag/state"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type DomainRouter interface {
	Route(ctx context.Context, query string, userId uuid.UUID, opts router.Options) (*router.Routing, error)
}

type KnowledgeSearcher interface {
	Search(ctx context.Context, query string, domainIds []uuid.UUID, userId uuid.UUID, opts search.Options) (*search.Result, error)
}

type CandidateRanker interface {
	Rerank(ctx context.Context, candidates []entity.CandidateResult, query string, opts rerank.Options) []entity.CandidateResult
}

type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, contextText, query string, opts response.Options) (*response.Synthesis, error)
}

type SessionUpdater interface {
	UpdateSession(ctx context.Context, sessionId, userId uuid.UUID, turn session.Turn) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Components are the collaborators of a Brain. Sessions, States and
// Publisher are optional.
type Components struct {
	UowFactory  unitofwork.RepositoryFactory
	Router      DomainRouter
	Searcher    KnowledgeSearcher
	Ranker      CandidateRanker
	Assembler   *ragcontext.Assembler
	Synthesizer AnswerSynthesizer
	Sessions    SessionUpdater
	States      *state.Manager
	Publisher   EventPublisher
	Pool        *fanout.Pool
	Metrics     *metrics.Collector
}

// Query is one user question.
type Query struct {
	Text      string
	UserId    uuid.UUID
	SessionId uuid.UUID // uuid.Nil when not part of a session
	DomainIds []uuid.UUID
}

// DomainFailure is a tolerated per-domain failure. The domain is left out
// of the answer; the orchestration goes on.
type DomainFailure struct {
	DomainId  uuid.UUID
	Component string
	Reason    string
}

// ContextSummary tells what one domain contributed.
type ContextSummary struct {
	DomainId       uuid.UUID
	DomainName     string
	KnowledgeCount int
	CoreLogicCount int
}

// Result is the answer to a Query.
type Result struct {
	Query           string
	Response        string
	Domains         []entity.DomainScore
	ContextSummary  []ContextSummary
	Confidence      float64
	Latency         time.Duration
	TokensUsed      int
	RoutingId       uuid.UUID
	PartialFailures []DomainFailure
}

type gathered struct {
	domain    *entity.Domain
	evidence  []entity.CandidateResult
	coreLogic *entity.CoreLogic
	failures  []DomainFailure
	ok        bool
}

// Brain answers a question by routing it to the user's domains, gathering
// evidence from each, and synthesizing one answer.
type Brain struct {
	c      Components
	tracer trace.Tracer
	logger logger.ILogger
	now    func() time.Time
}

func NewBrain(c Components, log logger.ILogger) *Brain {
	if c.Assembler == nil {
		c.Assembler = ragcontext.NewAssembler()
	}
	return &Brain{
		c:      c,
		tracer: otel.Tracer("ai-masterbrain-be/pkg/rag/brain"),
		logger: log,
		now:    time.Now,
	}
}

// Orchestrate runs selection, gathering, reranking and synthesis in order.
func (b *Brain) Orchestrate(ctx context.Context, q Query, opts Options) (*Result, error) {
	if err := validate(q); err != nil {
		return nil, err
	}
	if b.c.Router == nil || b.c.Searcher == nil || b.c.Synthesizer == nil || b.c.UowFactory == nil || b.c.Pool == nil {
		return nil, apperror.Configuration("master brain is missing a pipeline component")
	}

	if err := b.checkSession(ctx, q); err != nil {
		return nil, err
	}

	ctx, span := b.tracer.Start(ctx, "brain.Orchestrate", trace.WithAttributes(
		attribute.String("user_id", q.UserId.String()),
		attribute.Bool("in_session", q.SessionId != uuid.Nil),
	))
	defer span.End()

	start := b.now()

	// 1. Route
	b.c.States.Transition(ctx, q.SessionId, q.UserId, entity.StepRouting, state.Update{
		Progress: map[string]interface{}{"query": q.Text},
	})

	routingOpts := opts.Routing
	if len(q.DomainIds) > 0 {
		routingOpts.DomainIds = q.DomainIds
	}

	routing, err := b.route(ctx, q, routingOpts)
	if err != nil {
		b.fail(span, "routing", err)
		return nil, err
	}
	b.c.Metrics.RecordDomainsSelected(len(routing.SelectedDomains))

	if len(routing.SelectedDomains) == 0 {
		b.logger.Info("BRAIN", "No relevant domains", map[string]interface{}{"user_id": q.UserId.String()})
		b.c.Metrics.RecordOrchestration("no_domains")
		return b.canned(q, routing, nil, start), nil
	}

	// 2. Gather
	b.c.States.Transition(ctx, q.SessionId, q.UserId, entity.StepGathering, state.Update{
		Progress: map[string]interface{}{"domains": len(routing.SelectedDomains)},
	})

	contexts, failures, err := b.gather(ctx, q, routing.SelectedDomains, opts.Gather)
	if err != nil {
		b.fail(span, "gathering", err)
		return nil, err
	}
	if len(contexts) == 0 {
		b.logger.Warn("BRAIN", "Every domain failed to gather", map[string]interface{}{"failures": len(failures)})
		b.c.Metrics.RecordOrchestration("no_domains")
		return b.canned(q, routing, failures, start), nil
	}

	// 3. Rerank and assemble
	var evidence []entity.CandidateResult
	digests := make([]ragcontext.DomainDigest, 0, len(contexts))
	summary := make([]ContextSummary, 0, len(contexts))
	for _, g := range contexts {
		evidence = append(evidence, g.evidence...)
		digests = append(digests, ragcontext.DomainDigest{DomainName: g.domain.Name, Evidence: g.evidence, CoreLogic: g.coreLogic})
		coreLogicCount := 0
		if g.coreLogic != nil {
			coreLogicCount = 1
		}
		summary = append(summary, ContextSummary{
			DomainId:       g.domain.Id,
			DomainName:     g.domain.Name,
			KnowledgeCount: len(g.evidence),
			CoreLogicCount: coreLogicCount,
		})
	}

	ranked := b.rerank(ctx, evidence, q.Text, opts.Rerank)

	contextText := b.c.Assembler.DomainDigest(digests) + "\n\n---\n\n" + b.c.Assembler.Assemble(ranked, opts.Context)

	// 4. Synthesize
	b.c.States.Transition(ctx, q.SessionId, q.UserId, entity.StepSynthesizing, state.Update{
		Gathered: gatheredBlob(summary),
		Analysis: map[string]interface{}{"evidence": len(ranked), "partial_failures": len(failures)},
	})

	synthOpts := opts.Synthesis
	synthOpts.DomainCount = len(contexts)

	var synthesis *response.Synthesis
	stageStart := b.now()
	synthCtx, synthSpan := b.tracer.Start(ctx, "brain.synthesize")
	synthesis, err = b.c.Synthesizer.Synthesize(synthCtx, contextText, q.Text, synthOpts)
	synthSpan.End()
	b.c.Metrics.ObserveStage("synthesis", b.now().Sub(stageStart))
	if err != nil {
		b.fail(span, "synthesis", err)
		return nil, err
	}

	result := &Result{
		Query:           q.Text,
		Response:        synthesis.Text,
		Domains:         routing.SelectedDomains,
		ContextSummary:  summary,
		Confidence:      routing.Confidence,
		Latency:         b.now().Sub(start),
		TokensUsed:      synthesis.TokensUsed,
		RoutingId:       routing.RoutingId,
		PartialFailures: failures,
	}

	// 5. Record
	if q.SessionId != uuid.Nil && b.c.Sessions != nil {
		turn := session.Turn{Query: q.Text, Response: synthesis.Text, TokensUsed: synthesis.TokensUsed}
		for _, g := range contexts {
			turn.Domains = append(turn.Domains, session.DomainContribution{
				DomainId:   g.domain.Id,
				DomainName: g.domain.Name,
				Evidence:   g.evidence,
			})
		}
		if err := b.c.Sessions.UpdateSession(ctx, q.SessionId, q.UserId, turn); err != nil {
			b.logger.Warn("BRAIN", "Session update failed", map[string]interface{}{
				"session_id": q.SessionId.String(),
				"error":      err.Error(),
			})
		}
	}

	b.c.States.Transition(ctx, q.SessionId, q.UserId, entity.StepComplete, state.Update{
		Synthesis: map[string]interface{}{
			"tokens_used": synthesis.TokensUsed,
			"latency_ms":  result.Latency.Milliseconds(),
			"confidence":  result.Confidence,
		},
	})

	b.publish(ctx, q, result)
	b.c.Metrics.RecordTokens(synthesis.TokensUsed)
	outcome := "success"
	if len(failures) > 0 {
		outcome = "partial"
	}
	b.c.Metrics.RecordOrchestration(outcome)

	span.SetAttributes(
		attribute.Int("domains", len(contexts)),
		attribute.Int("tokens_used", synthesis.TokensUsed),
	)

	b.logger.Info("BRAIN", "Query orchestrated", map[string]interface{}{
		"domains":    len(contexts),
		"failures":   len(failures),
		"tokens":     synthesis.TokensUsed,
		"latency_ms": result.Latency.Milliseconds(),
	})

	return result, nil
}

func validate(q Query) error {
	if strings.TrimSpace(q.Text) == "" {
		return apperror.Validation("query must not be empty")
	}
	if q.UserId == uuid.Nil {
		return apperror.Validation("user id is required")
	}
	seen := make(map[uuid.UUID]struct{}, len(q.DomainIds))
	for _, id := range q.DomainIds {
		if id == uuid.Nil {
			return apperror.Validation("domain id must not be empty")
		}
		if _, dup := seen[id]; dup {
			return apperror.Validation("domain ids must be unique")
		}
		seen[id] = struct{}{}
	}
	return nil
}

// checkSession rejects a session the caller does not own, or one that has
// ended, before any session write-back happens.
func (b *Brain) checkSession(ctx context.Context, q Query) error {
	if q.SessionId == uuid.Nil {
		return nil
	}
	uow := b.c.UowFactory.NewUnitOfWork(ctx)
	owned, err := uow.MasterSessionRepository().FindOne(ctx,
		specification.ByID{ID: q.SessionId},
		specification.UserOwnedBy{UserID: q.UserId},
	)
	if err != nil {
		return apperror.Wrap(err, "load session")
	}
	if owned == nil {
		return apperror.NotFound("session not found")
	}
	if !owned.IsActive() {
		return apperror.Conflict("session has ended")
	}
	return nil
}

func (b *Brain) route(ctx context.Context, q Query, opts router.Options) (*router.Routing, error) {
	stageStart := b.now()
	ctx, span := b.tracer.Start(ctx, "brain.route")
	defer span.End()

	routing, err := b.c.Router.Route(ctx, q.Text, q.UserId, opts)
	b.c.Metrics.ObserveStage("routing", b.now().Sub(stageStart))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("selected", len(routing.SelectedDomains)))
	return routing, nil
}

func (b *Brain) gather(ctx context.Context, q Query, selected []entity.DomainScore, opts search.Options) ([]gathered, []DomainFailure, error) {
	stageStart := b.now()
	ctx, span := b.tracer.Start(ctx, "brain.gather", trace.WithAttributes(attribute.Int("domains", len(selected))))
	defer span.End()

	results := make([]gathered, len(selected))
	err := b.c.Pool.Each(len(selected), func(i int) {
		results[i] = b.gatherDomain(ctx, q, selected[i].DomainId, opts)
	})
	b.c.Metrics.ObserveStage("gathering", b.now().Sub(stageStart))
	if err != nil {
		return nil, nil, apperror.Internal("dispatch domain gathering", err)
	}

	var (
		ok       []gathered
		failures []DomainFailure
	)
	for _, r := range results {
		failures = append(failures, r.failures...)
		if r.ok {
			ok = append(ok, r)
		}
	}
	for _, f := range failures {
		b.c.Metrics.RecordPartialFailure("gather_" + f.Component)
	}
	return ok, failures, nil
}

func (b *Brain) gatherDomain(ctx context.Context, q Query, domainId uuid.UUID, opts search.Options) gathered {
	uow := b.c.UowFactory.NewUnitOfWork(ctx)
	failed := func(component, reason string) gathered {
		b.logger.Warn("BRAIN", "Domain gathering failed", map[string]interface{}{
			"domain_id": domainId.String(),
			"component": component,
			"error":     reason,
		})
		return gathered{failures: []DomainFailure{{DomainId: domainId, Component: component, Reason: reason}}}
	}

	domain, err := uow.DomainRepository().FindOne(ctx,
		specification.ByID{ID: domainId},
		specification.UserOwnedBy{UserID: q.UserId},
	)
	if err != nil {
		return failed("domain", err.Error())
	}
	if domain == nil {
		return failed("domain", "domain not found")
	}

	found, err := b.c.Searcher.Search(ctx, q.Text, []uuid.UUID{domainId}, q.UserId, opts)
	if err != nil {
		return failed("search", err.Error())
	}

	out := gathered{domain: domain, evidence: found.Candidates, ok: true}
	for _, f := range found.Failures {
		out.failures = append(out.failures, DomainFailure{
			DomainId:  f.DomainId,
			Component: "search_" + string(f.Branch),
			Reason:    f.Reason,
		})
	}

	logic, err := uow.CoreLogicRepository().FindLatestActive(ctx, domainId, q.UserId)
	if err != nil {
		b.logger.Warn("BRAIN", "Core logic lookup failed", map[string]interface{}{
			"domain_id": domainId.String(),
			"error":     err.Error(),
		})
	} else {
		out.coreLogic = logic
	}

	return out
}

func (b *Brain) rerank(ctx context.Context, evidence []entity.CandidateResult, query string, opts rerank.Options) []entity.CandidateResult {
	if b.c.Ranker == nil {
		return rerank.BySimilarity(evidence)
	}

	stageStart := b.now()
	ctx, span := b.tracer.Start(ctx, "brain.rerank", trace.WithAttributes(attribute.Int("candidates", len(evidence))))
	defer span.End()

	ranked := b.c.Ranker.Rerank(ctx, evidence, query, opts)
	b.c.Metrics.ObserveStage("rerank", b.now().Sub(stageStart))
	return ranked
}

func (b *Brain) canned(q Query, routing *router.Routing, failures []DomainFailure, start time.Time) *Result {
	domains := routing.SelectedDomains
	if domains == nil {
		domains = []entity.DomainScore{}
	}
	return &Result{
		Query:           q.Text,
		Response:        response.NoRelevantDomains,
		Domains:         domains,
		ContextSummary:  []ContextSummary{},
		Confidence:      0,
		Latency:         b.now().Sub(start),
		RoutingId:       routing.RoutingId,
		PartialFailures: failures,
	}
}

func (b *Brain) fail(span trace.Span, stage string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, stage+" failed")
	b.c.Metrics.RecordOrchestration("error")
	b.logger.Error("BRAIN", "Orchestration failed", map[string]interface{}{
		"stage": stage,
		"error": err.Error(),
	})
}

func (b *Brain) publish(ctx context.Context, q Query, result *Result) {
	if b.c.Publisher == nil {
		return
	}

	event := events.QueryOrchestrated{
		UserId:     q.UserId,
		RoutingId:  result.RoutingId,
		Confidence: result.Confidence,
		TokensUsed: result.TokensUsed,
		LatencyMs:  result.Latency.Milliseconds(),
		OccurredAt: b.now(),
	}
	for _, d := range result.Domains {
		event.Domains = append(event.Domains, events.SelectedDomain{DomainId: d.DomainId, RelevanceScore: d.RelevanceScore})
	}

	if err := b.c.Publisher.Publish(ctx, event); err != nil {
		b.logger.Warn("BRAIN", "Failed to publish orchestration event", map[string]interface{}{"error": err.Error()})
	}
}

func gatheredBlob(summary []ContextSummary) map[string]interface{} {
	domains := make([]interface{}, 0, len(summary))
	for _, s := range summary {
		domains = append(domains, map[string]interface{}{
			"domain_id":        s.DomainId.String(),
			"domain_name":      s.DomainName,
			"knowledge_count":  s.KnowledgeCount,
			"core_logic_count": s.CoreLogicCount,
		})
	}
	return map[string]interface{}{"domains": domains}
}

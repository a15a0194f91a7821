package unitofwork

import (
	"context"

	"ai-masterbrain-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	DomainRepository() contract.DomainRepository
	KnowledgeRepository() contract.KnowledgeRepository
	RoutingDecisionRepository() contract.RoutingDecisionRepository
	RoutingPerformanceRepository() contract.RoutingPerformanceRepository

	MasterSessionRepository() contract.MasterSessionRepository
	SessionContextRepository() contract.SessionContextRepository
	OrchestrationStateRepository() contract.OrchestrationStateRepository
	CoreLogicRepository() contract.CoreLogicRepository
}

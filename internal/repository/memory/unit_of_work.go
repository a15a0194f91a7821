package memory

import (
	"context"
	"fmt"

	"ai-masterbrain-be/internal/repository/contract"
	"ai-masterbrain-be/internal/repository/unitofwork"
)

// UnitOfWork gives the memory store transaction semantics by snapshotting on
// Begin and restoring on Rollback. Concurrent transactions are not isolated
// from each other.
type UnitOfWork struct {
	store *Store
	snap  *snapshot
}

func NewUnitOfWork(store *Store) unitofwork.UnitOfWork {
	return &UnitOfWork{store: store}
}

func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.snap != nil {
		return fmt.Errorf("transaction already started")
	}
	u.snap = u.store.snapshot()
	return nil
}

func (u *UnitOfWork) Commit() error {
	if u.snap == nil {
		return fmt.Errorf("no transaction to commit")
	}
	u.snap = nil
	return nil
}

func (u *UnitOfWork) Rollback() error {
	if u.snap == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	u.store.restore(u.snap)
	u.snap = nil
	return nil
}

func (u *UnitOfWork) DomainRepository() contract.DomainRepository {
	return NewDomainRepository(u.store)
}

func (u *UnitOfWork) KnowledgeRepository() contract.KnowledgeRepository {
	return NewKnowledgeRepository(u.store)
}

func (u *UnitOfWork) RoutingDecisionRepository() contract.RoutingDecisionRepository {
	return NewRoutingDecisionRepository(u.store)
}

func (u *UnitOfWork) RoutingPerformanceRepository() contract.RoutingPerformanceRepository {
	return NewRoutingPerformanceRepository(u.store)
}

func (u *UnitOfWork) MasterSessionRepository() contract.MasterSessionRepository {
	return NewMasterSessionRepository(u.store)
}

func (u *UnitOfWork) SessionContextRepository() contract.SessionContextRepository {
	return NewSessionContextRepository(u.store)
}

func (u *UnitOfWork) OrchestrationStateRepository() contract.OrchestrationStateRepository {
	return NewOrchestrationStateRepository(u.store)
}

func (u *UnitOfWork) CoreLogicRepository() contract.CoreLogicRepository {
	return NewCoreLogicRepository(u.store)
}

type RepositoryFactory struct {
	store *Store
}

func NewRepositoryFactory(store *Store) unitofwork.RepositoryFactory {
	return &RepositoryFactory{store: store}
}

func (f *RepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return NewUnitOfWork(f.store)
}

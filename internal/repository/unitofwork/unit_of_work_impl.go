package unitofwork

import (
	"context"
	"fmt"

	"ai-masterbrain-be/internal/repository/contract"
	"ai-masterbrain-be/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB // Active transaction, nil outside Begin/Commit
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	u.tx = u.db.WithContext(ctx).Begin()
	return u.tx.Error
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

// Repository Accessors

func (u *UnitOfWorkImpl) DomainRepository() contract.DomainRepository {
	return implementation.NewDomainRepository(u.getDB())
}

func (u *UnitOfWorkImpl) KnowledgeRepository() contract.KnowledgeRepository {
	return implementation.NewKnowledgeRepository(u.getDB())
}

func (u *UnitOfWorkImpl) RoutingDecisionRepository() contract.RoutingDecisionRepository {
	return implementation.NewRoutingDecisionRepository(u.getDB())
}

func (u *UnitOfWorkImpl) RoutingPerformanceRepository() contract.RoutingPerformanceRepository {
	return implementation.NewRoutingPerformanceRepository(u.getDB())
}

func (u *UnitOfWorkImpl) MasterSessionRepository() contract.MasterSessionRepository {
	return implementation.NewMasterSessionRepository(u.getDB())
}

func (u *UnitOfWorkImpl) SessionContextRepository() contract.SessionContextRepository {
	return implementation.NewSessionContextRepository(u.getDB())
}

func (u *UnitOfWorkImpl) OrchestrationStateRepository() contract.OrchestrationStateRepository {
	return implementation.NewOrchestrationStateRepository(u.getDB())
}

func (u *UnitOfWorkImpl) CoreLogicRepository() contract.CoreLogicRepository {
	return implementation.NewCoreLogicRepository(u.getDB())
}

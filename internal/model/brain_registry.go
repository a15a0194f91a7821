package model

// BrainModels lists every table of the Master Brain schema in dependency order.
func BrainModels() []interface{} {
	return []interface{}{
		&BrainDomain{},
		&BrainKnowledge{},
		&BrainCoreLogic{},
		&BrainQueryRouting{},
		&BrainRoutingPerformance{},
		&BrainMasterSession{},
		&BrainSessionContext{},
		&BrainOrchestrationState{},
	}
}

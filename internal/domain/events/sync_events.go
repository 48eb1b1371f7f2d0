package events

const (
	EventTypePlanComputed    = "plan.computed"
	EventTypeVariableSet     = "variable.set"
	EventTypeVariableRemoved = "variable.removed"
	EventTypeRemoveFailed    = "variable.remove_failed"
)

// PlanComputed is emitted once the diff against the remote store is known
type PlanComputed struct {
	BaseEvent
	Scope    string
	Creates  int
	Updates  int
	Removals int
}

func NewPlanComputed(runID, scope string, creates, updates, removals int) PlanComputed {
	return PlanComputed{
		BaseEvent: NewBaseEvent(EventTypePlanComputed, runID),
		Scope:     scope,
		Creates:   creates,
		Updates:   updates,
		Removals:  removals,
	}
}

// VariableSet is emitted after a successful upsert
type VariableSet struct {
	BaseEvent
	Key     string
	Created bool
}

func NewVariableSet(runID, key string, created bool) VariableSet {
	return VariableSet{
		BaseEvent: NewBaseEvent(EventTypeVariableSet, runID),
		Key:       key,
		Created:   created,
	}
}

// VariableRemoved is emitted after a successful removal
type VariableRemoved struct {
	BaseEvent
	Key string
}

func NewVariableRemoved(runID, key string) VariableRemoved {
	return VariableRemoved{
		BaseEvent: NewBaseEvent(EventTypeVariableRemoved, runID),
		Key:       key,
	}
}

// RemoveFailed is emitted when a removal was downgraded to a warning
type RemoveFailed struct {
	BaseEvent
	Key   string
	InUse bool
	Err   error
}

func NewRemoveFailed(runID, key string, inUse bool, err error) RemoveFailed {
	return RemoveFailed{
		BaseEvent: NewBaseEvent(EventTypeRemoveFailed, runID),
		Key:       key,
		InUse:     inUse,
		Err:       err,
	}
}

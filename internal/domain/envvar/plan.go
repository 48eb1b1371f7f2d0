package envvar

// Action annotates a planned set operation
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
)

// SetItem is one create-or-update in a plan
type SetItem struct {
	Key       Key
	Value     string
	Sensitive bool
	Action    Action
}

// RemoveItem is one deletion in a plan
type RemoveItem struct {
	Name   string
	Handle string
}

// Plan is derived fresh on every run from the desired set and the
// scope-matching remote entries. ToSet and ToRemove never share a name.
type Plan struct {
	Scope    Scope
	ToSet    []SetItem
	ToRemove []RemoveItem
}

// BuildPlan diffs desired against remote. Entries outside the scope are
// ignored entirely.
func BuildPlan(scope Scope, desired DesiredSet, remote []RemoteEntry) Plan {
	existing := make(map[string]bool)
	plan := Plan{Scope: scope}

	for _, entry := range FilterInScope(remote) {
		existing[entry.Name] = true
		if desired.Has(entry.Name) {
			continue
		}
		plan.ToRemove = append(plan.ToRemove, RemoveItem{Name: entry.Name, Handle: entry.Handle})
	}

	for _, key := range desired.Keys() {
		value, _ := desired.Value(key.String())
		action := ActionCreate
		if existing[key.String()] {
			action = ActionUpdate
		}
		plan.ToSet = append(plan.ToSet, SetItem{
			Key:       key,
			Value:     value,
			Sensitive: key.Sensitive(),
			Action:    action,
		})
	}

	return plan
}

// Creates counts set items that do not exist remotely yet.
func (p Plan) Creates() int {
	n := 0
	for _, item := range p.ToSet {
		if item.Action == ActionCreate {
			n++
		}
	}
	return n
}

// Updates counts set items that overwrite an existing entry.
func (p Plan) Updates() int {
	return len(p.ToSet) - p.Creates()
}

// Summary is the outcome of one reconciliation run
type Summary struct {
	Set       int
	Removed   int
	Warnings  int
	Created   int
	Updated   int
	Cancelled bool
	DryRun    bool
}

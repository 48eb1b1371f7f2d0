package envvar

import "strings"

// ScopeKind identifies how a provider partitions its variables
type ScopeKind string

const (
	// ScopeDeployment is a named deployment; an empty name means the
	// provider's default deployment.
	ScopeDeployment ScopeKind = "deployment"
	// ScopeTarget is one of the well-known environment targets.
	ScopeTarget ScopeKind = "target"
	// ScopeCustomEnvironment is a custom environment resolved by name.
	ScopeCustomEnvironment ScopeKind = "custom_environment"
)

// Well-known environment targets
const (
	TargetProduction  = "production"
	TargetPreview     = "preview"
	TargetDevelopment = "development"
)

// IsBuiltinTarget reports whether name is one of production, preview or development.
func IsBuiltinTarget(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case TargetProduction, TargetPreview, TargetDevelopment:
		return true
	}
	return false
}

// Scope is the subset of a provider's variables targeted by one run.
// It is resolved once and never changes afterwards.
type Scope struct {
	kind   ScopeKind
	name   string
	handle string
}

// NewDeploymentScope scopes a run to a named deployment.
func NewDeploymentScope(name string) Scope {
	return Scope{kind: ScopeDeployment, name: strings.TrimSpace(name)}
}

// NewTargetScope scopes a run to a built-in environment target.
func NewTargetScope(name string) Scope {
	return Scope{kind: ScopeTarget, name: strings.ToLower(strings.TrimSpace(name))}
}

// NewCustomEnvironmentScope scopes a run to a custom environment. handle is
// the provider's identifier for it.
func NewCustomEnvironmentScope(name, handle string) Scope {
	return Scope{kind: ScopeCustomEnvironment, name: strings.TrimSpace(name), handle: handle}
}

func (s Scope) Kind() ScopeKind {
	return s.kind
}

func (s Scope) Name() string {
	return s.name
}

func (s Scope) Handle() string {
	return s.handle
}

// IsDefault reports whether the scope refers to the provider default deployment.
func (s Scope) IsDefault() bool {
	return s.kind == ScopeDeployment && s.name == ""
}

func (s Scope) String() string {
	switch {
	case s.IsDefault():
		return "default deployment"
	case s.kind == ScopeDeployment:
		return "deployment " + s.name
	case s.kind == ScopeCustomEnvironment:
		return "custom environment " + s.name
	default:
		return s.name
	}
}

package envvar

import "context"

// Provider defines the capabilities the reconciler needs from a remote
// environment store. Implementations decide their own transport.
type Provider interface {
	// Name identifies the provider in messages
	Name() string

	// ResolveScope turns a raw scope identifier into a Scope
	ResolveScope(ctx context.Context, raw string) (Scope, error)

	// List returns every entry visible to the scope, tagged with membership
	List(ctx context.Context, scope Scope) ([]RemoteEntry, error)

	// Upsert creates or updates a variable in scope
	Upsert(ctx context.Context, scope Scope, name, value string, sensitive bool) error

	// Remove deletes the entry identified by handle
	Remove(ctx context.Context, scope Scope, handle string) error
}

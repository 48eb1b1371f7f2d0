package vercel

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"envsync/internal/domain/envvar"
)

// Provider reconciles the environment variables of one Vercel project.
// A variable can belong to several targets at once; the provider only ever
// changes the scope's share of it.
type Provider struct {
	client  *Client
	project string

	mu sync.Mutex
	// known holds the entries seen by the last List, keyed by id
	known map[string]EnvVar
}

// NewProvider creates a provider bound to project (id or name)
func NewProvider(client *Client, project string) *Provider {
	return &Provider{
		client:  client,
		project: strings.TrimSpace(project),
		known:   make(map[string]EnvVar),
	}
}

func (p *Provider) Name() string {
	return "vercel"
}

// ResolveScope maps production, preview and development onto targets and
// looks any other name up among the project's custom environments.
func (p *Provider) ResolveScope(ctx context.Context, raw string) (envvar.Scope, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		name = envvar.TargetProduction
	}
	if envvar.IsBuiltinTarget(name) {
		return envvar.NewTargetScope(name), nil
	}

	envs, err := p.client.ListCustomEnvironments(ctx, p.project)
	if err != nil {
		return envvar.Scope{}, fmt.Errorf("list custom environments: %w", err)
	}

	available := []string{envvar.TargetProduction, envvar.TargetPreview, envvar.TargetDevelopment}
	for _, env := range envs {
		if strings.EqualFold(env.Slug, name) || env.ID == name {
			return envvar.NewCustomEnvironmentScope(env.Slug, env.ID), nil
		}
		available = append(available, env.Slug)
	}

	return envvar.Scope{}, envvar.ErrConfiguration(
		fmt.Sprintf("unknown environment %q for project %s", name, p.project),
		"available environments: "+strings.Join(available, ", "),
	)
}

// List returns every project variable, tagged with membership of scope
func (p *Provider) List(ctx context.Context, scope envvar.Scope) ([]envvar.RemoteEntry, error) {
	envs, err := p.refresh(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]envvar.RemoteEntry, 0, len(envs))
	for _, env := range envs {
		entries = append(entries, envvar.RemoteEntry{
			Name:    env.Key,
			Handle:  env.ID,
			InScope: inScope(env, scope),
		})
	}
	return entries, nil
}

// Upsert writes one variable into scope. An existing entry shared with
// other targets is first detached from scope so their value is untouched.
func (p *Provider) Upsert(ctx context.Context, scope envvar.Scope, name, value string, sensitive bool) error {
	if shared, ok := p.sharedEntry(name, scope); ok {
		if err := p.detach(ctx, shared, scope); err != nil {
			return fmt.Errorf("detach %s from %s: %w", name, scope, err)
		}
	}

	req := UpsertEnvRequest{
		Key:   name,
		Value: value,
		Type:  TypePlain,
	}
	if sensitive {
		req.Type = TypeEncrypted
	}
	if scope.Kind() == envvar.ScopeCustomEnvironment {
		req.CustomEnvironmentIDs = []string{scope.Handle()}
	} else {
		req.Target = []string{scope.Name()}
	}
	return p.client.UpsertEnv(ctx, p.project, req)
}

// Remove takes the variable with the given id out of scope. It is deleted
// only when scope is its sole target.
func (p *Provider) Remove(ctx context.Context, scope envvar.Scope, handle string) error {
	env, err := p.lookup(ctx, handle)
	if err != nil {
		return err
	}
	if env != nil && inScope(*env, scope) && sharedBeyond(*env, scope) {
		return p.detach(ctx, *env, scope)
	}

	if err := p.client.DeleteEnv(ctx, p.project, handle); err != nil {
		return err
	}
	p.mu.Lock()
	delete(p.known, handle)
	p.mu.Unlock()
	return nil
}

func (p *Provider) refresh(ctx context.Context) ([]EnvVar, error) {
	envs, err := p.client.ListEnv(ctx, p.project)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.known = make(map[string]EnvVar, len(envs))
	for _, env := range envs {
		p.known[env.ID] = env
	}
	return envs, nil
}

// lookup returns the entry with id, listing again when it was not seen yet.
// A nil entry means the project does not have it.
func (p *Provider) lookup(ctx context.Context, id string) (*EnvVar, error) {
	p.mu.Lock()
	env, ok := p.known[id]
	p.mu.Unlock()
	if ok {
		return &env, nil
	}

	envs, err := p.refresh(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range envs {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, nil
}

func (p *Provider) sharedEntry(name string, scope envvar.Scope) (EnvVar, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, env := range p.known {
		if env.Key == name && inScope(env, scope) && sharedBeyond(env, scope) {
			return env, true
		}
	}
	return EnvVar{}, false
}

// detach narrows env to every target except scope
func (p *Provider) detach(ctx context.Context, env EnvVar, scope envvar.Scope) error {
	target, custom := remainingTargets(env, scope)
	req := EditEnvRequest{Target: target, CustomEnvironmentIDs: custom}
	if err := p.client.EditEnv(ctx, p.project, env.ID, req); err != nil {
		return err
	}

	env.Target = target
	env.CustomEnvironmentIDs = custom
	p.mu.Lock()
	p.known[env.ID] = env
	p.mu.Unlock()
	return nil
}

// remainingTargets lists the targets and custom environment ids env keeps
// once scope is taken away.
func remainingTargets(env EnvVar, scope envvar.Scope) ([]string, []string) {
	target := slices.Clone([]string(env.Target))
	custom := slices.Clone(env.CustomEnvironmentIDs)
	switch scope.Kind() {
	case envvar.ScopeCustomEnvironment:
		custom = slices.DeleteFunc(custom, func(id string) bool { return id == scope.Handle() })
	case envvar.ScopeTarget:
		target = slices.DeleteFunc(target, func(t string) bool { return t == scope.Name() })
	}
	return target, custom
}

func sharedBeyond(env EnvVar, scope envvar.Scope) bool {
	target, custom := remainingTargets(env, scope)
	return len(target) > 0 || len(custom) > 0
}

func inScope(env EnvVar, scope envvar.Scope) bool {
	switch scope.Kind() {
	case envvar.ScopeCustomEnvironment:
		return slices.Contains(env.CustomEnvironmentIDs, scope.Handle())
	case envvar.ScopeTarget:
		return slices.Contains(env.Target, scope.Name())
	}
	return false
}

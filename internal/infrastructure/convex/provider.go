package convex

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"envsync/internal/domain/envvar"
)

// Provider reconciles the environment variables of a Convex deployment by
// shelling out to the Convex CLI.
type Provider struct {
	runner    Runner
	deployKey string
}

// NewProvider creates a provider. deployKey is handed to the CLI through
// CONVEX_DEPLOY_KEY and may be empty when the CLI is already logged in.
func NewProvider(runner Runner, deployKey string) *Provider {
	return &Provider{runner: runner, deployKey: strings.TrimSpace(deployKey)}
}

func (p *Provider) Name() string {
	return "convex"
}

// ResolveScope accepts any deployment name; empty selects the default
// deployment of the linked project.
func (p *Provider) ResolveScope(ctx context.Context, raw string) (envvar.Scope, error) {
	return envvar.NewDeploymentScope(raw), nil
}

// List parses `convex env list`. Every listed variable belongs to the
// deployment, so all entries are in scope and the handle is the name.
func (p *Provider) List(ctx context.Context, scope envvar.Scope) ([]envvar.RemoteEntry, error) {
	res, err := p.run(ctx, "list", scope)
	if err != nil {
		return nil, err
	}

	return parseList(res.Stdout)
}

// parseList reads NAME=value lines. Lines that continue a multi-line value
// are skipped: PEM blocks until their END marker, and anything whose name
// is not a valid variable key.
func parseList(out string) ([]envvar.RemoteEntry, error) {
	var entries []envvar.RemoteEntry
	inBlock := false
	sc := bufio.NewScanner(strings.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if inBlock {
			inBlock = !strings.Contains(line, "-----END ")
			continue
		}
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key, err := envvar.NewKey(name)
		if err != nil {
			continue
		}
		entries = append(entries, envvar.RemoteEntry{Name: key.String(), Handle: key.String(), InScope: true})
		inBlock = strings.Contains(value, "-----BEGIN ") && !strings.Contains(value, "-----END ")
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read convex env list output: %w", err)
	}
	return entries, nil
}

// Upsert runs `convex env set NAME VALUE`. Convex has no separate secret
// classification, so sensitive is ignored.
func (p *Provider) Upsert(ctx context.Context, scope envvar.Scope, name, value string, sensitive bool) error {
	_, err := p.run(ctx, "set", scope, "--", name, value)
	return err
}

// Remove runs `convex env remove NAME`
func (p *Provider) Remove(ctx context.Context, scope envvar.Scope, handle string) error {
	_, err := p.run(ctx, "remove", scope, "--", handle)
	return err
}

func (p *Provider) run(ctx context.Context, op string, scope envvar.Scope, rest ...string) (Result, error) {
	args := []string{"env", op}
	if !scope.IsDefault() {
		args = append(args, "--deployment-name", scope.Name())
	}
	args = append(args, rest...)

	var env []string
	if p.deployKey != "" {
		env = append(env, "CONVEX_DEPLOY_KEY="+p.deployKey)
	}

	res, err := p.runner.Run(ctx, args, env)
	if err != nil {
		return res, err
	}
	if res.ExitCode != 0 {
		return res, &CLIError{Op: op, Result: res}
	}
	return res, nil
}

// CLIError reports a failed Convex CLI invocation
type CLIError struct {
	Op     string
	Result Result
}

func (e *CLIError) Error() string {
	if e.Result.TimedOut {
		return fmt.Sprintf("convex env %s timed out", e.Op)
	}
	msg := firstLine(e.Result.Stderr)
	if msg == "" {
		msg = firstLine(e.Result.Stdout)
	}
	if msg == "" {
		return fmt.Sprintf("convex env %s exited with code %d", e.Op, e.Result.ExitCode)
	}
	return fmt.Sprintf("convex env %s exited with code %d: %s", e.Op, e.Result.ExitCode, msg)
}

// Unwrap classifies the CLI output onto the domain sentinels
func (e *CLIError) Unwrap() error {
	out := strings.ToLower(e.Result.Stderr + "\n" + e.Result.Stdout)
	switch {
	case containsAny(out, "not logged in", "unauthorized", "unauthenticated", "invalid deploy key", "run `npx convex login`", "npx convex login"):
		return envvar.ErrNotAuthenticated
	case containsAny(out, "no convex_deployment", "deployment not found", "could not find deployment",
		"couldn't find deployment", "no convex project", "project not found", "could not find project"):
		return envvar.ErrScopeNotFound
	case containsAny(out, "in use", "is used by", "referenced", "auth.config", "auth config"):
		return envvar.ErrInUse
	}
	return nil
}

func containsAny(s string, markers ...string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

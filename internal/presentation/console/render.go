package console

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"envsync/internal/application/dto"
	"envsync/internal/domain/events"
)

// RenderPlan prints the pending changes with masked values
func RenderPlan(w io.Writer, plan *dto.PlanView) {
	fmt.Fprintf(w, "Plan for %s:\n", plan.Scope)
	for _, entry := range plan.Set {
		marker := "~"
		if entry.Action == "create" {
			marker = "+"
		}
		kind := ""
		if entry.Sensitive {
			kind = " (encrypted)"
		}
		fmt.Fprintf(w, "  %s %s = %s [%s]%s\n", marker, entry.Key, entry.Value, entry.Action, kind)
	}
	for _, name := range plan.Remove {
		fmt.Fprintf(w, "  - %s [remove]\n", name)
	}
	if len(plan.Set) == 0 && len(plan.Remove) == 0 {
		fmt.Fprintln(w, "  (no changes)")
	}
}

// RenderSummary prints the outcome of a run as text
func RenderSummary(w io.Writer, resp *dto.SyncResponse) {
	switch {
	case resp.Cancelled:
		fmt.Fprintln(w, "Cancelled, nothing was changed.")
	case resp.DryRun:
		if resp.Plan != nil {
			RenderPlan(w, resp.Plan)
		}
		fmt.Fprintf(w, "Dry run: %d to create, %d to update, %d to remove.\n",
			resp.Created, resp.Updated, removals(resp))
	default:
		fmt.Fprintf(w, "Synced %s (%s): %d set (%d created, %d updated), %d removed",
			resp.Provider, resp.Scope, resp.Set, resp.Created, resp.Updated, resp.Removed)
		if resp.Warnings > 0 {
			fmt.Fprintf(w, ", %d warnings", resp.Warnings)
		}
		fmt.Fprintln(w, ".")
	}
}

// RenderJSON writes the response as indented JSON
func RenderJSON(w io.Writer, resp *dto.SyncResponse) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func removals(resp *dto.SyncResponse) int {
	if resp.Plan == nil {
		return 0
	}
	return len(resp.Plan.Remove)
}

// ProgressPrinter prints one line per applied change
type ProgressPrinter struct {
	w io.Writer
}

func NewProgressPrinter(w io.Writer) *ProgressPrinter {
	return &ProgressPrinter{w: w}
}

// Register subscribes the printer to the run events
func (p *ProgressPrinter) Register(d *events.Dispatcher) {
	d.RegisterAll(p.Handle,
		events.EventTypeVariableSet,
		events.EventTypeVariableRemoved,
		events.EventTypeRemoveFailed,
	)
}

// Handle is an events.EventHandler
func (p *ProgressPrinter) Handle(ctx context.Context, event events.DomainEvent) error {
	var err error
	switch e := event.(type) {
	case events.VariableSet:
		verb := "updated"
		if e.Created {
			verb = "created"
		}
		_, err = fmt.Fprintf(p.w, "  ✓ %s %s\n", verb, e.Key)
	case events.VariableRemoved:
		_, err = fmt.Fprintf(p.w, "  ✓ removed %s\n", e.Key)
	case events.RemoveFailed:
		reason := e.Err.Error()
		if e.InUse {
			reason = "still in use"
		}
		_, err = fmt.Fprintf(p.w, "  ! could not remove %s: %s\n", e.Key, reason)
	}
	return err
}

package service

import (
	"context"
	"errors"

	"envsync/internal/application/dto"
	"envsync/internal/domain/envvar"
	"envsync/internal/domain/events"

	"github.com/rs/zerolog"
)

// Confirmer asks the operator whether a plan may be applied
type Confirmer interface {
	Confirm(ctx context.Context, plan envvar.Plan) (bool, error)
}

// SyncService reconciles a desired set against one provider scope
type SyncService struct {
	provider   envvar.Provider
	confirmer  Confirmer
	dispatcher *events.Dispatcher
	logger     zerolog.Logger
	runID      string
}

// NewSyncService creates a new sync service. confirmer may be nil when runs
// never ask for confirmation.
func NewSyncService(
	provider envvar.Provider,
	confirmer Confirmer,
	dispatcher *events.Dispatcher,
	logger zerolog.Logger,
	runID string,
) *SyncService {
	if dispatcher == nil {
		dispatcher = events.NewDispatcher()
	}
	if runID == "" {
		runID = events.NewRunID()
	}
	return &SyncService{
		provider:   provider,
		confirmer:  confirmer,
		dispatcher: dispatcher,
		logger:     logger.With().Str("provider", provider.Name()).Str("run", runID).Logger(),
		runID:      runID,
	}
}

// Run resolves the requested scope and reconciles it
func (s *SyncService) Run(ctx context.Context, req *dto.SyncRequest) (*dto.SyncResponse, error) {
	if req.Desired.IsEmpty() {
		return nil, envvar.ErrEmptyInput()
	}

	scope, err := s.provider.ResolveScope(ctx, req.Scope)
	if err != nil {
		var de *envvar.DomainError
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, envvar.ErrProviderQuery(s.provider.Name(), err)
	}
	s.logger.Debug().Str("scope", scope.String()).Msg("scope resolved")

	if req.DryRun {
		plan, err := s.Plan(ctx, req.Desired, scope)
		if err != nil {
			return nil, err
		}
		return s.toDTO(plan, envvar.Summary{
			Created: plan.Creates(),
			Updated: plan.Updates(),
			DryRun:  true,
		}), nil
	}

	plan, summary, err := s.reconcile(ctx, req.Desired, scope, req.Confirm)
	if err != nil {
		return nil, err
	}
	return s.toDTO(plan, summary), nil
}

// Plan fetches the scope's current entries and diffs them against desired.
// It never mutates the remote store.
func (s *SyncService) Plan(ctx context.Context, desired envvar.DesiredSet, scope envvar.Scope) (envvar.Plan, error) {
	if desired.IsEmpty() {
		return envvar.Plan{}, envvar.ErrEmptyInput()
	}

	entries, err := s.provider.List(ctx, scope)
	if err != nil {
		return envvar.Plan{}, envvar.ErrProviderQuery(s.provider.Name(), err)
	}

	plan := envvar.BuildPlan(scope, desired, entries)
	s.logger.Debug().
		Int("listed", len(entries)).
		Int("set", len(plan.ToSet)).
		Int("remove", len(plan.ToRemove)).
		Msg("plan computed")

	s.dispatch(ctx, events.NewPlanComputed(s.runID, scope.String(), plan.Creates(), plan.Updates(), len(plan.ToRemove)))
	return plan, nil
}

// Reconcile makes the scope's variables equal to desired. Sets are applied
// before removals; the first failed set aborts the run, failed removals are
// only counted as warnings.
func (s *SyncService) Reconcile(ctx context.Context, desired envvar.DesiredSet, scope envvar.Scope, confirm bool) (envvar.Summary, error) {
	_, summary, err := s.reconcile(ctx, desired, scope, confirm)
	return summary, err
}

func (s *SyncService) reconcile(ctx context.Context, desired envvar.DesiredSet, scope envvar.Scope, confirm bool) (envvar.Plan, envvar.Summary, error) {
	plan, err := s.Plan(ctx, desired, scope)
	if err != nil {
		return envvar.Plan{}, envvar.Summary{}, err
	}

	if confirm {
		if s.confirmer == nil {
			return plan, envvar.Summary{}, envvar.ErrConfiguration("confirmation required but no prompt is available", "re-run with --yes")
		}
		ok, err := s.confirmer.Confirm(ctx, plan)
		if err != nil {
			return plan, envvar.Summary{}, err
		}
		if !ok {
			s.logger.Info().Msg("sync cancelled by operator")
			return plan, envvar.Summary{Cancelled: true}, nil
		}
	}

	var summary envvar.Summary
	for _, item := range plan.ToSet {
		if err := ctx.Err(); err != nil {
			return plan, summary, envvar.ErrProviderMutation(item.Key.String(), err)
		}
		if err := s.provider.Upsert(ctx, scope, item.Key.String(), item.Value, item.Sensitive); err != nil {
			s.logger.Error().Str("key", item.Key.String()).Err(err).Msg("upsert failed, aborting")
			return plan, summary, envvar.ErrProviderMutation(item.Key.String(), err)
		}
		summary.Set++
		if item.Action == envvar.ActionCreate {
			summary.Created++
		} else {
			summary.Updated++
		}
		s.dispatch(ctx, events.NewVariableSet(s.runID, item.Key.String(), item.Action == envvar.ActionCreate))
	}

	for _, item := range plan.ToRemove {
		if err := s.provider.Remove(ctx, scope, item.Handle); err != nil {
			warning := envvar.ErrProviderRemoval(item.Name, err)
			inUse := errors.Is(err, envvar.ErrInUse)
			s.logger.Warn().Str("key", item.Name).Bool("in_use", inUse).Err(err).Msg(warning.Message)
			summary.Warnings++
			s.dispatch(ctx, events.NewRemoveFailed(s.runID, item.Name, inUse, err))
			continue
		}
		summary.Removed++
		s.dispatch(ctx, events.NewVariableRemoved(s.runID, item.Name))
	}

	s.logger.Info().
		Int("set", summary.Set).
		Int("removed", summary.Removed).
		Int("warnings", summary.Warnings).
		Msg("sync complete")

	return plan, summary, nil
}

// RunID returns the identifier attached to every event of this service
func (s *SyncService) RunID() string {
	return s.runID
}

func (s *SyncService) dispatch(ctx context.Context, event events.DomainEvent) {
	if err := s.dispatcher.Dispatch(ctx, event); err != nil {
		s.logger.Debug().Err(err).Str("event", event.EventType()).Msg("event dispatch failed")
	}
}

// toDTO converts a plan and its outcome into a display-safe response
func (s *SyncService) toDTO(plan envvar.Plan, summary envvar.Summary) *dto.SyncResponse {
	return &dto.SyncResponse{
		RunID:     s.runID,
		Provider:  s.provider.Name(),
		Scope:     plan.Scope.String(),
		Set:       summary.Set,
		Created:   summary.Created,
		Updated:   summary.Updated,
		Removed:   summary.Removed,
		Warnings:  summary.Warnings,
		Cancelled: summary.Cancelled,
		DryRun:    summary.DryRun,
		Plan:      ToPlanView(plan),
	}
}

// ToPlanView copies a plan with every value masked
func ToPlanView(plan envvar.Plan) *dto.PlanView {
	view := &dto.PlanView{
		Scope:  plan.Scope.String(),
		Set:    make([]dto.PlanEntry, 0, len(plan.ToSet)),
		Remove: make([]string, 0, len(plan.ToRemove)),
	}
	for _, item := range plan.ToSet {
		view.Set = append(view.Set, dto.PlanEntry{
			Key:       item.Key.String(),
			Action:    string(item.Action),
			Sensitive: item.Sensitive,
			Value:     MaskValue(item.Value),
		})
	}
	for _, item := range plan.ToRemove {
		view.Remove = append(view.Remove, item.Name)
	}
	return view
}

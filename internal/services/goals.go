package services

import (
	"context"
	"fmt"
	"log/slog"

	"financy/internal/core"
	flog "financy/internal/log"
	"financy/internal/storage"
)

type GoalService struct {
	store storage.GoalStore
}

func NewGoalService(store storage.GoalStore) *GoalService {
	return &GoalService{store: store}
}

func (s *GoalService) List(ctx context.Context, userID string) ([]core.Goal, error) {
	goals, err := s.store.ListGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

func (s *GoalService) Create(ctx context.Context, userID string, g core.Goal) (core.Goal, error) {
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	saved, err := s.store.CreateGoal(ctx, userID, g)
	if err != nil {
		return core.Goal{}, fmt.Errorf("save goal: %w", err)
	}
	return saved, nil
}

// Update applies a partial change. A missing goal wraps storage.ErrNotFound.
func (s *GoalService) Update(ctx context.Context, userID string, id int64, patch core.GoalPatch) (core.Goal, error) {
	current, err := s.store.GetGoal(ctx, userID, id)
	if err != nil {
		return core.Goal{}, fmt.Errorf("load goal %d: %w", id, err)
	}
	next, err := patch.Apply(current)
	if err != nil {
		return core.Goal{}, err
	}
	updated, err := s.store.UpdateGoal(ctx, userID, next)
	if err != nil {
		return core.Goal{}, fmt.Errorf("update goal %d: %w", id, err)
	}
	return updated, nil
}

// Complete removes the goal and records a completion notification.
func (s *GoalService) Complete(ctx context.Context, userID string, id int64) (core.Notification, error) {
	g, n, err := s.store.CompleteGoal(ctx, userID, id)
	if err != nil {
		return core.Notification{}, fmt.Errorf("complete goal %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Goal completed", flog.FieldGoalID, id, "title", g.DisplayTitle(), flog.FieldUserID, userID)
	return n, nil
}

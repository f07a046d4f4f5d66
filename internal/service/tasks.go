package service

import (
	"context"
	"fmt"

	"github.com/harlequingg/lifestrat-api/internal/data"
	"github.com/harlequingg/lifestrat-api/internal/storage"
)

type TaskService struct {
	tasks    storage.TaskStore
	spheres  storage.LifeSphereStore
	projects storage.ProjectStore
}

func NewTaskService(tasks storage.TaskStore, spheres storage.LifeSphereStore, projects storage.ProjectStore) *TaskService {
	return &TaskService{
		tasks:    tasks,
		spheres:  spheres,
		projects: projects,
	}
}

func (s *TaskService) FindAllByUserID(ctx context.Context, userID int64) ([]data.Task, error) {
	tasks, err := s.tasks.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) FindAllByUserIDAndType(ctx context.Context, userID int64, taskType data.TaskType) ([]data.Task, error) {
	tasks, err := s.tasks.ListForUserByType(ctx, userID, taskType)
	if err != nil {
		return nil, fmt.Errorf("list tasks of type %s: %w", taskType, err)
	}
	return tasks, nil
}

func (s *TaskService) FindAllByUserIDAndLifeSphereID(ctx context.Context, userID, sphereID int64) ([]data.Task, error) {
	tasks, err := s.FindAllByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	matched := []data.Task{}
	for _, t := range tasks {
		if t.LifeSphereID() == sphereID {
			matched = append(matched, t)
		}
	}
	return matched, nil
}

// FindAllByProjectID lists the tasks of one of the user's projects.
func (s *TaskService) FindAllByProjectID(ctx context.Context, projectID, userID int64) ([]data.Task, error) {
	if _, err := s.ownedProject(ctx, projectID, userID); err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListForProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list tasks of project %d: %w", projectID, err)
	}
	return tasks, nil
}

func (s *TaskService) FindByIDAndUserID(ctx context.Context, id, userID int64) (*data.Task, error) {
	t, err := s.tasks.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	if t == nil || t.UserID != userID {
		return nil, notFound("task")
	}
	return t, nil
}

func (s *TaskService) ownedProject(ctx context.Context, id, userID int64) (*data.Project, error) {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	if p == nil {
		return nil, invalid(ErrNotFound, "project_id", "project %d does not exist", id)
	}
	if p.UserID != userID {
		return nil, invalid(ErrOwnerMismatch, "project_id", "project must belong to the current user")
	}
	return p, nil
}

// Create checks that the task, its sphere and its project (if any) all
// belong to userID before saving it.
func (s *TaskService) Create(ctx context.Context, t *data.Task, userID int64) (*data.Task, error) {
	if t.UserID != userID {
		return nil, invalid(ErrOwnerMismatch, "user_id", "task must belong to the current user")
	}
	if t.LifeSphere == nil {
		return nil, invalid(ErrNotFound, "life_sphere_id", "task must have a life sphere")
	}
	ls, err := ownedSphere(ctx, s.spheres, t.LifeSphere.ID, userID)
	if err != nil {
		return nil, err
	}
	t.LifeSphere = ls
	if t.ProjectID != nil {
		if _, err := s.ownedProject(ctx, *t.ProjectID, userID); err != nil {
			return nil, err
		}
	}

	if t.Priority == "" {
		t.Priority = data.PriorityMedium
	}
	if t.EnergyCost == "" {
		t.EnergyCost = data.EnergyMedium
	}
	if t.Type == "" {
		t.Type = data.TaskAction
	}
	if err := s.tasks.Insert(ctx, t); err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

// Update copies the editable fields of updated onto existing and saves it.
// A nil LifeSphere keeps the current sphere; empty enum values keep the
// current ones.
func (s *TaskService) Update(ctx context.Context, existing *data.Task, updated data.Task) (*data.Task, error) {
	if updated.LifeSphere != nil && updated.LifeSphere.ID != existing.LifeSphereID() {
		ls, err := ownedSphere(ctx, s.spheres, updated.LifeSphere.ID, existing.UserID)
		if err != nil {
			return nil, err
		}
		existing.LifeSphere = ls
	}
	if updated.ProjectID != nil && !existing.InProject(*updated.ProjectID) {
		if _, err := s.ownedProject(ctx, *updated.ProjectID, existing.UserID); err != nil {
			return nil, err
		}
	}

	existing.ProjectID = updated.ProjectID
	existing.Title = updated.Title
	existing.Description = updated.Description
	existing.Deadline = updated.Deadline
	existing.EstimatedTimeMinutes = updated.EstimatedTimeMinutes
	existing.Completed = updated.Completed
	if updated.Priority != "" {
		existing.Priority = updated.Priority
	}
	if updated.EnergyCost != "" {
		existing.EnergyCost = updated.EnergyCost
	}
	if updated.Type != "" {
		existing.Type = updated.Type
	}
	if err := s.tasks.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("update task %d: %w", existing.ID, err)
	}
	return existing, nil
}

func (s *TaskService) Delete(ctx context.Context, t *data.Task) error {
	if err := s.tasks.Delete(ctx, t.ID); err != nil {
		return fmt.Errorf("delete task %d: %w", t.ID, err)
	}
	return nil
}

// MarkAsCompleted is idempotent: completing a completed task saves it again
// unchanged.
func (s *TaskService) MarkAsCompleted(ctx context.Context, taskID, userID int64) (*data.Task, error) {
	t, err := s.FindByIDAndUserID(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}
	t.Completed = true
	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update task %d: %w", t.ID, err)
	}
	return t, nil
}

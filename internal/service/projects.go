package service

import (
	"context"
	"fmt"
	"time"

	"github.com/harlequingg/lifestrat-api/internal/data"
	"github.com/harlequingg/lifestrat-api/internal/storage"
)

type ProjectService struct {
	projects storage.ProjectStore
	spheres  storage.LifeSphereStore
	now      func() time.Time
}

func NewProjectService(projects storage.ProjectStore, spheres storage.LifeSphereStore) *ProjectService {
	return &ProjectService{
		projects: projects,
		spheres:  spheres,
		now:      time.Now,
	}
}

func (s *ProjectService) FindAllByUserID(ctx context.Context, userID int64) ([]data.Project, error) {
	projects, err := s.projects.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (s *ProjectService) FindByIDAndUserID(ctx context.Context, id, userID int64) (*data.Project, error) {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get project %d: %w", id, err)
	}
	if p == nil || p.UserID != userID {
		return nil, notFound("project")
	}
	return p, nil
}

func (s *ProjectService) filter(ctx context.Context, userID int64, keep func(*data.Project) bool) ([]data.Project, error) {
	projects, err := s.FindAllByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	matched := []data.Project{}
	for i := range projects {
		if keep(&projects[i]) {
			matched = append(matched, projects[i])
		}
	}
	return matched, nil
}

func (s *ProjectService) FindAllByUserIDAndLifeSphereID(ctx context.Context, userID, sphereID int64) ([]data.Project, error) {
	return s.filter(ctx, userID, func(p *data.Project) bool { return p.LifeSphereID() == sphereID })
}

func (s *ProjectService) FindAllByUserIDAndStatus(ctx context.Context, userID int64, status data.ProjectStatus) ([]data.Project, error) {
	return s.filter(ctx, userID, func(p *data.Project) bool { return p.Status == status })
}

// FindOverdueByUserID returns unfinished projects whose deadline is before
// today.
func (s *ProjectService) FindOverdueByUserID(ctx context.Context, userID int64) ([]data.Project, error) {
	today := data.DateOf(s.now())
	return s.filter(ctx, userID, func(p *data.Project) bool {
		if p.Status == data.ProjectCompleted || p.Status == data.ProjectCancelled {
			return false
		}
		return p.Deadline != nil && p.Deadline.Before(today)
	})
}

// ownedSphere loads the sphere with the given id and checks it belongs to
// userID.
func ownedSphere(ctx context.Context, spheres storage.LifeSphereStore, id, userID int64) (*data.LifeSphere, error) {
	ls, err := spheres.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get life sphere %d: %w", id, err)
	}
	if ls == nil {
		return nil, invalid(ErrNotFound, "life_sphere_id", "life sphere %d does not exist", id)
	}
	if ls.UserID != userID {
		return nil, invalid(ErrOwnerMismatch, "life_sphere_id", "life sphere must belong to the current user")
	}
	return ls, nil
}

func (s *ProjectService) titleTaken(ctx context.Context, userID, exceptID int64, title string) (bool, error) {
	projects, err := s.FindAllByUserID(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, other := range projects {
		if other.ID != exceptID && other.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func (s *ProjectService) Create(ctx context.Context, p *data.Project, userID int64) (*data.Project, error) {
	if p.UserID != userID {
		return nil, invalid(ErrOwnerMismatch, "user_id", "project must belong to the current user")
	}
	if p.LifeSphere == nil {
		return nil, invalid(ErrNotFound, "life_sphere_id", "project must have a life sphere")
	}
	if p.LifeSphere.UserID != 0 && p.LifeSphere.UserID != userID {
		return nil, invalid(ErrOwnerMismatch, "life_sphere_id", "life sphere must belong to the current user")
	}
	ls, err := ownedSphere(ctx, s.spheres, p.LifeSphere.ID, userID)
	if err != nil {
		return nil, err
	}
	p.LifeSphere = ls

	taken, err := s.titleTaken(ctx, userID, 0, p.Title)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, invalid(ErrDuplicateName, "title", "a project titled %q already exists", p.Title)
	}
	if p.Status == "" {
		p.Status = data.ProjectActive
	}
	if p.Priority == "" {
		p.Priority = data.PriorityMedium
	}
	if err := s.projects.Insert(ctx, p); err != nil {
		return nil, duplicate(err, "title", "a project titled %q already exists", p.Title)
	}
	return p, nil
}

// Update copies the editable fields of updated onto existing and saves it.
// A nil LifeSphere on updated keeps the current sphere.
func (s *ProjectService) Update(ctx context.Context, existing *data.Project, updated data.Project) (*data.Project, error) {
	if updated.LifeSphere != nil && updated.LifeSphere.ID != existing.LifeSphereID() {
		ls, err := ownedSphere(ctx, s.spheres, updated.LifeSphere.ID, existing.UserID)
		if err != nil {
			return nil, err
		}
		existing.LifeSphere = ls
	}
	if updated.Title != existing.Title {
		taken, err := s.titleTaken(ctx, existing.UserID, existing.ID, updated.Title)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, invalid(ErrDuplicateName, "title", "a project titled %q already exists", updated.Title)
		}
	}

	existing.Title = updated.Title
	existing.Description = updated.Description
	existing.Deadline = updated.Deadline
	if updated.Priority != "" {
		existing.Priority = updated.Priority
	}
	if updated.Status != "" {
		existing.Status = updated.Status
	}
	if err := s.projects.Update(ctx, existing); err != nil {
		return nil, duplicate(err, "title", "a project titled %q already exists", updated.Title)
	}
	return existing, nil
}

func (s *ProjectService) Delete(ctx context.Context, p *data.Project) error {
	if err := s.projects.Delete(ctx, p.ID); err != nil {
		return fmt.Errorf("delete project %d: %w", p.ID, err)
	}
	return nil
}

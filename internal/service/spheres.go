package service

import (
	"context"
	"fmt"

	"github.com/harlequingg/lifestrat-api/internal/data"
	"github.com/harlequingg/lifestrat-api/internal/storage"
)

// DefaultLifeSpheres are created for every new account.
var DefaultLifeSpheres = []data.LifeSphere{
	{Name: "Карьера", Color: "#FF6B6B"},
	{Name: "Финансы", Color: "#FFD93D"},
	{Name: "Здоровье", Color: "#4ECDC4"},
	{Name: "Отношения", Color: "#FF8FB1"},
	{Name: "Саморазвитие", Color: "#6C5CE7"},
	{Name: "Отдых", Color: "#95E1D3"},
}

type LifeSphereService struct {
	spheres storage.LifeSphereStore
}

func NewLifeSphereService(spheres storage.LifeSphereStore) *LifeSphereService {
	return &LifeSphereService{spheres: spheres}
}

func (s *LifeSphereService) FindAllByUserID(ctx context.Context, userID int64) ([]data.LifeSphere, error) {
	spheres, err := s.spheres.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list life spheres: %w", err)
	}
	return spheres, nil
}

// FindByIDAndUserID treats another user's sphere the same as a missing one.
func (s *LifeSphereService) FindByIDAndUserID(ctx context.Context, id, userID int64) (*data.LifeSphere, error) {
	ls, err := s.spheres.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get life sphere %d: %w", id, err)
	}
	if ls == nil || ls.UserID != userID {
		return nil, notFound("life sphere")
	}
	return ls, nil
}

func (s *LifeSphereService) nameTaken(ctx context.Context, userID, exceptID int64, name string) (bool, error) {
	spheres, err := s.FindAllByUserID(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, other := range spheres {
		if other.ID != exceptID && other.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *LifeSphereService) Create(ctx context.Context, ls *data.LifeSphere, userID int64) (*data.LifeSphere, error) {
	if ls.UserID != userID {
		return nil, invalid(ErrOwnerMismatch, "user_id", "life sphere must belong to the current user")
	}
	taken, err := s.nameTaken(ctx, userID, 0, ls.Name)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, invalid(ErrDuplicateName, "name", "a life sphere named %q already exists", ls.Name)
	}
	if err := s.spheres.Insert(ctx, ls); err != nil {
		return nil, duplicate(err, "name", "a life sphere named %q already exists", ls.Name)
	}
	return ls, nil
}

// Update copies name and color from updated onto existing and saves it.
func (s *LifeSphereService) Update(ctx context.Context, existing *data.LifeSphere, updated data.LifeSphere) (*data.LifeSphere, error) {
	if updated.Name != existing.Name {
		taken, err := s.nameTaken(ctx, existing.UserID, existing.ID, updated.Name)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, invalid(ErrDuplicateName, "name", "a life sphere named %q already exists", updated.Name)
		}
	}
	existing.Name = updated.Name
	existing.Color = updated.Color
	if err := s.spheres.Update(ctx, existing); err != nil {
		return nil, duplicate(err, "name", "a life sphere named %q already exists", updated.Name)
	}
	return existing, nil
}

func (s *LifeSphereService) Delete(ctx context.Context, ls *data.LifeSphere) error {
	if err := s.spheres.Delete(ctx, ls.ID); err != nil {
		return fmt.Errorf("delete life sphere %d: %w", ls.ID, err)
	}
	return nil
}

// CreateDefaults adds DefaultLifeSpheres to the user's spheres, skipping
// names the user already has.
func (s *LifeSphereService) CreateDefaults(ctx context.Context, userID int64) ([]data.LifeSphere, error) {
	existing, err := s.FindAllByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(existing))
	for _, ls := range existing {
		have[ls.Name] = true
	}

	created := make([]data.LifeSphere, 0, len(DefaultLifeSpheres))
	for _, def := range DefaultLifeSpheres {
		if have[def.Name] {
			continue
		}
		ls := def
		ls.UserID = userID
		if err := s.spheres.Insert(ctx, &ls); err != nil {
			return nil, fmt.Errorf("create default life sphere %q: %w", ls.Name, err)
		}
		created = append(created, ls)
	}
	return created, nil
}

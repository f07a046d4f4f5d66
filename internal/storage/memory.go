package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/harlequingg/lifestrat-api/internal/data"
)

// memoryDB keeps every table in maps behind one lock so that uniqueness
// checks and cascading deletes see a consistent view. Records are copied on
// the way in and out.
type memoryDB struct {
	mu       sync.RWMutex
	nextID   int64
	users    map[int64]data.User
	spheres  map[int64]data.LifeSphere
	projects map[int64]data.Project
	tasks    map[int64]data.Task
}

func NewMemory() *Storage {
	db := &memoryDB{
		users:    make(map[int64]data.User),
		spheres:  make(map[int64]data.LifeSphere),
		projects: make(map[int64]data.Project),
		tasks:    make(map[int64]data.Task),
	}
	return &Storage{
		Users:       &memUsers{db},
		LifeSpheres: &memLifeSpheres{db},
		Projects:    &memProjects{db},
		Tasks:       &memTasks{db},
	}
}

func (m *memoryDB) id() int64 {
	m.nextID++
	return m.nextID
}

func sortedIDs[T any](rows map[int64]T, keep func(T) bool) []int64 {
	ids := make([]int64, 0, len(rows))
	for id, r := range rows {
		if keep(r) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// sphere returns a fresh copy of the joined sphere for a stored row.
func (m *memoryDB) sphere(id int64) *data.LifeSphere {
	ls, ok := m.spheres[id]
	if !ok {
		return nil
	}
	return &ls
}

func copyDate(d *data.Date) *data.Date {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

type memUsers struct{ db *memoryDB }

func (s *memUsers) clash(u *data.User) bool {
	for _, other := range s.db.users {
		if other.ID != u.ID && (other.Username == u.Username || other.Email == u.Email) {
			return true
		}
	}
	return false
}

func (s *memUsers) Insert(_ context.Context, u *data.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.clash(u) {
		return ErrDuplicate
	}
	u.ID = s.db.id()
	u.CreatedAt = time.Now().Truncate(time.Second)
	u.Version = 1
	row := *u
	row.PasswordHash = append([]byte(nil), u.PasswordHash...)
	s.db.users[u.ID] = row
	return nil
}

func (s *memUsers) find(match func(data.User) bool) *data.User {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, u := range s.db.users {
		if match(u) {
			return &u
		}
	}
	return nil
}

func (s *memUsers) GetByID(_ context.Context, id int64) (*data.User, error) {
	return s.find(func(u data.User) bool { return u.ID == id }), nil
}

func (s *memUsers) GetByUsername(_ context.Context, username string) (*data.User, error) {
	return s.find(func(u data.User) bool { return u.Username == username }), nil
}

func (s *memUsers) GetByEmail(_ context.Context, email string) (*data.User, error) {
	return s.find(func(u data.User) bool { return u.Email == email }), nil
}

func (s *memUsers) Update(_ context.Context, u *data.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	current, ok := s.db.users[u.ID]
	if !ok || current.Version != u.Version {
		return ErrEditConflict
	}
	if s.clash(u) {
		return ErrDuplicate
	}
	u.Version++
	s.db.users[u.ID] = *u
	return nil
}

func (s *memUsers) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.users, id)
	for sid, ls := range s.db.spheres {
		if ls.UserID == id {
			s.db.deleteSphere(sid)
		}
	}
	return nil
}

type memLifeSpheres struct{ db *memoryDB }

func (s *memLifeSpheres) clash(ls *data.LifeSphere) bool {
	for _, other := range s.db.spheres {
		if other.ID != ls.ID && other.UserID == ls.UserID && other.Name == ls.Name {
			return true
		}
	}
	return false
}

func (s *memLifeSpheres) Insert(_ context.Context, ls *data.LifeSphere) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.users[ls.UserID]; !ok {
		return fmt.Errorf("storage: user %d does not exist", ls.UserID)
	}
	if s.clash(ls) {
		return ErrDuplicate
	}
	ls.ID = s.db.id()
	ls.CreatedAt = time.Now().Truncate(time.Second)
	ls.Version = 1
	s.db.spheres[ls.ID] = *ls
	return nil
}

func (s *memLifeSpheres) Get(_ context.Context, id int64) (*data.LifeSphere, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return s.db.sphere(id), nil
}

func (s *memLifeSpheres) ListForUser(_ context.Context, userID int64) ([]data.LifeSphere, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	spheres := []data.LifeSphere{}
	for _, id := range sortedIDs(s.db.spheres, func(ls data.LifeSphere) bool { return ls.UserID == userID }) {
		spheres = append(spheres, s.db.spheres[id])
	}
	return spheres, nil
}

func (s *memLifeSpheres) Update(_ context.Context, ls *data.LifeSphere) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	current, ok := s.db.spheres[ls.ID]
	if !ok || current.Version != ls.Version {
		return ErrEditConflict
	}
	if s.clash(ls) {
		return ErrDuplicate
	}
	ls.Version++
	s.db.spheres[ls.ID] = *ls
	return nil
}

func (s *memLifeSpheres) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.deleteSphere(id)
	return nil
}

func (m *memoryDB) deleteSphere(id int64) {
	delete(m.spheres, id)
	for pid, p := range m.projects {
		if p.LifeSphereID() == id {
			m.deleteProject(pid)
		}
	}
	for tid, t := range m.tasks {
		if t.LifeSphereID() == id {
			delete(m.tasks, tid)
		}
	}
}

type memProjects struct{ db *memoryDB }

func (s *memProjects) clash(p *data.Project) bool {
	for _, other := range s.db.projects {
		if other.ID != p.ID && other.UserID == p.UserID && other.Title == p.Title {
			return true
		}
	}
	return false
}

func (s *memProjects) checkRefs(p *data.Project) error {
	if _, ok := s.db.users[p.UserID]; !ok {
		return fmt.Errorf("storage: user %d does not exist", p.UserID)
	}
	if _, ok := s.db.spheres[p.LifeSphereID()]; !ok {
		return fmt.Errorf("storage: life sphere %d does not exist", p.LifeSphereID())
	}
	return nil
}

// row strips the joined sphere down to its id for storage.
func (s *memProjects) row(p *data.Project) data.Project {
	r := *p
	r.LifeSphere = &data.LifeSphere{ID: p.LifeSphereID()}
	r.Deadline = copyDate(p.Deadline)
	return r
}

func (s *memProjects) load(r data.Project) data.Project {
	r.LifeSphere = s.db.sphere(r.LifeSphereID())
	r.Deadline = copyDate(r.Deadline)
	return r
}

func (s *memProjects) Insert(_ context.Context, p *data.Project) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.checkRefs(p); err != nil {
		return err
	}
	if s.clash(p) {
		return ErrDuplicate
	}
	p.ID = s.db.id()
	p.CreatedAt = time.Now().Truncate(time.Second)
	p.Version = 1
	s.db.projects[p.ID] = s.row(p)
	return nil
}

func (s *memProjects) Get(_ context.Context, id int64) (*data.Project, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	r, ok := s.db.projects[id]
	if !ok {
		return nil, nil
	}
	p := s.load(r)
	return &p, nil
}

func (s *memProjects) ListForUser(_ context.Context, userID int64) ([]data.Project, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	projects := []data.Project{}
	for _, id := range sortedIDs(s.db.projects, func(p data.Project) bool { return p.UserID == userID }) {
		projects = append(projects, s.load(s.db.projects[id]))
	}
	return projects, nil
}

func (s *memProjects) Update(_ context.Context, p *data.Project) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	current, ok := s.db.projects[p.ID]
	if !ok || current.Version != p.Version {
		return ErrEditConflict
	}
	if err := s.checkRefs(p); err != nil {
		return err
	}
	if s.clash(p) {
		return ErrDuplicate
	}
	p.Version++
	s.db.projects[p.ID] = s.row(p)
	return nil
}

func (s *memProjects) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.deleteProject(id)
	return nil
}

func (m *memoryDB) deleteProject(id int64) {
	delete(m.projects, id)
	for tid, t := range m.tasks {
		if t.InProject(id) {
			delete(m.tasks, tid)
		}
	}
}

type memTasks struct{ db *memoryDB }

func (s *memTasks) checkRefs(t *data.Task) error {
	if _, ok := s.db.users[t.UserID]; !ok {
		return fmt.Errorf("storage: user %d does not exist", t.UserID)
	}
	if _, ok := s.db.spheres[t.LifeSphereID()]; !ok {
		return fmt.Errorf("storage: life sphere %d does not exist", t.LifeSphereID())
	}
	if t.ProjectID != nil {
		if _, ok := s.db.projects[*t.ProjectID]; !ok {
			return fmt.Errorf("storage: project %d does not exist", *t.ProjectID)
		}
	}
	return nil
}

func (s *memTasks) row(t *data.Task) data.Task {
	r := *t
	r.LifeSphere = &data.LifeSphere{ID: t.LifeSphereID()}
	r.ProjectID = copyID(t.ProjectID)
	r.Deadline = copyDate(t.Deadline)
	return r
}

func (s *memTasks) load(r data.Task) data.Task {
	r.LifeSphere = s.db.sphere(r.LifeSphereID())
	r.ProjectID = copyID(r.ProjectID)
	r.Deadline = copyDate(r.Deadline)
	return r
}

func (s *memTasks) list(keep func(data.Task) bool) []data.Task {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	tasks := []data.Task{}
	for _, id := range sortedIDs(s.db.tasks, keep) {
		tasks = append(tasks, s.load(s.db.tasks[id]))
	}
	return tasks
}

func (s *memTasks) Insert(_ context.Context, t *data.Task) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.checkRefs(t); err != nil {
		return err
	}
	t.ID = s.db.id()
	t.CreatedAt = time.Now().Truncate(time.Second)
	t.Version = 1
	s.db.tasks[t.ID] = s.row(t)
	return nil
}

func (s *memTasks) Get(_ context.Context, id int64) (*data.Task, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	r, ok := s.db.tasks[id]
	if !ok {
		return nil, nil
	}
	t := s.load(r)
	return &t, nil
}

func (s *memTasks) ListForUser(_ context.Context, userID int64) ([]data.Task, error) {
	return s.list(func(t data.Task) bool { return t.UserID == userID }), nil
}

func (s *memTasks) ListForUserByType(_ context.Context, userID int64, taskType data.TaskType) ([]data.Task, error) {
	return s.list(func(t data.Task) bool { return t.UserID == userID && t.Type == taskType }), nil
}

func (s *memTasks) ListForProject(_ context.Context, projectID int64) ([]data.Task, error) {
	return s.list(func(t data.Task) bool { return t.InProject(projectID) }), nil
}

func (s *memTasks) Update(_ context.Context, t *data.Task) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	current, ok := s.db.tasks[t.ID]
	if !ok || current.Version != t.Version {
		return ErrEditConflict
	}
	if err := s.checkRefs(t); err != nil {
		return err
	}
	t.Version++
	s.db.tasks[t.ID] = s.row(t)
	return nil
}

func (s *memTasks) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.tasks, id)
	return nil
}

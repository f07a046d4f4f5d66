package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harlequingg/lifestrat-api/internal/auth"
	"github.com/harlequingg/lifestrat-api/internal/data"
	"github.com/harlequingg/lifestrat-api/internal/storage"
)

type env struct {
	store    *storage.Storage
	users    *UserService
	spheres  *LifeSphereService
	projects *ProjectService
	tasks    *TaskService
	user     *data.User
	work     *data.LifeSphere
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := storage.NewMemory()
	e := &env{
		store:    store,
		users:    NewUserService(store.Users),
		spheres:  NewLifeSphereService(store.LifeSpheres),
		projects: NewProjectService(store.Projects, store.LifeSpheres),
		tasks:    NewTaskService(store.Tasks, store.LifeSpheres, store.Projects),
	}
	ctx := context.Background()

	u, err := e.users.CreateUser(ctx, "testuser", "test@example.com", "password")
	require.NoError(t, err)
	e.user = u

	work, err := e.spheres.Create(ctx, &data.LifeSphere{UserID: u.ID, Name: "Work", Color: "#FF6B6B"}, u.ID)
	require.NoError(t, err)
	e.work = work
	return e
}

func (e *env) otherUser(t *testing.T) (*data.User, *data.LifeSphere) {
	t.Helper()
	ctx := context.Background()
	u, err := e.users.CreateUser(ctx, "other", "other@example.com", "password")
	require.NoError(t, err)
	ls, err := e.spheres.Create(ctx, &data.LifeSphere{UserID: u.ID, Name: "Theirs"}, u.ID)
	require.NoError(t, err)
	return u, ls
}

func assertKind(t *testing.T, err error, kind error) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, kind)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr), "expected *ValidationError, got %T", err)
}

func TestCreateUser(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.users.CreateUser(ctx, "newuser", "new@example.com", "plainPassword")
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "newuser", u.Username)
	assert.NotEqual(t, "plainPassword", string(u.PasswordHash))
	assert.True(t, strings.HasPrefix(string(u.PasswordHash), "$2a$"))

	exists, err := e.users.ExistsByUsername(ctx, "newuser")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = e.users.ExistsByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateUserDuplicates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.users.CreateUser(ctx, "testuser", "new@example.com", "password")
	assertKind(t, err, ErrDuplicateName)
	_, err = e.users.CreateUser(ctx, "newuser", "test@example.com", "password")
	assertKind(t, err, ErrDuplicateName)
}

func TestFindUser(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.users.FindByUsername(ctx, "testuser")
	require.NoError(t, err)
	assert.Equal(t, e.user.ID, u.ID)

	u, err = e.users.FindByEmail(ctx, "test@example.com")
	require.NoError(t, err)
	assert.Equal(t, e.user.ID, u.ID)

	_, err = e.users.FindByID(ctx, 12345)
	assertKind(t, err, ErrNotFound)
}

func TestAuthenticate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.users.Authenticate(ctx, "testuser", "password")
	require.NoError(t, err)
	assert.Equal(t, e.user.ID, u.ID)

	_, err = e.users.Authenticate(ctx, "testuser", "wrongpassword")
	assertKind(t, err, ErrInvalidCredentials)
	_, err = e.users.Authenticate(ctx, "nobody", "password")
	assertKind(t, err, ErrInvalidCredentials)
}

func TestDeleteUser(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.users.Delete(ctx, e.user))
	_, err := e.users.FindByID(ctx, e.user.ID)
	assertKind(t, err, ErrNotFound)
}

func TestLifeSphereCreateRules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.spheres.Create(ctx, &data.LifeSphere{UserID: e.user.ID + 100, Name: "New Sphere"}, e.user.ID)
	assertKind(t, err, ErrOwnerMismatch)

	_, err = e.spheres.Create(ctx, &data.LifeSphere{UserID: e.user.ID, Name: "Work"}, e.user.ID)
	assertKind(t, err, ErrDuplicateName)

	ls, err := e.spheres.Create(ctx, &data.LifeSphere{UserID: e.user.ID, Name: "New Sphere", Color: "#FFFFFF"}, e.user.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Sphere", ls.Name)
}

func TestLifeSphereFindByIDAndUserID(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, theirs := e.otherUser(t)

	ls, err := e.spheres.FindByIDAndUserID(ctx, e.work.ID, e.user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Work", ls.Name)

	_, err = e.spheres.FindByIDAndUserID(ctx, theirs.ID, e.user.ID)
	assertKind(t, err, ErrNotFound)
	_, err = e.spheres.FindByIDAndUserID(ctx, 9999, e.user.ID)
	assertKind(t, err, ErrNotFound)
}

func TestLifeSphereUpdate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, err := e.spheres.Create(ctx, &data.LifeSphere{UserID: e.user.ID, Name: "Health"}, e.user.ID)
	require.NoError(t, err)

	ls, err := e.spheres.Update(ctx, e.work, data.LifeSphere{Name: "Updated Work", Color: "#000000"})
	require.NoError(t, err)
	assert.Equal(t, "Updated Work", ls.Name)
	assert.Equal(t, "#000000", ls.Color)

	_, err = e.spheres.Update(ctx, ls, data.LifeSphere{Name: "Health"})
	assertKind(t, err, ErrDuplicateName)
}

func TestLifeSphereCreateDefaults(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.spheres.CreateDefaults(ctx, e.user.ID)
	require.NoError(t, err)
	require.Len(t, created, 6)
	assert.Equal(t, "Карьера", created[0].Name)
	assert.Equal(t, "Финансы", created[1].Name)

	again, err := e.spheres.CreateDefaults(ctx, e.user.ID)
	require.NoError(t, err)
	assert.Empty(t, again)

	all, err := e.spheres.FindAllByUserID(ctx, e.user.ID)
	require.NoError(t, err)
	assert.Len(t, all, 7)
}

func newProject(userID int64, sphere *data.LifeSphere, title string) *data.Project {
	return &data.Project{UserID: userID, LifeSphere: sphere, Title: title, Priority: data.PriorityHigh}
}

func TestProjectCreateRules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	other, theirs := e.otherUser(t)

	_, err := e.projects.Create(ctx, newProject(other.ID, e.work, "New Project"), e.user.ID)
	assertKind(t, err, ErrOwnerMismatch)

	_, err = e.projects.Create(ctx, newProject(e.user.ID, theirs, "New Project"), e.user.ID)
	assertKind(t, err, ErrOwnerMismatch)

	// A sphere reference carrying only the id is checked against storage.
	_, err = e.projects.Create(ctx, newProject(e.user.ID, &data.LifeSphere{ID: theirs.ID}, "New Project"), e.user.ID)
	assertKind(t, err, ErrOwnerMismatch)

	p, err := e.projects.Create(ctx, newProject(e.user.ID, &data.LifeSphere{ID: e.work.ID}, "New Project"), e.user.ID)
	require.NoError(t, err)
	assert.Equal(t, data.ProjectActive, p.Status)
	assert.Equal(t, "Work", p.LifeSphere.Name)

	_, err = e.projects.Create(ctx, newProject(e.user.ID, e.work, "New Project"), e.user.ID)
	assertKind(t, err, ErrDuplicateName)
}

func TestProjectFilters(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	health, err := e.spheres.Create(ctx, &data.LifeSphere{UserID: e.user.ID, Name: "Health"}, e.user.ID)
	require.NoError(t, err)

	yesterday := data.NewDate(2024, time.April, 19)
	nextMonth := data.NewDate(2024, time.May, 20)
	e.projects.now = func() time.Time { return time.Date(2024, time.April, 20, 9, 0, 0, 0, time.UTC) }

	p1 := newProject(e.user.ID, e.work, "Project 1")
	p1.Deadline = &nextMonth
	p2 := newProject(e.user.ID, health, "Project 2")
	p2.Status = data.ProjectOnHold
	overdue := newProject(e.user.ID, e.work, "Overdue Project")
	overdue.Deadline = &yesterday
	done := newProject(e.user.ID, e.work, "Finished Late")
	done.Deadline = &yesterday
	done.Status = data.ProjectCompleted
	for _, p := range []*data.Project{p1, p2, overdue, done} {
		_, err := e.projects.Create(ctx, p, e.user.ID)
		require.NoError(t, err)
	}

	bySphere, err := e.projects.FindAllByUserIDAndLifeSphereID(ctx, e.user.ID, e.work.ID)
	require.NoError(t, err)
	assert.Len(t, bySphere, 3)
	for _, p := range bySphere {
		assert.Equal(t, e.work.ID, p.LifeSphereID())
	}

	onHold, err := e.projects.FindAllByUserIDAndStatus(ctx, e.user.ID, data.ProjectOnHold)
	require.NoError(t, err)
	require.Len(t, onHold, 1)
	assert.Equal(t, "Project 2", onHold[0].Title)

	late, err := e.projects.FindOverdueByUserID(ctx, e.user.ID)
	require.NoError(t, err)
	require.Len(t, late, 1)
	assert.Equal(t, "Overdue Project", late[0].Title)
}

func TestProjectUpdateAndDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, theirs := e.otherUser(t)
	p, err := e.projects.Create(ctx, newProject(e.user.ID, e.work, "Project 1"), e.user.ID)
	require.NoError(t, err)

	due := data.NewDate(2030, time.January, 1)
	p, err = e.projects.Update(ctx, p, data.Project{
		Title:       "Updated Project",
		Description: "Updated description",
		Deadline:    &due,
		Priority:    data.PriorityCritical,
	})
	require.NoError(t, err)
	assert.Equal(t, "Updated Project", p.Title)
	assert.Equal(t, data.PriorityCritical, p.Priority)
	assert.Equal(t, data.ProjectActive, p.Status)

	_, err = e.projects.Update(ctx, p, data.Project{Title: p.Title, LifeSphere: theirs})
	assertKind(t, err, ErrOwnerMismatch)

	require.NoError(t, e.projects.Delete(ctx, p))
	_, err = e.projects.FindByIDAndUserID(ctx, p.ID, e.user.ID)
	assertKind(t, err, ErrNotFound)
}

func newTask(userID int64, sphere *data.LifeSphere, title string) *data.Task {
	return &data.Task{
		UserID:               userID,
		LifeSphere:           sphere,
		Title:                title,
		EstimatedTimeMinutes: 60,
		Priority:             data.PriorityLow,
		EnergyCost:           data.EnergyHigh,
		Type:                 data.TaskRitual,
	}
}

func TestTaskCreateRules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	other, theirs := e.otherUser(t)
	theirProject, err := e.projects.Create(ctx, newProject(other.ID, theirs, "Their Project"), other.ID)
	require.NoError(t, err)

	_, err = e.tasks.Create(ctx, newTask(other.ID, e.work, "New Task"), e.user.ID)
	assertKind(t, err, ErrOwnerMismatch)

	_, err = e.tasks.Create(ctx, newTask(e.user.ID, theirs, "New Task"), e.user.ID)
	assertKind(t, err, ErrOwnerMismatch)

	withForeignProject := newTask(e.user.ID, e.work, "New Task")
	withForeignProject.ProjectID = &theirProject.ID
	_, err = e.tasks.Create(ctx, withForeignProject, e.user.ID)
	assertKind(t, err, ErrOwnerMismatch)

	task, err := e.tasks.Create(ctx, &data.Task{UserID: e.user.ID, LifeSphere: e.work, Title: "Defaults"}, e.user.ID)
	require.NoError(t, err)
	assert.Equal(t, data.PriorityMedium, task.Priority)
	assert.Equal(t, data.EnergyMedium, task.EnergyCost)
	assert.Equal(t, data.TaskAction, task.Type)
}

func TestTaskQueries(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p, err := e.projects.Create(ctx, newProject(e.user.ID, e.work, "Project 1"), e.user.ID)
	require.NoError(t, err)

	step := newTask(e.user.ID, e.work, "Task 1")
	step.Type = data.TaskStep
	step.ProjectID = &p.ID
	_, err = e.tasks.Create(ctx, step, e.user.ID)
	require.NoError(t, err)
	_, err = e.tasks.Create(ctx, newTask(e.user.ID, e.work, "Task 2"), e.user.ID)
	require.NoError(t, err)

	all, err := e.tasks.FindAllByUserID(ctx, e.user.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Task 1", all[0].Title)

	steps, err := e.tasks.FindAllByUserIDAndType(ctx, e.user.ID, data.TaskStep)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, data.TaskStep, steps[0].Type)

	inProject, err := e.tasks.FindAllByProjectID(ctx, p.ID, e.user.ID)
	require.NoError(t, err)
	assert.Len(t, inProject, 1)

	other, _ := e.otherUser(t)
	_, err = e.tasks.FindAllByProjectID(ctx, p.ID, other.ID)
	assertKind(t, err, ErrOwnerMismatch)

	bySphere, err := e.tasks.FindAllByUserIDAndLifeSphereID(ctx, e.user.ID, e.work.ID)
	require.NoError(t, err)
	assert.Len(t, bySphere, 2)

	_, err = e.tasks.FindByIDAndUserID(ctx, 9999, e.user.ID)
	assertKind(t, err, ErrNotFound)
}

func TestTaskUpdate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	task, err := e.tasks.Create(ctx, newTask(e.user.ID, e.work, "Task 1"), e.user.ID)
	require.NoError(t, err)

	due := data.NewDate(2030, time.January, 2)
	task, err = e.tasks.Update(ctx, task, data.Task{
		Title:                "Updated Task",
		Description:          "Updated description",
		Deadline:             &due,
		Priority:             data.PriorityCritical,
		EstimatedTimeMinutes: 180,
		EnergyCost:           data.EnergyHigh,
		Completed:            true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Updated Task", task.Title)
	assert.True(t, task.Completed)
	assert.Equal(t, data.TaskRitual, task.Type)

	stored, err := e.tasks.FindByIDAndUserID(ctx, task.ID, e.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 180, stored.EstimatedTimeMinutes)
	assert.Equal(t, due, *stored.Deadline)
}

func TestMarkAsCompleted(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	task, err := e.tasks.Create(ctx, newTask(e.user.ID, e.work, "Task 1"), e.user.ID)
	require.NoError(t, err)

	done, err := e.tasks.MarkAsCompleted(ctx, task.ID, e.user.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)

	again, err := e.tasks.MarkAsCompleted(ctx, task.ID, e.user.ID)
	require.NoError(t, err)
	assert.True(t, again.Completed)

	_, err = e.tasks.MarkAsCompleted(ctx, 9999, e.user.ID)
	assertKind(t, err, ErrNotFound)

	other, _ := e.otherUser(t)
	_, err = e.tasks.MarkAsCompleted(ctx, task.ID, other.ID)
	assertKind(t, err, ErrNotFound)
}

func TestTaskDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	task, err := e.tasks.Create(ctx, newTask(e.user.ID, e.work, "Task 1"), e.user.ID)
	require.NoError(t, err)

	require.NoError(t, e.tasks.Delete(ctx, task))
	_, err = e.tasks.FindByIDAndUserID(ctx, task.ID, e.user.ID)
	assertKind(t, err, ErrNotFound)
}

func TestRegisterAndLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tokens := auth.NewTokenService([]byte("secret"), time.Hour)
	svc := NewAuthService(e.users, e.spheres, tokens)

	res, err := svc.Register(ctx, "alice", "alice@example.com", "pa55word!")
	require.NoError(t, err)
	assert.True(t, tokens.IsValid(res.Token, "alice"))

	spheres, err := e.spheres.FindAllByUserID(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Len(t, spheres, len(DefaultLifeSpheres))

	_, err = svc.Register(ctx, "alice", "alice2@example.com", "pa55word!")
	assertKind(t, err, ErrDuplicateName)

	res, err = svc.Login(ctx, "alice", "pa55word!")
	require.NoError(t, err)
	assert.True(t, tokens.IsValid(res.Token, "alice"))

	_, err = svc.Login(ctx, "alice", "nope")
	assertKind(t, err, ErrInvalidCredentials)
}

func TestStorageErrorsAreNotValidationErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	stale := *e.work
	_, err := e.spheres.Update(ctx, e.work, data.LifeSphere{Name: "Career"})
	require.NoError(t, err)

	_, err = e.spheres.Update(ctx, &stale, data.LifeSphere{Name: "Career 2"})
	require.ErrorIs(t, err, storage.ErrEditConflict)
	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))
}

// flakySpheres fails the first Insert and then behaves like the wrapped store.
type flakySpheres struct {
	storage.LifeSphereStore
	failed bool
}

func (s *flakySpheres) Insert(ctx context.Context, ls *data.LifeSphere) error {
	if !s.failed {
		s.failed = true
		return errors.New("connection reset")
	}
	return s.LifeSphereStore.Insert(ctx, ls)
}

func TestRegisterRollsBackUserWhenDefaultsFail(t *testing.T) {
	store := storage.NewMemory()
	ctx := context.Background()
	users := NewUserService(store.Users)
	spheres := NewLifeSphereService(&flakySpheres{LifeSphereStore: store.LifeSpheres})
	tokens := auth.NewTokenService([]byte("secret"), time.Hour)
	svc := NewAuthService(users, spheres, tokens)

	_, err := svc.Register(ctx, "alice", "alice@example.com", "pa55word!")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))

	_, err = users.FindByUsername(ctx, "alice")
	assertKind(t, err, ErrNotFound)

	res, err := svc.Register(ctx, "alice", "alice@example.com", "pa55word!")
	require.NoError(t, err)
	assert.True(t, tokens.IsValid(res.Token, "alice"))

	list, err := spheres.FindAllByUserID(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Len(t, list, len(DefaultLifeSpheres))
}

package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/harlequingg/lifestrat-api/internal/data"
)

func NewPostgres(db *sql.DB) *Storage {
	return &Storage{
		Users:       &pgUsers{db: db},
		LifeSpheres: &pgLifeSpheres{db: db},
		Projects:    &pgProjects{db: db},
		Tasks:       &pgTasks{db: db},
		db:          db,
	}
}

// translate maps driver errors onto the package's sentinel errors.
func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return ErrDuplicate
	}
	return err
}

// dateArg turns an optional deadline into a query argument.
func dateArg(d *data.Date) any {
	if d == nil {
		return nil
	}
	return *d
}

func scanDate(nt sql.NullTime) *data.Date {
	if !nt.Valid {
		return nil
	}
	d := data.DateOf(nt.Time)
	return &d
}

type pgUsers struct {
	db *sql.DB
}

const userColumns = `id, created_at, username, email, password_hash, version`

func (s *pgUsers) get(ctx context.Context, where string, arg any) (*data.User, error) {
	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE ` + where
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, arg)
	var u data.User
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Username, &u.Email, &u.PasswordHash, &u.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &u, nil
}

func (s *pgUsers) GetByID(ctx context.Context, id int64) (*data.User, error) {
	return s.get(ctx, "id = $1", id)
}

func (s *pgUsers) GetByUsername(ctx context.Context, username string) (*data.User, error) {
	return s.get(ctx, "username = $1", username)
}

func (s *pgUsers) GetByEmail(ctx context.Context, email string) (*data.User, error) {
	return s.get(ctx, "email = $1", email)
}

func (s *pgUsers) Insert(ctx context.Context, u *data.User) error {
	query := `INSERT INTO users (username, email, password_hash)
			  VALUES ($1, $2, $3)
			  RETURNING id, created_at, version`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, u.Username, u.Email, u.PasswordHash)
	return translate(row.Scan(&u.ID, &u.CreatedAt, &u.Version))
}

func (s *pgUsers) Update(ctx context.Context, u *data.User) error {
	query := `UPDATE users SET username = $1, email = $2, password_hash = $3, version = version + 1
			  WHERE id = $4 AND version = $5
			  RETURNING version`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, u.Username, u.Email, u.PasswordHash, u.ID, u.Version)
	return scanVersion(row, &u.Version)
}

func (s *pgUsers) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, s.db, `DELETE FROM users WHERE id = $1`, id)
}

type pgLifeSpheres struct {
	db *sql.DB
}

const sphereColumns = `id, created_at, user_id, name, color, version`

func (s *pgLifeSpheres) Get(ctx context.Context, id int64) (*data.LifeSphere, error) {
	query := `SELECT ` + sphereColumns + `
			  FROM life_spheres
			  WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var ls data.LifeSphere
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&ls.ID, &ls.CreatedAt, &ls.UserID, &ls.Name, &ls.Color, &ls.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ls, nil
}

func (s *pgLifeSpheres) ListForUser(ctx context.Context, userID int64) ([]data.LifeSphere, error) {
	query := `SELECT ` + sphereColumns + `
			  FROM life_spheres
			  WHERE user_id = $1
			  ORDER BY id`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	spheres := []data.LifeSphere{}
	for rows.Next() {
		var ls data.LifeSphere
		err := rows.Scan(&ls.ID, &ls.CreatedAt, &ls.UserID, &ls.Name, &ls.Color, &ls.Version)
		if err != nil {
			return nil, err
		}
		spheres = append(spheres, ls)
	}
	return spheres, rows.Err()
}

func (s *pgLifeSpheres) Insert(ctx context.Context, ls *data.LifeSphere) error {
	query := `INSERT INTO life_spheres (user_id, name, color)
			  VALUES ($1, $2, $3)
			  RETURNING id, created_at, version`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, ls.UserID, ls.Name, ls.Color)
	return translate(row.Scan(&ls.ID, &ls.CreatedAt, &ls.Version))
}

func (s *pgLifeSpheres) Update(ctx context.Context, ls *data.LifeSphere) error {
	query := `UPDATE life_spheres SET name = $1, color = $2, version = version + 1
			  WHERE id = $3 AND version = $4
			  RETURNING version`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, ls.Name, ls.Color, ls.ID, ls.Version)
	return scanVersion(row, &ls.Version)
}

func (s *pgLifeSpheres) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, s.db, `DELETE FROM life_spheres WHERE id = $1`, id)
}

type pgProjects struct {
	db *sql.DB
}

const projectSelect = `SELECT p.id, p.created_at, p.user_id, p.title, p.description, p.deadline,
			  p.priority, p.status, p.version,
			  s.id, s.created_at, s.user_id, s.name, s.color, s.version
			  FROM projects p
			  JOIN life_spheres s ON s.id = p.life_sphere_id`

func scanProject(row interface{ Scan(...any) error }) (data.Project, error) {
	var (
		p        data.Project
		ls       data.LifeSphere
		deadline sql.NullTime
	)
	err := row.Scan(&p.ID, &p.CreatedAt, &p.UserID, &p.Title, &p.Description, &deadline,
		&p.Priority, &p.Status, &p.Version,
		&ls.ID, &ls.CreatedAt, &ls.UserID, &ls.Name, &ls.Color, &ls.Version)
	if err != nil {
		return data.Project{}, err
	}
	p.Deadline = scanDate(deadline)
	p.LifeSphere = &ls
	return p, nil
}

func (s *pgProjects) Get(ctx context.Context, id int64) (*data.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	p, err := scanProject(s.db.QueryRowContext(ctx, projectSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (s *pgProjects) ListForUser(ctx context.Context, userID int64) ([]data.Project, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, projectSelect+` WHERE p.user_id = $1 ORDER BY p.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []data.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *pgProjects) Insert(ctx context.Context, p *data.Project) error {
	query := `INSERT INTO projects (user_id, life_sphere_id, title, description, deadline, priority, status)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id, created_at, version`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, p.UserID, p.LifeSphereID(), p.Title, p.Description,
		dateArg(p.Deadline), p.Priority, p.Status)
	return translate(row.Scan(&p.ID, &p.CreatedAt, &p.Version))
}

func (s *pgProjects) Update(ctx context.Context, p *data.Project) error {
	query := `UPDATE projects
			  SET life_sphere_id = $1, title = $2, description = $3, deadline = $4,
			      priority = $5, status = $6, version = version + 1
			  WHERE id = $7 AND version = $8
			  RETURNING version`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, p.LifeSphereID(), p.Title, p.Description,
		dateArg(p.Deadline), p.Priority, p.Status, p.ID, p.Version)
	return scanVersion(row, &p.Version)
}

func (s *pgProjects) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, s.db, `DELETE FROM projects WHERE id = $1`, id)
}

type pgTasks struct {
	db *sql.DB
}

const taskSelect = `SELECT t.id, t.created_at, t.user_id, t.project_id, t.title, t.description, t.deadline,
			  t.estimated_time_minutes, t.priority, t.energy_cost, t.type, t.completed, t.version,
			  s.id, s.created_at, s.user_id, s.name, s.color, s.version
			  FROM tasks t
			  JOIN life_spheres s ON s.id = t.life_sphere_id`

func scanTask(row interface{ Scan(...any) error }) (data.Task, error) {
	var (
		t         data.Task
		ls        data.LifeSphere
		projectID sql.NullInt64
		deadline  sql.NullTime
	)
	err := row.Scan(&t.ID, &t.CreatedAt, &t.UserID, &projectID, &t.Title, &t.Description, &deadline,
		&t.EstimatedTimeMinutes, &t.Priority, &t.EnergyCost, &t.Type, &t.Completed, &t.Version,
		&ls.ID, &ls.CreatedAt, &ls.UserID, &ls.Name, &ls.Color, &ls.Version)
	if err != nil {
		return data.Task{}, err
	}
	if projectID.Valid {
		t.ProjectID = &projectID.Int64
	}
	t.Deadline = scanDate(deadline)
	t.LifeSphere = &ls
	return t, nil
}

func (s *pgTasks) list(ctx context.Context, where string, args ...any) ([]data.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, taskSelect+` WHERE `+where+` ORDER BY t.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []data.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *pgTasks) Get(ctx context.Context, id int64) (*data.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	t, err := scanTask(s.db.QueryRowContext(ctx, taskSelect+` WHERE t.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (s *pgTasks) ListForUser(ctx context.Context, userID int64) ([]data.Task, error) {
	return s.list(ctx, `t.user_id = $1`, userID)
}

func (s *pgTasks) ListForUserByType(ctx context.Context, userID int64, taskType data.TaskType) ([]data.Task, error) {
	return s.list(ctx, `t.user_id = $1 AND t.type = $2`, userID, taskType)
}

func (s *pgTasks) ListForProject(ctx context.Context, projectID int64) ([]data.Task, error) {
	return s.list(ctx, `t.project_id = $1`, projectID)
}

func (s *pgTasks) Insert(ctx context.Context, t *data.Task) error {
	query := `INSERT INTO tasks (user_id, life_sphere_id, project_id, title, description, deadline,
			  estimated_time_minutes, priority, energy_cost, type, completed)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			  RETURNING id, created_at, version`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, t.UserID, t.LifeSphereID(), t.ProjectID, t.Title, t.Description,
		dateArg(t.Deadline), t.EstimatedTimeMinutes, t.Priority, t.EnergyCost, t.Type, t.Completed)
	return translate(row.Scan(&t.ID, &t.CreatedAt, &t.Version))
}

func (s *pgTasks) Update(ctx context.Context, t *data.Task) error {
	query := `UPDATE tasks
			  SET life_sphere_id = $1, project_id = $2, title = $3, description = $4, deadline = $5,
			      estimated_time_minutes = $6, priority = $7, energy_cost = $8, type = $9,
			      completed = $10, version = version + 1
			  WHERE id = $11 AND version = $12
			  RETURNING version`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, t.LifeSphereID(), t.ProjectID, t.Title, t.Description,
		dateArg(t.Deadline), t.EstimatedTimeMinutes, t.Priority, t.EnergyCost, t.Type, t.Completed,
		t.ID, t.Version)
	return scanVersion(row, &t.Version)
}

func (s *pgTasks) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, s.db, `DELETE FROM tasks WHERE id = $1`, id)
}

func scanVersion(row *sql.Row, version *int) error {
	err := row.Scan(version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrEditConflict
		default:
			return translate(err)
		}
	}
	return nil
}

func deleteByID(ctx context.Context, db *sql.DB, query string, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := db.ExecContext(ctx, query, id)
	return err
}

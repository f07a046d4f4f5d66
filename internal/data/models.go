package data

import "time"

type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

type EnergyCost string

const (
	EnergyLow    EnergyCost = "LOW"
	EnergyMedium EnergyCost = "MEDIUM"
	EnergyHigh   EnergyCost = "HIGH"
)

type TaskType string

const (
	TaskStep   TaskType = "STEP"
	TaskAction TaskType = "ACTION"
	TaskRitual TaskType = "RITUAL"
	TaskHabit  TaskType = "HABIT"
)

type ProjectStatus string

const (
	ProjectPlanned   ProjectStatus = "PLANNED"
	ProjectActive    ProjectStatus = "ACTIVE"
	ProjectOnHold    ProjectStatus = "ON_HOLD"
	ProjectCompleted ProjectStatus = "COMPLETED"
	ProjectCancelled ProjectStatus = "CANCELLED"
)

type User struct {
	ID           int64     `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"`
	Version      int       `json:"-"`
}

type LifeSphere struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Version   int       `json:"-"`
}

type Project struct {
	ID          int64         `json:"id"`
	CreatedAt   time.Time     `json:"created_at"`
	UserID      int64         `json:"user_id"`
	LifeSphere  *LifeSphere   `json:"life_sphere,omitempty"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Deadline    *Date         `json:"deadline,omitempty"`
	Priority    Priority      `json:"priority"`
	Status      ProjectStatus `json:"status"`
	Version     int           `json:"-"`
}

// LifeSphereID returns 0 when the project has no sphere attached.
func (p *Project) LifeSphereID() int64 {
	if p.LifeSphere == nil {
		return 0
	}
	return p.LifeSphere.ID
}

type Task struct {
	ID                   int64       `json:"id"`
	CreatedAt            time.Time   `json:"created_at"`
	UserID               int64       `json:"user_id"`
	LifeSphere           *LifeSphere `json:"life_sphere,omitempty"`
	ProjectID            *int64      `json:"project_id,omitempty"`
	Title                string      `json:"title"`
	Description          string      `json:"description"`
	Deadline             *Date       `json:"deadline,omitempty"`
	EstimatedTimeMinutes int         `json:"estimated_time_minutes"`
	Priority             Priority    `json:"priority"`
	EnergyCost           EnergyCost  `json:"energy_cost"`
	Type                 TaskType    `json:"type"`
	Completed            bool        `json:"completed"`
	Version              int         `json:"-"`
}

func (t *Task) LifeSphereID() int64 {
	if t.LifeSphere == nil {
		return 0
	}
	return t.LifeSphere.ID
}

// InProject reports whether the task belongs to the project with the given id.
func (t *Task) InProject(projectID int64) bool {
	return t.ProjectID != nil && *t.ProjectID == projectID
}

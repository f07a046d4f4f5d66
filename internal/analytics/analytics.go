// Package analytics computes read-only aggregate views over a user's tasks
// and projects. Every function reads the user's collections through the
// sources given to NewEngine and never writes.
package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/harlequingg/lifestrat-api/internal/data"
)

// BalanceWindowDays is how far back SphereTimeBalance looks, inclusive.
const BalanceWindowDays = 30

type TaskSource interface {
	ListForUser(ctx context.Context, userID int64) ([]data.Task, error)
	ListForProject(ctx context.Context, projectID int64) ([]data.Task, error)
}

type ProjectSource interface {
	ListForUser(ctx context.Context, userID int64) ([]data.Project, error)
}

type ProjectProgress struct {
	ProjectID          int64   `json:"project_id"`
	Title              string  `json:"title"`
	TotalSteps         int     `json:"total_steps"`
	CompletedSteps     int     `json:"completed_steps"`
	ProgressPercentage float64 `json:"progress_percentage"`
}

type ProductivityStats struct {
	CurrentStreak       int       `json:"current_streak"`
	MaxStreak           int       `json:"max_streak"`
	TotalCompletedTasks int       `json:"total_completed_tasks"`
	AnalysisDate        data.Date `json:"analysis_date"`
}

type TimeStatistics struct {
	TotalTimePlanned    int     `json:"total_time_planned"`
	TotalTimeCompleted  int     `json:"total_time_completed"`
	CompletionRate      float64 `json:"completion_rate"`
	TasksCount          int     `json:"tasks_count"`
	CompletedTasksCount int     `json:"completed_tasks_count"`
}

type Dashboard struct {
	SphereBalance        map[string]float64      `json:"sphere_balance"`
	ProjectProgress      []ProjectProgress       `json:"project_progress"`
	Productivity         ProductivityStats       `json:"productivity"`
	TimeStatistics       TimeStatistics          `json:"time_statistics"`
	PriorityDistribution map[data.Priority]int64 `json:"priority_distribution"`
}

type Engine struct {
	tasks    TaskSource
	projects ProjectSource
	now      func() time.Time
}

func NewEngine(tasks TaskSource, projects ProjectSource) *Engine {
	return &Engine{
		tasks:    tasks,
		projects: projects,
		now:      time.Now,
	}
}

func (e *Engine) today() data.Date {
	return data.DateOf(e.now())
}

func (e *Engine) userTasks(ctx context.Context, userID int64) ([]data.Task, error) {
	tasks, err := e.tasks.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("analytics: list tasks for user %d: %w", userID, err)
	}
	return tasks, nil
}

// SphereTimeBalance sums the estimated minutes of completed tasks due in the
// last BalanceWindowDays days, today included, by sphere name. Spheres with
// nothing to report are absent from the result.
func (e *Engine) SphereTimeBalance(ctx context.Context, userID int64) (map[string]float64, error) {
	tasks, err := e.userTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	return sphereTimeBalance(tasks, e.today()), nil
}

func sphereTimeBalance(tasks []data.Task, today data.Date) map[string]float64 {
	from := today.AddDays(-BalanceWindowDays)
	balance := make(map[string]float64)
	for _, t := range tasks {
		if !t.Completed || t.LifeSphere == nil || t.Deadline == nil {
			continue
		}
		if t.Deadline.Before(from) || t.Deadline.After(today) {
			continue
		}
		if t.EstimatedTimeMinutes == 0 {
			continue
		}
		balance[t.LifeSphere.Name] += float64(t.EstimatedTimeMinutes)
	}
	return balance
}

// ProjectProgress reports completion of every project of the user, in the
// order the project source returns them.
func (e *Engine) ProjectProgress(ctx context.Context, userID int64) ([]ProjectProgress, error) {
	projects, err := e.projects.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("analytics: list projects for user %d: %w", userID, err)
	}
	progress := make([]ProjectProgress, 0, len(projects))
	for _, p := range projects {
		tasks, err := e.tasks.ListForProject(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("analytics: list tasks for project %d: %w", p.ID, err)
		}
		progress = append(progress, projectProgress(p, tasks))
	}
	return progress, nil
}

func projectProgress(p data.Project, tasks []data.Task) ProjectProgress {
	pp := ProjectProgress{
		ProjectID:  p.ID,
		Title:      p.Title,
		TotalSteps: len(tasks),
	}
	for _, t := range tasks {
		if t.Completed {
			pp.CompletedSteps++
		}
	}
	if pp.TotalSteps > 0 {
		pp.ProgressPercentage = round(100*float64(pp.CompletedSteps)/float64(pp.TotalSteps), 1)
	}
	return pp
}

// ProductivityStats derives streaks from the deadlines of completed tasks.
// Several completions on one day count as a single active day.
func (e *Engine) ProductivityStats(ctx context.Context, userID int64) (ProductivityStats, error) {
	tasks, err := e.userTasks(ctx, userID)
	if err != nil {
		return ProductivityStats{}, err
	}
	return productivityStats(tasks, e.today()), nil
}

func productivityStats(tasks []data.Task, today data.Date) ProductivityStats {
	stats := ProductivityStats{AnalysisDate: today}

	active := make(map[int64]struct{})
	for _, t := range tasks {
		if !t.Completed {
			continue
		}
		stats.TotalCompletedTasks++
		if t.Deadline != nil {
			active[t.Deadline.Ordinal()] = struct{}{}
		}
	}
	if len(active) == 0 {
		return stats
	}

	days := make([]int64, 0, len(active))
	for d := range active {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })

	run := 1
	stats.MaxStreak = 1
	for i := 1; i < len(days); i++ {
		if days[i] == days[i-1]+1 {
			run++
		} else {
			run = 1
		}
		stats.MaxStreak = max(stats.MaxStreak, run)
	}

	for d := today.Ordinal(); ; d-- {
		if _, ok := active[d]; !ok {
			break
		}
		stats.CurrentStreak++
	}
	return stats
}

func (e *Engine) TimeStatistics(ctx context.Context, userID int64) (TimeStatistics, error) {
	tasks, err := e.userTasks(ctx, userID)
	if err != nil {
		return TimeStatistics{}, err
	}
	return timeStatistics(tasks), nil
}

func timeStatistics(tasks []data.Task) TimeStatistics {
	stats := TimeStatistics{TasksCount: len(tasks)}
	for _, t := range tasks {
		stats.TotalTimePlanned += t.EstimatedTimeMinutes
		if t.Completed {
			stats.TotalTimeCompleted += t.EstimatedTimeMinutes
			stats.CompletedTasksCount++
		}
	}
	if stats.TotalTimePlanned > 0 {
		stats.CompletionRate = round(100*float64(stats.TotalTimeCompleted)/float64(stats.TotalTimePlanned), 2)
	}
	return stats
}

// PriorityDistribution counts all tasks, finished or not, by priority.
func (e *Engine) PriorityDistribution(ctx context.Context, userID int64) (map[data.Priority]int64, error) {
	tasks, err := e.userTasks(ctx, userID)
	if err != nil {
		return nil, err
	}
	return priorityDistribution(tasks), nil
}

func priorityDistribution(tasks []data.Task) map[data.Priority]int64 {
	dist := make(map[data.Priority]int64)
	for _, t := range tasks {
		if t.Priority == "" {
			continue
		}
		dist[t.Priority]++
	}
	return dist
}

// Dashboard computes every view from a single read of the user's tasks.
func (e *Engine) Dashboard(ctx context.Context, userID int64) (Dashboard, error) {
	tasks, err := e.userTasks(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}
	progress, err := e.ProjectProgress(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}
	today := e.today()
	return Dashboard{
		SphereBalance:        sphereTimeBalance(tasks, today),
		ProjectProgress:      progress,
		Productivity:         productivityStats(tasks, today),
		TimeStatistics:       timeStatistics(tasks),
		PriorityDistribution: priorityDistribution(tasks),
	}, nil
}

// round rounds half away from zero to the given number of decimal places.
func round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

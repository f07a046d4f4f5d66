package storage

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id bigserial PRIMARY KEY,
		created_at timestamp(0) with time zone NOT NULL DEFAULT NOW(),
		username text NOT NULL UNIQUE,
		email text NOT NULL UNIQUE,
		password_hash bytea NOT NULL,
		version integer NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS life_spheres (
		id bigserial PRIMARY KEY,
		created_at timestamp(0) with time zone NOT NULL DEFAULT NOW(),
		user_id bigint NOT NULL REFERENCES users ON DELETE CASCADE,
		name text NOT NULL,
		color text NOT NULL DEFAULT '',
		version integer NOT NULL DEFAULT 1,
		UNIQUE (user_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS projects (
		id bigserial PRIMARY KEY,
		created_at timestamp(0) with time zone NOT NULL DEFAULT NOW(),
		user_id bigint NOT NULL REFERENCES users ON DELETE CASCADE,
		life_sphere_id bigint NOT NULL REFERENCES life_spheres ON DELETE CASCADE,
		title text NOT NULL,
		description text NOT NULL DEFAULT '',
		deadline date,
		priority text NOT NULL,
		status text NOT NULL,
		version integer NOT NULL DEFAULT 1,
		UNIQUE (user_id, title)
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id bigserial PRIMARY KEY,
		created_at timestamp(0) with time zone NOT NULL DEFAULT NOW(),
		user_id bigint NOT NULL REFERENCES users ON DELETE CASCADE,
		life_sphere_id bigint NOT NULL REFERENCES life_spheres ON DELETE CASCADE,
		project_id bigint REFERENCES projects ON DELETE CASCADE,
		title text NOT NULL,
		description text NOT NULL DEFAULT '',
		deadline date,
		estimated_time_minutes integer NOT NULL DEFAULT 0 CHECK (estimated_time_minutes >= 0),
		priority text NOT NULL,
		energy_cost text NOT NULL,
		type text NOT NULL,
		completed boolean NOT NULL DEFAULT false,
		version integer NOT NULL DEFAULT 1
	)`,
	`CREATE INDEX IF NOT EXISTS tasks_user_id_idx ON tasks (user_id)`,
	`CREATE INDEX IF NOT EXISTS tasks_project_id_idx ON tasks (project_id)`,
}

// Migrate applies the schema statements in order. Every statement is
// idempotent, so it is safe to run on each start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("storage: migration %d: %w", i, err)
		}
	}
	return nil
}

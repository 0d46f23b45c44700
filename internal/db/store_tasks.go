package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tutur3u/discordbot/internal/app/domain"
)

const createTask = `-- name: CreateTask :exec
INSERT INTO tasks (id, list_id, name, description, priority, end_date, creator_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (c *Database) CreateTask(ctx context.Context, task domain.Task) (domain.Task, error) {
	task.Name = strings.TrimSpace(task.Name)
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	priority := sql.NullInt64{Int64: int64(task.Priority), Valid: task.Priority != domain.PriorityNone}
	var endDate sql.NullString
	if task.EndDate != nil {
		endDate = sql.NullString{String: formatTime(*task.EndDate), Valid: true}
	}

	_, err := c.q.ExecContext(ctx, createTask,
		task.ID, task.ListID, task.Name, nullString(task.Description), priority, endDate,
		nullString(task.CreatorID), formatTime(time.Now()),
	)
	if err != nil {
		return domain.Task{}, dataErr("create task", err)
	}
	return task, nil
}

const getTaskWorkspace = `-- name: GetTaskWorkspace :one
SELECT b.ws_id
FROM tasks t
JOIN task_lists l ON l.id = t.list_id
JOIN workspace_boards b ON b.id = l.board_id
WHERE t.id = ? AND t.deleted = ?`

// GetTaskWorkspace returns the workspace owning a task through its list and board.
func (c *Database) GetTaskWorkspace(ctx context.Context, taskID string) (string, error) {
	var workspaceID string
	err := c.q.QueryRowContext(ctx, getTaskWorkspace, taskID, false).Scan(&workspaceID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", dataErr("get task workspace", err)
	}
	return workspaceID, nil
}

const addTaskAssignee = `-- name: AddTaskAssignee :exec
INSERT INTO task_assignees (task_id, user_id, created_at)
VALUES (?, ?, ?)`

func (c *Database) AddTaskAssignee(ctx context.Context, taskID, userID string) error {
	if _, err := c.q.ExecContext(ctx, addTaskAssignee, taskID, userID, formatTime(time.Now())); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return dataErr("add assignee", err)
	}
	return nil
}

const removeTaskAssignee = `-- name: RemoveTaskAssignee :exec
DELETE FROM task_assignees
WHERE task_id = ? AND user_id = ?`

// RemoveTaskAssignee reports whether a row was deleted.
func (c *Database) RemoveTaskAssignee(ctx context.Context, taskID, userID string) (bool, error) {
	result, err := c.q.ExecContext(ctx, removeTaskAssignee, taskID, userID)
	if err != nil {
		return false, dataErr("remove assignee", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, dataErr("remove assignee", err)
	}
	return affected > 0, nil
}

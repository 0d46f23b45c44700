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

const listBoards = `-- name: ListBoards :many
SELECT b.id, b.ws_id, b.name, COALESCE(b.creator_id, ''),
	(SELECT COUNT(*) FROM task_lists l WHERE l.board_id = b.id AND l.deleted = ?)
FROM workspace_boards b
WHERE b.ws_id = ? AND b.deleted = ?
ORDER BY b.created_at ASC, b.name ASC`

// ListBoards returns non-deleted boards with their live list counts.
func (c *Database) ListBoards(ctx context.Context, workspaceID string) ([]domain.Board, error) {
	rows, err := c.q.QueryContext(ctx, listBoards, false, workspaceID, false)
	if err != nil {
		return nil, dataErr("list boards", err)
	}
	defer rows.Close()

	out := make([]domain.Board, 0)
	for rows.Next() {
		var b domain.Board
		if err := rows.Scan(&b.ID, &b.WorkspaceID, &b.Name, &b.CreatorID, &b.ListCount); err != nil {
			return nil, dataErr("scan board", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, dataErr("list boards", err)
	}
	return out, nil
}

const getBoard = `-- name: GetBoard :one
SELECT id, ws_id, name, COALESCE(creator_id, '')
FROM workspace_boards
WHERE id = ? AND deleted = ?`

func (c *Database) GetBoard(ctx context.Context, boardID string) (domain.Board, error) {
	var b domain.Board
	err := c.q.QueryRowContext(ctx, getBoard, boardID, false).Scan(&b.ID, &b.WorkspaceID, &b.Name, &b.CreatorID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Board{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Board{}, dataErr("get board", err)
	}
	return b, nil
}

const createBoard = `-- name: CreateBoard :exec
INSERT INTO workspace_boards (id, ws_id, name, creator_id, created_at)
VALUES (?, ?, ?, ?, ?)`

func (c *Database) CreateBoard(ctx context.Context, board domain.Board) (domain.Board, error) {
	board.Name = strings.TrimSpace(board.Name)
	if board.ID == "" {
		board.ID = uuid.NewString()
	}
	if _, err := c.q.ExecContext(ctx, createBoard, board.ID, board.WorkspaceID, board.Name, nullString(board.CreatorID), formatTime(time.Now())); err != nil {
		if isUniqueViolation(err) {
			return domain.Board{}, domain.ErrDuplicate
		}
		return domain.Board{}, dataErr("create board", err)
	}
	return board, nil
}

const listTaskLists = `-- name: ListTaskLists :many
SELECT id, board_id, name, COALESCE(creator_id, '')
FROM task_lists
WHERE board_id = ? AND deleted = ?
ORDER BY position ASC, created_at ASC`

func (c *Database) ListTaskLists(ctx context.Context, boardID string) ([]domain.TaskList, error) {
	rows, err := c.q.QueryContext(ctx, listTaskLists, boardID, false)
	if err != nil {
		return nil, dataErr("list task lists", err)
	}
	defer rows.Close()

	out := make([]domain.TaskList, 0)
	for rows.Next() {
		var l domain.TaskList
		if err := rows.Scan(&l.ID, &l.BoardID, &l.Name, &l.CreatorID); err != nil {
			return nil, dataErr("scan task list", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, dataErr("list task lists", err)
	}
	return out, nil
}

const getTaskList = `-- name: GetTaskList :one
SELECT id, board_id, name, COALESCE(creator_id, '')
FROM task_lists
WHERE id = ? AND deleted = ?`

func (c *Database) GetTaskList(ctx context.Context, listID string) (domain.TaskList, error) {
	var l domain.TaskList
	err := c.q.QueryRowContext(ctx, getTaskList, listID, false).Scan(&l.ID, &l.BoardID, &l.Name, &l.CreatorID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TaskList{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.TaskList{}, dataErr("get task list", err)
	}
	return l, nil
}

const createTaskList = `-- name: CreateTaskList :exec
INSERT INTO task_lists (id, board_id, name, position, creator_id, created_at)
VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM task_lists WHERE board_id = ?), ?, ?)`

// CreateTaskList appends a list at the end of the board.
func (c *Database) CreateTaskList(ctx context.Context, list domain.TaskList) (domain.TaskList, error) {
	list.Name = strings.TrimSpace(list.Name)
	if list.ID == "" {
		list.ID = uuid.NewString()
	}
	if _, err := c.q.ExecContext(ctx, createTaskList, list.ID, list.BoardID, list.Name, list.BoardID, nullString(list.CreatorID), formatTime(time.Now())); err != nil {
		if isUniqueViolation(err) {
			return domain.TaskList{}, domain.ErrDuplicate
		}
		return domain.TaskList{}, dataErr("create task list", err)
	}
	return list, nil
}

func nullString(value string) sql.NullString {
	value = strings.TrimSpace(value)
	return sql.NullString{String: value, Valid: value != ""}
}

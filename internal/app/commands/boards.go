package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/tutur3u/discordbot/internal/app/domain"
	"github.com/tutur3u/discordbot/internal/customid"
	"github.com/tutur3u/discordbot/internal/discord"
)

// Modal field ids.
const (
	fieldName        = "name"
	fieldDescription = "description"
	fieldPriority    = "priority"
	fieldEndDate     = "end_date"
)

const noBoardsMessage = "📭 Your workspace has no boards yet. Create one with `/create-board`."

func (s *Set) createBoard(ctx context.Context, req Request) (discord.Message, error) {
	raw, _ := req.Interaction.Data.Option("name")
	name, err := requireName("name", raw)
	if err != nil {
		return discord.Message{}, err
	}
	board, err := s.deps.Store.CreateBoard(ctx, domain.Board{
		WorkspaceID: req.Auth.WorkspaceID,
		Name:        name,
		CreatorID:   req.Auth.PlatformUserID,
	})
	if err != nil {
		return discord.Message{}, fmt.Errorf("create board: %w", err)
	}
	return discord.Text(fmt.Sprintf("✅ Created board **%s**.\nAdd lists with `/create-list`.", board.Name)), nil
}

func (s *Set) boards(ctx context.Context, req Request) (discord.Message, error) {
	boards, err := s.deps.Store.ListBoards(ctx, req.Auth.WorkspaceID)
	if err != nil {
		return discord.Message{}, fmt.Errorf("list boards: %w", err)
	}
	if len(boards) == 0 {
		return discord.Text(noBoardsMessage), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📋 **Boards** (%d)\n", len(boards))
	for _, board := range boards {
		fmt.Fprintf(&b, "• **%s** - %d list(s)\n", board.Name, board.ListCount)
	}
	return discord.Text(strings.TrimRight(b.String(), "\n")), nil
}

func (s *Set) boardSelect(ctx context.Context, req Request, kind customid.Kind, prompt string) (discord.Message, error) {
	boards, err := s.deps.Store.ListBoards(ctx, req.Auth.WorkspaceID)
	if err != nil {
		return discord.Message{}, fmt.Errorf("list boards: %w", err)
	}
	if len(boards) == 0 {
		return discord.Text(noBoardsMessage), nil
	}
	options := lo.Map(boards, func(b domain.Board, _ int) discord.SelectOption {
		return discord.SelectOption{Label: b.Name, Value: b.ID, Description: fmt.Sprintf("%d list(s)", b.ListCount)}
	})
	return discord.Message{
		Content:    prompt,
		Components: []discord.Component{discord.ActionRow(discord.StringSelect(customid.MustEncode(kind), "Choose a board", options))},
	}, nil
}

func (s *Set) createList(ctx context.Context, req Request) (discord.Message, error) {
	return s.boardSelect(ctx, req, customid.ListBoard, "🗂️ Which board should the new list go to?")
}

func (s *Set) createTask(ctx context.Context, req Request) (discord.Message, error) {
	return s.boardSelect(ctx, req, customid.TaskBoard, "📝 Which board is the task for?")
}

// ownedBoard loads a board and checks it belongs to the caller's workspace.
func (s *Set) ownedBoard(ctx context.Context, auth *domain.AuthorizationContext, boardID string) (domain.Board, error) {
	board, err := s.deps.Store.GetBoard(ctx, boardID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && board.WorkspaceID != auth.WorkspaceID) {
		return domain.Board{}, domain.Invalid("board", "board not found in your workspace")
	}
	if err != nil {
		return domain.Board{}, fmt.Errorf("get board: %w", err)
	}
	return board, nil
}

// TaskBoardSelected replaces the board select with a select of the board's lists.
func (s *Set) TaskBoardSelected(ctx context.Context, req Request, boardID string) (discord.Message, error) {
	board, err := s.ownedBoard(ctx, req.Auth, boardID)
	if err != nil {
		return discord.Message{}, err
	}
	lists, err := s.deps.Store.ListTaskLists(ctx, board.ID)
	if err != nil {
		return discord.Message{}, fmt.Errorf("list task lists: %w", err)
	}
	if len(lists) == 0 {
		return discord.Text(fmt.Sprintf("📭 **%s** has no lists yet. Create one with `/create-list`.", board.Name)), nil
	}
	customID, err := customid.Encode(customid.TaskList, board.ID)
	if err != nil {
		return discord.Message{}, fmt.Errorf("encode list select: %w", err)
	}
	options := lo.Map(lists, func(l domain.TaskList, _ int) discord.SelectOption {
		return discord.SelectOption{Label: l.Name, Value: l.ID}
	})
	return discord.Message{
		Content:    fmt.Sprintf("📝 Board **%s** selected. Which list?", board.Name),
		Components: []discord.Component{discord.ActionRow(discord.StringSelect(customID, "Choose a list", options))},
	}, nil
}

// TaskModal is the create-task form for a chosen board and list.
func TaskModal(boardID, listID string) (discord.InteractionResponse, error) {
	customID, err := customid.Encode(customid.TaskForm, boardID, listID)
	if err != nil {
		return discord.InteractionResponse{}, err
	}
	return discord.Modal(customID, "Create task",
		discord.TextInput(fieldName, "Task name", discord.TextInputShort, true, maxNameLength),
		discord.TextInput(fieldDescription, "Description", discord.TextInputParagraph, false, maxDescriptionLength),
		discord.TextInput(fieldPriority, "Priority (1-4 or low/medium/high/urgent)", discord.TextInputShort, false, 10),
		discord.TextInput(fieldEndDate, "Due date (YYYY-MM-DD)", discord.TextInputShort, false, 10),
	), nil
}

// ListModal is the create-list form for a chosen board.
func ListModal(boardID string) (discord.InteractionResponse, error) {
	customID, err := customid.Encode(customid.ListForm, boardID)
	if err != nil {
		return discord.InteractionResponse{}, err
	}
	return discord.Modal(customID, "Create list",
		discord.TextInput(fieldName, "List name", discord.TextInputShort, true, maxNameLength),
	), nil
}

// SubmitTask validates the task form and creates the task after re-checking ownership.
func (s *Set) SubmitTask(ctx context.Context, req Request, boardID, listID string) (discord.Message, error) {
	values := req.Interaction.Data.ModalValues()
	name, err := requireName("name", values[fieldName])
	if err != nil {
		return discord.Message{}, err
	}
	description := values[fieldDescription]
	if len([]rune(description)) > maxDescriptionLength {
		return discord.Message{}, domain.Invalid("description", "must be at most %d characters", maxDescriptionLength)
	}
	priority, err := domain.ParsePriority(values[fieldPriority])
	if err != nil {
		return discord.Message{}, err
	}
	due, err := parseDueDate(values[fieldEndDate], s.deps.Location)
	if err != nil {
		return discord.Message{}, err
	}

	board, err := s.ownedBoard(ctx, req.Auth, boardID)
	if err != nil {
		return discord.Message{}, err
	}
	list, err := s.deps.Store.GetTaskList(ctx, listID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && list.BoardID != board.ID) {
		return discord.Message{}, domain.Invalid("list", "list not found on this board")
	}
	if err != nil {
		return discord.Message{}, fmt.Errorf("get task list: %w", err)
	}

	task, err := s.deps.Store.CreateTask(ctx, domain.Task{
		ListID:      list.ID,
		Name:        name,
		Description: description,
		Priority:    priority,
		EndDate:     due,
		CreatorID:   req.Auth.PlatformUserID,
	})
	if err != nil {
		return discord.Message{}, fmt.Errorf("create task: %w", err)
	}

	lines := []string{
		fmt.Sprintf("✅ Created task **%s** in **%s** › **%s**.", task.Name, board.Name, list.Name),
		fmt.Sprintf("**ID:** `%s`", task.ID),
	}
	if task.Priority != domain.PriorityNone {
		lines = append(lines, "**Priority:** "+task.Priority.Label())
	}
	if task.EndDate != nil {
		lines = append(lines, "**Due:** "+task.EndDate.Format(time.DateOnly))
	}
	return discord.Text(strings.Join(lines, "\n")), nil
}

// SubmitList validates the list form and creates the list after re-checking ownership.
func (s *Set) SubmitList(ctx context.Context, req Request, boardID string) (discord.Message, error) {
	name, err := requireName("name", req.Interaction.Data.ModalValues()[fieldName])
	if err != nil {
		return discord.Message{}, err
	}
	board, err := s.ownedBoard(ctx, req.Auth, boardID)
	if err != nil {
		return discord.Message{}, err
	}
	list, err := s.deps.Store.CreateTaskList(ctx, domain.TaskList{
		BoardID:   board.ID,
		Name:      name,
		CreatorID: req.Auth.PlatformUserID,
	})
	if err != nil {
		return discord.Message{}, fmt.Errorf("create task list: %w", err)
	}
	return discord.Text(fmt.Sprintf("✅ Created list **%s** on board **%s**.", list.Name, board.Name)), nil
}

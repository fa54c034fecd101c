package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jwulff/studytrack/internal/subject"
	"github.com/jwulff/studytrack/internal/todo"
	"github.com/spf13/cobra"
)

var todoCmd = &cobra.Command{
	Use:   "todo",
	Short: "Manage per-subject to-do lists",
}

// todo add
var todoAddCmd = &cobra.Command{
	Use:   "add <subject> <text>...",
	Short: "Add a pending task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTodoAdd,
}

// todo list
var todoListCmd = &cobra.Command{
	Use:   "list [subject]",
	Short: "List tasks, for one subject or all",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTodoList,
}

// todo done
var todoDoneCmd = &cobra.Command{
	Use:   "done <subject> <id>",
	Short: "Mark a pending task completed",
	Args:  cobra.ExactArgs(2),
	RunE:  runTodoDone,
}

// todo rm
var todoRmCmd = &cobra.Command{
	Use:   "rm <subject> <id>",
	Short: "Delete a pending task",
	Args:  cobra.ExactArgs(2),
	RunE:  runTodoRm,
}

// todo clear
var todoClearCmd = &cobra.Command{
	Use:   "clear <subject>",
	Short: "Remove all completed tasks of a subject",
	Args:  cobra.ExactArgs(1),
	RunE:  runTodoClear,
}

func init() {
	rootCmd.AddCommand(todoCmd)
	todoCmd.AddCommand(todoAddCmd, todoListCmd, todoDoneCmd, todoRmCmd, todoClearCmd)
}

// withBoard loads the board, runs fn and saves the board if fn succeeds.
func withBoard(fn func(b *todo.Board) error) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx := context.Background()
	board, err := todo.Load(ctx, e.store)
	if err != nil {
		return err
	}
	if err := fn(board); err != nil {
		return err
	}
	return board.Save(ctx, e.store)
}

func parseSubjectAndID(args []string) (subject.Subject, int64, error) {
	subj, err := subject.Parse(args[0])
	if err != nil {
		return "", 0, err
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid task id %q", args[1])
	}
	return subj, id, nil
}

func runTodoAdd(cmd *cobra.Command, args []string) error {
	subj, err := subject.Parse(args[0])
	if err != nil {
		return err
	}
	text := strings.Join(args[1:], " ")
	return withBoard(func(b *todo.Board) error {
		task, err := b.Add(subj, text, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %d to %s: %s\n", task.ID, subj, task.Text)
		return nil
	})
}

func runTodoList(cmd *cobra.Command, args []string) error {
	subjects := subject.All()
	if len(args) == 1 {
		subj, err := subject.Parse(args[0])
		if err != nil {
			return err
		}
		subjects = []subject.Subject{subj}
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	board, err := todo.Load(context.Background(), e.store)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, subj := range subjects {
		pending, completed := board.List(subj)
		if len(args) == 0 && len(pending)+len(completed) == 0 {
			continue
		}
		fmt.Fprintf(out, "%s (%d pending, %d done)\n", subj, len(pending), len(completed))
		for _, t := range pending {
			fmt.Fprintf(out, "  [ ] %d  %s\n", t.ID, t.Text)
		}
		for _, t := range completed {
			fmt.Fprintf(out, "  [x] %d  %s\n", t.ID, t.Text)
		}
	}
	return nil
}

func runTodoDone(cmd *cobra.Command, args []string) error {
	subj, id, err := parseSubjectAndID(args)
	if err != nil {
		return err
	}
	return withBoard(func(b *todo.Board) error {
		task, err := b.Complete(subj, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Completed: %s\n", task.Text)
		return nil
	})
}

func runTodoRm(cmd *cobra.Command, args []string) error {
	subj, id, err := parseSubjectAndID(args)
	if err != nil {
		return err
	}
	return withBoard(func(b *todo.Board) error {
		if err := b.Delete(subj, id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d\n", id)
		return nil
	})
}

func runTodoClear(cmd *cobra.Command, args []string) error {
	subj, err := subject.Parse(args[0])
	if err != nil {
		return err
	}
	return withBoard(func(b *todo.Board) error {
		_, completed := b.List(subj)
		b.ClearCompleted(subj)
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d completed tasks from %s\n", len(completed), subj)
		return nil
	})
}

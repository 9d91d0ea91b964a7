package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"disciplinebaby/app"
	"disciplinebaby/models"
)

type opener func(ctx context.Context) (*app.App, error)

func newRootCmd(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "discipline",
		Short:         "Discipline Baby: habits, XP and a pet that grows",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newStatusCmd(open),
		newTasksCmd(open),
		newTodayCmd(open),
		newCompleteCmd(open),
		newReportCmd(open),
		newSyncCmd(open),
	)
	return root
}

// withApp opens the app for the duration of one command.
func withApp(cmd *cobra.Command, open opener, fn func(ctx context.Context, a *app.App, out io.Writer) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a, cmd.OutOrStdout())
}

func newStatusCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the storage backend and the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App, out io.Writer) error {
				st := a.Storage.Status
				fmt.Fprintf(out, "Backend:    %s (persistent: %v)\n", st.Backend, st.Persistent)
				if st.Reason != "" {
					fmt.Fprintf(out, "Reason:     %s\n", st.Reason)
				}
				u := a.Users.Load(ctx)
				fmt.Fprintf(out, "User:       %s\n", u.Name)
				fmt.Fprintf(out, "Level:      %d (%d/%d XP)\n", u.Level, u.XP, u.XPToNextLevel)
				fmt.Fprintf(out, "Pet:        %s %s\n", u.PetName, u.PetStyle)
				fmt.Fprintf(out, "Active days: %d\n", u.ActiveDays)
				return nil
			})
		},
	}
}

func newTasksCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List every task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App, out io.Writer) error {
				printTasks(out, a.Tasks.Load(ctx))
				return nil
			})
		},
	}
}

func newTodayCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "List the tasks due today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App, out io.Writer) error {
				due := a.Tasks.DueOn(ctx, a.Clock())
				if len(due) == 0 {
					fmt.Fprintln(out, "Nothing due today 🎉")
					return nil
				}
				printTasks(out, due)
				return nil
			})
		},
	}
}

func newCompleteCmd(open opener) *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "complete <task-id>",
		Short: "Mark a task completed and collect its XP",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("task id is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App, out io.Writer) error {
				res, err := a.Tracker.CompleteTask(ctx, args[0], !undo)
				if err != nil {
					return err
				}
				if !res.Changed {
					fmt.Fprintf(out, "%q is already %s\n", res.Task.Title, completionWord(!undo))
					return nil
				}
				fmt.Fprintf(out, "✅ %q %s (%+d XP)\n", res.Task.Title, completionWord(!undo), res.XPDelta)
				if res.LeveledUp {
					fmt.Fprintf(out, "🎉 Level up! Now level %d, pet is %s\n", res.User.Level, res.User.PetStyle)
				}
				if !undo {
					unlocked, err := a.Profile.UnlockReached(ctx, a.Clock())
					if err != nil {
						return err
					}
					for _, ach := range unlocked {
						fmt.Fprintf(out, "🏆 Achievement unlocked: %s\n", ach.Title)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "mark the task not completed and take its XP back")
	return cmd
}

func newReportCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Completed tasks over the last seven days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App, out io.Writer) error {
				report := a.Reports.Weekly(ctx, models.DateOf(a.Clock()))
				for _, d := range report.Days {
					fmt.Fprintf(out, "%s %s %d\n", d.Date, d.Weekday, d.Completed)
				}
				fmt.Fprintf(out, "Total: %d completed (%d%%)\n", report.TotalCompleted, report.CompletionRate)
				return nil
			})
		},
	}
}

func newSyncCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Copy the data stored on this device to the authoritative backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App, out io.Writer) error {
				res := a.SyncFromLocal(ctx)
				if !res.Success {
					return fmt.Errorf("sync failed: %s", res.Error)
				}
				fmt.Fprintf(out, "🔄 Local data synced to %s\n", a.Storage.Backend())
				return nil
			})
		},
	}
}

func printTasks(out io.Writer, tasks []models.Task) {
	for _, t := range tasks {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Fprintf(out, "[%s] %-28s %-6s %s\n", mark, t.Title, t.Difficulty, t.ID)
	}
}

func completionWord(completed bool) string {
	if completed {
		return "completed"
	}
	return "not completed"
}

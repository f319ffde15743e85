package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
)

func newInitCommand(opts *RootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Import students, courses and library items from upstream",
		Long: `Fetch every upstream provider and upsert the records into the local store.
Without --force the import is skipped when records are already cached.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withServices(cmd, func(ctx context.Context, svc *Services) error {
				result, err := svc.Sync.InitializeSystem(ctx, force)
				if err != nil {
					return opts.formatter(cmd).Failure(err)
				}
				return opts.formatter(cmd).Result(result)
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "re-import even when records exist")
	return cmd
}

func newResetCommand(opts *RootOptions) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every local record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return &ExitError{Code: ExitCommandError, Message: "reset deletes all local data; pass --yes to confirm"}
			}
			return opts.withServices(cmd, func(ctx context.Context, svc *Services) error {
				result, err := svc.Sync.Reset(ctx)
				if err != nil {
					return opts.formatter(cmd).Failure(err)
				}
				return opts.formatter(cmd).Result(result)
			})
		},
	}
	cmd.Flags().BoolVar(&confirm, "yes", false, "confirm the reset")
	return cmd
}

func newSyncStudentCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-student <id>",
		Short: "Refresh one student from upstream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("student id", args[0])
			if err != nil {
				return err
			}
			return opts.withServices(cmd, func(ctx context.Context, svc *Services) error {
				student, err := svc.Sync.SyncStudent(ctx, id)
				if err != nil {
					return opts.formatter(cmd).Failure(err)
				}
				return opts.formatter(cmd).Data(student, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "synced student %d: %s (%s, %s)\n", student.ID, student.Name, student.Program, student.AcademicStatus)
					return err
				})
			})
		},
	}
}

func parseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("%s must be a positive integer", name)}
	}
	return id, nil
}

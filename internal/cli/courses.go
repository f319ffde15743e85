package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

type courseFlags struct {
	studentID int64
	courseID  int64
	all       bool
}

func newCoursesCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "Manage a student's enrolled courses",
	}
	cmd.AddCommand(newCoursesMutationCommand(opts, "add", "Add a course to the student's enrollment"))
	cmd.AddCommand(newCoursesMutationCommand(opts, "drop", "Drop a course from the student's enrollment"))
	cmd.AddCommand(newCoursesListCommand(opts))
	return cmd
}

func newCoursesMutationCommand(opts *RootOptions, use, short string) *cobra.Command {
	flags := &courseFlags{}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.studentID <= 0 || flags.courseID <= 0 {
				return &ExitError{Code: ExitCommandError, Message: "--student and --course must be positive integers"}
			}
			return opts.withServices(cmd, func(ctx context.Context, svc *Services) error {
				run := svc.Enrollments.AddCourse
				if use == "drop" {
					run = svc.Enrollments.DropCourse
				}
				result, err := run(ctx, flags.studentID, flags.courseID, opts.Period)
				if err != nil {
					return opts.formatter(cmd).Failure(err)
				}
				return opts.formatter(cmd).Result(result)
			})
		},
	}
	cmd.Flags().Int64Var(&flags.studentID, "student", 0, "student id")
	cmd.Flags().Int64Var(&flags.courseID, "course", 0, "course offering id")
	return cmd
}

func newCoursesListCommand(opts *RootOptions) *cobra.Command {
	flags := &courseFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show a student's enrollment summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.studentID <= 0 {
				return &ExitError{Code: ExitCommandError, Message: "--student must be a positive integer"}
			}
			return opts.withServices(cmd, func(ctx context.Context, svc *Services) error {
				summary, err := svc.Enrollments.Summary(ctx, flags.studentID, opts.Period)
				if err != nil {
					return opts.formatter(cmd).Failure(err)
				}
				if flags.all {
					lines, err := svc.Enrollments.ListCourses(ctx, flags.studentID, opts.Period, false)
					if err != nil {
						return opts.formatter(cmd).Failure(err)
					}
					summary.Lines = lines
				}
				return opts.formatter(cmd).Data(summary, func(w io.Writer) error {
					fmt.Fprintf(w, "student %d, period %s: %d active, %d slots left\n",
						summary.StudentID, summary.Period, summary.ActiveCount, summary.RemainingSlots)
					for _, line := range summary.Lines {
						state := "active"
						if !line.Active {
							state = "dropped"
						}
						if _, err := fmt.Fprintf(w, "  %d\t%s\t%s\t%s\n", line.CourseID, line.CourseTitle, line.CourseProgram, state); err != nil {
							return err
						}
					}
					return nil
				})
			})
		},
	}
	cmd.Flags().Int64Var(&flags.studentID, "student", 0, "student id")
	cmd.Flags().BoolVar(&flags.all, "all", false, "include dropped courses")
	return cmd
}

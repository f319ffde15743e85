// Package cli implements the records-cli operator commands.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/service"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// SyncRunner imports and clears local records.
type SyncRunner interface {
	InitializeSystem(ctx context.Context, force bool) (*models.Result, error)
	SyncStudent(ctx context.Context, id int64) (*models.Student, error)
	Reset(ctx context.Context) (*models.Result, error)
}

// EnrollmentRunner drives the enrollment engine.
type EnrollmentRunner interface {
	AddCourse(ctx context.Context, studentID, courseID int64, period string) (*models.Result, error)
	DropCourse(ctx context.Context, studentID, courseID int64, period string) (*models.Result, error)
	Summary(ctx context.Context, studentID int64, period string) (*models.EnrollmentSummary, error)
	ListCourses(ctx context.Context, studentID int64, period string, activeOnly bool) ([]models.EnrollmentLineDetail, error)
}

// ReservationRunner drives the reservation engine.
type ReservationRunner interface {
	Reserve(ctx context.Context, studentID, itemID int64) (*models.Result, error)
	Cancel(ctx context.Context, studentID, itemID int64) (*models.Result, error)
	ListReservations(ctx context.Context, studentID int64, activeOnly bool) ([]models.ReservationDetail, error)
}

// TokenIssuer mints operator tokens.
type TokenIssuer interface {
	Issue(req service.IssueTokenRequest) (*service.IssuedToken, error)
}

// Services are the backends a command may need. Unused fields may be nil.
type Services struct {
	Sync         SyncRunner
	Enrollments  EnrollmentRunner
	Reservations ReservationRunner
}

// Opener connects to the record store. The returned func releases it.
type Opener func(ctx context.Context) (*Services, func(), error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format string
	Period string

	open   Opener
	tokens func() (TokenIssuer, error)
}

// NewRootCommand creates the root command for records-cli.
func NewRootCommand(open Opener, tokens func() (TokenIssuer, error)) *cobra.Command {
	opts := &RootOptions{open: open, tokens: tokens}

	cmd := &cobra.Command{
		Use:           "records-cli",
		Short:         "Operate the academic records store",
		Long:          "Import upstream records, manage enrollments and library reservations, and mint operator tokens.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Period, "period", "", "academic period (defaults to DEFAULT_PERIOD)")

	cmd.AddCommand(newInitCommand(opts))
	cmd.AddCommand(newResetCommand(opts))
	cmd.AddCommand(newSyncStudentCommand(opts))
	cmd.AddCommand(newCoursesCommand(opts))
	cmd.AddCommand(newReservationsCommand(opts))
	cmd.AddCommand(newTokenCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// withServices opens the store for the duration of fn.
func (o *RootOptions) withServices(cmd *cobra.Command, fn func(ctx context.Context, svc *Services) error) error {
	if o.open == nil {
		return &ExitError{Code: ExitCommandError, Message: "record store is not configured"}
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, closeFn, err := o.open(ctx)
	if err != nil {
		return o.formatter(cmd).Failure(err)
	}
	if closeFn != nil {
		defer closeFn()
	}
	return fn(ctx, svc)
}

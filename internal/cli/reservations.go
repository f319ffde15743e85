package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newReservationsCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reservations",
		Short: "Manage a student's library reservations",
	}
	cmd.AddCommand(newReservationMutationCommand(opts, "add", "Reserve an available library item"))
	cmd.AddCommand(newReservationMutationCommand(opts, "cancel", "Cancel an active reservation"))
	cmd.AddCommand(newReservationsListCommand(opts))
	return cmd
}

func newReservationMutationCommand(opts *RootOptions, use, short string) *cobra.Command {
	var studentID, itemID int64
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if studentID <= 0 || itemID <= 0 {
				return &ExitError{Code: ExitCommandError, Message: "--student and --item must be positive integers"}
			}
			return opts.withServices(cmd, func(ctx context.Context, svc *Services) error {
				run := svc.Reservations.Reserve
				if use == "cancel" {
					run = svc.Reservations.Cancel
				}
				result, err := run(ctx, studentID, itemID)
				if err != nil {
					return opts.formatter(cmd).Failure(err)
				}
				return opts.formatter(cmd).Result(result)
			})
		},
	}
	cmd.Flags().Int64Var(&studentID, "student", 0, "student id")
	cmd.Flags().Int64Var(&itemID, "item", 0, "library item id")
	return cmd
}

func newReservationsListCommand(opts *RootOptions) *cobra.Command {
	var (
		studentID int64
		all       bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a student's reservations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if studentID <= 0 {
				return &ExitError{Code: ExitCommandError, Message: "--student must be a positive integer"}
			}
			return opts.withServices(cmd, func(ctx context.Context, svc *Services) error {
				reservations, err := svc.Reservations.ListReservations(ctx, studentID, !all)
				if err != nil {
					return opts.formatter(cmd).Failure(err)
				}
				return opts.formatter(cmd).Data(reservations, func(w io.Writer) error {
					if len(reservations) == 0 {
						_, err := fmt.Fprintln(w, "no reservations")
						return err
					}
					for _, r := range reservations {
						if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.ItemID, r.ItemTitle, r.ItemAuthor, r.ItemStatus); err != nil {
							return err
						}
					}
					return nil
				})
			})
		},
	}
	cmd.Flags().Int64Var(&studentID, "student", 0, "student id")
	cmd.Flags().BoolVar(&all, "all", false, "include cancelled reservations")
	return cmd
}

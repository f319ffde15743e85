package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/internal/service"
)

func newTokenCommand(opts *RootOptions) *cobra.Command {
	req := service.IssueTokenRequest{}
	var role string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an operator access token for the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.tokens == nil {
				return &ExitError{Code: ExitCommandError, Message: "token signing is not configured"}
			}
			issuer, err := opts.tokens()
			if err != nil {
				return opts.formatter(cmd).Failure(err)
			}
			req.Role = models.UserRole(role)
			issued, err := issuer.Issue(req)
			if err != nil {
				return opts.formatter(cmd).Failure(err)
			}
			return opts.formatter(cmd).Data(issued, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s\nexpires %s\n", issued.AccessToken, issued.ExpiresAt.Format(time.RFC3339))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&req.Subject, "subject", "", "token subject (operator id)")
	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(models.RoleOperator), "ADMIN or OPERATOR")
	return cmd
}

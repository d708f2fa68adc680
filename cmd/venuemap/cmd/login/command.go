// Package login provides the login and logout commands for operators.
package login

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/venuemap/internal/appcontext"
	"github.com/agentstation/venuemap/internal/auth"
	"github.com/agentstation/venuemap/pkg/errors"
)

// NewCommand creates the login command.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var (
		user   string
		hash   bool
		logout bool
		status bool
	)

	cmd := &cobra.Command{
		Use:     "login",
		GroupID: "management",
		Short:   "Sign in as an operator",
		Long: `Login checks operator credentials against auth_users and stores the
session so later commands (price submit) are authorized. The password is
read from the first line of stdin.

--hash prints a bcrypt hash of the password for use in auth_users.`,
		Example: `  echo "$PASSWORD" | venuemap login --user alice
  echo "$PASSWORD" | venuemap login --hash
  venuemap login --logout`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			checker := app.Auth()

			if status {
				st := checker.Status()
				fmt.Fprintf(cmd.OutOrStdout(), "auth: %s (%s)\n", st.State, st.Summary)
				return nil
			}

			if logout {
				vm, err := app.VenueMap()
				if err != nil {
					return err
				}
				vm.ClearSession()
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			}

			password, err := readPassword(cmd.InOrStdin())
			if err != nil {
				return err
			}

			if hash {
				h, err := auth.HashPassword(password)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), h)
				return nil
			}

			if user == "" {
				return errors.NewValidationError("user", nil, "is required")
			}
			session, err := checker.Login(auth.Credentials{Username: user, Password: password})
			if err != nil {
				return err
			}

			vm, err := app.VenueMap()
			if err != nil {
				return err
			}
			if err := vm.SetSession(*session); err != nil {
				return err
			}
			app.Logger().Info().Str("user", session.User).Time("expires_at", session.ExpiresAt).Msg("Signed in")
			fmt.Fprintln(cmd.OutOrStdout(), session.Token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "Operator username")
	cmd.Flags().BoolVar(&hash, "hash", false, "Print a bcrypt hash of the password instead of signing in")
	cmd.Flags().BoolVar(&logout, "logout", false, "Clear the stored session")
	cmd.Flags().BoolVar(&status, "status", false, "Show whether operator login is configured")
	cmd.MarkFlagsMutuallyExclusive("hash", "logout", "status")

	return cmd
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errors.WrapIO("read", "stdin", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.NewValidationError("password", nil, "cannot be empty")
	}
	return password, nil
}

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Skotchmaster/userpanel/internal/repo"
	"github.com/Skotchmaster/userpanel/internal/service"
	pkgdb "github.com/Skotchmaster/userpanel/pkg/db"
)

func newAdminCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin users",
	}
	cmd.AddCommand(newAdminCreateCmd(e))
	return cmd
}

func newAdminCreateCmd(e *env) *cobra.Command {
	var (
		username string
		email    string
		password string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an admin user",
		Example: `  userpanel admin create --username root --email root@example.com --password secret
  userpanel admin create --username root --email root@example.com  # prompts for password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !strings.Contains(email, "@") {
				return fmt.Errorf("invalid email address: %q", email)
			}
			if password == "" {
				var err error
				if password, err = promptPassword(cmd.OutOrStdout()); err != nil {
					return err
				}
			}

			ctx := e.context(cmd.Context())
			db, r, err := openStore(ctx, e.cfg)
			if err != nil {
				return err
			}
			defer pkgdb.Close(db)

			svc := &service.UserService{Repo: r}
			u, err := svc.CreateAdmin(ctx, service.AdminAccount{Username: username, Email: email, Password: password})
			if errors.Is(err, repo.ErrDuplicate) {
				return fmt.Errorf("user %q or email %q already exists", username, email)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created admin user %q (%s)\n", u.Username, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Admin username (required)")
	cmd.Flags().StringVar(&email, "email", "", "Admin email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (prompted if omitted)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func promptPassword(out io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("--password is required when stdin is not a terminal")
	}

	fmt.Fprint(out, "Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Fprint(out, "Confirm password: ")
	confirm, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}

	if string(pw) != string(confirm) {
		return "", errors.New("passwords do not match")
	}
	return string(pw), nil
}

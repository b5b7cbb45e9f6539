package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newLoginCommand(app *App) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the panel",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return errors.New("--username is required")
			}
			if password == "" {
				var err error
				if password, err = promptPassword("Password: "); err != nil {
					return err
				}
			}
			identity, err := app.Services.Session.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			fmt.Printf("logged in as %s\n", identity.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "operator username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "operator password (prompted when omitted)")
	return cmd
}

func newLogoutCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Services.Session.Logout(cmd.Context())
			fmt.Println("logged out")
			return nil
		},
	}
}

func newWhoamiCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated operator",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Services.Session.Restore(cmd.Context()); err != nil {
				return err
			}
			identity := app.Services.Session.Identity()
			if identity == nil {
				return errors.New("not logged in")
			}
			fmt.Printf("%s (id %d)\n", identity.Username, identity.ID)
			return nil
		},
	}
}

func newPasswdCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change the operator password",
		RunE: func(cmd *cobra.Command, args []string) error {
			oldPassword, err := promptPassword("Current password: ")
			if err != nil {
				return err
			}
			newPassword, err := promptPassword("New password: ")
			if err != nil {
				return err
			}
			confirm, err := promptPassword("Repeat new password: ")
			if err != nil {
				return err
			}
			if newPassword != confirm {
				return errors.New("passwords do not match")
			}
			if err := app.Services.Session.ChangePassword(cmd.Context(), oldPassword, newPassword); err != nil {
				return err
			}
			fmt.Println("password changed")
			return nil
		},
	}
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		data, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	// piped input
	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

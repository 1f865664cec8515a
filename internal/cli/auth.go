package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	loginUsername    string
	loginPassword    string
	registerEmail    string
	registerPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store credentials for later commands",
	RunE: run(func(ctx context.Context, a *app, w io.Writer) error {
		username, password, err := credentialsFromFlags(loginUsername, loginPassword)
		if err != nil {
			return err
		}
		user, err := a.session.Login(ctx, username, password)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		fmt.Fprintf(w, "Logged in as %s", user.Username)
		if user.IsAdmin {
			fmt.Fprint(w, " (staff)")
		}
		fmt.Fprintln(w)
		return nil
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Revoke the refresh token and clear stored credentials",
	RunE: run(func(ctx context.Context, a *app, w io.Writer) error {
		if _, err := a.restore(ctx); err != nil {
			// stale credentials still get cleared below
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
		a.session.Logout(ctx)
		fmt.Fprintln(w, "Logged out")
		return nil
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: run(func(ctx context.Context, a *app, w io.Writer) error {
		user, err := a.restore(ctx)
		if err != nil {
			return err
		}
		if user == nil {
			fmt.Fprintln(w, "Not logged in")
			return nil
		}
		if jsonOutput {
			return printJSON(w, user)
		}
		fmt.Fprintf(w, "Username:  %s\nEmail:     %s\nStaff:     %v\nSuperuser: %v\n",
			user.Username, user.Email, user.IsAdmin, user.IsSuperuser)
		if len(user.Groups) > 0 {
			names := make([]string, len(user.Groups))
			for i, g := range user.Groups {
				names[i] = g.Name
			}
			fmt.Fprintf(w, "Groups:    %s\n", strings.Join(names, ", "))
		}
		return nil
	}),
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	RunE: run(func(ctx context.Context, a *app, w io.Writer) error {
		username, password, err := credentialsFromFlags(loginUsername, registerPassword)
		if err != nil {
			return err
		}
		if err := a.session.Register(ctx, username, password, registerEmail); err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}
		fmt.Fprintf(w, "Account %s created; run \"blogctl login\" to sign in\n", username)
		return nil
	}),
}

func init() {
	loginCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Account username (prompted if omitted)")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Account password (prompted if omitted)")
	registerCmd.Flags().StringVarP(&loginUsername, "username", "u", "", "Account username (prompted if omitted)")
	registerCmd.Flags().StringVarP(&registerPassword, "password", "p", "", "Account password (prompted if omitted)")
	registerCmd.Flags().StringVarP(&registerEmail, "email", "e", "", "Account email")
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, registerCmd)
}

func credentialsFromFlags(username, password string) (string, string, error) {
	var err error
	if username == "" {
		if username, err = promptLine("Username: "); err != nil {
			return "", "", err
		}
	}
	if password == "" {
		if password, err = promptLine("Password: "); err != nil {
			return "", "", err
		}
	}
	if username == "" || password == "" {
		return "", "", fmt.Errorf("username and password are required")
	}
	return username, password, nil
}

func promptLine(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/resolveit/session-client/internal/core/domain"
	"github.com/resolveit/session-client/internal/core/ports"
	"github.com/resolveit/session-client/internal/core/service"
	"github.com/resolveit/session-client/internal/pkg/validation"
)

var errSignedOut = errors.New("not signed in")

func loginCmd(a *app) *cobra.Command {
	var in ports.LoginInput
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the token for later commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passwordStdin {
				pw, err := readSecret(cmd.InOrStdin())
				if err != nil {
					return err
				}
				in.Password = pw
			}
			if err := validation.New().Validate(in); err != nil {
				return errors.New(validation.Message(err))
			}

			m, err := a.machine(cmd.Context())
			if err != nil {
				return err
			}
			out := m.Login(cmd.Context(), in.Email, in.Password)
			if !out.OK() {
				return outcomeError(out)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", out.User.Email, out.User.Role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&in.Email, "email", "e", "", "account email")
	cmd.Flags().StringVar(&in.Password, "password", "", "account password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")

	return cmd
}

func registerCmd(a *app) *cobra.Command {
	var in ports.RegisterInput
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in with it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passwordStdin {
				pw, err := readSecret(cmd.InOrStdin())
				if err != nil {
					return err
				}
				in.Password = pw
			}
			if in.ConfirmPassword == "" {
				in.ConfirmPassword = in.Password
			}
			if err := validation.New().Validate(in); err != nil {
				return errors.New(validation.Message(err))
			}

			m, err := a.machine(cmd.Context())
			if err != nil {
				return err
			}
			m.Boot(cmd.Context())
			out := m.Register(cmd.Context(), in.Name, in.Email, in.Password)
			if !out.OK() {
				return outcomeError(out)
			}
			if out.Token == "" || out.User == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Account registered; current session kept")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered and signed in as %s (%s)\n", out.User.Email, out.User.Role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&in.Name, "name", "n", "", "full name")
	cmd.Flags().StringVarP(&in.Email, "email", "e", "", "account email")
	cmd.Flags().StringVar(&in.Password, "password", "", "account password (at least 6 characters)")
	cmd.Flags().StringVar(&in.ConfirmPassword, "confirm-password", "", "repeat the password (defaults to --password)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")

	return cmd
}

func whoamiCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and what they may do",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.machine(cmd.Context())
			if err != nil {
				return err
			}
			return printSession(cmd.OutOrStdout(), m.Boot(cmd.Context()), asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the session as JSON")

	return cmd
}

func refreshCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Re-resolve the stored token against the service",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.machine(cmd.Context())
			if err != nil {
				return err
			}
			m.Boot(cmd.Context())
			return printSession(cmd.OutOrStdout(), m.Refresh(cmd.Context()), asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the session as JSON")

	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.machine(cmd.Context())
			if err != nil {
				return err
			}
			m.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func printSession(w io.Writer, s domain.Session, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			domain.Session
			IsAdmin           bool `json:"is_admin"`
			IsEmployeeOrAbove bool `json:"is_employee_or_above"`
		}{s, service.IsAdmin(s.User), service.IsEmployeeOrAbove(s.User)})
	}

	switch s.State {
	case domain.StateAuthenticated:
		u := s.User
		fmt.Fprintf(w, "%s <%s>\n", nameOr(u.FullName, u.Email), u.Email)
		fmt.Fprintf(w, "  id:    %s\n", u.ID)
		fmt.Fprintf(w, "  role:  %s\n", u.Role)
		fmt.Fprintf(w, "  admin: %t  employee or above: %t\n", service.IsAdmin(u), service.IsEmployeeOrAbove(u))
		return nil
	case domain.StateTransientError:
		return fmt.Errorf("session unavailable: %s", s.Message)
	default:
		return errSignedOut
	}
}

func outcomeError(out domain.AuthOutcome) error {
	if out.Message == "" {
		return out.Err()
	}
	return fmt.Errorf("%w: %s", out.Err(), out.Message)
}

func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func nameOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func loginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := passwordOrStdin(cmd.InOrStdin(), password)
			if err != nil {
				return err
			}
			if err := a.session.Login(cmd.Context(), email, pw); err != nil {
				return err
			}

			sess, _ := a.session.Current()
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", sess.User.Email, sess.User.Role)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (read from stdin when omitted)")
	cmd.MarkFlagRequired("email")

	return cmd
}

func registerCmd(a *app) *cobra.Command {
	var email, password, name string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := passwordOrStdin(cmd.InOrStdin(), password)
			if err != nil {
				return err
			}
			if err := a.session.Register(cmd.Context(), email, pw, name); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s\n", name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (read from stdin when omitted)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "display name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("name")

	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			sess, ok := a.session.Current()
			if !ok {
				fmt.Fprintln(out, "Not logged in")
				return nil
			}

			fmt.Fprintf(out, "%s <%s>\n", sess.User.Name, sess.User.Email)
			fmt.Fprintf(out, "Role:    %s\n", sess.User.Role)
			if exp, ok := sess.ExpiresAt(); ok {
				state := "valid"
				if time.Now().After(exp) {
					state = "expired"
				}
				fmt.Fprintf(out, "Token:   %s until %s\n", state, exp.Local().Format(time.DateTime))
			}
			return nil
		},
	}
}

// passwordOrStdin returns pw, or the first line of in when pw is empty.
func passwordOrStdin(in io.Reader, pw string) (string, error) {
	if pw != "" {
		return pw, nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password is required")
	}
	return line, nil
}

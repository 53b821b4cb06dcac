package console

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"opsdesk/src/gateway"

	"github.com/spf13/cobra"
)

func NewLoginCommand(opts *RootOptions) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("OPSDESK_PASSWORD")
			}
			if password == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Password: ")
				line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				password = strings.TrimSpace(line)
			}
			if email == "" || password == "" {
				return errors.New("email and password are required")
			}
			opts.Client.Token = ""
			res, err := opts.Client.Login(cmd.Context(), gateway.Credentials{Email: email, Password: password})
			if err != nil {
				return opts.fail(cmd, err, "Could not sign in")
			}
			session := &Session{
				APIURL:    opts.Client.BaseURL,
				Token:     res.Token,
				ExpiresAt: res.ExpiresAt,
				User: SessionUser{
					ID:    res.User.ID,
					Name:  res.User.Name,
					Email: res.User.Email,
					Role:  res.User.Role,
				},
			}
			if err := SaveSession(opts.SessionPath, session); err != nil {
				return err
			}
			opts.Session = session
			renderSuccess(cmd.OutOrStdout(), fmt.Sprintf("Signed in as %s (%s)", res.User.Name, res.User.Role))
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (default $OPSDESK_PASSWORD or prompt)")
	return cmd
}

func NewLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session token and forget it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Session.Active(opts.Now()) {
				if err := opts.Client.Logout(cmd.Context()); err != nil && gateway.StatusOf(err) != http.StatusUnauthorized {
					fmt.Fprintf(cmd.ErrOrStderr(), "server logout failed: %v\n", err)
				}
			}
			if err := ClearSession(opts.SessionPath); err != nil {
				return err
			}
			renderSuccess(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func NewWhoamiCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and their capabilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.requireSession(); err != nil {
				return err
			}
			me, err := opts.Client.Me(cmd.Context())
			if err != nil {
				return opts.fail(cmd, err, "Could not load your session")
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, headerStyle.Render(me.User.Name))
			fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("email"), me.User.Email)
			fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("role "), me.User.Role)
			fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("can  "), strings.Join(me.Capabilities, ", "))
			return nil
		},
	}
}

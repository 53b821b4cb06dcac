// Package console is the adminctl command line client of the opsdesk API.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"opsdesk/src/gateway"
	"opsdesk/src/views"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags and the state shared by every command. The
// session is read once in the root command and handed down from here.
type RootOptions struct {
	SessionPath string
	APIURL      string

	Session *Session
	Client  *gateway.Client
	Cache   *views.QueryCache
	Now     func() time.Time
}

// Viewer is the signed-in user, or an empty viewer without a session.
func (o *RootOptions) Viewer() views.Viewer {
	if !o.Session.Active(o.Now()) {
		return views.NewViewer(0, "")
	}
	return views.NewViewer(o.Session.User.ID, o.Session.User.Role)
}

func (o *RootOptions) requireSession() error {
	if !o.Session.Active(o.Now()) {
		return errors.New("not logged in, run `adminctl login` first")
	}
	return nil
}

// fail reports err to the user. An expired session is cleared so the next run
// asks for a login.
func (o *RootOptions) fail(cmd *cobra.Command, err error, fallback string) error {
	n := views.Classify(err, fallback)
	renderNotice(cmd.ErrOrStderr(), n)
	if n.Kind == views.NoticeLogin {
		if cerr := ClearSession(o.SessionPath); cerr != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "could not clear session: %v\n", cerr)
		}
	}
	return reportedError{err}
}

// reportedError is an error the user has already been shown.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

// Reported reports whether err was already printed by a command.
func Reported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

func resolveAPIURL(flag string, session *Session) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv("OPSDESK_API_URL"); env != "" {
		return env
	}
	if session != nil && session.APIURL != "" {
		return session.APIURL
	}
	return gateway.DefaultBaseURL
}

// NewRootCommand creates the adminctl root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Now: time.Now}

	cmd := &cobra.Command{
		Use:           "adminctl",
		Short:         "opsdesk admin console",
		Long:          "Browse and manage bugs, projects, employees, assets and inventory from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.SessionPath == "" {
				opts.SessionPath = DefaultSessionPath()
			}
			session, err := LoadSession(opts.SessionPath)
			if err != nil {
				return fmt.Errorf("reading session %s: %w", opts.SessionPath, err)
			}
			opts.Session = session
			token := ""
			if session.Active(opts.Now()) {
				token = session.Token
			}
			opts.Client = gateway.NewClient(resolveAPIURL(opts.APIURL, session), token)
			opts.Cache = views.NewQueryCache(views.DefaultTTL)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.SessionPath, "session", "", "session file (default ~/.config/opsdesk/session.toml)")
	cmd.PersistentFlags().StringVar(&opts.APIURL, "api-url", "", "API base URL (default $OPSDESK_API_URL or http://localhost:8080/api/v1)")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewBugsCommand(opts))
	cmd.AddCommand(NewProjectsCommand(opts))
	cmd.AddCommand(NewEmployeesCommand(opts))
	cmd.AddCommand(NewAssetsCommand(opts))
	cmd.AddCommand(NewInventoryCommand(opts))

	return cmd
}

func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

// confirm asks a yes/no question on the command's input.
func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

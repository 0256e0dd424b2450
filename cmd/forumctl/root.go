package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/garnizeh/campusfeed/internal/config"
	"github.com/garnizeh/campusfeed/internal/mutation"
	"github.com/garnizeh/campusfeed/internal/profileform"
	"github.com/garnizeh/campusfeed/internal/session"
	"github.com/garnizeh/campusfeed/internal/views"
	"github.com/garnizeh/campusfeed/pkg/forumclient"
	"github.com/garnizeh/campusfeed/pkg/models"
)

var errNotSignedIn = errors.New("not signed in; run forumctl signin first")

// app carries the global flags and the lazily built client shared by all commands.
type app struct {
	configPath string
	baseURL    string
	tokenFile  string
	verbose    bool
	in         io.Reader

	cfg    *config.Config
	client *forumclient.Client
}

func defaultTokenFile() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "campusfeed", "token")
	}
	return ".campusfeed-token"
}

func newRootCmd(in io.Reader) *cobra.Command {
	a := &app{in: in}

	root := &cobra.Command{
		Use:           "forumctl",
		Short:         "Browse and post to the campusfeed forum from the terminal",
		Version:       fmt.Sprintf("%s (built %s)", version, buildTime),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.client != nil {
				return a.client.Close()
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Path to config YAML file")
	pf.StringVar(&a.baseURL, "url", "", "API base URL (overrides client.base_url)")
	pf.StringVar(&a.tokenFile, "token-file", defaultTokenFile(), "Where the session token is stored")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Log requests and mutations to stderr")

	root.AddCommand(
		a.signinCmd(),
		a.signoutCmd(),
		a.postsCmd(),
		a.postCmd(),
		a.likeCmd(),
		a.threadCmd(),
		a.replyCmd(),
		a.deleteCmd(),
		a.deleteReplyCmd(),
		a.dashboardCmd(),
		a.profileCmd(),
	)
	return root
}

// setup loads config and builds the client. Library logs stay quiet unless --verbose.
func (a *app) setup() error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.baseURL != "" {
		cfg.Client.BaseURL = a.baseURL
	}
	a.cfg = cfg

	var handler slog.Handler = slog.NewTextHandler(io.Discard, nil)
	if a.verbose {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	l := slog.New(handler)
	forumclient.SetLogger(l)
	views.SetLogger(l)
	mutation.SetLogger(l)
	profileform.SetLogger(l)

	c, err := forumclient.NewDefaultClient(cfg.Client)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	if tok, err := a.readToken(); err == nil {
		c.SetToken(tok)
	}
	a.client = c
	return nil
}

func (a *app) readToken() (string, error) {
	b, err := os.ReadFile(a.tokenFile)
	if err != nil {
		return "", err
	}
	tok := strings.TrimSpace(string(b))
	if tok == "" {
		return "", errNotSignedIn
	}
	return tok, nil
}

func (a *app) writeToken(tok string) error {
	if err := os.MkdirAll(filepath.Dir(a.tokenFile), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	return os.WriteFile(a.tokenFile, []byte(tok+"\n"), 0o600)
}

// identity resolves the signed-in user from the server.
func (a *app) identity(ctx context.Context) (session.Identity, error) {
	if a.client.Token() == "" {
		return session.Identity{}, errNotSignedIn
	}
	p, err := a.client.FetchCurrentProfile(ctx)
	if err != nil {
		if forumclient.IsStatus(err, http.StatusUnauthorized) {
			return session.Identity{}, errNotSignedIn
		}
		return session.Identity{}, fmt.Errorf("fetch current user: %w", err)
	}
	return identityOf(*p), nil
}

func identityOf(p models.UserProfile) session.Identity {
	return session.Identity{UserID: p.ID, Role: p.Role, FirstName: p.FirstName, LastName: p.LastName, Email: p.Email}
}

// viewOptions applies the configured mutation policy overrides.
func (a *app) viewOptions() ([]views.Option, error) {
	if len(a.cfg.MutationPolicy) == 0 {
		return nil, nil
	}
	p, err := mutation.DefaultPolicy().WithOverrides(a.cfg.MutationPolicy)
	if err != nil {
		return nil, fmt.Errorf("mutation_policy: %w", err)
	}
	return []views.Option{views.WithPolicy(p)}, nil
}

// confirmPrompt asks a yes/no question on the command's input.
func (a *app) confirmPrompt(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)
	var answer string
	if _, err := fmt.Fscanln(a.in, &answer); err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

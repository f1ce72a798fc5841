// Package app wires the client together and dispatches CLI commands.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/lexai/koma/internal/account"
	"github.com/lexai/koma/internal/api"
	"github.com/lexai/koma/internal/config"
	"github.com/lexai/koma/internal/feed"
	"github.com/lexai/koma/internal/guard"
	applog "github.com/lexai/koma/internal/log"
	"github.com/lexai/koma/internal/metrics"
	"github.com/lexai/koma/internal/model"
	"github.com/lexai/koma/internal/mutation"
	"github.com/lexai/koma/internal/password"
	"github.com/lexai/koma/internal/session"
	"github.com/lexai/koma/internal/token"
)

const usage = `Usage: koma <command> [flags]

Commands:
  login           authenticate with identifier and password
  signup          create an account
  logout          end the session
  whoami          show the current identity
  feed            show a gallery tab (explore, top, likes, library)
  like            toggle a like on an artifact
  generate        request a new artifact from a prompt
  delete-account  irreversibly delete the account
`

// App holds the wired components for one CLI invocation.
type App struct {
	cfg       *config.Config
	logger    zerolog.Logger
	sessions  *session.Store
	feeds     *feed.Controller
	mutations *mutation.Coordinator
	guard     *guard.Guard
	accounts  *account.Manager
	out       *os.File
}

// Run is the process entrypoint.
func Run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := applog.New(cfg.Environment)

	ctx := context.Background()

	var tokens token.Store
	if cfg.TokenStore == "redis" {
		store, err := token.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("token store: %w", err)
		}
		defer store.Close()
		tokens = store
	} else {
		tokens = token.NewFileStore(cfg.TokenFile)
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	if cfg.MetricsAddr != "" {
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, metrics.Handler(registry)); err != nil {
				logger.Warn().Err(err).Msg("metrics listener stopped")
			}
		}()
	}

	authClient := api.NewAuthClient(api.NewClient(cfg.AuthBaseURL, cfg.HTTPTimeout, logger))
	contentClient := api.NewContentClient(api.NewClient(cfg.ContentBaseURL, cfg.HTTPTimeout, logger))

	sessions := session.NewStore(authClient, tokens, logger)
	feeds := feed.NewController(contentClient, sessions, collector, logger)
	mutations := mutation.NewCoordinator(contentClient, sessions, feeds, cfg.GenerateRatePerMin, collector, logger)

	// Teardown: any transition away from authenticated discards all feed
	// state so late responses cannot resurrect it.
	sessions.Subscribe(func(status session.Status) {
		if status != session.StatusAuthenticated {
			feeds.Reset()
		}
	})

	routeGuard := guard.New(sessions, logger)
	routeGuard.SetOnEvict(func(redirectTo string) {
		fmt.Fprintf(os.Stderr, "session ended, returning to %s\n", redirectTo)
	})

	accounts := account.NewManager(sessions, feeds, confirmOnTerminal, logger)

	a := &App{
		cfg:       cfg,
		logger:    logger,
		sessions:  sessions,
		feeds:     feeds,
		mutations: mutations,
		guard:     routeGuard,
		accounts:  accounts,
		out:       os.Stdout,
	}

	if len(args) < 1 {
		fmt.Fprint(os.Stderr, usage)
		return errors.New("missing command")
	}

	// Every invocation starts with a restore attempt; failure leaves the
	// client unauthenticated without an error.
	a.sessions.Restore(ctx)

	return a.dispatch(ctx, args[0], args[1:])
}

func (a *App) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.cmdLogin(ctx, args)
	case "signup":
		return a.cmdSignup(ctx, args)
	case "logout":
		a.sessions.Logout(ctx)
		fmt.Fprintln(a.out, "logged out")
		return nil
	case "whoami":
		return a.cmdWhoami()
	case "feed":
		return a.cmdFeed(ctx, args)
	case "like":
		return a.cmdLike(ctx, args)
	case "generate":
		return a.cmdGenerate(ctx, args)
	case "delete-account":
		return a.cmdDeleteAccount(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *App) cmdLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	identifier := fs.String("identifier", "", "email or username")
	pass := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *identifier == "" || *pass == "" {
		return errors.New("login: -identifier and -password are required")
	}

	if err := a.sessions.Login(ctx, *identifier, *pass); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "logged in as %s, continuing to %s\n",
		a.sessions.User().Username, a.guard.AfterLogin())
	return nil
}

func (a *App) cmdSignup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email address")
	username := fs.String("username", "", "username")
	dob := fs.String("dob", "", "date of birth (YYYY-MM-DD)")
	pass := fs.String("password", "", "password")
	confirm := fs.String("confirm", "", "password confirmation")
	apiKey := fs.String("api-key", "", "provider API key (forwarded, never stored)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Policy runs locally before any network call.
	if err := password.Check(*pass, *confirm); err != nil {
		if errors.Is(err, password.ErrPolicy) {
			printChecks(a.out, password.Validate(*pass))
		}
		return err
	}

	profile := model.SignupProfile{
		Name:     *name,
		Email:    *email,
		Username: *username,
		DOB:      *dob,
		Password: *pass,
		APIKey:   *apiKey,
	}
	if err := a.sessions.Signup(ctx, profile); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "welcome %s, continuing to %s\n",
		a.sessions.User().Username, a.guard.AfterLogin())
	return nil
}

func (a *App) cmdWhoami() error {
	user := a.sessions.User()
	if user == nil {
		fmt.Fprintln(a.out, "not logged in")
		return nil
	}
	fmt.Fprintf(a.out, "%s <%s>\n", user.Username, user.Email)
	return nil
}

func (a *App) cmdFeed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("feed", flag.ContinueOnError)
	tabName := fs.String("tab", string(model.TabExplore), "tab to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// The gallery is a protected view; entry goes through the guard.
	if decision := a.guard.Check(guard.DefaultDest); !decision.Allowed {
		fmt.Fprintf(a.out, "redirecting to %s\n", decision.RedirectTo)
		return model.ErrLoginRequired
	}

	tab, err := model.ParseTab(*tabName)
	if err != nil {
		return err
	}

	if err := a.feeds.Activate(ctx, tab); err != nil {
		return err
	}
	a.printState(a.feeds.State(tab))
	return nil
}

func (a *App) cmdLike(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("like", flag.ContinueOnError)
	id := fs.String("id", "", "artifact id")
	tabName := fs.String("tab", string(model.TabExplore), "tab holding the artifact")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("like: -id is required")
	}

	tab, err := model.ParseTab(*tabName)
	if err != nil {
		return err
	}
	if err := a.feeds.Activate(ctx, tab); err != nil {
		return err
	}
	if err := a.mutations.ToggleLike(ctx, *id); err != nil {
		return err
	}
	a.printState(a.feeds.State(tab))
	return nil
}

func (a *App) cmdGenerate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	prompt := fs.String("prompt", "", "generation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.mutations.Generate(ctx, *prompt); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "generation requested; it will appear in your library")
	return nil
}

func (a *App) cmdDeleteAccount(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete-account", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *yes {
		a.accounts = account.NewManager(a.sessions, a.feeds, nil, a.logger)
	}
	if err := a.accounts.Delete(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "account deleted")
	return nil
}

func (a *App) printState(st feed.State) {
	if st.Status == feed.StatusError {
		fmt.Fprintln(a.out, st.Err)
		return
	}
	if len(st.Items) == 0 {
		fmt.Fprintln(a.out, "no artifacts")
		return
	}
	for _, item := range st.Items {
		liked := " "
		if item.Liked {
			liked = "*"
		}
		fmt.Fprintf(a.out, "%s [%s %3d] %s\n", item.ID, liked, item.LikeCount, item.Prompt)
	}
}

func printChecks(out *os.File, c password.Checks) {
	line := func(ok bool, label string) {
		mark := "x"
		if ok {
			mark = "ok"
		}
		fmt.Fprintf(out, "  [%2s] %s\n", mark, label)
	}
	fmt.Fprintln(out, "password requirements:")
	line(c.Length, fmt.Sprintf("at least %d characters", password.MinLength))
	line(c.Upper, "an uppercase letter")
	line(c.Lower, "a lowercase letter")
	line(c.Digit, "a digit")
	line(c.Special, "a special character ("+password.SpecialChars+")")
}

func confirmOnTerminal() bool {
	fmt.Fprint(os.Stderr, "this permanently deletes your account and artifacts; type 'delete' to confirm: ")
	var answer string
	fmt.Scanln(&answer)
	return strings.EqualFold(strings.TrimSpace(answer), "delete")
}

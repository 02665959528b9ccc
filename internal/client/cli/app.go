package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/planadmin/internal/client/access"
	"github.com/dmitrijs2005/planadmin/internal/client/client"
	"github.com/dmitrijs2005/planadmin/internal/client/config"
	"github.com/dmitrijs2005/planadmin/internal/client/services"
	"github.com/dmitrijs2005/planadmin/internal/client/session"
	"github.com/dmitrijs2005/planadmin/internal/filex"
	"github.com/dmitrijs2005/planadmin/internal/logging"
)

type App struct {
	config *config.Config
	logger logging.Logger

	db    *sql.DB
	store *session.Store
	api   *client.HTTPClient

	authService    services.AuthService
	recordsService services.RecordsService
	uploadService  services.UploadService
	gate           *access.Gate
	stateFn        func() client.State

	reader *bufio.Reader
	out    io.Writer

	unsubscribe func()
}

// NewApp opens the session database, restores any persisted session and
// wires the API client and services on top of it.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if _, err := filex.EnsureParentDir(c.StorePath); err != nil {
		return nil, err
	}

	db, err := client.InitDatabase(ctx, c.StorePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	store := session.NewStore(
		session.WithPersister(session.NewSQLitePersister(db, c.StorageSecret)),
		session.WithLogger(logger),
	)

	opts := []client.Option{
		client.WithLogger(logger),
		client.WithRequestTimeout(c.RequestTimeout),
		client.WithRefreshTimeout(c.RefreshTimeout),
	}
	if c.ProactiveRefresh {
		opts = append(opts, client.WithProactiveRefresh(c.ExpirySkew))
	}
	api := client.NewHTTPClient(c.APIBaseURL, store, opts...)
	gate := access.NewGate(store)

	a := &App{
		config:         c,
		logger:         logger,
		db:             db,
		store:          store,
		api:            api,
		authService:    services.NewAuthService(api, store, logger),
		recordsService: services.NewRecordsService(api, gate),
		uploadService:  services.NewUploadService(api, gate),
		gate:           gate,
		stateFn:        api.State,
		reader:         bufio.NewReader(os.Stdin),
		out:            os.Stdout,
	}
	a.unsubscribe = store.OnChange(a.onSessionChange)

	if err := store.Init(ctx); err != nil {
		a.Close()
		return nil, fmt.Errorf("restore session: %w", err)
	}
	return a, nil
}

// Run prints the banner and blocks in the REPL until exit or EOF.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "planadmin console (type 'help' for commands)")
	if s := a.authService.Current(); s != nil {
		fmt.Fprintf(a.out, "Welcome back, %s.\n", s.User.Name)
	}
	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	if a.api != nil {
		a.api.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn(context.Background(), "failed to close database", "error", err)
		}
	}
}

func (a *App) isLoggedIn() bool {
	return a.authService.Current() != nil
}

// onSessionChange runs synchronously on the goroutine that changed the session.
func (a *App) onSessionChange(e session.Event) {
	switch e.Reason {
	case session.ReasonRefreshFailed, session.ReasonExpired:
		fmt.Fprintln(a.out, "session expired, please log in")
	}
}

func (a *App) getStatus() string {
	s := a.authService.Current()
	if s == nil {
		if a.stateFn != nil && a.stateFn() == client.StateExpired {
			return "(expired)"
		}
		return ""
	}
	return fmt.Sprintf("(%s %s)", s.User.Email, s.User.Role)
}

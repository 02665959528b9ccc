// Package server wires and runs the development API: in-memory users and
// plan records behind the HTTP transport, with graceful shutdown on SIGINT,
// SIGTERM or SIGQUIT.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/planadmin/internal/logging"
	"github.com/dmitrijs2005/planadmin/internal/server/config"
	"github.com/dmitrijs2005/planadmin/internal/server/httpapi"
	"github.com/dmitrijs2005/planadmin/internal/server/records"
	"github.com/dmitrijs2005/planadmin/internal/server/refreshtokens"
	"github.com/dmitrijs2005/planadmin/internal/server/users"
)

type App struct {
	config        *config.Config
	logger        logging.Logger
	userService   *users.Service
	recordService *records.Service
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	us := users.NewService(users.NewMemoryRepository(), refreshtokens.NewMemoryRepository(), c)
	if err := us.Seed(ctx, c.SeedPassword); err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}

	repo := records.NewMemoryRepository()
	repo.Seed(time.Now())
	rs := records.NewService(repo, c)

	for _, u := range users.SeedAccounts {
		logger.Info(ctx, "Seeded account", "email", u.Email, "role", u.Role)
	}

	return &App{config: c, logger: logger, userService: us, recordService: rs}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.EndpointAddr, app.logger, app.userService, app.recordService)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a signal arrives or the server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.logger.Info(ctx, "App stopped")
}

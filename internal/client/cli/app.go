package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dmitrijs2005/campusmarket/internal/client/client"
	"github.com/dmitrijs2005/campusmarket/internal/client/config"
	"github.com/dmitrijs2005/campusmarket/internal/client/notify"
	"github.com/dmitrijs2005/campusmarket/internal/client/services"
	"github.com/dmitrijs2005/campusmarket/internal/client/storage"
	"github.com/dmitrijs2005/campusmarket/internal/client/tokens"
	"github.com/dmitrijs2005/campusmarket/internal/logging"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	api     *client.HTTPClient
	session *services.SessionStore
	saves   *services.SaveService
	search  *services.SearchService
	chat    *services.ChatService
	reader  *bufio.Reader
	out     io.Writer

	unsubscribe func()
	lastStatus  services.Status
}

// NewApp opens the local database and builds the service graph on top of it.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := storage.Open(ctx, c.DatabasePath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "path", c.DatabasePath, "error", err)
		return nil, err
	}

	a := newApp(c, logger, tokens.NewSQLiteStore(db), bufio.NewReader(os.Stdin), os.Stdout)
	a.db = db
	return a, nil
}

func newApp(c *config.Config, logger logging.Logger, store tokens.Store, reader *bufio.Reader, out io.Writer) *App {
	out = &syncWriter{w: out}
	notifier := notify.NewWriter(out)

	api := client.New(c.APIBaseURL, c.RequestTimeout, store, logger, nil)
	saves := services.NewSaveService(api, notifier, logger)

	return &App{
		config:  c,
		logger:  logger,
		api:     api,
		session: services.NewSessionStore(api, store, logger),
		saves:   saves,
		search:  services.NewSearchService(api, saves, notifier, logger, c.SearchDebounce),
		chat:    services.NewChatService(api, c.ChatAPIKey, logger),
		reader:  reader,
		out:     out,
	}
}

// Run restores the stored session and serves the REPL until the user exits
// or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	a.watchSession()
	a.session.LoadUser(ctx)
	runREPL(ctx, a, a.status, a.reader)
}

// Close stops background work and releases the database.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	a.search.Close()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn(context.Background(), "closing database", "error", err)
		}
		a.db = nil
	}
}

// watchSession prints session transitions, including expiry forced by the
// backend in the middle of another command.
func (a *App) watchSession() {
	var mu sync.Mutex
	a.unsubscribe = a.session.Subscribe(func(st services.SessionState) {
		mu.Lock()
		defer mu.Unlock()
		if st.Loading || st.Status == a.lastStatus {
			return
		}
		prev := a.lastStatus
		a.lastStatus = st.Status

		switch {
		case st.Status == services.StatusAuthenticated && st.User != nil:
			fmt.Fprintf(a.out, "Logged in as %s\n", st.User.DisplayName())
		case st.Status == services.StatusAnonymous && st.Expired:
			fmt.Fprintln(a.out, "Your session has expired, please log in again")
		case st.Status == services.StatusAnonymous && prev == services.StatusAuthenticated:
			fmt.Fprintln(a.out, "Logged out")
		}
	})
}

func (a *App) isLoggedIn() bool {
	return a.session.Snapshot().Status == services.StatusAuthenticated
}

func (a *App) status() string {
	st := a.session.Snapshot()
	if st.Status == services.StatusAuthenticated && st.User != nil {
		return st.User.DisplayName()
	}
	return st.Status.String()
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

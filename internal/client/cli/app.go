package cli

import (
	"bufio"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/mpodriezov/boardpack/internal/client/api"
	"github.com/mpodriezov/boardpack/internal/client/config"
	"github.com/mpodriezov/boardpack/internal/filex"
	"github.com/mpodriezov/boardpack/internal/client/store"
	"github.com/mpodriezov/boardpack/internal/client/uploader"
	"github.com/mpodriezov/boardpack/internal/client/urlcache"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type App struct {
	config  *config.Config
	api     *api.Client
	store   *store.Store
	uploads *uploader.Manager
	urls    *urlcache.Cache
	user    *api.User
	Mode    Mode
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	dataDir, err := filex.EnsureDir(c.DataDir)
	if err != nil {
		log.Printf("error preparing data directory: %s", err.Error())
		return nil, err
	}

	st, err := store.Open(ctx, filepath.Join(dataDir, "desk.db"), c.MaxStoreBytes)
	if err != nil {
		log.Printf("error initializing staging store: %s", err.Error())
		return nil, err
	}

	apiClient := api.NewClient(c.ServerEndpointAddr)

	return &App{
		config:  c,
		api:     apiClient,
		store:   st,
		uploads: uploader.NewManager(),
		urls:    urlcache.New(apiClient),
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.store.Close()
	defer a.uploads.Cleanup()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.api.IsLoggedIn()
}

func (a *App) setMode(mode Mode) {
	if a.Mode != mode {
		a.Mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

// StartOnlineStatusWatcher probes the server on an interval and flips the
// displayed mode when reachability changes.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err := a.api.Ping(pingCtx)
			cancel()

			if err != nil {
				if a.Mode == ModeOnline {
					a.setMode(ModeOffline)
				}
			} else {
				if a.Mode != ModeOnline {
					a.setMode(ModeOnline)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}

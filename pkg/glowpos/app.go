package glowpos

import (
	"context"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/skcglow/glowpos/pkg/client"
	"github.com/skcglow/glowpos/pkg/logger"
	"github.com/skcglow/glowpos/pkg/models"
	"github.com/skcglow/glowpos/pkg/ops"
	"github.com/skcglow/glowpos/pkg/store/kv"
	"github.com/skcglow/glowpos/pkg/store/localcache"
	"github.com/skcglow/glowpos/pkg/store/serverstore"
	"github.com/skcglow/glowpos/pkg/syncqueue"
)

// Config holds the application configuration, populated from the environment
// and overridable by command line flags. The KV_REST_API_* pair selects the
// remote backend; when either is missing the server runs against its
// in-memory document and reports storage "memory".
type Config struct {
	KVRestAPIURL   string `envconfig:"KV_REST_API_URL"`
	KVRestAPIToken string `envconfig:"KV_REST_API_TOKEN"`
	Port           string `envconfig:"PORT" default:"8080"`
	SeedPath       string `envconfig:"SEED_PATH"`

	// Client-side settings used by the export, import and reset commands.
	CachePath string `envconfig:"GLOWPOS_CACHE" default:"glowpos.db"`
	RemoteURL string `envconfig:"GLOWPOS_REMOTE_URL"`
	LogPath   string `envconfig:"GLOWPOS_LOG"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, errors.Wrap(err, "read environment")
	}
	return &c, nil
}

// App holds the application state shared by all commands.
type App struct {
	config *Config
	store  *serverstore.Store
	log    zerolog.Logger
}

// New creates the application. The serverstore is always constructed; the
// client-side session is opened per command because only the data commands
// need the local cache.
func New(config *Config) (*App, error) {
	log, err := logger.New().FromPath(config.LogPath).Make()
	if err != nil {
		return nil, errors.Wrap(err, "open log destination")
	}

	backend := kv.New(config.KVRestAPIURL, config.KVRestAPIToken)
	if !backend.Configured() {
		log.Warn().Msg("kv backend not configured, document lives in process memory")
	}

	return &App{
		config: config,
		store:  serverstore.New(backend, config.SeedPath, log.With().Str("component", "store").Logger()),
		log:    log,
	}, nil
}

// clientStack is the client-side assembly used by the data commands: sqlite
// cache, replication queue against the remote API, and the domain session on
// top. gateway is nil when no remote URL is configured.
type clientStack struct {
	session *ops.Session
	queue   *syncqueue.Queue
	gateway *client.Gateway
	close   func() error
}

func (a *App) openSession() (*clientStack, error) {
	cache, err := localcache.Open(a.config.CachePath, a.log.With().Str("component", "cache").Logger())
	if err != nil {
		return nil, errors.Wrap(err, "open local cache")
	}

	var gateway *client.Gateway
	var pusher syncqueue.Pusher = noRemote{}
	if a.config.RemoteURL != "" {
		gateway = client.NewGateway(a.config.RemoteURL, a.log.With().Str("component", "gateway").Logger())
		pusher = gateway
	}
	queue := syncqueue.New(pusher, syncqueue.DefaultDebounce, a.log.With().Str("component", "sync").Logger())
	session := ops.NewSession(cache, queue, a.log.With().Str("component", "ops").Logger())
	return &clientStack{
		session: session,
		queue:   queue,
		gateway: gateway,
		close:   cache.Close,
	}, nil
}

// noRemote stands in for the gateway when no remote URL is configured. Every
// push fails, which keeps the session in local mode.
type noRemote struct{}

func (noRemote) Push(context.Context, models.Partial) (*client.Response, error) {
	return nil, errors.New("no remote API configured")
}

package docquery

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	endpoint   string
	transport  Transport
	httpClient *http.Client
	timeout    time.Duration
	decoder    ErrorDecoder

	protectedContent bool
	completeContext  bool

	driver      string // "valkey" or "redis"
	addrs       []string
	username    string
	password    string
	db          int
	standalone  bool
	keyPrefix   string
	snapshotTTL time.Duration

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithEndpoint sets the base URL of the search server. The select API is
// expected at <endpoint>/select and <endpoint>/protected/select.
func WithEndpoint(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.endpoint = url
	})
}

// WithTransport replaces the HTTP transport. WithEndpoint, WithHTTPClient and
// WithTimeout are ignored when set.
func WithTransport(t Transport) Option {
	return optionFunc(func(c *clientConfig) {
		c.transport = t
	})
}

// WithHTTPClient sets the http.Client used by the default transport.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithTimeout sets the per-request timeout of the default transport.
// Default: 30s. Ignored when WithHTTPClient is used.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithErrorDecoder replaces the decoder used for unsuccessful responses.
func WithErrorDecoder(d ErrorDecoder) Option {
	return optionFunc(func(c *clientConfig) {
		c.decoder = d
	})
}

// WithProtectedContent makes new searches target the protected endpoint by default.
func WithProtectedContent() Option {
	return optionFunc(func(c *clientConfig) {
		c.protectedContent = true
	})
}

// WithCompleteContext makes new searches request the complete document context by default.
func WithCompleteContext() Option {
	return optionFunc(func(c *clientConfig) {
		c.completeContext = true
	})
}

// WithValkey enables the snapshot store on a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis enables the snapshot store on a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithSnapshotStore enables the snapshot store with full connection settings.
func WithSnapshotStore(driver string, addrs []string, username, password string, db int) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driver
		c.addrs = addrs
		c.username = username
		c.password = password
		c.db = db
	})
}

// WithStandalone disables cluster topology discovery for the snapshot store.
func WithStandalone() Option {
	return optionFunc(func(c *clientConfig) {
		c.standalone = true
	})
}

// WithSnapshotTTL sets how long stored snapshots live. Default: 24h.
func WithSnapshotTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.snapshotTTL = ttl
	})
}

// WithKeyPrefix sets the key namespace of the snapshot store. Default: "docquery:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

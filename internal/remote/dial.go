package remote

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/specialistvlad/lazygrid/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultConnectTimeout bounds Dial when Config.ConnectTimeout is zero.
const DefaultConnectTimeout = 15 * time.Second

// Config describes how to reach the fleet.
type Config struct {
	URL                string        `yaml:"url"`
	Namespace          string        `yaml:"namespace"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	ConnectTimeout     time.Duration `yaml:"connect_timeout"`
	SubmitEvent        string        `yaml:"submit_event"`
	CancelEvent        string        `yaml:"cancel_event"`
	ResultEvent        string        `yaml:"result_event"`
}

func (c Config) withDefaults() Config {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.SubmitEvent == "" {
		c.SubmitEvent = defaultSubmitEvent
	}
	if c.CancelEvent == "" {
		c.CancelEvent = defaultCancelEvent
	}
	if c.ResultEvent == "" {
		c.ResultEvent = defaultResultEvent
	}
	return c
}

type socketTransport struct {
	io *socket.Socket
}

func (t *socketTransport) emit(event string, payload any) {
	t.io.Emit(event, payload)
}

func (t *socketTransport) close() {
	t.io.Disconnect()
}

// Dial connects to the fleet and returns a ready cluster.
func Dial(ctx context.Context, cfg Config) (*Cluster, error) {
	cfg = cfg.withDefaults()
	logger := ctxlog.FromContext(ctx).With("cluster", "socketio", "url", cfg.URL)
	logger.Info("Connecting to remote cluster...")

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("invalid cluster URL %q: scheme and host are required", cfg.URL)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(cfg.Namespace, opts)

	c := newCluster(cfg, &socketTransport{io: io}, logger)
	io.On(types.EventName(cfg.ResultEvent), c.onResult)

	connectChan := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected to remote cluster.", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		var err error = fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		logger.Debug("Connection attempt failed.", "error", err)
		select {
		case connectChan <- err:
		default:
		}
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(cfg.ConnectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %v waiting for socket.io connection", cfg.ConnectTimeout)
	}

	io.On(types.EventName("disconnect"), c.onDisconnect)
	return c, nil
}

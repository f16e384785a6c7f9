// Package http_client provides operations that fetch data over HTTP so that
// remote responses can feed a graph.
package http_client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/specialistvlad/lazygrid/internal/ctxlog"
	"github.com/specialistvlad/lazygrid/internal/registry"
)

// DefaultTimeout bounds a request when the module has no client of its own.
const DefaultTimeout = 30 * time.Second

// Module implements the registry.Module interface. It's the main entrypoint
// for the http_client module.
type Module struct {
	// Client is shared by every request. Nil uses a client with DefaultTimeout.
	Client *http.Client
}

// Register registers the http_get and http_request operations.
func (m *Module) Register(r *registry.Registry) {
	client := m.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	r.RegisterOp("http_get", &registry.RegisteredOp{
		Fn: func(ctx context.Context, args []any) (any, error) {
			url, err := stringArg("url", args[0])
			if err != nil {
				return nil, err
			}
			return do(ctx, client, http.MethodGet, url, "")
		},
		MinArgs: 1,
		MaxArgs: 1,
		Doc:     "GET a URL; returns {status_code, body}",
	})
	r.RegisterOp("http_request", &registry.RegisteredOp{
		Fn: func(ctx context.Context, args []any) (any, error) {
			method, err := stringArg("method", args[0])
			if err != nil {
				return nil, err
			}
			url, err := stringArg("url", args[1])
			if err != nil {
				return nil, err
			}
			body := ""
			if len(args) == 3 {
				if body, err = stringArg("body", args[2]); err != nil {
					return nil, err
				}
			}
			return do(ctx, client, strings.ToUpper(method), url, body)
		},
		MinArgs: 2,
		MaxArgs: 3,
		Doc:     "send a request with a method, URL and optional body; returns {status_code, body}",
	})
}

func stringArg(name string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T", name, v)
	}
	return s, nil
}

func do(ctx context.Context, client *http.Client, method, url, body string) (any, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Making HTTP request", "method", method, "url", url)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	logger.Debug("Received HTTP response", "status", resp.Status)

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return map[string]any{
		"status_code": int64(resp.StatusCode),
		"body":        string(bodyBytes),
	}, nil
}

// Package engine detects and reconciles the host's container engine.
// Docker and Podman are both supported; Podman is driven through its
// docker-compatible API socket so the rest of the code speaks a single
// vocabulary.
package engine

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"

	"github.com/forgeup/forgeup/pkg/logger"
)

// Client wraps the docker SDK client together with the socket it was
// dialed on.
type Client struct {
	*client.Client
	Sock string
}

// NewClient dials the engine API on the given unix socket.
func NewClient(sock string) (*Client, error) {
	if sock == "" {
		return nil, fmt.Errorf("engine socket path is empty")
	}
	if _, err := os.Stat(sock); os.IsNotExist(err) {
		return nil, fmt.Errorf("engine socket does not exist: %s", sock)
	}

	host := "unix://" + sock
	cli, err := client.NewClientWithOpts(
		client.WithAPIVersionNegotiation(),
		client.WithHost(host),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine client: %w", err)
	}

	logger.Debug("Engine client initialized", "socket", sock)
	return &Client{Client: cli, Sock: sock}, nil
}

// Ping verifies the daemon behind the socket actually answers.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := c.ContainerList(ctx, container.ListOptions{}); err != nil {
		return fmt.Errorf("cannot connect to engine daemon on %s: %w", c.Sock, err)
	}
	return nil
}

// ServerVersion returns the daemon's reported version string.
func (c *Client) ServerVersion(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ver, err := c.Client.ServerVersion(ctx)
	if err != nil {
		return "", fmt.Errorf("querying engine version: %w", err)
	}
	return ver.Version, nil
}

// Package orchestrate drives the container engine: compose up/down,
// readiness polling, status and volume cleanup.
package orchestrate

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/volume"

	"github.com/forgeup/forgeup/internal/compose"
	"github.com/forgeup/forgeup/internal/engine"
	"github.com/forgeup/forgeup/internal/system"
	"github.com/forgeup/forgeup/pkg/logger"
)

// Labels compose attaches to every container of a project. Both docker
// compose and podman-compose set them; container names differ between the
// two tools, so the driver never parses names.
const (
	projectLabel = "com.docker.compose.project"
	serviceLabel = "com.docker.compose.service"
)

const (
	defaultPollInterval  = 2 * time.Second
	defaultReadyDeadline = 60 * time.Second
)

// API is the slice of the engine API the driver needs. *engine.Client
// satisfies it; tests substitute a fake.
type API interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	VolumeList(ctx context.Context, options volume.ListOptions) (volume.ListResponse, error)
	VolumeRemove(ctx context.Context, volumeID string, force bool) error
	Close() error
}

// Driver runs compose commands and inspects the result over the engine
// API.
type Driver struct {
	runner     system.Runner
	status     *engine.Status
	installDir string
	api        API

	pollInterval  time.Duration
	readyDeadline time.Duration
}

func NewDriver(r system.Runner, st *engine.Status, installDir string) *Driver {
	return &Driver{
		runner:        r,
		status:        st,
		installDir:    installDir,
		pollInterval:  defaultPollInterval,
		readyDeadline: defaultReadyDeadline,
	}
}

// NewDriverWithAPI builds a driver on an already-dialed engine API.
func NewDriverWithAPI(r system.Runner, st *engine.Status, installDir string, api API) *Driver {
	d := NewDriver(r, st, installDir)
	d.api = api
	return d
}

// client lazily dials the engine API and caches the connection.
func (d *Driver) client() (API, error) {
	if d.api != nil {
		return d.api, nil
	}
	cli, err := engine.NewClient(d.status.Sock)
	if err != nil {
		return nil, err
	}
	d.api = cli
	return cli, nil
}

// Close releases the engine API connection, if one was opened.
func (d *Driver) Close() error {
	if d.api == nil {
		return nil
	}
	err := d.api.Close()
	d.api = nil
	return err
}

func (d *Driver) manifestPath() string {
	return filepath.Join(d.installDir, "docker-compose.yml")
}

func (d *Driver) composeRun(ctx context.Context, args ...string) error {
	argv := append(append([]string{}, d.status.ComposeArgv...), "-f", d.manifestPath())
	argv = append(argv, args...)
	return d.runner.Run(ctx, argv[0], argv[1:]...)
}

// Up starts the deployment and waits until all services report running.
func (d *Driver) Up(ctx context.Context) error {
	if err := d.composeRun(ctx, "up", "-d"); err != nil {
		return fmt.Errorf("bringing services up: %w", err)
	}
	return d.waitReady(ctx)
}

// Down stops and removes the deployment's containers. Volumes survive;
// RemoveManagedVolumes deletes them separately when asked to.
func (d *Driver) Down(ctx context.Context) error {
	if err := d.composeRun(ctx, "down"); err != nil {
		return fmt.Errorf("bringing services down: %w", err)
	}
	return nil
}

// ContainerState describes one container of the deployment.
type ContainerState struct {
	Name    string
	Service string
	Image   string
	State   string
	Running bool
}

// Status lists the deployment's containers, running or not.
func (d *Driver) Status(ctx context.Context) ([]ContainerState, error) {
	cli, err := d.client()
	if err != nil {
		return nil, err
	}

	f := filters.NewArgs(filters.Arg("label", projectLabel+"="+compose.ProjectName))
	containers, err := cli.ContainerList(ctx, container.ListOptions{All: true, Filters: f})
	if err != nil {
		return nil, fmt.Errorf("listing deployment containers: %w", err)
	}

	states := make([]ContainerState, 0, len(containers))
	for _, c := range containers {
		name := ""
		if len(c.Names) > 0 {
			name = strings.TrimPrefix(c.Names[0], "/")
		}
		states = append(states, ContainerState{
			Name:    name,
			Service: c.Labels[serviceLabel],
			Image:   c.Image,
			State:   c.State,
			Running: c.State == "running",
		})
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Name < states[j].Name })
	return states, nil
}

// waitReady polls until the gitea, db and proxy services are all running,
// or the deadline passes.
func (d *Driver) waitReady(ctx context.Context) error {
	wanted := []string{compose.ServiceGitea, compose.ServiceDB, compose.ServiceProxy}

	deadline := time.Now().Add(d.readyDeadline)
	for {
		missing, err := d.missingServices(ctx, wanted)
		if err != nil {
			return err
		}
		if len(missing) == 0 {
			logger.Info("All services are running")
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("services not running after %s: %s",
				d.readyDeadline, strings.Join(missing, ", "))
		}

		logger.Debug("Waiting for services", "missing", strings.Join(missing, ", "))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.pollInterval):
		}
	}
}

func (d *Driver) missingServices(ctx context.Context, wanted []string) ([]string, error) {
	states, err := d.Status(ctx)
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, svc := range wanted {
		found := false
		for _, st := range states {
			if st.Running && st.Service == svc {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, svc)
		}
	}
	return missing, nil
}

// RemoveManagedVolumes deletes every volume this tool labelled as managed.
// It returns the names of the removed volumes.
func (d *Driver) RemoveManagedVolumes(ctx context.Context) ([]string, error) {
	cli, err := d.client()
	if err != nil {
		return nil, err
	}

	f := filters.NewArgs(filters.Arg("label", compose.ManagedLabel+"=true"))
	list, err := cli.VolumeList(ctx, volume.ListOptions{Filters: f})
	if err != nil {
		return nil, fmt.Errorf("listing managed volumes: %w", err)
	}

	var removed []string
	for _, v := range list.Volumes {
		if err := cli.VolumeRemove(ctx, v.Name, false); err != nil {
			return removed, fmt.Errorf("removing volume %s: %w", v.Name, err)
		}
		logger.Info("Removed volume", "name", v.Name)
		removed = append(removed, v.Name)
	}
	return removed, nil
}

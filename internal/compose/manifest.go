// Package compose renders the container-orchestration manifest for the
// deployment. The manifest is built from typed structs and marshalled
// with yaml.v3 so the output is always well-formed, whatever characters
// the password contains.
package compose

import (
	"fmt"

	"github.com/docker/go-connections/nat"
	"gopkg.in/yaml.v3"

	"github.com/forgeup/forgeup/internal/config"
)

// ProjectName is the compose project every generated manifest declares.
// The orchestration driver finds the deployment's containers by the
// project label the engine attaches from it.
const ProjectName = "gitea"

// ManagedLabel marks volumes created by this tool so the uninstaller can
// find them.
const ManagedLabel = "forgeup.managed"

// Image tags pinned to known-good releases.
const (
	GiteaImage    = "gitea/gitea:1.22"
	PostgresImage = "postgres:16-alpine"
	NginxImage    = "nginx:1.27-alpine"
)

// Service names inside the manifest. The proxy config and the readiness
// poll both refer to them.
const (
	ServiceGitea = "gitea"
	ServiceDB    = "db"
	ServiceProxy = "proxy"
)

// File is the top-level compose manifest.
type File struct {
	Name     string             `yaml:"name"`
	Services map[string]Service `yaml:"services"`
	Volumes  map[string]Volume  `yaml:"volumes"`
}

type Service struct {
	Image       string            `yaml:"image"`
	Restart     string            `yaml:"restart"`
	Environment []string          `yaml:"environment,omitempty"`
	Ports       []string          `yaml:"ports,omitempty"`
	Volumes     []string          `yaml:"volumes,omitempty"`
	DependsOn   []string          `yaml:"depends_on,omitempty"`
	Labels      map[string]string `yaml:"labels,omitempty"`
}

type Volume struct {
	Labels map[string]string `yaml:"labels,omitempty"`
}

// Build assembles the manifest for the given install configuration.
func Build(cfg *config.Install) (*File, error) {
	managed := map[string]string{ManagedLabel: "true"}

	giteaPorts := []string{fmt.Sprintf("%d:22", cfg.SSHPort)}
	proxyPorts := []string{fmt.Sprintf("%d:443", cfg.HTTPPort), "80:80"}
	for _, spec := range append(append([]string{}, giteaPorts...), proxyPorts...) {
		if err := validatePortSpec(spec); err != nil {
			return nil, err
		}
	}

	f := &File{
		Name: ProjectName,
		Services: map[string]Service{
			ServiceDB: {
				Image:   PostgresImage,
				Restart: "always",
				Environment: []string{
					"POSTGRES_DB=gitea",
					"POSTGRES_USER=gitea",
					"POSTGRES_PASSWORD=" + cfg.DBPassword,
				},
				Volumes: []string{"gitea-db-data:/var/lib/postgresql/data"},
				Labels:  managed,
			},
			ServiceGitea: {
				Image:   GiteaImage,
				Restart: "always",
				Environment: []string{
					"GITEA__database__DB_TYPE=postgres",
					"GITEA__database__HOST=db:5432",
					"GITEA__database__NAME=gitea",
					"GITEA__database__USER=gitea",
					"GITEA__database__PASSWD=" + cfg.DBPassword,
					fmt.Sprintf("GITEA__server__ROOT_URL=https://%s:%d/", cfg.ServerName(), cfg.HTTPPort),
					fmt.Sprintf("GITEA__server__SSH_PORT=%d", cfg.SSHPort),
					fmt.Sprintf("GITEA__server__SSH_DOMAIN=%s", cfg.ServerName()),
				},
				Ports:     giteaPorts,
				Volumes:   []string{"gitea-data:/data"},
				DependsOn: []string{ServiceDB},
				Labels:    managed,
			},
			ServiceProxy: {
				Image:     NginxImage,
				Restart:   "always",
				Ports:     proxyPorts,
				DependsOn: []string{ServiceGitea},
				Volumes: []string{
					"./nginx/gitea.conf:/etc/nginx/conf.d/default.conf:ro",
					"./certs:/etc/nginx/certs:ro",
				},
				Labels: managed,
			},
		},
		Volumes: map[string]Volume{
			"gitea-data":    {Labels: managed},
			"gitea-db-data": {Labels: managed},
		},
	}
	return f, nil
}

// Render marshals the manifest for the given configuration.
func Render(cfg *config.Install) ([]byte, error) {
	f, err := Build(cfg)
	if err != nil {
		return nil, err
	}
	out, err := yaml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshalling compose manifest: %w", err)
	}
	return out, nil
}

// validatePortSpec checks a "host:container" publish spec with the same
// parser the engine itself uses.
func validatePortSpec(spec string) error {
	if _, err := nat.ParsePortSpec(spec); err != nil {
		return fmt.Errorf("invalid port specification %q: %w", spec, err)
	}
	return nil
}

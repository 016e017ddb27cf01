// Package config resolves the installation configuration from command-line
// flags, environment variables and an optional .env file. The resolved
// record is immutable: every later step reads it, none mutates it.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/forgeup/forgeup/pkg/logger"
)

// Engine identifies the container engine driving the deployment.
type Engine string

const (
	EngineNone   Engine = ""
	EngineDocker Engine = "docker"
	EnginePodman Engine = "podman"
)

// Install is the resolved installation configuration. Fields are
// interpolated verbatim into the generated compose manifest, the nginx
// site config and the README.
type Install struct {
	DBPassword string
	InstallDir string
	SSHPort    int
	HTTPPort   int
	IPAddress  string
	Domain     string
	Engine     Engine

	// AssumeYes skips interactive confirmation prompts.
	AssumeYes bool
	// DryRun renders files without starting anything.
	DryRun bool
	// Force allows otherwise-refused settings, such as SSH port 22.
	Force bool
}

// Flags holds the raw command-line input before resolution. Zero values
// mean "not given on the command line".
type Flags struct {
	DBPassword string
	InstallDir string
	SSHPort    int
	HTTPPort   int
	IPAddress  string
	Domain     string
	AssumeYes  bool
	DryRun     bool
	Force      bool
}

const (
	defaultInstallDir = "/opt/gitea"
	defaultSSHPort    = 2222
	defaultHTTPPort   = 443
)

// Resolve builds the install configuration from flags, environment
// variables and a .env file in the working directory. Precedence:
// flags, then environment, then .env, then defaults.
func Resolve(flags Flags) (*Install, error) {
	// godotenv.Load never overrides variables already set in the
	// environment, which gives the env-over-.env precedence for free.
	if err := godotenv.Load(); err == nil {
		logger.Debug("Loaded .env file from working directory")
	}

	cfg := &Install{
		DBPassword: firstNonEmpty(flags.DBPassword, os.Getenv("FORGEUP_DB_PASSWORD")),
		InstallDir: firstNonEmpty(flags.InstallDir, os.Getenv("FORGEUP_INSTALL_DIR"), defaultInstallDir),
		IPAddress:  firstNonEmpty(flags.IPAddress, os.Getenv("FORGEUP_IP")),
		Domain:     firstNonEmpty(flags.Domain, os.Getenv("FORGEUP_DOMAIN")),
		SSHPort:    flags.SSHPort,
		HTTPPort:   flags.HTTPPort,
		AssumeYes:  flags.AssumeYes,
		DryRun:     flags.DryRun,
		Force:      flags.Force,
	}

	if cfg.SSHPort == 0 {
		cfg.SSHPort = envPort("FORGEUP_SSH_PORT", defaultSSHPort)
	}
	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = defaultHTTPPort
	}

	if cfg.DBPassword == "" {
		return nil, fmt.Errorf("database password is required: set --db-password or FORGEUP_DB_PASSWORD")
	}
	if err := validatePort("ssh port", cfg.SSHPort); err != nil {
		return nil, err
	}
	// Publishing 22:22 would fight the host's own sshd.
	if cfg.SSHPort == 22 && !cfg.Force {
		return nil, fmt.Errorf("ssh port 22 collides with the host sshd: pick another port or pass --force")
	}
	if err := validatePort("http port", cfg.HTTPPort); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(cfg.InstallDir)
	if err != nil {
		return nil, fmt.Errorf("invalid install directory %q: %w", cfg.InstallDir, err)
	}
	cfg.InstallDir = abs

	if cfg.IPAddress == "" {
		ip, err := DetectIP()
		if err != nil {
			return nil, fmt.Errorf("no --ip given and autodetection failed: %w", err)
		}
		logger.Info("Autodetected host IP address", "ip", ip)
		cfg.IPAddress = ip
	}
	if net.ParseIP(cfg.IPAddress) == nil {
		return nil, fmt.Errorf("invalid ip address %q", cfg.IPAddress)
	}

	return cfg, nil
}

// WithEngine returns a copy of the record with the detected engine
// filled in. The receiver is left untouched.
func (c *Install) WithEngine(e Engine) *Install {
	out := *c
	out.Engine = e
	return &out
}

// ServerName returns the name the reverse proxy answers to: the domain
// when one was given, the IP address otherwise.
func (c *Install) ServerName() string {
	if c.Domain != "" {
		return c.Domain
	}
	return c.IPAddress
}

// UsesDomain reports whether the deployment is addressed by domain name.
func (c *Install) UsesDomain() bool {
	return c.Domain != ""
}

func validatePort(name string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid %s %d: must be within 1-65535", name, port)
	}
	return nil
}

func envPort(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	port, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn("Ignoring non-numeric port in environment", "var", key, "value", v)
		return fallback
	}
	return port
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

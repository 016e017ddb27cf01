package compose

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a previously rendered manifest back in. The uninstaller uses
// it to recover the ports the install opened.
func Load(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(content, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}
	return &f, nil
}

// EnvValue returns the value of a service's environment entry, or ""
// when the service or the key is absent.
func (f *File) EnvValue(service, key string) string {
	for _, entry := range f.Services[service].Environment {
		if k, v, found := strings.Cut(entry, "="); found && k == key {
			return v
		}
	}
	return ""
}

// PublishedPorts returns every host port the manifest publishes, in
// no particular order.
func (f *File) PublishedPorts() []int {
	var ports []int
	for _, svc := range f.Services {
		for _, spec := range svc.Ports {
			host, _, found := strings.Cut(spec, ":")
			if !found {
				continue
			}
			port, err := strconv.Atoi(host)
			if err != nil {
				continue
			}
			ports = append(ports, port)
		}
	}
	return ports
}

package engine

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/forgeup/forgeup/internal/config"
)

// Minimum daemon versions known to ship a working compose plugin and the
// labels API the driver relies on.
var minimumVersions = map[config.Engine]string{
	config.EngineDocker: ">= 20.10.0",
	config.EnginePodman: ">= 4.0.0",
}

// CheckMinimumVersion validates the daemon's reported version against the
// minimum supported version for the engine.
func CheckMinimumVersion(e config.Engine, version string) error {
	constraintStr, ok := minimumVersions[e]
	if !ok {
		return fmt.Errorf("unknown engine %q", e)
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("cannot parse %s version %q: %w", e, version, err)
	}
	constraint, err := semver.NewConstraint(constraintStr)
	if err != nil {
		return fmt.Errorf("bad version constraint %q: %w", constraintStr, err)
	}

	if !constraint.Check(v) {
		return fmt.Errorf("%s %s is too old: need %s", e, version, constraintStr)
	}
	return nil
}

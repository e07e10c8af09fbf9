package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/jenkinsci/incrementals-tools/changelist"
	"github.com/jenkinsci/incrementals-tools/errors"
)

// IsCompatible checks if a file's version is compatible with SchemaVersion.
// Uses caret constraint (^) for semantic version compatibility, so for 0.x.y
// only patch versions of the same minor version are compatible.
//
// Returns false (with no error) if versions are incompatible.
// Returns an error if the version string is invalid.
func IsCompatible(fileVersion string) (bool, error) {
	constraint, err := semver.NewConstraint("^" + SchemaVersion)
	if err != nil {
		return false, fmt.Errorf("invalid schema version: %w", err)
	}

	v, err := semver.NewVersion(fileVersion)
	if err != nil {
		return false, fmt.Errorf("invalid configuration version %q: %w", fileVersion, err)
	}

	return constraint.Check(v), nil
}

// Validate checks the settings and reports every problem found.
func (c *Config) Validate() error {
	var problems []string

	if c.Version != "" {
		ok, err := IsCompatible(c.Version)
		switch {
		case err != nil:
			problems = append(problems, err.Error())
		case !ok:
			problems = append(problems, fmt.Sprintf("version %s is not compatible with %s", c.Version, SchemaVersion))
		}
	}

	if len(c.Repositories) == 0 {
		problems = append(problems, "at least one repository is required")
	}
	for _, repo := range c.Repositories {
		if err := validateURL(repo, "http", "https", "file"); err != nil {
			problems = append(problems, fmt.Sprintf("repository %q: %v", repo, err))
		}
	}

	if strings.TrimSpace(c.Branch) == "" {
		problems = append(problems, "branch cannot be empty")
	}

	if c.Timeout <= 0 {
		problems = append(problems, fmt.Sprintf("timeout must be positive, got %s", c.Timeout))
	}

	if err := validateURL(c.Hosting.APIURL, "http", "https"); err != nil {
		problems = append(problems, fmt.Sprintf("hosting.apiURL %q: %v", c.Hosting.APIURL, err))
	}
	if len(c.Hosting.Hosts) == 0 {
		problems = append(problems, "hosting.hosts cannot be empty")
	}
	for _, host := range c.Hosting.Hosts {
		if host == "" || strings.ContainsAny(host, "/: ") {
			problems = append(problems, fmt.Sprintf("hosting.hosts: %q is not a host name", host))
		}
	}

	if _, err := changelist.Format(c.Changelist.Format, 1, "0123456789ab"); err != nil {
		problems = append(problems, "changelist.format: "+err.Error())
	}
	switch c.Changelist.StatusReader {
	case StatusReaderNative, StatusReaderCLI:
	default:
		problems = append(problems, fmt.Sprintf("changelist.statusReader must be %q or %q, got %q",
			StatusReaderNative, StatusReaderCLI, c.Changelist.StatusReader))
	}

	if len(problems) > 0 {
		return errors.New(
			errors.CodeInvalidConfig,
			fmt.Sprintf("configuration validation failed: %s", strings.Join(problems, "; ")),
		)
	}
	return nil
}

func validateURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	for _, s := range schemes {
		if u.Scheme == s {
			if s != "file" && u.Host == "" {
				return fmt.Errorf("missing host")
			}
			return nil
		}
	}
	return fmt.Errorf("scheme must be one of %s", strings.Join(schemes, ", "))
}

// Package config loads and validates the settings of the incrementals tools.
//
// Settings live in a YAML file:
//
//	version: 0.1.0
//	repositories:
//	  - https://repo.jenkins-ci.org/releases/
//	  - https://repo.jenkins-ci.org/incrementals/
//	branch: master
//	timeout: 15s
//	hosting:
//	  apiURL: https://api.github.com/
//	  hosts: [github.com]
//	  tokenEnv: GITHUB_TOKEN
//	changelist:
//	  format: -rc%d.%s
//	  ignoreDirt: false
//	  statusReader: native
//
// Every field is optional. Missing fields keep the values of Default.
//
// # Basic Usage
//
//	cfg, path, err := config.Discover(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if path == "" {
//	    fmt.Println("using built-in defaults")
//	}
//
// Load a specific file:
//
//	cfg, err := config.LoadFile(ctx, "/etc/incrementals.yaml")
package config

import (
	"os"
	"time"

	"github.com/jenkinsci/incrementals-tools/changelist"
)

// SchemaVersion is the current settings schema version. Files declare the
// version they were written for in their version field.
const SchemaVersion = "0.1.0"

// FileName is the settings file looked up in the XDG config directories.
const FileName = "incrementals/config.yaml"

// Defaults.
const (
	DefaultReleasesRepository     = "https://repo.jenkins-ci.org/releases/"
	DefaultIncrementalsRepository = "https://repo.jenkins-ci.org/incrementals/"
	DefaultBranch                 = "master"
	DefaultAPIURL                 = "https://api.github.com/"
	DefaultHost                   = "github.com"
	DefaultTokenEnv               = "GITHUB_TOKEN"
	DefaultTimeout                = 15 * time.Second
	DefaultChangelistFormat       = changelist.DefaultFormat
)

// Status readers.
const (
	StatusReaderNative = "native"
	StatusReaderCLI    = "cli"
)

// Config holds all settings.
type Config struct {
	Version      string        `yaml:"version"`
	Repositories []string      `yaml:"repositories"`
	Branch       string        `yaml:"branch"`
	Timeout      time.Duration `yaml:"timeout"`
	Hosting      Hosting       `yaml:"hosting"`
	Changelist   Changelist    `yaml:"changelist"`
}

// Hosting configures the hosting service used for ancestry checks.
type Hosting struct {
	APIURL string `yaml:"apiURL"`

	// Hosts are recognized in scm URLs of descriptors.
	Hosts []string `yaml:"hosts"`

	// TokenEnv names the environment variable holding the API token.
	TokenEnv string `yaml:"tokenEnv"`
}

// Changelist configures revision identification.
type Changelist struct {
	Format       string `yaml:"format"`
	IgnoreDirt   bool   `yaml:"ignoreDirt"`
	StatusReader string `yaml:"statusReader"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Version:      SchemaVersion,
		Repositories: []string{DefaultReleasesRepository, DefaultIncrementalsRepository},
		Branch:       DefaultBranch,
		Timeout:      DefaultTimeout,
		Hosting: Hosting{
			APIURL:   DefaultAPIURL,
			Hosts:    []string{DefaultHost},
			TokenEnv: DefaultTokenEnv,
		},
		Changelist: Changelist{
			Format:       DefaultChangelistFormat,
			StatusReader: StatusReaderNative,
		},
	}
}

// Token returns the hosting API token from the environment, or "" if unset.
// A nil lookupEnv uses os.LookupEnv.
func (c *Config) Token(lookupEnv func(string) (string, bool)) string {
	if c.Hosting.TokenEnv == "" {
		return ""
	}
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	token, _ := lookupEnv(c.Hosting.TokenEnv)
	return token
}

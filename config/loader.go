package config

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"

	"github.com/jenkinsci/incrementals-tools/errors"
)

// Load reads the settings file at path from fsys, applies it over Default
// and validates the result. Unknown fields are rejected.
func Load(ctx context.Context, fsys billy.Filesystem, path string) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := util.ReadFile(fsys, path)
	if err != nil {
		code := errors.CodeInternal
		if stderrors.Is(err, os.ErrNotExist) {
			code = errors.CodeNotFound
		}
		return nil, errors.WrapWithContext(
			err,
			code,
			"failed to read configuration",
			map[string]interface{}{
				"path": path,
			},
		)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, errors.WrapWithContext(
			err,
			errors.CodeInvalidConfig,
			"failed to decode configuration",
			map[string]interface{}{
				"path": path,
			},
		)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapWithContext(
			err,
			errors.CodeInvalidConfig,
			"invalid configuration",
			map[string]interface{}{
				"path": path,
			},
		)
	}

	return cfg, nil
}

// LoadFile loads the settings file at path on the local filesystem.
func LoadFile(ctx context.Context, path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInvalidInput, "invalid configuration path %q", path)
	}
	return Load(ctx, osfs.New(filepath.Dir(abs)), filepath.Base(abs))
}

// Discover loads FileName from the XDG config directories. When no file
// exists it returns Default and an empty path.
func Discover(ctx context.Context) (*Config, string, error) {
	path, err := xdg.SearchConfigFile(FileName)
	if err != nil {
		return Default(), "", nil
	}

	cfg, err := LoadFile(ctx, path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

func parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

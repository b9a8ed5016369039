package engine

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/socforge/socforge/internal/domain/config"
	"github.com/socforge/socforge/internal/ports"
)

// manifest is the shape of the engine's collection requirements file.
type manifest struct {
	Collections []struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"collections"`
}

// Collections installs the engine's required plugin collections from a
// declarative manifest.
type Collections struct {
	runner       ports.CommandRunner
	fs           ports.FileSystem
	manifestPath string
}

// NewCollections creates a collection installer.
func NewCollections(settings config.Settings, runner ports.CommandRunner, fs ports.FileSystem) *Collections {
	return &Collections{
		runner:       runner,
		fs:           fs,
		manifestPath: settings.ManifestPath,
	}
}

// Names lists the collection names declared in the manifest. A missing
// manifest is fatal: it means the repository checkout is incomplete, not
// a transient condition. A manifest that exists but does not parse
// returns a CONFIG_PARSE error; callers may treat it as advisory since
// the engine validates the file authoritatively on install.
func (c *Collections) Names() ([]string, error) {
	if !c.fs.Exists(c.manifestPath) {
		return nil, c.missingManifest()
	}

	data, err := c.fs.ReadFile(c.manifestPath)
	if err != nil {
		return nil, err
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, config.NewUserError(config.ErrCodeConfigParse,
			fmt.Sprintf("collection manifest %s did not parse", c.manifestPath)).
			WithContext(c.manifestPath).
			WithUnderlying(err)
	}

	names := make([]string, 0, len(m.Collections))
	for _, col := range m.Collections {
		names = append(names, col.Name)
	}
	return names, nil
}

// Install runs ansible-galaxy against the manifest, forcing dependency
// resolution so repeat runs pick up updated collections.
func (c *Collections) Install(ctx context.Context) error {
	if !c.fs.Exists(c.manifestPath) {
		return c.missingManifest()
	}

	result, err := c.runner.Run(ctx, "ansible-galaxy", "collection", "install", "-r", c.manifestPath, "--force")
	if err != nil {
		return err
	}
	if !result.Success() {
		return config.NewUserError(config.ErrCodeCollectionInstall,
			"ansible-galaxy collection install failed").
			WithContext(c.manifestPath).
			WithSuggestion("Galaxy downloads need outbound HTTPS; check proxy settings and retry.").
			WithUnderlying(fmt.Errorf("%s", strings.TrimSpace(result.Stderr)))
	}
	return nil
}

func (c *Collections) missingManifest() error {
	return config.NewUserError(config.ErrCodeManifestMissing,
		fmt.Sprintf("collection manifest %s not found", c.manifestPath)).
		WithContext(c.manifestPath).
		WithSuggestion("The repository checkout is incomplete. Re-clone it and run the installer from the repository root.")
}

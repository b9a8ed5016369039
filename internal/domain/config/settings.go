// Package config holds the orchestrator's immutable run settings.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings is the full configuration for one orchestrator run. It is
// constructed once at process start and passed explicitly to every
// component; nothing mutates it afterwards.
type Settings struct {
	// Audit trail
	AuditLogPath string

	// Files the automation engine consumes, repo-relative by convention.
	PlaybookPath  string
	InventoryPath string
	ManifestPath  string

	// Version gates
	MinEngineVersion string
	// RecommendedOSVersion maps an os-release ID to the version below
	// which the OS check warns (but does not fail).
	RecommendedOSVersion map[string]string
	SupportedOSFamilies  []string

	// Advisory resource thresholds.
	MinRAMGiB      int
	MinFreeDiskGiB int

	// Connectivity preflight probe.
	ConnectivityProbeURL string
	ProbeTimeout         time.Duration

	// Package index refresh staleness threshold.
	AptStaleness time.Duration
	AptListsDir  string

	// OS packages the run requires.
	RequiredPackages []string

	// Endpoints printed in the success summary.
	ServiceEndpoints map[string]string

	// Console color, decided once from output-stream capability.
	Color bool
}

// Default returns the conventional settings for a deployment run rooted
// at the repository directory.
func Default() Settings {
	return Settings{
		AuditLogPath:     "/var/log/socforge/install.log",
		PlaybookPath:     "site.yml",
		InventoryPath:    "inventory.yml",
		ManifestPath:     "requirements.yml",
		MinEngineVersion: "2.14.0",
		RecommendedOSVersion: map[string]string{
			"ubuntu":    "22.04",
			"debian":    "12",
			"rhel":      "9",
			"rocky":     "9",
			"almalinux": "9",
		},
		SupportedOSFamilies:  []string{"ubuntu", "debian", "rhel", "rocky", "almalinux"},
		MinRAMGiB:            16,
		MinFreeDiskGiB:       100,
		ConnectivityProbeURL: "https://download.docker.com",
		ProbeTimeout:         5 * time.Second,
		AptStaleness:         time.Hour,
		AptListsDir:          "/var/lib/apt/lists",
		RequiredPackages:     []string{"ansible", "git", "python3", "python3-pip", "jq", "curl"},
		ServiceEndpoints: map[string]string{
			"SIEM / EDR dashboard": "https://localhost:443",
			"Case management":      "http://localhost:9000",
			"SOAR platform":        "http://localhost:3001",
			"Threat intelligence":  "https://localhost:8443",
		},
		Color: true,
	}
}

// overrides is the subset of Settings an operator may tune through the
// optional socforge.yaml file.
type overrides struct {
	AuditLogPath         string `yaml:"audit_log"`
	MinEngineVersion     string `yaml:"min_engine_version"`
	MinRAMGiB            int    `yaml:"min_ram_gib"`
	MinFreeDiskGiB       int    `yaml:"min_free_disk_gib"`
	ConnectivityProbeURL string `yaml:"probe_url"`
	ProbeTimeoutSeconds  int    `yaml:"probe_timeout_seconds"`
}

// Load returns Default overlaid with the optional override file at path.
// A missing file is not an error; a malformed one is.
func Load(path string) (Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read %s: %w", path, err)
	}

	var o overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return s, NewUserError(ErrCodeConfigParse, "failed to parse override file").
			WithContext(path).
			WithSuggestion("Check the YAML syntax; keys are audit_log, min_engine_version, min_ram_gib, min_free_disk_gib, probe_url, probe_timeout_seconds.").
			WithUnderlying(err)
	}

	if o.AuditLogPath != "" {
		s.AuditLogPath = o.AuditLogPath
	}
	if o.MinEngineVersion != "" {
		s.MinEngineVersion = o.MinEngineVersion
	}
	if o.MinRAMGiB > 0 {
		s.MinRAMGiB = o.MinRAMGiB
	}
	if o.MinFreeDiskGiB > 0 {
		s.MinFreeDiskGiB = o.MinFreeDiskGiB
	}
	if o.ConnectivityProbeURL != "" {
		s.ConnectivityProbeURL = o.ConnectivityProbeURL
	}
	if o.ProbeTimeoutSeconds > 0 {
		s.ProbeTimeout = time.Duration(o.ProbeTimeoutSeconds) * time.Second
	}

	return s, nil
}

package deploy_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socforge/socforge/internal/adapters/logging"
	"github.com/socforge/socforge/internal/domain/audit"
	"github.com/socforge/socforge/internal/domain/config"
	"github.com/socforge/socforge/internal/domain/deploy"
	"github.com/socforge/socforge/internal/domain/engine"
	"github.com/socforge/socforge/internal/domain/hostcheck"
	"github.com/socforge/socforge/internal/domain/pkgmgr"
	"github.com/socforge/socforge/internal/ports"
	"github.com/socforge/socforge/internal/testutil/mocks"
)

const dpkgFormat = "-f=${Package}\t${Version}\t${db:Status-Status}\n"

// fixture assembles a pipeline whose host, commands and delegate are all
// mocked. Knobs default to the happy path of scenario A.
type fixture struct {
	settings config.Settings
	fs       *mocks.FileSystem
	runner   *mocks.CommandRunner
	stream   *mocks.StreamRunner
	euid     int
	diskFree uint64
	console  bytes.Buffer
	audit    string
	trail    *audit.Trail
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	settings := config.Default()
	settings.ConnectivityProbeURL = server.URL
	settings.RequiredPackages = []string{"ansible", "git"}
	settings.AuditLogPath = filepath.Join(t.TempDir(), "install.log")
	settings.Color = false

	fs := mocks.NewFileSystem()
	fs.AddFile("/etc/os-release", []byte("ID=ubuntu\nVERSION_ID=\"22.04\"\n"))
	fs.AddFile("/proc/meminfo", []byte("MemTotal:       33554432 kB\n")) // 32 GiB
	fs.AddDir(settings.AptListsDir, time.Now())
	fs.AddFile(settings.ManifestPath, []byte("collections:\n  - name: community.docker\n"))
	fs.AddFile(settings.PlaybookPath, []byte("---\n- hosts: all\n"))
	fs.AddFile(settings.InventoryPath, []byte("all:\n  hosts:\n    localhost:\n"))

	runner := mocks.NewCommandRunner()
	for _, pkg := range settings.RequiredPackages {
		runner.AddResult("dpkg-query", []string{"-W", dpkgFormat, pkg}, ports.CommandResult{
			ExitCode: 0,
			Stdout:   pkg + "\t1.0\tinstalled\n",
		})
	}
	runner.AddResult("ansible", []string{"--version"}, ports.CommandResult{
		ExitCode: 0,
		Stdout:   "ansible [core 2.16.1]\n",
	})
	runner.AddResult("ansible-galaxy",
		[]string{"collection", "install", "-r", settings.ManifestPath, "--force"},
		ports.CommandResult{ExitCode: 0})

	stream := mocks.NewStreamRunner()
	stream.Output = "PLAY RECAP *********\nlocalhost : ok=42 failed=0\n"

	return &fixture{
		settings: settings,
		fs:       fs,
		runner:   runner,
		stream:   stream,
		euid:     0,
		diskFree: 200 << 30,
		audit:    settings.AuditLogPath,
	}
}

func (f *fixture) pipeline(t *testing.T) *deploy.Pipeline {
	t.Helper()

	f.trail = audit.Open(f.audit)
	t.Cleanup(f.trail.Close)

	checker := hostcheck.NewChecker(f.settings,
		hostcheck.WithFileSystem(f.fs),
		hostcheck.WithEUID(func() int { return f.euid }),
		hostcheck.WithDiskFree(func(string) (uint64, error) { return f.diskFree, nil }),
	)

	logger := logging.NewConsoleLogger(
		logging.WithOutput(&f.console),
		logging.WithColor(false),
		logging.WithTimestamp(false),
	)

	return deploy.NewPipeline(
		f.settings,
		logger,
		f.trail,
		checker,
		pkgmgr.NewApt(f.settings, f.runner, f.fs),
		engine.NewGate(f.settings, f.runner),
		engine.NewCollections(f.settings, f.runner, f.fs),
		engine.NewPlaybook(f.settings, f.stream, f.fs),
		deploy.NewReporter(&f.console, f.settings),
		&f.console,
	)
}

func (f *fixture) auditContent(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.audit)
	require.NoError(t, err)
	return string(data)
}

func TestPipeline_FullSuccess(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := f.pipeline(t)

	err := p.Run(context.Background(), []string{"socforge", "up"}, nil)
	require.NoError(t, err)

	console := f.console.String()
	assert.Contains(t, console, "Deployment complete")
	assert.Contains(t, console, "Audit log: "+f.audit)
	assert.Contains(t, console, "SIEM / EDR dashboard")

	content := f.auditContent(t)
	assert.Contains(t, content, "== deployment run")
	assert.Contains(t, content, "privilege: running as root")
	assert.Contains(t, content, "os: ubuntu 22.04")
	assert.Contains(t, content, "PLAY RECAP")
	assert.Contains(t, content, "[OK] ansible-playbook completed successfully")

	// All packages present: no install action ran.
	for _, call := range f.runner.Calls() {
		assert.NotEqual(t, "apt-get", call.Command)
	}
}

func TestPipeline_PassthroughArgumentsReachDelegate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	p := f.pipeline(t)

	err := p.Run(context.Background(), []string{"socforge", "up"}, []string{"--check", "--skip-tags", "intel"})
	require.NoError(t, err)

	calls := f.stream.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{
		"-i", f.settings.InventoryPath, f.settings.PlaybookPath,
		"--check", "--skip-tags", "intel",
	}, calls[0].Args)
}

func TestPipeline_PrivilegeAbortHasNoSideEffects(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.euid = 1000
	p := f.pipeline(t)

	err := p.Run(context.Background(), []string{"socforge", "up"}, nil)
	require.Error(t, err)
	assert.True(t, config.IsUserError(err, config.ErrCodePrivilegeRequired))

	// Aborted before any package query or install.
	assert.Empty(t, f.runner.Calls())
	assert.Empty(t, f.stream.Calls())
}

func TestPipeline_ConnectivityTimeoutAbortsBeforeInstall(t *testing.T) {
	t.Parallel()

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(slow.Close)

	f := newFixture(t)
	f.settings.ConnectivityProbeURL = slow.URL
	f.settings.ProbeTimeout = 50 * time.Millisecond
	p := f.pipeline(t)

	err := p.Run(context.Background(), []string{"socforge", "up"}, nil)
	require.Error(t, err)
	assert.True(t, config.IsUserError(err, config.ErrCodeNetworkUnreachable))

	assert.Empty(t, f.runner.Calls())
	assert.Contains(t, f.console.String(), "Deployment failed")
}

func TestPipeline_LowResourcesWarnButContinue(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.fs.AddFile("/proc/meminfo", []byte("MemTotal:       8388608 kB\n")) // 8 GiB
	f.diskFree = 10 << 30
	p := f.pipeline(t)

	err := p.Run(context.Background(), []string{"socforge", "up"}, nil)
	require.NoError(t, err)

	console := f.console.String()
	assert.Contains(t, console, "[WARN ] ram:")
	assert.Contains(t, console, "[WARN ] disk:")
	assert.Contains(t, console, "Deployment complete")
}

func TestPipeline_VersionGateFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.runner.AddResult("ansible", []string{"--version"}, ports.CommandResult{
		ExitCode: 0,
		Stdout:   "ansible 2.10.3\n",
	})
	p := f.pipeline(t)

	err := p.Run(context.Background(), []string{"socforge", "up"}, nil)
	require.Error(t, err)
	assert.True(t, config.IsUserError(err, config.ErrCodeEngineTooOld))

	// No collection install and no delegate invocation followed.
	for _, call := range f.runner.Calls() {
		assert.NotEqual(t, "ansible-galaxy", call.Command)
	}
	assert.Empty(t, f.stream.Calls())
	assert.Contains(t, f.console.String(), "Deployment failed")
}

func TestPipeline_MissingManifestAborts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.settings.ManifestPath = filepath.Join(t.TempDir(), "absent.yml")
	p := f.pipeline(t)

	err := p.Run(context.Background(), []string{"socforge", "up"}, nil)
	require.Error(t, err)
	assert.True(t, config.IsUserError(err, config.ErrCodeManifestMissing))
	assert.Empty(t, f.stream.Calls())
}

func TestPipeline_UnparseableManifestWarnsAndContinues(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.fs.AddFile(f.settings.ManifestPath, []byte("collections: [broken\n"))
	p := f.pipeline(t)

	err := p.Run(context.Background(), []string{"socforge", "up"}, nil)
	require.NoError(t, err)

	console := f.console.String()
	assert.Contains(t, console, "[WARN ] collection manifest "+f.settings.ManifestPath+" did not parse")
	assert.Contains(t, console, "collections installed from "+f.settings.ManifestPath)
	assert.Contains(t, console, "Deployment complete")

	// Galaxy still ran against the raw file.
	galaxy := 0
	for _, call := range f.runner.Calls() {
		if call.Command == "ansible-galaxy" {
			galaxy++
		}
	}
	assert.Equal(t, 1, galaxy)
}

func TestPipeline_DelegateFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.stream.ExitCode = 2
	f.stream.Output = "fatal: [localhost]: FAILED! => port 9000 already in use\n"
	p := f.pipeline(t)

	err := p.Run(context.Background(), []string{"socforge", "up"}, nil)
	require.Error(t, err)
	assert.True(t, config.IsUserError(err, config.ErrCodeDelegateFailed))

	console := f.console.String()
	assert.Contains(t, console, "Deployment failed")
	assert.Contains(t, console, "tail -n 100 "+f.audit)

	// The delegate's output landed in the audit trail verbatim.
	assert.Contains(t, f.auditContent(t), "port 9000 already in use")
}

func TestPipeline_StaleIndexRefreshedOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.fs.AddDir(f.settings.AptListsDir, time.Now().Add(-3*time.Hour))
	f.runner.AddResult("apt-get", []string{"update"}, ports.CommandResult{ExitCode: 0})
	p := f.pipeline(t)

	err := p.Run(context.Background(), []string{"socforge", "up"}, nil)
	require.NoError(t, err)

	updates := 0
	for _, call := range f.runner.Calls() {
		if call.Command == "apt-get" && len(call.Args) == 1 && call.Args[0] == "update" {
			updates++
		}
	}
	assert.Equal(t, 1, updates)
	assert.Contains(t, f.console.String(), "package index refreshed")
}

func TestPipeline_Preflight(t *testing.T) {
	t.Parallel()

	t.Run("healthy host passes", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		p := f.pipeline(t)
		assert.NoError(t, p.Preflight(context.Background()))
	})

	t.Run("non-root fails", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.euid = 1000
		p := f.pipeline(t)
		assert.Error(t, p.Preflight(context.Background()))
	})
}

package audit_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/socforge/socforge/internal/domain/audit"
	"github.com/socforge/socforge/internal/ports"
)

func TestTrail_BannerAndLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "install.log")
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	trail := audit.Open(path, audit.WithClock(func() time.Time { return fixed }))
	trail.Banner([]string{"socforge", "up"})
	trail.Log(ports.LevelOK, "privilege: running as root")
	trail.Log(ports.LevelWarn, "ram: 8.0 GiB installed, 16 GiB recommended")
	trail.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "== deployment run "+trail.RunID())
	assert.Contains(t, content, "== started 2025-06-01T12:00:00Z")
	assert.Contains(t, content, "== argv: socforge up")
	assert.Contains(t, content, "2025-06-01 12:00:00 [OK] privilege: running as root")
	assert.Contains(t, content, "[WARN] ram: 8.0 GiB installed")
}

func TestTrail_AppendsAcrossRuns(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "install.log")

	first := audit.Open(path)
	first.Banner([]string{"socforge", "up"})
	first.Close()

	second := audit.Open(path)
	second.Banner([]string{"socforge", "up", "--", "--check"})
	second.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, string(data), first.RunID())
	assert.Contains(t, string(data), second.RunID())
}

func TestTrail_WriterAppendsVerbatim(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "install.log")

	payload := []byte("TASK [siem : start containers] ***\nok: [localhost]\n")

	trail := audit.Open(path)
	n, err := trail.Writer().Write(payload)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	trail.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "TASK [siem : start containers]")
}

func TestTrail_OpenFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	// Parent "directory" is a regular file, so the open fails.
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	var errOut bytes.Buffer
	trail := audit.Open(filepath.Join(blocker, "install.log"), audit.WithErrorOutput(&errOut))

	// Writes are swallowed, the failure is reported once, nothing panics.
	trail.Banner([]string{"socforge", "up"})
	trail.Log(ports.LevelInfo, "still running")
	_, err := trail.Writer().Write([]byte("delegate output\n"))
	assert.NoError(t, err)
	trail.Close()

	assert.Contains(t, errOut.String(), "audit log unavailable")
	assert.Equal(t, 1, bytes.Count(errOut.Bytes(), []byte("audit log unavailable")))
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	trail := audit.Discard()
	trail.Banner([]string{"socforge", "check"})
	trail.Log(ports.LevelInfo, "dropped")
	_, err := trail.Writer().Write([]byte("dropped"))
	assert.NoError(t, err)
	assert.NotEmpty(t, trail.RunID())
}

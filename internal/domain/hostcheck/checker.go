package hostcheck

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"syscall"

	"gopkg.in/ini.v1"

	"github.com/socforge/socforge/internal/domain/config"
	"github.com/socforge/socforge/internal/domain/version"
	"github.com/socforge/socforge/internal/ports"
)

const (
	osReleasePath = "/etc/os-release"
	meminfoPath   = "/proc/meminfo"
)

// Checker runs the read-only preflight validations. All host probes are
// injectable so the checks stay testable off-host.
type Checker struct {
	settings config.Settings
	fs       ports.FileSystem
	euid     func() int
	diskFree func(path string) (uint64, error)
	client   *http.Client
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithFileSystem sets the file system used to read os-release and meminfo.
func WithFileSystem(fs ports.FileSystem) CheckerOption {
	return func(c *Checker) { c.fs = fs }
}

// WithEUID sets the effective-uid probe.
func WithEUID(fn func() int) CheckerOption {
	return func(c *Checker) { c.euid = fn }
}

// WithDiskFree sets the free-disk probe.
func WithDiskFree(fn func(path string) (uint64, error)) CheckerOption {
	return func(c *Checker) { c.diskFree = fn }
}

// WithHTTPClient sets the client used for the connectivity probe.
func WithHTTPClient(client *http.Client) CheckerOption {
	return func(c *Checker) { c.client = client }
}

// NewChecker creates a Checker with real host probes.
func NewChecker(settings config.Settings, opts ...CheckerOption) *Checker {
	c := &Checker{
		settings: settings,
		fs:       ports.NewOSFileSystem(),
		euid:     os.Geteuid,
		diskFree: statfsFree,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: settings.ProbeTimeout}
	}
	return c
}

// Privilege fails unless the process runs as root.
func (c *Checker) Privilege() Result {
	if c.euid() != 0 {
		return Result{
			Name:   "privilege",
			Status: StatusFail,
			Detail: "must run as root (try sudo)",
		}
	}
	return Result{Name: "privilege", Status: StatusPass, Detail: "running as root"}
}

// OS fails if os-release is unreadable or the OS family is unsupported,
// and warns if the version is below the recommended threshold.
func (c *Checker) OS() Result {
	data, err := c.fs.ReadFile(osReleasePath)
	if err != nil {
		return Result{
			Name:   "os",
			Status: StatusFail,
			Detail: fmt.Sprintf("cannot read %s: %v", osReleasePath, err),
		}
	}

	// os-release is flat KEY=value, which ini parses as the default section.
	file, err := ini.Load(data)
	if err != nil {
		return Result{
			Name:   "os",
			Status: StatusFail,
			Detail: fmt.Sprintf("cannot parse %s: %v", osReleasePath, err),
		}
	}

	section := file.Section("")
	id := strings.ToLower(section.Key("ID").String())
	ver := section.Key("VERSION_ID").String()

	supported := false
	for _, fam := range c.settings.SupportedOSFamilies {
		if id == fam {
			supported = true
			break
		}
	}
	if !supported {
		return Result{
			Name:   "os",
			Status: StatusFail,
			Detail: fmt.Sprintf("unsupported OS %q (supported: %s)", id, strings.Join(c.settings.SupportedOSFamilies, ", ")),
		}
	}

	if recommended, ok := c.settings.RecommendedOSVersion[id]; ok && ver != "" {
		if version.Compare(ver, recommended) < 0 {
			return Result{
				Name:   "os",
				Status: StatusWarn,
				Detail: fmt.Sprintf("%s %s is older than the recommended %s", id, ver, recommended),
			}
		}
	}

	return Result{Name: "os", Status: StatusPass, Detail: fmt.Sprintf("%s %s", id, ver)}
}

// RAM warns when installed memory is below the advisory threshold.
func (c *Checker) RAM() Result {
	totalGiB, err := c.memTotalGiB()
	if err != nil {
		return Result{Name: "ram", Status: StatusWarn, Detail: fmt.Sprintf("cannot determine installed RAM: %v", err)}
	}
	if totalGiB < float64(c.settings.MinRAMGiB) {
		return Result{
			Name:   "ram",
			Status: StatusWarn,
			Detail: fmt.Sprintf("%.1f GiB installed, %d GiB recommended; services may be slow or fail to start", totalGiB, c.settings.MinRAMGiB),
		}
	}
	return Result{Name: "ram", Status: StatusPass, Detail: fmt.Sprintf("%.1f GiB installed", totalGiB)}
}

// Disk warns when free space is below the advisory threshold.
func (c *Checker) Disk() Result {
	free, err := c.diskFree("/")
	if err != nil {
		return Result{Name: "disk", Status: StatusWarn, Detail: fmt.Sprintf("cannot determine free disk space: %v", err)}
	}
	freeGiB := float64(free) / (1 << 30)
	if freeGiB < float64(c.settings.MinFreeDiskGiB) {
		return Result{
			Name:   "disk",
			Status: StatusWarn,
			Detail: fmt.Sprintf("%.1f GiB free, %d GiB recommended; container images need substantial space", freeGiB, c.settings.MinFreeDiskGiB),
		}
	}
	return Result{Name: "disk", Status: StatusPass, Detail: fmt.Sprintf("%.1f GiB free", freeGiB)}
}

// Connectivity fails if the probe endpoint is unreachable within the
// configured timeout.
func (c *Checker) Connectivity(ctx context.Context) Result {
	ctx, cancel := context.WithTimeout(ctx, c.settings.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.settings.ConnectivityProbeURL, nil)
	if err != nil {
		return Result{Name: "connectivity", Status: StatusFail, Detail: fmt.Sprintf("invalid probe URL: %v", err)}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{
			Name:   "connectivity",
			Status: StatusFail,
			Detail: fmt.Sprintf("cannot reach %s: %v", c.settings.ConnectivityProbeURL, err),
		}
	}
	_ = resp.Body.Close()

	return Result{Name: "connectivity", Status: StatusPass, Detail: fmt.Sprintf("%s reachable", c.settings.ConnectivityProbeURL)}
}

// memTotalGiB reads MemTotal from /proc/meminfo.
func (c *Checker) memTotalGiB() (float64, error) {
	data, err := c.fs.ReadFile(meminfoPath)
	if err != nil {
		return 0, err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			break
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0, err
		}
		return float64(kb) / (1 << 20), nil
	}
	return 0, fmt.Errorf("MemTotal not found in %s", meminfoPath)
}

// statfsFree returns the free bytes available to unprivileged users on
// the filesystem containing path.
func statfsFree(path string) (uint64, error) {
	var st syscall.Statfs_t
	if err := syscall.Statfs(path, &st); err != nil {
		return 0, err
	}
	return uint64(st.Bsize) * st.Bavail, nil
}

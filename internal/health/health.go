// Package health implements the checks behind `draftspec doctor`: it
// validates that the host can actually run specs — a Go toolchain capable
// of `go build -buildmode=plugin` is on PATH, the platform supports plugin
// buildmode at all, and the compilation cache directory is writable.
// Grounded on the teacher's internal/health package (CheckResult/HealthReport
// shape, FormatReport's ✓/✗ console rendering), with the Claude-CLI-specific
// checks replaced by the toolchain/cache checks this spec actually needs.
package health

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// CheckResult represents the result of a single health check.
type CheckResult struct {
	Name    string
	Passed  bool
	Message string
}

// HealthReport contains all health check results.
type HealthReport struct {
	Checks []CheckResult
	Passed bool
}

// RunHealthChecks runs all health checks against cacheDir and returns a report.
func RunHealthChecks(cacheDir string) *HealthReport {
	report := &HealthReport{Checks: make([]CheckResult, 0, 3), Passed: true}

	checks := []CheckResult{
		CheckGoToolchain(),
		CheckPluginBuildmodeSupport(),
		CheckCacheDirWritable(cacheDir),
	}

	for _, c := range checks {
		report.Checks = append(report.Checks, c)
		if !c.Passed {
			report.Passed = false
		}
	}

	return report
}

// CheckGoToolchain checks that a `go` binary capable of building plugins is
// on PATH (the Script Host, C3, shells out to it for every compile).
func CheckGoToolchain() CheckResult {
	path, err := exec.LookPath("go")
	if err != nil {
		return CheckResult{Name: "Go toolchain", Passed: false, Message: "go binary not found in PATH"}
	}

	out, err := exec.Command(path, "version").Output() //nolint:gosec // fixed binary, no user input
	if err != nil {
		return CheckResult{Name: "Go toolchain", Passed: false, Message: fmt.Sprintf("go version failed: %v", err)}
	}

	return CheckResult{Name: "Go toolchain", Passed: true, Message: strings.TrimSpace(string(out))}
}

// CheckPluginBuildmodeSupport reports whether the current platform supports
// `-buildmode=plugin` at all. The plugin package only loads on linux and
// darwin; everywhere else the Script Host's compile step cannot work.
func CheckPluginBuildmodeSupport() CheckResult {
	switch runtime.GOOS {
	case "linux", "darwin":
		return CheckResult{
			Name:    "Plugin buildmode",
			Passed:  true,
			Message: fmt.Sprintf("supported on %s/%s", runtime.GOOS, runtime.GOARCH),
		}
	default:
		return CheckResult{
			Name:    "Plugin buildmode",
			Passed:  false,
			Message: fmt.Sprintf("%s does not support -buildmode=plugin", runtime.GOOS),
		}
	}
}

// CheckCacheDirWritable verifies the compilation cache directory exists (or
// can be created) and accepts writes.
func CheckCacheDirWritable(cacheDir string) CheckResult {
	if cacheDir == "" {
		return CheckResult{Name: "Cache directory", Passed: false, Message: "no cache directory configured"}
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return CheckResult{Name: "Cache directory", Passed: false, Message: fmt.Sprintf("cannot create %s: %v", cacheDir, err)}
	}

	probe := filepath.Join(cacheDir, ".doctor-write-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return CheckResult{Name: "Cache directory", Passed: false, Message: fmt.Sprintf("%s is not writable: %v", cacheDir, err)}
	}
	_ = os.Remove(probe)

	return CheckResult{Name: "Cache directory", Passed: true, Message: fmt.Sprintf("%s is writable", cacheDir)}
}

// FormatReport formats the health report for console output.
func FormatReport(report *HealthReport) string {
	var output string
	for _, check := range report.Checks {
		if check.Passed {
			output += fmt.Sprintf("✓ %s: %s\n", check.Name, check.Message)
		} else {
			output += fmt.Sprintf("✗ %s: %s\n", check.Name, check.Message)
		}
	}
	return output
}

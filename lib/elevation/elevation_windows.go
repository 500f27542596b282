// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package elevation

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"

	"golang.org/x/sys/windows"
)

// consentDenied is the exit code the launch script uses when UAC is
// refused (ERROR_CANCELLED).
const consentDenied = 1223

// DefaultProbe reports an elevated process token as privileged.
func DefaultProbe() PrivilegeProbe {
	return ProbeFunc(func() bool { return windows.GetCurrentProcessToken().IsElevated() })
}

// runAsLauncher triggers a UAC prompt through Start-Process -Verb RunAs
// and waits for the elevated cmd.exe, which redirects the relaunch's
// output into the log file.
type runAsLauncher struct{}

// DefaultLauncher returns the UAC Launcher. The elevator argument is
// ignored on Windows.
func DefaultLauncher(elevator []string) Launcher {
	return runAsLauncher{}
}

func (runAsLauncher) Launch(spec LaunchSpec) (int, error) {
	cmd := exec.Command("powershell.exe", "-NoProfile", "-NonInteractive", "-Command", runAsScript(spec))
	cmd.Dir = spec.Dir

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitError *exec.ExitError
	if !errors.As(err, &exitError) {
		return -1, err
	}
	if exitError.ExitCode() == consentDenied {
		return -1, fmt.Errorf("elevation consent was denied")
	}
	return exitError.ExitCode(), nil
}

// runAsScript builds the PowerShell that starts
//
//	cmd /c ""exe" args >> "log" 2>&1"
//
// elevated and exits with its exit code.
func runAsScript(spec LaunchSpec) string {
	parts := []string{syscall.EscapeArg(spec.Executable)}
	for _, arg := range spec.Args {
		parts = append(parts, syscall.EscapeArg(arg))
	}
	inner := fmt.Sprintf(`/c "%s >> %s 2>&1"`, strings.Join(parts, " "), syscall.EscapeArg(spec.LogPath))

	workingDirectory := ""
	if spec.Dir != "" {
		workingDirectory = " -WorkingDirectory " + powershellQuote(spec.Dir)
	}
	return fmt.Sprintf(
		"try { $p = Start-Process -FilePath 'cmd.exe' -ArgumentList %s -Verb RunAs -WindowStyle Hidden -Wait -PassThru%s; exit $p.ExitCode } catch { exit %d }",
		powershellQuote(inner), workingDirectory, consentDenied)
}

func powershellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

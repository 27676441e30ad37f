package ptyjob

import (
	"os"
	"os/exec"
)

// shellFallbacks are tried in order when $SHELL is unset or missing.
var shellFallbacks = []string{"/bin/bash", "/usr/bin/bash", "/bin/zsh", "/usr/bin/zsh", "/bin/sh"}

// DefaultShell returns the user's shell: $SHELL when it resolves to an
// executable, otherwise the first fallback that exists.
func DefaultShell() string {
	if shell := os.Getenv("SHELL"); shell != "" {
		if _, err := exec.LookPath(shell); err == nil {
			return shell
		}
	}
	for _, shell := range shellFallbacks {
		if _, err := os.Stat(shell); err == nil {
			return shell
		}
	}
	return "/bin/sh"
}

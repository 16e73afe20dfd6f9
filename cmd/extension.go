package cmd

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
)

// Environment passed to extensions.
const (
	EnvConfigFile = "PNL_CONFIG"
	EnvLedger     = "PNL_LEDGER"
	EnvCurrency   = "PNL_CURRENCY"
)

// RunExtension attempts to find and execute an external pnl-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found.
func RunExtension(subcommand string, args []string) (bool, int) {
	name := "pnl-" + subcommand

	lp, err := exec.LookPath(name)
	if err != nil {
		log.Printf("external command %q not found in PATH: %v", name, err)
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), extensionEnv()...)

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return true, exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", name, err)
		return true, 1
	}
	return true, 0
}

// extensionEnv passes the resolved global settings: an extension sees the
// same ledger and currency as the built-in commands.
func extensionEnv() []string {
	env := []string{EnvConfigFile + "=" + absPath(*configFile)}
	cfg, err := loadConfig()
	if err != nil {
		log.Printf("extension gets no ledger settings: %v", err)
		return env
	}
	return append(env,
		EnvLedger+"="+absPath(cfg.Ledger.Path),
		EnvCurrency+"="+cfg.Currency,
	)
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/githubnext/sqlresult/pkg/config"
	"github.com/githubnext/sqlresult/pkg/console"
	"github.com/githubnext/sqlresult/pkg/logger"
	"github.com/githubnext/sqlresult/pkg/provider"
)

// Package-level version information
var (
	version = "dev"
)

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v string) {
	version = v
}

// GetVersion returns the current version
func GetVersion() string {
	return version
}

// LoadConfig reads the configuration file at configPath, or discovers
// .sqlresult.yaml in the working directory when configPath is empty
func LoadConfig(configPath string, verbose bool) (config.Config, error) {
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return config.Config{}, err
		}
		if verbose {
			fmt.Fprintln(os.Stderr, console.FormatVerboseMessage(fmt.Sprintf("Using config file %s", console.ToRelativePath(configPath))))
		}
		return cfg, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to get current directory: %w", err)
	}
	cfg, path, err := config.Discover(cwd)
	if err != nil {
		return config.Config{}, err
	}
	if verbose {
		if path == "" {
			fmt.Fprintln(os.Stderr, console.FormatVerboseMessage("No config file found, using defaults"))
		} else {
			fmt.Fprintln(os.Stderr, console.FormatVerboseMessage(fmt.Sprintf("Using config file %s", console.ToRelativePath(path))))
		}
	}
	return cfg, nil
}

// FormatCommandError renders an error for stderr. Configuration errors
// already carry their file position and source context.
func FormatCommandError(err error) string {
	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		return cfgErr.Error()
	}
	return console.FormatErrorMessage(err.Error())
}

// newProvider builds a provider wired to a logger at the configured level
func newProvider(cfg config.Config, verbose bool) (*provider.Provider, *zap.Logger, error) {
	log, err := logger.New(cfg.LogLevel, verbose)
	if err != nil {
		return nil, nil, err
	}
	return provider.New(cfg).WithLogger(log), log, nil
}

// ParseLine converts a 1-based line argument
func ParseLine(arg string) (int, error) {
	line, err := strconv.Atoi(arg)
	if err != nil || line < 1 {
		return 0, fmt.Errorf("invalid line number '%s': must be a positive integer", arg)
	}
	return line, nil
}

// printLocation writes a location the way editors and terminals link it
func printLocation(w io.Writer, loc provider.Location) {
	fmt.Fprintf(w, "%s:%d\n", console.ToRelativePath(loc.Path), loc.Line)
}

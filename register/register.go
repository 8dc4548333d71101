// Package register adds findex to an MCP client configuration file.
package register

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/renameio"
)

// Scope selects which client configuration file receives the entry.
type Scope string

const (
	// ScopeProject writes <directory>/.mcp.json.
	ScopeProject Scope = "project"
	// ScopeUser writes ~/.claude.json.
	ScopeUser Scope = "user"
)

// ParseScope validates a scope name given on the command line.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeProject, ScopeUser:
		return Scope(s), nil
	default:
		return "", fmt.Errorf("unknown scope %q (must be \"project\" or \"user\")", s)
	}
}

// Options describes one registration.
type Options struct {
	Scope Scope
	// Directory is the project directory for ScopeProject. Default: ".".
	Directory string
	// ServerName is the key under mcpServers. Default: derived from BinaryPath.
	ServerName string
	// BinaryPath is the server executable. Default: the running executable.
	BinaryPath string
	// ServerArgs are passed to the server on every launch.
	ServerArgs []string
}

type mcpServerEntry struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// Result reports where an entry was written.
type Result struct {
	ConfigPath string
	ServerName string
}

// Register adds or replaces the server entry. Other entries in the file are
// preserved.
func Register(opts Options) (Result, error) {
	binaryPath := opts.BinaryPath
	if binaryPath == "" {
		var err error
		binaryPath, err = detectBinaryPath()
		if err != nil {
			return Result{}, err
		}
	}

	serverName := opts.ServerName
	if serverName == "" {
		serverName = DeriveServerName(binaryPath)
	}

	configPath, err := ConfigPath(opts.Scope, opts.Directory)
	if err != nil {
		return Result{}, err
	}

	if err := writeConfig(configPath, serverName, buildEntry(binaryPath, opts.ServerArgs)); err != nil {
		return Result{}, err
	}
	return Result{ConfigPath: configPath, ServerName: serverName}, nil
}

// DeriveServerName extracts a server name from a binary path by stripping .exe and -mcp suffixes.
func DeriveServerName(binaryPath string) string {
	name := filepath.Base(binaryPath)
	name = strings.TrimSuffix(name, ".exe")
	name = strings.TrimSuffix(name, "-mcp")
	return name
}

// ConfigPath returns the client configuration file for a scope.
func ConfigPath(scope Scope, directory string) (string, error) {
	switch scope {
	case ScopeProject:
		if directory == "" {
			directory = "."
		}
		absDir, err := filepath.Abs(directory)
		if err != nil {
			return "", fmt.Errorf("resolving directory %s: %w", directory, err)
		}
		return filepath.Join(absDir, ".mcp.json"), nil
	case ScopeUser:
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		return filepath.Join(homeDir, ".claude.json"), nil
	default:
		return "", fmt.Errorf("unknown scope %q", scope)
	}
}

func detectBinaryPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("getting executable path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("resolving symlinks for %s: %w", exe, err)
	}
	return resolved, nil
}

func buildEntry(binaryPath string, serverArgs []string) mcpServerEntry {
	if runtime.GOOS == "windows" {
		args := []string{"/C", binaryPath}
		args = append(args, serverArgs...)
		return mcpServerEntry{
			Command: "cmd",
			Args:    args,
		}
	}
	return mcpServerEntry{
		Command: binaryPath,
		Args:    serverArgs,
	}
}

func writeConfig(configPath string, serverName string, entry mcpServerEntry) error {
	config := map[string]any{
		"mcpServers": map[string]any{},
	}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("parsing existing config %s: %w", configPath, err)
		}
	case !os.IsNotExist(err):
		return fmt.Errorf("reading config %s: %w", configPath, err)
	}

	servers, ok := config["mcpServers"]
	if !ok || servers == nil {
		servers = map[string]any{}
		config["mcpServers"] = servers
	}

	serversMap, ok := servers.(map[string]any)
	if !ok {
		return fmt.Errorf("mcpServers in %s is not an object", configPath)
	}
	serversMap[serverName] = entry

	output, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	output = append(output, '\n')

	if err := renameio.WriteFile(configPath, output, 0o644); err != nil {
		return fmt.Errorf("writing config %s: %w", configPath, err)
	}
	return nil
}

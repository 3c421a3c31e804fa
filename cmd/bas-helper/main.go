// bas-helper is the launcher BAS invokes: it locates the claude CLI and the
// bas-mcp binary shipped next to it, writes an MCP config pointing at the
// running BAS process, and starts the CLI restricted to the bas toolset.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/mkoval/basbridge/config"
	"github.com/mkoval/basbridge/ipcdir"
)

type mcpServerEntry struct {
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

type mcpConfig struct {
	MCPServers map[string]mcpServerEntry `json:"mcpServers"`
}

func main() {
	pidFlag := flag.String("pid", "", "PID of the BAS process")
	parentPIDFlag := flag.String("parent-process-id", "0", "PID passed by BAS when it spawns the helper")
	ipcDirFlag := flag.String("ipc-dir", "", "helperipc directory to pass through to bas-mcp")
	debugFlag := flag.Bool("debug", false, "Print resolved paths before launching")
	// BAS passes these when launching helpers; accepted and unused.
	flag.String("bas-lang", "en", "BAS UI language")
	flag.String("bas-version", "0.0.0", "BAS version")
	flag.String("modules", "", "Installed module list")
	flag.String("url", "", "Project URL")
	flag.Parse()

	pid := *pidFlag
	if pid == "" {
		pid = *parentPIDFlag
	}
	if pid == "" || pid == "0" {
		fmt.Fprintln(os.Stderr, "Error: no BAS PID given (use --pid)")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %+v\n", err)
		os.Exit(1)
	}

	claudePath := cfg.ClaudePath
	if claudePath == "" {
		claudePath = findClaudeCLI()
	}
	if claudePath == "" {
		fmt.Fprintln(os.Stderr, "Error: claude CLI not found.")
		fmt.Fprintln(os.Stderr, "Install with: npm install -g @anthropic-ai/claude-code")
		os.Exit(1)
	}

	exeDir, err := ipcdir.ExecutableDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error locating executable: %+v\n", err)
		os.Exit(1)
	}
	mcpBinary := findMCPBinary(exeDir)
	if mcpBinary == "" {
		fmt.Fprintln(os.Stderr, "Error: bas-mcp binary not found next to the launcher.")
		os.Exit(1)
	}

	serverArgs := []string{"--pid", pid}
	if *ipcDirFlag != "" {
		serverArgs = append(serverArgs, "--ipc-dir", *ipcDirFlag)
	}
	configPath := filepath.Join(exeDir, "claude_mcp_config.json")
	if err := writeMCPConfig(configPath, mcpBinary, serverArgs); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing MCP config: %+v\n", err)
		os.Exit(1)
	}

	if *debugFlag {
		fmt.Printf("BAS PID: %s\n", pid)
		fmt.Printf("Claude CLI: %s\n", claudePath)
		fmt.Printf("MCP server: %s\n", mcpBinary)
		fmt.Printf("MCP config: %s\n", configPath)
	}

	cmd := exec.Command(claudePath,
		"--mcp-config", configPath,
		"--strict-mcp-config",
		"--allowedTools", "mcp__bas*")
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "Error launching claude: %+v\n", err)
		os.Exit(1)
	}
}

func writeMCPConfig(path, command string, args []string) error {
	cfg := mcpConfig{
		MCPServers: map[string]mcpServerEntry{
			"bas": {Command: filepath.ToSlash(command), Args: args},
		},
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// findClaudeCLI looks for the claude CLI in PATH first, then in the npm
// global locations installs commonly land in.
func findClaudeCLI() string {
	if path, err := exec.LookPath("claude"); err == nil {
		return path
	}

	var candidates []string
	if runtime.GOOS == "windows" {
		if appdata := os.Getenv("APPDATA"); appdata != "" {
			candidates = append(candidates,
				filepath.Join(appdata, "npm", "claude.cmd"),
				filepath.Join(appdata, "npm", "claude"))
		}
		if profile := os.Getenv("USERPROFILE"); profile != "" {
			candidates = append(candidates,
				filepath.Join(profile, "AppData", "Roaming", "npm", "claude.cmd"),
				filepath.Join(profile, ".npm-global", "claude.cmd"))
		}
		candidates = append(candidates,
			`C:\Program Files\nodejs\claude.cmd`,
			`C:\Program Files (x86)\nodejs\claude.cmd`)
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(home, ".npm-global", "bin", "claude"),
			filepath.Join(home, "node_modules", ".bin", "claude"),
			"/usr/local/bin/claude")
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}

// findMCPBinary locates bas-mcp next to the launcher, checking a dist
// subfolder for development layouts.
func findMCPBinary(exeDir string) string {
	name := "bas-mcp"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	for _, candidate := range []string{
		filepath.Join(exeDir, name),
		filepath.Join(exeDir, "dist", name),
	} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

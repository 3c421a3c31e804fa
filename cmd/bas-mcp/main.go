package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/mkoval/basbridge/bas"
	"github.com/mkoval/basbridge/config"
	"github.com/mkoval/basbridge/ipc"
	"github.com/mkoval/basbridge/ipcdir"
	"github.com/mkoval/basbridge/mcpsrv"
)

func main() {
	pidFlag := flag.Int("pid", 0, "PID of the BAS process to connect to (required)")
	ipcDirFlag := flag.String("ipc-dir", "", "helperipc directory (default: auto-detect)")
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *pidFlag == 0 {
		fmt.Fprintln(os.Stderr, "Usage: bas-mcp --pid <BAS_PID> [--ipc-dir <dir>]")
		os.Exit(1)
	}

	// Stdout carries the MCP protocol, so logs go to stderr.
	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{"stderr"}
	if *debugFlag {
		logCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := logCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %+v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %+v\n", err)
		os.Exit(1)
	}

	dir := *ipcDirFlag
	if dir == "" {
		dir = cfg.IPCDir
	}
	if dir == "" {
		start, err := ipcdir.ExecutableDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error locating executable: %+v\n", err)
			os.Exit(1)
		}
		dir = ipcdir.FindIPCDir(start)
	}

	ch := ipc.NewChannel(dir, *pidFlag, logger)
	if d := cfg.PollInterval(); d > 0 {
		ch.SetPollInterval(d)
	}
	client := bas.NewClient(ch, logger)
	client.SetTimeouts(cfg.CallTimeout(), cfg.ExecuteTimeout(), cfg.PingTimeout())

	logsDir := ""
	if start, err := ipcdir.ExecutableDir(); err == nil {
		logsDir = ipcdir.FindLogsDir(start)
	}

	logger.Info("starting BAS MCP server",
		zap.Int("pid", *pidFlag),
		zap.String("ipc_dir", dir),
		zap.String("logs_dir", logsDir))

	server := mcpsrv.New(client, logsDir, logger)
	if err := server.Run(context.Background(), mcp.NewStdioTransport()); err != nil {
		logger.Error("server stopped", zap.Error(err))
		os.Exit(1)
	}
}

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/atotto/clipboard"
	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	"voxnote/internal/app"
	"voxnote/internal/config"
	"voxnote/internal/ipc"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	settings := cli.StringP("settings", "s", "", "Settings file (default: user config dir)")
	assets := cli.StringP("assets", "a", "assets", "Directory with voice clips")
	socket := cli.String("socket", ipc.DefaultSocketPath(), "Control socket path")
	bridgeAddr := cli.StringP("bridge", "b", "127.0.0.1:8765", "Editor bridge listen address, empty to disable")
	workspace := cli.StringP("workspace", "w", "", "Workspace directory to watch for new files")
	noClipboard := cli.Bool("no-clipboard", false, "Do not sample the clipboard")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Info("Booting up")

	if err := godotenv.Load(*envFile); err != nil {
		log.Debug("No env file loaded", "path", *envFile)
	}

	if *settings == "" {
		path, err := config.DefaultPath()
		if err != nil {
			log.Error("Failed to resolve settings path", "err", err)
			os.Exit(1)
		}
		*settings = path
	}

	cfg := app.Config{
		SettingsPath: *settings,
		AssetsDir:    *assets,
		SocketPath:   *socket,
		BridgeAddr:   *bridgeAddr,
		Workspace:    *workspace,
	}
	if !*noClipboard && !clipboard.Unsupported {
		cfg.Clipboard = clipboard.ReadAll
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Error("Failed to init", "err", err)
		os.Exit(1)
	}

	if err := a.Start(); err != nil {
		log.Error("Failed to start", "err", err)
		a.Close()
		os.Exit(1)
	}

	log.Info("Boot up - successful", "settings", *settings, "socket", *socket)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info("Shutting down")
	a.Close()
}

package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/lmittmann/tint"
	cli "github.com/spf13/pflag"
	log "log/slog"

	"voxnote/internal/proxy"
	"voxnote/internal/tts"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	url := cli.StringP("url", "u", tts.DefaultURL, "VOICEVOX engine URL")
	out := cli.StringP("out", "o", "assets", "Output directory")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks proxy address")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	httpClient, err := proxy.NewClient(*proxyAddr, 0)
	if err != nil {
		log.Error("Failed to dial socks proxy", "proxy", *proxyAddr, "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	gen := tts.NewGenerator(tts.NewClient(*url, httpClient), *out)
	res, err := gen.Generate(ctx, tts.Jobs())
	if err != nil {
		log.Error("Asset generation failed", "err", err)
		os.Exit(1)
	}

	log.Info("Done", "success", res.Success, "total", res.Total, "dir", *out)
	for _, f := range res.Failed {
		log.Warn("Not generated", "file", f)
	}
}

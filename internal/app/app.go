// Package app wires the daemon together and owns its lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"voxnote/internal/ambient"
	"voxnote/internal/audio"
	"voxnote/internal/bridge"
	"voxnote/internal/clock"
	"voxnote/internal/config"
	"voxnote/internal/detect"
	"voxnote/internal/ipc"
	"voxnote/internal/monitor"
	"voxnote/internal/notify"
	"voxnote/internal/report"
	"voxnote/internal/schedule"
	"voxnote/internal/status"
	"voxnote/pkg/protocol"
)

const shutdownTimeout = 3 * time.Second

type Config struct {
	SettingsPath string
	AssetsDir    string
	SocketPath   string
	// BridgeAddr is the websocket listen address, empty disables the bridge.
	BridgeAddr string
	// Workspace is watched for new files, empty disables the watcher.
	Workspace string

	Clock         clock.Clock
	Clipboard     func() (string, error)
	PlayerOptions []audio.Option
}

type App struct {
	cfg Config

	store     *config.Store
	reporter  *report.Reporter
	cache     *audio.Cache
	player    *audio.Player
	notifier  *notify.Notifier
	scheduler *schedule.Scheduler
	monitor   *monitor.Monitor
	indicator *status.Indicator
	bridge    *bridge.Server
	ambient   *ambient.Timers

	ctx     context.Context
	cancel  context.CancelFunc
	control io.Closer
	ready   bool
}

// New initializes every component in dependency order. Only an unreadable
// settings file is fatal; missing audio is reported and the daemon keeps
// serving commands.
func New(cfg Config) (*App, error) {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	a := &App{cfg: cfg, bridge: bridge.New()}
	a.ctx, a.cancel = context.WithCancel(context.Background())

	store, err := config.Open(cfg.SettingsPath)
	if err != nil {
		return nil, fmt.Errorf("open settings: %w", err)
	}
	a.store = store

	a.reporter = report.New(func(msg string) { a.toast("error", msg) })

	a.cache = audio.NewCache()
	a.player = audio.NewPlayer(a.cache, cfg.AssetsDir, cfg.PlayerOptions...)
	a.notifier = notify.New(a.player, a.cache, store.Get, cfg.AssetsDir, notify.Options{
		Toast:   func(msg string) { a.toast("info", msg) },
		OnError: func(err error) { a.reporter.Report(report.CategoryPlayback, err) },
	})

	a.ready = true
	if err := a.player.Setup(); err != nil {
		a.ready = false
		a.reporter.Report(report.CategoryAudioCritical, err)
	}
	if _, err := a.notifier.Preload(); err != nil {
		a.ready = false
		a.reporter.Report(report.CategoryAudioCritical, err)
	}

	a.monitor = monitor.New(monitor.Options{
		Clock:        cfg.Clock,
		FilterManual: func() bool { return a.store.Get().FilterManualEdits },
		Active:       func(reason string) bool { return a.scheduler.IsActive(reason) },
		Clipboard:    cfg.Clipboard,
	})
	a.scheduler = schedule.New(a.fire, schedule.Options{
		Clock: cfg.Clock,
		Gate:  func() bool { return a.store.IsEnabled() && a.monitor.HasActiveEditor() },
	})
	a.monitor.Subscribe(func(sig detect.Signal) { a.scheduler.Submit(sig) })

	a.indicator = status.NewIndicator(cfg.Clock, store.IsEnabled(), a.publishStatus)
	a.ambient = ambient.New(cfg.Clock, a.playRandom, a.playNight)

	a.bridge.OnEvent = a.monitor.Post
	a.bridge.OnConnect = func(send func(string, any) error) {
		if err := send(protocol.MessageStatus, wireStatus(a.indicator.State())); err != nil {
			log.Debug("Failed to send initial status", "err", err)
		}
	}
	a.bridge.OnDisconnect = a.editorLeft

	store.OnChange(a.configChanged)

	log.Info("voxnote initialized", "enabled", store.IsEnabled(), "voice", store.Get().VoiceCharacter, "audio", a.ready)
	return a, nil
}

// Ready reports whether audio initialized successfully.
func (a *App) Ready() bool { return a.ready }

// Start launches the event loop, the servers and the timers.
func (a *App) Start() error {
	go a.monitor.Run(a.ctx)

	if err := os.MkdirAll(filepath.Dir(a.store.Path()), 0755); err != nil {
		log.Warn("Failed to create settings dir", "err", err)
	} else if err := a.store.Watch(a.ctx); err != nil {
		log.Warn("Settings will not reload automatically", "err", err)
	}

	if a.cfg.Workspace != "" {
		if err := a.monitor.WatchWorkspace(a.ctx, a.cfg.Workspace); err != nil {
			log.Warn("Workspace watcher disabled", "err", err)
		}
	}

	if a.cfg.BridgeAddr != "" {
		if _, err := a.bridge.Listen(a.cfg.BridgeAddr); err != nil {
			return err
		}
	}

	control, err := ipc.StartServer(a.cfg.SocketPath, a.Handle)
	if err != nil {
		return fmt.Errorf("control socket: %w", err)
	}
	a.control = control

	s := a.store.Get()
	a.ambient.StartChat(s.RandomChatInterval)
	a.ambient.StartNight()

	go func() {
		if err := a.notifier.Greet(a.ctx); err != nil {
			log.Warn("Startup greeting failed", "err", err)
		}
	}()

	return nil
}

// editorLeft clears the active editor once the last host is gone, so pending
// notifications fail the gate. It goes through the event queue to stay ordered
// after the host's final events.
func (a *App) editorLeft(remaining int) {
	if remaining > 0 {
		return
	}
	log.Info("No editor connected, clearing active editor")
	a.monitor.Post(&protocol.ActiveEditor{})
}

func (a *App) fire(reason string) {
	if a.player.Playing() {
		log.Debug("Notification skipped, audio busy", "reason", reason)
		return
	}
	a.indicator.ShowActivity()
	if err := a.notifier.Notify(a.ctx, notify.KindTaskComplete); err != nil {
		log.Warn("Notification failed", "reason", reason, "err", err)
	}
}

func (a *App) playRandom() {
	if err := a.notifier.RandomChat(a.ctx); err != nil {
		a.reporter.Report(report.CategoryPlayback, err)
	}
}

func (a *App) playNight() {
	if err := a.notifier.Night(a.ctx); err != nil {
		a.reporter.Report(report.CategoryPlayback, err)
	}
}

func (a *App) configChanged(s config.Settings) {
	log.Info("Configuration changed", "enabled", s.Enabled, "voice", s.VoiceCharacter)
	a.indicator.Set(s.Enabled)
	if err := a.notifier.Reload(); err != nil {
		a.reporter.Report(report.CategoryConfig, err)
	}
	a.ambient.StartChat(s.RandomChatInterval)
}

func (a *App) toast(level, msg string) {
	if err := a.bridge.Broadcast(protocol.MessageToast, protocol.Toast{Level: level, Text: msg}); err != nil {
		log.Debug("Toast not delivered", "err", err)
	}
}

func (a *App) publishStatus(s status.State) {
	if err := a.bridge.Broadcast(protocol.MessageStatus, wireStatus(s)); err != nil {
		log.Debug("Status not delivered", "err", err)
	}
}

func wireStatus(s status.State) protocol.Status {
	return protocol.Status{Enabled: s.Enabled, Busy: s.Busy, Text: s.Text, Tooltip: s.Tooltip}
}

// Handle serves one control command.
func (a *App) Handle(msg ipc.ControlMessage) ipc.Reply {
	var err error
	data := map[string]string{}

	switch msg.Cmd {
	case ipc.CmdToggle:
		var enabled bool
		enabled, err = a.store.Toggle()
		data["enabled"] = strconv.FormatBool(enabled)
	case ipc.CmdTest:
		err = a.notifier.Test(a.ctx)
	case ipc.CmdReplay:
		err = a.notifier.Replay(a.ctx)
	case ipc.CmdRandom:
		err = a.notifier.RandomChat(a.ctx)
	case ipc.CmdNight:
		err = a.notifier.Night(a.ctx)
	case ipc.CmdReload:
		err = a.notifier.Reload()
	case ipc.CmdStatus:
		s := a.store.Get()
		data["enabled"] = strconv.FormatBool(s.Enabled)
		data["voice"] = s.VoiceCharacter
		data["volume"] = strconv.FormatFloat(s.Volume, 'f', 2, 64)
		data["clips"] = strconv.Itoa(a.cache.Len())
		data["audio"] = strconv.FormatBool(a.ready)
		data["last"] = a.notifier.Last()
		data["clients"] = strconv.Itoa(a.bridge.Clients())
		data["pending"] = strconv.FormatBool(a.scheduler.Pending())
		data["settings"] = a.store.Path()
	default:
		err = fmt.Errorf("unknown command %q", msg.Cmd)
	}

	if err != nil {
		if !errors.Is(err, notify.ErrNoLast) {
			log.Warn("Control command failed", "cmd", msg.Cmd, "err", err)
		}
		return ipc.Reply{Error: err.Error(), Data: data}
	}
	return ipc.Reply{OK: true, Data: data}
}

// Close tears everything down. Failures are logged, never returned.
func (a *App) Close() {
	a.ambient.Stop()
	a.cancel()
	a.scheduler.Close()
	a.indicator.Close()

	if a.control != nil {
		if err := a.control.Close(); err != nil {
			a.reporter.Report(report.CategoryTeardown, err)
		}
		os.Remove(a.cfg.SocketPath)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.bridge.Shutdown(ctx); err != nil {
		a.reporter.Report(report.CategoryTeardown, err)
	}

	if err := a.player.Close(); err != nil {
		a.reporter.Report(report.CategoryTeardown, err)
	}
	a.cache.Clear()

	log.Info("voxnote stopped")
}

// entry point of the application
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"

	"velvetdown/internal/config"
	"velvetdown/internal/consts"
	"velvetdown/internal/depmanager"
	"velvetdown/internal/display"
	"velvetdown/internal/entity"
	"velvetdown/internal/media"
	"velvetdown/internal/netprobe"
	"velvetdown/internal/observability"
	"velvetdown/internal/orchestrator"
	"velvetdown/internal/platform"
	httpserver "velvetdown/pkg/http/server"
	"velvetdown/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.New()
	if err != nil {
		slog.Error("config new", slog.Any("error", err))
		stop()
		os.Exit(1)
	}

	log, err := logger.New(&logger.Options{
		AddSource: true,
		Level:     cfg.App.LogLevel,
		Format:    cfg.App.LogFormat,
	})
	if err != nil {
		slog.WarnContext(ctx, "logger level invalid; defaulting to info", slog.Any("error", err))
	}

	metrics := startMetrics(ctx, log, cfg)

	extractor, downloader, prober := newBackend(ctx, log, cfg)

	term := &console{Terminal: display.NewTerminal(log)}

	orch := orchestrator.New(cfg, log,
		term,
		extractor,
		downloader,
		prober,
		platform.NewOpener(log),
		platform.NewMover(log),
		platform.NewGranter(log),
		metrics,
	)

	orch.Start(ctx)

	log.InfoContext(ctx, "velvetdown started", slog.String("destination", cfg.Dir.Destination))

	printWelcome()

	go readInput(ctx, stop, orch, term)

	// Waiting for shutdown signal
	<-ctx.Done()

	orch.Shutdown()

	log.InfoContext(ctx, "velvetdown shut down gracefully")
}

// newBackend selects the media capability and the connectivity probe that
// goes with it. The mock backend runs fully offline.
func newBackend(ctx context.Context, log *slog.Logger, cfg *config.Config) (media.Extractor, media.Downloader, netprobe.Prober) {
	if cfg.App.Backend == consts.BackendMock {
		m := demoMock(log)

		return m, m, netprobe.Static(true)
	}

	depMgr := depmanager.New(log, cfg)

	log.InfoContext(ctx, "checking if yt-dlp and ffmpeg are installed. it may take some time...")

	depMgr.Start(ctx)

	log.InfoContext(ctx, "yt-dlp ready", slog.String("path", depMgr.GetInstalledPath(depmanager.BinaryYTdlp)))

	capability := media.NewYTDLP(log)

	return capability, capability, netprobe.New(cfg.Probe, log)
}

// demoMock is an offline capability with a small scripted catalog, selected
// with VELVETDOWN_APP_BACKEND=mock.
func demoMock(log *slog.Logger) *media.Mock {
	m := media.NewMock(log)
	m.Info = &media.Info{
		ID:    "demo",
		Title: "Demo clip",
		Formats: []entity.FormatRecord{
			{ID: "22", Ext: "mp4", Resolution: "1280x720", Filesize: 29510000, Vcodec: "avc1", Acodec: "mp4a", Protocol: "https"},
			{ID: "18", Ext: "mp4", Resolution: "640x480", Filesize: 11540000, Vcodec: "avc1", Acodec: "mp4a", Protocol: "https"},
			{ID: "140", Ext: "m4a", Resolution: "audio only", Filesize: 3280000, Vcodec: "none", Acodec: "mp4a", Protocol: "https"},
		},
	}
	m.Files = map[string]string{"Demo clip.mp4": "demo content"}

	return m
}

// startMetrics serves the Prometheus endpoint when an address is configured.
// A nil result disables recording throughout the engine.
func startMetrics(ctx context.Context, log *slog.Logger, cfg *config.Config) *observability.Metrics {
	if cfg.Metrics.Addr == "" {
		return nil
	}

	metrics := observability.New()

	srv := httpserver.New(observability.Handler(log), httpserver.Options{
		Addr:            cfg.Metrics.Addr,
		ShutdownTimeout: cfg.Metrics.ShutdownTimeout,
	})

	go func() {
		select {
		case err := <-srv.Notify():
			log.ErrorContext(ctx, "metrics server", slog.Any("error", err))
		case <-ctx.Done():
			if err := srv.Shutdown(); err != nil {
				log.Error("metrics server shutdown", slog.Any("error", err))
			}
		}
	}()

	log.InfoContext(ctx, "metrics endpoint started", slog.String("addr", cfg.Metrics.Addr))

	return metrics
}

// console wraps the terminal display to keep the last shown catalog, so the
// input loop can map a typed number back to a format selection.
type console struct {
	*display.Terminal

	mu      sync.Mutex
	catalog entity.Catalog
}

// ShowFormats records the catalog before rendering it.
func (c *console) ShowFormats(cat entity.Catalog) {
	c.mu.Lock()
	c.catalog = cat
	c.mu.Unlock()

	c.Terminal.ShowFormats(cat)
}

// selection resolves a catalog listing number, numbered continuously across
// the video section then the audio section.
func (c *console) selection(n int) (entity.Selection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n >= 1 && n <= len(c.catalog.Video) {
		v := c.catalog.Video[n-1]

		return entity.Selection{FormatCode: v.FormatCode, Label: v.Bucket}, true
	}

	n -= len(c.catalog.Video)
	if n >= 1 && n <= len(c.catalog.Audio) {
		a := c.catalog.Audio[n-1]

		return entity.Selection{FormatCode: a.FormatCode, Audio: true, Label: a.Ext}, true
	}

	return entity.Selection{}, false
}

// readInput runs the command loop until EOF or quit, then signals shutdown.
func readInput(ctx context.Context, stop context.CancelFunc, orch orchestrator.Orchestrator, term *console) {
	defer stop()

	scanner := bufio.NewScanner(os.Stdin)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
		case line == "q" || line == "quit":
			return
		case line == "c":
			orch.CancelDownload()
		case line == "o":
			orch.OpenDownloadedFile()
		case line == "dir":
			orch.ResetDestination()
			fmt.Println("Destination reset to default.")
		case strings.HasPrefix(line, "dir "):
			dir := strings.TrimSpace(strings.TrimPrefix(line, "dir "))
			orch.SetDestination(dir)
			fmt.Printf("Destination set to %s.\n", dir)
		default:
			if n, err := strconv.Atoi(line); err == nil {
				sel, ok := term.selection(n)
				if !ok {
					fmt.Println("No such format number.")

					continue
				}

				orch.StartDownload(sel)

				continue
			}

			orch.FetchFormats(line)
		}
	}
}

// printWelcome prints the command reference once at startup.
func printWelcome() {
	fmt.Println("velvetdown: paste a video URL to fetch its formats.")
	fmt.Println("Commands: <number> download, c cancel, o open file, dir <path> set folder, dir reset folder, q quit.")
}

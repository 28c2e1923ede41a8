// Command av1d is the re-encoding daemon: it scans configured library
// roots on a timer, turns eligible files into jobs, and drives each job
// through probing, encoding, validation, and replacement.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/yourname/av1qsvd/internal/config"
	"github.com/yourname/av1qsvd/internal/daemonloop"
	"github.com/yourname/av1qsvd/internal/startup"
	"github.com/yourname/av1qsvd/internal/toolchain"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	configPath := flag.String("config", "/etc/av1qsvd/config.json", "path to daemon config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config from %s: %v", *configPath, err)
	}

	log.Printf("job state dir: %s, temp output dir: %s", cfg.JobStateDir, cfg.TempOutputDir)
	log.Printf("library roots configured: %d", len(cfg.LibraryRoots))
	for i, root := range cfg.LibraryRoots {
		log.Printf("  [%d] %s", i+1, root)
	}
	log.Printf("min file size: %.2f GiB, max size ratio: %.2f", float64(cfg.MinBytes)/(1024*1024*1024), cfg.MaxSizeRatio)

	if cores, err := cpu.Counts(true); err == nil {
		log.Printf("host has %d logical cores, max concurrent encodes: %d", cores, cfg.MaxConcurrentJobs)
	}

	ffmpegPath, err := toolchain.Ensure(cfg.FFmpegPath, cfg.ToolchainDir, cfg.FFmpegURL)
	if err != nil {
		log.Fatalf("failed to locate or install ffmpeg: %v", err)
	}
	log.Printf("ffmpeg ready at: %s", ffmpegPath)

	if err := startup.CheckVersion(ffmpegPath); err != nil {
		log.Fatalf("ffmpeg version check failed: %v", err)
	}

	available, err := startup.DetectAvailable(ffmpegPath)
	if err != nil {
		log.Fatalf("encoder detection failed: %v", err)
	}

	selected, err := startup.Select(available, startup.Encoder(cfg.PreferEncoder))
	if err != nil {
		log.Fatalf("encoder selection failed: %v", err)
	}
	log.Printf("selected encoder: %s (%s)", selected.Encoder, selected.CodecName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := daemonloop.Run(ctx, cfg, ffmpegPath, selected); err != nil {
		log.Fatalf("daemon loop exited with error: %v", err)
	}

	log.Printf("daemon stopped")
}

// Command countdown runs a question timer in the terminal. It reads a timer
// configuration file (YAML or JSON), counts down on stdout and prints the
// navigation target once the timer decides the page must move on.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-timer/internal/logger"
	"github.com/stemsi/exstem-timer/internal/model"
	"github.com/stemsi/exstem-timer/internal/timer"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

func main() {
	var (
		configPath string
		tick       time.Duration
		logLevel   string
	)
	flag.StringVar(&configPath, "config", "timer.yaml", "Path to the timer configuration (YAML or JSON)")
	flag.DurationVar(&tick, "tick", timer.DefaultTickInterval, "Countdown refresh interval")
	flag.StringVar(&logLevel, "log-level", "warn", "Log level")
	flag.Parse()

	log := logger.SetupWriter(logLevel, "pretty", os.Stderr)

	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("Failed to load timer config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, cfg, os.Stdout, term.IsTerminal(int(os.Stdout.Fd())), tick, log))
}

// loadConfig reads a TimerConfig file. JSON is valid YAML, so one decoder
// serves both.
func loadConfig(path string) (model.TimerConfig, error) {
	var cfg model.TimerConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg, nil
}

// run drives one countdown and returns the process exit code.
func run(ctx context.Context, cfg model.TimerConfig, out io.Writer, interactive bool, tick time.Duration, log zerolog.Logger) int {
	var surface timer.Surface
	if interactive {
		surface = newTerminalSurface(out)
	} else {
		log.Warn().Msg("stdout is not a terminal, nothing to display")
	}

	nav := timer.NavigatorFunc(func(url string) {
		fmt.Fprintf(out, "\n%s\n", url)
	})

	ctrl := timer.New(cfg, surface, nav,
		timer.WithTickInterval(tick),
		timer.WithLogger(log),
	)

	// SIGCONT arrives when the job returns to the foreground.
	cont := make(chan os.Signal, 1)
	signal.Notify(cont, syscall.SIGCONT)
	defer signal.Stop(cont)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-cont:
				ctrl.Visible()
			}
		}
	}()

	outcome := ctrl.Run(ctx)
	if outcome == timer.OutcomeFrozen || (outcome == timer.OutcomeIdle && surface != nil) {
		// Keep the final display up until interrupted.
		<-ctx.Done()
	}
	if surface != nil && outcome != timer.OutcomeNavigated {
		fmt.Fprintln(out)
	}

	log.Debug().Str("outcome", string(outcome)).Msg("Countdown finished")
	return 0
}

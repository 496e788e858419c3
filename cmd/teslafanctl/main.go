package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aprilwade/teslafanctl/internal/config"
	"github.com/aprilwade/teslafanctl/internal/controller"
	"github.com/aprilwade/teslafanctl/internal/curve"
	"github.com/aprilwade/teslafanctl/internal/fanctl"
	"github.com/aprilwade/teslafanctl/internal/gpu"
	"github.com/aprilwade/teslafanctl/internal/logger"
	"github.com/aprilwade/teslafanctl/internal/metrics"
	"github.com/aprilwade/teslafanctl/internal/pid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	logger.Debug().Msg("Config loaded")

	if err := fanctl.Init(); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize HID")
	}
	defer fanctl.Exit()

	opener := fanctl.NewHID()

	// The override path shares nothing with the control loop beyond the
	// actuator: send one fixed duty cycle and exit.
	if cfg.HasOverride() {
		if err := sendOverride(opener, byte(cfg.Override)); err != nil {
			logger.Fatal().Err(err).Msg("failed to apply speed override")
		}
		return
	}

	if err := run(cfg, opener); err != nil {
		logger.Fatal().Err(err).Msg("initialization failed")
	}
}

func sendOverride(opener fanctl.Opener, speed byte) error {
	conn, err := opener.Open()
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.Send(speed); err != nil {
		return err
	}
	logger.Info().Int("speed", int(speed)).Msg("Set fan speed")

	return nil
}

func run(cfg *config.Config, opener fanctl.Opener) error {
	if err := pid.Write(); err != nil {
		return err
	}
	defer pid.Remove()

	fanCurve := cfg.FanCurve
	if fanCurve == nil {
		fanCurve = curve.Default()
	}

	device, err := gpu.New(cfg.UUID)
	if err != nil {
		return err
	}
	defer device.Shutdown()
	logger.Info().Str("name", device.Name()).Str("uuid", device.UUID()).Msg("Detected GPU")

	var collector metrics.Collector
	if cfg.Metrics {
		collector, err = metrics.NewService(metrics.Config{DBPath: cfg.Database})
		if err != nil {
			return err
		}
		defer collector.Close()
	}

	ctrl, err := controller.New(controller.Config{
		Interval: cfg.Interval,
		Monitor:  cfg.Monitor,
	}, fanCurve, device, opener, collector)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if cfg.Monitor {
		logger.Info().Msg("Monitor mode activated. Logging fan speeds...")
	}

	if err := ctrl.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("error in main loop")
	}
	logger.Info().Msg("Exiting...")

	return nil
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

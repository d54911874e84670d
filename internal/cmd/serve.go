package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/picodegallo/gallo/bridge"
	"github.com/picodegallo/gallo/bridge/simbus"
	"github.com/picodegallo/gallo/internal/log"
)

// Serve runs the device dispatcher against simulated buses on a TCP
// listener, so host tooling can be developed and tested without
// hardware attached.
type Serve struct {
	ServerConfig bridge.ServerConfig `embed:"" prefix:"serve."`
	PollInterval time.Duration       `help:"GPIO wait sampling interval" default:"100us" env:"GALLO_POLL_INTERVAL"`

	// Devices pre-populates the simulated I2C bus: each entry attaches
	// an empty device at the given address.
	Devices []Byte `help:"I2C addresses to populate on the simulated bus"`
}

// Run is called by kong when the serve command is executed.
func (s *Serve) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.StartServer(ctx, logger, rawLogger)
}

// StartServer builds the simulated device and serves until ctx is done.
func (s *Serve) StartServer(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger) error {
	i2c := simbus.NewI2c()
	for _, addr := range s.Devices {
		i2c.AddDevice(uint8(addr), map[uint8][]byte{})
		logger.Info("simulated I2C device attached", "addr", uint8(addr))
	}
	spi := simbus.NewSpi()
	gpio := simbus.NewGpio()

	d := bridge.New(i2c, spi, gpio,
		bridge.WithLogger(logger),
		bridge.WithRawLogger(rawLogger),
		bridge.WithPollInterval(s.PollInterval),
	)
	srv := bridge.NewServer(s.ServerConfig, d, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx) }()

	select {
	case err := <-errCh:
		return err
	case <-srv.Ready():
	}
	logger.Info("bridge dev server ready", "addr", srv.Addr())

	select {
	case <-ctx.Done():
		_ = srv.Close()
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

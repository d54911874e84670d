package cmd

import (
	"fmt"
	"log/slog"

	"github.com/picodegallo/gallo/wire"
)

// GpioCmd groups the GPIO subcommands.
type GpioCmd struct {
	Get  GpioGet  `cmd:"" help:"Sample a pin level (forces input mode)"`
	Put  GpioPut  `cmd:"" help:"Drive a pin level (forces output mode)"`
	Wait GpioWait `cmd:"" help:"Block until a level or edge condition on a pin"`
}

type GpioGet struct {
	Pin uint8 `short:"p" required:"" help:"Pin index (0-7)"`
}

func (g *GpioGet) Run(cli *CLI, logger *slog.Logger) error {
	c, err := cli.connect()
	if err != nil {
		return err
	}
	defer c.Close()
	state, err := c.GpioGet(g.Pin)
	if err != nil {
		return err
	}
	fmt.Println(state.String())
	return nil
}

type GpioPut struct {
	Pin   uint8  `short:"p" required:"" help:"Pin index (0-7)"`
	State string `short:"s" required:"" enum:"low,high,0,1" help:"Level to drive (low, high, 0, 1)"`
}

func (g *GpioPut) Run(cli *CLI, logger *slog.Logger) error {
	c, err := cli.connect()
	if err != nil {
		return err
	}
	defer c.Close()
	state := wire.Low
	if g.State == "high" || g.State == "1" {
		state = wire.High
	}
	return c.GpioPut(g.Pin, state)
}

type GpioWait struct {
	Pin  uint8  `short:"p" required:"" help:"Pin index (0-7)"`
	Cond string `short:"w" required:"" enum:"high,low,rising,falling,any" help:"Condition to wait for"`
}

func (g *GpioWait) Run(cli *CLI, logger *slog.Logger) error {
	c, err := cli.connect()
	if err != nil {
		return err
	}
	defer c.Close()
	logger.Info("waiting on pin", "pin", g.Pin, "cond", g.Cond)
	switch g.Cond {
	case "high":
		err = c.GpioWaitForHigh(g.Pin)
	case "low":
		err = c.GpioWaitForLow(g.Pin)
	case "rising":
		err = c.GpioWaitForRisingEdge(g.Pin)
	case "falling":
		err = c.GpioWaitForFallingEdge(g.Pin)
	case "any":
		err = c.GpioWaitForAnyEdge(g.Pin)
	}
	return err
}

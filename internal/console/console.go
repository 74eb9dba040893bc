// Package console prints command results for people or machines.
package console

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/dfornika/irida/types"
)

type Console struct {
	OutputStyle types.OutputStyle
	Spinner     *spinner.Spinner

	out    io.Writer
	errOut io.Writer
}

func New(style types.OutputStyle) *Console {
	return NewWithWriters(style, os.Stdout, os.Stderr)
}

func NewWithWriters(style types.OutputStyle, out, errOut io.Writer) *Console {
	return &Console{
		OutputStyle: style,
		Spinner: spinner.New(
			spinner.CharSets[11],
			100*time.Millisecond,
			spinner.WithHiddenCursor(true),
			spinner.WithWriter(errOut)),
		out:    out,
		errOut: errOut,
	}
}

func (c *Console) human() bool {
	return c.OutputStyle == types.StyleHuman || c.OutputStyle == types.StyleHumanVerbose
}

func (c *Console) Info(msg string, args ...any) {
	if c.human() {
		fmt.Fprintf(c.out, msg+"\n", args...)
	}
}

func (c *Console) Verbose(msg string, args ...any) {
	if c.OutputStyle == types.StyleHumanVerbose {
		fmt.Fprintf(c.out, msg+"\n", args...)
	}
}

// Error prints in every style so machine consumers still see failures.
func (c *Console) Error(msg string, args ...any) {
	fmt.Fprintf(c.errOut, "Error: "+msg+"\n", args...)
}

func (c *Console) Json(data any) error {
	if c.OutputStyle != types.StyleMachineJSON {
		return nil
	}
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(c.out, string(encoded))
	return err
}

// StartSpinner shows text next to the spinner until StopSpinner.
func (c *Console) StartSpinner(text string) {
	if c.human() {
		c.Spinner.Suffix = " " + text
		c.Spinner.Start()
	}
}

func (c *Console) StopSpinner() {
	if c.human() {
		c.Spinner.Stop()
	}
}

package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/cottand/jet/internal/log"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// outputFlags are the flags every command takes
type outputFlags struct {
	logLevel *int
	color    *string
}

func registerOutputFlags(c *cobra.Command) *outputFlags {
	return &outputFlags{
		logLevel: c.Flags().IntP("log-level", "l", int(slog.LevelError), "log level"),
		color:    c.Flags().String("color", "auto", "colorize output: auto, always or never"),
	}
}

// printer sets the log level and returns a printer for the command's output
func (o *outputFlags) printer(c *cobra.Command) (*printer, error) {
	log.SetLevel(slog.Level(*o.logLevel))
	w := c.OutOrStdout()
	p := &printer{w: w}
	switch *o.color {
	case "always":
		p.colored = true
	case "never":
	case "auto":
		p.colored = isTerminal(w)
	default:
		return nil, fmt.Errorf("unknown color mode %q", *o.color)
	}
	return p, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

const (
	green = "\x1b[32m"
	red   = "\x1b[31m"
	faint = "\x1b[2m"
	reset = "\x1b[0m"
)

type printer struct {
	w       io.Writer
	colored bool
}

func (p *printer) paint(color, s string) string {
	if !p.colored {
		return s
	}
	return color + s + reset
}

func (p *printer) println(format string, args ...any) {
	_, _ = fmt.Fprintf(p.w, format+"\n", args...)
}

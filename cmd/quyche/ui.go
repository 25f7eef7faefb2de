package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// ui writes command output, colored unless --no-color is set.
type ui struct {
	out     io.Writer
	err     io.Writer
	noColor bool
}

func newUI(cmd *cobra.Command) *ui {
	noColor, _ := cmd.Flags().GetBool("no-color")
	return &ui{
		out:     cmd.OutOrStdout(),
		err:     cmd.ErrOrStderr(),
		noColor: noColor || color.NoColor,
	}
}

func (u *ui) colored(attr color.Attribute, format string, args ...interface{}) {
	if u.noColor {
		fmt.Fprintf(u.out, format, args...)
		return
	}
	color.New(attr).Fprintf(u.out, format, args...)
}

// Success prints a success message.
func (u *ui) Success(format string, args ...interface{}) {
	u.colored(color.FgGreen, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (u *ui) Warning(format string, args ...interface{}) {
	u.colored(color.FgYellow, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Info prints an info message.
func (u *ui) Info(format string, args ...interface{}) {
	u.colored(color.FgCyan, "ℹ %s\n", fmt.Sprintf(format, args...))
}

// Header prints a section header.
func (u *ui) Header(title string) {
	u.colored(color.Bold, "\n%s:\n", title)
}

// Printf prints uncolored text.
func (u *ui) Printf(format string, args ...interface{}) {
	fmt.Fprintf(u.out, format, args...)
}

// progress is a page counter drawn on stderr.
type progress struct {
	bar   *progressbar.ProgressBar
	total int
}

// NewProgressBar creates a progress bar whose total is set by the first
// Update call.
func (u *ui) NewProgressBar(description string) *progress {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(u.err),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("pages"),
		progressbar.OptionEnableColorCodes(!u.noColor),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(u.err, "\n")
		}),
	)
	return &progress{bar: bar}
}

// Update moves the bar to done of total pages.
func (p *progress) Update(done, total int) {
	if p.total != total {
		p.bar.ChangeMax(total)
		p.total = total
	}
	_ = p.bar.Set(done)
}

// Finish completes the bar.
func (p *progress) Finish() {
	_ = p.bar.Finish()
}

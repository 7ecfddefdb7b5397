// Package cli implements the voicefx command-line contract: three positional
// arguments in, one JSON object out.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/book-expert/logger"

	"github.com/book-expert/voicefx/internal/core"
	"github.com/book-expert/voicefx/internal/voice"
)

// ExpectedArgs is the number of positional arguments: text, output path and
// voice options JSON.
const ExpectedArgs = 3

// MsgInvalidArguments is reported verbatim when the argument count is wrong.
const MsgInvalidArguments = "Invalid number of arguments"

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
)

// Response is the single JSON object written to stdout.
type Response struct {
	Success bool   `json:"success"`
	Path    string `json:"path,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Renderer produces the output file for one request.
type Renderer interface {
	Render(ctx context.Context, text, outputPath string, opts voice.Options) error
}

// App runs one CLI invocation.
type App struct {
	renderer       Renderer
	stdout         io.Writer
	log            *logger.Logger
	strictExitCode bool
}

// NewApp creates an App that reports to stdout. With strictExitCode set,
// reported failures also produce a non-zero exit code.
func NewApp(renderer Renderer, stdout io.Writer, log *logger.Logger, strictExitCode bool) *App {
	return &App{
		renderer:       renderer,
		stdout:         stdout,
		log:            log,
		strictExitCode: strictExitCode,
	}
}

// Run executes the request described by args (program name excluded),
// writes the JSON response and returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) != ExpectedArgs {
		a.log.Error("%v: got %d, want %d", core.ErrInvalidArguments, len(args), ExpectedArgs)

		return a.fail(MsgInvalidArguments)
	}

	text, outputPath, rawOptions := args[0], args[1], args[2]

	opts, err := voice.Parse(rawOptions)
	if err != nil {
		a.log.Error("Rejected voice options: %v", err)

		return a.fail(err.Error())
	}

	err = a.renderer.Render(ctx, text, outputPath, opts)
	if err != nil {
		a.log.Error("Failed to render %s: %v", outputPath, err)

		return a.fail(err.Error())
	}

	a.log.Info("Generated speech: %s", outputPath)

	return a.respond(Response{Success: true, Path: outputPath}, ExitOK)
}

func (a *App) fail(message string) int {
	code := ExitOK
	if a.strictExitCode {
		code = ExitFailure
	}

	return a.respond(Response{Success: false, Error: message}, code)
}

func (a *App) respond(resp Response, code int) int {
	data, err := json.Marshal(resp)
	if err != nil {
		a.log.Error("Failed to marshal response: %v", err)

		return ExitFailure
	}

	_, err = fmt.Fprintln(a.stdout, string(data))
	if err != nil {
		a.log.Error("Failed to write response: %v", err)

		return ExitFailure
	}

	return code
}

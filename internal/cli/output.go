package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitRejected     = 1 // engine rejected the request or upstream import failed
	ExitCommandError = 2 // bad arguments, missing records, infrastructure failures
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// GetExitCode extracts the exit code from an error. Unknown errors map to ExitCommandError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// Response is the JSON envelope printed with --format json.
type Response struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody describes a failed command in JSON output.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Result prints an engine outcome. A rejected result becomes an ExitRejected error.
func (f *OutputFormatter) Result(result *models.Result) error {
	if result == nil {
		return &ExitError{Code: ExitCommandError, Message: "empty result"}
	}
	if f.Format == "json" {
		status := "ok"
		if !result.Success {
			status = "rejected"
		}
		if err := f.writeJSON(Response{Status: status, Data: result}); err != nil {
			return err
		}
	} else {
		mark := "ok"
		if !result.Success {
			mark = "rejected"
		}
		if _, err := fmt.Fprintf(f.Writer, "[%s] %s\n", mark, result.Message); err != nil {
			return err
		}
	}
	if !result.Success {
		return &ExitError{Code: ExitRejected, Message: result.Message}
	}
	return nil
}

// Data prints a successful payload; text renders via the supplied function.
func (f *OutputFormatter) Data(data interface{}, text func(w io.Writer) error) error {
	if f.Format == "json" {
		return f.writeJSON(Response{Status: "ok", Data: data})
	}
	return text(f.Writer)
}

// Failure prints err and returns an ExitError so main can pick the code.
func (f *OutputFormatter) Failure(err error) error {
	appErr := appErrors.FromError(err)
	if f.Format == "json" {
		_ = f.writeJSON(Response{Status: "error", Error: &ErrorBody{Code: appErr.Code, Message: appErr.Message}})
	} else {
		fmt.Fprintf(f.Writer, "[error] %s\n", appErr.Message)
	}
	return &ExitError{Code: ExitCommandError, Message: appErr.Message, Err: err}
}

func (f *OutputFormatter) writeJSON(v interface{}) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/memorychain/internal/engine"
	"github.com/roach88/memorychain/internal/program"
)

type textResult struct{ Name string }

func (r textResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "name=%s\n", r.Name)
	return err
}

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]string{"result": "success"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"result": "success"}, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONErrorWithDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error("NOT_FOUND", "no memory stored", map[string]int{"seq": 4}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "no memory stored", resp.Error.Message)
	assert.Equal(t, map[string]any{"seq": float64(4)}, resp.Error.Details)
}

func TestOutputFormatter_Text(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success(textResult{Name: "a"}))
	require.NoError(t, formatter.Success("plain"))
	assert.Equal(t, "name=a\nplain\n", buf.String())

	buf.Reset()
	require.NoError(t, formatter.Error("E", "boom", textResult{Name: "b"}))
	assert.Equal(t, "name=b\nError [E]: boom\n", buf.String())

	buf.Reset()
	require.NoError(t, formatter.Error("E", "boom", map[string]int{"ignored": 1}))
	assert.Equal(t, "Error [E]: boom\n", buf.String())
}

func TestExitError(t *testing.T) {
	cause := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "failed to open database", cause)

	assert.Equal(t, "failed to open database: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", err)))
	assert.Equal(t, ExitFailure, GetExitCode(cause))
	assert.Equal(t, "plain", NewExitError(ExitFailure, "plain").Error())
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"program error", WrapExitError(ExitFailure, "no valid record", &program.Error{Code: program.ErrCodeNotFound}), "NOT_FOUND"},
		{"engine error", WrapExitError(ExitFailure, "rejected", engine.NewDuplicateError("tx")), "DUPLICATE_TRANSACTION"},
		{"command error", NewExitError(ExitCommandError, "bad flag"), "COMMAND_ERROR"},
		{"failure", NewExitError(ExitFailure, "mismatch"), "FAILURE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorCode(tt.err))
		})
	}
}

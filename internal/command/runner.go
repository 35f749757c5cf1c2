// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package command runs external programs: hook tools, apt-get, dpkg-query
// and friends.
package command

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/juju/errors"
	"github.com/kballard/go-shellquote"
)

// Params describes a single program invocation.
type Params struct {
	// Name is the program to run, looked up on PATH.
	Name string

	// Args are the arguments passed to the program.
	Args []string

	// Stdin, if not nil, is written to the program's standard input.
	Stdin []byte

	// Env holds additional KEY=value pairs appended to the current
	// process environment.
	Env []string
}

// String returns the shell-quoted command line.
func (p Params) String() string {
	return shellquote.Join(append([]string{p.Name}, p.Args...)...)
}

// Result holds the output of a finished program.
type Result struct {
	Stdout []byte
	Stderr []byte
	Code   int
}

// Runner runs external programs.
type Runner interface {
	// Run runs the program described by params and waits for it to
	// finish. A non-zero exit status is reported as an *ExitError.
	Run(ctx context.Context, params Params) (*Result, error)
}

// ExitError is returned when a program exits with a non-zero status.
type ExitError struct {
	Command string
	Code    int
	Stderr  string
}

// Error implements error.
func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited %d", e.Command, e.Code)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

// ExitCode returns the exit code carried by err, and whether err was
// an *ExitError at all.
func ExitCode(err error) (int, bool) {
	exitErr, ok := errors.AsType[*ExitError](err)
	if !ok {
		return 0, false
	}
	return exitErr.Code, true
}

// NewRunner returns a Runner that executes programs on the local host.
func NewRunner() Runner {
	return execRunner{}
}

type execRunner struct{}

// Run implements Runner.
func (execRunner) Run(ctx context.Context, params Params) (*Result, error) {
	cmd := exec.CommandContext(ctx, params.Name, params.Args...)
	if len(params.Env) > 0 {
		cmd.Env = append(os.Environ(), params.Env...)
	}
	if params.Stdin != nil {
		cmd.Stdin = bytes.NewReader(params.Stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &Result{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}
	if err == nil {
		return result, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		result.Code = exitErr.ExitCode()
		return result, &ExitError{
			Command: params.String(),
			Code:    result.Code,
			Stderr:  stderr.String(),
		}
	}
	return nil, errors.Annotatef(err, "running %s", params.String())
}

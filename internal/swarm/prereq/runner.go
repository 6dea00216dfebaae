// SPDX-License-Identifier: Apache-2.0

package prereq

import (
	"bytes"
	"os/exec"
	"time"
)

// CommandResult holds the result of a probe command execution
type CommandResult struct {
	Output     []byte
	Stderr     []byte
	Error      error
	ExitStatus int
}

// Ok reports whether the command ran and exited zero.
func (r *CommandResult) Ok() bool {
	return r.Error == nil && r.ExitStatus == 0
}

// Runner executes probe commands for the prerequisite checker. Tests swap in
// a fake to avoid shelling out.
type Runner interface {
	LookPath(name string) bool
	Run(dir string, timeout time.Duration, name string, args ...string) *CommandResult
}

// execRunner is the real Runner backed by os/exec.
type execRunner struct{}

// NewRunner creates the default command runner
func NewRunner() Runner {
	return execRunner{}
}

func (execRunner) LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func (execRunner) Run(dir string, timeout time.Duration, name string, args ...string) *CommandResult {
	cmd := exec.Command(name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if dir != "" {
		cmd.Dir = dir
	}

	done := make(chan error, 1)
	if err := cmd.Start(); err != nil {
		return &CommandResult{Error: err, ExitStatus: -1}
	}
	go func() { done <- cmd.Wait() }()

	var err error
	select {
	case err = <-done:
	case <-time.After(timeout):
		_ = cmd.Process.Kill()
		err = <-done
	}

	result := &CommandResult{
		Output: stdout.Bytes(),
		Stderr: stderr.Bytes(),
		Error:  err,
	}
	if exitError, ok := err.(*exec.ExitError); ok {
		result.ExitStatus = exitError.ExitCode()
	} else if err != nil {
		result.ExitStatus = -1
	}

	return result
}

// Copyright 2025.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"github.com/boosh-ssh/boosh/internal/core/domain"
)

const (
	DefaultSSHBinary   = "ssh"
	DefaultRelayBinary = "nc"
)

// CommandFactory builds the process for name and args.
type CommandFactory func(ctx context.Context, name string, args ...string) *exec.Cmd

// ExecLauncher runs a connection plan as a child process wired to the
// caller's standard streams.
type ExecLauncher struct {
	SSHBinary   string
	RelayBinary string
	Stdin       io.Reader
	Stdout      io.Writer
	Stderr      io.Writer

	newCommand CommandFactory
	logger     *zap.SugaredLogger
}

// NewExecLauncher returns a launcher using the process's standard streams.
func NewExecLauncher(logger *zap.SugaredLogger) *ExecLauncher {
	return NewExecLauncherWithCommand(logger, exec.CommandContext)
}

// NewExecLauncherWithCommand returns a launcher that builds processes with newCommand.
func NewExecLauncherWithCommand(logger *zap.SugaredLogger, newCommand CommandFactory) *ExecLauncher {
	return &ExecLauncher{
		SSHBinary:   DefaultSSHBinary,
		RelayBinary: DefaultRelayBinary,
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		newCommand:  newCommand,
		logger:      logger,
	}
}

// CommandLine returns the argv that runs plan.
func (l *ExecLauncher) CommandLine(plan domain.ConnectionPlan) ([]string, error) {
	switch plan.Mode {
	case domain.PlanDirect:
		return []string{l.RelayBinary, plan.Address, strconv.Itoa(plan.Port)}, nil
	case domain.PlanGatewayTunnel, domain.PlanGatewayRelay:
		return append([]string{l.SSHBinary}, plan.SSHArgs...), nil
	default:
		return nil, fmt.Errorf("unknown plan mode %q", plan.Mode)
	}
}

// SessionCommandLine returns the interactive ssh argv that reaches id with
// proxy run as its ProxyCommand.
func (l *ExecLauncher) SessionCommandLine(proxy, id string) []string {
	return []string{l.SSHBinary, "-o", "ProxyCommand=" + shellquote.Join(proxy) + " %h %p", id}
}

// Launch runs plan and waits for it. A non-zero exit is returned as an
// error wrapping *exec.ExitError so callers can propagate the status.
func (l *ExecLauncher) Launch(ctx context.Context, plan domain.ConnectionPlan) error {
	argv, err := l.CommandLine(plan)
	if err != nil {
		return err
	}
	return l.run(ctx, plan.InstanceID, argv)
}

// OpenSession runs an interactive ssh session to id and waits for it. ssh
// reaches the instance by running proxy as its ProxyCommand.
func (l *ExecLauncher) OpenSession(ctx context.Context, proxy, id string) error {
	return l.run(ctx, id, l.SessionCommandLine(proxy, id))
}

func (l *ExecLauncher) run(ctx context.Context, id string, argv []string) error {
	cmd := l.newCommand(ctx, argv[0], argv[1:]...)
	if cmd == nil {
		return errors.New("command factory returned nil")
	}
	cmd.Stdin = l.Stdin
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr

	l.logger.Debugw("launching", "instance_id", id, "argv", argv)
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%s exited with status %d: %w", argv[0], exitErr.ExitCode(), err)
		}
		return fmt.Errorf("failed to run %s: %w", argv[0], err)
	}
	return nil
}

// ExitStatus returns the child exit status carried by err, if any.
func ExitStatus(err error) (int, bool) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return exitErr.ExitCode(), true
	}
	return 0, false
}

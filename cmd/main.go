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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/boosh-ssh/boosh/internal/adapters/aws"
	"github.com/boosh-ssh/boosh/internal/adapters/config"
	"github.com/boosh-ssh/boosh/internal/adapters/data/file"
	"github.com/boosh-ssh/boosh/internal/adapters/flags"
	"github.com/boosh-ssh/boosh/internal/adapters/launcher"
	"github.com/boosh-ssh/boosh/internal/adapters/logger"
	"github.com/boosh-ssh/boosh/internal/adapters/ui"
	"github.com/boosh-ssh/boosh/internal/core/domain"
	"github.com/boosh-ssh/boosh/internal/core/ports"
	"github.com/boosh-ssh/boosh/internal/core/services"
)

var (
	version   = "develop"
	gitCommit = "unknown"
)

const (
	directorySDK = "sdk"
	directoryCLI = "cli"
)

// app holds the wiring shared by every subcommand. It is filled in by the
// root command's PersistentPreRunE once flags are parsed.
type app struct {
	paths ports.ConfigProvider
	flags ports.FlagsProvider

	region    string
	refresh   bool
	directory string

	log      *zap.SugaredLogger
	launcher *launcher.ExecLauncher
	service  connectService
	profiles *aws.SharedProfiles
}

// connectService is the picker's view of the pipeline plus the relay itself.
type connectService interface {
	ui.InstanceService
	Connect(ctx context.Context, id string, port int, opts services.ResolveOptions) error
}

func main() {
	paths, err := config.NewOSConfig()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%s: %v\n", ui.AppName, err)
		os.Exit(domain.ExitGeneralError)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	a := &app{paths: paths}
	rootCmd := a.rootCommand()

	err = rootCmd.ExecuteContext(ctx)
	stop()
	if a.log != nil {
		//nolint:errcheck // log.Sync may return an error which is safe to ignore here
		a.log.Sync()
	}
	os.Exit(a.exitCode(err))
}

func (a *app) rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   ui.AppName + " <instance-id> [port]",
		Short: "Connect to a cloud instance by id, through a gateway when needed",
		Long: `boosh resolves a short instance id to its address, using a local cache
first and then every configured AWS profile and region. It then relays the
connection directly or through the gateway matched for the instance's group.

Use it as an ssh ProxyCommand:

  Host i-*
    ProxyCommand boosh %h %p`,
		Version:           fmt.Sprintf("%s (%s)", version, gitCommit),
		Args:              cobra.RangeArgs(1, 2),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			port, err := parsePort(args)
			if err != nil {
				return err
			}
			return a.service.Connect(cmd.Context(), args[0], port, a.resolveOptions())
		},
	}

	a.flags = flags.NewCobraFlags(rootCmd)
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.region, "region", "", "Search only this region for every profile")
	pf.BoolVar(&a.refresh, "refresh", false, "Skip the cache read and search the directory")
	pf.StringVar(&a.directory, "directory", directorySDK, "Directory backend: sdk or cli")

	rootCmd.AddCommand(
		a.resolveCommand(),
		a.credsCommand(),
		a.sshConfigCommand(),
		a.pickCommand(),
		a.cacheCommand(),
		a.configCommand(),
	)
	return rootCmd
}

// setup builds the logger and services once flags are known.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	console := io.Writer(os.Stderr)
	if cmd.Name() == "pick" {
		// The picker owns the terminal.
		console = io.Discard
	}
	log, err := logger.New(ui.AppName, logger.Options{
		LogFile: a.paths.LogPath(),
		Debug:   a.flags.IsDebug(),
		Console: console,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.log = log

	cachePath := a.paths.CachePath()
	if v := a.flags.GetFlag(flags.FlagCache); v != "" {
		cachePath = a.paths.ExpandPath(v)
	}
	configPath := a.configPath()

	var directory ports.InstanceDirectory
	switch a.directory {
	case directorySDK:
		directory = aws.NewDirectory(log)
	case directoryCLI:
		directory = aws.NewCLIDirectory(log)
	default:
		return fmt.Errorf("unknown directory backend %q (want %s or %s)", a.directory, directorySDK, directoryCLI)
	}

	a.profiles = aws.NewSharedProfiles(log)
	a.launcher = launcher.NewExecLauncher(log)
	a.service = services.NewConnectService(log,
		file.NewInstanceCache(log, cachePath),
		services.NewDirectoryClient(log, a.profiles, directory),
		file.NewConfigLoader(log, configPath),
		a.launcher,
	)

	log.Debugw("boosh started", "version", version, "cache", cachePath, "config", configPath, "directory", a.directory)
	return nil
}

func (a *app) resolveOptions() services.ResolveOptions {
	return services.ResolveOptions{Region: a.region, Refresh: a.refresh}
}

// exitCode prints err and maps it to the process exit status. A failed
// session keeps the status of the launched program.
func (a *app) exitCode(err error) int {
	if err == nil {
		return domain.ExitSuccess
	}
	if errors.Is(err, aws.ErrUnknownProfile) {
		_, _ = fmt.Fprintln(os.Stderr, "Please select a properly configured profile.")
		return domain.ExitCredentials
	}
	_, _ = fmt.Fprintf(os.Stderr, "%s: %v\n", ui.AppName, err)
	if status, ok := launcher.ExitStatus(err); ok {
		return status
	}
	return domain.ExitCode(err)
}

// parsePort reads the optional port argument, defaulting to 22.
func parsePort(args []string) (int, error) {
	if len(args) < 2 {
		return ui.DefaultPort, nil
	}
	port, err := strconv.Atoi(args[1])
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid port %q", args[1])
	}
	return port, nil
}

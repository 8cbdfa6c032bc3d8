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
	"fmt"
	"os"
	"path/filepath"

	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/boosh-ssh/boosh/internal/adapters/aws"
	"github.com/boosh-ssh/boosh/internal/adapters/data/file"
	"github.com/boosh-ssh/boosh/internal/adapters/data/ssh_config_file"
	"github.com/boosh-ssh/boosh/internal/adapters/flags"
	"github.com/boosh-ssh/boosh/internal/adapters/ui"
	"github.com/boosh-ssh/boosh/internal/core/domain"
)

func (a *app) resolveCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "resolve <instance-id> [port]",
		Short: "Print the instance, gateway and command without connecting",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
			}
			port, err := parsePort(args)
			if err != nil {
				return err
			}
			res, err := a.service.Plan(cmd.Context(), args[0], port, a.resolveOptions())
			if err != nil {
				return err
			}
			argv, err := a.launcher.CommandLine(res.Plan)
			if err != nil {
				return err
			}
			view := newResolutionView(res, argv)

			repo := ssh_config_file.NewRepository(a.log, a.sshConfigPath(""))
			if view.SSHProxyCommand, err = repo.ProxyCommandFor(args[0]); err != nil {
				a.log.Warnw("failed to read ssh config", "error", err)
			}
			return writeResolution(cmd.OutOrStdout(), format, view)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, json or yaml")
	return cmd
}

func (a *app) credsCommand() *cobra.Command {
	var profile string
	cmd := &cobra.Command{
		Use:   "creds",
		Short: "Print a profile's credentials as environment assignments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return aws.ExportCredentials(cmd.Context(), cmd.OutOrStdout(), a.profiles, aws.RetrieveCredentials, profile)
		},
	}
	cmd.Flags().StringVarP(&profile, "profile", "p", "", "Profile to export")
	return cmd
}

func (a *app) sshConfigCommand() *cobra.Command {
	var (
		pattern      string
		configPath   string
		user         string
		identityFile string
	)
	cmd := &cobra.Command{
		Use:   "ssh-config",
		Short: "Route matching ssh hosts through boosh in ~/.ssh/config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("failed to locate boosh binary: %w", err)
			}
			configPath = a.sshConfigPath(configPath)
			repo := ssh_config_file.NewRepository(a.log, configPath)
			host := ssh_config_file.ProxyHost{
				Pattern:      pattern,
				ProxyCommand: shellquote.Join(exe) + " %h %p",
				User:         user,
				IdentityFile: identityFile,
			}
			installed, err := repo.Install(host)
			if err != nil {
				return err
			}
			if installed {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Added Host %s to %s\n", pattern, configPath)
			} else {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "Host %s already routed through boosh\n", pattern)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&pattern, "pattern", "i-*", "Host pattern to route")
	cmd.Flags().StringVar(&configPath, "ssh-config", "", "ssh client config file (default ~/.ssh/config)")
	cmd.Flags().StringVar(&user, "user", "", "User for matching hosts")
	cmd.Flags().StringVar(&identityFile, "identity-file", "", "IdentityFile for matching hosts")
	return cmd
}

func (a *app) pickCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pick",
		Short: "Choose a cached instance interactively",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			exe, err := os.Executable()
			if err != nil {
				exe = ui.AppName
			}
			return ui.NewTUI(a.log, a.service, a.launcher, exe, version).Run()
		},
	}
}

func (a *app) cacheCommand() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the instance cache",
	}
	var output string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List cached instances, first record per id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseOutputFormat(output)
			if err != nil {
				return err
			}
			instances, err := a.service.ListCached()
			if err != nil {
				return err
			}
			return writeInstances(cmd.OutOrStdout(), format, instances)
		},
	}
	listCmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text, json or yaml")
	cacheCmd.AddCommand(listCmd)
	return cacheCmd
}

func (a *app) configCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the gateway and group configuration",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.configPath()
			written, err := file.InitConfig(a.log, path)
			if err != nil {
				return err
			}
			if !written {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s already exists\n", path)
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", path)
			return err
		},
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Load the configuration and report problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.configPath()
			cfg, err := file.NewConfigLoader(a.log, path).Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "%s: %d gateways, %d groups, %d profiles\n",
				path, len(cfg.Gateways), len(cfg.Groups), len(cfg.Profiles)); err != nil {
				return err
			}
			dangling := danglingGroups(cfg)
			for _, g := range dangling {
				if _, err := fmt.Fprintf(out, "group %s: gateway %q is not defined\n", g.Name, g.Gateway); err != nil {
					return err
				}
			}
			if len(dangling) > 0 {
				return &domain.ConfigError{Reason: fmt.Sprintf("%d groups reference undefined gateways", len(dangling))}
			}
			return nil
		},
	})
	return configCmd
}

// configPath is the configuration file selected by --config or the environment.
func (a *app) configPath() string {
	if v := a.flags.GetFlag(flags.FlagConfig); v != "" {
		return a.paths.ExpandPath(v)
	}
	return a.paths.ConfigPath()
}

// sshConfigPath is path expanded, or ~/.ssh/config when path is empty.
func (a *app) sshConfigPath(path string) string {
	if path == "" {
		return filepath.Join(a.paths.HomeDir(), ".ssh", "config")
	}
	return a.paths.ExpandPath(path)
}

// danglingGroups returns groups whose gateway is not defined. Resolution only
// fails on them when they are the first match for an instance.
func danglingGroups(cfg domain.Configuration) []domain.Group {
	var out []domain.Group
	for _, g := range cfg.Groups {
		if _, ok := cfg.Gateways[g.Gateway]; !ok {
			out = append(out, g)
		}
	}
	return out
}

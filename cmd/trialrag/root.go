// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"errors"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sigil-dev/trialrag/internal/config"
	ragerr "github.com/sigil-dev/trialrag/pkg/errors"
	ragelog "github.com/sigil-dev/trialrag/pkg/log"
)

// annotationBootstrap marks commands that write a default config file when
// none is found.
const annotationBootstrap = "trialrag/bootstrap-config"

// app carries state shared by every subcommand of one root command.
type app struct {
	v          *viper.Viper
	cfg        *config.Config
	logCloser  io.Closer
	configPath string
}

// NewRootCmd creates the root trialrag command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "trialrag",
		Short:         "trialrag: question answering over clinical trial documents",
		Long:          "trialrag stores clinical trial documents in an in-memory vector store and answers questions about them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.logCloser != nil {
				return a.logCloser.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	root.PersistentFlags().String("address", "", "server address for client commands (default: server.listen)")

	root.AddCommand(
		newStartCmd(a),
		newStatusCmd(a),
		newVersionCmd(),
		newCollectionsCmd(a),
		newIngestCmd(a),
		newQueryCmd(a),
		newAskCmd(a),
		newSecretCmd(),
	)

	return root
}

// init applies the standard precedence (flag > env > file > defaults),
// validates the result and installs the logger.
func (a *app) init(cmd *cobra.Command) error {
	config.SetDefaults(a.v)
	config.SetupEnv(a.v)

	if err := a.readConfig(cmd); err != nil {
		return err
	}

	cfg, err := config.FromViper(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logCfg := cfg.LogConfig()
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logCfg.Level = "debug"
	}
	closer, err := ragelog.Init(logCfg)
	if err != nil {
		return err
	}
	a.logCloser = closer

	config.WarnInsecurePermissions(a.configPath)
	return nil
}

func (a *app) readConfig(cmd *cobra.Command) error {
	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return ragerr.Wrapf(err, ragerr.CodeConfigLoadReadFailure, "reading config file %s", cfgFile)
		}
		a.configPath = cfgFile
		return nil
	}

	a.v.SetConfigName("trialrag")
	a.v.AddConfigPath(".")
	a.v.AddConfigPath("$HOME/.config/trialrag")
	a.v.AddConfigPath("/etc/trialrag")

	err := a.v.ReadInConfig()
	if err == nil {
		a.configPath = a.v.ConfigFileUsed()
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if !errors.As(err, &notFound) {
		return ragerr.Wrapf(err, ragerr.CodeConfigLoadReadFailure, "reading config")
	}
	if cmd.Annotations[annotationBootstrap] != "true" {
		return nil
	}

	path, err := config.DefaultConfigPath()
	if err != nil || !config.Bootstrap(path) {
		return nil
	}
	a.v.SetConfigFile(path)
	if err := a.v.ReadInConfig(); err != nil {
		return ragerr.Wrapf(err, ragerr.CodeConfigLoadReadFailure, "reading bootstrapped config")
	}
	a.configPath = path
	return nil
}

// address returns the server address client commands talk to.
func (a *app) address(cmd *cobra.Command) string {
	if addr, _ := cmd.Flags().GetString("address"); addr != "" {
		return addr
	}
	return a.cfg.Server.Listen
}

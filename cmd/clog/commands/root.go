/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

// Package commands holds the clog cobra commands.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/traas-stack/clog/pkg/appconfig"
	"github.com/traas-stack/clog/pkg/logger"
)

func NewRootCommand() *cobra.Command {
	o := &options{}

	cmd := &cobra.Command{
		Use:   "clog",
		Short: "Learn the shapes of log lines, then report the lines nobody has seen before",
		Long: `clog learns positional word filters from log lines read on stdin.

In learning mode every line either extends the most similar filter of the same word count
or becomes a new filter, and the filters are saved at the end of the run. In passive mode
the saved filters are only read, and every line no filter matches exactly is written
verbatim to stderr.`,
		Version: fmt.Sprintf("%s (built %s, commit %s)",
			appconfig.VersionInfo()["version"], appconfig.VersionInfo()["buildTime"], appconfig.VersionInfo()["commit"]),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.complete(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	o.addGlobalFlags(cmd)

	cmd.AddCommand(
		newLearnCommand(o),
		newPassiveCommand(o),
		newDumpCommand(o),
		newVersionCommand(),
	)
	return cmd
}

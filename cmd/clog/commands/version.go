/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package commands

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/traas-stack/clog/pkg/appconfig"
)

func newVersionCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		// no config or logging needed
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			info := appconfig.VersionInfo()
			info["platform"] = fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)

			w := cmd.OutOrStdout()
			if output == "json" {
				b, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(w, string(b))
				return err
			}
			fmt.Fprintf(w, "clog %s\n", info["version"])
			fmt.Fprintf(w, "  build time: %s\n", info["buildTime"])
			fmt.Fprintf(w, "  commit:     %s\n", info["commit"])
			fmt.Fprintf(w, "  go version: %s\n", info["goversion"])
			fmt.Fprintf(w, "  platform:   %s\n", info["platform"])
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format (text, json)")
	return cmd
}

/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/traas-stack/clog/cmd/clog/commands"
)

// clog entry
func main() {
	if err := commands.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "clog: %v\n", err)
		os.Exit(1)
	}
}

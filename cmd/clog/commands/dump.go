/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/traas-stack/clog/pkg/filterstore"
	"github.com/traas-stack/clog/pkg/loganalysis"
)

var (
	indexStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	fixedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	variedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	summaryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("82"))
)

func newDumpCommand(o *options) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the saved filters",
		Long: `Dump prints every saved filter in creation order, one per line. A slot with a single word
is printed as the word, a slot with alternatives as [a,b,c].`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.dump(cmd, raw)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the stored file format instead")
	return cmd
}

func (o *options) dump(cmd *cobra.Command, raw bool) error {
	store, err := filterstore.Open(o.storeConfig(o.cfg.Store.Path))
	if err != nil {
		return err
	}
	defer store.Close()

	fs, err := loadFilters(cmd.Context(), store, loganalysis.ModePassive, o.tokenizer())
	if err != nil {
		return err
	}
	if raw {
		_, err = cmd.OutOrStdout().Write(loganalysis.Marshal(fs))
		return err
	}
	return renderFilters(cmd.OutOrStdout(), fs)
}

func renderFilters(w io.Writer, fs *loganalysis.FilterSet) error {
	width := len(fmt.Sprint(fs.Len()))
	varied := 0
	var err error
	fs.Each(func(index int, f *loganalysis.Filter) bool {
		parts := make([]string, f.Len())
		for pos := range parts {
			s := f.Slot(pos)
			if s.Len() == 1 {
				parts[pos] = fixedStyle.Render(s.Tokens()[0])
				continue
			}
			varied++
			parts[pos] = variedStyle.Render("[" + strings.Join(s.Tokens(), ",") + "]")
		}
		_, err = fmt.Fprintf(w, "%s %s\n", indexStyle.Render(fmt.Sprintf("%*d", width, index)), strings.Join(parts, " "))
		return err == nil
	})
	if err != nil {
		return err
	}
	tk := fs.Tokenizer
	_, err = fmt.Fprintln(w, summaryStyle.Render(fmt.Sprintf("%d filters, %d varied slots, ignore-columns=%d ignore-numeric=%t delimiters=%q",
		fs.Len(), varied, tk.IgnoreFirstColumns, tk.IgnoreNumericWords, tk.Delimiters)))
	return err
}

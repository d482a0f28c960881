/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package taskreconciler

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

func createStandardTable(headers []string, w io.Writer) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		MaxWidth: 100,
		Behavior: tw.Behavior{TrimSpace: tw.Off},
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader(headers),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{
				Left:   tw.On,
				Top:    tw.Off,
				Right:  tw.On,
				Bottom: tw.Off,
			},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}

// WriteSummary renders the run's apply attempts and changed files as
// markdown tables.
func WriteSummary(w io.Writer, res *Result) error {
	if res == nil {
		return nil
	}
	if res.NoChange {
		_, err := fmt.Fprintln(w, "No changes needed.")
		return err
	}

	attempts := createStandardTable([]string{"Attempt", "Outcome", "Error"}, w)
	for _, a := range res.Attempts {
		msg := ""
		if a.Err != nil {
			msg = a.Err.Error()
		}
		if err := attempts.Append([]string{strconv.Itoa(a.Number), string(a.Outcome), msg}); err != nil {
			return err
		}
	}
	if err := attempts.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	files := createStandardTable([]string{"File", "Change"}, w)
	for _, f := range res.Files {
		if err := files.Append([]string{f.Path, string(f.Op)}); err != nil {
			return err
		}
	}
	if err := files.Render(); err != nil {
		return err
	}

	switch {
	case res.PRURL != "":
		_, err := fmt.Fprintf(w, "\nPull request: %s\n", res.PRURL)
		return err
	case res.Branch != "":
		_, err := fmt.Fprintf(w, "\nCommitted %s on %s from %s@%s (not pushed)\n", res.Commit, res.Branch, res.Base, shortSHA(res.BaseSHA))
		return err
	}
	return nil
}

func shortSHA(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}

// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package main

//go:generate go run gen-docs.go --path ../../docs

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"
	hoptracecmd "github.com/telekom/hoptrace/cmd"
)

func main() {
	if err := newCmdGenDocs().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newCmdGenDocs creates the command writing the CLI reference of hoptrace
func newCmdGenDocs() *cobra.Command {
	var (
		docPath string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "gen-docs",
		Short: "Generate the hoptrace CLI reference",
		Long:  "Generates one page per hoptrace command with its flags, as markdown or man pages",
		RunE: func(_ *cobra.Command, _ []string) error {
			return genDocs(docPath, format)
		},
	}

	cmd.Flags().StringVar(&docPath, "path", "docs", "directory the pages are written to")
	cmd.Flags().StringVar(&format, "format", "markdown", "page format: markdown or man")

	return cmd
}

func genDocs(path, format string) error {
	c := hoptracecmd.BuildCmd("")
	c.DisableAutoGenTag = true

	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	var err error
	switch format {
	case "markdown":
		err = doc.GenMarkdownTree(c, path)
	case "man":
		err = doc.GenManTree(c, &doc.GenManHeader{Title: "HOPTRACE", Section: "8"}, path)
	default:
		return fmt.Errorf("unknown format %q, must be markdown or man", format)
	}
	if err != nil {
		return fmt.Errorf("failed to generate docs: %w", err)
	}
	return nil
}

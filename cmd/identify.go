// =============================================================================
// eml2csv - Identify Command
// =============================================================================
//
// This file defines the 'identify' command, which reports the EML document
// type and identifiers of one or more files. It helps to pick the matching
// counts and candidates files out of a directory of EML exports.
//
// COMMAND USAGE:
//   eml2csv identify FILE...
//
// OUTPUT:
//   Telling_TK2025.eml.xml          510b  election=TK2025  contest=6
//   Kandidatenlijsten_TK2025.eml.xml  230b  election=TK2025  contest=6
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kiesraad/eml2csv/internal/emldoc"
	"github.com/kiesraad/eml2csv/internal/validation"
)

var identifyCmd = &cobra.Command{
	Use:   "identify FILE...",
	Short: "Show the EML type, election id and contest id of files",
	Long: `Show the EML document type (e.g. 510b for counts, 230b for candidate
lists), the election id and the contest id of each file. Files that cannot be
parsed are reported and make the command fail after all files were listed.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return identify(cmd.OutOrStdout(), args)
	},
}

func init() {
	rootCmd.AddCommand(identifyCmd)
}

func identify(out io.Writer, paths []string) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	failed := 0

	for _, path := range paths {
		doc, err := emldoc.ParseFile(path)
		if err != nil {
			fmt.Fprintf(tw, "%s\terror: %v\n", path, err)
			failed++
			continue
		}

		docType := validation.DocumentType(doc)
		if docType == "" {
			docType = "not EML"
		}
		electionID, _ := validation.ElectionID(doc)
		contestID, _ := validation.ContestID(doc)
		fmt.Fprintf(tw, "%s\t%s\telection=%s\tcontest=%s\n", path, docType, orDash(electionID), orDash(contestID))
	}

	if err := tw.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be read", failed, len(paths))
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

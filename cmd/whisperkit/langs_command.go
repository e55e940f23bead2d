package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/obiente/translate/whisperkit/internal/whisper"
)

func newLangsCommand() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "langs [code-or-name]",
		Short: "List supported languages or look one up",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			langs := whisper.Languages()
			if len(args) == 1 {
				id, err := whisper.LangID(args[0])
				if err != nil {
					return err
				}
				langs = langs[id : id+1]
			}
			if jsonOutput {
				return writeJSON(cmd, langs)
			}
			title := cases.Title(language.English)
			rows := make([][]string, 0, len(langs))
			for _, l := range langs {
				rows = append(rows, []string{strconv.Itoa(l.ID), l.Code, title.String(l.Name)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(languageColumns, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Write the list as JSON")
	return cmd
}

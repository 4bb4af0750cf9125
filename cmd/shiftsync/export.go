package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/k-negishi/abi-shift-sync/internal/ics"
)

var (
	exportFlags  credentialFlags
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write this month's shifts to an iCalendar file without touching Google Calendar",
	Example: `
  shiftsync export --venue 1234 --user guard01 --pin 0000 --out shifts.ics
  shiftsync export --venue 1234 --user guard01 --pin 0000 --out - > shifts.ics
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}

		shifts, err := a.Export.Execute(cmd.Context(), exportFlags.request())
		if err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if exportOutput != "-" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("出力ファイルの作成に失敗しました: %w", err)
			}
			defer f.Close()
			w = f
		}

		if err := ics.WriteShifts(w, shifts, time.Now()); err != nil {
			return err
		}
		if exportOutput != "-" {
			fmt.Fprintf(cmd.ErrOrStderr(), "%d shifts written to %s\n", len(shifts), exportOutput)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportFlags.register(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "out", "o", "shifts.ics", "Output path, or - for stdout")
}

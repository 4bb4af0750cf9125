package main

import (
	"context"
	"fmt"
	"io"
	"iter"

	"github.com/spf13/cobra"
)

var syncFlags credentialFlags

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync and print progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd.Context())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), a.Config.SyncTimeout)
		defer cancel()

		return printProgress(cmd.OutOrStdout(), a.Sync.Execute(ctx, syncFlags.request()))
	},
}

// printProgress 進捗メッセージを1行ずつ出力し、エラーがあれば返す
func printProgress(w io.Writer, seq iter.Seq2[string, error]) error {
	for msg, err := range seq {
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, msg); err != nil {
			return fmt.Errorf("進捗の出力に失敗しました: %w", err)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncFlags.register(syncCmd)
}

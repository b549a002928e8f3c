package main

import (
	"fmt"
	"os"

	"github.com/hungpv1995/postboard/internal/snapshot"
	"github.com/hungpv1995/postboard/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect or replace the stored snapshot",
}

var snapshotExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print the stored snapshot",
	Args:  cobra.NoArgs,
	RunE:  runSnapshotExport,
}

var snapshotImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Validate a snapshot file and store it",
	Long: `Replaces the stored snapshot with the contents of file. The file must be a
JSON array of posts with unique ids; it is rejected otherwise and the store
is left untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: runSnapshotImport,
}

func init() {
	snapshotCmd.AddCommand(snapshotExportCmd, snapshotImportCmd)
}

func runSnapshotExport(cmd *cobra.Command, args []string) error {
	store, err := storage.Open(cmd.Context(), cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	data, ok, err := store.Get(cmd.Context(), snapshot.Key)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	if !ok {
		return fmt.Errorf("no snapshot stored")
	}

	fmt.Fprintln(cmd.OutOrStdout(), data)
	return nil
}

func runSnapshotImport(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	posts, err := snapshot.Decode(string(raw))
	if err != nil {
		return err
	}
	data, err := snapshot.Encode(posts)
	if err != nil {
		return err
	}

	store, err := storage.Open(cmd.Context(), cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	if err := store.Set(cmd.Context(), snapshot.Key, data); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	logger.Info("Snapshot imported", zap.String("file", args[0]), zap.Int("posts", len(posts)))
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d posts\n", len(posts))
	return nil
}

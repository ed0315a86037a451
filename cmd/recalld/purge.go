package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var purgeConfirm bool

// purgeCmd deletes all of an owner's memories.
var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete all memories for an owner",
	Long: `Delete every memory record and the vector shard for an owner.
This cannot be undone; pass --yes to confirm.

Examples:
  recalld purge --owner alice --yes`,
	RunE: runPurge,
}

func init() {
	purgeCmd.Flags().BoolVar(&purgeConfirm, "yes", false, "confirm deletion")
}

func runPurge(cmd *cobra.Command, args []string) error {
	if !purgeConfirm {
		return fmt.Errorf("refusing to purge without --yes")
	}

	env, err := openService()
	if err != nil {
		return err
	}
	defer env.close()

	n, err := env.service.PurgeOwner(cmd.Context(), ownerID)
	if err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}

	fmt.Printf("Deleted %d memories for %s\n", n, ownerID)
	return nil
}

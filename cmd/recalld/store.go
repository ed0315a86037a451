package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	storeContentType    string
	storeConversationID string
)

// storeCmd stores one memory from arguments or stdin.
var storeCmd = &cobra.Command{
	Use:   "store [content]",
	Short: "Store a memory for an owner",
	Long: `Store a memory for an owner. Content in the "key: value" form is
consolidated: a later value for the same key replaces the earlier one.

Examples:
  # Store a fact
  recalld store --owner alice --type fact "favorite color: blue"

  # Store a conversation message
  recalld store --owner alice --conversation conv-1 "I went hiking today"

  # Store from stdin
  echo "timezone: UTC" | recalld store --owner alice --type fact -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStore,
}

func init() {
	storeCmd.Flags().StringVar(&storeContentType, "type", "message", "content type (message, fact, onboarding-profile)")
	storeCmd.Flags().StringVar(&storeConversationID, "conversation", "", "conversation ID")
}

func runStore(cmd *cobra.Command, args []string) error {
	var content string
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
		content = strings.TrimSpace(string(data))
	} else {
		content = args[0]
	}

	if content == "" {
		return fmt.Errorf("no content to store")
	}

	env, err := openService()
	if err != nil {
		return err
	}
	defer env.close()

	vectorKey, err := env.service.StoreMemory(cmd.Context(), content, storeContentType, ownerID, storeConversationID, nil)
	if err != nil {
		return fmt.Errorf("failed to store memory: %w", err)
	}

	fmt.Println(vectorKey)
	return nil
}

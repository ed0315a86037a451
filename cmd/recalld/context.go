package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	contextConversationID string
	contextRecentCount    int
	contextMemoryLimit    int
)

// contextCmd assembles conversation context for an owner.
var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Assemble conversation context for an owner",
	Long: `Assemble the context block injected before a conversation turn:
the owner's profile, the most recent conversation messages, and relevant
background facts.

Examples:
  recalld context --owner alice --conversation conv-1`,
	RunE: runContext,
}

// promptCmd builds the personalized system prompt for an owner.
var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Build the personalized system prompt for an owner",
	RunE:  runPrompt,
}

func init() {
	contextCmd.Flags().StringVar(&contextConversationID, "conversation", "", "conversation ID")
	contextCmd.Flags().IntVar(&contextRecentCount, "recent", 0, "recent messages to include (0 = configured default)")
	contextCmd.Flags().IntVar(&contextMemoryLimit, "limit", 0, "relevant memories to include (0 = configured default)")
}

func runContext(cmd *cobra.Command, args []string) error {
	env, err := openService()
	if err != nil {
		return err
	}
	defer env.close()

	fmt.Println(env.service.GetConversationContext(cmd.Context(), ownerID, contextConversationID, contextRecentCount, contextMemoryLimit))
	return nil
}

func runPrompt(cmd *cobra.Command, args []string) error {
	env, err := openService()
	if err != nil {
		return err
	}
	defer env.close()

	fmt.Println(env.service.BuildPersonalizedPrompt(cmd.Context(), ownerID))
	return nil
}

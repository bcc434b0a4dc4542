package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crewforge/orchestrator/runtime/config"
)

func resetMemoriesCmd(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-memories <kind>",
		Short: "Clear crew state of the given kind (long, short, entity, knowledge, agent_knowledge, kickoff_outputs, external, all)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(*dir)
			if err != nil {
				return err
			}
			if err := c.ResetMemories(args[0]); err != nil {
				return err
			}
			fmt.Printf("reset %s memories for crew %s\n", args[0], c.Name)
			return nil
		},
	}
}

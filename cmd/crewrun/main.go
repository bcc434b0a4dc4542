// Command crewrun loads a crew from a directory of agents.yaml, tasks.yaml,
// and an optional crew.yaml, then kicks it off or resets its memories.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var dir string

	root := &cobra.Command{
		Use:   "crewrun",
		Short: "Load and run a crew defined by agents.yaml/tasks.yaml/crew.yaml",
	}
	root.PersistentFlags().StringVar(&dir, "dir", ".", "directory containing agents.yaml, tasks.yaml, and crew.yaml")

	root.AddCommand(kickoffCmd(&dir))
	root.AddCommand(resetMemoriesCmd(&dir))
	return root
}

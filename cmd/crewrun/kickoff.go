package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crewforge/orchestrator/runtime/config"
)

func kickoffCmd(dir *string) *cobra.Command {
	var inputFlags []string

	cmd := &cobra.Command{
		Use:   "kickoff",
		Short: "Run every task in the crew and print the final answer",
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := parseInputFlags(inputFlags)
			if err != nil {
				return err
			}

			c, err := config.Load(*dir)
			if err != nil {
				return err
			}

			out, err := c.Kickoff(context.Background(), inputs)
			if err != nil {
				return err
			}

			fmt.Println(out.Raw)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&inputFlags, "input", nil, "interpolation input as key=value, repeatable")
	return cmd
}

func parseInputFlags(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	inputs := make(map[string]string, len(raw))
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("crewrun: malformed --input %q, expected key=value", kv)
		}
		inputs[key] = value
	}
	return inputs, nil
}

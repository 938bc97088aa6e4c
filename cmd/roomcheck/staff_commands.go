package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"roomcheck/internal/api"
	"roomcheck/internal/inspection"
	"roomcheck/internal/roster"
)

func newStaffCommand(ctx *commandContext) *cobra.Command {
	staffCmd := &cobra.Command{
		Use:     "staff",
		Aliases: []string{"roster"},
		Short:   "Manage the bed and water crew roster",
	}

	var jsonOutput bool
	var search string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List crew members",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLocal(cmd, func(env *localEnv) error {
				list, err := env.roster.Load(cmd.Context())
				if err != nil {
					return err
				}
				bed := list.Search(inspection.SlotBed, search)
				water := list.Search(inspection.SlotWater, search)
				if jsonOutput {
					return writeJSON(cmd, api.RosterResponse{Bed: bed, Water: water})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderRoster(bed, water))
				return nil
			})
		},
	}
	listCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	listCmd.Flags().StringVar(&search, "search", "", "Only names containing this text")

	var target string
	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a crew member to one or both lists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := roster.ParseTarget(target)
			if err != nil {
				return err
			}
			return ctx.withLocal(cmd, func(env *localEnv) error {
				list, err := env.roster.Add(cmd.Context(), args[0], slot)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (bed: %d, water: %d)\n", strings.TrimSpace(args[0]), len(list.Bed), len(list.Water))
				return nil
			})
		},
	}
	addCmd.Flags().StringVar(&target, "to", "all", "List to add to: bed, water or all")

	removeCmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a crew member from both lists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLocal(cmd, func(env *localEnv) error {
				if _, err := env.roster.Remove(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", strings.TrimSpace(args[0]))
				return nil
			})
		},
	}

	staffCmd.AddCommand(listCmd, addCmd, removeCmd)
	return staffCmd
}

func renderRoster(bed, water []string) string {
	rows := max(len(bed), len(water))
	table := make([][]string, 0, rows)
	for i := 0; i < rows; i++ {
		row := []string{strconv.Itoa(i + 1), "", ""}
		if i < len(bed) {
			row[1] = bed[i]
		}
		if i < len(water) {
			row[2] = water[i]
		}
		table = append(table, row)
	}
	return renderTableSpec(tableSpec{
		headers: []string{"#", "Bed crew", "Water crew"},
		aligns:  []columnAlignment{alignRight},
		footer:  []string{"", strconv.Itoa(len(bed)), strconv.Itoa(len(water))},
	}, table)
}

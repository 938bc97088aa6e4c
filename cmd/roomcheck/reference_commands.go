package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"roomcheck/internal/api"
	"roomcheck/internal/inspection"
)

func newRoomsCommand() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:         "rooms",
		Short:       "List inspectable rooms by floor",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rooms := api.FromRegistry(inspection.DefaultRegistry())
			if jsonOutput {
				return writeJSON(cmd, rooms)
			}
			rows := make([][]string, 0, len(rooms.Floors))
			for _, floor := range rooms.Floors {
				rows = append(rows, []string{
					fmt.Sprintf("%dF", floor.Number),
					strconv.Itoa(len(floor.Rooms)),
					strings.Join(floor.Rooms, " "),
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTableSpec(tableSpec{
				headers: []string{"Floor", "Rooms", "Numbers"},
				aligns:  []columnAlignment{alignLeft, alignRight, alignLeft},
				wrap:    []int{2},
			}, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newTemplatesCommand() *cobra.Command {
	var jsonOutput bool
	var teamFlag string
	cmd := &cobra.Command{
		Use:         "templates",
		Short:       "List quick-issue templates per crew",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			teams := []inspection.Team{inspection.TeamWater, inspection.TeamBed}
			if strings.TrimSpace(teamFlag) != "" {
				team, err := inspection.ParseTeam(teamFlag)
				if err != nil {
					return err
				}
				teams = []inspection.Team{team}
			}
			if jsonOutput {
				return writeJSON(cmd, api.TemplatesResponse{
					Water: inspection.Templates(inspection.TeamWater),
					Bed:   inspection.Templates(inspection.TeamBed),
				})
			}

			colorize := shouldColorize(cmd.OutOrStdout())
			var rows [][]string
			for _, team := range teams {
				for _, tpl := range inspection.Templates(team) {
					rows = append(rows, []string{string(team), tpl.Label, gradeLabel(tpl.Grade, colorize), tpl.Description})
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTableSpec(tableSpec{
				headers: []string{"Team", "Label", "Grade", "Description"},
				wrap:    []int{3},
			}, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&teamFlag, "team", "", "Only show one crew (water or bed)")
	return cmd
}

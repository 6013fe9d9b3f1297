package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-climb-client/gyms"
)

func newGymsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gyms",
		Short: "Discover climbing gyms and their crowding levels",
	}

	var region, tag string
	list := &cobra.Command{
		Use:   "list",
		Short: "List gyms",
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := a.gyms.List(cmd.Context(), gyms.Filter{Region: region, Tag: tag})
			if err != nil {
				return err
			}
			for _, g := range found {
				fmt.Printf("%-12s %s", g.ID, g.Name)
				if g.Address != "" {
					fmt.Printf("  (%s)", g.Address)
				}
				fmt.Println()
			}
			return nil
		},
	}
	list.Flags().StringVar(&region, "region", "", "filter by region")
	list.Flags().StringVar(&tag, "tag", "", "filter by tag")

	search := &cobra.Command{
		Use:   "search <query>",
		Short: "Search gyms by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := a.gyms.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			for _, g := range found {
				fmt.Printf("%-12s %s\n", g.ID, g.Name)
			}
			return nil
		},
	}

	crowd := &cobra.Command{
		Use:   "crowd <gym-id>",
		Short: "Show a gym's current crowding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.gyms.Congestion(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Crowding: %s (as of %s)\n", c.Level, c.UpdatedAt.Local().Format("15:04"))
			for _, h := range c.Hourly {
				fmt.Printf("  %02d:00  %s\n", h.Hour, h.Level)
			}
			return nil
		},
	}

	cmd.AddCommand(list, search, crowd)
	return cmd
}

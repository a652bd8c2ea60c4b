package cmd

import (
	"github.com/spf13/cobra"

	"github.com/example/restaurant-ops/internal/restaurant"
)

func newRestaurantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restaurant",
		Short: "Manage restaurants through the API",
	}
	cmd.AddCommand(newRestaurantAddCmd())
	cmd.AddCommand(newRestaurantListCmd())
	return cmd
}

func newRestaurantAddCmd() *cobra.Command {
	var (
		in    restaurant.Input
		seats int
	)
	c := &cobra.Command{
		Use:   "add",
		Short: "Create a restaurant",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := apiClient(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seats") {
				in.TotalSeats = &seats
			}
			r, err := cl.CreateRestaurant(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd, r)
		},
	}
	c.Flags().StringVar(&in.Name, "name", "", "restaurant name")
	c.Flags().IntVar(&seats, "seats", 0, "total seats (omit for businesses without seat capacity)")
	c.Flags().StringVar(&in.BusinessType, "type", "restaurant", "business type")
	c.Flags().StringVar(&in.Phone, "phone", "", "contact phone")
	c.Flags().StringVar(&in.Email, "email", "", "contact email")
	c.Flags().StringVar(&in.Address, "address", "", "street address")
	_ = c.MarkFlagRequired("name")
	return c
}

func newRestaurantListCmd() *cobra.Command {
	var q string
	c := &cobra.Command{
		Use:   "list",
		Short: "List restaurants",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := apiClient(cmd)
			if err != nil {
				return err
			}
			rs, err := cl.ListRestaurants(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printJSON(cmd, rs)
		},
	}
	c.Flags().StringVar(&q, "q", "", "name contains (case-insensitive)")
	return c
}

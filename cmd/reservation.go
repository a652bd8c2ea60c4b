package cmd

import (
	"github.com/spf13/cobra"

	"github.com/example/restaurant-ops/internal/reservation"
)

func newReservationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reservation",
		Short: "Check availability and manage bookings through the API",
	}
	cmd.AddCommand(newReservationAvailabilityCmd())
	cmd.AddCommand(newReservationBookCmd())
	cmd.AddCommand(newReservationCancelCmd())
	cmd.AddCommand(newReservationSummaryCmd())
	return cmd
}

func slotFlags(c *cobra.Command, restaurantID, date, tm *string, party *int) {
	c.Flags().StringVar(restaurantID, "restaurant", "", "restaurant id")
	c.Flags().StringVar(date, "date", "", "date YYYY-MM-DD")
	c.Flags().StringVar(tm, "time", "", "time HH:MM")
	c.Flags().IntVar(party, "party-size", 2, "party size")
	_ = c.MarkFlagRequired("restaurant")
	_ = c.MarkFlagRequired("date")
	_ = c.MarkFlagRequired("time")
}

func newReservationAvailabilityCmd() *cobra.Command {
	var req reservation.Request
	c := &cobra.Command{
		Use:   "availability",
		Short: "Check whether a party fits at a slot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := apiClient(cmd)
			if err != nil {
				return err
			}
			a, err := cl.Availability(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, a)
		},
	}
	slotFlags(c, &req.RestaurantID, &req.Date, &req.Time, &req.PartySize)
	c.Flags().StringVar(&req.ExcludeID, "exclude", "", "reservation id whose seats are left out")
	return c
}

func newReservationBookCmd() *cobra.Command {
	var in reservation.CreateInput
	c := &cobra.Command{
		Use:   "book",
		Short: "Book a reservation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := apiClient(cmd)
			if err != nil {
				return err
			}
			r, err := cl.CreateReservation(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd, r)
		},
	}
	slotFlags(c, &in.RestaurantID, &in.Date, &in.Time, &in.PartySize)
	c.Flags().StringVar(&in.GuestName, "name", "", "guest name")
	c.Flags().StringVar(&in.GuestPhone, "phone", "", "guest phone")
	c.Flags().StringVar(&in.GuestEmail, "email", "", "guest email")
	c.Flags().StringVar(&in.SpecialRequests, "requests", "", "special requests")
	_ = c.MarkFlagRequired("name")
	_ = c.MarkFlagRequired("phone")
	return c
}

func newReservationCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <reservation-id>",
		Short: "Cancel a reservation (safe to repeat)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := apiClient(cmd)
			if err != nil {
				return err
			}
			r, err := cl.CancelReservation(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, r)
		},
	}
}

func newReservationSummaryCmd() *cobra.Command {
	var restaurantID, from, to string
	c := &cobra.Command{
		Use:   "summary",
		Short: "Count a restaurant's reservations by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := apiClient(cmd)
			if err != nil {
				return err
			}
			s, err := cl.Summary(cmd.Context(), restaurantID, from, to)
			if err != nil {
				return err
			}
			return printJSON(cmd, s)
		},
	}
	c.Flags().StringVar(&restaurantID, "restaurant", "", "restaurant id")
	c.Flags().StringVar(&from, "from", "", "first date YYYY-MM-DD")
	c.Flags().StringVar(&to, "to", "", "last date YYYY-MM-DD")
	_ = c.MarkFlagRequired("restaurant")
	return c
}

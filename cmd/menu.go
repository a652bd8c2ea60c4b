package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/restaurant-ops/internal/menu"
)

func newMenuCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Inspect and reorder menus through the API",
	}
	cmd.AddCommand(newMenuListCmd())
	cmd.AddCommand(newMenuReorderCmd())
	return cmd
}

func newMenuListCmd() *cobra.Command {
	var restaurantID string
	c := &cobra.Command{
		Use:   "list",
		Short: "List a restaurant's menu items",
		RunE: func(cmd *cobra.Command, args []string) error {
			cl, err := apiClient(cmd)
			if err != nil {
				return err
			}
			items, err := cl.ListMenu(cmd.Context(), restaurantID)
			if err != nil {
				return err
			}
			return printJSON(cmd, items)
		},
	}
	c.Flags().StringVar(&restaurantID, "restaurant", "", "restaurant id")
	_ = c.MarkFlagRequired("restaurant")
	return c
}

func newMenuReorderCmd() *cobra.Command {
	var restaurantID, order string
	c := &cobra.Command{
		Use:   "reorder",
		Short: "Set sort orders, e.g. --order item1=0,item2=1",
		RunE: func(cmd *cobra.Command, args []string) error {
			positions, err := parsePositions(order)
			if err != nil {
				return err
			}
			cl, err := apiClient(cmd)
			if err != nil {
				return err
			}
			res, err := cl.ReorderMenu(cmd.Context(), restaurantID, positions)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	c.Flags().StringVar(&restaurantID, "restaurant", "", "restaurant id")
	c.Flags().StringVar(&order, "order", "", "comma-separated id=sort_order pairs")
	_ = c.MarkFlagRequired("restaurant")
	_ = c.MarkFlagRequired("order")
	return c
}

func parsePositions(s string) ([]menu.Position, error) {
	var out []menu.Position
	for _, pair := range splitCSV(s) {
		id, n, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --order entry %q (want id=sort_order)", pair)
		}
		order, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return nil, fmt.Errorf("invalid sort order in %q: %w", pair, err)
		}
		out = append(out, menu.Position{ID: strings.TrimSpace(id), SortOrder: order})
	}
	return out, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dwikikusuma/marketplace-cart/internal/cart/domain"
	summaryapp "github.com/dwikikusuma/marketplace-cart/internal/summary/app"
	"github.com/spf13/cobra"
)

type cartAPI interface {
	GetCart(ctx context.Context) ([]domain.LineItem, error)
	AddToCart(ctx context.Context, p domain.Product) ([]domain.LineItem, error)
	Increment(ctx context.Context, id string) ([]domain.LineItem, error)
	Decrement(ctx context.Context, id string) ([]domain.LineItem, error)
	GetSummary(ctx context.Context) (summaryapp.View, error)
	WatchSummary(ctx context.Context, fn func(summaryapp.View) error) error
}

type connectFunc func(addr string) (cartAPI, func() error, error)

// newRootCmd builds the cartctl command tree. Every subcommand opens its own
// connection through connect.
func newRootCmd(defaultAddr string, connect connectFunc) *cobra.Command {
	var addr string

	root := &cobra.Command{
		Use:           "cartctl",
		Short:         "Inspect and edit the marketplace cart",
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&addr, "addr", defaultAddr, "cart service gRPC address")

	// withCart dials, runs fn and closes the connection.
	withCart := func(cmd *cobra.Command, fn func(ctx context.Context, api cartAPI) error) error {
		api, closeFn, err := connect(addr)
		if err != nil {
			return err
		}
		defer closeFn()
		return fn(cmd.Context(), api)
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the items in the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCart(cmd, func(ctx context.Context, api cartAPI) error {
				items, err := api.GetCart(ctx)
				if err != nil {
					return err
				}
				return printItems(cmd.OutOrStdout(), items)
			})
		},
	}

	var p domain.Product
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product, or bump its quantity if it is already in the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCart(cmd, func(ctx context.Context, api cartAPI) error {
				items, err := api.AddToCart(ctx, p)
				if err != nil {
					return err
				}
				return printItems(cmd.OutOrStdout(), items)
			})
		},
	}
	addCmd.Flags().StringVar(&p.ID, "id", "", "product id")
	addCmd.Flags().StringVar(&p.Title, "title", "", "product title")
	addCmd.Flags().StringVar(&p.ImageURL, "image", "", "product image URL")
	addCmd.Flags().Float64Var(&p.Price, "price", 0, "unit price")
	_ = addCmd.MarkFlagRequired("id")

	incCmd := &cobra.Command{
		Use:   "inc ID",
		Short: "Increase the quantity of an item by one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCart(cmd, func(ctx context.Context, api cartAPI) error {
				items, err := api.Increment(ctx, args[0])
				if err != nil {
					return err
				}
				return printItems(cmd.OutOrStdout(), items)
			})
		},
	}

	decCmd := &cobra.Command{
		Use:   "dec ID",
		Short: "Decrease the quantity of an item by one, removing it at zero",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCart(cmd, func(ctx context.Context, api cartAPI) error {
				items, err := api.Decrement(ctx, args[0])
				if err != nil {
					return err
				}
				return printItems(cmd.OutOrStdout(), items)
			})
		},
	}

	var open bool
	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the floating cart summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCart(cmd, func(ctx context.Context, api cartAPI) error {
				view, err := api.GetSummary(ctx)
				if err != nil {
					return err
				}
				printView(cmd.OutOrStdout(), view)
				if !open {
					return nil
				}
				nav := &terminalNavigator{out: cmd.OutOrStdout(), api: api}
				return summaryapp.NewPresenter(nil, nav, "").OpenCart(ctx)
			})
		},
	}
	summaryCmd.Flags().BoolVar(&open, "open", false, "open the cart screen after the summary")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the summary every time the cart changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCart(cmd, func(ctx context.Context, api cartAPI) error {
				err := api.WatchSummary(ctx, func(v summaryapp.View) error {
					printView(cmd.OutOrStdout(), v)
					return nil
				})
				if errors.Is(err, context.Canceled) || ctx.Err() != nil {
					return nil
				}
				return err
			})
		},
	}

	root.AddCommand(listCmd, addCmd, incCmd, decCmd, summaryCmd, watchCmd)
	return root
}

// terminalNavigator renders the requested screen to out.
type terminalNavigator struct {
	out io.Writer
	api cartAPI
}

func (n *terminalNavigator) Navigate(ctx context.Context, screen string) error {
	if screen != summaryapp.CartScreen {
		return fmt.Errorf("unknown screen %q", screen)
	}
	items, err := n.api.GetCart(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(n.out, "\n== %s ==\n", screen)
	return printItems(n.out, items)
}

func printItems(out io.Writer, items []domain.LineItem) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(out, "cart is empty")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tQTY")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%d\n", it.ID, it.Title, it.Price, it.Quantity)
	}
	return tw.Flush()
}

func printView(out io.Writer, v summaryapp.View) {
	fmt.Fprintf(out, "%s  %s\n", v.QuantityLabel, v.TotalPrice)
}

package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/stockroom/internal/domain/models"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Name     string
	Category string
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List inventory items",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := models.ParseCategory(opts.Category)
			if err != nil {
				return err
			}

			client, err := opts.authorizedClient()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
			defer cancel()

			items, err := client.List(ctx, models.Filter{Name: opts.Name, Category: category})
			if err != nil {
				return err
			}
			return writeItems(cmd.OutOrStdout(), opts.Format, items)
		},
	}

	cmd.Flags().StringVarP(&opts.Name, "name", "n", "", "case-insensitive name substring")
	cmd.Flags().StringVarP(&opts.Category, "category", "c", "", "category ("+categoryNames()+")")

	return cmd
}

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Category string
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <identifier>",
		Short: "Add one unit of an item, creating it when missing",
		Long: `Add one unit of an item, creating it when missing.

The identifier is an item id or an exact item name. New items take the
--category flag; existing items keep their category.

Example:
  inventoryctl add "desk lamp" --category Furniture`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := models.ParseCategory(opts.Category)
			if err != nil {
				return err
			}

			client, err := opts.authorizedClient()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
			defer cancel()

			item, err := client.Add(ctx, models.AddItemRequest{Identifier: strings.Join(args, " "), Category: category})
			if err != nil {
				return err
			}
			return writeItem(cmd.OutOrStdout(), opts.Format, item)
		},
	}

	cmd.Flags().StringVarP(&opts.Category, "category", "c", "", "category for new items ("+categoryNames()+")")

	return cmd
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "remove <identifier>",
		Short:         "Remove one unit of an item, deleting it at zero",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := rootOpts.authorizedClient()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), rootOpts.Timeout)
			defer cancel()

			return client.Remove(ctx, strings.Join(args, " "))
		},
	}
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <identifier>",
		Short:         "Show one item by id or exact name",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := rootOpts.authorizedClient()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), rootOpts.Timeout)
			defer cancel()

			item, err := client.Get(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return writeItem(cmd.OutOrStdout(), rootOpts.Format, item)
		},
	}
}

// NewSummaryCommand creates the summary command.
func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "summary",
		Short:         "Show quantities per category",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := rootOpts.authorizedClient()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), rootOpts.Timeout)
			defer cancel()

			summary, err := client.Summary(ctx)
			if err != nil {
				return err
			}
			return writeSummary(cmd.OutOrStdout(), rootOpts.Format, summary)
		},
	}
}

func categoryNames() string {
	names := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		names[i] = string(c)
	}
	return strings.Join(names, "|")
}

package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"ProductDesk/internal/catalog"
	"ProductDesk/internal/product"
)

type fieldFlags struct {
	title, price, tax, ads, reduction, category string
}

func (f *fieldFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.title, "title", "", "product title")
	fs.StringVar(&f.price, "price", "", "price")
	fs.StringVar(&f.tax, "tax", "", "tax amount")
	fs.StringVar(&f.ads, "ads", "", "advertising cost")
	fs.StringVar(&f.reduction, "reduction", "", "reduction subtracted from the total")
	fs.StringVar(&f.category, "category", "", "category")
}

// apply overrides in with every flag the user actually set.
func (f *fieldFlags) apply(cmd *cobra.Command, in product.Input) product.Input {
	fs := cmd.Flags()
	if fs.Changed("title") {
		in.Title = f.title
	}
	if fs.Changed("price") {
		in.Price = product.Amount(f.price)
	}
	if fs.Changed("tax") {
		in.Tax = product.Amount(f.tax)
	}
	if fs.Changed("ads") {
		in.AdsCost = product.Amount(f.ads)
	}
	if fs.Changed("reduction") {
		in.Reduction = product.Amount(f.reduction)
	}
	if fs.Changed("category") {
		in.Category = f.category
	}
	return in
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid product id %q", s)
	}
	return id, nil
}

// warnUnsaved reports a change that only exists in memory. Other errors are
// returned as is.
func warnUnsaved(w io.Writer, err error) error {
	if errors.Is(err, catalog.ErrPersist) {
		fmt.Fprintf(w, "warning: change could not be saved: %v\n", err)
		return nil
	}
	return err
}

func newAddCmd(a *app) *cobra.Command {
	var (
		f     fieldFlags
		count int
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add one or more copies of a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count > catalog.MaxAddCount {
				return fmt.Errorf("count %d exceeds the limit of %d", count, catalog.MaxAddCount)
			}
			p := product.New(f.apply(cmd, product.Input{}))
			created, err := a.store.Add(cmd.Context(), p, count)
			if err := warnUnsaved(cmd.ErrOrStderr(), err); err != nil {
				return err
			}
			renderProducts(cmd.OutOrStdout(), created)
			return nil
		},
	}
	f.register(cmd)
	cmd.Flags().IntVarP(&count, "count", "n", 1, "number of copies; 0 or less adds nothing")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var f fieldFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a product; the edited product gets a new id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cur, ok := a.store.Find(id)
			if !ok {
				return fmt.Errorf("%w: id=%d", catalog.ErrNotFound, id)
			}

			p, err := a.store.Update(cmd.Context(), id, product.New(f.apply(cmd, cur.Input())))
			if err := warnUnsaved(cmd.ErrOrStderr(), err); err != nil {
				return err
			}
			renderProducts(cmd.OutOrStdout(), []product.Product{p})
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a product and print what is left",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			remaining, err := a.store.Delete(cmd.Context(), id)
			if err := warnUnsaved(cmd.ErrOrStderr(), err); err != nil {
				return err
			}
			renderProducts(cmd.OutOrStdout(), remaining)
			return nil
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p, ok := a.store.Find(id)
			if !ok {
				return fmt.Errorf("%w: id=%d", catalog.ErrNotFound, id)
			}
			renderProducts(cmd.OutOrStdout(), []product.Product{p})
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [keyword]",
		Short: "List products, optionally filtered by keyword in the current search mode",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyword := ""
			if len(args) == 1 {
				keyword = args[0]
			}
			renderProducts(cmd.OutOrStdout(), a.store.Search(keyword))
			return nil
		},
	}
}

func newModeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "mode [title|category]",
		Short:     "Show or set which field list searches",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(catalog.ByTitle), string(catalog.ByCategory)},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				mode, err := catalog.ParseSearchMode(args[0])
				if err != nil {
					return err
				}
				err = a.store.SetSearchMode(cmd.Context(), mode)
				if err := warnUnsaved(cmd.ErrOrStderr(), err); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.store.SearchMode())
			return nil
		},
	}
}

func newTotalCmd() *cobra.Command {
	var f fieldFlags
	cmd := &cobra.Command{
		Use:   "total",
		Short: "Compute price + tax + ads - reduction without saving anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := product.New(f.apply(cmd, product.Input{}))
			renderTotal(cmd.OutOrStdout(), p.Total())
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newTokenCmd() *cobra.Command {
	var (
		secret  string
		subject string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the productdesk HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(secret) < 32 {
				return errors.New("--secret must be at least 32 chars")
			}
			tok, err := catalog.NewTokenMaker(secret).New(subject, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&secret, "secret", "", "signing secret (auth.jwtsecret of the server)")
	fs.StringVar(&subject, "subject", "productctl", "token subject")
	fs.StringVar(&role, "role", catalog.RoleEditor, "role claim")
	fs.DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/abgdnv/storefront/internal/storefront/catalog"
	"github.com/abgdnv/storefront/internal/storefront/detail"
	serrors "github.com/abgdnv/storefront/internal/storefront/errors"
	"github.com/abgdnv/storefront/internal/storefront/manage"
	"github.com/abgdnv/storefront/internal/storefront/present"
	"github.com/abgdnv/storefront/internal/storefront/records"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

type commands struct {
	open   clientFactory
	in     io.Reader
	logger *slog.Logger
}

func (cmd *commands) connect(c *cli.Context) (records.Client, func(), error) {
	client, closeFn, err := cmd.open(c)
	if err != nil {
		return nil, nil, cli.Exit(fmt.Sprintf("cannot reach record store at %s: %v", c.String("addr"), err), 1)
	}
	return client, func() {
		if err := closeFn(); err != nil {
			cmd.logger.Warn("failed to close record store client", "error", err)
		}
	}, nil
}

func presenter(c *cli.Context) present.Presenter {
	return present.Presenter{CurrencySymbol: c.String("currency")}
}

func (cmd *commands) list(c *cli.Context) error {
	client, done, err := cmd.connect(c)
	if err != nil {
		return err
	}
	defer done()

	vm := catalog.NewViewModel(client, cmd.logger)
	if err := vm.Load(c.Context); err != nil {
		fmt.Fprintf(c.App.ErrWriter, "warning: %v\n", err)
	}
	vm.SetQuery(c.String("query"))

	out := c.App.Writer
	if notice := present.NoticeFor(vm.DisplayState()); notice != nil {
		fmt.Fprintln(out, notice.Title)
		fmt.Fprintln(out, notice.Hint)
		return nil
	}
	visible := vm.VisibleItems()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSKU")
	for _, v := range presenter(c).Products(visible) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.ID, v.Name, v.PriceLabel, v.SKU)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d of %d products\n", len(visible), len(vm.Items()))
	return nil
}

func (cmd *commands) show(c *cli.Context) error {
	id, err := idArg(c)
	if err != nil {
		return err
	}
	client, done, err := cmd.connect(c)
	if err != nil {
		return err
	}
	defer done()

	vm := detail.NewViewModel(client, cmd.logger)
	if err := vm.Fetch(c.Context, id); err != nil {
		fmt.Fprintf(c.App.ErrWriter, "warning: %v\n", err)
	}
	if vm.Phase() != detail.PhaseFound {
		return cli.Exit(fmt.Sprintf("product %s not found", id), 1)
	}
	return printProduct(c.App.Writer, presenter(c).ProductDetail(*vm.Product()))
}

func (cmd *commands) add(c *cli.Context) error {
	client, done, err := cmd.connect(c)
	if err != nil {
		return err
	}
	defer done()

	newID := uuid.NewString
	if id := c.String("id"); id != "" {
		newID = func() string { return id }
	}
	vm := manage.NewViewModel(client, nil, newID, cmd.logger)
	vm.SetDraft(draftFromFlags(c))
	saved, err := vm.Submit(c.Context)
	if err != nil {
		return submitError("add", err)
	}
	fmt.Fprintf(c.App.Writer, "added %s\n", saved.ID)
	return nil
}

func (cmd *commands) edit(c *cli.Context) error {
	id, err := idArg(c)
	if err != nil {
		return err
	}
	client, done, err := cmd.connect(c)
	if err != nil {
		return err
	}
	defer done()

	current := detail.NewViewModel(client, cmd.logger)
	if err := current.Fetch(c.Context, id); err != nil {
		return cli.Exit(fmt.Sprintf("cannot fetch product %s: %v", id, err), 1)
	}
	if current.Phase() != detail.PhaseFound {
		return cli.Exit(fmt.Sprintf("product %s not found", id), 1)
	}

	vm := manage.NewViewModel(client, nil, uuid.NewString, cmd.logger)
	vm.BeginEdit(*current.Product())
	vm.SetDraft(applyFlags(c, vm.Draft()))
	if _, err := vm.Submit(c.Context); err != nil {
		return submitError("edit", err)
	}
	fmt.Fprintf(c.App.Writer, "updated %s\n", id)
	return nil
}

func (cmd *commands) remove(c *cli.Context) error {
	id, err := idArg(c)
	if err != nil {
		return err
	}
	if !c.Bool("yes") && !confirm(cmd.in, c.App.Writer, fmt.Sprintf("Delete product %s?", id)) {
		fmt.Fprintln(c.App.Writer, "aborted")
		return nil
	}
	client, done, err := cmd.connect(c)
	if err != nil {
		return err
	}
	defer done()

	vm := manage.NewViewModel(client, nil, uuid.NewString, cmd.logger)
	if err := vm.Remove(c.Context, id); err != nil {
		if errors.Is(err, serrors.ErrRecordNotFound) {
			return cli.Exit(fmt.Sprintf("product %s not found", id), 1)
		}
		return cli.Exit(fmt.Sprintf("cannot delete product %s: %v", id, err), 1)
	}
	fmt.Fprintf(c.App.Writer, "deleted %s\n", id)
	return nil
}

func idArg(c *cli.Context) (string, error) {
	id := strings.TrimSpace(c.Args().First())
	if id == "" {
		return "", cli.Exit("missing product ID", 2)
	}
	return id, nil
}

// draftFromFlags builds a draft from the flags given on the command line. Unset flags stay empty.
func draftFromFlags(c *cli.Context) manage.Draft {
	d := manage.Draft{
		Name:         c.String("name"),
		Description:  c.String("description"),
		SKU:          c.String("sku"),
		MainImageURL: c.String("image"),
		ExternalLink: c.String("link"),
	}
	if c.IsSet("price") {
		p := c.Float64("price")
		d.Price = &p
	}
	return d
}

// applyFlags replaces every field of d whose flag was given, so an empty value clears it.
func applyFlags(c *cli.Context, d manage.Draft) manage.Draft {
	set := func(flag string, field *string) {
		if c.IsSet(flag) {
			*field = c.String(flag)
		}
	}
	set("name", &d.Name)
	set("description", &d.Description)
	set("sku", &d.SKU)
	set("image", &d.MainImageURL)
	set("link", &d.ExternalLink)
	if c.IsSet("price") {
		p := c.Float64("price")
		d.Price = &p
	}
	return d
}

func submitError(op string, err error) error {
	var validationErr *serrors.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return cli.Exit(fmt.Sprintf("invalid product: %v", validationErr), 2)
	case errors.Is(err, serrors.ErrRecordExists):
		return cli.Exit("a product with this ID already exists", 1)
	case errors.Is(err, serrors.ErrRecordNotFound):
		return cli.Exit("product no longer exists", 1)
	default:
		return cli.Exit(fmt.Sprintf("cannot %s product: %v", op, err), 1)
	}
}

// confirm asks a yes/no question. Anything but y or yes is a no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func printProduct(out io.Writer, v present.ProductView) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	row := func(key, value string) {
		if value != "" {
			fmt.Fprintf(tw, "%s:\t%s\n", key, value)
		}
	}
	row("id", v.ID)
	row("name", v.Name)
	row("price", v.PriceLabel)
	row("sku", v.SKU)
	row("description", v.Description)
	row("image", v.ImageURL)
	row("link", v.ExternalLink)
	if v.CreatedAt != nil {
		row("created", v.CreatedAt.Format(time.RFC3339))
	}
	if v.UpdatedAt != nil {
		row("updated", v.UpdatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

// Package shopctl implements a command-line client for the shop API.
package shopctl

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/minishop/internal/models"
	"github.com/Skotchmaster/minishop/pkg/shopclient"
)

const defaultAddr = "http://localhost:5000"

// ErrAborted is returned when the user declines a confirmation prompt.
var ErrAborted = errors.New("aborted")

// EnvLookup returns the value for a key when present.
type EnvLookup func(string) (string, bool)

// Config holds the global flags.
type Config struct {
	Addr    string
	Yes     bool
	Command string
	Args    []string
}

// ParseConfig parses global flags; the first remaining argument is the command.
func ParseConfig(fs *flag.FlagSet, args []string, lookup EnvLookup) (Config, error) {
	cfg := Config{Addr: defaultAddr}
	if v, ok := lookup("SHOP_ADDR"); ok && v != "" {
		cfg.Addr = v
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "shop API base URL")
	fs.BoolVar(&cfg.Yes, "y", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return Config{}, errors.New("missing command")
	}
	cfg.Command, cfg.Args = rest[0], rest[1:]
	return cfg, nil
}

// Runner executes one command against the API.
type Runner struct {
	Client *shopclient.Client
	Yes    bool
	In     *bufio.Reader
	Out    io.Writer
}

func NewRunner(cfg Config, in io.Reader, out io.Writer) *Runner {
	return &Runner{
		Client: shopclient.NewClient(cfg.Addr),
		Yes:    cfg.Yes,
		In:     bufio.NewReader(in),
		Out:    out,
	}
}

// Run dispatches cmd with its arguments.
func (r *Runner) Run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "items":
		return r.items(ctx)
	case "add-item":
		return r.addItem(ctx, args)
	case "update-item":
		return r.updateItem(ctx, args)
	case "delete-item":
		return r.deleteItem(ctx, args)
	case "search":
		return r.search(ctx, args)
	case "cart":
		return r.cart(ctx)
	case "add":
		return r.add(ctx, args)
	case "inc":
		return r.step(ctx, args, 1)
	case "dec":
		return r.step(ctx, args, -1)
	case "set":
		return r.set(ctx, args)
	case "remove":
		return r.remove(ctx, args)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (r *Runner) items(ctx context.Context) error {
	items, err := r.Client.ListItems(ctx)
	if err != nil {
		return err
	}
	r.printItems(items)
	return nil
}

func (r *Runner) search(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: search <query>")
	}
	items, err := r.Client.SearchItems(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	r.printItems(items)
	return nil
}

type itemFlags struct {
	fs          *flag.FlagSet
	name        string
	price       string
	image       string
	description string
	stock       int
}

func newItemFlags(cmd string) *itemFlags {
	f := &itemFlags{fs: flag.NewFlagSet(cmd, flag.ContinueOnError)}
	f.fs.SetOutput(io.Discard)
	f.fs.StringVar(&f.name, "name", "", "item name")
	f.fs.StringVar(&f.price, "price", "", "item price")
	f.fs.StringVar(&f.image, "image", "", "image URL")
	f.fs.StringVar(&f.description, "desc", "", "description")
	f.fs.IntVar(&f.stock, "stock", 0, "units in stock")
	return f
}

func (f *itemFlags) isSet(name string) bool {
	set := false
	f.fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			set = true
		}
	})
	return set
}

func (r *Runner) addItem(ctx context.Context, args []string) error {
	f := newItemFlags("add-item")
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	price, err := decimal.NewFromString(f.price)
	if err != nil {
		return fmt.Errorf("invalid -price %q", f.price)
	}

	it, err := r.Client.CreateItem(ctx, shopclient.NewItem{
		Name:        f.name,
		Price:       price,
		Image:       f.image,
		Description: f.description,
		Stock:       f.stock,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(r.Out, "created %s %s\n", it.ID, it.Name)
	return nil
}

func (r *Runner) updateItem(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: update-item <item-id> [-name ..] [-price ..] [-image ..] [-desc ..] [-stock ..]")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	f := newItemFlags("update-item")
	if err := f.fs.Parse(args[1:]); err != nil {
		return err
	}

	var upd shopclient.ItemUpdate
	if f.isSet("name") {
		upd.Name = &f.name
	}
	if f.isSet("price") {
		p, err := decimal.NewFromString(f.price)
		if err != nil {
			return fmt.Errorf("invalid -price %q", f.price)
		}
		upd.Price = &p
	}
	if f.isSet("image") {
		upd.Image = &f.image
	}
	if f.isSet("desc") {
		upd.Description = &f.description
	}
	if f.isSet("stock") {
		upd.Stock = &f.stock
	}

	it, err := r.Client.UpdateItem(ctx, id, upd)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.Out, "updated %s %s\n", it.ID, it.Name)
	return nil
}

func (r *Runner) deleteItem(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: delete-item <item-id>")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if !r.confirm(fmt.Sprintf("Delete item %s? Its cart lines go too.", id)) {
		return ErrAborted
	}
	if err := r.Client.DeleteItem(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(r.Out, "deleted %s\n", id)
	return nil
}

func (r *Runner) cart(ctx context.Context) error {
	lines, err := r.Client.Cart(ctx)
	if err != nil {
		return err
	}
	r.printCart(lines)
	return nil
}

func (r *Runner) add(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: add <item-id> [qty]")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	qty := 1
	if len(args) == 2 {
		if qty, err = strconv.Atoi(args[1]); err != nil {
			return fmt.Errorf("invalid qty %q", args[1])
		}
	}

	lines, err := r.Client.AddToCart(ctx, id, qty)
	if err != nil {
		return err
	}
	r.printCart(lines)
	return nil
}

// step changes a line by sign*n, re-reading the cart first so the delta
// applies to the current quantity.
func (r *Runner) step(ctx context.Context, args []string, sign int) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: inc|dec <line-id> [n]")
	}
	lineID, err := parseID(args[0])
	if err != nil {
		return err
	}
	n := 1
	if len(args) == 2 {
		if n, err = strconv.Atoi(args[1]); err != nil || n <= 0 {
			return fmt.Errorf("invalid step %q", args[1])
		}
	}

	lines, err := r.Client.Cart(ctx)
	if err != nil {
		return err
	}
	line, ok := findLine(lines, lineID)
	if !ok {
		return errors.New("cart item not found")
	}

	delta := sign * n
	if line.Qty+delta <= 0 && !r.confirm(fmt.Sprintf("Remove %s from the cart?", lineName(line))) {
		return ErrAborted
	}

	lines, err = r.Client.ChangeQty(ctx, line, delta)
	if err != nil {
		return err
	}
	r.printCart(lines)
	return nil
}

func (r *Runner) set(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: set <line-id> <qty>")
	}
	lineID, err := parseID(args[0])
	if err != nil {
		return err
	}
	qty, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid qty %q", args[1])
	}

	lines, err := r.Client.SetQty(ctx, lineID, qty)
	if err != nil {
		return err
	}
	r.printCart(lines)
	return nil
}

func (r *Runner) remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: remove <line-id>")
	}
	lineID, err := parseID(args[0])
	if err != nil {
		return err
	}
	if !r.confirm(fmt.Sprintf("Remove line %s from the cart?", lineID)) {
		return ErrAborted
	}

	lines, err := r.Client.RemoveLine(ctx, lineID)
	if err != nil {
		return err
	}
	r.printCart(lines)
	return nil
}

func (r *Runner) confirm(prompt string) bool {
	if r.Yes {
		return true
	}
	fmt.Fprintf(r.Out, "%s [y/N] ", prompt)
	answer, err := r.In.ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func (r *Runner) printItems(items []models.Item) {
	w := tabwriter.NewWriter(r.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tSTOCK")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", it.ID, it.Name, it.Price.StringFixed(2), it.Stock)
	}
	_ = w.Flush()
}

func (r *Runner) printCart(lines []models.DetailedCartLine) {
	w := tabwriter.NewWriter(r.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LINE\tITEM\tQTY\tSUBTOTAL")
	for _, l := range lines {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", l.ID, lineName(l), l.Qty, l.Subtotal().StringFixed(2))
	}
	_ = w.Flush()
	fmt.Fprintf(r.Out, "Total: %s\n", shopclient.Total(lines).StringFixed(2))
}

func lineName(l models.DetailedCartLine) string {
	if l.Item == nil {
		return "(unavailable)"
	}
	return l.Item.Name
}

func findLine(lines []models.DetailedCartLine, id uuid.UUID) (models.DetailedCartLine, bool) {
	for _, l := range lines {
		if l.ID == id {
			return l, true
		}
	}
	return models.DetailedCartLine{}, false
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/jogardn/shop-console/internal/console"
	"github.com/jogardn/shop-console/internal/shopapi"
	"github.com/jogardn/shop-console/pkg/models"
	"github.com/shopspring/decimal"
)

var errUsage = errors.New("usage error")

type command struct {
	summary string
	run     func(ctx context.Context, a *app, c *console.Console, args []string) error
}

var commands = map[string]command{
	"session":        {"print the session token", runSession},
	"products":       {"list products [-search] [-category]", runProducts},
	"categories":     {"list product categories", runCategories},
	"product-save":   {"create or update a product", runProductSave},
	"product-delete": {"delete a product -id", runProductDelete},
	"cart":           {"show the cart", runCart},
	"cart-add":       {"add a product -product [-qty]", runCartAdd},
	"cart-set":       {"set a line quantity -product -qty", runCartSet},
	"cart-remove":    {"remove a line -product", runCartRemove},
	"cart-clear":     {"empty the cart", runCartClear},
	"checkout":       {"place an order from the cart", runCheckout},
	"orders":         {"list orders [-status] [-email]", runOrders},
	"order-status":   {"change an order's status -id -status", runOrderStatus},
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newFlagSet(a *app, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

func required(a *app, fs *flag.FlagSet, values map[string]string) error {
	for name, value := range values {
		if value == "" {
			fmt.Fprintf(a.stderr, "%s: -%s is required\n", fs.Name(), name)
			return errUsage
		}
	}
	return nil
}

func runSession(ctx context.Context, a *app, c *console.Console, args []string) error {
	fmt.Fprintln(a.stdout, c.SessionID())
	return nil
}

func runProducts(ctx context.Context, a *app, c *console.Console, args []string) error {
	fs := newFlagSet(a, "products")
	search := fs.String("search", "", "name or description contains")
	category := fs.String("category", "", "exact category")
	if err := parse(fs, args); err != nil {
		return err
	}

	if err := c.LoadProducts(ctx, shopapi.ProductFilter{Search: *search, Category: *category}); err != nil {
		return err
	}
	products := c.Snapshot().Products
	if len(products) == 0 {
		fmt.Fprintln(a.stdout, "No products found")
		return nil
	}

	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tSTOCK\tCATEGORY")
	for _, p := range products {
		stock := fmt.Sprint(p.StockQuantity)
		if !p.InStock() {
			stock = "out of stock"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Price.StringFixed(2), stock, p.Category)
	}
	return w.Flush()
}

func runCategories(ctx context.Context, a *app, c *console.Console, args []string) error {
	if err := c.LoadCategories(ctx); err != nil {
		fmt.Fprintf(a.stderr, "Failed to load categories: %v\n", err)
		return err
	}
	for _, category := range c.Snapshot().Categories {
		fmt.Fprintln(a.stdout, category)
	}
	return nil
}

func runProductSave(ctx context.Context, a *app, c *console.Console, args []string) error {
	fs := newFlagSet(a, "product-save")
	id := fs.String("id", "", "product to update; empty creates one")
	name := fs.String("name", "", "product name")
	description := fs.String("description", "", "description")
	price := fs.String("price", "", "unit price")
	stock := fs.Int("stock", 0, "stock quantity")
	category := fs.String("category", "", "category")
	imageURL := fs.String("image", "", "image URL")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(a, fs, map[string]string{"name": *name, "price": *price}); err != nil {
		return err
	}

	amount, err := decimal.NewFromString(*price)
	if err != nil {
		fmt.Fprintf(a.stderr, "product-save: invalid -price %q\n", *price)
		return errUsage
	}

	product, err := c.SaveProduct(ctx, *id, models.NewProductInput(*name, *description, amount, *stock, *category, *imageURL))
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, product.ID)
	return nil
}

func runProductDelete(ctx context.Context, a *app, c *console.Console, args []string) error {
	fs := newFlagSet(a, "product-delete")
	id := fs.String("id", "", "product to delete")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(a, fs, map[string]string{"id": *id}); err != nil {
		return err
	}
	return c.DeleteProduct(ctx, *id)
}

func runCart(ctx context.Context, a *app, c *console.Console, args []string) error {
	c.LoadCart(ctx)
	printCart(a, c.Snapshot().Cart)
	return nil
}

func printCart(a *app, cart models.Cart) {
	if cart.IsEmpty() {
		fmt.Fprintln(a.stdout, "Your cart is empty")
		return
	}

	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tNAME\tQTY\tPRICE\tSUBTOTAL")
	for _, item := range cart.Items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			item.Product.ID, item.Product.Name, item.Quantity,
			item.Product.Price.StringFixed(2), item.LineTotal().StringFixed(2))
	}
	fmt.Fprintf(w, "\t\t%d\t\t%s\n", cart.ItemsCount, cart.TotalAmount.StringFixed(2))
	w.Flush()
}

func runCartAdd(ctx context.Context, a *app, c *console.Console, args []string) error {
	fs := newFlagSet(a, "cart-add")
	product := fs.String("product", "", "product id")
	qty := fs.Int("qty", 1, "quantity")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(a, fs, map[string]string{"product": *product}); err != nil {
		return err
	}

	// The stock check needs the catalog in view
	if err := c.LoadProducts(ctx, shopapi.ProductFilter{}); err != nil {
		return err
	}
	return c.AddToCart(ctx, *product, *qty)
}

func runCartSet(ctx context.Context, a *app, c *console.Console, args []string) error {
	fs := newFlagSet(a, "cart-set")
	product := fs.String("product", "", "product id")
	qty := fs.Int("qty", -1, "new quantity; 0 removes the line")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *qty < 0 {
		fmt.Fprintln(a.stderr, "cart-set: -qty is required")
		return errUsage
	}
	if err := required(a, fs, map[string]string{"product": *product}); err != nil {
		return err
	}
	return c.UpdateCartItemQuantity(ctx, *product, *qty)
}

func runCartRemove(ctx context.Context, a *app, c *console.Console, args []string) error {
	fs := newFlagSet(a, "cart-remove")
	product := fs.String("product", "", "product id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(a, fs, map[string]string{"product": *product}); err != nil {
		return err
	}
	return c.RemoveFromCart(ctx, *product)
}

func runCartClear(ctx context.Context, a *app, c *console.Console, args []string) error {
	return c.ClearCart(ctx)
}

func runCheckout(ctx context.Context, a *app, c *console.Console, args []string) error {
	fs := newFlagSet(a, "checkout")
	var form console.CheckoutForm
	fs.StringVar(&form.CustomerName, "name", "", "customer name")
	fs.StringVar(&form.CustomerEmail, "email", "", "customer email")
	fs.StringVar(&form.CustomerPhone, "phone", "", "customer phone")
	fs.StringVar(&form.ShippingAddress, "address", "", "shipping address")
	fs.StringVar(&form.Notes, "notes", "", "order notes")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(a, fs, map[string]string{
		"name":    form.CustomerName,
		"email":   form.CustomerEmail,
		"address": form.ShippingAddress,
	}); err != nil {
		return err
	}

	_, err := c.PlaceOrder(ctx, form)
	return err
}

func runOrders(ctx context.Context, a *app, c *console.Console, args []string) error {
	fs := newFlagSet(a, "orders")
	status := fs.String("status", "", "exact status")
	email := fs.String("email", "", "exact customer email")
	if err := parse(fs, args); err != nil {
		return err
	}

	if err := c.LoadOrders(ctx, shopapi.OrderFilter{Status: *status, CustomerEmail: *email}); err != nil {
		return err
	}
	orders := c.Snapshot().Orders
	if len(orders) == 0 {
		fmt.Fprintln(a.stdout, "No orders found")
		return nil
	}

	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNUMBER\tCUSTOMER\tEMAIL\tSTATUS\tTOTAL\tCREATED")
	for _, o := range orders {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			o.ID, o.OrderNumber, o.CustomerName, o.CustomerEmail,
			o.Status, o.TotalAmount.StringFixed(2), o.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runOrderStatus(ctx context.Context, a *app, c *console.Console, args []string) error {
	fs := newFlagSet(a, "order-status")
	id := fs.String("id", "", "order id")
	status := fs.String("status", "", "new status")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(a, fs, map[string]string{"id": *id, "status": *status}); err != nil {
		return err
	}

	// An unchanged status is a no-op, so find the current one first
	var current string
	if err := c.LoadOrders(ctx, shopapi.OrderFilter{}); err != nil {
		return err
	}
	for _, o := range c.Snapshot().Orders {
		if o.ID == *id {
			current = string(o.Status)
			break
		}
	}
	return c.UpdateOrderStatus(ctx, *id, current, *status)
}

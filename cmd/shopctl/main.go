// Command shopctl is a terminal front end for the storefront API.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go-storefront/client"
	"go-storefront/models"

	"github.com/sirupsen/logrus"
)

const usage = `usage: shopctl [-api URL] [-token TOKEN] <command> [args]

commands:
  list [-page N] [-limit N] [-search S] [-category C] [-sort KEY]
  show <product-id>
  categories
  register <username> <email> <password>
  login <email> <password>
  review <product-id> <rating> <comment...>
  profile [-username U] [-email E] [-password P]
  create -name N -description D -price P -category C -image URL -stock N   (admin)
  update <product-id> [-name N] [-price P] [-stock N] ...                  (admin)
  delete <product-id>                                                      (admin)
  shop            interactive browsing and cart
`

const shopHelp = `next | prev | search S | category C | sort KEY
add <row|id> | rm <id> | qty <id> <n> | clear | cart | checkout
register <username> <email> <password> | login <email> <password> | logout
profile [-username U] [-email E] [-password P]
create -name "N" -description "D" -price P -category C -image URL -stock N
update <row|id> [flags] | delete <row|id>
help | quit
`

func main() {
	api := flag.String("api", envOr("STOREFRONT_API", "http://localhost:8000"), "storefront API base URL")
	token := flag.String("token", os.Getenv("STOREFRONT_TOKEN"), "bearer token")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	c := client.New(*api)
	c.SetToken(*token)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	args := flag.Args()[1:]
	switch flag.Arg(0) {
	case "list":
		err = runList(ctx, c, args, os.Stdout)
	case "show":
		err = runShow(ctx, c, args, os.Stdout)
	case "categories":
		err = runCategories(ctx, c, os.Stdout)
	case "register":
		err = runRegister(ctx, c, args, os.Stdout)
	case "login":
		err = runLogin(ctx, c, args, os.Stdout)
	case "review":
		err = runReview(ctx, c, args, os.Stdout)
	case "profile":
		err = runProfile(ctx, c, args, os.Stdout)
	case "create":
		err = runCreate(ctx, c, args, os.Stdout)
	case "update":
		err = runUpdate(ctx, c, args, os.Stdout)
	case "delete":
		err = runDelete(ctx, c, args, os.Stdout)
	case "shop":
		cancel()
		err = runShop(client.NewSession(c), os.Stdin, os.Stdout)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func runList(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	params := models.DefaultListingParams()
	fs.IntVar(&params.Page, "page", params.Page, "page number")
	fs.IntVar(&params.Limit, "limit", params.Limit, "products per page")
	fs.StringVar(&params.Search, "search", "", "name substring")
	fs.StringVar(&params.Category, "category", "", "exact category")
	fs.StringVar(&params.Sort, "sort", "", "price_asc, price_desc, name_asc or name_desc")
	if err := fs.Parse(args); err != nil {
		return err
	}

	page, err := c.ListProducts(ctx, params)
	if err != nil {
		return err
	}
	printProducts(out, page.Products)
	fmt.Fprintf(out, "Page %d of %d\n", page.CurrentPage, page.TotalPages)
	return nil
}

func runShow(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("show needs a product id")
	}
	p, err := c.GetProduct(ctx, args[0])
	if err != nil {
		return err
	}
	printProduct(out, *p)
	return nil
}

func runCategories(ctx context.Context, c *client.Client, out io.Writer) error {
	categories, err := c.Categories(ctx)
	if err != nil {
		return err
	}
	for _, cat := range categories {
		fmt.Fprintln(out, cat)
	}
	return nil
}

func runRegister(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	if len(args) != 3 {
		return fmt.Errorf("register needs <username> <email> <password>")
	}
	token, err := c.Register(ctx, models.RegisterRequest{Username: args[0], Email: args[1], Password: args[2]})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}

func runLogin(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	if len(args) != 2 {
		return fmt.Errorf("login needs <email> <password>")
	}
	token, err := c.Login(ctx, models.LoginRequest{Email: args[0], Password: args[1]})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}

func runReview(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	if len(args) < 3 {
		return fmt.Errorf("review needs <product-id> <rating> <comment>")
	}
	rating, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("rating must be a number: %w", err)
	}
	r, err := c.AddReview(ctx, args[0], models.ReviewInput{Rating: &rating, Comment: strings.Join(args[2:], " ")})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "review %s saved\n", r.ID.Hex())
	return nil
}

func printProducts(out io.Writer, products []models.Product) {
	for _, p := range products {
		fmt.Fprintf(out, "%s  %-30s %10.2f  %-15s stock %d\n", p.ID.Hex(), p.Name, p.Price, p.Category, p.Stock)
	}
}

func printProduct(out io.Writer, p models.Product) {
	fmt.Fprintf(out, "%s\n%s\n\n%s\nPrice: %.2f\nCategory: %s\nStock: %d\n", p.ID.Hex(), p.Name, p.Description, p.Price, p.Category, p.Stock)
	if len(p.Reviews) == 0 {
		fmt.Fprintln(out, "No reviews yet")
		return
	}
	fmt.Fprintln(out, "Reviews:")
	for _, r := range p.Reviews {
		fmt.Fprintf(out, "  %d/5 %s (%s)\n", r.Rating, r.Comment, r.CreatedAt.Format("2006-01-02"))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// runShop runs a line oriented session reading commands from in.
func runShop(s *client.Session, in io.Reader, out io.Writer) error {
	ctx := context.Background()
	if err := s.Browser.Load(ctx); err != nil {
		return err
	}
	showPage(out, s.Browser)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields, err := splitArgs(scanner.Text())
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return nil
		}
		if err := shopCommand(ctx, s, fields, out); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func shopCommand(ctx context.Context, s *client.Session, fields []string, out io.Writer) error {
	arg := strings.Join(fields[1:], " ")
	b := s.Browser
	switch fields[0] {
	case "next":
		return pageAction(out, b, b.Next(ctx))
	case "prev":
		return pageAction(out, b, b.Prev(ctx))
	case "search":
		return pageAction(out, b, b.SetSearch(ctx, arg))
	case "category":
		return pageAction(out, b, b.SetCategory(ctx, arg))
	case "sort":
		return pageAction(out, b, b.SetSort(ctx, arg))
	case "login":
		if len(fields) != 3 {
			return fmt.Errorf("login <email> <password>")
		}
		if err := s.Login(ctx, models.LoginRequest{Email: fields[1], Password: fields[2]}); err != nil {
			return err
		}
		fmt.Fprintf(out, "signed in as %s\n", s.User().Username)
	case "register":
		if len(fields) != 4 {
			return fmt.Errorf("register <username> <email> <password>")
		}
		req := models.RegisterRequest{Username: fields[1], Email: fields[2], Password: fields[3]}
		if err := s.Register(ctx, req); err != nil {
			return err
		}
		fmt.Fprintf(out, "signed in as %s\n", s.User().Username)
	case "logout":
		s.Logout()
		fmt.Fprintln(out, "signed out")
	case "profile":
		if !s.LoggedIn() {
			return client.ErrNotLoggedIn
		}
		if len(fields) == 1 {
			printUser(out, s.User())
			return nil
		}
		upd, err := parseProfileUpdate("profile", fields[1:])
		if err != nil {
			return err
		}
		user, err := s.UpdateProfile(ctx, upd)
		if err != nil {
			return err
		}
		printUser(out, user)
	case "create":
		in, err := parseProductInput("create", fields[1:])
		if err != nil {
			return err
		}
		p, err := s.CreateProduct(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "created %s\n", p.Name)
		showPage(out, b)
	case "update":
		if len(fields) < 2 {
			return fmt.Errorf("update <row|id> [flags]")
		}
		id, err := productID(s, fields[1])
		if err != nil {
			return err
		}
		upd, err := parseProductUpdate("update", fields[2:])
		if err != nil {
			return err
		}
		p, err := s.UpdateProduct(ctx, id, upd)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "updated %s\n", p.Name)
		showPage(out, b)
	case "delete":
		id, err := productID(s, arg)
		if err != nil {
			return err
		}
		if err := s.DeleteProduct(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted %s\n", id)
		showPage(out, b)
	case "help":
		fmt.Fprint(out, shopHelp)
	case "add":
		p, err := pick(ctx, s, arg)
		if err != nil {
			return err
		}
		s.Cart.Add(*p)
		fmt.Fprintf(out, "added %s\n", p.Name)
	case "rm":
		s.Cart.Remove(arg)
	case "qty":
		if len(fields) != 3 {
			return fmt.Errorf("qty <product-id> <quantity>")
		}
		n, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("quantity must be a number")
		}
		s.Cart.UpdateQuantity(fields[1], n)
	case "clear":
		s.Cart.Clear()
	case "cart":
		showCart(out, s)
	case "checkout":
		summary, err := s.Checkout()
		fmt.Fprintf(out, "%d lines, total %.2f\n", len(summary.Lines), summary.Total)
		return err
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
	return nil
}

// pick resolves a product id, or a row number on the current page.
func pick(ctx context.Context, s *client.Session, arg string) (*models.Product, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		products := s.Browser.Products()
		if n < 1 || n > len(products) {
			return nil, fmt.Errorf("no row %d on this page", n)
		}
		p := products[n-1]
		return &p, nil
	}
	return s.Client.GetProduct(ctx, arg)
}

func pageAction(out io.Writer, b *client.Browser, err error) error {
	if err != nil {
		return err
	}
	showPage(out, b)
	return nil
}

func showPage(out io.Writer, b *client.Browser) {
	for i, p := range b.Products() {
		fmt.Fprintf(out, "%2d. %-30s %10.2f  %s\n", i+1, p.Name, p.Price, p.ID.Hex())
	}
	fmt.Fprintf(out, "Page %d of %d\n", b.State().Page, b.TotalPages())
}

func showCart(out io.Writer, s *client.Session) {
	if s.Cart.Len() == 0 {
		fmt.Fprintln(out, "Your cart is empty")
		return
	}
	for _, l := range s.Cart.Lines() {
		fmt.Fprintf(out, "%-30s %8.2f x %d\n", l.Product.Name, l.Product.Price, l.Quantity)
	}
	fmt.Fprintf(out, "Total: %.2f\n", s.Cart.Total())
}

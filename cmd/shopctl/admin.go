package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go-storefront/client"
	"go-storefront/models"
)

var errNothingToUpdate = errors.New("nothing to update: pass at least one flag")

func runCreate(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	in, err := parseProductInput("create", args)
	if err != nil {
		return err
	}
	p, err := c.CreateProduct(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "created %s\n", p.ID.Hex())
	return nil
}

func runUpdate(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	if len(args) < 1 {
		return fmt.Errorf("update needs <product-id> and flags")
	}
	upd, err := parseProductUpdate("update", args[1:])
	if err != nil {
		return err
	}
	p, err := c.UpdateProduct(ctx, args[0], upd)
	if err != nil {
		return err
	}
	printProduct(out, *p)
	return nil
}

func runDelete(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("delete needs a product id")
	}
	if err := c.DeleteProduct(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(out, "deleted %s\n", args[0])
	return nil
}

// runProfile shows the signed-in profile, or changes it when flags are given.
func runProfile(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	var (
		user *models.User
		err  error
	)
	if len(args) == 0 {
		user, err = c.Profile(ctx)
	} else {
		var upd models.ProfileUpdate
		if upd, err = parseProfileUpdate("profile", args); err != nil {
			return err
		}
		user, err = c.UpdateProfile(ctx, upd)
	}
	if err != nil {
		return err
	}
	printUser(out, user)
	return nil
}

func parseProductInput(name string, args []string) (models.ProductInput, error) {
	var in models.ProductInput
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&in.Name, "name", "", "product name")
	fs.StringVar(&in.Description, "description", "", "product description")
	fs.StringVar(&in.Category, "category", "", "category")
	fs.StringVar(&in.Image, "image", "", "image URL")
	price := fs.Float64("price", 0, "price")
	stock := fs.Int("stock", 0, "units in stock")
	if err := parseFlags(fs, args); err != nil {
		return in, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "price":
			in.Price = price
		case "stock":
			in.Stock = stock
		}
	})
	return in, nil
}

func parseProductUpdate(name string, args []string) (models.ProductUpdate, error) {
	var upd models.ProductUpdate
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	pname := fs.String("name", "", "product name")
	description := fs.String("description", "", "product description")
	category := fs.String("category", "", "category")
	image := fs.String("image", "", "image URL")
	price := fs.Float64("price", 0, "price")
	stock := fs.Int("stock", 0, "units in stock")
	if err := parseFlags(fs, args); err != nil {
		return upd, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			upd.Name = pname
		case "description":
			upd.Description = description
		case "category":
			upd.Category = category
		case "image":
			upd.Image = image
		case "price":
			upd.Price = price
		case "stock":
			upd.Stock = stock
		}
	})
	if upd.Empty() {
		return upd, errNothingToUpdate
	}
	return upd, nil
}

func parseProfileUpdate(name string, args []string) (models.ProfileUpdate, error) {
	var upd models.ProfileUpdate
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	username := fs.String("username", "", "new username")
	email := fs.String("email", "", "new email")
	password := fs.String("password", "", "new password")
	if err := parseFlags(fs, args); err != nil {
		return upd, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "username":
			upd.Username = username
		case "email":
			upd.Email = email
		case "password":
			upd.Password = password
		}
	})
	if upd.Username == nil && upd.Email == nil && upd.Password == nil {
		return upd, errNothingToUpdate
	}
	return upd, nil
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%s: unexpected argument %q", fs.Name(), fs.Arg(0))
	}
	return nil
}

func printUser(out io.Writer, u *models.User) {
	role := "customer"
	if u.IsAdmin {
		role = "admin"
	}
	fmt.Fprintf(out, "%s <%s> %s\n", u.Username, u.Email, role)
}

// splitArgs splits a shop line on spaces, keeping "double quoted" runs
// together.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inQuote bool
		started bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			started = true
		case (r == ' ' || r == '\t') && !inQuote:
			if started {
				args = append(args, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if inQuote {
		return nil, errors.New("unterminated quote")
	}
	if started {
		args = append(args, cur.String())
	}
	return args, nil
}

// productID resolves a row number on the current page, or passes an id through.
func productID(s *client.Session, arg string) (string, error) {
	if arg == "" {
		return "", errors.New("needs a row number or product id")
	}
	products := s.Browser.Products()
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(products) {
			return "", fmt.Errorf("no row %d on this page", n)
		}
		return products[n-1].ID.Hex(), nil
	}
	return arg, nil
}

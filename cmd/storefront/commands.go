package main

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"storefront/client"
	v1 "storefront/pkg/api/v1"
	"storefront/pkg/constraints"
)

var errUsage = fmt.Errorf("%w: see storefront -h", client.ErrInvalidArgument)

func (a *cli) dispatch(ctx context.Context, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "whoami":
		u, err := a.c.Auth.CurrentUser(ctx)
		if err != nil {
			return err
		}
		if u.Username == "" && u.Name == "" {
			fmt.Fprintln(a.out, "not logged in")
			return nil
		}
		return a.print(u)
	case "login":
		user, pass := a.user, a.pass
		if len(rest) >= 2 {
			user, pass = rest[0], rest[1]
		}
		if _, err := a.c.Auth.Login(ctx, user, pass); err != nil {
			return err
		}
		return a.dispatch(ctx, []string{"whoami"})
	case "logout":
		return a.printMessage("logged out", a.c.Auth.Logout(ctx))
	case "register":
		if len(rest) < 3 {
			return errUsage
		}
		return a.printMessage(a.c.Auth.Register(ctx, v1.RegisterRequest{
			Username:        rest[0],
			Email:           rest[1],
			Password:        rest[2],
			ConfirmPassword: rest[2],
		}))
	case "verify":
		if len(rest) < 1 {
			return errUsage
		}
		return a.printMessage(a.c.Auth.VerifyEmail(ctx, rest[0]))
	case "resend":
		if len(rest) < 1 {
			return errUsage
		}
		return a.printMessage(a.c.Auth.ResendVerification(ctx, rest[0]))
	case "passwd":
		if len(rest) < 2 {
			return errUsage
		}
		return a.printMessage(a.c.Auth.ChangePassword(ctx, rest[0], rest[1], rest[1]))
	case "products":
		return a.products(ctx, rest)
	case "cart":
		return a.cart(ctx, rest)
	case "orders":
		return a.orders(ctx, rest)
	case "profile":
		return a.profile(ctx, rest)
	case "address":
		return a.address(ctx, rest)
	case "provinces":
		if len(rest) >= 2 && rest[0] == "wards" {
			return a.result(a.c.Provinces.Wards(ctx, rest[1]))
		}
		return a.result(a.c.Provinces.List(ctx))
	case "pay-verify":
		if len(rest) < 1 {
			return errUsage
		}
		q, err := url.ParseQuery(strings.TrimPrefix(rest[0], "?"))
		if err != nil {
			return err
		}
		return a.result(a.c.Payments.VerifyVNPay(ctx, q))
	}
	return fmt.Errorf("%w: unknown command %q", client.ErrInvalidArgument, cmd)
}

func (a *cli) result(v any, err error) error {
	if err != nil {
		return err
	}
	return a.print(v)
}

func (a *cli) products(ctx context.Context, args []string) error {
	sub := subcommand(args, "list")
	switch sub {
	case "list":
		return a.result(a.c.Products.List(ctx))
	case "categories":
		return a.result(a.c.Products.Categories(ctx))
	case "search":
		return a.result(a.c.Products.Search(ctx, strings.Join(args[1:], " ")))
	case "compare":
		ids := make([]int64, 0, len(args)-1)
		for i := 1; i < len(args); i++ {
			id, err := argID(args, i)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		if len(ids) < 1 {
			return errUsage
		}
		return a.result(a.c.Products.Compare(ctx, ids[0], ids[1:]...))
	case "show", "options", "filter":
		id, err := argID(args, 1)
		if err != nil {
			return err
		}
		switch sub {
		case "show":
			return a.result(a.c.Products.Detail(ctx, id))
		case "options":
			return a.result(a.c.Products.FilterOptions(ctx, id))
		}
		var f client.Filter
		if len(args) > 2 {
			f.MinPrice, _ = strconv.Atoi(args[2])
		}
		if len(args) > 3 {
			f.MaxPrice, _ = strconv.Atoi(args[3])
		}
		if len(args) > 4 {
			f.Sort = args[4]
		}
		return a.result(a.c.Products.Filter(ctx, id, f))
	}
	return errUsage
}

func (a *cli) cart(ctx context.Context, args []string) error {
	switch sub := subcommand(args, "show"); sub {
	case "show":
		return a.result(a.c.Cart.Get(ctx))
	case "count":
		return a.result(a.c.Cart.TotalQuantity(ctx))
	case "select-all", "select-none":
		return a.result(a.c.Cart.ToggleAll(ctx, sub == "select-all"))
	case "add", "inc", "dec", "remove", "toggle":
		id, err := argID(args, 1)
		if err != nil {
			return err
		}
		switch sub {
		case "add":
			return a.result(a.c.Cart.Add(ctx, id))
		case "inc":
			return a.result(a.c.Cart.UpdateQuantity(ctx, id, 1))
		case "dec":
			return a.result(a.c.Cart.UpdateQuantity(ctx, id, -1))
		case "remove":
			return a.result(a.c.Cart.Remove(ctx, id))
		default:
			return a.result(a.c.Cart.ToggleSelection(ctx, id))
		}
	}
	return errUsage
}

func (a *cli) orders(ctx context.Context, args []string) error {
	switch subcommand(args, "list") {
	case "list":
		var status constraints.OrderStatus
		if len(args) > 1 {
			status = constraints.OrderStatus(strings.ToUpper(args[1]))
		}
		return a.result(a.c.Orders.List(ctx, status))
	case "show":
		id, err := argID(args, 1)
		if err != nil {
			return err
		}
		return a.result(a.c.Orders.Details(ctx, id))
	case "cancel":
		id, err := argID(args, 1)
		if err != nil {
			return err
		}
		return a.printMessage(a.c.Orders.Cancel(ctx, id))
	case "place":
		if len(args) < 7 {
			return errUsage
		}
		return a.result(a.c.Orders.Place(ctx, v1.PlaceOrderRequest{
			PaymentMethod: strings.ToUpper(args[1]),
			Province:      args[2],
			Phone:         args[3],
			Email:         args[4],
			CustomerName:  args[5],
			Address:       strings.Join(args[6:], " "),
		}))
	}
	return errUsage
}

func (a *cli) profile(ctx context.Context, args []string) error {
	switch subcommand(args, "show") {
	case "show":
		return a.result(a.c.Profile.Get(ctx))
	case "update":
		if len(args) < 3 {
			return errUsage
		}
		return a.result(a.c.Profile.Update(ctx, v1.ProfileRequest{Name: args[1], Phone: args[2]}))
	}
	return errUsage
}

func (a *cli) address(ctx context.Context, args []string) error {
	switch sub := subcommand(args, "list"); sub {
	case "list":
		return a.result(a.c.Addresses.List(ctx))
	case "add":
		if len(args) < 4 {
			return errUsage
		}
		return a.result(a.c.Addresses.Create(ctx, v1.AddressRequest{
			ProvinceCode: args[1],
			WardCode:     args[2],
			Address:      strings.Join(args[3:], " "),
		}))
	case "show", "default", "delete":
		id, err := argID(args, 1)
		if err != nil {
			return err
		}
		switch sub {
		case "show":
			return a.result(a.c.Addresses.Get(ctx, id))
		case "default":
			return a.result(a.c.Addresses.SetDefault(ctx, id))
		default:
			return a.printMessage(a.c.Addresses.Delete(ctx, id))
		}
	}
	return errUsage
}

func subcommand(args []string, def string) string {
	if len(args) == 0 {
		return def
	}
	return args[0]
}

func argID(args []string, i int) (int64, error) {
	if len(args) <= i {
		return 0, errUsage
	}
	id, err := strconv.ParseInt(args[i], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: id %q", client.ErrInvalidArgument, args[i])
	}
	return id, nil
}

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"storefront/client"
	"storefront/internal/config"
	"storefront/internal/metrics"
	"storefront/pkg/logger"

	"go.uber.org/zap"
)

const usage = `usage: storefront [flags] <command> [args]

commands:
  whoami                              show the stored display profile
  login                               log in with -u/-p
  logout
  register <user> <email> <pass>      create an account
  verify <token>                      confirm an email address
  resend <email>                      resend the verification mail
  passwd <old> <new>                  change password
  products [list|categories|search <kw>|show <id>|options <cat>|filter <cat> [min] [max] [sort]|compare <cat> <id> <id> [id]]
  cart [show|count|add <id>|inc <id>|dec <id>|remove <id>|toggle <id>|select-all|select-none]
  orders [list [status]|show <id>|cancel <id>|place <method> <province> <phone> <email> <name> <address...>]
  profile [show|update <name> <phone>]
  address [list|show <id>|add <province> <ward> <address...>|default <id>|delete <id>]
  provinces [list|wards <code>]
  pay-verify <query-string>           check a VNPay return URL query
  shell                               read commands from stdin, one per line

flags:
`

type cli struct {
	c    *client.Client
	out  io.Writer
	user string
	pass string
}

func main() {
	user := flag.String("u", os.Getenv("STOREFRONT_USERNAME"), "username, logs in before the command")
	pass := flag.String("p", os.Getenv("STOREFRONT_PASSWORD"), "password")
	baseURL := flag.String("url", "", "override client.base_url")
	driver := flag.String("store", "", "override store.driver (memory|redis|etcd|mysql)")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if *baseURL != "" {
		cfg.Client.BaseURL = *baseURL
	}
	if *driver != "" {
		cfg.Store.Driver = *driver
	}

	logger.InitLogger(cfg.Server.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *user, *pass, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", client.Message(err, err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, user, pass string, args []string) error {
	store, closeStore, err := newDisplayStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	httpClient := &http.Client{
		Jar:       jar,
		Timeout:   cfg.Client.RequestTimeout,
		Transport: requestIDTransport{base: http.DefaultTransport},
	}

	c, err := client.New(client.GatewayConfig{
		BaseURL:        cfg.Client.BaseURL,
		AuthPrefix:     cfg.Client.AuthPrefix,
		RefreshPath:    cfg.Client.RefreshPath,
		RefreshTimeout: cfg.Client.RefreshTimeout,
	}, store,
		client.WithHTTPClient(httpClient),
		client.WithObserver(metrics.NewGatewayObserver()),
		client.WithSessionEndHook(func(cause error) {
			if cause != nil {
				fmt.Fprintln(os.Stderr, "session expired, please log in again")
			}
		}),
	)
	if err != nil {
		return err
	}

	if cfg.Client.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.Client.MetricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("metrics listener failed", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	app := &cli{c: c, out: os.Stdout, user: user, pass: pass}
	if args[0] == "shell" {
		return app.shell(ctx, os.Stdin)
	}
	return app.exec(ctx, args)
}

// shell keeps one session alive across commands, which is the only way the
// in-memory token outlives a single command.
func (a *cli) shell(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	fmt.Fprint(a.out, "> ")
	for sc.Scan() {
		line := strings.Fields(sc.Text())
		switch {
		case len(line) == 0:
		case line[0] == "exit" || line[0] == "quit":
			return nil
		default:
			if err := a.dispatch(ctx, line); err != nil {
				fmt.Fprintln(a.out, "error:", client.Message(err, err.Error()))
			}
		}
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(a.out, "> ")
	}
	return sc.Err()
}

// exec runs a single command, logging in first when credentials were given.
func (a *cli) exec(ctx context.Context, args []string) error {
	if a.user != "" && !isPublic(args[0]) {
		if _, err := a.c.Auth.Login(ctx, a.user, a.pass); err != nil {
			return err
		}
	}
	return a.dispatch(ctx, args)
}

func isPublic(cmd string) bool {
	switch cmd {
	case "whoami", "login", "register", "verify", "resend", "provinces", "products", "pay-verify":
		return true
	}
	return false
}

func (a *cli) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *cli) printMessage(msg string, err error) error {
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

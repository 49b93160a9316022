package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/edupost/edupost-client/internal/api"
	"github.com/edupost/edupost-client/internal/config"
	"github.com/edupost/edupost-client/internal/router"
	"github.com/edupost/edupost-client/internal/session"
	"github.com/edupost/edupost-client/internal/storage"
	"github.com/edupost/edupost-client/internal/storage/file"
	"github.com/edupost/edupost-client/internal/storage/memory"
	"github.com/edupost/edupost-client/internal/storage/postgres"
	"github.com/edupost/edupost-client/internal/storage/redis"
)

const usage = `usage: edupost [-api URL] [-v] <command> [flags]

commands:
  login      -email -password
  register   -name -username -email -password [-roles STUDENT,TEACHER]
  logout
  whoami
  posts      list|search|get|create|update|delete
  admin      list every post (teachers)
  teachers   list teachers (teachers)
  students   list students (teachers)
  users      create|update|delete (teachers)
`

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("edupost", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	apiURL := fs.String("api", "", "Override the backend base URL")
	verbose := fs.Bool("v", false, "Log requests and storage problems to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	if *apiURL != "" {
		cfg.APIURL = strings.TrimRight(*apiURL, "/")
	}

	logger := log.New(io.Discard, "", 0)
	if *verbose {
		logger = log.New(stderr, "edupost: ", log.LstdFlags)
	}

	store, closeStore, err := openTokenStore(ctx, cfg)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	defer closeStore()

	a := newApp(cfg, store, logger, stdout)
	if err := a.dispatch(ctx, fs.Args()); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 2
		}
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

// openTokenStore builds the backend selected by TOKEN_STORE.
func openTokenStore(ctx context.Context, cfg config.Config) (storage.TokenStore, func(), error) {
	switch cfg.TokenBackend {
	case config.BackendMemory:
		return memory.NewTokenStore(), func() {}, nil
	case config.BackendPostgres:
		store, err := postgres.NewTokenStore(ctx, cfg.DatabaseURL, cfg.TokenKey)
		if err != nil {
			return nil, nil, fmt.Errorf("init token database: %w", err)
		}
		return store, store.Close, nil
	case config.BackendRedis:
		store, err := redis.NewTokenStore(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.TokenKey)
		if err != nil {
			return nil, nil, fmt.Errorf("init token redis: %w", err)
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return file.NewTokenStore(cfg.TokenFile, cfg.TokenKey), func() {}, nil
	}
}

// app is one CLI invocation: a bootstrapped session and the router that
// decides which commands are reachable.
type app struct {
	client  *api.Client
	manager *session.Manager
	router  *router.Router
	out     io.Writer
}

func newApp(cfg config.Config, store storage.TokenStore, logger *log.Logger, out io.Writer) *app {
	client := api.New(cfg.APIURL, cfg.HTTPTimeout,
		api.WithTokenSource(session.TokenSource(store, logger)),
		api.WithLogger(logger),
	)
	return &app{
		client:  client,
		manager: session.NewManager(session.New(), store, client, logger),
		router:  router.New(),
		out:     out,
	}
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	a.router.Apply(a.manager.Bootstrap(ctx))

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return a.login(ctx, rest)
	case "register":
		return a.register(ctx, rest)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami()
	case "posts":
		return a.posts(ctx, rest)
	case "admin":
		return a.admin(ctx, rest)
	case "teachers":
		return a.listUsers(ctx, router.Teachers, rest)
	case "students":
		return a.listUsers(ctx, router.Students, rest)
	case "users":
		return a.users(ctx, rest)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

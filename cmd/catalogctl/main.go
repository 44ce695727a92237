// catalogctl exercises the resilient catalog client from the command line.
// Each command performs a single read, making it composable for scripts.
//
// Commands:
//
//	catalogctl categories -domain shop.example.com
//	catalogctl products   -domain shop.example.com [-category 53] [-search gate]
//	catalogctl product    -domain shop.example.com -id 101
//	catalogctl raw        -domain shop.example.com -path products/categories
//
// Examples:
//
//	catalogctl categories -domain fenceco.com -key ck_xxx -secret cs_xxx
//	catalogctl products -domain fenceco.com -search gate
//	catalogctl raw -domain fenceco.com -path products -timeout 3s -no-fallback
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/GE3O/fence-catalog/internal/catalog"
	"github.com/GE3O/fence-catalog/internal/endpoint"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "categories":
		err = runCategories(args)
	case "products":
		err = runProducts(args)
	case "product":
		err = runProduct(args)
	case "raw":
		err = runRaw(args)
	case "-h", "-help", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: catalogctl <command> [flags]

Commands:
  categories   fetch the category taxonomy
  products     fetch the product collection (-category, -search)
  product      fetch a single product (-id)
  raw          fetch an arbitrary resource path (-path)

Common flags:
  -domain       store domain (or STORE_DOMAIN env)
  -key          consumer key (or CONSUMER_KEY env)
  -secret       consumer secret (or CONSUMER_SECRET env)
  -timeout      per-attempt timeout (default 10s)
  -no-fallback  propagate failures instead of synthetic data
  -v            debug logging`)
}

// commonFlags registers the flags shared by every command.
type commonFlags struct {
	domain     string
	key        string
	secret     string
	timeout    time.Duration
	noFallback bool
	verbose    bool
}

func registerCommon(fs *flag.FlagSet) *commonFlags {
	c := &commonFlags{}
	fs.StringVar(&c.domain, "domain", os.Getenv("STORE_DOMAIN"), "store domain")
	fs.StringVar(&c.key, "key", os.Getenv("CONSUMER_KEY"), "consumer key")
	fs.StringVar(&c.secret, "secret", os.Getenv("CONSUMER_SECRET"), "consumer secret")
	fs.DurationVar(&c.timeout, "timeout", 10*time.Second, "per-attempt timeout")
	fs.BoolVar(&c.noFallback, "no-fallback", false, "disable synthetic fallback")
	fs.BoolVar(&c.verbose, "v", false, "debug logging")
	return c
}

// buildClient constructs a catalog client from common flags.
func (c *commonFlags) buildClient() (*catalog.Client, error) {
	endpoints, err := endpoint.NewConfig(c.domain, endpoint.Credentials{
		ConsumerKey:    c.key,
		ConsumerSecret: c.secret,
	})
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	policy := catalog.DefaultPolicy()
	policy.Timeout = c.timeout
	policy.SyntheticFallback = !c.noFallback

	return catalog.New(catalog.Config{
		Endpoints: endpoints,
		Policy:    policy,
		Logger:    logger,
	})
}

func runCategories(args []string) error {
	fs := flag.NewFlagSet("categories", flag.ExitOnError)
	common := registerCommon(fs)
	fs.Parse(args)

	client, err := common.buildClient()
	if err != nil {
		return err
	}

	cats, err := client.Categories(context.Background())
	if err != nil {
		return err
	}
	return printJSON(cats)
}

func runProducts(args []string) error {
	fs := flag.NewFlagSet("products", flag.ExitOnError)
	common := registerCommon(fs)
	category := fs.String("category", "", "filter by category id or slug")
	search := fs.String("search", "", "filter by name substring")
	fs.Parse(args)

	client, err := common.buildClient()
	if err != nil {
		return err
	}

	params := url.Values{}
	if *category != "" {
		params.Set("category", *category)
	}
	if *search != "" {
		params.Set("search", *search)
	}

	products, err := client.Products(context.Background(), params)
	if err != nil {
		return err
	}
	return printJSON(products)
}

func runProduct(args []string) error {
	fs := flag.NewFlagSet("product", flag.ExitOnError)
	common := registerCommon(fs)
	id := fs.Int("id", 0, "product id")
	fs.Parse(args)

	if *id <= 0 {
		return fmt.Errorf("-id is required")
	}

	client, err := common.buildClient()
	if err != nil {
		return err
	}

	product, err := client.Product(context.Background(), *id)
	if err != nil {
		return err
	}
	return printJSON(product)
}

func runRaw(args []string) error {
	fs := flag.NewFlagSet("raw", flag.ExitOnError)
	common := registerCommon(fs)
	path := fs.String("path", "", "resource path, e.g. products/categories")
	fs.Parse(args)

	if *path == "" {
		return fmt.Errorf("-path is required")
	}

	client, err := common.buildClient()
	if err != nil {
		return err
	}

	raw, err := client.Read(context.Background(), *path, nil)
	if err != nil {
		return err
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return printJSON(v)
}

// printJSON pretty-prints a value to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

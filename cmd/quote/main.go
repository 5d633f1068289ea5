// quote prices a cart from the command line. It reads a quote request as
// JSON (from --input or stdin) and prints the resulting quote.
//
//	quote --catalog configs/catalog.yaml --markup 10 < cart.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"

	"shiprates/internal/catalog"
	"shiprates/internal/rate"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	var (
		catalogPath string
		inputPath   string
		markup      float64
		freeAbove   float64
		fixedPrice  float64
		compact     bool
	)
	flagSet := pflag.NewFlagSet("quote", pflag.ContinueOnError)
	flagSet.StringVar(&catalogPath, "catalog", "", "catalog YAML file (default: built-in carrier tables)")
	flagSet.StringVarP(&inputPath, "input", "i", "-", "request JSON file, - for stdin")
	flagSet.Float64Var(&markup, "markup", 0, "markup percent applied to allocated quotes")
	flagSet.Float64Var(&freeAbove, "free-threshold", 0, "subtotal at or above which shipping is free")
	flagSet.Float64Var(&fixedPrice, "fixed-price", 0, "flat price used when an item lacks dimensions or weight")
	flagSet.BoolVar(&compact, "compact", false, "print the quote on a single line")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}

	snap := catalog.DefaultSnapshot()
	if catalogPath != "" {
		loaded, err := catalog.LoadFile(catalogPath)
		if err != nil {
			return err
		}
		snap = loaded
	}
	if flagSet.Changed("markup") {
		snap.Policy.MarkupPercent = markup
	}
	if flagSet.Changed("free-threshold") {
		snap.Policy.FreeShippingThreshold = catalog.Float64(freeAbove)
	}
	if flagSet.Changed("fixed-price") {
		snap.Policy.FixedShippingPrice = catalog.Float64(fixedPrice)
	}
	if err := snap.Policy.Validate(); err != nil {
		return err
	}

	req, err := readRequest(inputPath, stdin)
	if err != nil {
		return err
	}

	q, err := rate.EstimateOrDefault(context.Background(), rate.NewTableEstimator(catalog.NewStatic(snap)), req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v, default quote returned\n", err)
	}

	enc := json.NewEncoder(stdout)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(q)
}

func readRequest(path string, stdin io.Reader) (rate.Request, error) {
	var req rate.Request
	in := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return req, err
		}
		defer f.Close()
		in = f
	}
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return req, fmt.Errorf("decode request: %w", err)
	}
	if err := validator.New().Struct(req); err != nil {
		return req, fmt.Errorf("invalid request: %w", err)
	}
	return req, nil
}

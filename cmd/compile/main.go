// Command compile turns a block document JSON file into email HTML and a
// plain-text alternative.
//
//	compile -in welcome.json -out dist -vars
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Notifuse/mailblocks/internal/service"
	"github.com/Notifuse/mailblocks/pkg/emailblocks"
	"github.com/Notifuse/mailblocks/pkg/logger"
	"github.com/Notifuse/mailblocks/pkg/plaintext"
	"github.com/Notifuse/mailblocks/pkg/tracking"
)

type options struct {
	in       string
	outDir   string
	name     string
	text     bool
	vars     bool
	logLevel string
	utm      tracking.UTM
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.in, "in", "", "document JSON file, - for stdin")
	fs.StringVar(&opts.outDir, "out", ".", "output directory")
	fs.StringVar(&opts.name, "name", "", "output file name without extension (default: input file name)")
	fs.BoolVar(&opts.text, "text", true, "also write the plain-text alternative")
	fs.BoolVar(&opts.vars, "vars", false, "print the merge variables the document uses")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "log level")
	fs.StringVar(&opts.utm.Source, "utm-source", "", "utm_source added to links")
	fs.StringVar(&opts.utm.Medium, "utm-medium", "", "utm_medium added to links")
	fs.StringVar(&opts.utm.Campaign, "utm-campaign", "", "utm_campaign added to links")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if opts.in == "" {
		return nil, errors.New("-in is required")
	}
	if opts.name == "" {
		if opts.in == "-" {
			opts.name = "email"
		} else {
			base := filepath.Base(opts.in)
			opts.name = emailblocks.FileSlug(strings.TrimSuffix(base, filepath.Ext(base)))
		}
	}
	if opts.name == "" {
		opts.name = "email"
	}

	return opts, nil
}

func readDocument(path string, stdin io.Reader) (emailblocks.Document, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return emailblocks.Document{}, fmt.Errorf("failed to read document: %w", err)
	}

	doc, err := emailblocks.UnmarshalDocument(data)
	if err != nil {
		return emailblocks.Document{}, fmt.Errorf("failed to parse document: %w", err)
	}
	return doc, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	log := logger.NewLoggerWithWriter(stderr, opts.logLevel)

	doc, err := readDocument(opts.in, stdin)
	if err != nil {
		return err
	}

	// compiling needs neither storage nor a cache
	compiler := service.NewTemplateService(nil, log, nil, nil, tracking.UTM{})
	result, err := compiler.Compile(ctx, doc)
	if err != nil {
		return err
	}

	html, text := result.HTML, result.Text
	if !opts.utm.IsEmpty() {
		html = tracking.DecorateLinks(html, opts.utm)
		if text, err = plaintext.FromHTML(html); err != nil {
			return fmt.Errorf("failed to render plain text: %w", err)
		}
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	htmlPath := filepath.Join(opts.outDir, opts.name+".html")
	if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
		return fmt.Errorf("failed to write html: %w", err)
	}
	fmt.Fprintln(stdout, htmlPath)

	if opts.text {
		textPath := filepath.Join(opts.outDir, opts.name+".txt")
		if err := os.WriteFile(textPath, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write text: %w", err)
		}
		fmt.Fprintln(stdout, textPath)
	}

	if opts.vars {
		for _, name := range result.Variables {
			fmt.Fprintf(stdout, "{{ %s }}\n", name)
		}
	}

	return nil
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "compile:", err)
		os.Exit(1)
	}
}

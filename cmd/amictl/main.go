// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command amictl submits one AMI action and prints the result.
//
//	amictl [-config f] [-server host:port] [-user u] [-secret s] [-id actionid]
//	       [-o yaml|json] [-events dur] Action [Key=Value ...]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/amibridge/internal/ami"
	"github.com/ManuGH/amibridge/internal/ami/wire"
	"github.com/ManuGH/amibridge/internal/config"
	"github.com/ManuGH/amibridge/internal/log"
	"github.com/ManuGH/amibridge/internal/version"
)

const (
	exitOK       = 0
	exitFailed   = 1
	exitUsage    = 2
	exitRejected = 3 // Response: Error
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	configPath string
	server     string
	user       string
	secret     string
	actionID   string
	output     string
	events     time.Duration
	timeout    time.Duration
	verbose    bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := flag.NewFlagSet("amictl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "path to config file (YAML)")
	fs.StringVar(&opts.server, "server", "", "manager address host[:port]")
	fs.StringVar(&opts.user, "user", "", "manager username")
	fs.StringVar(&opts.secret, "secret", "", "manager secret")
	fs.StringVar(&opts.actionID, "id", "", "ActionID to send (default: generated)")
	fs.StringVar(&opts.output, "o", "yaml", "output format: yaml|json")
	fs.DurationVar(&opts.events, "events", 0, "keep printing events for this long after the result")
	fs.DurationVar(&opts.timeout, "timeout", 0, "response timeout override")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging to stderr")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: amictl [flags] Action [Key=Value ...]\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return exitUsage
	}
	if opts.output != "yaml" && opts.output != "json" {
		fmt.Fprintf(stderr, "amictl: unknown output format %q\n", opts.output)
		return exitUsage
	}

	a, err := buildAction(fs.Arg(0), fs.Args()[1:])
	if err != nil {
		fmt.Fprintf(stderr, "amictl: %v\n", err)
		return exitUsage
	}
	if opts.actionID != "" {
		a.ID = opts.actionID
	}

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	log.Configure(log.Config{Level: level, Output: stderr, Service: "amictl", Version: version.Version})

	cfg, err := config.NewLoader(opts.configPath, version.Version).Load()
	if err != nil {
		fmt.Fprintf(stderr, "amictl: %v\n", err)
		return exitFailed
	}

	logger := log.WithComponent("ami")
	client := ami.New(cfg.ToClientConfig(&logger))

	out := newPrinter(stdout, opts.output)
	if opts.events > 0 {
		if _, err := client.RegisterListener("*", func(ev *wire.Message) error {
			return out.print(ev.Map())
		}); err != nil {
			fmt.Fprintf(stderr, "amictl: %v\n", err)
			return exitFailed
		}
	}

	if err := client.Connect(ctx, connectOptions(opts)...); err != nil {
		fmt.Fprintf(stderr, "amictl: %v\n", err)
		return exitFailed
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = client.Disconnect(dctx)
	}()

	var submitOpts []ami.SubmitOption
	if opts.timeout > 0 {
		submitOpts = append(submitOpts, ami.WithTimeout(opts.timeout))
	}
	res, err := client.Submit(ctx, a, submitOpts...)
	if res != nil && (res.Response != nil || len(res.Events) > 0) {
		if perr := out.print(res.Map()); perr != nil {
			fmt.Fprintf(stderr, "amictl: %v\n", perr)
		}
	}
	if err != nil {
		fmt.Fprintf(stderr, "amictl: %v\n", err)
		return exitFailed
	}

	if opts.events > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(opts.events):
		case <-client.Done():
		}
	}

	if !res.IsSuccess() {
		return exitRejected
	}
	return exitOK
}

func connectOptions(opts options) []ami.ConnectOption {
	var out []ami.ConnectOption
	if opts.server != "" {
		out = append(out, ami.WithServer(opts.server))
	}
	if opts.user != "" || opts.secret != "" {
		out = append(out, ami.WithCredentials(opts.user, opts.secret))
	}
	return out
}

// buildAction turns "Key=Value" arguments into action fields. Order and
// repeated keys (Variable=...) are kept.
func buildAction(name string, pairs []string) (*wire.Action, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("action name is empty")
	}
	a := wire.NewAction(name)
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("argument %q is not Key=Value", p)
		}
		a.Add(key, value)
	}
	return a, nil
}

// printer serializes output; listeners run on the read loop while the
// result is printed from main.
type printer struct {
	mu     sync.Mutex
	w      io.Writer
	format string
}

func newPrinter(w io.Writer, format string) *printer {
	return &printer{w: w, format: format}
}

func (p *printer) print(v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.format == "json" {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	if _, err := io.WriteString(p.w, "---\n"); err != nil {
		return err
	}
	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Package cli implements the knorry command: one request, printed.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/cabraviva/knorry"
)

// Args are the parsed command-line arguments of one invocation.
type Args struct {
	Method     string
	URL        string
	Data       string
	HasData    bool
	Headers    map[string]string
	DataType   knorry.DataType
	Timeout    time.Duration
	Auth       *knorry.Auth
	ConfigFile string
	Plain      bool
	NoCookies  bool
	Verbose    bool
}

type headerFlags map[string]string

func (h headerFlags) String() string {
	return fmt.Sprint(map[string]string(h))
}

func (h headerFlags) Set(v string) error {
	name, value, ok := strings.Cut(v, ":")
	if !ok || strings.TrimSpace(name) == "" {
		return fmt.Errorf("header must look like 'Name: value', got %q", v)
	}
	h[strings.TrimSpace(name)] = strings.TrimSpace(value)
	return nil
}

// ParseArgs parses a slice of args. It does not read os.Args.
func ParseArgs(args []string) (*Args, error) {
	fs := flag.NewFlagSet("knorry", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	headers := headerFlags{}
	var (
		method     = fs.String("X", "GET", "HTTP method")
		data       = fs.String("d", "", "request body")
		dataType   = fs.String("type", "", "payload hint: json|text|formdata|urlencoded")
		timeout    = fs.Duration("timeout", 0, "request timeout (0 disables it)")
		user       = fs.String("u", "", "basic auth credentials as user:password")
		configFile = fs.String("config", "", "YAML file with default options")
		plain      = fs.Bool("plain", false, "print the whole response descriptor")
		noCookies  = fs.Bool("no-cookies", false, "do not send or store cookies")
		verbose    = fs.Bool("v", false, "log the request lifecycle to stderr")
	)
	fs.Var(headers, "H", "request header 'Name: value' (repeatable)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, fmt.Errorf("expected exactly one URL, got %d arguments", fs.NArg())
	}

	parsed := &Args{
		Method:     strings.ToUpper(*method),
		URL:        fs.Arg(0),
		Data:       *data,
		Headers:    headers,
		DataType:   knorry.DataType(*dataType),
		Timeout:    *timeout,
		ConfigFile: *configFile,
		Plain:      *plain,
		NoCookies:  *noCookies,
		Verbose:    *verbose,
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "d" {
			parsed.HasData = true
		}
	})
	if *user != "" {
		name, pass, ok := strings.Cut(*user, ":")
		if !ok {
			return nil, fmt.Errorf("-u must look like user:password")
		}
		parsed.Auth = &knorry.Auth{Username: name, Password: pass}
	}
	return parsed, nil
}

// Options turns the flags into call options. A config file, when given, is
// merged underneath.
func (a *Args) Options() (knorry.Options, error) {
	var base knorry.Options
	if a.ConfigFile != "" {
		cfg, err := knorry.LoadConfigFile(a.ConfigFile)
		if err != nil {
			return knorry.Options{}, err
		}
		if base, err = cfg.Options(); err != nil {
			return knorry.Options{}, err
		}
	}

	opts := knorry.Options{
		DataType: a.DataType,
		Auth:     a.Auth,
	}
	if len(a.Headers) > 0 {
		opts.Headers = a.Headers
	}
	if a.Timeout > 0 {
		opts.Timeout = knorry.Duration(a.Timeout)
	}
	if a.Plain {
		opts.EasyMode = knorry.Bool(false)
	}
	if a.NoCookies {
		opts.WithCredentials = knorry.Bool(false)
	}
	return knorry.Merge(base, opts), nil
}

// Run performs the request described by args and prints the outcome to out.
func Run(ctx context.Context, args []string, out io.Writer) error {
	parsed, err := ParseArgs(args)
	if err != nil {
		return err
	}
	opts, err := parsed.Options()
	if err != nil {
		return err
	}

	clientOpts := []knorry.Option{}
	if parsed.Verbose {
		clientOpts = append(clientOpts, knorry.WithSimpleLogger())
	}
	client := knorry.New(clientOpts...)

	var data interface{}
	if parsed.HasData {
		data = parsed.Data
	}
	res, err := client.Request(ctx, parsed.Method, parsed.URL, data, opts)
	if err != nil {
		return err
	}
	return Print(out, res)
}

// Print writes a status line followed by the body.
func Print(out io.Writer, res *knorry.Result) error {
	if res == nil {
		_, err := fmt.Fprintln(out, color.YellowString("(no body)"))
		return err
	}

	status := fmt.Sprintf("%d %s", res.Status, res.StatusText)
	switch {
	case res.Successful:
		status = color.GreenString(status)
	case res.ClientError:
		status = color.YellowString(status)
	case res.ServerError:
		status = color.RedString(status)
	}
	if _, err := fmt.Fprintln(out, status); err != nil {
		return err
	}

	if res.Kind() == knorry.KindPlain {
		raw, err := res.MarshalJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(raw))
		return err
	}
	_, err := fmt.Fprintf(out, "%s %s\n", color.CyanString("[%s]", res.Kind()), res.String())
	return err
}

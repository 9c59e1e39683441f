// Command pdfassert extracts text from PDF files and checks it.
//
// Usage:
//
//	pdfassert [flags] <command> [command flags] <args>
//
// Commands:
//
//	extract-text <file>
//	page-count <file>
//	page-text <file> <page>
//	assert-text [-i] <file> <text>
//	assert-no-text [-i] <file> <text>
//	assert-regex [-ignore-case] [-multiline] [-dotall] <file> <pattern>
//	assert-page-count <file> <expected>
//	assert-text-on-page [-i] <file> <page> <text>
//	metadata <file>
//	search [-i] [-context n] <file> <text>
//	write-sample <file>
//
// The exit status is 0 on success, 1 for a failed assertion, 2 for bad
// arguments or an out-of-range page, 3 for a missing file, 4 for an
// unreadable document and 5 for anything else.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/kuitang/site-e2e/internal/config"
	"github.com/kuitang/site-e2e/internal/errs"
	"github.com/kuitang/site-e2e/internal/obs"
	"github.com/kuitang/site-e2e/internal/pdfassert"
	"github.com/kuitang/site-e2e/internal/pdfassert/pdftest"
)

func main() {
	obs.Init()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type command struct {
	args  string
	nargs int
	run   func(c *pdfassert.Checker, fs *flag.FlagSet, opts *cmdOptions, out io.Writer) error
}

type cmdOptions struct {
	ignoreCase bool
	multiline  bool
	dotAll     bool
	context    int
}

func (o *cmdOptions) match() []pdfassert.MatchOption {
	if o.ignoreCase {
		return []pdfassert.MatchOption{pdfassert.CaseInsensitive()}
	}
	return nil
}

func (o *cmdOptions) regexFlags() pdfassert.RegexFlag {
	var f pdfassert.RegexFlag
	if o.ignoreCase {
		f |= pdfassert.IgnoreCase
	}
	if o.multiline {
		f |= pdfassert.Multiline
	}
	if o.dotAll {
		f |= pdfassert.DotAll
	}
	return f
}

var commands = map[string]command{
	"extract-text": {"<file>", 1, func(c *pdfassert.Checker, fs *flag.FlagSet, _ *cmdOptions, out io.Writer) error {
		text, err := c.ExtractText(fs.Arg(0))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, text)
		return err
	}},
	"page-count": {"<file>", 1, func(c *pdfassert.Checker, fs *flag.FlagSet, _ *cmdOptions, out io.Writer) error {
		n, err := c.PageCount(fs.Arg(0))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, n)
		return err
	}},
	"page-text": {"<file> <page>", 2, func(c *pdfassert.Checker, fs *flag.FlagSet, _ *cmdOptions, out io.Writer) error {
		page, err := parseInt("page", fs.Arg(1))
		if err != nil {
			return err
		}
		text, err := c.PageText(fs.Arg(0), page)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, text)
		return err
	}},
	"assert-text": {"<file> <text>", 2, func(c *pdfassert.Checker, fs *flag.FlagSet, o *cmdOptions, out io.Writer) error {
		if _, err := c.AssertTextExists(fs.Arg(0), fs.Arg(1), o.match()...); err != nil {
			return err
		}
		return pass(out, "text %q found", fs.Arg(1))
	}},
	"assert-no-text": {"<file> <text>", 2, func(c *pdfassert.Checker, fs *flag.FlagSet, o *cmdOptions, out io.Writer) error {
		if _, err := c.AssertTextNotExists(fs.Arg(0), fs.Arg(1), o.match()...); err != nil {
			return err
		}
		return pass(out, "text %q absent", fs.Arg(1))
	}},
	"assert-regex": {"<file> <pattern>", 2, func(c *pdfassert.Checker, fs *flag.FlagSet, o *cmdOptions, out io.Writer) error {
		matches, err := c.AssertRegexPattern(fs.Arg(0), fs.Arg(1), o.regexFlags())
		if err != nil {
			return err
		}
		return writeJSON(out, map[string]any{"passed": true, "matches": matches})
	}},
	"assert-page-count": {"<file> <expected>", 2, func(c *pdfassert.Checker, fs *flag.FlagSet, _ *cmdOptions, out io.Writer) error {
		expected, err := parseInt("expected", fs.Arg(1))
		if err != nil {
			return err
		}
		if _, err := c.AssertPageCount(fs.Arg(0), expected); err != nil {
			return err
		}
		return pass(out, "%d pages", expected)
	}},
	"assert-text-on-page": {"<file> <page> <text>", 3, func(c *pdfassert.Checker, fs *flag.FlagSet, o *cmdOptions, out io.Writer) error {
		page, err := parseInt("page", fs.Arg(1))
		if err != nil {
			return err
		}
		if _, err := c.AssertTextOnPage(fs.Arg(0), page, fs.Arg(2), o.match()...); err != nil {
			return err
		}
		return pass(out, "text %q found on page %d", fs.Arg(2), page)
	}},
	"metadata": {"<file>", 1, func(c *pdfassert.Checker, fs *flag.FlagSet, _ *cmdOptions, out io.Writer) error {
		meta, err := c.Metadata(fs.Arg(0))
		if err != nil {
			return err
		}
		return writeJSON(out, meta.Map())
	}},
	"search": {"<file> <text>", 2, func(c *pdfassert.Checker, fs *flag.FlagSet, o *cmdOptions, out io.Writer) error {
		matches, err := c.SearchWithContext(fs.Arg(0), fs.Arg(1), o.context, o.match()...)
		if err != nil {
			return err
		}
		return writeJSON(out, matches)
	}},
	"write-sample": {"<file>", 1, func(_ *pdfassert.Checker, fs *flag.FlagSet, _ *cmdOptions, out io.Writer) error {
		if err := pdftest.WriteSampleReport(fs.Arg(0)); err != nil {
			return errs.Wrap(errs.Internal, fmt.Sprintf("write sample report: %v", err), err)
		}
		_, err := fmt.Fprintln(out, fs.Arg(0))
		return err
	}},
}

func run(args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("pdfassert", flag.ContinueOnError)
	global.SetOutput(stderr)
	cfgFlags := config.RegisterFlags(global)
	global.Usage = func() { usage(stderr) }
	if err := global.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return errs.ExitCode(errs.InvalidArgument)
	}

	cfg, err := config.Load(cfgFlags)
	if err != nil {
		fmt.Fprintf(stderr, "pdfassert: %v\n", err)
		return errs.ExitCode(errs.InvalidArgument)
	}
	obs.SetLevel(cfg.LogLevel)

	if global.NArg() == 0 {
		usage(stderr)
		return errs.ExitCode(errs.InvalidArgument)
	}
	name := global.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "pdfassert: unknown command %q\n", name)
		usage(stderr)
		return errs.ExitCode(errs.InvalidArgument)
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	opts := &cmdOptions{}
	fs.BoolVar(&opts.ignoreCase, "i", false, "Ignore case")
	fs.BoolVar(&opts.ignoreCase, "ignore-case", false, "Ignore case")
	fs.BoolVar(&opts.multiline, "multiline", false, "^ and $ match at line boundaries (assert-regex)")
	fs.BoolVar(&opts.dotAll, "dotall", false, ". matches newlines (assert-regex)")
	fs.IntVar(&opts.context, "context", pdfassert.DefaultContextChars, "Characters of context around each match (search)")
	fs.Usage = func() { fmt.Fprintf(stderr, "usage: pdfassert %s [flags] %s\n", name, cmd.args); fs.PrintDefaults() }
	if err := fs.Parse(global.Args()[1:]); err != nil {
		return errs.ExitCode(errs.InvalidArgument)
	}
	if fs.NArg() != cmd.nargs {
		fs.Usage()
		return errs.ExitCode(errs.InvalidArgument)
	}

	backend, err := pdfassert.BackendByName(cfg.PDFBackend)
	if err != nil {
		fmt.Fprintf(stderr, "pdfassert: %v\n", err)
		return errs.ExitCode(errs.InvalidArgument)
	}
	checker := pdfassert.New(pdfassert.WithBackend(backend), pdfassert.WithLogger(obs.Pkg("pdfassert")))

	if err := cmd.run(checker, fs, opts, stdout); err != nil {
		code := errs.CodeOf(err)
		if code == errs.AssertionFailed {
			fmt.Fprintf(stderr, "FAIL: %v\n", err)
		} else {
			fmt.Fprintf(stderr, "pdfassert: %v\n", err)
		}
		return errs.ExitCode(code)
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: pdfassert [flags] <command> [command flags] <args>")
	fmt.Fprintln(w, "commands:")
	for _, name := range []string{
		"extract-text", "page-count", "page-text", "assert-text", "assert-no-text",
		"assert-regex", "assert-page-count", "assert-text-on-page", "metadata", "search", "write-sample",
	} {
		fmt.Fprintf(w, "  %s %s\n", name, commands[name].args)
	}
}

func parseInt(name, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, errs.Wrap(errs.InvalidArgument, fmt.Sprintf("%s must be an integer, got %q", name, value), err)
	}
	return n, nil
}

func pass(out io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(out, "PASS: "+format+"\n", args...)
	return err
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// dynsh is an interactive shell over the dynlib engine: open a shared
// library, bind exported symbols to declared signatures, and call them with
// host values.
//
// Bind-time failures print as a (false, message) pair — they are routine
// during exploration. Call-time failures (arity, type mismatch, closed
// handle) print as raised errors, since they indicate a mistyped call.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/daios-ai/dynlib"
)

const (
	appName     = "dynsh"
	historyFile = ".dynsh_history"
	prompt      = "dl> "
)

const helpText = `Commands:
  open PATH                     Open a shared library (closes nothing; one library at a time)
  bind RET NAME [ARGTAG ...]    Bind NAME with return tag RET and argument tags
  call NAME [ARG ...]           Call a bound symbol (nil, true/false, numbers, "strings")
  var TAG NAME                  Bind a global variable and print its value
  info                          Show handle state and bound symbols
  close                         Close the current library
  help                          Show this help
  quit                          Exit

Multi-word type tags must be quoted: bind "unsigned long long" somefn int
`

func main() {
	var verbose bool
	root := &cobra.Command{
		Use:          appName + " [library]",
		Short:        "Interactive shell for calling native shared-library functions",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				lg, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				defer func() { _ = lg.Sync() }()
				dynlib.SetLogger(lg)
			}
			var lib *dynlib.Library
			if len(args) == 1 {
				l, err := dynlib.Open(args[0])
				if err != nil {
					return err
				}
				lib = l
				fmt.Println(lib)
			}
			return repl(lib)
		},
	}
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "log engine operations")
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

func repl(lib *dynlib.Library) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		histPath = filepath.Join(home, historyFile)
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			f.Close()
		}
	}
	defer func() {
		if histPath == "" {
			return
		}
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			f.Close()
		}
	}()

	for {
		line, err := ln.Prompt(prompt)
		if err != nil { // io.EOF or liner.ErrPromptAborted
			fmt.Println()
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)

		toks, err := tokenize(line)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		if done := dispatch(&lib, toks); done {
			break
		}
	}
	if lib != nil {
		_ = lib.Close()
	}
	return nil
}

// dispatch runs one command; returns true when the shell should exit.
func dispatch(lib **dynlib.Library, toks []string) bool {
	cmd, rest := toks[0], toks[1:]
	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		fmt.Print(helpText)
	case "open":
		if len(rest) != 1 {
			fmt.Println("usage: open PATH")
			return false
		}
		if *lib != nil && !(*lib).Closed() {
			fmt.Println("error: close the current library first")
			return false
		}
		l, err := dynlib.Open(rest[0])
		if err != nil {
			fmt.Printf("nil\t%q\n", err.Error())
			return false
		}
		*lib = l
		fmt.Println(l)
	case "bind":
		if *lib == nil {
			fmt.Println("error: no library open")
			return false
		}
		if len(rest) < 2 {
			fmt.Println("usage: bind RET NAME [ARGTAG ...]")
			return false
		}
		argTags := make([]string, len(rest)-2)
		for i, tok := range rest[2:] {
			argTags[i] = tagToken(tok)
		}
		if _, err := (*lib).Bind(tagToken(rest[0]), rest[1], argTags...); err != nil {
			fmt.Printf("false\t%q\n", err.Error())
			return false
		}
		fmt.Println("true")
	case "call":
		if *lib == nil {
			fmt.Println("error: no library open")
			return false
		}
		if len(rest) < 1 {
			fmt.Println("usage: call NAME [ARG ...]")
			return false
		}
		args := make([]dynlib.Value, 0, len(rest)-1)
		for _, tok := range rest[1:] {
			v, err := parseValue(tok)
			if err != nil {
				fmt.Printf("error: %v\n", err)
				return false
			}
			args = append(args, v)
		}
		res, err := (*lib).Call(rest[0], args...)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return false
		}
		if len(res) == 0 {
			return false // void: zero results, print nothing
		}
		parts := make([]string, len(res))
		for i, v := range res {
			parts[i] = v.String()
		}
		fmt.Println(strings.Join(parts, "\t"))
	case "var":
		if *lib == nil {
			fmt.Println("error: no library open")
			return false
		}
		if len(rest) != 2 {
			fmt.Println("usage: var TAG NAME")
			return false
		}
		vr, err := (*lib).BindVar(tagToken(rest[0]), rest[1])
		if err != nil {
			fmt.Printf("false\t%q\n", err.Error())
			return false
		}
		v, err := vr.Get()
		if err != nil {
			fmt.Printf("error: %v\n", err)
			return false
		}
		fmt.Println(v)
	case "info":
		if *lib == nil {
			fmt.Println("no library open")
			return false
		}
		fmt.Println(*lib)
		for _, s := range (*lib).Symbols() {
			fmt.Println("  " + s.Signature())
		}
	case "close":
		if *lib == nil {
			fmt.Println("error: no library open")
			return false
		}
		if err := (*lib).Close(); err != nil {
			fmt.Printf("false\t%q\n", err.Error())
			return false
		}
		fmt.Println("true")
	default:
		fmt.Printf("error: unknown command %q (try help)\n", cmd)
	}
	return false
}

// tagToken strips the surrounding quotes from a quoted type tag, so
// multi-word spellings like "unsigned long long" come through as one tag.
func tagToken(tok string) string {
	if strings.HasPrefix(tok, `"`) {
		if s, err := strconv.Unquote(tok); err == nil {
			return s
		}
	}
	return tok
}

// parseValue converts one REPL token into a host value: nil/null, booleans,
// integers, floats, and double-quoted strings.
func parseValue(tok string) (dynlib.Value, error) {
	switch tok {
	case "nil", "null":
		return dynlib.Null, nil
	case "true":
		return dynlib.Bool(true), nil
	case "false":
		return dynlib.Bool(false), nil
	}
	if strings.HasPrefix(tok, `"`) {
		s, err := strconv.Unquote(tok)
		if err != nil {
			return dynlib.Null, fmt.Errorf("bad string literal %s: %v", tok, err)
		}
		return dynlib.Str(s), nil
	}
	if n, err := strconv.ParseInt(tok, 0, 64); err == nil {
		return dynlib.Int(n), nil
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return dynlib.Num(f), nil
	}
	return dynlib.Null, fmt.Errorf("cannot parse value %q", tok)
}

// tokenize splits a command line on whitespace, keeping double-quoted
// sections (with backslash escapes) as single tokens including their quotes.
func tokenize(line string) ([]string, error) {
	var toks []string
	i := 0
	for i < len(line) {
		for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
			i++
		}
		if i >= len(line) {
			break
		}
		start := i
		if line[i] == '"' {
			i++
			for i < len(line) {
				if line[i] == '\\' && i+1 < len(line) {
					i += 2
					continue
				}
				if line[i] == '"' {
					i++
					break
				}
				i++
			}
			if line[i-1] != '"' || i == start+1 {
				return nil, fmt.Errorf("unterminated string starting at column %d", start+1)
			}
			toks = append(toks, line[start:i])
			continue
		}
		for i < len(line) && line[i] != ' ' && line[i] != '\t' {
			i++
		}
		toks = append(toks, line[start:i])
	}
	return toks, nil
}

// Package cli turns command-line flags and a YAML run config into a batch
// of built or loaded k-expressions, evaluates them against the configured
// cases, and maps every outcome to a semantic exit code.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

const (
	ExitSuccess           = 0
	ExitEvaluationFailure = 1
	ExitInvalidInvocation = 2
	ExitConfigError       = 3
	ExitInternalError     = 4
)

// StdoutPath as the -trace destination prints traces as text with the
// results instead of writing a JSON file.
const StdoutPath = "-"

// CLIInvocation is the canonicalized description of one run. Paths are
// cleaned; an empty path means the corresponding step is skipped.
type CLIInvocation struct {
	ConfigPath       string
	LoadPath         string
	ValidatePath     string
	TracePath        string
	SaveVocabPath    string
	SaveKExprPath    string
	SaveDisplaysPath string

	// Seed and Count override the run config when set.
	Seed    int64
	SeedSet bool
	Count   int

	// Workers bounds parallel fitness evaluation; 0 means one per CPU.
	Workers int
	Unique  bool
}

type InvocationError struct {
	ExitCode int
	Message  string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{ExitCode: ExitInvalidInvocation, Message: fmt.Sprintf(format, args...)}
}

// ParseInvocation parses CLI flags into a canonical CLIInvocation. It does
// not touch the filesystem.
func ParseInvocation(args []string) (CLIInvocation, error) {
	fs := flag.NewFlagSet("gepkit", flag.ContinueOnError)
	fs.SetOutput(io.Discard) // parsing errors are returned, not printed

	var inv CLIInvocation
	var seed int64
	fs.StringVar(&inv.ConfigPath, "config", "", "YAML run config. Required unless -load is given.")
	fs.StringVar(&inv.LoadPath, "load", "", "Evaluate a saved k-expression instead of building random ones.")
	fs.StringVar(&inv.ValidatePath, "validate", "", "Check the vocabulary against a saved display list.")
	fs.StringVar(&inv.TracePath, "trace", "", "Write evaluation traces to this path, or - for stdout.")
	fs.StringVar(&inv.SaveVocabPath, "save-vocab", "", "Save the vocabulary.")
	fs.StringVar(&inv.SaveKExprPath, "save-kexpr", "", "Save the fittest k-expression (the first one without cases).")
	fs.StringVar(&inv.SaveDisplaysPath, "save-displays", "", "Save the vocabulary display list for later -validate.")
	fs.Int64Var(&seed, "seed", 0, "Random seed; overrides the config.")
	fs.IntVar(&inv.Count, "count", 0, "Number of k-expressions to build; overrides the config.")
	fs.IntVar(&inv.Workers, "workers", 0, "Parallel fitness workers. 0 means one per CPU.")
	fs.BoolVar(&inv.Unique, "unique", false, "Drop k-expressions whose genes repeat an earlier one.")

	if err := fs.Parse(args); err != nil {
		return CLIInvocation{}, invalidInvocationf("%v", err)
	}
	if fs.NArg() != 0 {
		return CLIInvocation{}, invalidInvocationf("unexpected positional arguments: %q", strings.Join(fs.Args(), " "))
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			inv.SeedSet = true
		}
	})
	inv.Seed = seed

	if inv.ConfigPath == "" && inv.LoadPath == "" {
		return CLIInvocation{}, invalidInvocationf("-config is required unless -load is given")
	}
	if inv.Count < 0 {
		return CLIInvocation{}, invalidInvocationf("-count must not be negative (got %d)", inv.Count)
	}
	if inv.Workers < 0 {
		return CLIInvocation{}, invalidInvocationf("-workers must not be negative (got %d)", inv.Workers)
	}
	if inv.LoadPath != "" && inv.Count > 1 {
		return CLIInvocation{}, invalidInvocationf("-count can not exceed 1 with -load")
	}

	for _, p := range []*string{&inv.ConfigPath, &inv.LoadPath, &inv.ValidatePath, &inv.SaveVocabPath, &inv.SaveKExprPath, &inv.SaveDisplaysPath} {
		clean, err := cleanPath(*p)
		if err != nil {
			return CLIInvocation{}, err
		}
		*p = clean
	}
	if inv.TracePath != StdoutPath {
		clean, err := cleanPath(inv.TracePath)
		if err != nil {
			return CLIInvocation{}, err
		}
		inv.TracePath = clean
	}
	return inv, nil
}

func cleanPath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", nil
	}
	clean := filepath.Clean(p)
	if clean == "." {
		return "", invalidInvocationf("path must not be '.'")
	}
	return clean, nil
}

// ExitCode extracts a semantic exit code from a ParseInvocation error.
// If the error is not a known invocation error, it returns ExitInternalError.
func ExitCode(err error) int {
	var invErr *InvocationError
	if errors.As(err, &invErr) && invErr != nil {
		if invErr.ExitCode != 0 {
			return invErr.ExitCode
		}
		return ExitInvalidInvocation
	}
	if err == nil {
		return ExitSuccess
	}
	return ExitInternalError
}

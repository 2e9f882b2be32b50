package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/cottand/depmatch/frontend/fixture"
	"github.com/cottand/depmatch/frontend/ilerr"
	"github.com/cottand/depmatch/internal/log"
	"github.com/davecgh/go-spew/spew"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
)

var CheckCmd = &cobra.Command{
	Use:          "check fixture.yaml...",
	Short:        "Check the clauses of fixture files against their expectations",
	RunE:         runCheck,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

var (
	logLevel    *int
	logSections *[]string
	dump        *bool
	params      *[]string
	debugErrors *bool
)

var logger = log.DefaultLogger.With("section", "cmd")

func init() {
	logLevel = CheckCmd.Flags().IntP("log-level", "l", int(slog.LevelError), "log level")
	logSections = CheckCmd.Flags().StringSlice("log-sections", nil, "additional sections to log debug records of")
	dump = CheckCmd.Flags().Bool("dump", false, "dump every checked clause")
	params = CheckCmd.Flags().StringSlice("params", nil, "names of module parameters, in addition to those of the fixture")
	debugErrors = CheckCmd.Flags().Bool("debug-errors", false, "prefix errors with the frame that raised them")
}

var dumper = spew.ConfigState{Indent: "  ", MaxDepth: 8, DisablePointerAddresses: true, SortKeys: true}

func runCheck(cmd *cobra.Command, args []string) error {
	log.SetLevel(slog.Level(*logLevel))
	log.EnableSections(*logSections...)
	ilerr.SetDebugPrinting(*debugErrors)

	var result *multierror.Error
	var clauseErrs *ilerr.Errors
	for _, path := range args {
		errs, err := checkFile(cmd.OutOrStdout(), path)
		clauseErrs = clauseErrs.Merge(errs)
		if err != nil {
			result = multierror.Append(result, err)
		}
	}
	logger.Info("checked fixtures", "files", len(args), "clauseErrors", clauseErrs)
	return result.ErrorOrNil()
}

func checkFile(out io.Writer, path string) (*ilerr.Errors, error) {
	f, err := fixture.Load(path)
	if err != nil {
		return nil, err
	}
	return checkFixture(out, path, f)
}

// CheckSource checks the fixture in data as if it were read from a file called name,
// writing the report to out
func CheckSource(out io.Writer, name string, data []byte) error {
	f, err := fixture.Parse(data)
	if err != nil {
		return fmt.Errorf("could not parse %s: %w", name, err)
	}
	_, err = checkFixture(out, name, f)
	return err
}

// checkFixture reports the outcome of every clause of f to out. It returns the errors
// the clauses failed with, and an error if any outcome was unexpected.
func checkFixture(out io.Writer, path string, f *fixture.Fixture) (*ilerr.Errors, error) {
	f.Params = append(f.Params, *params...)
	outcomes, err := f.Run()
	if err != nil {
		return nil, fmt.Errorf("could not build the signature of %s: %w", path, err)
	}

	var result *multierror.Error
	for _, o := range outcomes {
		status := "ok  "
		if !o.OK() {
			status = "FAIL"
			result = multierror.Append(result, fmt.Errorf("%s: %s: %s", path, o.Clause, o.Unexpected))
		}
		_, _ = fmt.Fprintf(out, "%s %s: %s\n", status, o.Clause, describe(o))
		var ile ilerr.IleError
		if o.Err != nil && errors.As(o.Err, &ile) {
			_, _ = fmt.Fprintln(out, ilerr.FormatWithCodeAndSource(ile, o.Clause.LHS))
		}
		if *dump && o.Result != nil {
			dumper.Fdump(out, o.Result)
		}
	}
	return fixture.ClauseErrors(outcomes), result.ErrorOrNil()
}

func describe(o fixture.Outcome) string {
	switch {
	case !o.OK():
		return o.Unexpected
	case o.Err != nil:
		return "failed as expected with " + ilerr.CodeOf(o.Err).String()
	default:
		return fmt.Sprintf("%s | %s", o.Result.Tel, o.Patterns())
	}
}

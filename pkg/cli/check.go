package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"github.com/githubnext/sqlresult/pkg/config"
	"github.com/githubnext/sqlresult/pkg/console"
	"github.com/githubnext/sqlresult/pkg/constants"
	"github.com/githubnext/sqlresult/pkg/parser"
)

// ErrDegradedResults is returned by a strict check that found malformed records
var ErrDegradedResults = errors.New("result files contain degraded records")

// CheckResult is the outcome of parsing one result file
type CheckResult struct {
	Path     string
	Records  int
	Degraded int
	Issues   []parser.Issue
	Error    error
}

// NewCheckCommand creates the check command
func NewCheckCommand() *cobra.Command {
	checkCmd := &cobra.Command{
		Use:   "check [dir]",
		Short: "Parse every result file under a directory and report malformed records",
		Long: `Parse every result file under a directory concurrently and report how many
records each file holds and which of them had to be recovered from malformed input.

Examples:
  ` + constants.CLIExtensionPrefix + ` check              # Check the current directory
  ` + constants.CLIExtensionPrefix + ` check ./t          # Check a test suite directory
  ` + constants.CLIExtensionPrefix + ` check --strict     # Exit with an error on any degraded record`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			strict, _ := cmd.Flags().GetBool("strict")
			verbose, _ := cmd.Flags().GetBool("verbose")
			configPath, _ := cmd.Flags().GetString("config")

			cfg, err := LoadConfig(configPath, verbose)
			if err != nil {
				fmt.Fprintln(os.Stderr, FormatCommandError(err))
				os.Exit(1)
			}
			if err := CheckResultFiles(os.Stdout, cfg, dir, strict, verbose); err != nil {
				fmt.Fprintln(os.Stderr, FormatCommandError(err))
				os.Exit(1)
			}
		},
	}

	checkCmd.Flags().Bool("strict", false, "Exit with an error when any record is degraded")

	return checkCmd
}

// findResultFiles returns every file under dir carrying the result extension
func findResultFiles(dir, extension string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, extension) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// checkFile parses one result file
func checkFile(path string) CheckResult {
	result := CheckResult{Path: path}
	content, err := os.ReadFile(path)
	if err != nil {
		result.Error = fmt.Errorf("failed to read result file %s: %w", path, err)
		return result
	}

	results := parser.ParseResultContent(string(content))
	result.Records = results.Len()
	for _, r := range results.Degraded() {
		result.Degraded++
		for _, issue := range r.Issues {
			issue.Detail = fmt.Sprintf("line %d: %s", r.LineNumber, issue.Detail)
			result.Issues = append(result.Issues, issue)
		}
	}
	return result
}

// CheckResultFiles parses every result file under dir with a bounded worker
// pool and prints a summary table
func CheckResultFiles(w io.Writer, cfg config.Config, dir string, strict, verbose bool) error {
	files, err := findResultFiles(dir, cfg.ResultExtension)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(w, console.FormatInfoMessage(fmt.Sprintf("No %s files found in %s", cfg.ResultExtension, dir)))
		return nil
	}

	results := runChecks(files, cfg.MaxConcurrency, verbose)
	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	rows := make([][]string, 0, len(results))
	totalRecords, totalDegraded, failed := 0, 0, 0
	for _, r := range results {
		status := "ok"
		switch {
		case r.Error != nil:
			status = "failed"
			failed++
		case r.Degraded > 0:
			status = "degraded"
		}
		totalRecords += r.Records
		totalDegraded += r.Degraded
		rows = append(rows, []string{
			console.ToRelativePath(r.Path),
			strconv.Itoa(r.Records),
			strconv.Itoa(r.Degraded),
			status,
		})
	}

	fmt.Fprint(w, console.RenderTable(console.TableConfig{
		Headers: []string{"File", "Records", "Degraded", "Status"},
		Rows:    rows,
	}))

	for _, r := range results {
		if r.Error != nil {
			fmt.Fprintln(w, console.FormatErrorMessage(r.Error.Error()))
			continue
		}
		if len(r.Issues) == 0 || (!verbose && !strict) {
			continue
		}
		fmt.Fprintln(w, console.FormatListHeader(console.ToRelativePath(r.Path)))
		for _, issue := range r.Issues {
			fmt.Fprintln(w, console.FormatListItem(issue.String()))
		}
	}

	fmt.Fprintln(w, console.FormatCountMessage(fmt.Sprintf("%d files, %d records, %d degraded", len(results), totalRecords, totalDegraded)))

	if failed > 0 {
		return fmt.Errorf("failed to read %d result files", failed)
	}
	if strict && totalDegraded > 0 {
		return fmt.Errorf("%w: %d of %d", ErrDegradedResults, totalDegraded, totalRecords)
	}
	if totalDegraded == 0 {
		fmt.Fprintln(w, console.FormatSuccessMessage("All result files parsed cleanly"))
	}
	return nil
}

// runChecks parses files concurrently, reporting progress on a spinner
func runChecks(files []string, maxConcurrency int, verbose bool) []CheckResult {
	if maxConcurrency < 1 {
		maxConcurrency = constants.DefaultMaxConcurrency
	}

	spinner := console.NewSpinner("Checking result files...")
	if !verbose {
		spinner.Start()
		defer spinner.Stop()
	}

	var done atomic.Int32

	p := pool.NewWithResults[CheckResult]().WithMaxGoroutines(maxConcurrency)
	for _, file := range files {
		p.Go(func() CheckResult {
			if verbose {
				fmt.Fprintln(os.Stderr, console.FormatVerboseMessage(fmt.Sprintf("Checking %s", console.ToRelativePath(file))))
			}
			result := checkFile(file)

			spinner.Progress(int(done.Add(1)), len(files))
			return result
		})
	}
	return p.Wait()
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/githubnext/sqlresult/pkg/cli"
	"github.com/githubnext/sqlresult/pkg/config"
	"github.com/githubnext/sqlresult/pkg/console"
	"github.com/githubnext/sqlresult/pkg/constants"
)

// Build-time variables set by GoReleaser
var (
	version = "dev"
)

// Global flags
var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   constants.CLIExtensionPrefix,
	Short: "Inspect the recorded results of SQL test scripts",
	Long: `SQL Result Hint reads the .result files recorded next to SQL test scripts.

Every statement of a script has a marker in its result file carrying the source line,
the statement length and either a result table or an error. This tool parses those
files, shows the outcome recorded for any line and maps lines between the two files.`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// loadConfig reads the configuration named by the global --config flag
func loadConfig() config.Config {
	cfg, err := cli.LoadConfig(configPath, verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatCommandError(err))
		os.Exit(1)
	}
	return cfg
}

// lineArg parses a line argument or exits
func lineArg(arg string) int {
	line, err := cli.ParseLine(arg)
	if err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		os.Exit(1)
	}
	return line
}

var parseCmd = &cobra.Command{
	Use:   "parse <file.result>",
	Short: "Parse a result file and print every record",
	Long: `Parse a result file and print every record with its type, status and any
recovery made while reading malformed markers or lengths.

Examples:
  ` + constants.CLIExtensionPrefix + ` parse t/select.result
  ` + constants.CLIExtensionPrefix + ` parse t/select.result --format json
  ` + constants.CLIExtensionPrefix + ` parse t/select.result -f yaml`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		format, _ := cmd.Flags().GetString("format")
		if err := cli.ParseResultFile(os.Stdout, args[0], format, verbose); err != nil {
			fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
			os.Exit(1)
		}
	},
}

var markersCmd = &cobra.Command{
	Use:   "markers <file.result>",
	Short: "List the #SQL markers of a result file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := cli.ListResultMarkers(os.Stdout, args[0], verbose); err != nil {
			fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
			os.Exit(1)
		}
	},
}

var showCmd = &cobra.Command{
	Use:   "show <file.sql> <line>",
	Short: "Show the recorded outcome of the statement on a line",
	Long: `Show the result table or error recorded for the statement on a line of a SQL file.

The terminal format highlights the statement and lays out the result table; the
markdown format prints the hover an editor would display.

Examples:
  ` + constants.CLIExtensionPrefix + ` show t/select.sql 12
  ` + constants.CLIExtensionPrefix + ` show t/select.sql 12 --format markdown`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		format, _ := cmd.Flags().GetString("format")
		cfg := loadConfig()
		if err := cli.ShowResult(os.Stdout, cfg, args[0], lineArg(args[1]), format, verbose); err != nil {
			fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
			os.Exit(1)
		}
	},
}

var lensesCmd = &cobra.Command{
	Use:   "lenses <file>",
	Short: "List the code lenses of a SQL or result file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if err := cli.ShowLenses(os.Stdout, cfg, args[0], verbose); err != nil {
			fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
			os.Exit(1)
		}
	},
}

var gotoCmd = &cobra.Command{
	Use:   "goto <file> <line>",
	Short: "Print the counterpart location of a line",
	Long: `Print the counterpart location of a line as path:line.

For a SQL file this is the marker of the statement in the result file. For a result
file this is the statement governing the line in the SQL file.

Examples:
  ` + constants.CLIExtensionPrefix + ` goto t/select.sql 12
  ` + constants.CLIExtensionPrefix + ` goto t/select.result 40`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if err := cli.GoTo(os.Stdout, cfg, args[0], lineArg(args[1]), verbose); err != nil {
			fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
			os.Exit(1)
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(console.FormatInfoMessage(fmt.Sprintf("%s version %s", constants.CLIExtensionPrefix, version)))
	},
}

func init() {
	// Add global flags to root command
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output showing detailed information")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a configuration file (default: "+config.FileName+" in the current directory)")

	parseCmd.Flags().StringP("format", "f", cli.FormatTable, "Output format: table, json or yaml")
	showCmd.Flags().StringP("format", "f", cli.FormatTerminal, "Output format: terminal or markdown")

	// Add all commands to root
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(markersCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(lensesCmd)
	rootCmd.AddCommand(gotoCmd)
	rootCmd.AddCommand(cli.NewCheckCommand())
	rootCmd.AddCommand(cli.NewWatchCommand())
	rootCmd.AddCommand(cli.NewMCPCommand())
	rootCmd.AddCommand(versionCmd)
}

func main() {
	// Set version information in the CLI package
	cli.SetVersionInfo(version)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, console.FormatErrorMessage(err.Error()))
		os.Exit(1)
	}
}

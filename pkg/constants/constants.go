package constants

// CLIExtensionPrefix is the command name used in user-facing output
const CLIExtensionPrefix = "sqlresult"

// Defaults shared by configuration and commands
const (
	DefaultSQLExtension    = ".sql"
	DefaultResultExtension = ".result"
	DefaultHighlightStyle  = "monokai"

	// DefaultCacheSize is the number of parsed result files kept in memory
	DefaultCacheSize = 100

	// DefaultMaxConcurrency bounds the number of result files parsed at once by check
	DefaultMaxConcurrency = 8
)

// WatchDebounceMilliseconds delays reparsing after a burst of file events
const WatchDebounceMilliseconds = 300

// Package provider answers editor-style questions about a SQL script and
// its paired result file: what to show on hover, which code lenses to
// draw, and where to jump between the two files.
package provider

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/githubnext/sqlresult/pkg/config"
	"github.com/githubnext/sqlresult/pkg/hover"
	"github.com/githubnext/sqlresult/pkg/parser"
	"github.com/githubnext/sqlresult/pkg/resultcache"
)

var (
	// ErrResultFileNotFound is returned when a SQL file has no paired result file
	ErrResultFileNotFound = errors.New("result file not found")
	// ErrSQLFileNotFound is returned when a result file has no paired SQL file
	ErrSQLFileNotFound = errors.New("sql file not found")
	// ErrNoResult is returned when the result file records nothing for a line
	ErrNoResult = errors.New("no result recorded for line")
	// ErrMarkerNotFound is returned when no marker can be located
	ErrMarkerNotFound = errors.New("marker not found")
)

// ReadFileFunc reads a whole file, like os.ReadFile
type ReadFileFunc func(path string) ([]byte, error)

// Location is a 1-based line in a file
type Location struct {
	Path string `json:"path"`
	Line int    `json:"line"`
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.Path, l.Line)
}

// document is the cached parse of one result file
type document struct {
	resultPath string
	content    string
	results    *parser.ResultSet
}

// Provider serves hovers, code lenses and navigation for SQL/result file pairs.
// It is safe for concurrent use.
type Provider struct {
	cfg      config.Config
	cache    resultcache.Store[*document]
	readFile ReadFileFunc
	log      *zap.Logger
}

// New creates a provider using cfg for extensions, cache size and hover options
func New(cfg config.Config) *Provider {
	p := &Provider{
		cfg:      cfg,
		readFile: os.ReadFile,
		log:      zap.NewNop(),
	}
	p.cache = newCache(cfg.CacheSize, p)
	return p
}

func newCache(capacity int, p *Provider) resultcache.Store[*document] {
	return resultcache.New[*document](capacity, func(key string) {
		p.log.Debug("evicted cached result file", zap.String("sql", key))
	})
}

// WithReadFile replaces the function used to read files
func (p *Provider) WithReadFile(fn ReadFileFunc) *Provider {
	p.readFile = fn
	return p
}

// WithLogger sets the logger used for cache and parse events
func (p *Provider) WithLogger(log *zap.Logger) *Provider {
	if log != nil {
		p.log = log
	}
	return p
}

// Config returns the configuration the provider was built with
func (p *Provider) Config() config.Config {
	return p.cfg
}

// ResultFilePath returns the result file paired with a SQL file: same
// directory, same base name, result extension
func (p *Provider) ResultFilePath(sqlPath string) string {
	ext := filepath.Ext(sqlPath)
	return strings.TrimSuffix(sqlPath, ext) + p.cfg.ResultExtension
}

// SQLFilePath returns the SQL file paired with a result file
func (p *Provider) SQLFilePath(resultPath string) string {
	base := strings.TrimSuffix(resultPath, p.cfg.ResultExtension)
	if base == resultPath {
		base = strings.TrimSuffix(resultPath, filepath.Ext(resultPath))
	}
	return base + p.cfg.SQLExtension
}

// IsResultFile reports whether path carries the result extension
func (p *Provider) IsResultFile(path string) bool {
	return strings.HasSuffix(path, p.cfg.ResultExtension)
}

// IsSQLFile reports whether path carries the SQL extension
func (p *Provider) IsSQLFile(path string) bool {
	return strings.HasSuffix(path, p.cfg.SQLExtension)
}

func cacheKey(sqlPath string) string {
	return filepath.Clean(sqlPath)
}

func (p *Provider) load(sqlPath string) (*document, error) {
	key := cacheKey(sqlPath)
	if doc, ok := p.cache.Get(key); ok {
		p.log.Debug("result cache hit", zap.String("sql", key))
		return doc, nil
	}

	resultPath := p.ResultFilePath(sqlPath)
	content, err := p.readFile(resultPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrResultFileNotFound, resultPath)
		}
		return nil, fmt.Errorf("failed to read result file %s: %w", resultPath, err)
	}

	doc := &document{
		resultPath: resultPath,
		content:    string(content),
		results:    parser.ParseResultContent(string(content)),
	}
	p.log.Debug("parsed result file",
		zap.String("result", resultPath),
		zap.Int("records", doc.results.Len()),
		zap.Int("degraded", len(doc.results.Degraded())))

	p.cache.Put(key, doc)
	return doc, nil
}

// LoadResults returns the parsed records of the result file paired with
// sqlPath, from the cache when possible
func (p *Provider) LoadResults(sqlPath string) (*parser.ResultSet, error) {
	doc, err := p.load(sqlPath)
	if err != nil {
		return nil, err
	}
	return doc.results, nil
}

// ResultAt returns the record for a 1-based line of a SQL file
func (p *Provider) ResultAt(sqlPath string, line int) (*parser.SQLResult, error) {
	results, err := p.LoadResults(sqlPath)
	if err != nil {
		return nil, err
	}
	r, ok := results.Get(line)
	if !ok {
		return nil, fmt.Errorf("%w %d", ErrNoResult, line)
	}
	return r, nil
}

// Hover returns the hover markdown for a line of a SQL file. An empty
// string means there is nothing to show.
func (p *Provider) Hover(sqlPath string, line int) (string, error) {
	if !p.cfg.Enabled {
		return "", nil
	}
	r, err := p.ResultAt(sqlPath, line)
	if err != nil {
		return "", err
	}
	md, ok := hover.Generate(r, hover.Options{ShowContent: p.cfg.GoToResultHints})
	if !ok {
		return "", nil
	}
	return md, nil
}

// GoToResult locates the result-file line holding the marker for a SQL line
func (p *Provider) GoToResult(sqlPath string, line int) (Location, error) {
	doc, err := p.load(sqlPath)
	if err != nil {
		return Location{}, err
	}
	resultLine, ok := parser.LocateRecordLine(doc.content, line)
	if !ok {
		return Location{}, fmt.Errorf("%w for line %d in %s", ErrMarkerNotFound, line, doc.resultPath)
	}
	return Location{Path: doc.resultPath, Line: resultLine}, nil
}

// GoToSQL maps a physical line of a result file to the SQL line recorded
// by the nearest marker at or above it
func (p *Provider) GoToSQL(resultPath string, physicalLine int) (Location, error) {
	sqlPath := p.SQLFilePath(resultPath)
	if _, err := p.readFile(sqlPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Location{}, fmt.Errorf("%w: %s", ErrSQLFileNotFound, sqlPath)
		}
		return Location{}, fmt.Errorf("failed to read sql file %s: %w", sqlPath, err)
	}

	content, err := p.readFile(resultPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Location{}, fmt.Errorf("%w: %s", ErrResultFileNotFound, resultPath)
		}
		return Location{}, fmt.Errorf("failed to read result file %s: %w", resultPath, err)
	}

	marker, ok := parser.MarkerAt(string(content), physicalLine)
	if !ok {
		return Location{}, fmt.Errorf("%w at or above line %d in %s", ErrMarkerNotFound, physicalLine, resultPath)
	}
	return Location{Path: sqlPath, Line: marker.SourceLine}, nil
}

// Invalidate drops the cached parse for a SQL file or its result file
func (p *Provider) Invalidate(path string) {
	sqlPath := path
	if p.IsResultFile(path) {
		sqlPath = p.SQLFilePath(path)
	}
	p.cache.Delete(cacheKey(sqlPath))
	p.log.Debug("invalidated cached result file", zap.String("sql", cacheKey(sqlPath)))
}

// CachedFiles returns the number of result files currently cached
func (p *Provider) CachedFiles() int {
	return p.cache.Len()
}

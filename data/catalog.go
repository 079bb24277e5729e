package data

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/evdnx/gosafe/config"
	"github.com/evdnx/gosafe/types"
)

// ErrFileNotFound is returned when no dataset directory holds a symbol's file.
var ErrFileNotFound = errors.New("price file not found")

// Catalog maps symbols to price files. The symbol is the file name without
// its .csv extension and is fixed when the catalog is built.
type Catalog struct {
	dirs  []string
	paths map[string]string
}

// NewCatalog returns a catalog that resolves symbols against the primary
// root and then each alternate directory, in order.
func NewCatalog(ds config.Dataset) *Catalog {
	dirs := make([]string, 0, 1+len(ds.Alternates))
	if ds.Root != "" {
		dirs = append(dirs, ds.Root)
	}
	dirs = append(dirs, ds.Alternates...)
	return &Catalog{dirs: dirs, paths: make(map[string]string)}
}

// Discover walks the primary root recursively and indexes every *.csv file.
// When two files share a stem the first in lexical path order wins.
func (c *Catalog) Discover() error {
	if len(c.dirs) == 0 {
		return fmt.Errorf("%w: no dataset root", config.ErrInvalidConfiguration)
	}
	return filepath.WalkDir(c.dirs[0], func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".csv") {
			return nil
		}
		sym := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		if _, dup := c.paths[sym]; !dup {
			c.paths[sym] = path
		}
		return nil
	})
}

// Symbols returns every discovered symbol, sorted.
func (c *Catalog) Symbols() []string {
	out := make([]string, 0, len(c.paths))
	for sym := range c.paths {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the file for symbol: the discovered path when it still
// exists, otherwise <dir>/<symbol>.csv for the first directory that has it.
func (c *Catalog) Resolve(symbol string) (string, error) {
	if p, ok := c.paths[symbol]; ok && fileExists(p) {
		return p, nil
	}
	for _, dir := range c.dirs {
		p := filepath.Join(dir, symbol+".csv")
		if fileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s (searched %s)", ErrFileNotFound, symbol, strings.Join(c.dirs, ", "))
}

// Load reads symbol's bars within [from, to].
func (c *Catalog) Load(symbol string, from, to time.Time) (types.Instrument, error) {
	path, err := c.Resolve(symbol)
	if err != nil {
		return types.Instrument{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return types.Instrument{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	bars, err := ReadBars(f, path, from, to)
	if err != nil {
		return types.Instrument{}, err
	}
	return types.Instrument{Symbol: symbol, Bars: bars}, nil
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

package optimize

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/evdnx/gosafe/config"
)

// ResultLog appends one line per promoted configuration.
type ResultLog struct {
	path string
}

func NewResultLog(path string) *ResultLog { return &ResultLog{path: path} }

func (l *ResultLog) Path() string { return l.path }

// FormatLine renders "SYM1,SYM2<TAB>v1<TAB>...<TAB>v5" in parameter field order.
func FormatLine(symbols []string, p config.StrategyParameters) string {
	var b strings.Builder
	b.WriteString(strings.Join(symbols, ","))
	for _, v := range p.Values() {
		b.WriteByte('\t')
		b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	}
	return b.String()
}

// Append writes one line, creating the file when needed.
func (l *ResultLog) Append(symbols []string, p config.StrategyParameters) error {
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open result log: %w", err)
	}
	if _, err := f.WriteString(FormatLine(symbols, p) + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("write result log: %w", err)
	}
	return f.Close()
}

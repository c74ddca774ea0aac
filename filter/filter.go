package filter

import (
	"strings"

	"github.com/s0up4200/webmodes/qbittorrent"
)

// matchAll is used for an empty expression
type matchAll struct{}

func (matchAll) Evaluate(*qbittorrent.TorrentInfo) bool { return true }
func (matchAll) Expression() string                    { return "" }

// Parse compiles expression with compiler. An empty expression matches
// every torrent.
func Parse(compiler Compiler, expression string) (CompiledFilter, error) {
	if strings.TrimSpace(expression) == "" {
		return matchAll{}, nil
	}
	return compiler.Compile(expression)
}

package logging

import (
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

const root = "genelab"

// Configure sets the global verbosity (0 quiet, 1 info, 2 debug) and an
// optional log file path; an empty path logs to stderr.
func Configure(verbosity int, path string) {
	if path == "" {
		commonlog.Configure(verbosity, nil)
		return
	}
	commonlog.Configure(verbosity, &path)
}

// Get returns the named logger under the genelab root.
func Get(name string) commonlog.Logger {
	if name == "" {
		return commonlog.GetLogger(root)
	}
	return commonlog.GetLogger(root + "." + name)
}

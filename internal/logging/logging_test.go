package logging

import (
	"path/filepath"
	"testing"
)

func TestGetReturnsNamedLoggers(t *testing.T) {
	Configure(0, "")
	if Get("evo") == nil {
		t.Fatal("expected evo logger")
	}
	if Get("") == nil {
		t.Fatal("expected root logger")
	}
}

func TestConfigureWithPath(t *testing.T) {
	Configure(2, filepath.Join(t.TempDir(), "genelab.log"))
	t.Cleanup(func() { Configure(0, "") })
	Get("test").Debugf("debug line %d", 1)
}

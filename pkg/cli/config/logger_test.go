package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/secmon-lab/docrev/pkg/cli/config"
)

func TestLoggerConfigure(t *testing.T) {
	t.Run("valid settings", func(t *testing.T) {
		closer, err := config.NewLoggerForTest("debug", "json", "-").Configure()
		gt.NoError(t, err).Required()
		closer()
	})

	t.Run("invalid level is rejected", func(t *testing.T) {
		_, err := config.NewLoggerForTest("verbose", "console", "-").Configure()
		gt.Error(t, err)
	})

	t.Run("invalid format is rejected", func(t *testing.T) {
		_, err := config.NewLoggerForTest("info", "xml", "-").Configure()
		gt.Error(t, err)
	})

	t.Run("file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "docrev.log")
		closer, err := config.NewLoggerForTest("info", "json", path).Configure()
		gt.NoError(t, err).Required()
		closer()

		_, err = os.Stat(path)
		gt.NoError(t, err)
	})
}

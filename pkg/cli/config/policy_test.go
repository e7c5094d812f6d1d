package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/secmon-lab/docrev/pkg/cli/config"
	"github.com/secmon-lab/docrev/pkg/service/recall"
)

func writePolicyFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.toml")
	gt.NoError(t, os.WriteFile(path, []byte(body), 0o644)).Required()
	return path
}

func TestPolicyConfigure(t *testing.T) {
	t.Run("defaults without a file", func(t *testing.T) {
		policy, err := config.NewPolicyForTest("").Configure()
		gt.NoError(t, err).Required()
		gt.Value(t, policy).Equal(recall.DefaultPolicy())
	})

	t.Run("file overrides the knobs", func(t *testing.T) {
		path := writePolicyFile(t, `
[recall]
recent_messages = 5
semantic_top_k = 0
neighbors_before = 0
neighbors_after = 0
`)

		policy, err := config.NewPolicyForTest(path).Configure()
		gt.NoError(t, err).Required()
		gt.Value(t, policy.RecentMessages).Equal(5)
		gt.Value(t, policy.SemanticTopK).Equal(0)
	})

	t.Run("partial file keeps defaults for unset knobs", func(t *testing.T) {
		path := writePolicyFile(t, `
[recall]
recent_messages = 7
`)

		policy, err := config.NewPolicyForTest(path).Configure()
		gt.NoError(t, err).Required()
		gt.Value(t, policy.RecentMessages).Equal(7)
		gt.Value(t, policy.SemanticTopK).Equal(recall.DefaultPolicy().SemanticTopK)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		path := writePolicyFile(t, `
[recall]
recent_messages = 0
`)

		_, err := config.NewPolicyForTest(path).Configure()
		gt.Error(t, err)
	})

	t.Run("broken TOML is rejected", func(t *testing.T) {
		path := writePolicyFile(t, `[recall`)

		_, err := config.NewPolicyForTest(path).Configure()
		gt.Error(t, err)
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, err := config.NewPolicyForTest(filepath.Join(t.TempDir(), "absent.toml")).Configure()
		gt.Error(t, err)
	})
}

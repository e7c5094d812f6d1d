package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/docrev/pkg/service/recall"
)

// Policy holds CLI flags for memory retrieval tuning. The knobs are
// loaded from a TOML file so deployments can adjust retrieval volume
// without a rebuild.
type Policy struct {
	path string
}

type policyFile struct {
	Recall recallSection `toml:"recall"`
}

type recallSection struct {
	RecentMessages  int `toml:"recent_messages"`
	SemanticTopK    int `toml:"semantic_top_k"`
	NeighborsBefore int `toml:"neighbors_before"`
	NeighborsAfter  int `toml:"neighbors_after"`
}

func (s *recallSection) validate() error {
	if s.RecentMessages < 1 {
		return goerr.New("recent_messages must be at least 1", goerr.V("value", s.RecentMessages))
	}
	if s.SemanticTopK < 0 {
		return goerr.New("semantic_top_k must not be negative", goerr.V("value", s.SemanticTopK))
	}
	if s.NeighborsBefore < 0 {
		return goerr.New("neighbors_before must not be negative", goerr.V("value", s.NeighborsBefore))
	}
	if s.NeighborsAfter < 0 {
		return goerr.New("neighbors_after must not be negative", goerr.V("value", s.NeighborsAfter))
	}
	return nil
}

// Flags returns CLI flags for policy configuration
func (p *Policy) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "policy",
			Usage:       "Path to a TOML file tuning memory retrieval",
			Sources:     cli.EnvVars("DOCREV_POLICY"),
			Destination: &p.path,
		},
	}
}

// Configure returns the retrieval policy. Without a policy file the
// built-in defaults apply.
func (p *Policy) Configure() (recall.Policy, error) {
	policy := recall.DefaultPolicy()
	if p.path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		return policy, goerr.Wrap(err, "failed to read policy file", goerr.V("path", p.path))
	}

	file := policyFile{
		Recall: recallSection{
			RecentMessages:  policy.RecentMessages,
			SemanticTopK:    policy.SemanticTopK,
			NeighborsBefore: policy.NeighborsBefore,
			NeighborsAfter:  policy.NeighborsAfter,
		},
	}
	if err := toml.Unmarshal(data, &file); err != nil {
		return policy, goerr.Wrap(err, "failed to parse policy file", goerr.V("path", p.path))
	}
	if err := file.Recall.validate(); err != nil {
		return policy, goerr.Wrap(err, "invalid policy file", goerr.V("path", p.path))
	}

	return recall.Policy{
		RecentMessages:  file.Recall.RecentMessages,
		SemanticTopK:    file.Recall.SemanticTopK,
		NeighborsBefore: file.Recall.NeighborsBefore,
		NeighborsAfter:  file.Recall.NeighborsAfter,
	}, nil
}

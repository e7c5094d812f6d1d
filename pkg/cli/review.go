package cli

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/docrev/pkg/cli/config"
	"github.com/secmon-lab/docrev/pkg/repository/memory"
	"github.com/secmon-lab/docrev/pkg/usecase"
)

func cmdReview() *cli.Command {
	var geminiCfg config.Gemini

	return &cli.Command{
		Name:      "review",
		Aliases:   []string{"r"},
		Usage:     "Review a single document and print the result",
		ArgsUsage: "<file>",
		Flags:     geminiCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			path := c.Args().First()
			if path == "" {
				return goerr.New("document file path is required")
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return goerr.Wrap(err, "failed to read document", goerr.V("path", path))
			}

			llmClient, err := geminiCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize Gemini client")
			}
			if llmClient == nil {
				return goerr.New("gemini-project is required for review generation")
			}

			// One-shot: no conversation memory, so the in-memory
			// backend is enough
			uc := usecase.New(memory.New(), llmClient)

			output, err := uc.Workflow.RunReview(ctx, encodeDocument(path, data))
			if err != nil {
				return goerr.Wrap(err, "review failed")
			}

			fmt.Println(output)
			return nil
		},
	}
}

// encodeDocument prepares file contents for the review workflow.
// Text files go in as-is; binary documents are wrapped in a base64
// data URI so the CLI path shares the extraction pipeline with chat
// attachments.
func encodeDocument(path string, data []byte) string {
	mediaType, _, _ := strings.Cut(mime.TypeByExtension(filepath.Ext(path)), ";")
	if mediaType == "" || strings.HasPrefix(mediaType, "text/") {
		return string(data)
	}
	return fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(data))
}

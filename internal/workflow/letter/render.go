package letter

import (
	"encoding/json"
	"fmt"

	"github.com/actionplanner/launchkit/internal/codec"
	"github.com/actionplanner/launchkit/internal/domain"
)

// Renderer exports the final letter and blog texts plus a small metadata
// file. Markdown is tidied for publication on the way out.
type Renderer struct{}

func (Renderer) RenderAssets(run *domain.PipelineRun) (map[string]string, error) {
	raw := run.Handoff("produce")
	if raw == nil {
		return nil, fmt.Errorf("run %s has no produce output", run.ID)
	}

	var assets FinalAssets
	if err := json.Unmarshal(raw, &assets); err != nil {
		return nil, fmt.Errorf("decode produce output: %w", err)
	}

	files := map[string]string{
		"meta.txt": fmt.Sprintf("Topic: %s\nGenerated: %s\n",
			orNA(run.Params["topic"]), run.CreatedAt.Format(dateLayout)),
	}
	if letter := codec.TidyMarkdown(assets.LetterContent); letter != "" {
		files["research_letter.md"] = letter
	}
	if blog := codec.TidyMarkdown(assets.BlogContent); blog != "" {
		files["blog_post.md"] = blog
	}
	return files, nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

package extract

import (
	"fmt"
	"strings"

	"github.com/ppiankov/strata/internal/model"
)

// SystemPrompt frames every analysis request
const SystemPrompt = "You are a senior technology strategist analyzing breaking developments. " +
	"You answer with a single JSON object that follows the requested format exactly."

const outputFormat = `{
  "title": string,            // the story title, exactly as provided
  "category": string,         // the story's actual domain
  "scores": {
    "impact": number,         // 0-1
    "timing": number,         // 0-1
    "players": number,        // 0-1
    "precedent": number       // 0-1
  },
  "compositeScore": number,   // 0-1
  "takeaway": string,         // one short sentence
  "breakdown": {
    "what": string,
    "whyItMatters": string,
    "timing": string,
    "implications": string,
    "connected": [string]     // concepts specific to this story
  }
}`

// BuildPrompt renders the instruction template for one story
func BuildPrompt(story model.RawStory) string {
	var b strings.Builder

	b.WriteString("STRICT REQUIREMENTS:\n")
	b.WriteString("1. Keep the original story title exactly as provided.\n")
	b.WriteString("2. Category MUST match the story's actual domain (biotech, government, toys, AI safety, etc.), not a generic \"AI\" label.\n")
	b.WriteString("3. The analysis must be SPECIFIC to this exact story. No generic AI education responses.\n")
	b.WriteString("4. Score each dimension independently on a scale from 0 to 1.\n\n")

	b.WriteString("OUTPUT FORMAT:\n")
	b.WriteString(outputFormat)
	b.WriteString("\n\n")

	b.WriteString("STORY TO ANALYZE:\n")
	fmt.Fprintf(&b, "Title: %s\n", story.Title)
	fmt.Fprintf(&b, "Summary: %s\n\n", story.Summary)

	b.WriteString("ANALYSIS GUIDELINES:\n")
	b.WriteString("- Impact: How transformative is this development? (0-1)\n")
	b.WriteString("- Timing: How imminent is the impact? (0-1)\n")
	b.WriteString("- Players: How many major actors are involved? (0-1)\n")
	b.WriteString("- Precedent: How novel is this development? (0-1)\n")
	b.WriteString("- Connected concepts: highly specific to this story\n")

	return b.String()
}

package jobs

import (
	"fmt"
	"strings"

	"github.com/yungbote/fieldlog-backend/internal/clients/pokeapi"
)

// Default prompt templates. Operators can override either one through the
// prompts table; the engine treats stored content as opaque and appends the
// entry data below it.

const defaultSummaryPrompt = `You are a seasoned field researcher writing a travel log.
Write a vivid two-to-three sentence field log entry about the creature described below,
as if you just observed it in the wild. Mention where you found it and one striking
behavior. Do not use bullet points or headings.`

const defaultTTSPrompt = `Read the following field log entries aloud in a calm,
documentary narration style. Leave a long pause between entries.`

// pauseMarker separates entries in the combined TTS prompt so the synthesized
// audio carries a silence gap the splitter can find.
const pauseMarker = "\n\n[long pause]\n\n"

func buildSummaryPrompt(template string, d *pokeapi.Details, region string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(template))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Entry #%d: %s\n", d.ID, d.Name)
	if d.Genus != "" {
		fmt.Fprintf(&b, "Genus: %s\n", d.Genus)
	}
	if len(d.Types) > 0 {
		fmt.Fprintf(&b, "Types: %s\n", strings.Join(d.Types, ", "))
	}
	if d.Habitat != "" {
		fmt.Fprintf(&b, "Habitat: %s\n", d.Habitat)
	}
	if region != "" {
		fmt.Fprintf(&b, "Region: %s\n", region)
	}
	if d.FlavorText != "" {
		fmt.Fprintf(&b, "Reference notes: %s\n", d.FlavorText)
	}
	return b.String()
}

func buildTTSPrompt(template string, entries []BatchEntry) string {
	texts := make([]string, 0, len(entries))
	for _, e := range entries {
		texts = append(texts, strings.TrimSpace(e.Text))
	}
	return strings.TrimSpace(template) + "\n\n" + strings.Join(texts, pauseMarker)
}

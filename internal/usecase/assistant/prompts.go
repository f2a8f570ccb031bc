package assistant

import (
	"fmt"
	"strings"
)

const suggestSystem = `You are an SEO keyword researcher. Reply with JSON only.`

const clusterSystem = `You group search keywords into semantic topic clusters. Reply with JSON only.`

const personaSystem = `You write concise audience personas for SEO content planning. Reply with JSON only.`

func suggestPrompt(query, region, language string, count int) string {
	return fmt.Sprintf(`Suggest %d search keywords related to the seed query below.
Prefer phrases people actually type into a search engine in region %q and language %q.
Do not repeat the seed query.

Seed query: %s

Respond as {"keywords": ["...", "..."]}.`, count, region, language, query)
}

func clusterPrompt(keywords []string) string {
	return fmt.Sprintf(`Group the keywords below into topic clusters by search intent.
Every keyword must appear in exactly one cluster. Name each cluster with a short descriptive label.
Use only keywords from the list, spelled exactly as given.

Keywords:
%s

Respond as {"clusters": {"<cluster name>": ["keyword", "..."]}}.`, bulletList(keywords))
}

func personaPrompt(clusterName string, keywords []string) string {
	return fmt.Sprintf(`Describe the audience that searches for the keywords of the topic cluster %q.
Write two or three sentences covering who they are, what they want and what blocks them.

Keywords:
%s

Respond as {"description": "..."}.`, clusterName, bulletList(keywords))
}

func bulletList(items []string) string {
	var b strings.Builder
	for _, it := range items {
		b.WriteString("- ")
		b.WriteString(it)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

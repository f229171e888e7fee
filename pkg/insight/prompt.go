package insight

import (
	"fmt"
	"strings"

	"subsight/pkg/types"
)

const (
	// Body text is hard-truncated before it enters the prompt so long posts
	// cannot crowd out the rest of the context.
	postBodyLimit    = 200
	commentBodyLimit = 150

	// At most this many comments make it into the context block.
	maxContextComments = 50

	// Only the most recent turns are replayed to the model.
	historyWindow = 6
)

const ellipsis = "..."

const systemPrompt = `You are a Reddit Insights Assistant designed specifically for entrepreneurs, founders, and business enthusiasts. Your role is to analyze Reddit data and provide actionable insights for:

1. BUSINESS OPPORTUNITIES: Identify potential SaaS ideas, product opportunities, and market gaps
2. LEAD GENERATION: Spot potential customers, partners, or collaboration opportunities
3. MARKET RESEARCH: Understand pain points, trends, and user behavior
4. COMPETITIVE ANALYSIS: Identify competitors and market positioning opportunities

ANALYSIS GUIDELINES:
- Focus on actionable business insights and opportunities
- Identify recurring pain points that could become product ideas
- Highlight potential customer segments and their needs
- Point out market trends and emerging opportunities
- Suggest specific business ideas with rationale
- Always cite specific posts/comments when making claims
- Be concise but thorough in your analysis

RESPONSE FORMAT:
- Use clear sections and bullet points
- Include specific examples from the data
- Provide actionable recommendations
- Cite sources using post titles or comment snippets
- Keep responses focused on business value

Remember: You're helping entrepreneurs make data-driven decisions about business opportunities.`

// truncate hard-caps s at limit characters, appending an ellipsis marker
// when anything was cut.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + ellipsis
}

// buildContext renders a snapshot into the analysis context block: subreddit
// summary, every post, then the first maxContextComments comments.
func buildContext(snap *types.Snapshot) string {
	var b strings.Builder
	sub := snap.Subreddit

	b.WriteString("SUBREDDIT ANALYSIS CONTEXT:\n\n")
	fmt.Fprintf(&b, "Subreddit: r/%s\n", sub.DisplayName)
	fmt.Fprintf(&b, "Subscribers: %d\n", sub.Subscribers)
	fmt.Fprintf(&b, "Active Users: %d\n", sub.ActiveUserCount)
	fmt.Fprintf(&b, "Description: %s\n\n", sub.PublicDescription)

	fmt.Fprintf(&b, "TOP POSTS (%d):\n", len(snap.Posts))
	for i, post := range snap.Posts {
		fmt.Fprintf(&b, "%d. \"%s\" by u/%s\n", i+1, post.Title, post.Author)
		fmt.Fprintf(&b, "   Score: %d, Comments: %d\n", post.Score, post.NumComments)
		if post.SelfText != "" {
			fmt.Fprintf(&b, "   Content: %s\n", truncate(post.SelfText, postBodyLimit))
		}
		fmt.Fprintf(&b, "   URL: %s\n\n", post.URL)
	}

	comments := snap.Comments
	if len(comments) > maxContextComments {
		comments = comments[:maxContextComments]
	}
	fmt.Fprintf(&b, "TOP COMMENTS (%d):\n", len(snap.Comments))
	for i, comment := range comments {
		fmt.Fprintf(&b, "%d. u/%s (Score: %d): %s\n\n",
			i+1, comment.Author, comment.Score, truncate(comment.Body, commentBodyLimit))
	}

	return b.String()
}

// buildPrompt assembles the single prompt sent to the model: preamble,
// context block, recent history, then the user's question.
func buildPrompt(question string, snap *types.Snapshot, history []types.Message) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\n")
	b.WriteString(buildContext(snap))

	if len(history) > 0 {
		b.WriteString("\nPREVIOUS CONVERSATION:\n")
		start := len(history) - historyWindow
		if start < 0 {
			start = 0
		}
		for _, msg := range history[start:] {
			fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(string(msg.Role)), msg.Content)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "USER QUESTION: %s\n\nProvide a detailed analysis focusing on business opportunities and actionable insights:", question)
	return b.String()
}

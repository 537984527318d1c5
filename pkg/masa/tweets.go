package masa

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Tweet is one live search hit.
type Tweet struct {
	ID         json.Number   `json:"ID"`
	ExternalID string        `json:"ExternalID"`
	Content    string        `json:"Content"`
	Metadata   TweetMetadata `json:"Metadata"`
	Score      float64       `json:"Score"`
}

// TweetMetadata carries author and engagement details.
type TweetMetadata struct {
	Author            string        `json:"author"`
	ConversationID    string        `json:"conversation_id"`
	CreatedAt         string        `json:"created_at"`
	Lang              string        `json:"lang"`
	PossiblySensitive bool          `json:"possibly_sensitive"`
	PublicMetrics     PublicMetrics `json:"public_metrics"`
	TweetID           json.Number   `json:"tweet_id"`
	UserID            string        `json:"user_id"`
	Username          string        `json:"username"`
}

// PublicMetrics are the engagement counters of a tweet.
type PublicMetrics struct {
	BookmarkCount   int `json:"BookmarkCount"`
	ImpressionCount int `json:"ImpressionCount"`
	LikeCount       int `json:"LikeCount"`
	QuoteCount      int `json:"QuoteCount"`
	ReplyCount      int `json:"ReplyCount"`
	RetweetCount    int `json:"RetweetCount"`
}

// FormatTweet renders one tweet as a block terminated by a separator.
func FormatTweet(t Tweet) string {
	m := t.Metadata.PublicMetrics
	return fmt.Sprintf("Tweet ID: %s\nDate: %s\nEngagement: Likes: %d | Retweets: %d | Replies: %d\nContent: %s\n\n---\n",
		t.ID, t.Metadata.CreatedAt, m.LikeCount, m.RetweetCount, m.ReplyCount, t.Content)
}

// FormatSearchResult renders the tweets of a job as the text the analysis
// resource expects: a short header with both queries and the tweet count,
// then every tweet.
func FormatSearchResult(originalQuery, optimizedQuery string, tweets []Tweet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "- **Original Query**: \"%s\"\n- **Optimized Query**: \"%s\"\n- **Total Tweets**: %d\n\n\n---\n\n",
		originalQuery, optimizedQuery, len(tweets))
	for _, t := range tweets {
		b.WriteString(FormatTweet(t))
	}
	return b.String()
}

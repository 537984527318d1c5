package masa

import (
	"context"
	"fmt"
	"strings"
)

// Sentiment is the outcome of the full search and analysis pipeline.
type Sentiment struct {
	Token      string `json:"token"`
	Prompt     string `json:"prompt"`
	SearchTerm string `json:"search_term"`
	JobID      string `json:"job_id"`
	TweetCount int    `json:"tweet_count"`
	Analysis   string `json:"analysis"`
	Thinking   string `json:"thinking,omitempty"`
}

// SentimentPrompt is the question asked about a token.
func SentimentPrompt(token string) string {
	return fmt.Sprintf("What is the current sentiment on X about %s?", token)
}

// SentimentForToken runs extraction, live search, polling, result retrieval
// and analysis for one token. An empty extracted term falls back to the
// token itself.
func (c *Client) SentimentForToken(ctx context.Context, token string) (*Sentiment, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrEmptyQuery
	}
	prompt := SentimentPrompt(token)

	ext, err := c.Extract(ctx, prompt)
	if err != nil {
		return nil, err
	}
	term := ext.SearchTerm
	if term == "" {
		term = token
	}

	jobID, err := c.SearchLive(ctx, term, c.maxResults)
	if err != nil {
		return nil, err
	}
	if err := c.WaitForJob(ctx, jobID); err != nil {
		return nil, err
	}

	tweets, err := c.Results(ctx, jobID)
	if err != nil {
		return nil, err
	}

	analysis, err := c.Analyze(ctx, FormatSearchResult(prompt, term, tweets), prompt)
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("token", token).
		Str("search_term", term).
		Str("job_id", jobID).
		Int("tweets", len(tweets)).
		Msg("Sentiment analysis complete")

	return &Sentiment{
		Token:      token,
		Prompt:     prompt,
		SearchTerm: term,
		JobID:      jobID,
		TweetCount: len(tweets),
		Analysis:   analysis.Analysis,
		Thinking:   analysis.Thinking,
	}, nil
}

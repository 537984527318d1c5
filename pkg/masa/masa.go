// Package masa drives the Masa Data social search API: extract a search
// term from a question, run a live X/Twitter search job, poll it to
// completion, fetch the tweets and have them analyzed.
//
// All requests go through a pagination.Executor, normally a *client.Client
// configured for bearer auth. Status polls bypass the response cache.
package masa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Sternrassler/tmai-client/pkg/client"
	"github.com/Sternrassler/tmai-client/pkg/pagination"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the Masa Data API root.
const DefaultBaseURL = "https://data.dev.masalabs.ai/api/v1"

// Resource paths.
const (
	EndpointExtraction = "search/extraction"
	EndpointLiveSearch = "search/live/twitter"
	EndpointAnalysis   = "search/analysis"
)

// Job polling defaults.
const (
	DefaultMaxPolls     = 10
	DefaultPollInterval = 5 * time.Second
	DefaultMaxResults   = 10

	// SearchTypeQuery is the only live search type used.
	SearchTypeQuery = "searchbyquery"
)

// Job states reported by the status resource.
const (
	StatusDone  = "done"
	StatusError = "error"
)

var (
	// ErrJobFailed is returned when the search job reports an error state.
	ErrJobFailed = errors.New("search job failed")

	// ErrJobTimeout is returned when a job is not done after MaxPolls checks.
	ErrJobTimeout = errors.New("search job did not finish in time")

	// ErrInvalidJobID is returned for job ids that are not UUIDs.
	ErrInvalidJobID = errors.New("invalid job id")

	// ErrEmptyQuery is returned for blank inputs and queries.
	ErrEmptyQuery = errors.New("query is required")
)

var (
	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tmai_search_jobs_total",
		Help: "Live search jobs by final outcome",
	}, []string{"outcome"})

	jobPolls = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tmai_search_job_polls",
		Help:    "Status checks needed per live search job",
		Buckets: []float64{1, 2, 3, 5, 8, 10},
	})
)

// Extraction is the search term derived from a free-text question.
type Extraction struct {
	SearchTerm string `json:"searchTerm"`
	Thinking   string `json:"thinking"`
}

// JobStatus is the state of a live search job.
type JobStatus struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Analysis is the model's reading of a set of tweets.
type Analysis struct {
	Thinking string `json:"thinking"`
	Analysis string `json:"analysis"`
}

// Client talks to the Masa Data API.
type Client struct {
	exec         pagination.Executor
	maxPolls     int
	pollInterval time.Duration
	maxResults   int
	logger       zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithMaxPolls sets how many status checks WaitForJob makes.
func WithMaxPolls(n int) Option {
	return func(c *Client) { c.maxPolls = n }
}

// WithPollInterval sets the pause between status checks.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// WithMaxResults sets the tweet count requested by SentimentForToken.
func WithMaxResults(n int) Option {
	return func(c *Client) { c.maxResults = n }
}

// WithLogger replaces the component logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a Client on top of exec.
func New(exec pagination.Executor, opts ...Option) *Client {
	c := &Client{
		exec:         exec,
		maxPolls:     DefaultMaxPolls,
		pollInterval: DefaultPollInterval,
		maxResults:   DefaultMaxResults,
		logger:       log.With().Str("component", "masa").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxPolls < 1 {
		c.maxPolls = 1
	}
	if c.maxResults < 1 {
		c.maxResults = DefaultMaxResults
	}
	return c
}

// Extract turns a question into an optimized search term.
func (c *Client) Extract(ctx context.Context, userInput string) (*Extraction, error) {
	if userInput == "" {
		return nil, ErrEmptyQuery
	}
	var out Extraction
	if err := c.call(ctx, http.MethodPost, EndpointExtraction, pagination.Params{"userInput": userInput}, &out); err != nil {
		return nil, fmt.Errorf("extract search term: %w", err)
	}
	return &out, nil
}

// SearchLive submits a live search job and returns its id.
func (c *Client) SearchLive(ctx context.Context, query string, maxResults int) (string, error) {
	if query == "" {
		return "", ErrEmptyQuery
	}
	if maxResults < 1 {
		maxResults = c.maxResults
	}

	var out struct {
		UUID  string `json:"uuid"`
		Error string `json:"error"`
	}
	params := pagination.Params{
		"query":       query,
		"type":        SearchTypeQuery,
		"max_results": maxResults,
	}
	if err := c.call(ctx, http.MethodPost, EndpointLiveSearch, params, &out); err != nil {
		return "", fmt.Errorf("submit search: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("submit search: %s", out.Error)
	}
	if err := ValidateJobID(out.UUID); err != nil {
		return "", fmt.Errorf("submit search: %w", err)
	}

	c.logger.Debug().Str("query", query).Str("job_id", out.UUID).Msg("Search job submitted")
	return out.UUID, nil
}

// Status fetches the current state of a job. The response is never cached.
func (c *Client) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	if err := ValidateJobID(jobID); err != nil {
		return nil, err
	}
	var out JobStatus
	if err := c.call(client.WithoutCache(ctx), http.MethodGet, statusPath(jobID), nil, &out); err != nil {
		return nil, fmt.Errorf("job status: %w", err)
	}
	return &out, nil
}

// WaitForJob polls Status until the job is done, failed, or MaxPolls checks
// have been made. It returns ErrJobFailed, ErrJobTimeout or the context error.
func (c *Client) WaitForJob(ctx context.Context, jobID string) error {
	logger := c.logger.With().Str("job_id", jobID).Logger()

	for poll := 1; poll <= c.maxPolls; poll++ {
		st, err := c.Status(ctx, jobID)
		if err != nil {
			return err
		}

		switch st.Status {
		case StatusDone:
			jobsTotal.WithLabelValues("done").Inc()
			jobPolls.Observe(float64(poll))
			logger.Debug().Int("polls", poll).Msg("Search job done")
			return nil
		case StatusError:
			jobsTotal.WithLabelValues("failed").Inc()
			jobPolls.Observe(float64(poll))
			logger.Warn().Str("error", st.Error).Msg("Search job failed")
			if st.Error != "" {
				return fmt.Errorf("%w: %s", ErrJobFailed, st.Error)
			}
			return ErrJobFailed
		}

		logger.Debug().Str("status", st.Status).Int("poll", poll).Msg("Search job in progress")
		if poll == c.maxPolls {
			break
		}

		timer := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			jobsTotal.WithLabelValues("cancelled").Inc()
			return fmt.Errorf("wait for job %s: %w", jobID, ctx.Err())
		case <-timer.C:
		}
	}

	jobsTotal.WithLabelValues("timeout").Inc()
	jobPolls.Observe(float64(c.maxPolls))
	logger.Warn().Int("polls", c.maxPolls).Msg("Search job timed out")
	return fmt.Errorf("%w: %s after %d checks", ErrJobTimeout, jobID, c.maxPolls)
}

// Results fetches the tweets of a finished job. Both a bare list and a
// {"data": [...]} envelope are accepted.
func (c *Client) Results(ctx context.Context, jobID string) ([]Tweet, error) {
	if err := ValidateJobID(jobID); err != nil {
		return nil, err
	}
	raw, err := c.exec.Call(ctx, http.MethodGet, resultPath(jobID), nil)
	if err != nil {
		return nil, fmt.Errorf("job results: %w", err)
	}
	if m, ok := raw.(map[string]any); ok {
		raw = m["data"]
	}
	if raw == nil {
		return []Tweet{}, nil
	}

	var tweets []Tweet
	if err := decode(raw, &tweets); err != nil {
		return nil, fmt.Errorf("decode job results: %w", err)
	}
	return tweets, nil
}

// Analyze asks the analysis model to answer prompt from formatted tweets.
func (c *Client) Analyze(ctx context.Context, tweets, prompt string) (*Analysis, error) {
	if prompt == "" {
		return nil, ErrEmptyQuery
	}
	var out Analysis
	params := pagination.Params{"tweets": tweets, "prompt": prompt}
	if err := c.call(ctx, http.MethodPost, EndpointAnalysis, params, &out); err != nil {
		return nil, fmt.Errorf("analyze tweets: %w", err)
	}
	return &out, nil
}

// ValidateJobID reports whether id is a UUID.
func ValidateJobID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidJobID, id, err)
	}
	return nil
}

func statusPath(jobID string) string {
	return EndpointLiveSearch + "/status/" + jobID
}

func resultPath(jobID string) string {
	return EndpointLiveSearch + "/result/" + jobID
}

func (c *Client) call(ctx context.Context, method, endpoint string, params pagination.Params, out any) error {
	raw, err := c.exec.Call(ctx, method, endpoint, params)
	if err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	return decode(raw, out)
}

func decode(raw any, out any) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

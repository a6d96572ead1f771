package codeforces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"cptracker/internal/common"
	"cptracker/internal/platform/config"
)

// Client talks to the Codeforces REST API. Every call is bounded by the
// configured request timeout; the API is treated as untrusted and
// occasionally failing.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient() *Client {
	return &Client{
		baseURL: config.AppConfig.CodeforcesBaseURL,
		httpClient: &http.Client{
			Timeout: config.AppConfig.CodeforcesTimeout,
		},
	}
}

// NewClientWith allows tests to point the client at a stub server.
func NewClientWith(baseURL string, httpClient *http.Client) *Client {
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// apiEnvelope is the fixed response shape of every Codeforces endpoint.
type apiEnvelope struct {
	Status  string          `json:"status"`
	Comment string          `json:"comment"`
	Result  json.RawMessage `json:"result"`
}

type UserInfo struct {
	Handle    string `json:"handle"`
	Rating    int    `json:"rating"`
	MaxRating int    `json:"maxRating"`
}

type RatingChange struct {
	ContestID               int64  `json:"contestId"`
	ContestName             string `json:"contestName"`
	Rank                    int    `json:"rank"`
	RatingUpdateTimeSeconds int64  `json:"ratingUpdateTimeSeconds"`
	OldRating               int    `json:"oldRating"`
	NewRating               int    `json:"newRating"`
}

type Submission struct {
	ID                  int64   `json:"id"`
	CreationTimeSeconds int64   `json:"creationTimeSeconds"`
	Verdict             string  `json:"verdict"`
	ProgrammingLanguage string  `json:"programmingLanguage"`
	TimeConsumedMillis  int     `json:"timeConsumedMillis"`
	MemoryConsumedBytes int64   `json:"memoryConsumedBytes"`
	Problem             Problem `json:"problem"`
}

type Problem struct {
	ContestID int64    `json:"contestId"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Rating    int      `json:"rating"`
	Points    float64  `json:"points"`
	Tags      []string `json:"tags"`
}

const VerdictAccepted = "OK"

// GetUserInfo fetches current and max rating for a handle.
func (c *Client) GetUserInfo(ctx context.Context, handle string) (*UserInfo, error) {
	var users []UserInfo
	params := url.Values{"handles": {handle}}
	if err := c.get(ctx, "user.info", params, &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user.info returned no results for %q: %w", handle, common.ErrNotFound)
	}
	return &users[0], nil
}

// GetUserRating fetches the full rating-change history for a handle, in
// chronological order.
func (c *Client) GetUserRating(ctx context.Context, handle string) ([]RatingChange, error) {
	var changes []RatingChange
	params := url.Values{"handle": {handle}}
	if err := c.get(ctx, "user.rating", params, &changes); err != nil {
		return nil, err
	}
	return changes, nil
}

// GetUserStatus fetches a window of the submission history for a handle.
// from is 1-based.
func (c *Client) GetUserStatus(ctx context.Context, handle string, from, count int) ([]Submission, error) {
	var subs []Submission
	params := url.Values{
		"handle": {handle},
		"from":   {fmt.Sprintf("%d", from)},
		"count":  {fmt.Sprintf("%d", count)},
	}
	if err := c.get(ctx, "user.status", params, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (c *Client) get(ctx context.Context, method string, params url.Values, result any) error {
	endpoint := c.baseURL + "/" + method + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("codeforces %s: %w", method, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return fmt.Errorf("codeforces %s: %w", method, common.ErrTimeout)
		}
		return fmt.Errorf("codeforces %s: %v: %w", method, err, common.ErrSyncFailure)
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("codeforces %s: malformed response: %w", method, common.ErrSyncFailure)
	}

	if envelope.Status != "OK" {
		if strings.Contains(strings.ToLower(envelope.Comment), "not found") {
			return fmt.Errorf("codeforces %s: %s: %w", method, envelope.Comment, common.ErrNotFound)
		}
		return fmt.Errorf("codeforces %s: %s: %w", method, envelope.Comment, common.ErrSyncFailure)
	}

	if err := json.Unmarshal(envelope.Result, result); err != nil {
		return fmt.Errorf("codeforces %s: malformed result: %w", method, common.ErrSyncFailure)
	}
	return nil
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

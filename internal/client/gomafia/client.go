package gomafia

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"mafiainsight/internal/syncerr"
)

const DefaultHost = "https://gomafia.pro"

type Client struct {
	host       string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gomafia error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host string) *Client {
	if host == "" {
		host = DefaultHost
	}
	host = strings.TrimRight(host, "/")
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		host:       host,
		httpClient: httpClient,
	}
}

func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.host + path
	if len(query) > 0 {
		fullURL = fullURL + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, syncerr.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "text/html,application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, syncerr.Transient(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, syncerr.Transient(fmt.Errorf("failed to read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode, Body: truncate(string(body), 200)}
		switch resp.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusGone:
			return nil, syncerr.Permanent(apiErr)
		default:
			return nil, syncerr.Transient(apiErr)
		}
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

// ListPlayers returns one page of the site-wide player rating listing.
// Pages are 1-based.
func (c *Client) ListPlayers(ctx context.Context, page, limit int) ([]PlayerSummary, error) {
	body, err := c.doRequest(ctx, "/rating", pageQuery(page, limit))
	if err != nil {
		return nil, err
	}
	return parsePlayerList(body)
}

func (c *Client) GetPlayer(ctx context.Context, id string) (*PlayerData, error) {
	if strings.TrimSpace(id) == "" {
		return nil, syncerr.Permanent(fmt.Errorf("player id is required"))
	}
	body, err := c.doRequest(ctx, "/stats/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return parsePlayer(body)
}

func (c *Client) ListClubs(ctx context.Context, page, limit int) ([]ClubSummary, error) {
	body, err := c.doRequest(ctx, "/clubs", pageQuery(page, limit))
	if err != nil {
		return nil, err
	}
	return parseClubList(body)
}

func (c *Client) GetClub(ctx context.Context, id string) (*ClubData, error) {
	if strings.TrimSpace(id) == "" {
		return nil, syncerr.Permanent(fmt.Errorf("club id is required"))
	}
	body, err := c.doRequest(ctx, "/club/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return parseClub(body)
}

func (c *Client) ListTournaments(ctx context.Context, page, limit int) ([]TournamentSummary, error) {
	body, err := c.doRequest(ctx, "/tournaments", pageQuery(page, limit))
	if err != nil {
		return nil, err
	}
	return parseTournamentList(body)
}

func (c *Client) GetTournament(ctx context.Context, id string) (*TournamentData, error) {
	if strings.TrimSpace(id) == "" {
		return nil, syncerr.Permanent(fmt.Errorf("tournament id is required"))
	}
	body, err := c.doRequest(ctx, "/tournament/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return parseTournament(body)
}

// ListGames returns all games of a tournament from its games tab.
func (c *Client) ListGames(ctx context.Context, tournamentID string) ([]GameData, error) {
	if strings.TrimSpace(tournamentID) == "" {
		return nil, syncerr.Permanent(fmt.Errorf("tournament id is required"))
	}
	body, err := c.doRequest(ctx, "/tournament/"+url.PathEscape(tournamentID)+"/games", nil)
	if err != nil {
		return nil, err
	}
	return parseGames(body, tournamentID)
}

// RetrySkippedPages re-fetches specific listing pages that were skipped
// during an earlier import pass. Pages that fail again are reported in the
// returned error while successful pages still yield records.
func (c *Client) RetrySkippedPages(ctx context.Context, entityType string, pages []int, opts RetryOptions) ([]RetriedRecord, error) {
	if len(pages) == 0 {
		return nil, syncerr.Permanent(fmt.Errorf("no pages to retry"))
	}

	var records []RetriedRecord
	var failed []string
	for _, page := range pages {
		recs, err := c.retryPage(ctx, entityType, page, opts)
		if err != nil {
			failed = append(failed, fmt.Sprintf("page %d: %v", page, err))
			continue
		}
		records = append(records, recs...)
	}
	if len(failed) > 0 {
		return records, fmt.Errorf("retry incomplete: %s", strings.Join(failed, "; "))
	}
	return records, nil
}

func (c *Client) retryPage(ctx context.Context, entityType string, page int, opts RetryOptions) ([]RetriedRecord, error) {
	switch entityType {
	case "player":
		q := pageQuery(page, 0)
		if opts.Year > 0 {
			q.Set("year", strconv.Itoa(opts.Year))
		}
		if opts.Region != "" {
			q.Set("region", opts.Region)
		}
		body, err := c.doRequest(ctx, "/rating", q)
		if err != nil {
			return nil, err
		}
		summaries, err := parsePlayerList(body)
		if err != nil {
			return nil, err
		}
		records := make([]RetriedRecord, 0, len(summaries))
		for _, s := range summaries {
			player, err := c.GetPlayer(ctx, s.ID)
			if err != nil {
				return records, err
			}
			records = append(records, RetriedRecord{EntityType: "player", Page: page, Player: player})
		}
		return records, nil
	case "club":
		q := pageQuery(page, 0)
		if opts.Region != "" {
			q.Set("region", opts.Region)
		}
		body, err := c.doRequest(ctx, "/clubs", q)
		if err != nil {
			return nil, err
		}
		summaries, err := parseClubList(body)
		if err != nil {
			return nil, err
		}
		records := make([]RetriedRecord, 0, len(summaries))
		for _, s := range summaries {
			club, err := c.GetClub(ctx, s.ID)
			if err != nil {
				return records, err
			}
			records = append(records, RetriedRecord{EntityType: "club", Page: page, Club: club})
		}
		return records, nil
	case "tournament":
		q := pageQuery(page, 0)
		if opts.TimeFilter != "" {
			q.Set("time", opts.TimeFilter)
		}
		body, err := c.doRequest(ctx, "/tournaments", q)
		if err != nil {
			return nil, err
		}
		summaries, err := parseTournamentList(body)
		if err != nil {
			return nil, err
		}
		records := make([]RetriedRecord, 0, len(summaries))
		for _, s := range summaries {
			t, err := c.GetTournament(ctx, s.ID)
			if err != nil {
				return records, err
			}
			records = append(records, RetriedRecord{EntityType: "tournament", Page: page, Tournament: t})
		}
		return records, nil
	default:
		return nil, syncerr.Permanent(fmt.Errorf("invalid entity type: %s", entityType))
	}
}

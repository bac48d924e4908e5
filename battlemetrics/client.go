package battlemetrics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bm-banbot/model"
	"bm-banbot/utils"
)

const (
	// DefaultBaseURL is the public BattleMetrics API.
	DefaultBaseURL = "https://api.battlemetrics.com"

	includeRelated = "server,player,banList,user"
	maxErrorBody   = 2048
)

// Client is a stateless BattleMetrics ban API client bound to one
// organization and ban list.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	organizationID string
	banListID      string
}

// NewClient creates a client. A nil httpClient uses utils.GlobalHTTPClient.
func NewClient(cfg model.BattleMetricsConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = utils.GlobalHTTPClient
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         cfg.APIKey,
		organizationID: cfg.OrganizationID,
		banListID:      cfg.BanListID,
	}
}

// LatestBan returns the most recent non-expired ban of the configured
// organization and ban list, or nil when the list is empty.
func (c *Client) LatestBan(ctx context.Context) (*model.BanRecord, error) {
	query := url.Values{}
	query.Set("include", includeRelated)
	query.Set("sort", "-timestamp")
	query.Set("filter[expired]", "false")
	query.Set("filter[organization]", c.organizationID)
	query.Set("filter[banList]", c.banListID)
	query.Set("page[size]", "1")

	var page model.BanPage
	if err := c.getJSON(ctx, "list bans", "/bans", query, &page); err != nil {
		return nil, err
	}
	if len(page.Data) == 0 {
		return nil, nil
	}
	ban := page.Data[0]
	ban.Included = page.Included
	return &ban, nil
}

// Ban fetches a single ban with its related records.
func (c *Client) Ban(ctx context.Context, banID string) (*model.BanRecord, error) {
	query := url.Values{}
	query.Set("include", includeRelated)

	var doc model.BanDocument
	if err := c.getJSON(ctx, "get ban", "/bans/"+url.PathEscape(banID), query, &doc); err != nil {
		return nil, err
	}
	ban := doc.Data
	ban.Included = doc.Included
	return &ban, nil
}

type banPatch struct {
	Data banPatchData `json:"data"`
}

type banPatchData struct {
	Type       string               `json:"type"`
	ID         string               `json:"id"`
	Attributes banPatchAttributeSet `json:"attributes"`
}

type banPatchAttributeSet struct {
	Expires string `json:"expires"`
}

// SetBanExpiry moves the expiration of a ban. 200 and 204 are success; any
// other status is returned as a *StatusError carrying the response body.
func (c *Client) SetBanExpiry(ctx context.Context, banID string, expires time.Time) error {
	payload, err := json.Marshal(banPatch{Data: banPatchData{
		Type:       "ban",
		ID:         banID,
		Attributes: banPatchAttributeSet{Expires: expires.UTC().Format(time.RFC3339)},
	}})
	if err != nil {
		return fmt.Errorf("failed to encode ban update: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPatch, "/bans/"+url.PathEscape(banID), nil, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("battlemetrics update ban %s: %w", banID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return statusError("update ban", resp)
}

// Validate checks the API key with a single-record request. The response must
// be 200 and carry a data member.
func (c *Client) Validate(ctx context.Context) error {
	query := url.Values{}
	query.Set("page[size]", "1")

	var probe struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.getJSON(ctx, "validate key", "/bans", query, &probe); err != nil {
		return err
	}
	if len(probe.Data) == 0 || string(probe.Data) == "null" {
		return fmt.Errorf("battlemetrics validate key: response missing 'data' field")
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out interface{}) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("battlemetrics %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(op, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("battlemetrics %s: failed to decode response: %w", op, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request %s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return req, nil
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}

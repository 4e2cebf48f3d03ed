// Package trello is a small read-only client for the Trello REST API.
package trello

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public Trello API root.
const DefaultBaseURL = "https://api.trello.com/1"

// APIError is returned for any non-200 response.
type APIError struct {
	Status int
	Path   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("trello: GET %s returned %d %s", e.Path, e.Status, http.StatusText(e.Status))
}

// Client fetches board and card data.
type Client struct {
	baseURL string
	key     string
	token   string
	http    *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at another API root, such as a test server.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		c.http = h
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http = &http.Client{Timeout: d}
	}
}

// NewClient creates a client authenticating with an API key and token.
func NewClient(key, token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		key:     key,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get issues an authenticated GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("key", c.key)
	params.Set("token", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode, Path: path}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// Cards returns every card of the board, archived ones included.
func (c *Client) Cards(ctx context.Context, boardID string) ([]Card, error) {
	var cards []Card
	params := url.Values{"filter": {"all"}, "customFieldItems": {"true"}}
	if err := c.get(ctx, "/boards/"+boardID+"/cards", params, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// Lists returns the board's columns.
func (c *Client) Lists(ctx context.Context, boardID string) ([]List, error) {
	var lists []List
	if err := c.get(ctx, "/boards/"+boardID+"/lists", url.Values{"filter": {"all"}}, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// Members returns the board's members.
func (c *Client) Members(ctx context.Context, boardID string) ([]Member, error) {
	var members []Member
	params := url.Values{"fields": {"id,username,fullName,initials"}}
	if err := c.get(ctx, "/boards/"+boardID+"/members", params, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// CustomFields returns the board's custom field definitions.
func (c *Client) CustomFields(ctx context.Context, boardID string) ([]CustomField, error) {
	var fields []CustomField
	if err := c.get(ctx, "/boards/"+boardID+"/customFields", nil, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// CardCustomFieldItems returns the custom field values set on a card.
func (c *Client) CardCustomFieldItems(ctx context.Context, cardID string) ([]CustomFieldItem, error) {
	var items []CustomFieldItem
	if err := c.get(ctx, "/cards/"+cardID+"/customFieldItems", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CardChecklists returns a card's checklists.
func (c *Client) CardChecklists(ctx context.Context, cardID string) ([]Checklist, error) {
	var checklists []Checklist
	if err := c.get(ctx, "/cards/"+cardID+"/checklists", nil, &checklists); err != nil {
		return nil, err
	}
	return checklists, nil
}

// CardComments returns a card's comments, newest first as Trello sends them.
func (c *Client) CardComments(ctx context.Context, cardID string) ([]Action, error) {
	var actions []Action
	params := url.Values{"filter": {"commentCard"}, "limit": {"1000"}}
	if err := c.get(ctx, "/cards/"+cardID+"/actions", params, &actions); err != nil {
		return nil, err
	}
	return actions, nil
}

// CardCreator returns the member who created the card. The zero Member is
// returned when the creation action is gone, which happens for cards
// copied or moved between boards.
func (c *Client) CardCreator(ctx context.Context, cardID string) (Member, error) {
	var actions []Action
	params := url.Values{"filter": {"createCard,copyCard,convertToCardFromCheckItem"}, "limit": {"1"}}
	if err := c.get(ctx, "/cards/"+cardID+"/actions", params, &actions); err != nil {
		return Member{}, err
	}
	if len(actions) == 0 {
		return Member{}, nil
	}
	creator := actions[0].MemberCreator
	if creator.ID == "" {
		creator.ID = actions[0].IDMemberCreator
	}
	return creator, nil
}

// CardAttachments returns a card's attachments, uploads and links alike.
func (c *Client) CardAttachments(ctx context.Context, cardID string) ([]Attachment, error) {
	var attachments []Attachment
	if err := c.get(ctx, "/cards/"+cardID+"/attachments", nil, &attachments); err != nil {
		return nil, err
	}
	return attachments, nil
}

// Download streams an uploaded attachment into w. Uploads are only served
// with the OAuth header, not with query credentials.
func (c *Client) Download(ctx context.Context, fileURL string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf(`OAuth oauth_consumer_key="%s", oauth_token="%s"`, c.key, c.token))

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to download %s: %w", fileURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &APIError{Status: resp.StatusCode, Path: req.URL.Path}
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to read %s: %w", fileURL, err)
	}
	return n, nil
}

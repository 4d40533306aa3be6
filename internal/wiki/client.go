// Package wiki resolves character names to their default-skin image URL using
// the MediaWiki query API.
package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
)

// DefaultAPIURL is the fandom wiki endpoint the catalog is resolved against.
const DefaultAPIURL = "https://brawlstars.fandom.com/api.php"

// Sentinel errors. Use errors.Is to check for them.
var (
	// ErrNotFound means the page lists no default-skin image. It is a normal
	// outcome, not a failure.
	ErrNotFound = errors.New("default skin not found")

	// ErrMissingImageInfo means the listing named a file but the image-info
	// lookup returned no URL for it.
	ErrMissingImageInfo = errors.New("image info missing for listed file")

	// ErrMalformed means the response did not have the expected shape.
	ErrMalformed = errors.New("malformed api response")
)

// Fetcher is the transport capability the client needs.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// APIError is a MediaWiki "error" object returned in place of a result.
type APIError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %s: %s", e.Code, e.Info)
}

// ImageList is the result of listing the files used on a page.
type ImageList struct {
	Titles []string
	// Incomplete is set when the API signalled more results behind a
	// continuation token. Continuations are not followed.
	Incomplete bool
}

type queryResponse struct {
	Error    *APIError       `json:"error,omitempty"`
	Continue json.RawMessage `json:"continue,omitempty"`
	Query    *struct {
		Pages map[string]page `json:"pages"`
	} `json:"query,omitempty"`
}

type page struct {
	Title  string `json:"title"`
	Images []struct {
		Title string `json:"title"`
	} `json:"images,omitempty"`
	ImageInfo []struct {
		URL string `json:"url"`
	} `json:"imageinfo,omitempty"`
}

// Client issues the two query shapes the resolver needs.
type Client struct {
	apiURL  string
	fetcher Fetcher
}

// NewClient creates a Client. If apiURL is empty, DefaultAPIURL is used.
func NewClient(apiURL string, fetcher Fetcher) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{apiURL: apiURL, fetcher: fetcher}
}

// ListImages returns the titles of all files used on the page titled title,
// in the order the API returned them.
func (c *Client) ListImages(ctx context.Context, title string) (*ImageList, error) {
	resp, err := c.query(ctx, url.Values{
		"titles":  {title},
		"prop":    {"images"},
		"imlimit": {"max"},
	})
	if err != nil {
		return nil, fmt.Errorf("list images for %q: %w", title, err)
	}

	p, ok := firstPage(resp)
	if !ok {
		return nil, fmt.Errorf("list images for %q: %w: no pages", title, ErrMalformed)
	}

	list := &ImageList{
		Titles:     make([]string, 0, len(p.Images)),
		Incomplete: len(resp.Continue) > 0,
	}
	for _, img := range p.Images {
		list.Titles = append(list.Titles, img.Title)
	}
	return list, nil
}

// ImageURL returns the direct URL of the file titled fileTitle.
func (c *Client) ImageURL(ctx context.Context, fileTitle string) (string, error) {
	resp, err := c.query(ctx, url.Values{
		"titles": {fileTitle},
		"prop":   {"imageinfo"},
		"iiprop": {"url"},
	})
	if err != nil {
		return "", fmt.Errorf("image info for %q: %w", fileTitle, err)
	}

	p, ok := firstPage(resp)
	if !ok || len(p.ImageInfo) == 0 || p.ImageInfo[0].URL == "" {
		return "", fmt.Errorf("image info for %q: %w", fileTitle, ErrMissingImageInfo)
	}
	return p.ImageInfo[0].URL, nil
}

func (c *Client) query(ctx context.Context, params url.Values) (*queryResponse, error) {
	u, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	params.Set("action", "query")
	params.Set("format", "json")
	u.RawQuery = params.Encode()

	body, err := c.fetcher.Fetch(ctx, u.String())
	if err != nil {
		return nil, err
	}

	var resp queryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return &resp, nil
}

// firstPage returns the page with the lowest key. Queries here name a single
// title, so there is normally exactly one.
func firstPage(resp *queryResponse) (page, bool) {
	if resp.Query == nil || len(resp.Query.Pages) == 0 {
		return page{}, false
	}
	keys := make([]string, 0, len(resp.Query.Pages))
	for k := range resp.Query.Pages {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return resp.Query.Pages[keys[0]], true
}

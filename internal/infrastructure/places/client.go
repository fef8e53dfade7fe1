package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mohammadpnp/place-ingest/internal/infrastructure/httpx"
)

const (
	searchFieldMask = "places.id,nextPageToken"
	detailFieldMask = "id,displayName,formattedAddress,addressComponents,location,websiteUri,nationalPhoneNumber,regularOpeningHours,photos,rating,userRatingCount,reviews,googleMapsUri"

	// Mandatory pause between search pages per the provider's rate policy.
	pageDelay = 1500 * time.Millisecond
)

type Client struct {
	http    *httpx.Client
	baseURL string
	apiKey  string
	sleep   httpx.SleepFunc
}

func NewClient(httpClient *httpx.Client, baseURL, apiKey string) *Client {
	return &Client{
		http:    httpClient,
		baseURL: baseURL,
		apiKey:  apiKey,
		sleep:   httpx.Sleep,
	}
}

// WithSleep replaces the inter-page sleep, for tests.
func (c *Client) WithSleep(sleep httpx.SleepFunc) *Client {
	c.sleep = sleep
	return c
}

type searchRequest struct {
	TextQuery string `json:"textQuery"`
	PageToken string `json:"pageToken,omitempty"`
}

type searchResponse struct {
	Places []struct {
		ID string `json:"id"`
	} `json:"places"`
	NextPageToken string `json:"nextPageToken"`
}

// SearchText runs one page of the text search, returning the place ids on
// that page and the token for the next page, if any.
func (c *Client) SearchText(ctx context.Context, query, pageToken string) ([]string, string, error) {
	body, err := json.Marshal(searchRequest{TextQuery: query, PageToken: pageToken})
	if err != nil {
		return nil, "", fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/places:searchText", bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("build search request: %w", err)
	}
	c.setHeaders(req, searchFieldMask)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", apiError("places search", resp)
	}

	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, "", fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]string, 0, len(out.Places))
	for _, p := range out.Places {
		ids = append(ids, p.ID)
	}
	return ids, out.NextPageToken, nil
}

// SearchAll follows page tokens until exhausted, accumulating place ids
// across pages with the mandatory inter-page delay.
func (c *Client) SearchAll(ctx context.Context, query string) ([]string, error) {
	var all []string
	token := ""

	for {
		ids, next, err := c.SearchText(ctx, query, token)
		if err != nil {
			return nil, err
		}
		all = append(all, ids...)

		if next == "" {
			return all, nil
		}
		if err := c.sleep(ctx, pageDelay); err != nil {
			return nil, err
		}
		token = next
	}
}

// FetchDetails fetches the full record for one place with the fixed detail
// field mask.
func (c *Client) FetchDetails(ctx context.Context, placeID string) (*Place, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/places/"+placeID, nil)
	if err != nil {
		return nil, fmt.Errorf("build details request: %w", err)
	}
	c.setHeaders(req, detailFieldMask)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError("place details", resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read details response: %w", err)
	}

	var place Place
	if err := json.Unmarshal(raw, &place); err != nil {
		return nil, fmt.Errorf("decode details response: %w", err)
	}
	place.Raw = raw
	return &place, nil
}

func (c *Client) setHeaders(req *http.Request, fieldMask string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)
}

func apiError(op string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, bytes.TrimSpace(snippet))
}

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	domain "github.com/mohammadpnp/place-ingest/internal/domain/directory"
	"github.com/mohammadpnp/place-ingest/internal/infrastructure/httpx"
)

// Client talks to the search index over its HTTP API: collection
// existence/create plus JSONL batch upserts. All calls route through the
// retrying httpx client.
type Client struct {
	http       *httpx.Client
	baseURL    string
	apiKey     string
	collection string
}

func NewClient(httpClient *httpx.Client, baseURL, apiKey, collection string) *Client {
	return &Client{
		http:       httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		collection: collection,
	}
}

type field struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Facet    bool   `json:"facet,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

type collectionSchema struct {
	Name                string  `json:"name"`
	Fields              []field `json:"fields"`
	DefaultSortingField string  `json:"default_sorting_field,omitempty"`
}

func (c *Client) schema() collectionSchema {
	return collectionSchema{
		Name: c.collection,
		Fields: []field{
			{Name: "name", Type: "string"},
			{Name: "street", Type: "string", Optional: true},
			{Name: "city", Type: "string", Facet: true, Optional: true},
			{Name: "state", Type: "string", Facet: true, Optional: true},
			{Name: "postal_code", Type: "string", Optional: true},
			{Name: "phone", Type: "string", Optional: true},
			{Name: "website", Type: "string", Optional: true},
			{Name: "categories", Type: "string[]", Facet: true},
			{Name: "category_ids", Type: "string[]", Facet: true},
			{Name: "site_ids", Type: "string[]", Facet: true},
			{Name: "rating", Type: "float"},
			{Name: "review_count", Type: "int32"},
			{Name: "location", Type: "geopoint", Optional: true},
		},
		DefaultSortingField: "rating",
	}
}

// EnsureCollection creates the destination collection on first use.
func (c *Client) EnsureCollection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/collections/"+c.collection, nil)
	if err != nil {
		return fmt.Errorf("build collection request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return err
	}
	drain(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return c.createCollection(ctx)
	default:
		return fmt.Errorf("check collection: status %d", resp.StatusCode)
	}
}

func (c *Client) createCollection(ctx context.Context) error {
	body, err := json.Marshal(c.schema())
	if err != nil {
		return fmt.Errorf("marshal collection schema: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/collections", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build create collection request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return err
	}
	drain(resp)

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("create collection: status %d", resp.StatusCode)
	}
	return nil
}

// DropCollection removes the collection if it exists, for full resyncs.
func (c *Client) DropCollection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/collections/"+c.collection, nil)
	if err != nil {
		return fmt.Errorf("build drop collection request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return err
	}
	drain(resp)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("drop collection: status %d", resp.StatusCode)
	}
	return nil
}

// UpsertBatch imports one batch of documents with upsert semantics. A non-2xx
// response is returned as an error; callers treat it as a skippable
// batch-level failure.
func (c *Client) UpsertBatch(ctx context.Context, docs []domain.SearchDocument) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range docs {
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode search document %s: %w", doc.ID, err)
		}
	}

	url := c.baseURL + "/collections/" + c.collection + "/documents/import?action=upsert"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return fmt.Errorf("build import request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return err
	}
	drain(resp)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("import documents: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("X-TYPESENSE-API-KEY", c.apiKey)
	if req.Header.Get("Content-Type") == "" && req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

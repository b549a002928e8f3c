package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/hungpv1995/postboard/internal/models"
)

// ElasticSearch mirrors the board's posts into an index for full-text search.
type ElasticSearch struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticSearch(client *elasticsearch.Client, index string) *ElasticSearch {
	return &ElasticSearch{
		client: client,
		index:  index,
	}
}

// Dial creates a client for url and makes sure the index exists.
func Dial(ctx context.Context, url, index string) (*ElasticSearch, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	es := NewElasticSearch(client, index)
	if err := es.CreateIndex(ctx); err != nil {
		return nil, err
	}
	return es, nil
}

// CreateIndex creates the posts index with proper mapping
func (es *ElasticSearch) CreateIndex(ctx context.Context) error {
	mapping := `{
		"mappings": {
			"properties": {
				"id": {"type": "integer"},
				"userId": {"type": "integer"},
				"title": {"type": "text"},
				"body": {"type": "text"}
			}
		}
	}`

	req := esapi.IndicesCreateRequest{
		Index: es.index,
		Body:  strings.NewReader(mapping),
	}

	res, err := req.Do(ctx, es.client)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && !strings.Contains(res.String(), "resource_already_exists_exception") {
		return fmt.Errorf("error creating index: %s", res.String())
	}

	return nil
}

// IndexPost indexes a post in Elasticsearch
func (es *ElasticSearch) IndexPost(ctx context.Context, post models.Post) error {
	docJSON, err := json.Marshal(post)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      es.index,
		DocumentID: strconv.Itoa(post.ID),
		Body:       bytes.NewReader(docJSON),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, es.client)
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing document: %s", res.String())
	}
	return nil
}

// DeletePost removes a post from the index. A missing document is not an error.
func (es *ElasticSearch) DeletePost(ctx context.Context, id int) error {
	req := esapi.DeleteRequest{
		Index:      es.index,
		DocumentID: strconv.Itoa(id),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, es.client)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("error deleting document: %s", res.String())
	}
	return nil
}

// Replace clears the index and bulk-loads posts.
func (es *ElasticSearch) Replace(ctx context.Context, posts []models.Post) error {
	refresh := true
	wipe := esapi.DeleteByQueryRequest{
		Index:   []string{es.index},
		Body:    strings.NewReader(`{"query": {"match_all": {}}}`),
		Refresh: &refresh,
	}

	res, err := wipe.Do(ctx, es.client)
	if err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}
	res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("error clearing index: %s", res.String())
	}

	if len(posts) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, post := range posts {
		meta := map[string]interface{}{
			"index": map[string]interface{}{"_id": strconv.Itoa(post.ID)},
		}
		if err := enc.Encode(meta); err != nil {
			return fmt.Errorf("failed to encode bulk action: %w", err)
		}
		if err := enc.Encode(post); err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}
	}

	bulk := esapi.BulkRequest{
		Index:   es.index,
		Body:    &buf,
		Refresh: "true",
	}
	res, err = bulk.Do(ctx, es.client)
	if err != nil {
		return fmt.Errorf("failed to bulk index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error bulk indexing: %s", res.String())
	}

	var result struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to parse bulk response: %w", err)
	}
	if result.Errors {
		return fmt.Errorf("bulk index reported item errors")
	}
	return nil
}

type searchResult struct {
	Hits struct {
		Hits []struct {
			Score  float64     `json:"_score"`
			Source models.Post `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchPosts performs full-text search on title and body
func (es *ElasticSearch) SearchPosts(ctx context.Context, query string) ([]models.SearchHit, error) {
	searchQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"title", "body"},
			},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(searchQuery); err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	res, err := es.client.Search(
		es.client.Search.WithContext(ctx),
		es.client.Search.WithIndex(es.index),
		es.client.Search.WithBody(&buf),
		es.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var result searchResult
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	hits := make([]models.SearchHit, 0, len(result.Hits.Hits))
	for _, h := range result.Hits.Hits {
		hits = append(hits, models.SearchHit{Post: h.Source, Score: h.Score})
	}
	return hits, nil
}

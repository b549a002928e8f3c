// Package snapshot encodes the post collection for the persistent store and
// validates snapshots read back from it.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hungpv1995/postboard/internal/models"
	"github.com/xeipuuv/gojsonschema"
)

// Key is the fixed store key the collection lives under.
const Key = "posts"

// ErrInvalid is returned when a stored snapshot cannot be used.
var ErrInvalid = errors.New("invalid snapshot")

const schema = `{
	"type": "array",
	"items": {
		"type": "object",
		"required": ["id", "title", "body"],
		"properties": {
			"id": {"type": "integer"},
			"userId": {"type": "integer"},
			"title": {"type": "string"},
			"body": {"type": "string"}
		}
	}
}`

var schemaLoader = gojsonschema.NewStringLoader(schema)

// Encode serializes the full collection. An empty collection encodes as "[]".
func Encode(posts []models.Post) (string, error) {
	if posts == nil {
		posts = []models.Post{}
	}
	data, err := json.Marshal(posts)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return string(data), nil
}

// Decode validates and deserializes a stored snapshot, preserving order.
func Decode(data string) ([]models.Post, error) {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewStringLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !result.Valid() {
		msgs := make([]string, len(result.Errors()))
		for i, e := range result.Errors() {
			msgs[i] = e.String()
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
	}

	var posts []models.Post
	if err := json.Unmarshal([]byte(data), &posts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	seen := make(map[int]struct{}, len(posts))
	for _, p := range posts {
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate post id %d", ErrInvalid, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return posts, nil
}

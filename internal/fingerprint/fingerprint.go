// HyperPost - Multi-Platform Social Publishing
// Copyright 2026 HyperDrift
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hyperdrift-io/hyperpost

// Package fingerprint computes the content-addressed identity of a post.
//
// Two submissions with the same (title, content, url) triple converge onto
// the same storage identity without a caller-supplied idempotency key, which
// is what makes duplicate suppression work across process restarts. Tags are
// deliberately excluded: they are presentation, not identity.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/hyperdrift-io/hyperpost/internal/models"
)

// Hash returns the hex-encoded SHA-256 fingerprint of a post, computed over
// "title|content|url" with empty strings for absent fields. The separator is
// not escaped, so differently-split triples that concatenate to the same
// string collide; that matches the stored history format and is accepted.
func Hash(post models.SocialPost) string {
	sum := sha256.Sum256([]byte(post.Title + "|" + post.Content + "|" + post.URL))
	return hex.EncodeToString(sum[:])
}

// ImportHash returns the fingerprint used when importing an already-published
// post discovered by URL. The platform only gives us rendered content, so
// identity is content plus the source URL.
func ImportHash(content, url string) string {
	sum := sha256.Sum256([]byte(content + url))
	return hex.EncodeToString(sum[:])
}

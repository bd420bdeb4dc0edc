// Package instagram talks to Instagram's web endpoints and turns comment
// payloads into comment records.
//
// This package includes:
//   - A client that sends browser-like headers and the session cookie
//   - Models for the GraphQL comments response
//   - Parsers for captured JSON responses and rendered post pages
//   - Helpers for building comment URLs and reading shortcodes from post URLs
//
// Failures are returned as *errors.Error from igcomments/pkg/errors so
// callers can decide what to retry:
//
//	client := instagram.NewClientFromConfig(cfg.Instagram, log)
//	page, err := client.FetchComments(ctx, "C0dE123", "", 50)
//	if errors.Is(err, errors.ErrorTypeAuth) {
//	    // session expired
//	}
package instagram

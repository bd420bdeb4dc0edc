package instagram

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

const (
	// BaseURL is the base URL for Instagram
	BaseURL = "https://www.instagram.com"

	// GraphQLEndpoint is the path of the GraphQL query endpoint
	GraphQLEndpoint = "/graphql/query/"

	// CommentsQueryHash selects the parent-comments query for a post
	CommentsQueryHash = "bc3296d1ce80a24b1b6e40b1e72903f5"

	// DefaultCommentLimit is the number of comments requested per page
	DefaultCommentLimit = 50

	// MaxCommentLimit is the largest page size the endpoint accepts
	MaxCommentLimit = 50
)

type commentsVariables struct {
	Shortcode string `json:"shortcode"`
	First     int    `json:"first"`
	After     string `json:"after,omitempty"`
}

// GetCommentsURL constructs the GraphQL URL for one page of a post's comments
func GetCommentsURL(baseURL, shortcode, after string, limit int) string {
	if baseURL == "" {
		baseURL = BaseURL
	}
	if limit <= 0 {
		limit = DefaultCommentLimit
	} else if limit > MaxCommentLimit {
		limit = MaxCommentLimit
	}

	variables, _ := json.Marshal(commentsVariables{
		Shortcode: shortcode,
		First:     limit,
		After:     after,
	})

	params := url.Values{}
	params.Set("query_hash", CommentsQueryHash)
	params.Set("variables", string(variables))

	return fmt.Sprintf("%s%s?%s", strings.TrimRight(baseURL, "/"), GraphQLEndpoint, params.Encode())
}

// GetPostURL constructs the URL for a specific post
func GetPostURL(shortcode string) string {
	if shortcode == "" {
		return ""
	}
	return fmt.Sprintf("%s/p/%s/", BaseURL, shortcode)
}

// ParseShortcode extracts the post shortcode from a post, reel or tv URL.
// A bare shortcode is returned unchanged.
func ParseShortcode(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("empty post reference")
	}

	if !strings.Contains(input, "/") {
		if !IsValidShortcode(input) {
			return "", fmt.Errorf("invalid shortcode %q", input)
		}
		return input, nil
	}

	if !strings.Contains(input, "://") {
		input = "https://" + input
	}
	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid post URL: %w", err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		switch parts[i] {
		case "p", "reel", "reels", "tv":
			if IsValidShortcode(parts[i+1]) {
				return parts[i+1], nil
			}
			return "", fmt.Errorf("invalid shortcode %q in %s", parts[i+1], input)
		}
	}

	return "", fmt.Errorf("no post shortcode in %s", input)
}

// IsValidShortcode checks that s only holds the characters Instagram uses in
// shortcodes
func IsValidShortcode(s string) bool {
	if s == "" || len(s) > 64 {
		return false
	}

	for _, char := range s {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '-' || char == '_') {
			return false
		}
	}

	return true
}

package instagram

import (
	"encoding/json"

	"igcomments/pkg/comments"
)

// CommentsResponse represents the top-level GraphQL response for a post's comments
type CommentsResponse struct {
	RequiresToLogin bool         `json:"requires_to_login"`
	Data            CommentsData `json:"data"`
	Status          string       `json:"status"`
	Message         string       `json:"message"`
}

// CommentsData wraps the media object in the response
type CommentsData struct {
	ShortcodeMedia *ShortcodeMedia `json:"shortcode_media"`
}

// ShortcodeMedia is a post with its parent comments
type ShortcodeMedia struct {
	ID        string            `json:"id"`
	Shortcode string            `json:"shortcode"`
	Comments  CommentConnection `json:"edge_media_to_parent_comment"`
}

// CommentConnection contains one page of comments
type CommentConnection struct {
	Count    int           `json:"count"`
	PageInfo PageInfo      `json:"page_info"`
	Edges    []CommentEdge `json:"edges"`
}

// PageInfo contains pagination information
type PageInfo struct {
	HasNextPage bool   `json:"has_next_page"`
	EndCursor   string `json:"end_cursor"`
}

// CommentEdge wraps a single comment node
type CommentEdge struct {
	Node CommentNode `json:"node"`
}

// CommentNode is a single comment as Instagram returns it. The author comes
// as owner in GraphQL pages and as user in captured web responses.
type CommentNode struct {
	Text      *string            `json:"text"`
	CreatedAt comments.Timestamp `json:"created_at"`
	Owner     *Author            `json:"owner"`
	User      *Author            `json:"user"`
	LikeCount json.RawMessage    `json:"comment_like_count"`
	LikedBy   *EdgeCount         `json:"edge_liked_by"`
}

// Author identifies a comment's contributor
type Author struct {
	Username   string `json:"username"`
	IsVerified bool   `json:"is_verified"`
}

// EdgeCount is a bare count edge such as edge_liked_by
type EdgeCount struct {
	Count int `json:"count"`
}

// CommentPage is one parsed page of comments
type CommentPage struct {
	Records     []comments.Record
	Dropped     int
	HasNextPage bool
	EndCursor   string
	Count       int
}

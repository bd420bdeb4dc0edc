package instagram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"igcomments/pkg/comments"
	errs "igcomments/pkg/errors"
)

// Author returns the contributor of the comment, preferring owner over user
func (n CommentNode) Author() *Author {
	if n.Owner != nil && n.Owner.Username != "" {
		return n.Owner
	}
	return n.User
}

// Record converts the node into a comment record. Nodes without a username
// or without a text field are rejected.
func (n CommentNode) Record() (comments.Record, error) {
	author := n.Author()
	if author == nil {
		return comments.Record{}, comments.ErrMissingUsername
	}
	username := strings.TrimSpace(author.Username)
	if username == "" {
		return comments.Record{}, comments.ErrMissingUsername
	}
	if n.Text == nil {
		return comments.Record{}, comments.ErrMissingComment
	}

	likes := 0
	if len(n.LikeCount) > 0 {
		// Unreadable counts fall back to zero rather than losing the comment
		if v, err := comments.ParseLikes(n.LikeCount); err == nil {
			likes = v
		}
	} else if n.LikedBy != nil && n.LikedBy.Count > 0 {
		likes = n.LikedBy.Count
	}

	return comments.Record{
		Username:  username,
		Comment:   *n.Text,
		Timestamp: n.CreatedAt,
		Likes:     likes,
		Verified:  author.IsVerified,
	}, nil
}

// ParseEdges converts edges to records in order, counting rejected nodes
func ParseEdges(edges []CommentEdge) (records []comments.Record, dropped int) {
	records = make([]comments.Record, 0, len(edges))
	for _, edge := range edges {
		r, err := edge.Node.Record()
		if err != nil {
			dropped++
			continue
		}
		records = append(records, r)
	}
	return records, dropped
}

// ParseResponse decodes a captured or live comments response. Two shapes are
// accepted: the full {"data":{"shortcode_media":...}} envelope, or a bare
// array of {"node":...} items.
func ParseResponse(data []byte) (*CommentPage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errs.New(errs.ErrorTypeParsing, 0, "empty response")
	}

	if trimmed[0] == '[' {
		var edges []CommentEdge
		if err := json.Unmarshal(trimmed, &edges); err != nil {
			return nil, errs.Wrap(errs.ErrorTypeParsing, err, "decode comment array")
		}
		records, dropped := ParseEdges(edges)
		return &CommentPage{Records: records, Dropped: dropped, Count: len(edges)}, nil
	}

	var resp CommentsResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		return nil, errs.Wrap(errs.ErrorTypeParsing, err, "decode comments response")
	}
	return resp.Page()
}

// Page extracts the comment page from a decoded response
func (r *CommentsResponse) Page() (*CommentPage, error) {
	if r.RequiresToLogin {
		return nil, errs.New(errs.ErrorTypeAuth, http.StatusUnauthorized,
			"Instagram requires authentication to view these comments")
	}
	if r.Status == "fail" {
		msg := r.Message
		if msg == "" {
			msg = "request failed"
		}
		if strings.Contains(strings.ToLower(msg), "wait") {
			return nil, errs.New(errs.ErrorTypeRateLimit, http.StatusTooManyRequests, msg)
		}
		return nil, errs.New(errs.ErrorTypeUnknown, 0, msg)
	}
	if r.Data.ShortcodeMedia == nil {
		return nil, errs.New(errs.ErrorTypeNotFound, 0, "response has no shortcode_media; the post may be private or removed")
	}

	conn := r.Data.ShortcodeMedia.Comments
	records, dropped := ParseEdges(conn.Edges)

	page := &CommentPage{
		Records:     records,
		Dropped:     dropped,
		HasNextPage: conn.PageInfo.HasNextPage,
		EndCursor:   conn.PageInfo.EndCursor,
		Count:       conn.Count,
	}
	if page.HasNextPage && page.EndCursor == "" {
		return nil, errs.New(errs.ErrorTypeParsing, 0, fmt.Sprintf("page of %d comments claims more pages but has no end cursor", len(conn.Edges)))
	}
	return page, nil
}

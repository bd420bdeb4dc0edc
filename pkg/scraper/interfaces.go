package scraper

import (
	"context"
	"time"

	"igcomments/pkg/comments"
	"igcomments/pkg/instagram"
)

// Batch is the set of comments observed in one pass
type Batch struct {
	Records []comments.Record
	// Cursor is where the next pass resumes; empty for sources without one
	Cursor string
	// Done is set when the source has nothing left to return
	Done bool
}

// BatchSource produces one batch of comments per pass
type BatchSource interface {
	NextBatch(ctx context.Context) (Batch, error)
}

// CommentFetcher defines the Instagram operation the GraphQL source needs
type CommentFetcher interface {
	FetchComments(ctx context.Context, shortcode, after string, limit int) (*instagram.CommentPage, error)
}

// Pacer blocks before each pass
type Pacer interface {
	Wait(ctx context.Context, pass int) (time.Duration, error)
}

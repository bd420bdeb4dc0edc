package scraper

import (
	"context"
	"os"

	errs "igcomments/pkg/errors"
	"igcomments/pkg/instagram"
	"igcomments/pkg/logger"
)

// GraphQLSource pages through a post's comments with the Instagram client.
// The cursor only advances after a page was fetched, so a retried pass asks
// for the same page again.
type GraphQLSource struct {
	client    CommentFetcher
	shortcode string
	pageSize  int
	cursor    string
	logger    logger.Logger
}

// NewGraphQLSource creates a source starting after cursor ("" for the first
// page)
func NewGraphQLSource(client CommentFetcher, shortcode, cursor string, pageSize int, log logger.Logger) *GraphQLSource {
	if log == nil {
		log = logger.GetLogger()
	}
	return &GraphQLSource{
		client:    client,
		shortcode: shortcode,
		pageSize:  pageSize,
		cursor:    cursor,
		logger:    log,
	}
}

// Cursor returns the cursor the next page will be requested after
func (s *GraphQLSource) Cursor() string {
	return s.cursor
}

// NextBatch fetches the next page of comments
func (s *GraphQLSource) NextBatch(ctx context.Context) (Batch, error) {
	page, err := s.client.FetchComments(ctx, s.shortcode, s.cursor, s.pageSize)
	if err != nil {
		return Batch{}, err
	}

	if page.Dropped > 0 {
		s.logger.DebugWithFields("Skipped incomplete comments", map[string]interface{}{
			"shortcode": s.shortcode,
			"dropped":   page.Dropped,
		})
	}

	if page.HasNextPage {
		s.cursor = page.EndCursor
	}
	return Batch{
		Records: page.Records,
		Cursor:  s.cursor,
		Done:    !page.HasNextPage,
	}, nil
}

// ResponseFileSource replays saved comment responses, one file per pass
type ResponseFileSource struct {
	files  []string
	next   int
	logger logger.Logger
}

// NewResponseFileSource creates a source over the given response files
func NewResponseFileSource(files []string, log logger.Logger) *ResponseFileSource {
	if log == nil {
		log = logger.GetLogger()
	}
	return &ResponseFileSource{files: files, logger: log}
}

// NextBatch parses the next file. The batch is Done once the last file has
// been read.
func (s *ResponseFileSource) NextBatch(ctx context.Context) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}
	if s.next >= len(s.files) {
		return Batch{Done: true}, nil
	}

	path := s.files[s.next]
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Batch{}, errs.Wrap(errs.ErrorTypeNotFound, err, "response file "+path)
		}
		return Batch{}, errs.Wrap(errs.ErrorTypeStorage, err, "read response file "+path)
	}

	page, err := instagram.ParseResponse(data)
	if err != nil {
		return Batch{}, &errs.Error{
			Type:    errs.TypeOf(err),
			Message: "response file " + path,
			Err:     err,
		}
	}
	s.next++

	s.logger.DebugWithFields("Read response file", map[string]interface{}{
		"file":    path,
		"records": len(page.Records),
		"dropped": page.Dropped,
	})

	return Batch{
		Records: page.Records,
		Cursor:  path,
		Done:    s.next >= len(s.files),
	}, nil
}

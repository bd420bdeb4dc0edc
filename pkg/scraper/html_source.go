package scraper

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"

	"igcomments/pkg/comments"
	errs "igcomments/pkg/errors"
	"igcomments/pkg/instagram"
	"igcomments/pkg/logger"
)

// HTMLSource reads the comments rendered into a public post page. The page
// only ever shows one view, so the source is done after a single batch.
type HTMLSource struct {
	postURL   string
	headers   map[string]string
	selectors instagram.Selectors
	timeout   time.Duration
	logger    logger.Logger
}

// NewHTMLSource creates a source for postURL. headers are sent with the page
// request, typically the Instagram client's headers.
func NewHTMLSource(postURL string, headers map[string]string, sel instagram.Selectors, timeout time.Duration, log logger.Logger) *HTMLSource {
	if log == nil {
		log = logger.GetLogger()
	}
	return &HTMLSource{
		postURL:   postURL,
		headers:   headers,
		selectors: sel,
		timeout:   timeout,
		logger:    log,
	}
}

// NextBatch fetches the page and extracts its comments
func (s *HTMLSource) NextBatch(ctx context.Context) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}

	c := colly.NewCollector(colly.AllowURLRevisit())
	if s.timeout > 0 {
		c.SetRequestTimeout(s.timeout)
	}

	var (
		records  []comments.Record
		fetchErr error
	)

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		for k, v := range s.headers {
			r.Headers.Set(k, v)
		}
		r.Headers.Set("Accept", "text/html,application/xhtml+xml")
	})

	c.OnResponse(func(r *colly.Response) {
		var dropped int
		var err error
		records, dropped, err = instagram.ParseHTML(bytes.NewReader(r.Body), s.selectors)
		if err != nil {
			fetchErr = err
			return
		}
		if dropped > 0 {
			s.logger.DebugWithFields("Skipped incomplete comments", map[string]interface{}{
				"url":     s.postURL,
				"dropped": dropped,
			})
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		fetchErr = &errs.Error{
			Type:    errs.FromStatusCode(r.StatusCode),
			Message: fmt.Sprintf("fetch post page %s", s.postURL),
			Code:    r.StatusCode,
			Err:     err,
		}
	})

	visitErr := c.Visit(s.postURL)
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}
	if visitErr != nil && fetchErr == nil {
		fetchErr = errs.Wrap(errs.ErrorTypeNetwork, visitErr, "visit post page")
	}
	if fetchErr != nil {
		return Batch{}, fetchErr
	}

	s.logger.DebugWithFields("Read post page", map[string]interface{}{
		"url":     s.postURL,
		"records": len(records),
	})
	return Batch{Records: records, Done: true}, nil
}

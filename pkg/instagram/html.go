package instagram

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"igcomments/pkg/comments"
	"igcomments/pkg/config"
	errs "igcomments/pkg/errors"
)

// Selectors locate comments in a rendered post page
type Selectors struct {
	Comment  string
	Username string
	Text     string
}

// SelectorsFromConfig converts the configured HTML selectors
func SelectorsFromConfig(cfg config.HTMLConfig) Selectors {
	return Selectors{
		Comment:  cfg.CommentSelector,
		Username: cfg.UsernameSelector,
		Text:     cfg.TextSelector,
	}
}

// ExtractComments reads records out of a post page selection. Containers
// missing either a username or a text element are skipped.
func ExtractComments(doc *goquery.Selection, sel Selectors) (records []comments.Record, dropped int) {
	doc.Find(sel.Comment).Each(func(_ int, s *goquery.Selection) {
		user := s.Find(sel.Username).First()
		text := s.Find(sel.Text).First()
		if user.Length() == 0 || text.Length() == 0 {
			dropped++
			return
		}

		username := strings.TrimSpace(user.Text())
		if username == "" {
			dropped++
			return
		}

		records = append(records, comments.Record{
			Username: username,
			Comment:  strings.TrimSpace(text.Text()),
		})
	})
	return records, dropped
}

// ParseHTML parses a post page and extracts its comments
func ParseHTML(r io.Reader, sel Selectors) (records []comments.Record, dropped int, err error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, 0, errs.Wrap(errs.ErrorTypeParsing, err, "parse post page")
	}
	records, dropped = ExtractComments(doc.Selection, sel)
	return records, dropped, nil
}

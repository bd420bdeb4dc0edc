// Package scraper drives comment collection for one post.
//
// A Session loads the stored collection, pulls one Batch per pass from a
// BatchSource, merges it by username and saves the result. Three sources
// are provided:
//
//   - GraphQLSource pages through the comments endpoint with a logged-in
//     Instagram client and can resume from a checkpointed cursor
//   - ResponseFileSource replays responses saved from the browser, one file
//     per pass
//   - HTMLSource reads the comments rendered into the public post page
//
// Passes are spaced by a Pacer, failed fetches are retried with backoff, and
// whatever was gathered is saved even when a pass fails:
//
//	src := scraper.NewGraphQLSource(client, "C0dE123", "", 50, log)
//	session := scraper.NewSession(src, store, scraper.Options{
//	    Shortcode: "C0dE123",
//	    MaxPasses: 10,
//	    Pacer:     ratelimit.NewPacer(cfg.RateLimit, 3*time.Second, 20*time.Second),
//	}, log)
//	result, err := session.Run(ctx)
package scraper

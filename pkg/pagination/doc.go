// Package pagination implements the token-based pagination engine shared by
// every Sherpa stream.
//
// Sherpa paginated operations take an opaque continuation token and a page
// size, and answer with a list of items whose last element carries the token
// to use for the next page. The engine walks that token until exhaustion and
// surfaces the final token as the replication bookmark.
//
// Example usage:
//
//	engine := pagination.New(fetcher, pagination.Config{PageSize: 200, Paginate: true})
//	it := engine.Run(ctx, startToken)
//	for {
//		rec, ok := it.Next()
//		if !ok {
//			break
//		}
//		// consume rec
//	}
//	if err := it.Err(); err != nil {
//		// bookmark must not be committed
//	}
//	bookmark := it.FinalToken()
//
// The iterator produces a finite, non-restartable sequence. Pages are
// requested strictly in token order, one at a time; the next page is fetched
// only when the caller has drained the previous one, so consumption drives
// production and suspension happens only at the network-call boundary.
package pagination

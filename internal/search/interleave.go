package search

import "github.com/FACorreiaa/go-directory-search/internal/types"

// Interleave places an ad slot after every nth result. Ads never lead the
// feed and never replace a result; n <= 0 disables ads.
func Interleave(results []types.RankedListing, n int) []types.FeedSlot {
	adCount := 0
	if n > 0 {
		adCount = len(results) / n
	}
	feed := make([]types.FeedSlot, 0, len(results)+adCount)

	ads := 0
	for i := range results {
		feed = append(feed, types.FeedSlot{Kind: types.FeedSlotListing, Listing: &results[i]})
		if n > 0 && (i+1)%n == 0 {
			ads++
			feed = append(feed, types.FeedSlot{Kind: types.FeedSlotAd, AdSlot: ads})
		}
	}
	return feed
}

// CountListings returns the number of real listings in a feed.
func CountListings(feed []types.FeedSlot) int {
	n := 0
	for _, s := range feed {
		if s.Kind == types.FeedSlotListing {
			n++
		}
	}
	return n
}

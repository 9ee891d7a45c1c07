package events

import (
	"github.com/ethereum/go-ethereum/event"
	"github.com/rotblauer/fleetd/types/runtrack"
)

// RunPopulatedFeed is emitted for every run that is successfully persisted,
// carrying the stored run (with its deduped location history).
var RunPopulatedFeed = event.FeedOf[*runtrack.Run]{}


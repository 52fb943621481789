package catalyst

import (
	"sync"

	"Catalyst-Meraki-Client-Tracker/pkg/logger"
	"Catalyst-Meraki-Client-Tracker/pkg/macaddr"
)

// Locator fans a probe out across the whole switch inventory.
type Locator struct {
	Channel Channel
	Log     *logger.Logger
}

// Locate probes every switch in the inventory concurrently and returns the
// record of the one switch hosting the client, or false when none does.
//
// Workers publish matches on a buffered channel; the call waits for every
// probe to finish (join-all barrier) before reading, so the returned record
// is complete and stable. At most one switch should report presence for a
// given client — if several do, the first confirmed match wins and the rest
// are logged and discarded.
//
// When the lookup started from an IP only, the matching switch's ARP entry
// supplies the MAC; it is normalized to colon-delimited form for downstream
// consumers.
func (l *Locator) Locate(inventory []Target, id Identity) (*ClientRecord, bool) {
	type match struct {
		host string
		rec  *ClientRecord
	}
	results := make(chan match, len(inventory))

	var wg sync.WaitGroup
	for _, target := range inventory {
		wg.Add(1)
		go func(target Target) {
			defer wg.Done()
			probe := &Probe{Channel: l.Channel, Log: l.Log}
			if rec, ok := probe.Examine(target, id); ok {
				results <- match{host: target.Host, rec: rec}
			}
		}(target)
	}
	wg.Wait()
	close(results)

	winner, ok := <-results
	if !ok {
		return nil, false
	}
	for extra := range results {
		l.Log.Warnf("multiple switches report client presence: keeping %s, ignoring %s",
			winner.host, extra.host)
	}

	rec := winner.rec
	if rec.MAC != "" {
		if clean, err := macaddr.NormalizeExactMac(rec.MAC); err == nil {
			rec.MAC = macaddr.FormatMacColon(clean)
		}
	}
	return rec, true
}

package report

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"Catalyst-Meraki-Client-Tracker/pkg/catalyst"
	"Catalyst-Meraki-Client-Tracker/pkg/logger"
	"Catalyst-Meraki-Client-Tracker/pkg/macaddr"
	"Catalyst-Meraki-Client-Tracker/pkg/meraki"
	"Catalyst-Meraki-Client-Tracker/pkg/usage"
)

// CloudAPI is the slice of the Dashboard API the pipeline needs.
type CloudAPI interface {
	FetchClientDetails(ctx context.Context, mac string, timespanSeconds int, networks []meraki.Network) (meraki.ClientDetails, error)
	GetClientApplicationUsage(ctx context.Context, networkID, mac string, timespanSeconds int) ([]meraki.ApplicationUsage, error)
}

// Pipeline runs one full client lookup: fleet scan over the switch
// inventory, then per-network cloud details, then usage aggregation.
type Pipeline struct {
	Inventory []catalyst.Target
	Locator   *catalyst.Locator
	Cloud     CloudAPI
	Networks  []meraki.Network
	Tracker   *Tracker
	Log       *logger.Logger

	// BannerFunc overrides the banner text; nil uses the geolocation banner.
	BannerFunc func() string
}

// Result is one completed lookup, everything the report page and the
// download endpoints need.
type Result struct {
	Identity  catalyst.Identity
	Banner    string
	Found     bool
	Catalyst  *catalyst.ClientRecord
	Details   meraki.ClientDetails
	Usage     *usage.Report
	Timespan  int
	Generated time.Time
}

// NewIdentity validates and normalizes the user-supplied MAC and IP. At
// least one must be given; the MAC is reduced to its canonical form.
func NewIdentity(macInput, ipInput string) (catalyst.Identity, error) {
	macInput = strings.TrimSpace(macInput)
	ipInput = strings.TrimSpace(ipInput)
	if macInput == "" && ipInput == "" {
		return catalyst.Identity{}, errors.New("a MAC address or an IP address is required")
	}

	var id catalyst.Identity
	if macInput != "" {
		clean, err := macaddr.NormalizeExactMac(macInput)
		if err != nil {
			return catalyst.Identity{}, fmt.Errorf("invalid MAC address %q: %w", macInput, err)
		}
		id.MAC = clean
	}
	if ipInput != "" {
		if net.ParseIP(ipInput) == nil {
			return catalyst.Identity{}, fmt.Errorf("invalid IP address %q", ipInput)
		}
		id.IP = ipInput
	}
	return id, nil
}

// Run performs the lookup, publishing progress milestones as each stage
// completes: 25 after the fleet scan, 50 after the cloud details, 75 after
// the usage aggregation, 100 when the result is assembled. A cloud failure
// aborts the run with no partial result.
func (p *Pipeline) Run(ctx context.Context, id catalyst.Identity, timespanSeconds int) (*Result, error) {
	p.Tracker.Set(0)
	p.Log.Infof("starting lookup for mac=%q ip=%q timespan=%ds", id.MAC, id.IP, timespanSeconds)

	rec, found := p.Locator.Locate(p.Inventory, id)
	p.Tracker.Set(25)

	// The cloud side keys on a colon-delimited MAC. Prefer the identity the
	// user gave; an IP-only lookup uses the MAC the switch ARP table supplied.
	mac := ""
	switch {
	case id.MAC != "":
		mac = macaddr.FormatMacColon(id.MAC)
	case found && rec.MAC != "":
		mac = rec.MAC
	}
	if mac == "" {
		p.Log.Warnf("no MAC resolved for the lookup, cloud queries will be skipped")
	}

	details, err := p.Cloud.FetchClientDetails(ctx, mac, timespanSeconds, p.Networks)
	if err != nil {
		return nil, err
	}
	p.Tracker.Set(50)

	usageReport, err := usage.Fetch(ctx, p.Cloud, mac, timespanSeconds, p.Networks, p.Log)
	if err != nil {
		return nil, err
	}
	p.Tracker.Set(75)

	result := &Result{
		Identity:  id,
		Banner:    p.banner(),
		Found:     found,
		Catalyst:  rec,
		Details:   details,
		Usage:     usageReport,
		Timespan:  timespanSeconds,
		Generated: time.Now(),
	}
	p.Tracker.Set(100)
	p.Log.Infof("lookup complete: found on switch=%v, mac=%q", found, mac)
	return result, nil
}

func (p *Pipeline) banner() string {
	if p.BannerFunc != nil {
		return p.BannerFunc()
	}
	return Banner(nil, time.Now())
}

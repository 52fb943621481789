// Package usage aggregates per-application byte counters for a client across
// all networks in an organization: per-network tables, an organization-wide
// summary, and a bounded top-N-plus-Other rollup for charting.
package usage

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"Catalyst-Meraki-Client-Tracker/pkg/logger"
	"Catalyst-Meraki-Client-Tracker/pkg/meraki"
)

// chartMaxApps is how many applications a chart keeps verbatim before the
// remainder is folded into a single Other slice.
const chartMaxApps = 13

// AppUsage holds one application's byte counters in kilobytes, as delivered
// by the source. Conversion to human-readable units happens only at
// presentation time.
type AppUsage struct {
	ReceivedKB float64
	SentKB     float64
}

// Table maps application name to its usage counters.
type Table map[string]AppUsage

// Add accumulates counters for an application by name.
func (t Table) Add(app string, receivedKB, sentKB float64) {
	au := t[app]
	au.ReceivedKB += receivedKB
	au.SentKB += sentKB
	t[app] = au
}

// TotalKB is the sum of all counters in the table, used to check chart
// rollups conserve the total.
func (t Table) TotalKB() float64 {
	var total float64
	for _, au := range t {
		total += au.ReceivedKB + au.SentKB
	}
	return total
}

// SortedAppNames returns the table's application names sorted
// case-insensitively in ascending order.
func (t Table) SortedAppNames() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names
}

// ChartEntry is one chart slice: a composite label embedding the totals and
// the raw kilobyte value driving the slice size.
type ChartEntry struct {
	Label string
	KB    float64
}

// Chart is an ordered chart table, largest slice first, at most
// chartMaxApps+1 entries.
type Chart []ChartEntry

// TotalKB is the sum of all slice values.
func (c Chart) TotalKB() float64 {
	var total float64
	for _, e := range c {
		total += e.KB
	}
	return total
}

// NetworkUsage is one network's usage table and its chart rollup.
type NetworkUsage struct {
	NetworkName string
	Apps        Table
	Chart       Chart
}

// Report is the full aggregation result for one client: per-network usage,
// the organization-wide summary (element-wise sum over networks, union of
// application names), and chart rollups for each.
type Report struct {
	ClientMAC    string
	Summary      Table
	SummaryChart Chart
	Networks     []NetworkUsage
}

// Network returns the usage entry for a network name, or nil when the report
// has none (network never reached in an aborted run).
func (r *Report) Network(name string) *NetworkUsage {
	for i := range r.Networks {
		if r.Networks[i].NetworkName == name {
			return &r.Networks[i]
		}
	}
	return nil
}

// Fetcher is the slice of the Dashboard API the aggregator needs.
type Fetcher interface {
	GetClientApplicationUsage(ctx context.Context, networkID, mac string, timespanSeconds int) ([]meraki.ApplicationUsage, error)
}

// Fetch queries per-application usage for the MAC in every network. A
// network where the API reports the not-found class records an empty table
// and the loop continues; any other error aborts the whole aggregation with
// no partial result. An empty MAC returns an empty report without making any
// network calls.
func Fetch(ctx context.Context, api Fetcher, mac string, timespanSeconds int, networks []meraki.Network, log *logger.Logger) (*Report, error) {
	report := &Report{ClientMAC: mac, Summary: Table{}}
	if mac == "" {
		log.Warnf("MAC address is empty, skipping usage lookup")
		report.SummaryChart = Chart{}
		return report, nil
	}

	for _, net := range networks {
		apps, err := api.GetClientApplicationUsage(ctx, net.ID, mac, timespanSeconds)
		if err != nil {
			if meraki.IsNotFound(err) {
				log.Infof("client not found in %s", net.Name)
				report.Networks = append(report.Networks, NetworkUsage{
					NetworkName: net.Name,
					Apps:        Table{},
					Chart:       Chart{},
				})
				continue
			}
			return nil, fmt.Errorf("fetching usage in network %s: %w", net.Name, err)
		}

		// Sort by name before folding; with equal totals this fixes the
		// display grouping, the arithmetic is unaffected.
		sort.SliceStable(apps, func(i, j int) bool {
			return strings.ToLower(apps[i].Application) < strings.ToLower(apps[j].Application)
		})
		log.Infof("found usage data in %s for %d applications", net.Name, len(apps))

		netTable := Table{}
		for _, app := range apps {
			netTable.Add(app.Application, app.Received, app.Sent)
			report.Summary.Add(app.Application, app.Received, app.Sent)
		}
		report.Networks = append(report.Networks, NetworkUsage{
			NetworkName: net.Name,
			Apps:        netTable,
			Chart:       BuildChart(netTable),
		})
	}

	report.SummaryChart = BuildChart(report.Summary)
	return report, nil
}

// BuildChart derives the chart rollup from a usage table: entries ranked by
// received+sent descending, the largest chartMaxApps kept verbatim, the
// remainder folded into one Other entry holding their sum.
func BuildChart(t Table) Chart {
	names := t.SortedAppNames()
	entries := make(Chart, 0, len(names))
	for _, name := range names {
		au := t[name]
		entries = append(entries, ChartEntry{
			Label: ChartLabel(name, au.ReceivedKB, au.SentKB),
			KB:    round1(au.ReceivedKB + au.SentKB),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].KB > entries[j].KB
	})
	if len(entries) <= chartMaxApps {
		return entries
	}

	kept := entries[:chartMaxApps:chartMaxApps]
	var other float64
	for _, e := range entries[chartMaxApps:] {
		other += e.KB
	}
	return append(kept, ChartEntry{Label: "Other", KB: other})
}

// ChartLabel builds the composite chart key "name | total (received, sent)"
// with every number converted to a human-readable unit.
func ChartLabel(name string, receivedKB, sentKB float64) string {
	total := ConvertBytes(round1(receivedKB + sentKB))
	return fmt.Sprintf("%s | %s (%s, %s)", name, total, ConvertBytes(receivedKB), ConvertBytes(sentKB))
}

// ConvertBytes renders a kilobyte count in the largest unit it reaches:
// >= 1,048,576 KB as GB, >= 1,024 KB as MB (both rounded to 2 decimals),
// anything smaller as KB unchanged.
func ConvertBytes(kb float64) string {
	switch {
	case kb >= 1024*1024:
		return formatNum(round2(kb/(1024*1024))) + " GB"
	case kb >= 1024:
		return formatNum(round2(kb/1024)) + " MB"
	default:
		return formatNum(kb) + " KB"
	}
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

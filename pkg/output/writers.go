// Package output renders the lookup results as tabular data in CSV, plain
// text, and HTML.
package output

import (
	"encoding/csv"
	"fmt"
	"html"
	"io"
	"strings"

	"Catalyst-Meraki-Client-Tracker/pkg/catalyst"
	"Catalyst-Meraki-Client-Tracker/pkg/macaddr"
	"Catalyst-Meraki-Client-Tracker/pkg/meraki"
	"Catalyst-Meraki-Client-Tracker/pkg/usage"
)

// Table is one renderable result table. Every writer consumes the same
// shape, so each lookup artifact only has to be assembled once.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// CatalystTable flattens a switch-side client record into a field/value
// table. A nil record renders the not-found shape with the identity that was
// searched for.
func CatalystTable(rec *catalyst.ClientRecord, mac, ip string) *Table {
	t := &Table{Title: "Catalyst Client", Headers: []string{"Field", "Value"}}
	if rec == nil {
		if clean, err := macaddr.NormalizeExactMac(mac); err == nil {
			mac = macaddr.FormatMacColon(clean)
		}
		t.Rows = [][]string{
			{"Status", "Not found"},
			{"MAC Address", mac},
			{"IP Address", ip},
		}
		return t
	}
	t.Rows = [][]string{
		{"Status", "Found"},
		{"MAC Address", rec.MAC},
		{"IP Address", rec.IP},
		{"VLAN", rec.VLAN},
		{"Switch Hostname", rec.SwitchHostname},
		{"Interface", rec.Interface},
		{"Interface Status", rec.InterfaceStatus.Status},
		{"Switchport Mode", rec.InterfaceStatus.Mode},
		{"Encapsulation", rec.InterfaceStatus.Encapsulation},
		{"Native VLAN", rec.InterfaceStatus.NativeVLAN},
		{"Allowed VLANs", rec.InterfaceStatus.AllowedVLANs},
	}
	return t
}

// CDPTable lists the located switch's CDP adjacencies.
func CDPTable(rec *catalyst.ClientRecord) *Table {
	t := &Table{
		Title:   "CDP Neighbors",
		Headers: []string{"Device ID", "Local Interface", "Capability", "Platform", "Port ID"},
	}
	if rec == nil {
		return t
	}
	for _, n := range rec.CDP {
		t.Rows = append(t.Rows, []string{n.Name, n.LocalInterface, n.Capability, n.Platform, n.NeighborInterface})
	}
	return t
}

// LLDPTable lists the located switch's LLDP adjacencies. LLDP output carries
// no platform column.
func LLDPTable(rec *catalyst.ClientRecord) *Table {
	t := &Table{
		Title:   "LLDP Neighbors",
		Headers: []string{"Device ID", "Local Interface", "Capability", "Port ID"},
	}
	if rec == nil {
		return t
	}
	for _, n := range rec.LLDP {
		t.Rows = append(t.Rows, []string{n.Name, n.LocalInterface, n.Capability, n.NeighborInterface})
	}
	return t
}

// MerakiTable renders the per-network cloud lookup, one row per network in
// the given order. Wireless clients show their SSID in the access column,
// wired ones their switchport.
func MerakiTable(details meraki.ClientDetails, networkNames []string) *Table {
	t := &Table{
		Title: "Meraki Client",
		Headers: []string{
			"Network", "Status", "Description", "IP Address", "VLAN",
			"Manufacturer", "OS", "User", "Connection", "Access", "Recent Device",
		},
	}
	for _, name := range networkNames {
		d, ok := details[name]
		if !ok || !d.Present {
			t.Rows = append(t.Rows, []string{name, "Not found", "", "", "", "", "", "", "", "", ""})
			continue
		}
		c := d.Client
		access := c.Switchport
		if c.Wireless() {
			access = c.SSID
		}
		t.Rows = append(t.Rows, []string{
			name, "Found", c.Description, c.IP, c.VLANString(),
			c.Manufacturer, c.OS, c.User, c.RecentDeviceConnection, access, c.RecentDeviceName,
		})
	}
	return t
}

// UsageTable renders one usage table with human-readable units, applications
// sorted by name.
func UsageTable(title string, apps usage.Table) *Table {
	t := &Table{Title: title, Headers: []string{"Application", "Received", "Sent"}}
	for _, name := range apps.SortedAppNames() {
		au := apps[name]
		t.Rows = append(t.Rows, []string{
			name,
			usage.ConvertBytes(au.ReceivedKB),
			usage.ConvertBytes(au.SentKB),
		})
	}
	return t
}

// UsageTables renders the summary followed by every per-network table, in
// report order.
func UsageTables(report *usage.Report) []*Table {
	tables := []*Table{UsageTable("Usage Summary", report.Summary)}
	for _, nu := range report.Networks {
		tables = append(tables, UsageTable("Usage - "+nu.NetworkName, nu.Apps))
	}
	return tables
}

// WriteCSV writes one table in CSV format with a header row.
func WriteCSV(w io.Writer, t *Table) {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	_ = writer.Write(t.Headers)
	for _, row := range t.Rows {
		_ = writer.Write(row)
	}
}

// WriteCSVAll writes several tables into one CSV stream, each preceded by a
// title row and separated by a blank line.
func WriteCSVAll(w io.Writer, tables []*Table) {
	for i, t := range tables {
		if i > 0 {
			fmt.Fprintln(w)
		}
		writer := csv.NewWriter(w)
		_ = writer.Write([]string{t.Title})
		writer.Flush()
		WriteCSV(w, t)
	}
}

// WriteText writes one table in plain text format with aligned columns.
func WriteText(w io.Writer, t *Table) {
	fmt.Fprintln(w, t.Title)
	if len(t.Rows) == 0 {
		fmt.Fprintln(w, "No results")
		return
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = len(h)
	}
	for _, row := range t.Rows {
		for i, v := range row {
			widths[i] = max(widths[i], len(v))
		}
	}

	separator := strings.Repeat("-", sum(widths)+len(widths)*3-1)
	fmt.Fprintln(w, separator)
	fmt.Fprintln(w, formatRow(t.Headers, widths))
	fmt.Fprintln(w, separator)
	for _, row := range t.Rows {
		fmt.Fprintln(w, formatRow(row, widths))
	}
	fmt.Fprintln(w, separator)
}

// WriteHTML writes one table in HTML format with all cell content escaped.
func WriteHTML(w io.Writer, t *Table) {
	fmt.Fprintf(w, "<h2>%s</h2>\n", html.EscapeString(t.Title))
	fmt.Fprintln(w, "<table>")
	fmt.Fprintln(w, "  <thead>")
	fmt.Fprint(w, "    <tr>")
	for _, h := range t.Headers {
		fmt.Fprintf(w, "<th>%s</th>", html.EscapeString(h))
	}
	fmt.Fprintln(w, "</tr>")
	fmt.Fprintln(w, "  </thead>")
	fmt.Fprintln(w, "  <tbody>")
	for _, row := range t.Rows {
		fmt.Fprint(w, "    <tr>")
		for _, v := range row {
			fmt.Fprintf(w, "<td>%s</td>", html.EscapeString(v))
		}
		fmt.Fprintln(w, "</tr>")
	}
	fmt.Fprintln(w, "  </tbody>")
	fmt.Fprintln(w, "</table>")
}

// formatRow formats a row of values with column widths for text table output.
func formatRow(values []string, widths []int) string {
	var parts []string
	for i, v := range values {
		parts = append(parts, fmt.Sprintf("%-*s", widths[i], v))
	}
	return strings.Join(parts, " | ")
}

// sum calculates the sum of integers in a slice.
func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}

// max returns the maximum of two integers.
func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

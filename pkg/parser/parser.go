// Package parser turns raw, semi-structured output of Catalyst show commands
// into typed records. The session/transport layer and the probe logic never
// inspect command output directly; everything goes through here so a
// structured device API could replace the CLI screen-scraping later.
package parser

import (
	"fmt"
	"strings"
)

// Command identifies which switch command produced a piece of raw output.
type Command string

const (
	CmdHostname       Command = "hostname"
	CmdMacTable       Command = "mac-address-table"
	CmdArpTable       Command = "arp-table"
	CmdInterfaceBrief Command = "interface-brief"
	CmdTrunkStatus    Command = "trunk-status"
	CmdCDPNeighbors   Command = "cdp-neighbors"
	CmdLLDPNeighbors  Command = "lldp-neighbors"
)

// invalidMarker is the substring IOS prints when a command is rejected
// ("% Invalid input detected at '^' marker.").
const invalidMarker = "Invalid"

// ParseError reports that command output carried the invalid-command marker
// and could not be parsed.
type ParseError struct {
	Command Command
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid command output for %s", e.Command)
}

// checkInvalid returns a ParseError when raw contains the IOS rejection marker.
func checkInvalid(cmd Command, raw string) error {
	if strings.Contains(raw, invalidMarker) {
		return &ParseError{Command: cmd}
	}
	return nil
}

// MacTableEntry is one row of "show mac address-table" output.
type MacTableEntry struct {
	VLAN      string
	MAC       string
	Type      string
	Interface string
}

// ParseMacTable parses filtered mac address-table output.
// Row layout: VLAN, MAC, type, interface. Empty output yields no rows.
func ParseMacTable(raw string) ([]MacTableEntry, error) {
	if err := checkInvalid(CmdMacTable, raw); err != nil {
		return nil, err
	}
	var entries []MacTableEntry
	for _, line := range strings.Split(raw, "\n") {
		tokens := strings.Fields(line)
		if len(tokens) < 4 {
			continue
		}
		if !strings.Contains(tokens[1], ".") {
			continue // header or separator line, not a dotted MAC
		}
		entries = append(entries, MacTableEntry{
			VLAN:      tokens[0],
			MAC:       tokens[1],
			Type:      tokens[2],
			Interface: tokens[3],
		})
	}
	return entries, nil
}

// ArpEntry is one row of "show ip arp" output.
type ArpEntry struct {
	Address   string
	Age       string
	MAC       string
	Type      string
	Interface string
}

// ParseArpTable parses filtered ARP table output. Only "Internet" protocol
// rows are considered. Empty output yields no rows.
func ParseArpTable(raw string) ([]ArpEntry, error) {
	if err := checkInvalid(CmdArpTable, raw); err != nil {
		return nil, err
	}
	var entries []ArpEntry
	for _, line := range strings.Split(raw, "\n") {
		tokens := strings.Fields(line)
		if len(tokens) < 6 || tokens[0] != "Internet" {
			continue
		}
		entries = append(entries, ArpEntry{
			Address:   tokens[1],
			Age:       tokens[2],
			MAC:       tokens[3],
			Type:      tokens[4],
			Interface: tokens[5],
		})
	}
	return entries, nil
}

// ParseHostname extracts the device hostname from "show run | include hostname"
// output (second whitespace-delimited token of the hostname line).
// Returns an empty string when no hostname line is present.
func ParseHostname(raw string) (string, error) {
	if err := checkInvalid(CmdHostname, raw); err != nil {
		return "", err
	}
	for _, line := range strings.Split(raw, "\n") {
		tokens := strings.Fields(line)
		if len(tokens) >= 2 && tokens[0] == "hostname" {
			return tokens[1], nil
		}
	}
	return "", nil
}

// InterfaceBrief is the first data row of "show ip interface brief <intf>".
type InterfaceBrief struct {
	Interface string
	IPAddress string
	Status    string
	Protocol  string
}

// ParseInterfaceBrief parses single-interface "show ip interface brief" output.
// The "Interface ..." header row is skipped. Returns nil when no data row
// is present.
func ParseInterfaceBrief(raw string) (*InterfaceBrief, error) {
	if err := checkInvalid(CmdInterfaceBrief, raw); err != nil {
		return nil, err
	}
	for _, line := range strings.Split(raw, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "Interface") {
			continue
		}
		tokens := strings.Fields(line)
		if len(tokens) < 6 {
			continue
		}
		return &InterfaceBrief{
			Interface: tokens[0],
			IPAddress: tokens[1],
			Status:    tokens[4],
			Protocol:  tokens[5],
		}, nil
	}
	return nil, nil
}

// TrunkStatus holds the fields extracted from "show interfaces <intf> trunk".
type TrunkStatus struct {
	Mode          string
	Encapsulation string
	NativeVLAN    string
	AllowedVLANs  string
}

// ParseTrunkStatus parses trunk-status output. A 5-token line carries the
// trunking mode ("off" means access, anything else trunk), encapsulation and
// native VLAN; the first 2-token line carries the allowed VLAN list. Lines
// starting with the "Port" header marker are skipped. Returns nil when no
// recognizable line is present.
func ParseTrunkStatus(raw string) (*TrunkStatus, error) {
	if err := checkInvalid(CmdTrunkStatus, raw); err != nil {
		return nil, err
	}
	var ts *TrunkStatus
	for _, line := range strings.Split(raw, "\n") {
		if strings.HasPrefix(line, "Port") {
			continue
		}
		tokens := strings.Fields(line)
		switch {
		case len(tokens) == 5:
			if ts == nil {
				ts = &TrunkStatus{}
			}
			if tokens[1] == "off" {
				ts.Mode = "access"
			} else {
				ts.Mode = "trunk"
			}
			ts.Encapsulation = tokens[2]
			ts.NativeVLAN = tokens[4]
		case len(tokens) == 2:
			if ts == nil {
				ts = &TrunkStatus{}
			}
			if ts.AllowedVLANs == "" {
				ts.AllowedVLANs = tokens[1]
			}
		}
	}
	return ts, nil
}

// Neighbor is a single CDP or LLDP adjacency. Platform is populated for CDP
// only; LLDP output does not carry it.
type Neighbor struct {
	Name              string
	LocalInterface    string
	Capability        string
	Platform          string
	NeighborInterface string
}

// cdpHeaders and lldpHeaders are the column labels of the neighbor tables, in
// the order they appear in command output.
var (
	cdpHeaders  = []string{"Device ID", "Local Intrfce", "Holdtme", "Capability", "Platform", "Port ID"}
	lldpHeaders = []string{"Device ID", "Local Intf", "Hold-time", "Capability", "Port ID"}
)

// ParseCDPNeighbors parses "show cdp neighbors" output into neighbor records.
func ParseCDPNeighbors(raw string) ([]Neighbor, error) {
	if err := checkInvalid(CmdCDPNeighbors, raw); err != nil {
		return nil, err
	}
	rows := parseColumnTable(raw, cdpHeaders)
	neighbors := make([]Neighbor, 0, len(rows))
	for _, r := range rows {
		neighbors = append(neighbors, Neighbor{
			Name:              r["Device ID"],
			LocalInterface:    r["Local Intrfce"],
			Capability:        r["Capability"],
			Platform:          r["Platform"],
			NeighborInterface: r["Port ID"],
		})
	}
	return neighbors, nil
}

// ParseLLDPNeighbors parses "show lldp neighbors" output into neighbor records.
func ParseLLDPNeighbors(raw string) ([]Neighbor, error) {
	if err := checkInvalid(CmdLLDPNeighbors, raw); err != nil {
		return nil, err
	}
	rows := parseColumnTable(raw, lldpHeaders)
	neighbors := make([]Neighbor, 0, len(rows))
	for _, r := range rows {
		neighbors = append(neighbors, Neighbor{
			Name:              r["Device ID"],
			LocalInterface:    r["Local Intf"],
			Capability:        r["Capability"],
			NeighborInterface: r["Port ID"],
		})
	}
	return neighbors, nil
}

// column is one header label with its byte range within a table line.
type column struct {
	name  string
	start int
	end   int
}

// parseColumnTable slices a fixed-width table using the offsets of the header
// labels. The capability-code preamble before the header is ignored, as are
// summary lines ("Total ..."). A row whose device name overflows its column
// is printed by IOS on its own line; such a line is held and joined with the
// row that follows it.
func parseColumnTable(raw string, headers []string) []map[string]string {
	lines := strings.Split(raw, "\n")

	var cols []column
	headerIdx := -1
	for i, line := range lines {
		if c, ok := columnsFromHeader(line, headers); ok {
			cols = c
			headerIdx = i
			break
		}
	}
	if headerIdx == -1 {
		return nil
	}

	var rows []map[string]string
	pendingName := ""
	for _, line := range lines[headerIdx+1:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "Total ") {
			break
		}
		// Overflowing device name printed on its own line: a data row always
		// carries more than one field, so a lone token is a wrapped name.
		if len(strings.Fields(trimmed)) == 1 {
			pendingName = trimmed
			continue
		}
		row := make(map[string]string, len(cols))
		for _, c := range cols {
			row[c.name] = sliceColumn(line, c)
		}
		if pendingName != "" {
			row[cols[0].name] = pendingName
			pendingName = ""
		}
		rows = append(rows, row)
	}
	return rows
}

// columnsFromHeader locates every expected header label in line and derives
// the byte range of each column. Each column runs from its label's offset to
// the offset of the next label.
func columnsFromHeader(line string, headers []string) ([]column, bool) {
	cols := make([]column, 0, len(headers))
	pos := 0
	for _, h := range headers {
		idx := strings.Index(line[pos:], h)
		if idx == -1 {
			return nil, false
		}
		cols = append(cols, column{name: h, start: pos + idx})
		pos += idx + len(h)
	}
	for i := range cols {
		if i+1 < len(cols) {
			cols[i].end = cols[i+1].start
		} else {
			cols[i].end = -1 // runs to end of line
		}
	}
	return cols, true
}

// sliceColumn extracts and trims one column's value from a table line.
func sliceColumn(line string, c column) string {
	if c.start >= len(line) {
		return ""
	}
	end := c.end
	if end == -1 || end > len(line) {
		end = len(line)
	}
	return strings.TrimSpace(line[c.start:end])
}

// Package catalyst locates a client on a fleet of Catalyst access switches
// and extracts switch-side facts about it (VLAN, interface, interface status,
// CDP/LLDP adjacency) over an SSH command channel.
package catalyst

import (
	"encoding/json"
	"fmt"
	"os"

	"Catalyst-Meraki-Client-Tracker/pkg/parser"
)

// Target holds the connection parameters for one switch in the inventory.
type Target struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	DeviceType string `json:"device_type"`
}

// Addr returns the host:port dial address, defaulting the port to 22.
func (t Target) Addr() string {
	port := t.Port
	if port == 0 {
		port = 22
	}
	return fmt.Sprintf("%s:%d", t.Host, port)
}

// Identity is the client being searched for. Exactly one of MAC/IP is set at
// lookup start; the other is filled in from the switch's ARP/MAC tables once
// a match is found. MAC is a normalized 12-hex-digit string.
type Identity struct {
	MAC string
	IP  string
}

// InterfaceStatus describes the switchport the client was found on.
type InterfaceStatus struct {
	Status        string
	Mode          string
	Encapsulation string
	NativeVLAN    string
	AllowedVLANs  string
}

// ClientRecord is the full set of switch-side facts for a located client.
// One record is created per probe attempt and only published on a confirmed
// match; fields whose extraction failed stay at their zero value.
type ClientRecord struct {
	MAC             string
	IP              string
	VLAN            string
	Interface       string
	SwitchHostname  string
	InterfaceStatus InterfaceStatus
	CDP             []parser.Neighbor
	LLDP            []parser.Neighbor
}

// Session is one authenticated command session against a switch.
type Session interface {
	// Run executes a single show command and returns its raw output.
	Run(command string) (string, error)
	Close() error
}

// Channel opens command sessions against switch targets. It is the only
// seam between the probe logic and the underlying transport.
type Channel interface {
	Open(target Target) (Session, error)
}

// LoadInventory reads the switch inventory from a JSON file: an array of
// Target objects.
func LoadInventory(path string) ([]Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading switch inventory: %w", err)
	}
	var targets []Target
	if err := json.Unmarshal(data, &targets); err != nil {
		return nil, fmt.Errorf("parsing switch inventory %s: %w", path, err)
	}
	for i, t := range targets {
		if t.Host == "" {
			return nil, fmt.Errorf("switch inventory %s: entry %d has no host", path, i)
		}
	}
	return targets, nil
}

package catalyst

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"Catalyst-Meraki-Client-Tracker/pkg/logger"
)

// fakeSession replays canned command output. Commands with no entry return
// empty output, like a filtered show command with no match.
type fakeSession struct {
	outputs map[string]string
	ran     []string
	closed  bool
}

func (s *fakeSession) Run(command string) (string, error) {
	s.ran = append(s.ran, command)
	return s.outputs[command], nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

// fakeChannel hands out one fakeSession per host and can simulate
// unreachable switches.
type fakeChannel struct {
	sessions map[string]*fakeSession
	openErr  map[string]error
}

func (c *fakeChannel) Open(target Target) (Session, error) {
	if err := c.openErr[target.Host]; err != nil {
		return nil, err
	}
	sess, ok := c.sessions[target.Host]
	if !ok {
		return nil, fmt.Errorf("no session scripted for %s", target.Host)
	}
	return sess, nil
}

func quietLog() *logger.Logger {
	return logger.NewWriter(io.Discard, logger.LevelError)
}

const (
	testMacClean  = "aabbccddeeff"
	testMacDotted = "aabb.ccdd.eeff"
	testMacColon  = "aa:bb:cc:dd:ee:ff"
)

// matchingOutputs is the full command script for a switch that hosts the
// test client on Gi1/0/12, VLAN 10.
func matchingOutputs() map[string]string {
	return map[string]string{
		"show mac address-table | include " + testMacDotted: " 10    " + testMacDotted + "    DYNAMIC     Gi1/0/12\n",
		"show run | include hostname":                       "hostname access-sw03\n",
		"show ip arp | include " + testMacDotted:            "Internet  10.10.10.5   23   " + testMacDotted + "  ARPA   Vlan10\n",
		"show ip interface brief Gi1/0/12": "Interface              IP-Address      OK? Method Status                Protocol\n" +
			"Gi1/0/12               unassigned      YES unset  up                    up\n",
		"show interfaces Gi1/0/12 trunk": "Port        Mode             Encapsulation  Status        Native vlan\n" +
			"Gi1/0/12    off              negotiate      not-trunking  1\n\n" +
			"Port        Vlans allowed on trunk\nGi1/0/12    10\n",
	}
}

func TestProbeExamine_MacMatch(t *testing.T) {
	sess := &fakeSession{outputs: matchingOutputs()}
	ch := &fakeChannel{sessions: map[string]*fakeSession{"sw1": sess}}
	probe := &Probe{Channel: ch, Log: quietLog()}

	rec, ok := probe.Examine(Target{Host: "sw1"}, Identity{MAC: testMacClean})
	if !ok {
		t.Fatal("Examine() = not found, want match")
	}
	if rec.SwitchHostname != "access-sw03" {
		t.Errorf("SwitchHostname = %q, want access-sw03", rec.SwitchHostname)
	}
	if rec.IP != "10.10.10.5" {
		t.Errorf("IP = %q, want 10.10.10.5 (filled from ARP)", rec.IP)
	}
	if rec.VLAN != "10" || rec.Interface != "Gi1/0/12" {
		t.Errorf("VLAN/Interface = %q/%q, want 10/Gi1/0/12", rec.VLAN, rec.Interface)
	}
	if rec.InterfaceStatus.Status != "up/up" {
		t.Errorf("InterfaceStatus.Status = %q, want up/up", rec.InterfaceStatus.Status)
	}
	if rec.InterfaceStatus.Mode != "access" {
		t.Errorf("InterfaceStatus.Mode = %q, want access", rec.InterfaceStatus.Mode)
	}
	if rec.InterfaceStatus.AllowedVLANs != "10" {
		t.Errorf("InterfaceStatus.AllowedVLANs = %q, want 10", rec.InterfaceStatus.AllowedVLANs)
	}
	if !sess.closed {
		t.Error("session was not closed after probe")
	}
}

func TestProbeExamine_IPLookupFillsMac(t *testing.T) {
	outputs := matchingOutputs()
	outputs["show ip arp | include 10.10.10.5"] = "Internet  10.10.10.5   23   " + testMacDotted + "  ARPA   Vlan10\n"
	// The MAC learned from ARP drives the follow-up mac-table query.
	outputs["show mac address-table | include "+testMacDotted] = " 10    " + testMacDotted + "    DYNAMIC     Gi1/0/12\n"

	sess := &fakeSession{outputs: outputs}
	ch := &fakeChannel{sessions: map[string]*fakeSession{"sw1": sess}}
	probe := &Probe{Channel: ch, Log: quietLog()}

	rec, ok := probe.Examine(Target{Host: "sw1"}, Identity{IP: "10.10.10.5"})
	if !ok {
		t.Fatal("Examine() = not found, want match")
	}
	if rec.MAC != testMacDotted {
		t.Errorf("MAC = %q, want %q (filled from ARP)", rec.MAC, testMacDotted)
	}
	if rec.VLAN != "10" || rec.Interface != "Gi1/0/12" {
		t.Errorf("VLAN/Interface = %q/%q, want 10/Gi1/0/12", rec.VLAN, rec.Interface)
	}
}

func TestProbeExamine_NotPresent(t *testing.T) {
	sess := &fakeSession{outputs: map[string]string{}}
	ch := &fakeChannel{sessions: map[string]*fakeSession{"sw1": sess}}
	probe := &Probe{Channel: ch, Log: quietLog()}

	if _, ok := probe.Examine(Target{Host: "sw1"}, Identity{MAC: testMacClean}); ok {
		t.Error("Examine() reported presence on empty mac-table output")
	}
	if !sess.closed {
		t.Error("session was not closed")
	}
	if len(sess.ran) != 1 {
		t.Errorf("probe ran %d commands on an absent client, want 1 (presence check only)", len(sess.ran))
	}
}

func TestProbeExamine_ConnectionFailureSkips(t *testing.T) {
	ch := &fakeChannel{openErr: map[string]error{"sw1": errors.New("connection refused")}}
	probe := &Probe{Channel: ch, Log: quietLog()}

	if _, ok := probe.Examine(Target{Host: "sw1"}, Identity{MAC: testMacClean}); ok {
		t.Error("Examine() reported a match on an unreachable switch")
	}
}

func TestProbeExamine_InvalidCommandSkipsField(t *testing.T) {
	outputs := matchingOutputs()
	outputs["show run | include hostname"] = "% Invalid input detected at '^' marker.\n"

	sess := &fakeSession{outputs: outputs}
	ch := &fakeChannel{sessions: map[string]*fakeSession{"sw1": sess}}
	probe := &Probe{Channel: ch, Log: quietLog()}

	rec, ok := probe.Examine(Target{Host: "sw1"}, Identity{MAC: testMacClean})
	if !ok {
		t.Fatal("Examine() = not found, want match")
	}
	if rec.SwitchHostname != "" {
		t.Errorf("SwitchHostname = %q, want empty (invalid command skips field)", rec.SwitchHostname)
	}
	// The rest of the extraction still ran.
	if rec.VLAN != "10" {
		t.Errorf("VLAN = %q, want 10", rec.VLAN)
	}
}

func TestLocate_SingleMatch(t *testing.T) {
	match := &fakeSession{outputs: matchingOutputs()}
	miss := &fakeSession{outputs: map[string]string{}}
	ch := &fakeChannel{sessions: map[string]*fakeSession{"sw1": miss, "sw2": match}}
	loc := &Locator{Channel: ch, Log: quietLog()}

	inventory := []Target{{Host: "sw1"}, {Host: "sw2"}}
	rec, ok := loc.Locate(inventory, Identity{MAC: testMacClean})
	if !ok {
		t.Fatal("Locate() = not found, want match")
	}
	if rec.Interface != "Gi1/0/12" {
		t.Errorf("Interface = %q, want Gi1/0/12", rec.Interface)
	}
	if rec.MAC != testMacColon {
		t.Errorf("MAC = %q, want normalized %q", rec.MAC, testMacColon)
	}
	if !miss.closed || !match.closed {
		t.Error("not every probe session was closed")
	}
}

func TestLocate_NoMatch(t *testing.T) {
	ch := &fakeChannel{sessions: map[string]*fakeSession{
		"sw1": {outputs: map[string]string{}},
		"sw2": {outputs: map[string]string{}},
	}}
	loc := &Locator{Channel: ch, Log: quietLog()}

	if _, ok := loc.Locate([]Target{{Host: "sw1"}, {Host: "sw2"}}, Identity{MAC: testMacClean}); ok {
		t.Error("Locate() reported a match with no hosting switch")
	}
}

func TestLocate_UnreachableSwitchDoesNotAbortScan(t *testing.T) {
	match := &fakeSession{outputs: matchingOutputs()}
	ch := &fakeChannel{
		sessions: map[string]*fakeSession{"sw2": match},
		openErr:  map[string]error{"sw1": errors.New("i/o timeout")},
	}
	loc := &Locator{Channel: ch, Log: quietLog()}

	rec, ok := loc.Locate([]Target{{Host: "sw1"}, {Host: "sw2"}}, Identity{MAC: testMacClean})
	if !ok {
		t.Fatal("Locate() = not found, want match despite unreachable peer")
	}
	if rec.SwitchHostname != "access-sw03" {
		t.Errorf("SwitchHostname = %q, want access-sw03", rec.SwitchHostname)
	}
}

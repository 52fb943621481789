package catalyst

import (
	"fmt"
	"strings"

	"Catalyst-Meraki-Client-Tracker/pkg/logger"
	"Catalyst-Meraki-Client-Tracker/pkg/macaddr"
	"Catalyst-Meraki-Client-Tracker/pkg/parser"
)

// Probe checks a single switch for the presence of a client and, on a match,
// extracts the full ClientRecord. Connection failures and per-command parse
// failures are logged and skipped; they never abort the fleet scan.
type Probe struct {
	Channel Channel
	Log     *logger.Logger
}

// Examine runs the whole probe state machine against one switch:
// connect, presence check, extraction on presence, disconnect.
// The bool result reports whether the client is hosted on this switch.
func (p *Probe) Examine(target Target, id Identity) (*ClientRecord, bool) {
	sess, err := p.Channel.Open(target)
	if err != nil {
		p.Log.Warnf("unable to connect to switch %s, skipping: %v", target.Host, err)
		return nil, false
	}
	defer sess.Close()
	p.Log.Infof("connected to switch %s", target.Host)

	if !p.checkPresence(sess, id) {
		p.Log.Debugf("client not present on %s", target.Host)
		return nil, false
	}

	p.Log.Infof("client present on %s, extracting details", target.Host)
	return p.extract(sess, id), true
}

// checkPresence issues a filtered mac-address-table query (MAC lookup) or a
// filtered ARP query (IP lookup). Presence means non-empty output.
func (p *Probe) checkPresence(sess Session, id Identity) bool {
	var cmd string
	if id.MAC != "" {
		cmd = fmt.Sprintf("show mac address-table | include %s", macaddr.FormatMacDotted(id.MAC))
	} else {
		cmd = fmt.Sprintf("show ip arp | include %s", id.IP)
	}
	out, err := p.run(sess, cmd)
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) != ""
}

// extract populates a ClientRecord incrementally. Any individual query that
// fails leaves its field unset; extraction always runs to completion.
func (p *Probe) extract(sess Session, id Identity) *ClientRecord {
	rec := &ClientRecord{IP: id.IP}
	if id.MAC != "" {
		rec.MAC = macaddr.FormatMacDotted(id.MAC)
	}

	p.extractHostname(sess, rec)
	p.extractArp(sess, rec, id)
	p.extractMacTable(sess, rec)
	p.extractInterfaceStatus(sess, rec)
	p.extractNeighbors(sess, rec)
	return rec
}

func (p *Probe) extractHostname(sess Session, rec *ClientRecord) {
	out, err := p.run(sess, "show run | include hostname")
	if err != nil {
		return
	}
	if hostname, err := parser.ParseHostname(out); err == nil && hostname != "" {
		rec.SwitchHostname = hostname
	}
}

// extractArp fills the side of the identity that the caller did not supply:
// the IP for a MAC lookup, the MAC (dotted form) for an IP lookup.
func (p *Probe) extractArp(sess Session, rec *ClientRecord, id Identity) {
	filter := rec.MAC
	if id.MAC == "" {
		filter = id.IP
	}
	out, err := p.run(sess, fmt.Sprintf("show ip arp | include %s", filter))
	if err != nil {
		return
	}
	entries, err := parser.ParseArpTable(out)
	if err != nil || len(entries) == 0 {
		return
	}
	if id.MAC != "" {
		rec.IP = entries[0].Address
	} else {
		rec.MAC = entries[0].MAC
	}
}

func (p *Probe) extractMacTable(sess Session, rec *ClientRecord) {
	if rec.MAC == "" {
		return
	}
	out, err := p.run(sess, fmt.Sprintf("show mac address-table | include %s", rec.MAC))
	if err != nil {
		return
	}
	entries, err := parser.ParseMacTable(out)
	if err != nil || len(entries) == 0 {
		return
	}
	rec.VLAN = entries[0].VLAN
	rec.Interface = entries[0].Interface
}

func (p *Probe) extractInterfaceStatus(sess Session, rec *ClientRecord) {
	if rec.Interface == "" {
		return
	}

	if out, err := p.run(sess, fmt.Sprintf("show ip interface brief %s", rec.Interface)); err == nil {
		if brief, err := parser.ParseInterfaceBrief(out); err == nil && brief != nil {
			rec.InterfaceStatus.Status = brief.Status + "/" + brief.Protocol
		}
	}

	if out, err := p.run(sess, fmt.Sprintf("show interfaces %s trunk", rec.Interface)); err == nil {
		if trunk, err := parser.ParseTrunkStatus(out); err == nil && trunk != nil {
			rec.InterfaceStatus.Mode = trunk.Mode
			rec.InterfaceStatus.Encapsulation = trunk.Encapsulation
			rec.InterfaceStatus.NativeVLAN = trunk.NativeVLAN
			rec.InterfaceStatus.AllowedVLANs = trunk.AllowedVLANs
		}
	}
}

func (p *Probe) extractNeighbors(sess Session, rec *ClientRecord) {
	if out, err := p.run(sess, "show cdp neighbors"); err == nil {
		if cdp, err := parser.ParseCDPNeighbors(out); err == nil {
			rec.CDP = cdp
		}
	}
	if out, err := p.run(sess, "show lldp neighbors"); err == nil {
		if lldp, err := parser.ParseLLDPNeighbors(out); err == nil {
			rec.LLDP = lldp
		}
	}
}

// run executes one command and logs failures at debug level; callers treat a
// failed command as an absent field, not a fatal error.
func (p *Probe) run(sess Session, cmd string) (string, error) {
	out, err := sess.Run(cmd)
	if err != nil {
		p.Log.Debugf("command %q failed: %v", cmd, err)
		return "", err
	}
	return out, nil
}

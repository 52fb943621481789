// Package filters provides organization and network selection helpers.
package filters

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"Catalyst-Meraki-Client-Tracker/pkg/meraki"
)

// SelectOrganization finds an organization by name.
// If name is empty and only one organization exists, returns that organization.
// Returns an error if name is empty with multiple organizations or if the name is not found.
func SelectOrganization(name string, orgs []meraki.Organization) (meraki.Organization, error) {
	if name == "" {
		if len(orgs) == 1 {
			return orgs[0], nil
		}
		return meraki.Organization{}, errors.New("multiple organizations found, please specify --org")
	}
	for _, org := range orgs {
		if org.Name == name {
			return org, nil
		}
	}
	return meraki.Organization{}, fmt.Errorf("organization %q not found", name)
}

// SelectNetworks filters networks by name.
// If name is "ALL" (case-insensitive), returns all networks.
// Otherwise returns a single network matching the name, or an error if not found.
func SelectNetworks(name string, networks []meraki.Network) ([]meraki.Network, error) {
	if strings.ToUpper(name) == "ALL" {
		return networks, nil
	}
	for _, net := range networks {
		if net.Name == name {
			return []meraki.Network{net}, nil
		}
	}
	return nil, fmt.Errorf("network %q not found", name)
}

// SortedNetworkNames returns the network names sorted case-insensitively in
// ascending order. The input slice is not modified.
func SortedNetworkNames(networks []meraki.Network) []string {
	names := make([]string, 0, len(networks))
	for _, net := range networks {
		names = append(names, net.Name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names
}

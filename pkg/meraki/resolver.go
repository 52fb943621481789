package meraki

import (
	"context"
	"fmt"
)

// NetworkClientDetails is a per-network resolution result: absent
// (Present == false) or a populated client record.
type NetworkClientDetails struct {
	Present bool
	Client  NetworkClient
}

// ClientDetails maps network name to that network's resolution result. Every
// network in the organization has an entry.
type ClientDetails map[string]NetworkClientDetails

// ResolveOrganizationID returns the ID of the organization whose name matches
// exactly (first match wins). An unknown name is a configuration error and is
// surfaced immediately.
func (m *Client) ResolveOrganizationID(ctx context.Context, name string) (string, error) {
	orgs, err := m.GetOrganizations(ctx)
	if err != nil {
		return "", err
	}
	for _, org := range orgs {
		if org.Name == name {
			return org.ID, nil
		}
	}
	return "", fmt.Errorf("organization %q not found", name)
}

// FetchClientDetails queries every network for the client MAC within the time
// window. A network where the API reports the not-found class records an
// absent entry and the loop continues; any other API error aborts the whole
// resolution. An empty MAC returns an all-absent result without making any
// network calls.
func (m *Client) FetchClientDetails(ctx context.Context, mac string, timespanSeconds int, networks []Network) (ClientDetails, error) {
	details := make(ClientDetails, len(networks))
	for _, net := range networks {
		details[net.Name] = NetworkClientDetails{}
	}
	if mac == "" {
		return details, nil
	}

	for _, net := range networks {
		clients, err := m.GetNetworkClients(ctx, net.ID, mac, timespanSeconds)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, fmt.Errorf("fetching client details in network %s: %w", net.Name, err)
		}
		if len(clients) == 0 {
			continue
		}
		details[net.Name] = NetworkClientDetails{Present: true, Client: clients[0]}
	}
	return details, nil
}

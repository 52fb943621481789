package filters

import (
	"reflect"
	"testing"

	"Catalyst-Meraki-Client-Tracker/pkg/meraki"
)

func TestSelectOrganization(t *testing.T) {
	orgs := []meraki.Organization{
		{ID: "org1", Name: "Test Org 1"},
		{ID: "org2", Name: "Test Org 2"},
	}

	tests := []struct {
		name    string
		orgName string
		wantID  string
		wantErr bool
	}{
		{
			name:    "exact match",
			orgName: "Test Org 1",
			wantID:  "org1",
		},
		{
			name:    "not found",
			orgName: "Non-existent Org",
			wantErr: true,
		},
		{
			name:    "empty with multiple orgs",
			orgName: "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectOrganization(tt.orgName, orgs)
			if (err != nil) != tt.wantErr {
				t.Errorf("SelectOrganization() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && got.ID != tt.wantID {
				t.Errorf("SelectOrganization() = %v, want %v", got.ID, tt.wantID)
			}
		})
	}
}

func TestSelectOrganization_SingleOrgDefault(t *testing.T) {
	orgs := []meraki.Organization{{ID: "only", Name: "Solo"}}
	got, err := SelectOrganization("", orgs)
	if err != nil {
		t.Fatalf("SelectOrganization(\"\") unexpected error: %v", err)
	}
	if got.ID != "only" {
		t.Errorf("SelectOrganization(\"\") = %v, want the single org", got.ID)
	}
}

func TestSelectNetworks(t *testing.T) {
	networks := []meraki.Network{
		{ID: "net1", Name: "Network 1"},
		{ID: "net2", Name: "Network 2"},
		{ID: "net3", Name: "Network 3"},
	}

	tests := []struct {
		name        string
		networkName string
		wantCount   int
		wantErr     bool
	}{
		{
			name:        "ALL networks",
			networkName: "ALL",
			wantCount:   3,
		},
		{
			name:        "all lowercase",
			networkName: "all",
			wantCount:   3,
		},
		{
			name:        "specific network",
			networkName: "Network 1",
			wantCount:   1,
		},
		{
			name:        "not found",
			networkName: "Non-existent",
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectNetworks(tt.networkName, networks)
			if (err != nil) != tt.wantErr {
				t.Errorf("SelectNetworks() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && len(got) != tt.wantCount {
				t.Errorf("SelectNetworks() returned %d networks, want %d", len(got), tt.wantCount)
			}
		})
	}
}

func TestSortedNetworkNames(t *testing.T) {
	networks := []meraki.Network{
		{ID: "1", Name: "zurich-office"},
		{ID: "2", Name: "Amsterdam"},
		{ID: "3", Name: "berlin"},
		{ID: "4", Name: "Chicago"},
	}

	got := SortedNetworkNames(networks)
	want := []string{"Amsterdam", "berlin", "Chicago", "zurich-office"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortedNetworkNames() = %v, want %v", got, want)
	}

	// Input order is untouched.
	if networks[0].Name != "zurich-office" {
		t.Error("SortedNetworkNames() modified its input")
	}
}

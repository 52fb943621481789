package meraki

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAPIErrorNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want bool
	}{
		{
			name: "404 status",
			err:  &APIError{StatusCode: 404, Message: `{"errors":["whatever"]}`},
			want: true,
		},
		{
			name: "not found message",
			err:  &APIError{StatusCode: 400, Message: `{"errors":["Client not found"]}`},
			want: true,
		},
		{
			name: "server error",
			err:  &APIError{StatusCode: 500, Message: "internal error"},
			want: false,
		},
		{
			name: "rate limit leak",
			err:  &APIError{StatusCode: 429, Message: "too many requests"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.NotFound(); got != tt.want {
				t.Errorf("NotFound() = %v, want %v", got, tt.want)
			}
			if got := IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsNotFound_NonAPIError(t *testing.T) {
	if IsNotFound(errors.New("not found")) {
		t.Error("IsNotFound() should be false for a plain error")
	}
	if IsNotFound(nil) {
		t.Error("IsNotFound(nil) should be false")
	}
}

func TestGetOrganizations_Paginated(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Cisco-Meraki-API-Key") != "test-key" {
			t.Errorf("missing API key header")
		}
		switch r.URL.Query().Get("page") {
		case "":
			w.Header().Set("Link", fmt.Sprintf("<%s/organizations?page=2>; rel=\"next\"", server.URL))
			fmt.Fprint(w, `[{"id":"1","name":"Org One"}]`)
		case "2":
			fmt.Fprint(w, `[{"id":"2","name":"Org Two"}]`)
		}
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, 1)
	orgs, err := client.GetOrganizations(context.Background())
	if err != nil {
		t.Fatalf("GetOrganizations() unexpected error: %v", err)
	}
	if len(orgs) != 2 {
		t.Fatalf("GetOrganizations() returned %d orgs, want 2 (paginated)", len(orgs))
	}
	if orgs[1].Name != "Org Two" {
		t.Errorf("orgs[1].Name = %q, want Org Two", orgs[1].Name)
	}
}

func TestResolveOrganizationID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id":"111","name":"Acme"},{"id":"222","name":"Globex"}]`)
	}))
	defer server.Close()

	client := NewClient("k", server.URL, 1)

	id, err := client.ResolveOrganizationID(context.Background(), "Globex")
	if err != nil {
		t.Fatalf("ResolveOrganizationID() unexpected error: %v", err)
	}
	if id != "222" {
		t.Errorf("ResolveOrganizationID() = %q, want 222", id)
	}

	if _, err := client.ResolveOrganizationID(context.Background(), "Initech"); err == nil {
		t.Error("ResolveOrganizationID() should fail for an unknown organization")
	}
}

func TestGetClientApplicationUsage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("clients"); got != "aa:bb:cc:dd:ee:ff" {
			t.Errorf("clients param = %q", got)
		}
		if got := r.URL.Query().Get("timespan"); got != "86400" {
			t.Errorf("timespan param = %q", got)
		}
		fmt.Fprint(w, `[{"clientId":"k1","applicationUsage":[
			{"application":"Netflix","received":2048,"sent":100},
			{"application":"DNS","received":10,"sent":5}
		]}]`)
	}))
	defer server.Close()

	client := NewClient("k", server.URL, 1)
	usage, err := client.GetClientApplicationUsage(context.Background(), "N_1", "aa:bb:cc:dd:ee:ff", 86400)
	if err != nil {
		t.Fatalf("GetClientApplicationUsage() unexpected error: %v", err)
	}
	if len(usage) != 2 {
		t.Fatalf("GetClientApplicationUsage() returned %d apps, want 2", len(usage))
	}
	if usage[0].Application != "Netflix" || usage[0].Received != 2048 {
		t.Errorf("usage[0] = %+v", usage[0])
	}
}

func TestFetchClientDetails_EmptyMacMakesNoCalls(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	client := NewClient("k", server.URL, 1)
	networks := []Network{{ID: "N_1", Name: "HQ"}, {ID: "N_2", Name: "Branch"}}

	details, err := client.FetchClientDetails(context.Background(), "", 86400, networks)
	if err != nil {
		t.Fatalf("FetchClientDetails() unexpected error: %v", err)
	}
	if calls != 0 {
		t.Errorf("FetchClientDetails(\"\") made %d API calls, want 0", calls)
	}
	if len(details) != 2 {
		t.Fatalf("FetchClientDetails() returned %d entries, want 2", len(details))
	}
	for name, d := range details {
		if d.Present {
			t.Errorf("network %s should be absent for an empty MAC", name)
		}
	}
}

func TestFetchClientDetails_NotFoundContinues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/networks/N_1/clients":
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"errors":["Client not found"]}`)
		case r.URL.Path == "/networks/N_2/clients":
			fmt.Fprint(w, `[{"mac":"aa:bb:cc:dd:ee:ff","ip":"10.0.0.5","description":"laptop",
				"recentDeviceConnection":"Wireless","ssid":"corp-wifi","vlan":10}]`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient("k", server.URL, 1)
	networks := []Network{{ID: "N_1", Name: "HQ"}, {ID: "N_2", Name: "Branch"}}

	details, err := client.FetchClientDetails(context.Background(), "aa:bb:cc:dd:ee:ff", 86400, networks)
	if err != nil {
		t.Fatalf("FetchClientDetails() unexpected error: %v", err)
	}
	if details["HQ"].Present {
		t.Error("HQ should be absent (API not found)")
	}
	branch := details["Branch"]
	if !branch.Present {
		t.Fatal("Branch should be present")
	}
	if !branch.Client.Wireless() || branch.Client.SSID != "corp-wifi" {
		t.Errorf("Branch client = %+v, want wireless with SSID corp-wifi", branch.Client)
	}
	if branch.Client.VLANString() != "10" {
		t.Errorf("VLANString() = %q, want 10", branch.Client.VLANString())
	}
}

func TestFetchClientDetails_OtherErrorAborts(t *testing.T) {
	n2Queried := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/networks/N_1/clients":
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"errors":["backend unavailable"]}`)
		case "/networks/N_2/clients":
			n2Queried = true
			fmt.Fprint(w, `[]`)
		}
	}))
	defer server.Close()

	client := NewClient("k", server.URL, 1)
	networks := []Network{{ID: "N_1", Name: "HQ"}, {ID: "N_2", Name: "Branch"}}

	details, err := client.FetchClientDetails(context.Background(), "aa:bb:cc:dd:ee:ff", 86400, networks)
	if err == nil {
		t.Fatal("FetchClientDetails() should abort on a non-not-found API error")
	}
	if details != nil {
		t.Error("FetchClientDetails() should not return partial results on abort")
	}
	if n2Queried {
		t.Error("networks after the failing one should not be queried")
	}
}

func TestParseLinkNext(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{
			name:   "next present",
			header: `<https://api.meraki.com/api/v1/organizations?page=2>; rel="next", <https://api.meraki.com/api/v1/organizations?page=9>; rel="last"`,
			want:   "https://api.meraki.com/api/v1/organizations?page=2",
		},
		{
			name:   "no next",
			header: `<https://api.meraki.com/api/v1/organizations?page=1>; rel="first"`,
			want:   "",
		},
		{
			name:   "empty header",
			header: "",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseLinkNext(tt.header); got != tt.want {
				t.Errorf("parseLinkNext() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVLANString(t *testing.T) {
	tests := []struct {
		name string
		vlan interface{}
		want string
	}{
		{name: "number", vlan: float64(10), want: "10"},
		{name: "string", vlan: "20", want: "20"},
		{name: "null", vlan: nil, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NetworkClient{VLAN: tt.vlan}
			if got := c.VLANString(); got != tt.want {
				t.Errorf("VLANString() = %q, want %q", got, tt.want)
			}
		})
	}
}

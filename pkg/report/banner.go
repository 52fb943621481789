package report

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// geoURL is the public geolocation endpoint used for the report banner.
var geoURL = "https://get.geojs.io/v1/ip/geo.json"

// geoInfo is the subset of the geolocation response the banner uses.
type geoInfo struct {
	IP      string `json:"ip"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// Banner describes where and when the report was generated. The location
// lookup is best effort: on any failure the banner degrades to time only.
func Banner(client *http.Client, now time.Time) string {
	stamp := now.Format("2006-01-02 15:04:05 MST")

	if client == nil {
		client = &http.Client{Timeout: 3 * time.Second}
	}
	resp, err := client.Get(geoURL)
	if err != nil {
		return fmt.Sprintf("Generated at %s", stamp)
	}
	defer resp.Body.Close()

	var info geoInfo
	if resp.StatusCode != http.StatusOK || json.NewDecoder(resp.Body).Decode(&info) != nil || info.IP == "" {
		return fmt.Sprintf("Generated at %s", stamp)
	}

	location := info.IP
	if info.City != "" && info.Country != "" {
		location = fmt.Sprintf("%s, %s (%s)", info.City, info.Country, info.IP)
	}
	return fmt.Sprintf("Generated from %s at %s", location, stamp)
}

package report

import (
	"html/template"
	"sort"
	"strings"

	"Catalyst-Meraki-Client-Tracker/pkg/usage"
)

// chartData is one usage chart prepared for rendering: each slice carries
// its share of the largest slice so the template can draw proportional bars.
type chartData struct {
	Title   string
	Entries []chartBar
}

type chartBar struct {
	Label   string
	Percent float64
}

func newChartData(title string, chart usage.Chart) chartData {
	data := chartData{Title: title}
	var maxKB float64
	for _, e := range chart {
		if e.KB > maxKB {
			maxKB = e.KB
		}
	}
	for _, e := range chart {
		percent := 0.0
		if maxKB > 0 {
			percent = e.KB / maxKB * 100
		}
		data.Entries = append(data.Entries, chartBar{Label: e.Label, Percent: percent})
	}
	return data
}

func sortedStrings(values []string) []string {
	sort.SliceStable(values, func(i, j int) bool {
		return strings.ToLower(values[i]) < strings.ToLower(values[j])
	})
	return values
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>Client Tracker</title>
  <style>
    body { font-family: sans-serif; margin: 2em; }
    label { display: block; margin-top: 1em; }
    #progress { margin-top: 1em; display: none; }
    #bar { height: 1em; background: #4a90d9; width: 0%; transition: width 0.3s; }
    #track { border: 1px solid #999; width: 20em; }
  </style>
</head>
<body>
  <h1>Client Tracker</h1>
  <p>Look up a network client by MAC or IP address across the switch fleet and the dashboard.</p>
  <form id="lookup" method="post" action="/display">
    <label>MAC address <input type="text" name="mac" placeholder="aa:bb:cc:dd:ee:ff"></label>
    <label>IP address <input type="text" name="ip" placeholder="10.0.0.5"></label>
    <label>Network
      <select name="network">
        <option value="ALL">ALL</option>
        {{range .Networks}}<option value="{{.}}">{{.}}</option>
        {{end}}
      </select>
    </label>
    <label>Timespan
      <select name="timespan">
        <option value="24 Hours">24 Hours</option>
        <option value="1 Week">1 Week</option>
      </select>
    </label>
    <label>Custom timespan (hours) <input type="text" name="custom_timespan" placeholder=""></label>
    <button type="submit">Search</button>
  </form>
  <div id="progress">
    <div id="track"><div id="bar"></div></div>
    <span id="pct">0%</span>
  </div>
  <script>
    document.getElementById("lookup").addEventListener("submit", function () {
      document.getElementById("progress").style.display = "block";
      var apply = function (p) {
        document.getElementById("bar").style.width = p + "%";
        document.getElementById("pct").textContent = p + "%";
      };
      try {
        var proto = location.protocol === "https:" ? "wss://" : "ws://";
        var ws = new WebSocket(proto + location.host + "/ws/progress");
        ws.onmessage = function (ev) { apply(JSON.parse(ev.data).progress); };
      } catch (e) {
        setInterval(function () {
          fetch("/progress").then(function (r) { return r.json(); })
            .then(function (d) { apply(d.progress); });
        }, 1000);
      }
    });
  </script>
</body>
</html>
`))

var displayTemplate = template.Must(template.New("display").Parse(`<!DOCTYPE html>
<html>
<head>
  <title>Client Tracker - Results</title>
  <style>
    body { font-family: sans-serif; margin: 2em; }
    table { border-collapse: collapse; margin-bottom: 2em; }
    th, td { border: 1px solid #999; padding: 0.3em 0.7em; text-align: left; }
    th { background: #eee; }
    .banner { color: #555; font-style: italic; }
    .bar { height: 1em; background: #4a90d9; display: inline-block; }
    .chart div { margin: 0.2em 0; white-space: nowrap; }
    .chart span { margin-left: 0.5em; font-size: 0.9em; }
  </style>
</head>
<body>
  <h1>Lookup Results</h1>
  <p class="banner">{{.Banner}}</p>
  {{if not .Found}}<p><strong>The client was not found on any switch in the inventory.</strong></p>{{end}}
  <p>
    <a href="/">New lookup</a> |
    <a href="/download/client/catalyst">Catalyst CSV</a> |
    <a href="/download/client/meraki">Meraki CSV</a> |
    <a href="/download/usage">Usage CSV</a>
  </p>
  {{range .Tables}}{{.}}{{end}}
  {{range .Charts}}
  <h2>{{.Title}}</h2>
  <div class="chart">
    {{range .Entries}}<div><span class="bar" style="width: {{printf "%.0f" .Percent}}%"></span><span>{{.Label}}</span></div>
    {{end}}
  </div>
  {{end}}
</body>
</html>
`))

package report

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"Catalyst-Meraki-Client-Tracker/pkg/filters"
	"Catalyst-Meraki-Client-Tracker/pkg/logger"
	"Catalyst-Meraki-Client-Tracker/pkg/output"
)

// Server exposes the lookup as a small web application: a search form, a
// result page, live progress over polling and websocket, and CSV downloads
// of the last completed lookup.
type Server struct {
	pipeline *Pipeline
	tracker  *Tracker
	log      *logger.Logger
	router   *mux.Router
	upgrader websocket.Upgrader

	mu   sync.RWMutex
	last *Result
}

// NewServer wires the routes around a configured pipeline.
func NewServer(pipeline *Pipeline, log *logger.Logger) *Server {
	s := &Server{
		pipeline: pipeline,
		tracker:  pipeline.Tracker,
		log:      log,
		router:   mux.NewRouter(),
	}

	s.router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	s.router.HandleFunc("/display", s.handleDisplay).Methods(http.MethodPost)
	s.router.HandleFunc("/display", s.handleDisplayRefresh).Methods(http.MethodGet)
	s.router.HandleFunc("/progress", s.handleProgress).Methods(http.MethodGet)
	s.router.HandleFunc("/ws/progress", s.handleProgressSocket)
	s.router.HandleFunc("/download/client/catalyst", s.handleDownloadCatalyst).Methods(http.MethodGet)
	s.router.HandleFunc("/download/client/meraki", s.handleDownloadMeraki).Methods(http.MethodGet)
	s.router.HandleFunc("/download/usage", s.handleDownloadUsage).Methods(http.MethodGet)
	return s
}

// ServeHTTP makes the server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Networks []string
	}{
		Networks: filters.SortedNetworkNames(s.pipeline.Networks),
	}
	s.render(w, indexTemplate, data)
}

// handleDisplay runs a lookup synchronously; the index page polls /progress
// (or listens on /ws/progress) while this request is in flight.
func (s *Server) handleDisplay(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}

	id, err := NewIdentity(r.FormValue("mac"), r.FormValue("ip"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	selection := r.FormValue("timespan")
	if custom := r.FormValue("custom_timespan"); custom != "" {
		selection = custom
	}
	timespan, err := ConvertToSeconds(selection)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	networkName := r.FormValue("network")
	if networkName == "" {
		networkName = "ALL"
	}
	networks, err := filters.SelectNetworks(networkName, s.pipeline.Networks)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	pipeline := *s.pipeline
	pipeline.Networks = networks
	result, err := pipeline.Run(r.Context(), id, timespan)
	if err != nil {
		s.log.Errorf("lookup failed: %v", err)
		http.Error(w, "lookup failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	s.mu.Lock()
	s.last = result
	s.mu.Unlock()
	s.renderResult(w, result)
}

func (s *Server) handleDisplayRefresh(w http.ResponseWriter, r *http.Request) {
	result := s.lastResult()
	if result == nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.renderResult(w, result)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{"progress": s.tracker.Get()})
}

// handleProgressSocket pushes every progress change to the client instead of
// making it poll. The connection closes when the peer goes away.
func (s *Server) handleProgressSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debugf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := s.tracker.Subscribe()
	defer cancel()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(value int) bool {
		return conn.WriteJSON(map[string]int{"progress": value}) == nil
	}
	if !send(s.tracker.Get()) {
		return
	}
	for {
		select {
		case value := <-updates:
			if !send(value) {
				return
			}
		case <-closed:
			return
		}
	}
}

func (s *Server) handleDownloadCatalyst(w http.ResponseWriter, r *http.Request) {
	result := s.lastResult()
	if result == nil {
		http.Error(w, "no lookup has completed yet", http.StatusNotFound)
		return
	}
	tables := []*output.Table{
		output.CatalystTable(result.Catalyst, result.Identity.MAC, result.Identity.IP),
		output.CDPTable(result.Catalyst),
		output.LLDPTable(result.Catalyst),
	}
	s.sendCSV(w, "catalyst_client.csv", tables)
}

func (s *Server) handleDownloadMeraki(w http.ResponseWriter, r *http.Request) {
	result := s.lastResult()
	if result == nil {
		http.Error(w, "no lookup has completed yet", http.StatusNotFound)
		return
	}
	names := make([]string, 0, len(result.Details))
	for name := range result.Details {
		names = append(names, name)
	}
	table := output.MerakiTable(result.Details, sortedStrings(names))
	s.sendCSV(w, "meraki_client.csv", []*output.Table{table})
}

func (s *Server) handleDownloadUsage(w http.ResponseWriter, r *http.Request) {
	result := s.lastResult()
	if result == nil {
		http.Error(w, "no lookup has completed yet", http.StatusNotFound)
		return
	}
	s.sendCSV(w, "client_usage.csv", output.UsageTables(result.Usage))
}

func (s *Server) sendCSV(w http.ResponseWriter, filename string, tables []*output.Table) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	output.WriteCSVAll(w, tables)
}

func (s *Server) lastResult() *Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// renderResult renders the display page, embedding each result table as
// pre-escaped HTML produced by the output writers.
func (s *Server) renderResult(w http.ResponseWriter, result *Result) {
	names := make([]string, 0, len(result.Details))
	for name := range result.Details {
		names = append(names, name)
	}

	tables := []*output.Table{
		output.CatalystTable(result.Catalyst, result.Identity.MAC, result.Identity.IP),
		output.CDPTable(result.Catalyst),
		output.LLDPTable(result.Catalyst),
		output.MerakiTable(result.Details, sortedStrings(names)),
	}
	tables = append(tables, output.UsageTables(result.Usage)...)

	rendered := make([]template.HTML, 0, len(tables))
	for _, t := range tables {
		var buf bytes.Buffer
		output.WriteHTML(&buf, t)
		rendered = append(rendered, template.HTML(buf.String()))
	}

	charts := make([]chartData, 0, len(result.Usage.Networks)+1)
	charts = append(charts, newChartData("Usage Summary", result.Usage.SummaryChart))
	for _, nu := range result.Usage.Networks {
		charts = append(charts, newChartData("Usage - "+nu.NetworkName, nu.Chart))
	}

	data := struct {
		Banner string
		Found  bool
		Tables []template.HTML
		Charts []chartData
	}{
		Banner: result.Banner,
		Found:  result.Found,
		Tables: rendered,
		Charts: charts,
	}
	s.render(w, displayTemplate, data)
}

func (s *Server) render(w http.ResponseWriter, tmpl *template.Template, data interface{}) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		s.log.Errorf("template render failed: %v", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

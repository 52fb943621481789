// Package main provides a tool for tracking a network client across Cisco
// Catalyst switches and the Meraki Dashboard. It locates the client on the
// switch fleet over SSH, enriches it with per-network cloud details and
// application usage, and serves the result as a one-shot report or a small
// web application.
package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"sort"
	"strings"

	"Catalyst-Meraki-Client-Tracker/pkg/catalyst"
	"Catalyst-Meraki-Client-Tracker/pkg/filters"
	"Catalyst-Meraki-Client-Tracker/pkg/logger"
	"Catalyst-Meraki-Client-Tracker/pkg/meraki"
	"Catalyst-Meraki-Client-Tracker/pkg/output"
	"Catalyst-Meraki-Client-Tracker/pkg/report"

	"github.com/joho/godotenv"
)

// Config holds all configuration options from environment variables and command-line flags.
type Config struct {
	APIKey        string // Meraki Dashboard API key
	OrgName       string // Organization name filter
	NetworkName   string // Network name filter or "ALL"
	OutputFormat  string // Output format: csv, text, or html
	BaseURL       string // Meraki API base URL
	InventoryFile string // Path to the switch inventory JSON file
	ListenAddr    string // Web server listen address
	LogFile       string // Path to log file
	LogLevel      string // Log level: DEBUG, INFO, WARNING, ERROR
}

// Version information injected at build time via ldflags.
// Build with: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=<git-sha> -X main.BuildTime=<timestamp>"
const (
	RepositoryURL = "https://github.com/bci/Catalyst-Meraki-Client-Tracker"
)

var (
	Version   = "dev"     // Version set at build time
	Commit    = "unknown" // Git commit SHA set at build time
	BuildTime = "unknown" // Build timestamp set at build time
	GoVersion = "go1.21"  // Go version (can be updated at build time)
)

func main() {
	_ = godotenv.Load()

	macFlag := flag.String("mac", "", "MAC address of the client to track")
	ipFlag := flag.String("ip", "", "IP address of the client to track")
	timespanFlag := flag.String("timespan", "", "Usage lookback: '24 Hours', '1 Week', or a number of hours")
	networkFlag := flag.String("network", "", "Network name or ALL")
	orgFlag := flag.String("org", "", "Organization name")
	outputFlag := flag.String("output-format", "", "Output format: csv, text, html")
	inventoryFlag := flag.String("inventory", "", "Switch inventory JSON file")
	serveFlag := flag.Bool("serve", false, "Run the web interface instead of a one-shot lookup")
	listenFlag := flag.String("listen", "", "Web server listen address (default :8080)")
	listOrgsFlag := flag.Bool("list-orgs", false, "List organizations the API key can access and exit")
	listNetworksFlag := flag.Bool("list-networks", false, "List networks per organization and exit")
	testAPIFlag := flag.Bool("test-api", false, "Validate API key and exit")
	logFileFlag := flag.String("log-file", "", "Log file path")
	logLevelFlag := flag.String("log-level", "", "Log level: DEBUG, INFO, WARNING, ERROR")
	versionFlag := flag.Bool("version", false, "Show version and exit")
	helpFlag := flag.Bool("help", false, "Show help")
	flag.Usage = func() {
		printUsage(os.Stdout)
	}
	flag.Parse()

	cfg := Config{
		APIKey:        strings.TrimSpace(os.Getenv("MERAKI_API_KEY")),
		OrgName:       strings.TrimSpace(firstNonEmpty(*orgFlag, os.Getenv("MERAKI_ORG"))),
		NetworkName:   strings.TrimSpace(firstNonEmpty(*networkFlag, os.Getenv("MERAKI_NETWORK"))),
		OutputFormat:  strings.TrimSpace(firstNonEmpty(*outputFlag, os.Getenv("OUTPUT_FORMAT"))),
		BaseURL:       strings.TrimSpace(firstNonEmpty(os.Getenv("MERAKI_BASE_URL"), "https://api.meraki.com/api/v1")),
		InventoryFile: strings.TrimSpace(firstNonEmpty(*inventoryFlag, os.Getenv("SWITCH_INVENTORY_FILE"), "switches.json")),
		ListenAddr:    strings.TrimSpace(firstNonEmpty(*listenFlag, os.Getenv("LISTEN_ADDR"), ":8080")),
		LogFile:       strings.TrimSpace(firstNonEmpty(*logFileFlag, os.Getenv("LOG_FILE"), "Catalyst-Meraki-Client-Tracker.log")),
		LogLevel:      strings.TrimSpace(firstNonEmpty(*logLevelFlag, os.Getenv("LOG_LEVEL"), "DEBUG")),
	}

	if *helpFlag {
		printUsage(os.Stdout)
		return
	}

	if *versionFlag {
		printVersion(os.Stdout)
		return
	}

	log := logger.New(cfg.LogFile, logger.ParseLogLevel(cfg.LogLevel))

	if cfg.APIKey == "" {
		exitWithError(log, "MERAKI_API_KEY is required in .env or environment")
	}
	if cfg.NetworkName == "" {
		cfg.NetworkName = "ALL"
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = "text"
	}

	cfg.OutputFormat = strings.ToLower(cfg.OutputFormat)
	if cfg.OutputFormat != "csv" && cfg.OutputFormat != "text" && cfg.OutputFormat != "html" {
		exitWithError(log, "--output-format must be one of: csv, text, html")
	}

	client := meraki.NewClient(cfg.APIKey, cfg.BaseURL, 6)
	ctx := context.Background()

	if *testAPIFlag {
		orgs, err := client.GetOrganizations(ctx)
		if err != nil {
			exitWithError(log, err.Error())
		}
		fmt.Fprintf(os.Stdout, "API OK: %d organizations found\n", len(orgs))
		return
	}

	if *listOrgsFlag {
		orgs, err := client.GetOrganizations(ctx)
		if err != nil {
			exitWithError(log, err.Error())
		}
		writeOrganizations(os.Stdout, orgs)
		return
	}

	if *listNetworksFlag {
		orgs, err := client.GetOrganizations(ctx)
		if err != nil {
			exitWithError(log, err.Error())
		}
		if cfg.OrgName != "" {
			org, err := filters.SelectOrganization(cfg.OrgName, orgs)
			if err != nil {
				exitWithError(log, err.Error())
			}
			networks, err := client.GetNetworks(ctx, org.ID)
			if err != nil {
				exitWithError(log, err.Error())
			}
			writeNetworksForOrg(os.Stdout, org, networks)
			return
		}
		for _, org := range orgs {
			networks, err := client.GetNetworks(ctx, org.ID)
			if err != nil {
				exitWithError(log, err.Error())
			}
			writeNetworksForOrg(os.Stdout, org, networks)
		}
		return
	}

	inventory, err := catalyst.LoadInventory(cfg.InventoryFile)
	if err != nil {
		exitWithError(log, err.Error())
	}
	log.Infof("loaded %d switches from %s", len(inventory), cfg.InventoryFile)

	orgs, err := client.GetOrganizations(ctx)
	if err != nil {
		exitWithError(log, err.Error())
	}
	org, err := filters.SelectOrganization(cfg.OrgName, orgs)
	if err != nil {
		exitWithError(log, err.Error())
	}
	log.Infof("organization: %s", org.Name)

	networks, err := client.GetNetworks(ctx, org.ID)
	if err != nil {
		exitWithError(log, err.Error())
	}

	pipeline := &report.Pipeline{
		Inventory: inventory,
		Locator:   &catalyst.Locator{Channel: catalyst.NewSSHChannel(), Log: log},
		Cloud:     client,
		Networks:  networks,
		Tracker:   report.NewTracker(),
		Log:       log,
	}

	if *serveFlag {
		srv := &http.Server{
			Addr:     cfg.ListenAddr,
			Handler:  report.NewServer(pipeline, log),
			ErrorLog: stdlog.New(log.Writer(), "http: ", stdlog.LstdFlags),
		}
		log.Infof("listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil {
			exitWithError(log, err.Error())
		}
		return
	}

	// One-shot lookup to stdout.
	id, err := report.NewIdentity(*macFlag, *ipFlag)
	if err != nil {
		exitWithError(log, err.Error())
	}
	timespan, err := report.ConvertToSeconds(*timespanFlag)
	if err != nil {
		exitWithError(log, err.Error())
	}
	pipeline.Networks, err = filters.SelectNetworks(cfg.NetworkName, networks)
	if err != nil {
		exitWithError(log, err.Error())
	}

	result, err := pipeline.Run(ctx, id, timespan)
	if err != nil {
		exitWithError(log, err.Error())
	}
	writeResult(os.Stdout, cfg.OutputFormat, result)
}

// writeResult renders every result table to w in the selected format.
func writeResult(w *os.File, format string, result *report.Result) {
	tables := []*output.Table{
		output.CatalystTable(result.Catalyst, result.Identity.MAC, result.Identity.IP),
		output.CDPTable(result.Catalyst),
		output.LLDPTable(result.Catalyst),
		output.MerakiTable(result.Details, networkNames(result.Details)),
	}
	tables = append(tables, output.UsageTables(result.Usage)...)

	switch format {
	case "csv":
		output.WriteCSVAll(w, tables)
	case "html":
		for _, t := range tables {
			output.WriteHTML(w, t)
		}
	default:
		fmt.Fprintln(w, result.Banner)
		fmt.Fprintln(w)
		for _, t := range tables {
			output.WriteText(w, t)
			fmt.Fprintln(w)
		}
	}
}

// networkNames returns the detail map's network names sorted case-insensitively.
func networkNames(details meraki.ClientDetails) []string {
	names := make([]string, 0, len(details))
	for name := range details {
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names
}

// firstNonEmpty returns the first non-empty string from the provided values.
// Returns empty string if all values are empty or contain only whitespace.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// exitWithError logs an error message and exits the program with status code 1.
// If log is nil, the error is written to stderr instead.
func exitWithError(log *logger.Logger, msg string) {
	if log != nil {
		log.Errorf(msg)
	} else {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", msg)
	}
	os.Exit(1)
}

// printUsage writes comprehensive help text to the specified file.
// Includes all command-line flags, environment variables, and usage examples.
func printUsage(w *os.File) {
	fmt.Fprintln(w, "Catalyst-Meraki-Client-Tracker - track a client across switches and the dashboard")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  Catalyst-Meraki-Client-Tracker --mac aa:bb:cc:dd:ee:ff --network ALL --org \"My Org\"")
	fmt.Fprintln(w, "  Catalyst-Meraki-Client-Tracker --serve --listen :8080")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  --mac <mac>                 MAC address of the client (this or --ip is required)")
	fmt.Fprintln(w, "  --ip <ip>                   IP address of the client")
	fmt.Fprintln(w, "  --timespan <selection>      Usage lookback: '24 Hours', '1 Week', or hours (default 24 Hours)")
	fmt.Fprintln(w, "  --network <name|ALL>        Network name or ALL (default from .env)")
	fmt.Fprintln(w, "  --org <name>                Organization name (default from .env)")
	fmt.Fprintln(w, "  --output-format <csv|text|html>  Output format (default text)")
	fmt.Fprintln(w, "  --inventory <filename>      Switch inventory JSON file (default switches.json)")
	fmt.Fprintln(w, "  --serve                     Run the web interface")
	fmt.Fprintln(w, "  --listen <addr>             Web server listen address (default :8080)")
	fmt.Fprintln(w, "  --list-orgs                 List organizations and exit")
	fmt.Fprintln(w, "  --list-networks             List networks per organization and exit")
	fmt.Fprintln(w, "  --test-api                  Validate API key and exit")
	fmt.Fprintln(w, "  --log-file <filename>       Log file path (default from .env)")
	fmt.Fprintln(w, "  --log-level <DEBUG|INFO|WARNING|ERROR>  Log level (default from .env)")
	fmt.Fprintln(w, "  --version                   Show version and exit")
	fmt.Fprintln(w, "  --help                      Show this help")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  MERAKI_API_KEY         Meraki Dashboard API key (required)")
	fmt.Fprintln(w, "  MERAKI_ORG             Default org name")
	fmt.Fprintln(w, "  MERAKI_NETWORK         Default network name or ALL")
	fmt.Fprintln(w, "  MERAKI_BASE_URL        API base URL (default https://api.meraki.com/api/v1)")
	fmt.Fprintln(w, "  SWITCH_INVENTORY_FILE  Switch inventory JSON file (default switches.json)")
	fmt.Fprintln(w, "  LISTEN_ADDR            Web server listen address")
	fmt.Fprintln(w, "  OUTPUT_FORMAT          csv | text | html")
	fmt.Fprintln(w, "  LOG_FILE               Log file path (default Catalyst-Meraki-Client-Tracker.log)")
	fmt.Fprintln(w, "  LOG_LEVEL              DEBUG | INFO | WARNING | ERROR")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  Catalyst-Meraki-Client-Tracker --mac aa:bb:cc:dd:ee:ff")
	fmt.Fprintln(w, "  Catalyst-Meraki-Client-Tracker --ip 10.0.0.5 --timespan '1 Week' --output-format csv")
	fmt.Fprintln(w, "  Catalyst-Meraki-Client-Tracker --serve")
	fmt.Fprintln(w, "  Catalyst-Meraki-Client-Tracker --list-orgs")
	fmt.Fprintln(w, "  Catalyst-Meraki-Client-Tracker --list-networks --org \"My Org\"")
	fmt.Fprintln(w, "  Catalyst-Meraki-Client-Tracker --test-api")
}

// writeOrganizations writes a formatted list of organizations to the specified file.
func writeOrganizations(w *os.File, orgs []meraki.Organization) {
	fmt.Fprintln(w, "Organizations:")
	for _, org := range orgs {
		fmt.Fprintf(w, "- %s (%s)\n", org.Name, org.ID)
	}
}

// writeNetworksForOrg writes a formatted list of networks for an organization to the specified file.
func writeNetworksForOrg(w *os.File, org meraki.Organization, networks []meraki.Network) {
	fmt.Fprintf(w, "Organization: %s (%s)\n", org.Name, org.ID)
	if len(networks) == 0 {
		fmt.Fprintln(w, "  (no networks)")
		return
	}
	for _, n := range networks {
		fmt.Fprintf(w, "  - %s (%s)\n", n.Name, n.ID)
	}
}

// printVersion writes version and build information to the specified file.
func printVersion(w *os.File) {
	fmt.Fprintf(w, "Catalyst-Meraki-Client-Tracker version %s\n", Version)
	fmt.Fprintf(w, "  Commit:     %s\n", Commit)
	fmt.Fprintf(w, "  Build Time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Go Version: %s\n", GoVersion)
	fmt.Fprintf(w, "  Repository: %s\n", RepositoryURL)
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/FlagWatch/FlagWatch/internal/api"
	"github.com/FlagWatch/FlagWatch/internal/config"
)

var serveHost string
var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the status API and web page",
	Run:   runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Bind host (defaults to api.host from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Bind port (defaults to api.port from config)")
}

func runServe(cmd *cobra.Command, args []string) {
	printHeader("🇺🇸 FlagWatch API")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Config error: %v\n", err)
		os.Exit(1)
	}

	host := cfg.API.Host
	if serveHost != "" {
		host = serveHost
	}
	port := cfg.API.Port
	if servePort > 0 {
		port = servePort
	}

	st, err := buildStore(cfg)
	if err != nil {
		fmt.Printf("Store error: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	fmt.Printf("Serving %s on http://%s\n", st, addr)
	fmt.Println("Press Ctrl+C to stop.")
	if err := api.NewServer(st).ListenAndServe(addr); err != nil {
		fmt.Printf("Server error: %v\n", err)
		os.Exit(1)
	}
}

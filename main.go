package main

import (
	"flag"
	"log"

	"dnsapply/internal/config"
	"dnsapply/internal/server"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	log.Println("=== dnsapply — DNS Change Requests ===")
	log.Printf("Version: %s", version)
	log.Printf("Listening on %s:%d", cfg.Server.Host, cfg.Server.Port)

	if cfg.Route53.Enabled {
		log.Printf("Publishing completed records to hosted zone %s", cfg.Route53.HostedZoneID)
	} else {
		log.Println("Route53 publication disabled; records are tracked locally only")
	}

	if err := server.Start(cfg, version); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// Command routes prints the API route table with each route's session requirement.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"strider/internal/config"
	"strider/internal/featureflags"
	"strider/internal/server"

	"gopkg.in/yaml.v3"
)

func main() {
	flags := flag.String("flags", "", "Feature flags to apply, e.g. public_captions=on (default: from config)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *flags != "" {
		cfg.FeatureFlags = *flags
	}

	out := struct {
		Flags  map[string]string  `yaml:"flags,omitempty"`
		Routes []server.RouteInfo `yaml:"routes"`
	}{
		Flags:  featureflags.NewManager(cfg.FeatureFlags).Raw(),
		Routes: server.DescribeRoutes(cfg),
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

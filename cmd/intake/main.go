package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/carelane/intake/cmd/intake/wizard"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	apiBaseURL := flag.String("api", "", "Intake API base URL (default: http://127.0.0.1:8000)")
	timeout := flag.Int("timeout", 0, "HTTP timeout in seconds (default: 30)")
	configFile := flag.String("config", "", "Load configuration from YAML file")
	saveConfig := flag.String("save-config", "", "Save the effective configuration to a YAML file and exit")

	help := flag.Bool("help", false, "Show help message")
	showVersion := flag.Bool("version", false, "Show version")

	flag.Parse()

	if *showVersion {
		fmt.Printf("intake %s\n", version)
		os.Exit(0)
	}

	if *help {
		printHelp()
		os.Exit(0)
	}

	cfg := wizard.DefaultConfig()

	if *configFile != "" {
		loaded, err := wizard.LoadFromYAML(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Flags and environment override the config file.
	cfg.ApplyEnv()
	if *apiBaseURL != "" {
		cfg.API.BaseURL = *apiBaseURL
	}
	if *timeout > 0 {
		cfg.API.TimeoutSeconds = *timeout
	}

	if *saveConfig != "" {
		if err := wizard.SaveToYAML(cfg, *saveConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration saved to %s\n", *saveConfig)
		os.Exit(0)
	}

	if err := wizard.Run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("intake")
	fmt.Println("======")
	fmt.Println()
	fmt.Println("Interactive patient check-in for the intake API.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  intake [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --api <URL>           Intake API base URL (default: http://127.0.0.1:8000)")
	fmt.Println("  --timeout <N>         HTTP timeout in seconds (default: 30)")
	fmt.Println("  --config <FILE>       Load configuration from a YAML file")
	fmt.Println("  --save-config <FILE>  Save the effective configuration to YAML and exit")
	fmt.Println("  --version             Show version")
	fmt.Println("  --help                Show this help message")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Printf("  %s  Overrides the API base URL\n", wizard.EnvBaseURL)
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Run against a local intake API")
	fmt.Println("  intake")
	fmt.Println()
	fmt.Println("  # Run against a staging API")
	fmt.Println("  intake --api https://intake-staging.example.com")
	fmt.Println()
	fmt.Println("  # Save the defaults as a starting config")
	fmt.Println("  intake --save-config intake.yaml")
	fmt.Println()
	fmt.Println("Flow:")
	fmt.Println("  The wizard walks a patient through three stages:")
	fmt.Println("  - Registration (demographics, one question per screen)")
	fmt.Println("  - Safety check (each answer is reviewed before the next question)")
	fmt.Println("  - Chief complaint (symptom categories, details, timing, free text)")
}

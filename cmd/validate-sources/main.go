package main

import (
	"fmt"
	"os"

	"github.com/pulseboard/eventpipe/sources"
)

/* validate-sources - Standalone CLI tool to validate sources.yaml
 * Usage: go run cmd/validate-sources/main.go [sources.yaml]
 * Exit codes: 0 = valid, 1 = invalid
 */

func main() {
	// Get sources file path from args or use default
	sourcesFile := "sources.yaml"
	if len(os.Args) > 1 {
		sourcesFile = os.Args[1]
	}

	fmt.Printf("Validating sources file: %s\n", sourcesFile)

	// Create loader and attempt to load sources
	loader := sources.NewLoader()
	if err := loader.Load(sourcesFile); err != nil {
		fmt.Fprintf(os.Stderr, "❌ VALIDATION FAILED\n\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Success - print loaded sources
	loaded := loader.List()
	fmt.Printf("✓ VALIDATION PASSED\n\n")
	fmt.Printf("Loaded %d source(s):\n", len(loaded))

	for i, source := range loaded {
		fmt.Printf("\n%d. Source: %s\n", i+1, source.SourceID)
		fmt.Printf("   Project:      %s\n", source.ProjectID)
		fmt.Printf("   Type:         %s\n", source.Type)
		if source.RateLimit > 0 {
			fmt.Printf("   Rate Limit:   %d per %s\n", source.RateLimit, source.RateWindow)
		}
		if source.MaxAttempts > 0 {
			fmt.Printf("   Max Attempts: %d\n", source.MaxAttempts)
		}
	}

	fmt.Printf("\n✓ All sources are valid!\n")
	os.Exit(0)
}

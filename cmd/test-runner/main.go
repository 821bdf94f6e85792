// Package main - test-runner
// Executable to run the in-process escalation scenario suite.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sablehall/vesper/server/test"
)

func main() {
	fmt.Println("VESPER HOUSE - ESCALATION SCENARIO SUITE")
	fmt.Println("========================================")

	ctx := context.Background()

	fmt.Println("\nRunning scenario: The Long Night...")
	scenario := test.NewLongNightScenario()
	scenario.RunScenario(ctx)

	results := scenario.GetResults()
	passed := 0
	failed := 0

	for _, r := range results {
		if r.Passed {
			passed++
		} else {
			failed++
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("SCENARIO SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("   Passed: %d\n", passed)
	fmt.Printf("   Failed: %d\n", failed)

	if failed > 0 {
		for _, r := range results {
			if !r.Passed {
				fmt.Printf("   FAILED %s: %s\n", r.PhaseName, r.Reason)
			}
		}
		fmt.Println("\nThe House requires recalibration")
		os.Exit(1)
	}

	fmt.Println("\nThe House is ready")
	os.Exit(0)
}

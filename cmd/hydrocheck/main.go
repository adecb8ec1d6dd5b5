// Command hydrocheck runs the capacity audit from the command line. It trains
// the model artifacts and checks individual PDF reports without the HTTP
// service.
//
// Usage:
//
//	hydrocheck train --dataset data/hydrogen_mock_1000.csv
//	hydrocheck check march.pdf --out pdf_check_results.csv
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

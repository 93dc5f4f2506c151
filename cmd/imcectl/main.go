// Command imcectl inspects the IMCE survey datasets from the terminal: it
// prints the executive summary, dataset status and page models, and exports
// page tables to Excel without starting the web server.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

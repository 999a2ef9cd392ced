// Command portal-admin is the back-office console of the BK portal: it lists
// and edits accounts, shows the KPI counters and manages content through the API.
package main

import (
	"os"
)

func main() {
	os.Exit(execute(newStreams()))
}

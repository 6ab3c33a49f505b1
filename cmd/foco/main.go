// Command foco manages a project board from the terminal: projects,
// tasks, and milestones, a colored kanban render, CSV import, zip
// export, and a serving mode that exposes the HTTP API with live
// events and due-date reminders.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/akam1o/arca-conf/pkg/ini"
)

// cmdCheck parses each file and reports a summary or the syntax error.
func cmdCheck(args []string, f *flags) int {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "Error: 'check' requires at least one file\n\n")
		showUsage()
		return ExitUsageError
	}

	failed := 0
	for _, path := range args {
		debugLog(f, "Checking %s", path)

		store, err := ini.Read(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			failed++
			continue
		}

		fmt.Printf("%s: OK (%d sections, %d keys)\n",
			path, len(store.Sections()), store.Len())
	}

	if failed > 0 {
		return ExitOperationError
	}
	return ExitSuccess
}

package main

import (
	"fmt"
	"os"

	"github.com/akam1o/arca-conf/pkg/ini"
)

// displaySection renders the default section's empty name readably.
func displaySection(name string) string {
	if name == "" {
		return "(default)"
	}
	return name
}

// cmdGet prints the value of one key.
func cmdGet(args []string, f *flags) int {
	if len(args) != 3 {
		fmt.Fprintf(os.Stderr, "Error: 'get' requires <file> <section> <key>\n\n")
		showUsage()
		return ExitUsageError
	}

	path, section, key := args[0], args[1], args[2]
	debugLog(f, "Reading %s", path)

	store, err := ini.Read(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return ExitOperationError
	}

	value, ok := store.Lookup(section, key)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: key %q not found in section %q\n", key, displaySection(section))
		return ExitOperationError
	}

	fmt.Println(value)
	return ExitSuccess
}

// cmdDump prints every entry of a file as a table.
func cmdDump(args []string, f *flags) int {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "Error: 'dump' requires <file>\n\n")
		showUsage()
		return ExitUsageError
	}

	path := args[0]
	debugLog(f, "Reading %s", path)

	store, err := ini.Read(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return ExitOperationError
	}

	entries := store.Dump()
	if len(entries) == 0 {
		fmt.Printf("%s: no entries\n", path)
		return ExitSuccess
	}

	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{displaySection(entry.Section), entry.Key, entry.Value})
	}

	if err := FormatTable(os.Stdout, []string{"SECTION", "KEY", "VALUE"}, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitOperationError
	}
	return ExitSuccess
}

// cmdSections lists the section names of a file.
func cmdSections(args []string, f *flags) int {
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "Error: 'sections' requires <file>\n\n")
		showUsage()
		return ExitUsageError
	}

	path := args[0]
	debugLog(f, "Reading %s", path)

	store, err := ini.Read(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return ExitOperationError
	}

	for _, section := range store.Sections() {
		fmt.Println(displaySection(section))
	}
	return ExitSuccess
}

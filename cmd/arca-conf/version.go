package main

import (
	"fmt"
)

func cmdVersion(f *flags) int {
	fmt.Printf("arca-conf\n")
	fmt.Printf("  Version:    %s\n", Version)
	fmt.Printf("  Commit:     %s\n", Commit)
	fmt.Printf("  Build Date: %s\n", BuildDate)

	return ExitSuccess
}

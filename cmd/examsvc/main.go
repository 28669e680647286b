package main

import (
	"fmt"
	"os"

	"github.com/onlineexam/examsvc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "examsvc:", err)
		os.Exit(1)
	}
}

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Mohammed-el-Amine/check-port/cmd/checkport/commands"
	"github.com/Mohammed-el-Amine/check-port/cmd/checkport/internal/format"
)

func main() {
	if err := commands.NewCommand().Execute(); err != nil {
		var reported *format.ReportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

package main

import (
	"context"
	"fmt"
	"os"

	_ "time/tzdata"

	"github.com/fincoval/creditsync/internal/cli"
)

func main() {
	root := cli.NewRootCommand(os.Stdin, os.Stdout)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/erraggy/oasgate/cmd/oasgate/commands"
)

func main() {
	if err := commands.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, commands.ErrValidationFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

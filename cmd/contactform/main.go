// Command contactform serves the contact form endpoint.
package main

import (
	"fmt"
	"os"

	"github.com/deppfellow/contactform/internal/config"
	"github.com/urfave/cli/v2"
)

func newApp() *cli.App {
	return &cli.App{
		Name:           config.ServiceName,
		Usage:          "Validate contact form submissions and render the result or error page",
		DefaultCommand: ServeCommand.Name,
		Commands: []*cli.Command{
			ServeCommand,
			CheckCommand,
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Command kpatch-inspect prints the header of a kpatch container.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "kpatch-inspect: %v\n", err)
		os.Exit(1)
	}
}

// Command kpatch-make wraps a pre-built binary patch into a kpatch container.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "kpatch-make: %v\n", err)
		os.Exit(1)
	}
}

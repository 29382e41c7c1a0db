// Command isoforge builds bootable ISO-9660/ECMA-119 disk images.
package main

import (
	"fmt"
	"os"

	"github.com/charlesthegreat77/isoforge/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

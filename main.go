// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"os"

	cmd "github.com/jonpugh/ash/cmd/ash"
)

func main() {
	args := cmd.RewriteArgs(os.Args[0], os.Args[1:])
	os.Exit(cmd.Execute(context.Background(), args))
}

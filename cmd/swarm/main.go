// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/swarm-oss/swarm/cmd/swarm/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}

// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/tripleo/tripleo-containers/cmd/tripleo-containers"

func main() {
	cmd.Execute()
}

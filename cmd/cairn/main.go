// Copyright © 2018 One Concern

package main

import (
	"github.com/oneconcern/cairn/cmd/cairn/cmd"
)

func main() {
	cmd.Execute()
}

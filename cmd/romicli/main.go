package main

import (
	"github.com/robotalks/romi/pkg/cli/sh"
	"github.com/robotalks/romi/pkg/env/connector"

	_ "github.com/robotalks/romi/pkg/cli/cmds/romi"
)

//go-build: CGO_ENABLED=0

func init() {
	connector.SetupFlags()
}

func main() {
	sh.Main()
}

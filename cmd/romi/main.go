package main

import (
	"flag"

	fx "github.com/robotalks/romi/pkg/framework"
	"github.com/robotalks/romi/pkg/env/controller"
	"github.com/robotalks/romi/pkg/romi"
	"github.com/robotalks/romi/pkg/sim/visualization/see"
)

func init() {
	romi.SetupFlags()
	controller.SetupFlags()
	see.SetupFlags()
}

func main() {
	flag.Parse()

	env := controller.NewConfig().MustNewEnv()
	robot := romi.NewConfig().MustNewRobot(romi.WithEnv(env))
	robot.RunOrFail(fx.NewRunner().HandleSignals().Context)
}

// Package controller configures the robot side of the MQTT link.
package controller

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/robotalks/romi/pkg/env"
	fx "github.com/robotalks/romi/pkg/framework"
	"github.com/robotalks/romi/pkg/link/mqtt"
)

// Config provides the options to register the robot.
type Config struct {
	Ref  mqtt.Ref
	Meta mqtt.Meta

	// MQTTBrokerURL specifies the MQTT broker, empty disables MQTT.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
}

var defaultConfig = Config{
	Ref:  mqtt.Ref{Type: "romi"},
	Meta: mqtt.Meta{Description: "Romi line follower"},
}

func init() {
	if val := os.Getenv("ROMI_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("ROMI_ID"); val != "" {
		defaultConfig.Ref.ID = val
	} else {
		defaultConfig.Ref.ID = env.MachineID()
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Ref.Type, "type", defaultConfig.Ref.Type, "Robot type")
	flag.StringVar(&defaultConfig.Ref.ID, "id", defaultConfig.Ref.ID, "Robot ID")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty disables MQTT")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Env is the MQTT presence of the robot.
type Env struct {
	Config    *Config
	Registrar *mqtt.Registrar
	// Link carries commands in and frames out, nil without MQTT.
	Link *mqtt.ReadWriter
}

// NewEnv creates Env from config.
func (c *Config) NewEnv() (*Env, error) {
	e := &Env{Config: c}
	if c.MQTTBrokerURL == "" {
		return e, nil
	}
	if !c.Ref.IsValid() {
		return nil, fmt.Errorf("robot type and id must be specified")
	}
	reg, err := mqtt.NewRegistrar(c.MQTTBrokerURL, c.Ref, c.Meta)
	if err != nil {
		return nil, fmt.Errorf("create MQTT registrar error: %w", err)
	}
	e.Registrar, e.Link = reg, reg.Link()
	return e, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	e, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return e
}

// Enabled indicates MQTT is configured.
func (e *Env) Enabled() bool {
	return e.Registrar != nil
}

// AddToScheduler implements fx.SchedulerAdder.
func (e *Env) AddToScheduler(s *fx.Scheduler) {
	if e.Enabled() {
		s.AddRunnable(e.Registrar, e.Link)
	}
}

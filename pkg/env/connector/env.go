// Package connector configures the host side connection to a robot,
// over a serial port or the MQTT broker.
package connector

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"

	"github.com/robotalks/romi/pkg/link/msgs"
	"github.com/robotalks/romi/pkg/link/mqtt"
	"github.com/robotalks/romi/pkg/link/serial"
)

// ErrNoEvents indicates the connection carries no protobuf events.
var ErrNoEvents = errors.New("events not available on this connection")

// Config provides common options to connect robots.
type Config struct {
	Ref mqtt.Ref

	// RegistryURL specifies the MQTT broker robots register on.
	// e.g. mqtt://host:port/topic-prefix
	RegistryURL string
	// Serial connects directly over a serial port, "device[@baud]".
	Serial string
}

var defaultConfig = Config{
	Ref:         mqtt.Ref{Type: "romi"},
	RegistryURL: "mqtt://localhost:1883/",
}

func init() {
	if val := os.Getenv("ROMI_ID"); val != "" {
		defaultConfig.Ref.ID = val
	}
	if val := os.Getenv("ROMI_MQTT_URL"); val != "" {
		defaultConfig.RegistryURL = val
	}
	if val := os.Getenv("ROMI_SERIAL"); val != "" {
		defaultConfig.Serial = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Ref.Type, "robot-type", defaultConfig.Ref.Type, "Robot type to connect.")
	flag.StringVar(&defaultConfig.Ref.ID, "robot-id", defaultConfig.Ref.ID, "Robot ID to connect.")
	flag.StringVar(&defaultConfig.RegistryURL, "robot-reg", defaultConfig.RegistryURL, "Robot Registry URL.")
	flag.StringVar(&defaultConfig.Serial, "serial", defaultConfig.Serial, "Serial port of the robot, device[@baud].")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Direct indicates the robot is connected without the broker.
func (c *Config) Direct() bool {
	return c.Serial != ""
}

// NewConnector creates a Connector using current config.
func (c *Config) NewConnector() (*mqtt.Connector, error) {
	parsedURL, err := url.Parse(c.RegistryURL)
	if err != nil {
		return nil, fmt.Errorf("invalid registry URL: %w", err)
	}
	switch parsedURL.Scheme {
	case "mqtt", "tcp", "ssl", "ws", "wss":
		return mqtt.NewConnector(c.RegistryURL)
	default:
		return nil, fmt.Errorf("unknown registry URL scheme: %q", parsedURL.Scheme)
	}
}

// MustNewConnector creates a Connector and fails on error.
func (c *Config) MustNewConnector() *mqtt.Connector {
	conn, err := c.NewConnector()
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}

// Connect connects the robot, over serial when configured.
func (c *Config) Connect(ref mqtt.Ref) (*Conn, error) {
	if c.Direct() {
		conf, err := serial.ParseSpec(c.Serial)
		if err != nil {
			return nil, err
		}
		stream, err := conf.OpenStream()
		if err != nil {
			return nil, err
		}
		return &Conn{Name: conf.Device, Stream: stream}, nil
	}
	if !ref.IsValid() {
		return nil, fmt.Errorf("robot type and id must be specified")
	}
	connector, err := c.NewConnector()
	if err != nil {
		return nil, err
	}
	mc, err := connector.Connect(ref)
	if err != nil {
		return nil, err
	}
	return &Conn{Name: ref.Name(), Ref: ref, Stream: mc.Link, MQTT: mc}, nil
}

// MustConnect connects the configured robot or fails.
func (c *Config) MustConnect() *Conn {
	conn, err := c.Connect(c.Ref)
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}

// Conn is a connection to a robot. Commands are written to it and
// telemetry frames read from it.
type Conn struct {
	Name   string
	Ref    mqtt.Ref
	Stream io.ReadWriteCloser
	// MQTT is set when connected through the broker.
	MQTT *mqtt.Conn
}

// Read implements io.Reader.
func (c *Conn) Read(p []byte) (int, error) {
	return c.Stream.Read(p)
}

// Write implements io.Writer.
func (c *Conn) Write(p []byte) (int, error) {
	return c.Stream.Write(p)
}

// Close implements io.Closer.
func (c *Conn) Close() error {
	if c.MQTT != nil {
		return c.MQTT.Close()
	}
	return c.Stream.Close()
}

// Run implements fx.Runnable, receiving until ctx is done.
func (c *Conn) Run(ctx context.Context) error {
	if c.MQTT != nil {
		return c.MQTT.Link.Run(ctx)
	}
	<-ctx.Done()
	return ctx.Err()
}

// Events subscribes the protobuf events of the robot.
func (c *Conn) Events(handler func(msgs.Message)) (io.Closer, error) {
	if c.MQTT == nil {
		return nil, ErrNoEvents
	}
	return c.MQTT.Events(c.Ref, handler), nil
}

package see

import (
	"flag"
	"io"
	"os"
)

// Config represents configuration for see.
type Config struct {
	W float64
	H float64
	// Trail is the number of past positions drawn behind an object,
	// 0 disables the trail.
	Trail int
	// TrailStep is the minimum distance (mm) between trail points.
	TrailStep float64
}

var defaultConfig = Config{
	W:         2000,
	H:         1000,
	Trail:     200,
	TrailStep: 10,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.Float64Var(&defaultConfig.W, "see-w", defaultConfig.W, "Width (mm) of visualization area")
	flag.Float64Var(&defaultConfig.H, "see-h", defaultConfig.H, "Height (mm) of visualization area")
	flag.IntVar(&defaultConfig.Trail, "see-trail", defaultConfig.Trail, "Number of trail points, 0 disables the trail")
	flag.Float64Var(&defaultConfig.TrailStep, "see-trail-step", defaultConfig.TrailStep, "Distance (mm) between trail points")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a default config.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewAdapter creates adapter from config writing to stdout.
func (c *Config) NewAdapter() *Adapter {
	return c.NewAdapterTo(os.Stdout)
}

// NewAdapterTo creates adapter from config writing to out.
func (c *Config) NewAdapterTo(out io.Writer) *Adapter {
	return NewAdapter(c, out)
}

package connector

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/romi/pkg/link/mqtt"
)

func TestNewConnector(t *testing.T) {
	testCases := []struct {
		url string
		err bool
	}{
		{url: "mqtt://localhost:1883/"},
		{url: "tcp://broker:1883/robots/"},
		{url: "http://localhost/", err: true},
		{url: "://", err: true},
	}
	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			conf := NewConfig()
			conf.RegistryURL = tc.url
			connector, err := conf.NewConnector()
			if tc.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.url, connector.BrokerURL)
		})
	}
}

func TestConnectValidation(t *testing.T) {
	conf := NewConfig()
	conf.Serial = ""
	_, err := conf.Connect(mqtt.Ref{Type: "romi"})
	require.Error(t, err)

	conf.Serial = "/dev/romi-does-not-exist"
	require.True(t, conf.Direct())
	_, err = conf.Connect(mqtt.Ref{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "/dev/romi-does-not-exist")

	conf.Serial = "/dev/ttyUSB0@fast"
	_, err = conf.Connect(mqtt.Ref{})
	require.Error(t, err)
}

func TestSerialConnHasNoEvents(t *testing.T) {
	conn := &Conn{Name: "test", Stream: nopStream{}}
	_, err := conn.Events(nil)
	require.ErrorIs(t, err, ErrNoEvents)
	require.NoError(t, conn.Close())
}

type nopStream struct{}

func (nopStream) Read(p []byte) (int, error)  { return 0, nil }
func (nopStream) Write(p []byte) (int, error) { return len(p), nil }
func (nopStream) Close() error                { return nil }

package iio

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/romi/pkg/hw"
)

func writeRaw(t *testing.T, dir string, index int, content string) {
	name := filepath.Join(dir, "in_voltage"+strconv.Itoa(index)+"_raw")
	require.NoError(t, os.WriteFile(name, []byte(content), 0644))
}

func TestDeviceChannels(t *testing.T) {
	dir := t.TempDir()
	dev := &Device{Dir: dir, Channels: []int{4, 2}}
	writeRaw(t, dir, 4, "4095\n")
	writeRaw(t, dir, 2, "300\n")

	require.Equal(t, 2, dev.NumChannels())
	v, err := dev.ReadChannel(0)
	require.NoError(t, err)
	require.Equal(t, uint16(4095), v)
	v, err = dev.ReadChannel(1)
	require.NoError(t, err)
	require.Equal(t, uint16(300), v)

	_, err = dev.ReadChannel(2)
	require.Error(t, err)
}

func TestDeviceBattery(t *testing.T) {
	dir := t.TempDir()
	dev := &Device{Dir: dir}
	writeRaw(t, dir, 7, "2600")
	b := hw.NewDividerBattery(dev.Channel(7), hw.DefaultDivider)
	v, err := b.ReadVoltage()
	require.NoError(t, err)
	require.InDelta(t, 2600.0/4095*3.3*b.Scale(), v, 1e-9)

	writeRaw(t, dir, 7, "garbage")
	_, err = b.ReadVoltage()
	require.Error(t, err)

	_, err = dev.Channel(3).ReadRaw()
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenMissingDevice(t *testing.T) {
	_, err := Open("iio:device-missing")
	require.ErrorIs(t, err, os.ErrNotExist)
}

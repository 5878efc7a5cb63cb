package iio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseChannelType(t *testing.T) {
	tests := []struct {
		id   string
		want ChannelType
	}{
		{"voltage0", ChannelVoltage},
		{"voltage12", ChannelVoltage},
		{"altvoltage1", ChannelAltVoltage},
		{"accel_x", ChannelAccel},
		{"anglvel_z", ChannelAnglVel},
		{"timestamp", ChannelTimestamp},
		{"temp", ChannelTemp},
		{"illuminance0", ChannelLight},
		{"humidityrelative", ChannelHumidityRelative},
		{"massconcentration_pm2p5", ChannelMassConcentration},
		{"ph", ChannelPH},
		{"bogus3", ChannelUnknown},
		{"", ChannelUnknown},
		{"Voltage0", ChannelUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseChannelType(tt.id))
		})
	}
}

func TestChannelTypeString(t *testing.T) {
	assert.Equal(t, "voltage", ChannelVoltage.String())
	assert.Equal(t, "illuminance", ChannelLight.String())
	assert.Equal(t, "unknown", ChannelUnknown.String())
	assert.Equal(t, "unknown", ChannelType(200).String())
	assert.Equal(t, "output", Output.String())
	assert.Equal(t, "input", Input.String())
}

package iio

// ChannelType is the physical quantity a channel measures or drives.
type ChannelType uint8

const (
	ChannelUnknown ChannelType = iota
	ChannelVoltage
	ChannelCurrent
	ChannelPower
	ChannelAccel
	ChannelAnglVel
	ChannelMagn
	ChannelLight
	ChannelIntensity
	ChannelProximity
	ChannelTemp
	ChannelIncli
	ChannelRot
	ChannelAngl
	ChannelTimestamp
	ChannelCapacitance
	ChannelAltVoltage
	ChannelCCT
	ChannelPressure
	ChannelHumidityRelative
	ChannelActivity
	ChannelSteps
	ChannelEnergy
	ChannelDistance
	ChannelVelocity
	ChannelConcentration
	ChannelResistance
	ChannelPH
	ChannelUVIndex
	ChannelElectricalConductivity
	ChannelCount
	ChannelIndex
	ChannelGravity
	ChannelPositionRelative
	ChannelPhase
	ChannelMassConcentration
)

// channelPrefixes are the sysfs id prefixes of each type.
var channelPrefixes = map[string]ChannelType{
	"voltage":                ChannelVoltage,
	"current":                ChannelCurrent,
	"power":                  ChannelPower,
	"accel":                  ChannelAccel,
	"anglvel":                ChannelAnglVel,
	"magn":                   ChannelMagn,
	"illuminance":            ChannelLight,
	"intensity":              ChannelIntensity,
	"proximity":              ChannelProximity,
	"temp":                   ChannelTemp,
	"incli":                  ChannelIncli,
	"rot":                    ChannelRot,
	"angl":                   ChannelAngl,
	"timestamp":              ChannelTimestamp,
	"capacitance":            ChannelCapacitance,
	"altvoltage":             ChannelAltVoltage,
	"cct":                    ChannelCCT,
	"pressure":               ChannelPressure,
	"humidityrelative":       ChannelHumidityRelative,
	"activity":               ChannelActivity,
	"steps":                  ChannelSteps,
	"energy":                 ChannelEnergy,
	"distance":               ChannelDistance,
	"velocity":               ChannelVelocity,
	"concentration":          ChannelConcentration,
	"resistance":             ChannelResistance,
	"ph":                     ChannelPH,
	"uvindex":                ChannelUVIndex,
	"electricalconductivity": ChannelElectricalConductivity,
	"count":                  ChannelCount,
	"index":                  ChannelIndex,
	"gravity":                ChannelGravity,
	"positionrelative":       ChannelPositionRelative,
	"phase":                  ChannelPhase,
	"massconcentration":      ChannelMassConcentration,
}

var channelNames = func() map[ChannelType]string {
	m := make(map[ChannelType]string, len(channelPrefixes))
	for k, v := range channelPrefixes {
		m[v] = k
	}
	return m
}()

// ParseChannelType derives the type from a channel id such as "voltage0",
// "accel_x" or "timestamp".
func ParseChannelType(id string) ChannelType {
	end := 0
	for end < len(id) && id[end] >= 'a' && id[end] <= 'z' {
		end++
	}
	if t, ok := channelPrefixes[id[:end]]; ok {
		return t
	}
	return ChannelUnknown
}

// String returns the sysfs prefix of the type.
func (t ChannelType) String() string {
	if s, ok := channelNames[t]; ok {
		return s
	}
	return "unknown"
}

// Direction of a channel.
type Direction uint8

const (
	// Input channels are captured by Refill.
	Input Direction = iota
	// Output channels are sent by Push.
	Output
)

// String returns "input" or "output".
func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

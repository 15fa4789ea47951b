package config

import "github.com/tauraamui/framebridge/pkg/configdef"

type defaultSettingKey uint

const (
	SNAPSHOTINTERVALSECONDS defaultSettingKey = 0x0
	SOURCES                 defaultSettingKey = 0x1
	RPCLISTENADDR           defaultSettingKey = 0x2
	SOURCETYPE              defaultSettingKey = 0x3
	PREFERABLEDEFAULTWIDTH  defaultSettingKey = 0x4
)

var defaultSettings = map[defaultSettingKey]interface{}{
	SNAPSHOTINTERVALSECONDS: 5,
	SOURCES:                 []configdef.Source{},
	RPCLISTENADDR:           ":3121",
	SOURCETYPE:              "arcamera",
	PREFERABLEDEFAULTWIDTH:  1280,
}

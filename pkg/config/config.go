package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/chassis"
	"github.com/nityc-d-robo/robo2-2-2-2024-a/pkg/motorlink"
)

type Config struct {
	Node       string          `yaml:"node" toml:"node"`
	Chassis    chassis.Chassis `yaml:"chassis" toml:"chassis"`
	Power      PowerConfig     `yaml:"power" toml:"power"`
	AuxMotorID int             `yaml:"auxMotorId" toml:"auxMotorId"`
	Topics     TopicsConfig    `yaml:"topics" toml:"topics"`
	MQTT       MQTTConfig      `yaml:"mqtt" toml:"mqtt"`
	Websocket  WebsocketConfig `yaml:"websocket" toml:"websocket"`
	Actuation  ActuationConfig `yaml:"actuation" toml:"actuation"`
	Log        LogConfig       `yaml:"log" toml:"log"`
}

type PowerConfig struct {
	MaxInput      float64 `yaml:"maxInput" toml:"maxInput"`
	MaxOutput     float64 `yaml:"maxOutput" toml:"maxOutput"`
	MaxRevolution float64 `yaml:"maxRevolution" toml:"maxRevolution"`
}

type TopicsConfig struct {
	CmdVel string `yaml:"cmdVel" toml:"cmdVel"`
	Joy    string `yaml:"joy" toml:"joy"`
}

type MQTTConfig struct {
	// Empty disables the MQTT transport.
	Broker   string `yaml:"broker" toml:"broker"`
	ClientID string `yaml:"clientId" toml:"clientId"`
	Username string `yaml:"username" toml:"username"`
	Password string `yaml:"password" toml:"password"`
	QoS      byte   `yaml:"qos" toml:"qos"`
	Buffer   int    `yaml:"buffer" toml:"buffer"`
}

type WebsocketConfig struct {
	// Empty disables the websocket teleop endpoint.
	Listen    string `yaml:"listen" toml:"listen"`
	JWTSecret string `yaml:"jwtSecret" toml:"jwtSecret"`
}

const (
	ActuationUDP    = "udp"
	ActuationSerial = "serial"
	ActuationDummy  = "dummy"
)

type ActuationConfig struct {
	Kind        string `yaml:"kind" toml:"kind"`
	OwnPort     int    `yaml:"ownPort" toml:"ownPort"`
	Destination string `yaml:"destination" toml:"destination"`
	SerialPort  string `yaml:"serialPort" toml:"serialPort"`
	Baud        int    `yaml:"baud" toml:"baud"`
}

type LogConfig struct {
	// Empty logs to stdout only.
	File       string `yaml:"file" toml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMb" toml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups" toml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays" toml:"maxAgeDays"`
	Debug      bool   `yaml:"debug" toml:"debug"`
}

func Default() *Config {
	return &Config{
		Node:    "robo2_2_2_2024_a",
		Chassis: chassis.Default,
		Power: PowerConfig{
			MaxInput:      160,
			MaxOutput:     1,
			MaxRevolution: 5400,
		},
		AuxMotorID: 2,
		Topics: TopicsConfig{
			CmdVel: "cmd_vel2_2_2",
			Joy:    "rjoy2_2_2",
		},
		MQTT: MQTTConfig{
			Broker: "tcp://localhost:1883",
			Buffer: 16,
		},
		Actuation: ActuationConfig{
			Kind:        ActuationUDP,
			OwnPort:     50006,
			Destination: "192.168.1.6:60000",
			Baud:        115200,
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads path (if non-empty) over the defaults, applies environment overrides and validates
// the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, err
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading config")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml", "":
		err = yaml.UnmarshalStrict(data, cfg)
	default:
		return errors.Errorf("unknown config format %q", filepath.Ext(path))
	}
	if err != nil {
		return errors.Wrapf(err, "parsing %s", path)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ROBO_MQTT_BROKER"); v != "" {
		cfg.MQTT.Broker = v
	}
	if v := os.Getenv("ROBO_MOTOR_DEST"); v != "" {
		cfg.Actuation.Destination = v
	}
}

func (c *Config) Settings() chassis.Settings {
	return chassis.Settings{
		Chassis:        c.Chassis,
		MaxInputPower:  c.Power.MaxInput,
		MaxOutputPower: c.Power.MaxOutput,
		MaxRevolution:  c.Power.MaxRevolution,
	}
}

func (c *Config) Validate() error {
	settings := c.Settings()
	if err := settings.Validate(); err != nil {
		return err
	}
	for _, t := range c.Chassis.Tires() {
		if t.ID < 0 || t.ID > motorlink.MaxMotorID {
			return errors.Errorf("drive motor ID %d out of range", t.ID)
		}
		if t.ID == c.AuxMotorID {
			return errors.Errorf("auxiliary motor ID %d is also a drive motor", c.AuxMotorID)
		}
	}
	if c.AuxMotorID < 0 || c.AuxMotorID > motorlink.MaxMotorID {
		return errors.Errorf("auxiliary motor ID %d out of range", c.AuxMotorID)
	}
	if c.Topics.CmdVel == "" || c.Topics.Joy == "" {
		return errors.New("both the twist and joy topics must be set")
	}
	if c.Topics.CmdVel == c.Topics.Joy {
		return errors.Errorf("twist and joy topics must differ, both are %q", c.Topics.Joy)
	}
	if c.MQTT.Broker == "" && c.Websocket.Listen == "" {
		return errors.New("no transport configured: set mqtt.broker or websocket.listen")
	}
	if c.MQTT.Buffer < 1 {
		return errors.Errorf("mqtt.buffer must be at least 1, got %d", c.MQTT.Buffer)
	}
	if c.MQTT.QoS > 2 {
		return errors.Errorf("invalid MQTT QoS %d", c.MQTT.QoS)
	}
	switch c.Actuation.Kind {
	case ActuationUDP:
		if c.Actuation.Destination == "" {
			return errors.New("UDP actuation needs a destination")
		}
	case ActuationSerial:
		if c.Actuation.SerialPort == "" || c.Actuation.Baud <= 0 {
			return errors.New("serial actuation needs a port and baud rate")
		}
	case ActuationDummy:
	default:
		return errors.Errorf("unknown actuation kind %q", c.Actuation.Kind)
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf("node=%s chassis=%+v power=%+v aux=%d topics=%+v actuation=%s->%s",
		c.Node, c.Chassis, c.Power, c.AuxMotorID, c.Topics, c.Actuation.Kind, c.Actuation.Destination)
}

// Package devconf loads robot device configuration files, applies them to
// devices and stores read-back configurations as snapshots.
//
// A robot file is YAML:
//
//	devices:
//	  - name: left-drive
//	    kind: talonsrx
//	    id: 3
//	    config:
//	      peakCurrentLimit: 40
//	      primaryPID:
//	        selectedFeedbackSensor: CTREMagEncoderRelative
//
// Settings missing from config keep their factory defaults.
package devconf

import (
	"errors"
	"fmt"
	"os"

	"github.com/notnil/phoenixcan/motorcontrol"
	"github.com/notnil/phoenixcan/phoenix"
	"gopkg.in/yaml.v3"
)

// Kind is the device family of an entry.
type Kind string

const (
	KindTalonSRX  Kind = "talonsrx"
	KindVictorSPX Kind = "victorspx"
)

// Base returns the handle base of k.
func (k Kind) Base() (phoenix.DeviceBase, error) {
	switch k {
	case KindTalonSRX:
		return phoenix.TalonSRXBase, nil
	case KindVictorSPX:
		return phoenix.VictorSPXBase, nil
	default:
		return 0, fmt.Errorf("devconf: unknown device kind %q", string(k))
	}
}

// Device is one configured device. Exactly one of TalonSRX and VictorSPX is
// set, matching Kind.
type Device struct {
	Name      string                              `cbor:"name,omitempty"`
	Kind      Kind                                `cbor:"kind"`
	ID        int                                 `cbor:"id"`
	TalonSRX  *motorcontrol.TalonSRXConfiguration  `cbor:"talonsrx,omitempty"`
	VictorSPX *motorcontrol.VictorSPXConfiguration `cbor:"victorspx,omitempty"`
}

// NewDevice returns an entry holding the factory defaults of kind.
func NewDevice(kind Kind, id int) (Device, error) {
	d := Device{Kind: kind, ID: id}
	switch kind {
	case KindTalonSRX:
		cfg := motorcontrol.NewTalonSRXConfiguration()
		d.TalonSRX = &cfg
	case KindVictorSPX:
		cfg := motorcontrol.NewVictorSPXConfiguration()
		d.VictorSPX = &cfg
	default:
		return Device{}, fmt.Errorf("devconf: unknown device kind %q", string(kind))
	}
	return d, nil
}

// Handle returns the device handle of d.
func (d Device) Handle() (phoenix.Handle, error) {
	base, err := d.Kind.Base()
	if err != nil {
		return 0, err
	}
	return phoenix.NewHandle(base, d.ID)
}

func (d Device) String() string {
	if d.Name != "" {
		return fmt.Sprintf("%s (%s %d)", d.Name, d.Kind, d.ID)
	}
	return fmt.Sprintf("%s %d", d.Kind, d.ID)
}

type yamlDevice struct {
	Name   string    `yaml:"name,omitempty"`
	Kind   Kind      `yaml:"kind"`
	ID     int       `yaml:"id"`
	Config yaml.Node `yaml:"config,omitempty"`
}

// UnmarshalYAML decodes config on top of the factory defaults of kind.
func (d *Device) UnmarshalYAML(n *yaml.Node) error {
	var raw yamlDevice
	if err := n.Decode(&raw); err != nil {
		return err
	}
	if _, err := raw.Kind.Base(); err != nil {
		return fmt.Errorf("line %d: unknown device kind %q", n.Line, string(raw.Kind))
	}
	dev, err := NewDevice(raw.Kind, raw.ID)
	if err != nil {
		return err
	}
	dev.Name = raw.Name
	if !raw.Config.IsZero() {
		var target any = dev.TalonSRX
		if dev.VictorSPX != nil {
			target = dev.VictorSPX
		}
		if err := raw.Config.Decode(target); err != nil {
			return fmt.Errorf("%v config: %w", dev, err)
		}
	}
	*d = dev
	return nil
}

// MarshalYAML writes the full configuration of d.
func (d Device) MarshalYAML() (any, error) {
	out := struct {
		Name   string `yaml:"name,omitempty"`
		Kind   Kind   `yaml:"kind"`
		ID     int    `yaml:"id"`
		Config any    `yaml:"config"`
	}{Name: d.Name, Kind: d.Kind, ID: d.ID}
	switch {
	case d.TalonSRX != nil:
		out.Config = d.TalonSRX
	case d.VictorSPX != nil:
		out.Config = d.VictorSPX
	}
	return out, nil
}

// File is a robot configuration file.
type File struct {
	Devices []Device `yaml:"devices"`
}

// Parse decodes and validates a robot file.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("devconf: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load reads and parses a robot file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("devconf: %w", err)
	}
	return Parse(data)
}

// Marshal encodes f as YAML.
func (f *File) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}

// Validate checks that every device has a known kind and a device id in
// range, and that no two devices of the same kind share an id.
func (f *File) Validate() error {
	var errs []error
	seen := make(map[phoenix.Handle]int)
	for i, d := range f.Devices {
		h, err := d.Handle()
		if err != nil {
			errs = append(errs, fmt.Errorf("devices[%d]: %w", i, err))
			continue
		}
		if (d.Kind == KindTalonSRX) != (d.TalonSRX != nil) || (d.Kind == KindVictorSPX) != (d.VictorSPX != nil) {
			errs = append(errs, fmt.Errorf("devices[%d]: configuration does not match kind %s", i, d.Kind))
		}
		if j, dup := seen[h]; dup {
			errs = append(errs, fmt.Errorf("devices[%d]: %s %d already used by devices[%d]", i, d.Kind, d.ID, j))
			continue
		}
		seen[h] = i
	}
	if len(errs) > 0 {
		return fmt.Errorf("devconf: invalid file: %w", errors.Join(errs...))
	}
	return nil
}

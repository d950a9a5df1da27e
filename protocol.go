package mdrun

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ProtocolOptions are used to configure a protocol.
type ProtocolOptions struct {
	Name      string         `json:"name" yaml:"name"`
	Segments  []*Segment     `json:"segments" yaml:"segments"`
	Variables map[string]any `json:"variables,omitempty" yaml:"variables,omitempty"`
}

// Protocol is the ordered sequence of simulation segments supplied by the
// workflow engine, with the variables their instruction templates may
// reference.
type Protocol struct {
	name      string
	segments  []*Segment
	variables map[string]any
}

// NewProtocol returns a new Protocol configured with the given options.
func NewProtocol(opts ProtocolOptions) (*Protocol, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("protocol name required")
	}
	if len(opts.Segments) == 0 {
		return nil, fmt.Errorf("segments required")
	}
	seen := make(map[string]bool, len(opts.Segments))
	for _, seg := range opts.Segments {
		if err := seg.validate(); err != nil {
			return nil, fmt.Errorf("protocol validation failed: %w", err)
		}
		if seen[seg.ID] {
			return nil, fmt.Errorf("protocol validation failed: duplicate segment id %q", seg.ID)
		}
		seen[seg.ID] = true
	}
	variables := opts.Variables
	if variables == nil {
		variables = map[string]any{}
	}
	return &Protocol{
		name:      opts.Name,
		segments:  opts.Segments,
		variables: variables,
	}, nil
}

// Name returns the protocol name.
func (p *Protocol) Name() string {
	return p.name
}

// Segments returns the ordered segments.
func (p *Protocol) Segments() []*Segment {
	return p.segments
}

// Variables returns the protocol variables available to instruction
// templates.
func (p *Protocol) Variables() map[string]any {
	return p.variables
}

// LoadProtocolFile loads a protocol from a YAML file.
func LoadProtocolFile(path string) (*Protocol, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read protocol file: %w", err)
	}
	return LoadProtocolString(string(data))
}

// LoadProtocolString loads a protocol from a YAML string.
func LoadProtocolString(data string) (*Protocol, error) {
	var opts ProtocolOptions
	if err := yaml.Unmarshal([]byte(data), &opts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal protocol: %w", err)
	}
	return NewProtocol(opts)
}

package mdrun

import (
	"encoding/json"
	"fmt"
	"os"
)

// Atom is one atom in an energy expression: coordinates plus a 1-based atom
// type index.
type Atom struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Z    float64 `json:"z"`
	Type int     `json:"type"`
}

// TermParameters holds one bonded or nonbonded parameter set: the functional
// form, its named values, and the forcefield types it was derived for.
type TermParameters struct {
	Form      string             `json:"form"`
	Values    map[string]float64 `json:"values"`
	Types     []string           `json:"types,omitempty"`
	RealTypes []string           `json:"real_types,omitempty"`
}

// MassEntry is the mass for one atom type.
type MassEntry struct {
	Mass float64 `json:"mass"`
	Type string  `json:"type"`
}

// EnergyExpression is the forcefield evaluation record for a molecular
// topology: per-type parameters plus the bonded-term tables. Term index
// columns are 1-based atom ids; the last column of each term row is the
// 1-based parameter type index.
type EnergyExpression struct {
	AtomTypes int         `json:"n_atom_types"`
	Atoms     []Atom      `json:"atoms"`
	Charges   []float64   `json:"charges"`
	Masses    []MassEntry `json:"masses"`
	Elements  []string    `json:"elements,omitempty"` // element symbol per atom

	Periodicity int   `json:"periodicity"`
	Cell        *Cell `json:"cell,omitempty"`

	NonbondParameters []TermParameters `json:"nonbond_parameters"`

	Bonds          [][3]int         `json:"bonds,omitempty"` // i, j, type
	BondParameters []TermParameters `json:"bond_parameters,omitempty"`

	Angles              [][4]int         `json:"angles,omitempty"` // i, j, k, type
	AngleParameters     []TermParameters `json:"angle_parameters,omitempty"`
	BondBondParameters  []TermParameters `json:"bond_bond_parameters,omitempty"`
	BondAngleParameters []TermParameters `json:"bond_angle_parameters,omitempty"`

	Torsions          [][5]int         `json:"torsions,omitempty"` // i, j, k, l, type
	TorsionParameters []TermParameters `json:"torsion_parameters,omitempty"`

	Oops                 [][5]int         `json:"oops,omitempty"` // i, j, k, l, type
	OopParameters        []TermParameters `json:"oop_parameters,omitempty"`
	AngleAngleParameters []TermParameters `json:"angle_angle_parameters,omitempty"`
}

// NAtoms returns the atom count.
func (e *EnergyExpression) NAtoms() int {
	return len(e.Atoms)
}

// System builds the initial structure state described by the expression.
func (e *EnergyExpression) System() *System {
	coords := make([][3]float64, len(e.Atoms))
	for i, a := range e.Atoms {
		coords[i] = [3]float64{a.X, a.Y, a.Z}
	}
	elements := e.Elements
	if elements == nil {
		elements = make([]string, len(e.Atoms))
	}
	return &System{
		Elements:    elements,
		Coordinates: coords,
		Cell:        e.Cell,
		Periodicity: e.Periodicity,
	}
}

// LoadExpressionFile loads an energy expression from a JSON file.
func LoadExpressionFile(path string) (*EnergyExpression, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read energy expression file: %w", err)
	}
	var eex EnergyExpression
	if err := json.Unmarshal(data, &eex); err != nil {
		return nil, fmt.Errorf("failed to unmarshal energy expression: %w", err)
	}
	if len(eex.Atoms) == 0 {
		return nil, NewRunError(ErrorTypeStructure, "energy expression %s has no atoms", path)
	}
	return &eex, nil
}

package mdrun

import (
	"fmt"
	"sort"
	"strings"
)

// ConstraintOptions selects which bonds and angles are held rigid during
// dynamics.
type ConstraintOptions struct {
	// RigidWaters constrains the internal geometry of water molecules.
	RigidWaters bool `yaml:"rigid_waters"`

	// FixBondLengths selects which X-H bond lengths to constrain: "" for
	// none, "CH" for carbon-hydrogen bonds only, or "all" for every bond
	// involving hydrogen.
	FixBondLengths string `yaml:"fix_bond_lengths"`
}

// RattleFix builds the rattle fix instruction constraining the selected bond
// and angle types, or "" when nothing is constrained.
func RattleFix(eex *EnergyExpression, opts ConstraintOptions) string {
	bondTypes := map[int]bool{}
	angleTypes := map[int]bool{}

	if opts.RigidWaters {
		inWater := waterAtoms(eex)
		for _, b := range eex.Bonds {
			if inWater[b[0]] && inWater[b[1]] {
				bondTypes[b[2]] = true
			}
		}
		for _, a := range eex.Angles {
			if inWater[a[0]] && inWater[a[1]] && inWater[a[2]] {
				angleTypes[a[3]] = true
			}
		}
	}

	if opts.FixBondLengths != "" && len(eex.Elements) > 0 {
		for _, b := range eex.Bonds {
			ei, ej := eex.Elements[b[0]-1], eex.Elements[b[1]-1]
			switch opts.FixBondLengths {
			case "CH":
				if (ei == "C" && ej == "H") || (ei == "H" && ej == "C") {
					bondTypes[b[2]] = true
				}
			case "all":
				if ei == "H" || ej == "H" {
					bondTypes[b[2]] = true
				}
			}
		}
	}

	if len(bondTypes) == 0 {
		return ""
	}
	line := "fix                 rattle all rattle 0.001 20 1000 b " + joinSorted(bondTypes)
	if len(angleTypes) > 0 {
		line += " a " + joinSorted(angleTypes)
	}
	return line
}

// waterAtoms returns the 1-based ids of atoms belonging to water molecules:
// an oxygen bonded to exactly two hydrogens, plus those hydrogens.
func waterAtoms(eex *EnergyExpression) map[int]bool {
	if len(eex.Elements) == 0 {
		return nil
	}
	neighbors := map[int][]int{}
	for _, b := range eex.Bonds {
		neighbors[b[0]] = append(neighbors[b[0]], b[1])
		neighbors[b[1]] = append(neighbors[b[1]], b[0])
	}
	inWater := map[int]bool{}
	for id, elem := range eex.Elements {
		if elem != "O" {
			continue
		}
		o := id + 1
		bonded := neighbors[o]
		if len(bonded) != 2 {
			continue
		}
		if eex.Elements[bonded[0]-1] == "H" && eex.Elements[bonded[1]-1] == "H" {
			inWater[o] = true
			inWater[bonded[0]] = true
			inWater[bonded[1]] = true
		}
	}
	return inWater
}

func joinSorted(types map[int]bool) string {
	ids := make([]int, 0, len(types))
	for id := range types {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, " ")
}

package mdrun

import (
	"fmt"
	"strings"
)

// tiltEpsilon zeroes out numerically insignificant tilt factors so a nearly
// orthogonal cell encodes as an orthogonal box.
const tiltEpsilon = 1e-6

// EncodeDataFile renders the engine's structure data file from an energy
// expression. Encoding fails when a bonded-term form carries an
// out-of-domain parameter the engine cannot represent.
func EncodeDataFile(eex *EnergyExpression) (string, error) {
	if eex.NAtoms() == 0 {
		return "", NewRunError(ErrorTypeStructure, "energy expression has no atoms")
	}

	var lines []string
	lines = append(lines, "Structure file generated by mdrun")
	lines = append(lines, fmt.Sprintf("%10d atoms", eex.NAtoms()))
	lines = append(lines, fmt.Sprintf("%10d atom types", eex.AtomTypes))
	if len(eex.Bonds) > 0 {
		lines = append(lines, fmt.Sprintf("%10d bonds", len(eex.Bonds)))
		lines = append(lines, fmt.Sprintf("%10d bond types", len(eex.BondParameters)))
	}
	if len(eex.Angles) > 0 {
		lines = append(lines, fmt.Sprintf("%10d angles", len(eex.Angles)))
		lines = append(lines, fmt.Sprintf("%10d angle types", len(eex.AngleParameters)))
	}
	if len(eex.Torsions) > 0 {
		lines = append(lines, fmt.Sprintf("%10d dihedrals", len(eex.Torsions)))
		lines = append(lines, fmt.Sprintf("%10d dihedral types", len(eex.TorsionParameters)))
	}
	if len(eex.Oops) > 0 {
		lines = append(lines, fmt.Sprintf("%10d impropers", len(eex.Oops)))
		lines = append(lines, fmt.Sprintf("%10d improper types", len(eex.OopParameters)))
	}

	lines = append(lines, boxLines(eex)...)

	lines = append(lines, "", "Atoms", "")
	for i, atom := range eex.Atoms {
		q := 0.0
		if i < len(eex.Charges) {
			q = eex.Charges[i]
		}
		lines = append(lines, fmt.Sprintf("%6d %6d %6d %6.3f %12.7f %12.7f %12.7f",
			i+1, 1, atom.Type, q, atom.X, atom.Y, atom.Z))
	}

	lines = append(lines, "", "Masses", "")
	for i, m := range eex.Masses {
		lines = append(lines, fmt.Sprintf("%6d %g # %s", i+1, m.Mass, m.Type))
	}

	lines = append(lines, "", "Pair Coeffs", "")
	for i, p := range eex.NonbondParameters {
		if p.Form == "nonbond(9-6)" {
			lines = append(lines, fmt.Sprintf("%6d %g %g%s", i+1, p.Values["eps"], p.Values["rmin"], typeComment(p)))
		} else {
			lines = append(lines, fmt.Sprintf("%6d %g %g%s", i+1, p.Values["eps"], p.Values["sigma"], typeComment(p)))
		}
	}

	if len(eex.Bonds) > 0 {
		lines = append(lines, "", "Bonds", "")
		for i, b := range eex.Bonds {
			lines = append(lines, fmt.Sprintf("%6d %6d %6d %6d", i+1, b[2], b[0], b[1]))
		}
		lines = append(lines, "", "Bond Coeffs", "")
		for i, p := range eex.BondParameters {
			switch p.Form {
			case "quadratic_bond":
				lines = append(lines, fmt.Sprintf("%6d %g %g%s", i+1, p.Values["K2"], p.Values["R0"], typeComment(p)))
			case "quartic_bond":
				lines = append(lines, fmt.Sprintf("%6d class2 %g %g %g %g%s",
					i+1, p.Values["R0"], p.Values["K2"], p.Values["K3"], p.Values["K4"], typeComment(p)))
			default:
				return "", NewRunError(ErrorTypeEncoding, "unsupported bond form %q", p.Form)
			}
		}
	}

	if len(eex.Angles) > 0 {
		lines = append(lines, "", "Angles", "")
		for i, a := range eex.Angles {
			lines = append(lines, fmt.Sprintf("%6d %6d %6d %6d %6d", i+1, a[3], a[0], a[1], a[2]))
		}
		lines = append(lines, "", "Angle Coeffs", "")
		for i, p := range eex.AngleParameters {
			switch p.Form {
			case "quadratic_angle":
				lines = append(lines, fmt.Sprintf("%6d %g %g%s", i+1, p.Values["K2"], p.Values["Theta0"], typeComment(p)))
			case "quartic_angle":
				lines = append(lines, fmt.Sprintf("%6d class2 %g %g %g %g%s",
					i+1, p.Values["Theta0"], p.Values["K2"], p.Values["K3"], p.Values["K4"], typeComment(p)))
			default:
				return "", NewRunError(ErrorTypeEncoding, "unsupported angle form %q", p.Form)
			}
		}

		// Class2 cross terms must match the angle list in order and count.
		if len(eex.BondBondParameters) > 0 {
			lines = append(lines, "", "BondBond Coeffs", "")
			for i, p := range eex.BondBondParameters {
				if eex.AngleParameters[i].Form == "quartic_angle" {
					lines = append(lines, fmt.Sprintf("%6d class2 %g %g %g%s",
						i+1, p.Values["K"], p.Values["R10"], p.Values["R20"], typeComment(p)))
				} else {
					lines = append(lines, fmt.Sprintf("%6d skip%s", i+1, typeComment(p)))
				}
			}
		}
		if len(eex.BondAngleParameters) > 0 {
			lines = append(lines, "", "BondAngle Coeffs", "")
			for i, p := range eex.BondAngleParameters {
				if eex.AngleParameters[i].Form == "quartic_angle" {
					lines = append(lines, fmt.Sprintf("%6d class2 %g %g %g %g%s",
						i+1, p.Values["K12"], p.Values["K23"], p.Values["R10"], p.Values["R20"], typeComment(p)))
				} else {
					lines = append(lines, fmt.Sprintf("%6d skip%s", i+1, typeComment(p)))
				}
			}
		}
	}

	if len(eex.Torsions) > 0 {
		lines = append(lines, "", "Dihedrals", "")
		for i, t := range eex.Torsions {
			lines = append(lines, fmt.Sprintf("%6d %6d %6d %6d %6d %6d", i+1, t[4], t[0], t[1], t[2], t[3]))
		}
		lines = append(lines, "", "Dihedral Coeffs", "")
		for i, p := range eex.TorsionParameters {
			switch p.Form {
			case "torsion_1":
				// The engine's harmonic dihedral carries a sign d in place of
				// the reference angle: Phi0 = 0 maps to d = -1 and Phi0 = 180
				// to d = +1. Any other reference angle has no encoding.
				var d string
				switch p.Values["Phi0"] {
				case 0:
					d = "-1"
				case 180:
					d = "+1"
				default:
					return "", NewRunError(ErrorTypeEncoding,
						"cannot encode torsion with reference angle Phi0 = %g", p.Values["Phi0"])
				}
				lines = append(lines, fmt.Sprintf("%6d harmonic %g %s %g%s",
					i+1, p.Values["KPhi"], d, p.Values["n"], typeComment(p)))
			case "torsion_3":
				lines = append(lines, fmt.Sprintf("%6d class2 %g %g %g %g %g %g%s",
					i+1, p.Values["V1"], p.Values["Phi0_1"], p.Values["V2"], p.Values["Phi0_2"],
					p.Values["V3"], p.Values["Phi0_3"], typeComment(p)))
			default:
				return "", NewRunError(ErrorTypeEncoding, "unsupported torsion form %q", p.Form)
			}
		}
	}

	if len(eex.Oops) > 0 {
		lines = append(lines, "", "Impropers", "")
		for i, o := range eex.Oops {
			lines = append(lines, fmt.Sprintf("%6d %6d %6d %6d %6d %6d", i+1, o[4], o[0], o[1], o[2], o[3]))
		}
		lines = append(lines, "", "Improper Coeffs", "")
		for i, p := range eex.OopParameters {
			lines = append(lines, fmt.Sprintf("%6d %g %g%s", i+1, p.Values["K"], p.Values["Chi0"], typeComment(p)))
		}
		if len(eex.AngleAngleParameters) > 0 {
			lines = append(lines, "", "AngleAngle Coeffs", "")
			for i, p := range eex.AngleAngleParameters {
				lines = append(lines, fmt.Sprintf("%6d %g %g %g %g %g %g%s",
					i+1, p.Values["K1"], p.Values["K2"], p.Values["K3"],
					p.Values["Theta10"], p.Values["Theta20"], p.Values["Theta30"], typeComment(p)))
			}
		}
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n"), nil
}

// boxLines renders the simulation box: the periodic cell in box form, or a
// padded bounding box around the atoms for finite systems.
func boxLines(eex *EnergyExpression) []string {
	var lines []string
	if eex.Periodicity == 3 && eex.Cell != nil {
		box := eex.Cell.Box()
		lines = append(lines, fmt.Sprintf("%g %g xlo xhi", 0.0, box.Lx))
		lines = append(lines, fmt.Sprintf("%g %g ylo yhi", 0.0, box.Ly))
		lines = append(lines, fmt.Sprintf("%g %g zlo zhi", 0.0, box.Lz))

		xy, xz, yz := box.Xy, box.Xz, box.Yz
		if abs(xy) <= tiltEpsilon {
			xy = 0
		}
		if abs(xz) <= tiltEpsilon {
			xz = 0
		}
		if abs(yz) <= tiltEpsilon {
			yz = 0
		}
		if xy != 0 || xz != 0 || yz != 0 {
			lines = append(lines, fmt.Sprintf("%g %g %g xy xz yz", xy, xz, yz))
		}
		return lines
	}

	first := eex.Atoms[0]
	xlo, xhi := first.X, first.X
	ylo, yhi := first.Y, first.Y
	zlo, zhi := first.Z, first.Z
	for _, a := range eex.Atoms {
		xlo, xhi = min(xlo, a.X), max(xhi, a.X)
		ylo, yhi = min(ylo, a.Y), max(yhi, a.Y)
		zlo, zhi = min(zlo, a.Z), max(zhi, a.Z)
	}
	// Some breathing room around the molecule.
	const pad = 10.0
	lines = append(lines, fmt.Sprintf("%g %g xlo xhi", xlo-pad, xhi+pad))
	lines = append(lines, fmt.Sprintf("%g %g ylo yhi", ylo-pad, yhi+pad))
	lines = append(lines, fmt.Sprintf("%g %g zlo zhi", zlo-pad, zhi+pad))
	return lines
}

func typeComment(p TermParameters) string {
	if len(p.Types) == 0 {
		return ""
	}
	comment := " # " + strings.Join(p.Types, "-")
	if len(p.RealTypes) > 0 {
		comment += " --> " + strings.Join(p.RealTypes, "-")
	}
	return comment
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

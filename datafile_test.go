package mdrun

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// waterExpression builds a minimal one-molecule water energy expression.
func waterExpression() *EnergyExpression {
	return &EnergyExpression{
		AtomTypes: 2,
		Atoms: []Atom{
			{X: 0, Y: 0, Z: 0, Type: 1},
			{X: 0.96, Y: 0, Z: 0, Type: 2},
			{X: -0.24, Y: 0.93, Z: 0, Type: 2},
		},
		Charges:  []float64{-0.82, 0.41, 0.41},
		Elements: []string{"O", "H", "H"},
		Masses: []MassEntry{
			{Mass: 15.9994, Type: "o*"},
			{Mass: 1.008, Type: "h*"},
		},
		NonbondParameters: []TermParameters{
			{Form: "nonbond(12-6)", Values: map[string]float64{"eps": 0.1554, "sigma": 3.166}, Types: []string{"o*"}},
			{Form: "nonbond(12-6)", Values: map[string]float64{"eps": 0, "sigma": 1}, Types: []string{"h*"}},
		},
		Bonds: [][3]int{{1, 2, 1}, {1, 3, 1}},
		BondParameters: []TermParameters{
			{Form: "quadratic_bond", Values: map[string]float64{"K2": 450, "R0": 0.9572}, Types: []string{"o*", "h*"}},
		},
		Angles: [][4]int{{2, 1, 3, 1}},
		AngleParameters: []TermParameters{
			{Form: "quadratic_angle", Values: map[string]float64{"K2": 55, "Theta0": 104.52}, Types: []string{"h*", "o*", "h*"}},
		},
	}
}

func TestEncodeDataFile(t *testing.T) {
	content, err := EncodeDataFile(waterExpression())
	require.NoError(t, err)

	require.Contains(t, content, "3 atoms")
	require.Contains(t, content, "2 atom types")
	require.Contains(t, content, "2 bonds")
	require.Contains(t, content, "1 bond types")
	require.Contains(t, content, "1 angles")
	require.Contains(t, content, "\nAtoms\n")
	require.Contains(t, content, "\nMasses\n")
	require.Contains(t, content, "\nPair Coeffs\n")
	require.Contains(t, content, "\nBond Coeffs\n")
	require.Contains(t, content, "\nAngle Coeffs\n")

	// Finite system: padded bounding box, no tilt line.
	require.Contains(t, content, "xlo xhi")
	require.NotContains(t, content, "xy xz yz")

	// Parameter type provenance comments.
	require.Contains(t, content, "# o*-h*")
}

func TestEncodeDataFilePeriodicCell(t *testing.T) {
	eex := waterExpression()
	eex.Periodicity = 3
	eex.Cell = &Cell{A: 10, B: 10, C: 10, Alpha: 90, Beta: 90, Gamma: 60}

	content, err := EncodeDataFile(eex)
	require.NoError(t, err)
	require.Contains(t, content, "0 10 xlo xhi")
	require.Contains(t, content, "xy xz yz")
}

func TestEncodeDataFileOrthogonalCellHasNoTiltLine(t *testing.T) {
	eex := waterExpression()
	eex.Periodicity = 3
	eex.Cell = &Cell{A: 10, B: 12, C: 14, Alpha: 90, Beta: 90, Gamma: 90}

	content, err := EncodeDataFile(eex)
	require.NoError(t, err)
	require.NotContains(t, content, "xy xz yz")
}

func TestEncodeDataFileTorsionDomain(t *testing.T) {
	base := waterExpression()
	base.Torsions = [][5]int{{1, 2, 3, 1, 1}}

	t.Run("Phi0 zero", func(t *testing.T) {
		eex := *base
		eex.TorsionParameters = []TermParameters{
			{Form: "torsion_1", Values: map[string]float64{"KPhi": 1.2, "n": 3, "Phi0": 0}},
		}
		content, err := EncodeDataFile(&eex)
		require.NoError(t, err)
		require.Contains(t, content, "harmonic 1.2 -1 3")
	})

	t.Run("Phi0 180", func(t *testing.T) {
		eex := *base
		eex.TorsionParameters = []TermParameters{
			{Form: "torsion_1", Values: map[string]float64{"KPhi": 1.2, "n": 3, "Phi0": 180}},
		}
		content, err := EncodeDataFile(&eex)
		require.NoError(t, err)
		require.Contains(t, content, "harmonic 1.2 +1 3")
	})

	t.Run("Phi0 out of domain", func(t *testing.T) {
		eex := *base
		eex.TorsionParameters = []TermParameters{
			{Form: "torsion_1", Values: map[string]float64{"KPhi": 1.2, "n": 3, "Phi0": 90}},
		}
		_, err := EncodeDataFile(&eex)
		require.Error(t, err)
		require.True(t, IsErrorType(err, ErrorTypeEncoding))
	})
}

func TestEncodeDataFileUnsupportedForm(t *testing.T) {
	eex := waterExpression()
	eex.BondParameters[0].Form = "morse"
	_, err := EncodeDataFile(eex)
	require.Error(t, err)
	require.True(t, IsErrorType(err, ErrorTypeEncoding))
}

func TestEncodeDataFileNoAtoms(t *testing.T) {
	_, err := EncodeDataFile(&EnergyExpression{})
	require.Error(t, err)
	require.True(t, IsErrorType(err, ErrorTypeStructure))
}

func TestEncodeDataFileClass2CrossTerms(t *testing.T) {
	eex := waterExpression()
	eex.AngleParameters[0].Form = "quartic_angle"
	eex.AngleParameters[0].Values = map[string]float64{"Theta0": 104.52, "K2": 55, "K3": -10, "K4": 2}
	eex.BondBondParameters = []TermParameters{
		{Form: "bond-bond", Values: map[string]float64{"K": 5, "R10": 0.9572, "R20": 0.9572}},
	}
	content, err := EncodeDataFile(eex)
	require.NoError(t, err)
	require.Contains(t, content, "BondBond Coeffs")

	lines := strings.Split(content, "\n")
	var angleLine string
	for i, line := range lines {
		if strings.TrimSpace(line) == "Angle Coeffs" {
			angleLine = lines[i+2]
		}
	}
	require.Contains(t, angleLine, "class2")
}

// Package dice parses and rolls the session dice notation
// <count>d<sides>[+|-modifier], e.g. "2d6+3", "1d20", "10d8-1".
// No other operators are supported on the wire.
package dice

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"mythweaver-server/shared/models"
)

const (
	maxCount = 100
	maxSides = 1000
)

var notationRegex = regexp.MustCompile(`^(\d+)[dD](\d+)([+-]\d+)?$`)

// Spec — разобранная нотация броска.
type Spec struct {
	Count    int
	Sides    int
	Modifier int
}

// Result contains the individual rolls alongside the final total.
type Result struct {
	Rolls    []int
	Modifier int
	Total    int
}

// Roller produces a uniform integer in [1, sides]. Injectable for tests.
type Roller func(sides int) int

// CryptoRoller is the default Roller, backed by crypto/rand.
func CryptoRoller(sides int) int {
	if sides <= 0 {
		return 0
	}
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(sides)))
	return int(n.Int64()) + 1 // 0..sides-1 -> 1..sides
}

// Parse validates the notation and returns its Spec.
// Zero dice ("0d6"), zero sides, missing parts and any other operator
// fail with models.ErrInvalidDiceNotation.
func Parse(notation string) (Spec, error) {
	raw := strings.ReplaceAll(strings.TrimSpace(notation), " ", "")

	matches := notationRegex.FindStringSubmatch(raw)
	if matches == nil {
		return Spec{}, fmt.Errorf("%w: %q", models.ErrInvalidDiceNotation, notation)
	}

	count, err := strconv.Atoi(matches[1])
	if err != nil || count < 1 || count > maxCount {
		return Spec{}, fmt.Errorf("%w: dice count must be 1..%d", models.ErrInvalidDiceNotation, maxCount)
	}

	sides, err := strconv.Atoi(matches[2])
	if err != nil || sides < 1 || sides > maxSides {
		return Spec{}, fmt.Errorf("%w: sides must be 1..%d", models.ErrInvalidDiceNotation, maxSides)
	}

	modifier := 0
	if matches[3] != "" {
		// Знак входит в группу, Atoi разбирает "+3" и "-1" напрямую.
		modifier, err = strconv.Atoi(matches[3])
		if err != nil {
			return Spec{}, fmt.Errorf("%w: bad modifier %q", models.ErrInvalidDiceNotation, matches[3])
		}
	}

	return Spec{Count: count, Sides: sides, Modifier: modifier}, nil
}

// Roll produces Count independent uniform rolls in [1, Sides] and sums
// them with the modifier. A nil roller falls back to CryptoRoller.
func (s Spec) Roll(roller Roller) Result {
	if roller == nil {
		roller = CryptoRoller
	}

	res := Result{
		Rolls:    make([]int, 0, s.Count),
		Modifier: s.Modifier,
		Total:    s.Modifier,
	}
	for i := 0; i < s.Count; i++ {
		v := roller(s.Sides)
		res.Rolls = append(res.Rolls, v)
		res.Total += v
	}
	return res
}

// RollNotation is the one-call convenience used by the orchestrator.
func RollNotation(notation string, roller Roller) (Result, error) {
	spec, err := Parse(notation)
	if err != nil {
		return Result{}, err
	}
	return spec.Roll(roller), nil
}

package service

import (
	"fmt"
	"strings"

	"github.com/aazoaer/health-manager/internal/health"
	"github.com/aazoaer/health-manager/internal/model"
)

type unitKind string

const (
	unitKindMass   unitKind = "mass"
	unitKindVolume unitKind = "volume"
)

type unitDef struct {
	kind       unitKind
	toBaseUnit float64
}

var unitTable = map[string]unitDef{
	// mass (base = g)
	"mg":    {kind: unitKindMass, toBaseUnit: 0.001},
	"g":     {kind: unitKindMass, toBaseUnit: 1},
	"kg":    {kind: unitKindMass, toBaseUnit: 1000},
	"oz":    {kind: unitKindMass, toBaseUnit: 28.349523125},
	"lb":    {kind: unitKindMass, toBaseUnit: 453.59237},
	"jin":   {kind: unitKindMass, toBaseUnit: 500},
	"liang": {kind: unitKindMass, toBaseUnit: 50},

	// volume (base = ml)
	"ml":    {kind: unitKindVolume, toBaseUnit: 1},
	"l":     {kind: unitKindVolume, toBaseUnit: 1000},
	"tsp":   {kind: unitKindVolume, toBaseUnit: 4.92892159375},
	"tbsp":  {kind: unitKindVolume, toBaseUnit: 14.78676478125},
	"cup":   {kind: unitKindVolume, toBaseUnit: 236.5882365},
	"fl-oz": {kind: unitKindVolume, toBaseUnit: 29.5735295625},
}

// ScaleNutrients converts per-reference nutrient values to the amount
// eaten. Units outside the conversion table (serving, piece, ...) scale
// only against the same reference unit.
func ScaleNutrients(ref model.Nutrients, amount float64, unit string, refAmount float64, refUnit string, densityGML float64) (model.Nutrients, error) {
	if err := validatePositiveFloat("amount", amount); err != nil {
		return nil, err
	}
	if err := validatePositiveFloat("reference amount", refAmount); err != nil {
		return nil, err
	}
	for key, v := range ref {
		if health.NutrientUnit(key) == "" {
			return nil, invalidf("unknown nutrient %q", key)
		}
		if err := validateNonNegativeFloat(key, v); err != nil {
			return nil, err
		}
	}

	var inRefUnit float64
	if normalizeName(unit) == normalizeName(refUnit) {
		inRefUnit = amount
	} else {
		v, err := ConvertAmount(amount, unit, refUnit, densityGML)
		if err != nil {
			return nil, err
		}
		inRefUnit = v
	}
	factor := inRefUnit / refAmount

	out := make(model.Nutrients, len(health.NutrientKeys))
	for _, key := range health.NutrientKeys {
		out[key] = health.Round2(ref[key] * factor)
	}
	return out, nil
}

func ConvertAmount(value float64, fromUnit, toUnit string, densityGML float64) (float64, error) {
	if value <= 0 {
		return 0, invalidf("amount must be > 0")
	}
	from, ok := resolveUnit(fromUnit)
	if !ok {
		return 0, invalidf("unsupported unit %q", fromUnit)
	}
	to, ok := resolveUnit(toUnit)
	if !ok {
		return 0, invalidf("unsupported unit %q", toUnit)
	}

	if from.kind == to.kind {
		return value * from.toBaseUnit / to.toBaseUnit, nil
	}
	if densityGML <= 0 {
		return 0, invalidf("density-g-per-ml must be > 0 for mass/volume conversion")
	}

	var grams float64
	switch from.kind {
	case unitKindMass:
		grams = value * from.toBaseUnit
	case unitKindVolume:
		grams = value * from.toBaseUnit * densityGML
	default:
		return 0, fmt.Errorf("unsupported source unit kind %q", from.kind)
	}
	switch to.kind {
	case unitKindMass:
		return grams / to.toBaseUnit, nil
	case unitKindVolume:
		return grams / densityGML / to.toBaseUnit, nil
	default:
		return 0, fmt.Errorf("unsupported target unit kind %q", to.kind)
	}
}

func resolveUnit(unit string) (unitDef, bool) {
	def, ok := unitTable[strings.ToLower(strings.TrimSpace(unit))]
	return def, ok
}

package advisor

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"sponsor-advisor-be/internal/entity"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const amountNumber = `(\d{1,3}(?:,\d{3})+|\d+)(\.\d+)?(\s?[kK]\b)?`

// Each amount pattern captures whole, fraction and thousands suffix in groups 1 to 3.
var (
	amountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\$\s?` + amountNumber),
		regexp.MustCompile(`(?i)\b(?:usd|us\$)\s?` + amountNumber),
		regexp.MustCompile(`(?i)\b` + amountNumber + `\s?(?:dollars?|usd|bucks)\b`),
	}
	distancePattern = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s?(km|kilometers?|kilometres?|mi|miles?)\b`)
	printer         = message.NewPrinter(language.English)
)

const (
	kmPerMile       = 1.609344
	amountTolerance = 0.01
	kmTolerance     = 0.51
	mileTolerance   = 0.51 * kmPerMile
)

// Vocabulary is everything a reply is allowed to state for one turn.
type Vocabulary struct {
	Candidates        []entity.CandidatePackage
	KnownTeamNames    []string
	KnownPackageNames []string
	// ExtraAmounts and ExtraDistancesKm are user-supplied values (budget, radius)
	// that may be echoed back.
	ExtraAmounts     []float64
	ExtraDistancesKm []float64
}

// CheckGrounding returns a *ContractViolation when text mentions a dollar amount,
// distance, catalog team or catalog package that is not in the vocabulary.
func CheckGrounding(text string, v Vocabulary) error {
	var violations []string

	allowedAmounts := append([]float64(nil), v.ExtraAmounts...)
	allowedDistances := append([]float64(nil), v.ExtraDistancesKm...)
	allowedNames := make([]string, 0, len(v.Candidates))
	allowedPackages := make([]string, 0, len(v.Candidates))
	for _, c := range v.Candidates {
		allowedAmounts = append(allowedAmounts, c.Price)
		if c.EstimatedCostPerFan != nil {
			allowedAmounts = append(allowedAmounts, roundTo(*c.EstimatedCostPerFan, 2))
		}
		allowedDistances = append(allowedDistances, c.DistanceKm)
		allowedNames = append(allowedNames, strings.ToLower(c.TeamName))
		allowedPackages = append(allowedPackages, strings.ToLower(c.PackageName))
	}

	for _, pattern := range amountPatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			amount, err := parseAmount(m[1], m[2], m[3])
			if err != nil {
				violations = append(violations, fmt.Sprintf("unparseable amount %q", m[0]))
				continue
			}
			if !withinAny(amount, allowedAmounts, amountTolerance) {
				violations = append(violations, fmt.Sprintf("amount %q not in results", strings.TrimSpace(m[0])))
			}
		}
	}

	for _, m := range distancePattern.FindAllStringSubmatch(text, -1) {
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		tolerance := kmTolerance
		unit := strings.ToLower(m[2])
		if unit == "mi" || strings.HasPrefix(unit, "mile") {
			value *= kmPerMile
			tolerance = mileTolerance
		}
		if !withinAny(value, allowedDistances, tolerance) {
			violations = append(violations, fmt.Sprintf("distance %q not in results", m[0]))
		}
	}

	// Blank out allowed names first so a catalog name that is a prefix of a
	// candidate's name (e.g. "Riverside" vs "Riverside FC") does not trip the check.
	scrubbed := scrubNames(" "+normalizeForNames(text)+" ", allowedNames, allowedPackages)
	violations = append(violations, unknownNames(scrubbed, "team", v.KnownTeamNames, allowedNames)...)
	violations = append(violations, unknownNames(scrubbed, "package", v.KnownPackageNames, allowedPackages)...)

	if len(violations) > 0 {
		return &ContractViolation{Violations: violations}
	}
	return nil
}

// FormatPrice renders a price the way replies and the gate both expect, e.g. $3,000 or $1,250.50.
func FormatPrice(v float64) string {
	whole := math.Floor(v)
	cents := math.Round((v - whole) * 100)
	if cents >= 100 {
		whole++
		cents = 0
	}
	if cents == 0 {
		return printer.Sprintf("$%d", int64(whole))
	}
	return printer.Sprintf("$%d", int64(whole)) + fmt.Sprintf(".%02d", int64(cents))
}

// FormatDistance renders a distance with one decimal place.
func FormatDistance(km float64) string {
	return fmt.Sprintf("%.1f km", km)
}

func parseAmount(whole, fraction, suffix string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(whole, ",", "")+fraction, 64)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(suffix) != "" {
		v *= 1000
	}
	return v, nil
}

func withinAny(v float64, allowed []float64, tolerance float64) bool {
	for _, a := range allowed {
		if math.Abs(a-v) <= tolerance {
			return true
		}
	}
	return false
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

var nonNameChars = regexp.MustCompile(`[^\p{L}\p{N}]+`)

func normalizeForNames(s string) string {
	return strings.TrimSpace(nonNameChars.ReplaceAllString(strings.ToLower(s), " "))
}

func scrubNames(text string, lists ...[]string) string {
	for _, list := range lists {
		for _, name := range list {
			if n := normalizeForNames(name); n != "" {
				text = strings.ReplaceAll(text, " "+n+" ", " ")
			}
		}
	}
	return text
}

func unknownNames(scrubbed, kind string, known, allowed []string) []string {
	var out []string
	for _, name := range known {
		n := normalizeForNames(name)
		if n == "" || containsString(allowed, strings.ToLower(name)) {
			continue
		}
		if strings.Contains(scrubbed, " "+n+" ") {
			out = append(out, fmt.Sprintf("%s %q not in results", kind, name))
		}
	}
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

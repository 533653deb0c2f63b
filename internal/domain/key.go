package domain

import (
	"cmp"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CountyKey is the canonical join key shared by every source.
type CountyKey struct {
	County string `json:"county"`
	State  string `json:"state"`
}

// NewCountyKey normalizes raw county and state strings into a key.
func NewCountyKey(county, state string) CountyKey {
	return CountyKey{County: NormalizeCounty(county), State: NormalizeState(state)}
}

// Valid reports whether both parts of the key are present.
func (k CountyKey) Valid() bool {
	return k.County != "" && k.State != ""
}

// Compare orders keys by county, then state.
func (k CountyKey) Compare(o CountyKey) int {
	return cmp.Or(strings.Compare(k.County, o.County), strings.Compare(k.State, o.State))
}

func (k CountyKey) String() string {
	return k.County + ", " + k.State
}

var (
	// stateSuffixRe matches a trailing ", AL" style state qualifier.
	stateSuffixRe = regexp.MustCompile(`,\s*[A-Z]{2}\s*$`)

	// countySuffixRe matches administrative-unit words. Multi-word units come
	// first so "census area" is removed as a unit.
	countySuffixRe = regexp.MustCompile(`\b(planning region|census area|county|parish|city|borough|municipality|township|town)\b`)

	nonAlnumRe = regexp.MustCompile(`[^a-z0-9 ]+`)

	spaceRe = regexp.MustCompile(`\s+`)
)

// foldDiacritics strips combining marks so "Doña" becomes "Dona". A chained
// transformer carries state, so one is built per call.
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeCounty canonicalizes a county name: lowercase, diacritics folded,
// administrative suffix words removed, punctuation dropped, whitespace
// collapsed. It returns
// "" when nothing identifying is left.
func NormalizeCounty(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = stateSuffixRe.ReplaceAllString(s, "")
	s = strings.ToLower(foldDiacritics(s))
	s = spaceRe.ReplaceAllString(s, " ")
	s = countySuffixRe.ReplaceAllString(s, " ")
	s = nonAlnumRe.ReplaceAllString(s, "")
	// Dropping punctuation can expose a suffix word ("cit'y"); strip again so
	// the result is a fixed point.
	s = countySuffixRe.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeState maps a state name or code to its 2-letter code. Inputs that
// are already two characters are returned uppercased; unmapped names come back
// uppercased so callers can detect them with IsKnownState.
func NormalizeState(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	if len(s) == 2 {
		return s
	}
	if code, ok := stateCodes[strings.Join(strings.Fields(s), " ")]; ok {
		return code
	}
	return s
}

// IsKnownState reports whether code is one of the 50 states or DC.
func IsKnownState(code string) bool {
	_, ok := stateCentroids[code]
	return ok
}

// FIPSToState maps a 2-digit state FIPS prefix to its postal code. Unmapped
// prefixes pass through unchanged.
func FIPSToState(prefix string) string {
	if code, ok := fipsStates[prefix]; ok {
		return code
	}
	return prefix
}

// PadFIPS zero-pads a numeric state FIPS code to two digits. Spreadsheet
// exports sometimes carry it as a float ("1.0"); those are accepted too.
func PadFIPS(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return leftPad2(n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 && f == float64(int(f)) {
		return leftPad2(int(f))
	}
	return s
}

func leftPad2(n int) string {
	s := strconv.Itoa(n)
	if len(s) < 2 {
		return "0" + s
	}
	return s
}

var stateCodes = map[string]string{
	"ALABAMA": "AL", "ALASKA": "AK", "ARIZONA": "AZ", "ARKANSAS": "AR", "CALIFORNIA": "CA",
	"COLORADO": "CO", "CONNECTICUT": "CT", "DELAWARE": "DE", "FLORIDA": "FL", "GEORGIA": "GA",
	"HAWAII": "HI", "IDAHO": "ID", "ILLINOIS": "IL", "INDIANA": "IN", "IOWA": "IA",
	"KANSAS": "KS", "KENTUCKY": "KY", "LOUISIANA": "LA", "MAINE": "ME", "MARYLAND": "MD",
	"MASSACHUSETTS": "MA", "MICHIGAN": "MI", "MINNESOTA": "MN", "MISSISSIPPI": "MS", "MISSOURI": "MO",
	"MONTANA": "MT", "NEBRASKA": "NE", "NEVADA": "NV", "NEW HAMPSHIRE": "NH", "NEW JERSEY": "NJ",
	"NEW MEXICO": "NM", "NEW YORK": "NY", "NORTH CAROLINA": "NC", "NORTH DAKOTA": "ND", "OHIO": "OH",
	"OKLAHOMA": "OK", "OREGON": "OR", "PENNSYLVANIA": "PA", "RHODE ISLAND": "RI", "SOUTH CAROLINA": "SC",
	"SOUTH DAKOTA": "SD", "TENNESSEE": "TN", "TEXAS": "TX", "UTAH": "UT", "VERMONT": "VT",
	"VIRGINIA": "VA", "WASHINGTON": "WA", "WEST VIRGINIA": "WV", "WISCONSIN": "WI", "WYOMING": "WY",
	"DISTRICT OF COLUMBIA": "DC",
}

var fipsStates = map[string]string{
	"01": "AL", "02": "AK", "04": "AZ", "05": "AR", "06": "CA", "08": "CO", "09": "CT",
	"10": "DE", "11": "DC", "12": "FL", "13": "GA", "15": "HI", "16": "ID", "17": "IL",
	"18": "IN", "19": "IA", "20": "KS", "21": "KY", "22": "LA", "23": "ME", "24": "MD",
	"25": "MA", "26": "MI", "27": "MN", "28": "MS", "29": "MO", "30": "MT", "31": "NE",
	"32": "NV", "33": "NH", "34": "NJ", "35": "NM", "36": "NY", "37": "NC", "38": "ND",
	"39": "OH", "40": "OK", "41": "OR", "42": "PA", "44": "RI", "45": "SC", "46": "SD",
	"47": "TN", "48": "TX", "49": "UT", "50": "VT", "51": "VA", "53": "WA", "54": "WV",
	"55": "WI", "56": "WY",
}

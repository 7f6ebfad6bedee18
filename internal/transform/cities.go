package transform

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	textx "golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// defaultCities maps municipality names to their DANE codes.
var defaultCities = map[string]string{
	"Bogotá":        "11001",
	"Bogotá D.C.":   "11001",
	"Medellín":      "05001",
	"Cali":          "76001",
	"Barranquilla":  "08001",
	"Cartagena":     "13001",
	"Bucaramanga":   "68001",
	"Cúcuta":        "54001",
	"Pereira":       "66001",
	"Manizales":     "17001",
	"Ibagué":        "73001",
	"Santa Marta":   "47001",
	"Villavicencio": "50001",
	"Pasto":         "52001",
	"Armenia":       "63001",
	"Neiva":         "41001",
	"Montería":      "23001",
	"Popayán":       "19001",
	"Tunja":         "15001",
	"Valledupar":    "20001",
	"Sincelejo":     "70001",
	"Soacha":        "25754",
	"Bello":         "05088",
	"Envigado":      "05266",
	"Itagüí":        "05360",
	"Soledad":       "08758",
	"Floridablanca": "68276",
	"Palmira":       "76520",
	"Chía":          "25175",
	"Zipaquirá":     "25899",
}

// CityCatalog resolves city names to codes, ignoring accents, case and
// surrounding whitespace.
type CityCatalog struct {
	codes map[string]string
}

// NewCityCatalog starts from the built-in list; extra entries override it.
func NewCityCatalog(extra map[string]string) *CityCatalog {
	c := &CityCatalog{codes: make(map[string]string, len(defaultCities)+len(extra))}
	for name, code := range defaultCities {
		c.codes[foldCity(name)] = code
	}
	for name, code := range extra {
		c.codes[foldCity(name)] = code
	}
	return c
}

func (c *CityCatalog) Lookup(name string) (string, bool) {
	if c == nil {
		return "", false
	}
	code, ok := c.codes[foldCity(name)]
	return code, ok
}

func foldCity(s string) string {
	t := textx.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := textx.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

package product

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

type Product struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Tax       float64 `json:"tax"`
	AdsCost   float64 `json:"adsCost"`
	Reduction float64 `json:"reduction"`
	Category  string  `json:"category"`
}

// Input is the raw, user-supplied form of a product. Numeric fields are kept
// as text until New coerces them.
type Input struct {
	Title     string `json:"title" validate:"max=200"`
	Price     Amount `json:"price"`
	Tax       Amount `json:"tax"`
	AdsCost   Amount `json:"adsCost"`
	Reduction Amount `json:"reduction"`
	Category  string `json:"category" validate:"max=100"`
}

// New builds a product from raw input. The ID is assigned by the catalog.
func New(in Input) Product {
	return Product{
		Title:     in.Title,
		Price:     in.Price.Float(),
		Tax:       in.Tax.Float(),
		AdsCost:   in.AdsCost.Float(),
		Reduction: in.Reduction.Float(),
		Category:  in.Category,
	}
}

// Input returns p in raw form, so an existing product can be fed back to New.
func (p Product) Input() Input {
	return Input{
		Title:     p.Title,
		Price:     AmountOf(p.Price),
		Tax:       AmountOf(p.Tax),
		AdsCost:   AmountOf(p.AdsCost),
		Reduction: AmountOf(p.Reduction),
		Category:  p.Category,
	}
}

func (p Product) Total() Total {
	return ComputeTotal(p.Price, p.Tax, p.AdsCost, p.Reduction)
}

// Amount is a numeric field as typed by a user. It unmarshals from either a
// JSON number or a JSON string.
type Amount string

func AmountOf(f float64) Amount {
	return Amount(strconv.FormatFloat(f, 'f', -1, 64))
}

func (a Amount) Float() float64 { return ParseAmount(string(a)) }

func (a *Amount) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = Amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		// Anything else (bool, object) is not a number and coerces to 0.
		*a = ""
		return nil
	}
	*a = Amount(n.String())
	return nil
}

var leadingFloat = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseAmount parses the leading decimal number of s and returns 0 when there
// is none. Non-finite results also become 0.
func ParseAmount(s string) float64 {
	m := leadingFloat.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

package coursecontent

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
)

// ItemView is one projected item in a ContentView.
type ItemView interface {
	ItemPosition() Position
}

// CalculationView is a CalculateTwoNumbers item with its computed result.
type CalculationView struct {
	*CalculateTwoNumbers
	Result Number `json:"result"`
}

// Number is a float64 whose non-finite values survive JSON encoding as the
// strings "NaN", "Infinity" and "-Infinity".
type Number float64

// MarshalJSON encodes finite values as numbers.
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return []byte(`"NaN"`), nil
	case math.IsInf(f, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Infinity"`), nil
	default:
		return json.Marshal(f)
	}
}

// UnmarshalJSON reverses MarshalJSON.
func (n *Number) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		switch s {
		case "NaN":
			*n = Number(math.NaN())
		case "Infinity":
			*n = Number(math.Inf(1))
		case "-Infinity":
			*n = Number(math.Inf(-1))
		default:
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return err
			}
			*n = Number(f)
		}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// Calculate applies the item's operator. Unknown operators yield NaN;
// division follows IEEE semantics, so x/0 is ±Inf and 0/0 is NaN.
func Calculate(item *CalculateTwoNumbers) float64 {
	a, b := item.FirstNumber, item.SecondNumber
	switch item.Operator {
	case "+":
		return a + b
	case "-":
		return a - b
	case "*":
		return a * b
	case "/":
		return a / b
	default:
		return math.NaN()
	}
}

// projector builds item views, adding derived fields per kind.
type projector struct {
	views []ItemView
}

func (p *projector) VisitCalculateTwoNumbers(item *CalculateTwoNumbers) {
	p.views = append(p.views, CalculationView{CalculateTwoNumbers: item, Result: Number(Calculate(item))})
}

func (p *projector) VisitCard(item *Card) {
	p.views = append(p.views, item)
}

func (p *projector) VisitFlashcard(item *Flashcard) {
	p.views = append(p.views, item)
}

// Project builds the client-facing view of doc. Items keep their storage
// order.
func Project(doc *ContentDocument) *ContentView {
	p := &projector{views: make([]ItemView, 0, len(doc.ContentData))}
	for _, item := range doc.ContentData {
		item.Accept(p)
	}

	view := &ContentView{
		ContentID:          doc.ID,
		ContentType:        doc.ContentType,
		ContentNo:          doc.ContentNo,
		ContentName:        doc.ContentName,
		ContentDescription: doc.ContentDescription,
		ContentCreateAt:    FormatDate(doc.ContentCreateAt),
		ContentData:        p.views,
	}
	if doc.ContentLastEditDate != nil {
		s := FormatDate(*doc.ContentLastEditDate)
		view.ContentLastEditDate = &s
	}
	return view
}

// SortedByPosition returns the items ordered by position, unset positions
// last. The input is not modified.
func SortedByPosition[T interface{ ItemPosition() Position }](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		a, aok := out[i].ItemPosition().Int()
		b, bok := out[j].ItemPosition().Int()
		if aok != bok {
			return aok
		}
		return a < b
	})
	return out
}

package coursecontent

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ContentItem is one entry of a document's ContentData. The set of
// implementations is closed; dispatch on the concrete kind goes through
// ItemVisitor.
type ContentItem interface {
	Type() ContentType
	ItemPosition() Position
	// WithPosition returns a copy of the item moved to p.
	WithPosition(p Position) ContentItem
	Accept(v ItemVisitor)

	contentItem()
}

// ItemVisitor has one method per ContentItem kind. Adding a kind adds a
// method here, which every visitor must then implement.
type ItemVisitor interface {
	VisitCalculateTwoNumbers(item *CalculateTwoNumbers)
	VisitCard(item *Card)
	VisitFlashcard(item *Flashcard)
}

// CalculateTwoNumbers is an arithmetic exercise on two operands.
type CalculateTwoNumbers struct {
	Position     Position `json:"position"`
	FirstNumber  float64  `json:"firstNumber"`
	SecondNumber float64  `json:"secondNumber"`
	Operator     string   `json:"operator"`
}

// Card is a titled card with optional illustration.
type Card struct {
	Position    Position `json:"position"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	ImageURL    string   `json:"imageURL,omitempty"`
}

// Flashcard pairs a prompt with its answer.
type Flashcard struct {
	Position Position `json:"position"`
	Front    string   `json:"front"`
	Back     string   `json:"back"`
}

func (c *CalculateTwoNumbers) Type() ContentType      { return ContentTypeCalculateTwoNumber }
func (c *CalculateTwoNumbers) ItemPosition() Position { return c.Position }
func (c *CalculateTwoNumbers) Accept(v ItemVisitor)   { v.VisitCalculateTwoNumbers(c) }
func (c *CalculateTwoNumbers) contentItem()           {}

func (c *CalculateTwoNumbers) WithPosition(p Position) ContentItem {
	cp := *c
	cp.Position = p
	return &cp
}

func (c *Card) Type() ContentType      { return ContentTypeCard }
func (c *Card) ItemPosition() Position { return c.Position }
func (c *Card) Accept(v ItemVisitor)   { v.VisitCard(c) }
func (c *Card) contentItem()           {}

func (c *Card) WithPosition(p Position) ContentItem {
	cp := *c
	cp.Position = p
	return &cp
}

func (f *Flashcard) Type() ContentType      { return ContentTypeFlashcard }
func (f *Flashcard) ItemPosition() Position { return f.Position }
func (f *Flashcard) Accept(v ItemVisitor)   { v.VisitFlashcard(f) }
func (f *Flashcard) contentItem()           {}

func (f *Flashcard) WithPosition(p Position) ContentItem {
	cp := *f
	cp.Position = p
	return &cp
}

// newItem returns an empty item of the given kind.
func newItem(t ContentType) (ContentItem, error) {
	switch t {
	case ContentTypeCalculateTwoNumber:
		return &CalculateTwoNumbers{}, nil
	case ContentTypeCard:
		return &Card{}, nil
	case ContentTypeFlashcard:
		return &Flashcard{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidContentType, t)
	}
}

// DecodeItem decodes a JSON item payload as an item of kind t.
func DecodeItem(t ContentType, data []byte) (ContentItem, error) {
	item, err := newItem(t)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, item); err != nil {
		return nil, fmt.Errorf("decode %s item: %w", t, err)
	}
	return item, nil
}

// decodeItemValue decodes one stored contentData element.
func decodeItemValue(t ContentType, v any) (ContentItem, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode stored %s item: %w", t, err)
	}
	return DecodeItem(t, raw)
}

// encodeItemValue converts an item into the generic form kept in Fields.
func encodeItemValue(item ContentItem) (map[string]any, error) {
	raw, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encode %s item: %w", item.Type(), err)
	}
	// json.Number keeps integer fields exact in the generic form.
	var m map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("encode %s item: %w", item.Type(), err)
	}
	return m, nil
}

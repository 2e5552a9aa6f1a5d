package coursecontent

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Stored field names.
const (
	FieldContentType         = "contentType"
	FieldContentNo           = "contentNo"
	FieldContentName         = "contentName"
	FieldContentDescription  = "contentDescription"
	FieldContentData         = "contentData"
	FieldContentCreateAt     = "contentCreateAt"
	FieldContentLastEditDate = "contentLastEditDate"
)

// EncodeDocument converts doc into the full field set written on create.
func EncodeDocument(doc *ContentDocument) (Fields, error) {
	items, err := encodeItems(doc.ContentData)
	if err != nil {
		return nil, err
	}
	fields := Fields{
		FieldContentType:         string(doc.ContentType),
		FieldContentNo:           doc.ContentNo,
		FieldContentName:         doc.ContentName,
		FieldContentDescription:  doc.ContentDescription,
		FieldContentData:         items,
		FieldContentCreateAt:     doc.ContentCreateAt,
		FieldContentLastEditDate: nil,
	}
	if doc.ContentLastEditDate != nil {
		fields[FieldContentLastEditDate] = *doc.ContentLastEditDate
	}
	return fields, nil
}

// DecodeDocument converts stored fields back into a ContentDocument.
func DecodeDocument(id string, fields Fields, revision int64) (*ContentDocument, error) {
	t, err := ParseContentType(stringValue(fields[FieldContentType]))
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", id, err)
	}
	no, err := intValue(fields[FieldContentNo])
	if err != nil {
		return nil, fmt.Errorf("document %s: %s: %w", id, FieldContentNo, err)
	}
	createdAt, err := timeValue(fields[FieldContentCreateAt])
	if err != nil {
		return nil, fmt.Errorf("document %s: %s: %w", id, FieldContentCreateAt, err)
	}
	doc := &ContentDocument{
		ID:                 id,
		ContentType:        t,
		ContentNo:          no,
		ContentName:        stringValue(fields[FieldContentName]),
		ContentDescription: stringValue(fields[FieldContentDescription]),
		Revision:           revision,
	}
	if createdAt != nil {
		doc.ContentCreateAt = *createdAt
	}
	if doc.ContentLastEditDate, err = timeValue(fields[FieldContentLastEditDate]); err != nil {
		return nil, fmt.Errorf("document %s: %s: %w", id, FieldContentLastEditDate, err)
	}

	raw, _ := fields[FieldContentData].([]any)
	doc.ContentData = make([]ContentItem, 0, len(raw))
	for i, v := range raw {
		item, err := decodeItemValue(t, v)
		if err != nil {
			return nil, fmt.Errorf("document %s: item %d: %w", id, i, err)
		}
		doc.ContentData = append(doc.ContentData, item)
	}
	return doc, nil
}

func encodeItems(items []ContentItem) ([]any, error) {
	out := make([]any, 0, len(items))
	for _, item := range items {
		m, err := encodeItemValue(item)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func intValue(v any) (int, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int:
		return x, nil
	case int32:
		return int(x), nil
	case int64:
		return int(x), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("not an integer: %v", x)
		}
		return int(x), nil
	case json.Number:
		return strconv.Atoi(x.String())
	case string:
		return strconv.Atoi(x)
	default:
		return 0, fmt.Errorf("unsupported value %T", v)
	}
}

// timeValue accepts the forms a timestamp takes after a round trip through
// any of the stores: time.Time in memory, RFC 3339 strings in JSON.
func timeValue(v any) (*time.Time, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		t := x.UTC()
		return &t, nil
	case *time.Time:
		if x == nil {
			return nil, nil
		}
		t := x.UTC()
		return &t, nil
	case string:
		if x == "" {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339Nano, x)
		if err != nil {
			return nil, err
		}
		t = t.UTC()
		return &t, nil
	default:
		return nil, fmt.Errorf("unsupported value %T", v)
	}
}

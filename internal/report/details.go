package report

import (
	"encoding/json"
	"fmt"
)

// Detail shape tags as emitted by the audit engine.
const (
	DetailsTypeTable     = "table"
	DetailsTypeList      = "list"
	DetailsTypeCode      = "code"
	DetailsTypeFilmstrip = "filmstrip"
	DetailsTypeThumbnail = "thumbnail"
)

// Details is a tagged union over the audit-detail shapes the service
// understands. Unrecognized shapes round-trip untouched through Raw.
type Details struct {
	Type      string
	Table     *Table
	List      *List
	Code      *Code
	Filmstrip *Filmstrip
	Thumbnail *Thumbnail
	Raw       json.RawMessage
}

// Table is a tabular detail; contents pass through unmodified.
type Table struct {
	Type     string          `json:"type"`
	Headings json.RawMessage `json:"headings,omitempty"`
	Items    json.RawMessage `json:"items,omitempty"`
	Summary  json.RawMessage `json:"summary,omitempty"`
}

// List is a list detail; contents pass through unmodified.
type List struct {
	Type  string          `json:"type"`
	Items json.RawMessage `json:"items,omitempty"`
}

// Code is a code-snippet detail.
type Code struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// Filmstrip is the multi-frame screenshot sequence shape.
type Filmstrip struct {
	Type  string          `json:"type"`
	Scale float64         `json:"scale,omitempty"`
	Items []FilmstripItem `json:"items"`
}

// FilmstripItem is one frame. Exactly one of Data, ObjectKey or URL is set
// at any stage of the artifact protocol: Data inline from the engine,
// ObjectKey once persisted, URL once rehydrated for a response.
type FilmstripItem struct {
	Timing       float64 `json:"timing,omitempty"`
	Timestamp    float64 `json:"timestamp,omitempty"`
	Data         string  `json:"data,omitempty"`
	ObjectKey    string  `json:"objectKey,omitempty"`
	URL          string  `json:"url,omitempty"`
	ErrorMessage string  `json:"errorMessage,omitempty"`
}

// Thumbnail is the single-image screenshot shape.
type Thumbnail struct {
	Type         string  `json:"type"`
	Timing       float64 `json:"timing,omitempty"`
	Timestamp    float64 `json:"timestamp,omitempty"`
	Data         string  `json:"data,omitempty"`
	ObjectKey    string  `json:"objectKey,omitempty"`
	URL          string  `json:"url,omitempty"`
	ErrorMessage string  `json:"errorMessage,omitempty"`
}

// UnmarshalJSON decodes into the arm matching the "type" tag; unknown tags
// are retained verbatim.
func (d *Details) UnmarshalJSON(data []byte) error {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("probe details type: %w", err)
	}
	d.Type = probe.Type
	switch probe.Type {
	case DetailsTypeTable:
		d.Table = &Table{}
		if err := json.Unmarshal(data, d.Table); err != nil {
			return fmt.Errorf("decode table details: %w", err)
		}
	case DetailsTypeList:
		d.List = &List{}
		if err := json.Unmarshal(data, d.List); err != nil {
			return fmt.Errorf("decode list details: %w", err)
		}
	case DetailsTypeCode:
		d.Code = &Code{}
		if err := json.Unmarshal(data, d.Code); err != nil {
			return fmt.Errorf("decode code details: %w", err)
		}
	case DetailsTypeFilmstrip:
		d.Filmstrip = &Filmstrip{}
		if err := json.Unmarshal(data, d.Filmstrip); err != nil {
			return fmt.Errorf("decode filmstrip details: %w", err)
		}
	case DetailsTypeThumbnail:
		d.Thumbnail = &Thumbnail{}
		if err := json.Unmarshal(data, d.Thumbnail); err != nil {
			return fmt.Errorf("decode thumbnail details: %w", err)
		}
	default:
		d.Raw = append(json.RawMessage(nil), data...)
	}
	return nil
}

// MarshalJSON encodes the active arm, or the retained raw payload for
// unrecognized shapes.
func (d Details) MarshalJSON() ([]byte, error) {
	switch {
	case d.Table != nil:
		return json.Marshal(d.Table)
	case d.List != nil:
		return json.Marshal(d.List)
	case d.Code != nil:
		return json.Marshal(d.Code)
	case d.Filmstrip != nil:
		return json.Marshal(d.Filmstrip)
	case d.Thumbnail != nil:
		return json.Marshal(d.Thumbnail)
	case len(d.Raw) > 0:
		return append(json.RawMessage(nil), d.Raw...), nil
	default:
		return json.Marshal(struct {
			Type string `json:"type,omitempty"`
		}{Type: d.Type})
	}
}

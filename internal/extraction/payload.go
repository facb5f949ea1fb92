package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bancaflow/internal/core/apperror"
	"bancaflow/internal/domain/catalog"
)

const dateLayout = "2006-01-02"

// FlexInt decodes a JSON integer that the extraction service may emit as a
// number, a numeric string, null, or the literal string "null".
type FlexInt struct {
	Value int
	Set   bool
}

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var err error
		s, err = strconv.Unquote(s)
		if err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "none") {
			return nil
		}
	}
	// Accept "3.0" style floats as long as they are whole.
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", s)
	}
	f.Value = int(v)
	f.Set = true
	return nil
}

// FlexString decodes a JSON string that may also arrive as a bare number or
// null. The literals "null" and "none" count as unset.
type FlexString struct {
	Value string
	Set   bool
}

func (f *FlexString) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var err error
		s, err = strconv.Unquote(s)
		if err != nil {
			return err
		}
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "none") {
		return nil
	}
	f.Value = s
	f.Set = true
	return nil
}

// ExtractedItem is one product row as emitted by the extraction service.
// Quantities and prices frequently arrive as strings, hence the flex types.
type ExtractedItem struct {
	Name          FlexString `json:"nome"`
	EditionNumber FlexInt    `json:"numero_edicao"`
	Barcode       FlexString `json:"codigo_barras"`
	Quantity      FlexInt    `json:"qtd_estoque"`
	CoverPrice    FlexString `json:"preco_capa"`
	NetPrice      FlexString `json:"preco_liquido"`
	DeliveryDate  FlexString `json:"data_entrega"`
}

// ReceivedAt parses the line's delivery date when present and well-formed.
func (e ExtractedItem) ReceivedAt() *time.Time {
	if !e.DeliveryDate.Set {
		return nil
	}
	t, err := time.Parse(dateLayout, e.DeliveryDate.Value)
	if err != nil {
		return nil
	}
	return &t
}

// LineItem converts the extracted row into the catalog's line item shape.
func (e ExtractedItem) LineItem() catalog.LineItem {
	item := catalog.LineItem{
		Name:       strings.TrimSpace(e.Name.Value),
		Barcode:    e.Barcode.Value,
		Quantity:   e.Quantity.Value,
		CoverPrice: e.CoverPrice.Value,
		NetPrice:   e.NetPrice.Value,
	}
	if e.EditionNumber.Set {
		n := e.EditionNumber.Value
		item.EditionNumber = &n
	}
	return item
}

// DeliveryHeader is the document-level block of a delivery note payload.
type DeliveryHeader struct {
	OutletID       FlexString `json:"ponto_venda_id"`
	DeliveryNoteID FlexString `json:"nota_entrega_id"`
	Date           FlexString `json:"data"`
}

// DeliveryPayload is the full extraction result for a delivery note.
// Dropped counts line rows whose JSON did not fit the item schema.
type DeliveryPayload struct {
	Header  DeliveryHeader
	Items   []ExtractedItem
	Dropped int
}

// ReferenceDate parses the header date, already normalized to YYYY-MM-DD.
func (p *DeliveryPayload) ReferenceDate() (time.Time, error) {
	t, err := time.Parse(dateLayout, p.Header.Date.Value)
	if err != nil {
		return time.Time{}, apperror.NewMalformedPayload(
			"delivery date is not a valid YYYY-MM-DD date").
			WithDetail("value", p.Header.Date.Value)
	}
	return t, nil
}

// ReturnHeader is the document-level block of a return call payload.
type ReturnHeader struct {
	OutletID FlexString `json:"ponto_venda_id"`
	Deadline FlexString `json:"data_limite"`
	Status   FlexString `json:"status"`
}

// ReturnPayload is the full extraction result for a return call.
// Dropped counts line rows whose JSON did not fit the item schema.
type ReturnPayload struct {
	Header  ReturnHeader
	Items   []ExtractedItem
	Dropped int
}

// Deadline parses the header deadline, already normalized to YYYY-MM-DD.
func (p *ReturnPayload) Deadline() (time.Time, error) {
	t, err := time.Parse(dateLayout, p.Header.Deadline.Value)
	if err != nil {
		return time.Time{}, apperror.NewMalformedPayload(
			"return deadline is not a valid YYYY-MM-DD date").
			WithDetail("value", p.Header.Deadline.Value)
	}
	return t, nil
}

// stripFences removes a leading ```json / ``` fence pair the extraction
// service sometimes wraps its output in.
func stripFences(raw []byte) []byte {
	s := bytes.TrimSpace(raw)
	if !bytes.HasPrefix(s, []byte("```")) {
		return s
	}
	s = bytes.TrimPrefix(s, []byte("```"))
	s = bytes.TrimPrefix(bytes.TrimSpace(s), []byte("json"))
	s = bytes.TrimSuffix(bytes.TrimSpace(s), []byte("```"))
	return bytes.TrimSpace(s)
}

func decodeEnvelope(raw []byte, headerKey string) (map[string]json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(stripFences(raw), &envelope); err != nil {
		return nil, apperror.NewMalformedPayload("extraction result is not valid JSON")
	}
	if _, ok := envelope[headerKey]; !ok {
		return nil, apperror.NewMalformedPayload("extraction result misses the document header", headerKey)
	}
	return envelope, nil
}

// decodeItems decodes the "revistas" array row by row. A row that does not
// fit the item schema (a quantity of "doze", an object where a string goes)
// is dropped and counted; the rest of the document goes through.
func decodeItems(raw json.RawMessage) ([]ExtractedItem, int, error) {
	if len(raw) == 0 {
		return nil, 0, nil
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, 0, apperror.NewMalformedPayload("extraction line items are not a JSON array", "revistas")
	}

	items := make([]ExtractedItem, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		var item ExtractedItem
		if err := json.Unmarshal(row, &item); err != nil {
			dropped++
			continue
		}
		items = append(items, item)
	}

	return items, dropped, nil
}

// ParseDeliveryPayload validates and decodes a raw delivery note extraction.
// The header must carry an outlet id, a delivery note id and a date. Line
// rows are decoded individually so one garbled row never fails the document.
func ParseDeliveryPayload(raw []byte) (*DeliveryPayload, error) {
	envelope, err := decodeEnvelope(raw, "notasentrega")
	if err != nil {
		return nil, err
	}

	var payload DeliveryPayload
	if err := json.Unmarshal(envelope["notasentrega"], &payload.Header); err != nil {
		return nil, apperror.NewMalformedPayload("delivery header does not match the expected schema")
	}
	payload.Items, payload.Dropped, err = decodeItems(envelope["revistas"])
	if err != nil {
		return nil, err
	}

	var missing []string
	if !payload.Header.OutletID.Set {
		missing = append(missing, "ponto_venda_id")
	}
	if !payload.Header.DeliveryNoteID.Set {
		missing = append(missing, "nota_entrega_id")
	}
	if !payload.Header.Date.Set {
		missing = append(missing, "data")
	}
	if len(missing) > 0 {
		return nil, apperror.NewMalformedPayload("delivery header misses required fields", missing...)
	}

	if _, err := payload.ReferenceDate(); err != nil {
		return nil, err
	}

	return &payload, nil
}

// ParseReturnPayload validates and decodes a raw return call extraction.
// The header must carry the return deadline. Line rows are decoded
// individually so one garbled row never fails the document.
func ParseReturnPayload(raw []byte) (*ReturnPayload, error) {
	envelope, err := decodeEnvelope(raw, "chamadasdevolucao")
	if err != nil {
		return nil, err
	}

	var payload ReturnPayload
	if err := json.Unmarshal(envelope["chamadasdevolucao"], &payload.Header); err != nil {
		return nil, apperror.NewMalformedPayload("return header does not match the expected schema")
	}
	payload.Items, payload.Dropped, err = decodeItems(envelope["revistas"])
	if err != nil {
		return nil, err
	}

	if !payload.Header.Deadline.Set {
		return nil, apperror.NewMalformedPayload("return header misses required fields", "data_limite")
	}
	if _, err := payload.Deadline(); err != nil {
		return nil, err
	}

	return &payload, nil
}

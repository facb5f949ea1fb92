package extraction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bancaflow/internal/core/apperror"
)

func TestParseDeliveryPayload(t *testing.T) {
	t.Run("full payload", func(t *testing.T) {
		raw := []byte(`{
			"notasentrega": {
				"ponto_venda_id": "1793",
				"nota_entrega_id": "88412",
				"data": "2026-08-12"
			},
			"revistas": [
				{"nome": "Mundo Estranho", "numero_edicao": 203, "qtd_estoque": 4, "preco_capa": "13,90"},
				{"nome": "Veja", "numero_edicao": "2904", "qtd_estoque": "2", "preco_capa": 19.9}
			]
		}`)

		payload, err := ParseDeliveryPayload(raw)
		require.NoError(t, err)

		assert.Equal(t, "1793", payload.Header.OutletID.Value)
		assert.Equal(t, "88412", payload.Header.DeliveryNoteID.Value)

		date, err := payload.ReferenceDate()
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC), date)

		require.Len(t, payload.Items, 2)

		first := payload.Items[0].LineItem()
		require.NotNil(t, first.EditionNumber)
		assert.Equal(t, 203, *first.EditionNumber)
		assert.Equal(t, 4, first.Quantity)
		assert.Equal(t, "13,90", first.CoverPrice)

		// Edition and quantity as strings still decode.
		second := payload.Items[1].LineItem()
		require.NotNil(t, second.EditionNumber)
		assert.Equal(t, 2904, *second.EditionNumber)
		assert.Equal(t, 2, second.Quantity)
	})

	t.Run("fenced output is unwrapped", func(t *testing.T) {
		raw := []byte("```json\n{\"notasentrega\": {\"ponto_venda_id\": \"1\", \"nota_entrega_id\": \"2\", \"data\": \"2026-08-12\"}, \"revistas\": []}\n```")

		payload, err := ParseDeliveryPayload(raw)
		require.NoError(t, err)
		assert.Equal(t, "1", payload.Header.OutletID.Value)
	})

	t.Run("missing header key", func(t *testing.T) {
		_, err := ParseDeliveryPayload([]byte(`{"revistas": []}`))
		require.Error(t, err)

		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeMalformedPayload, appErr.Code)
		assert.Equal(t, []string{"notasentrega"}, appErr.Details["missing_keys"])
	})

	t.Run("missing header fields are all reported", func(t *testing.T) {
		raw := []byte(`{"notasentrega": {"ponto_venda_id": "1793"}, "revistas": []}`)

		_, err := ParseDeliveryPayload(raw)
		require.Error(t, err)

		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeMalformedPayload, appErr.Code)
		assert.ElementsMatch(t, []string{"nota_entrega_id", "data"}, appErr.Details["missing_keys"])
	})

	t.Run("null header fields count as missing", func(t *testing.T) {
		raw := []byte(`{"notasentrega": {"ponto_venda_id": null, "nota_entrega_id": "null", "data": "2026-08-12"}, "revistas": []}`)

		_, err := ParseDeliveryPayload(raw)
		require.Error(t, err)

		appErr, _ := apperror.AsAppError(err)
		assert.ElementsMatch(t, []string{"ponto_venda_id", "nota_entrega_id"}, appErr.Details["missing_keys"])
	})

	t.Run("unparseable date", func(t *testing.T) {
		raw := []byte(`{"notasentrega": {"ponto_venda_id": "1", "nota_entrega_id": "2", "data": "12/08/2026"}, "revistas": []}`)

		_, err := ParseDeliveryPayload(raw)
		require.Error(t, err)

		appErr, _ := apperror.AsAppError(err)
		assert.Equal(t, apperror.CodeMalformedPayload, appErr.Code)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := ParseDeliveryPayload([]byte("sorry, I could not read the document"))
		require.Error(t, err)

		appErr, _ := apperror.AsAppError(err)
		assert.Equal(t, apperror.CodeMalformedPayload, appErr.Code)
	})

	t.Run("garbled line is dropped, rest survives", func(t *testing.T) {
		raw := []byte(`{
			"notasentrega": {"ponto_venda_id": "1793", "nota_entrega_id": "88412", "data": "2026-08-12"},
			"revistas": [
				{"nome": "Mundo Estranho", "numero_edicao": 203, "qtd_estoque": 4},
				{"nome": "Placar", "numero_edicao": 1500, "qtd_estoque": "doze"},
				{"nome": "Veja", "numero_edicao": 2904, "qtd_estoque": 2}
			]
		}`)

		payload, err := ParseDeliveryPayload(raw)
		require.NoError(t, err)

		assert.Equal(t, 1, payload.Dropped)
		require.Len(t, payload.Items, 2)
		assert.Equal(t, "Mundo Estranho", payload.Items[0].Name.Value)
		assert.Equal(t, "Veja", payload.Items[1].Name.Value)
	})

	t.Run("lines that are not an array", func(t *testing.T) {
		raw := []byte(`{"notasentrega": {"ponto_venda_id": "1", "nota_entrega_id": "2", "data": "2026-08-12"}, "revistas": {"nome": "Veja"}}`)

		_, err := ParseDeliveryPayload(raw)
		require.Error(t, err)

		appErr, _ := apperror.AsAppError(err)
		assert.Equal(t, apperror.CodeMalformedPayload, appErr.Code)
	})
}

func TestParseReturnPayload(t *testing.T) {
	t.Run("full payload", func(t *testing.T) {
		raw := []byte(`{
			"chamadasdevolucao": {
				"ponto_venda_id": "1793",
				"data_limite": "2026-09-02",
				"status": "pendente"
			},
			"revistas": [
				{"nome": "Caras", "numero_edicao": "1602", "codigo_barras": "9771234567003", "qtd_estoque": 3, "preco_capa": "13,90", "preco_liquido": "9,73"}
			]
		}`)

		payload, err := ParseReturnPayload(raw)
		require.NoError(t, err)

		deadline, err := payload.Deadline()
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC), deadline)

		require.Len(t, payload.Items, 1)
		item := payload.Items[0].LineItem()
		assert.Equal(t, "9771234567003", item.Barcode)
		assert.Equal(t, "9,73", item.NetPrice)
	})

	t.Run("missing deadline", func(t *testing.T) {
		raw := []byte(`{"chamadasdevolucao": {"ponto_venda_id": "1793"}, "revistas": []}`)

		_, err := ParseReturnPayload(raw)
		require.Error(t, err)

		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeMalformedPayload, appErr.Code)
		assert.Equal(t, []string{"data_limite"}, appErr.Details["missing_keys"])
	})

	t.Run("missing header key", func(t *testing.T) {
		_, err := ParseReturnPayload([]byte(`{"notasentrega": {}, "revistas": []}`))
		require.Error(t, err)

		appErr, _ := apperror.AsAppError(err)
		assert.Equal(t, apperror.CodeMalformedPayload, appErr.Code)
	})

	t.Run("garbled line is dropped, rest survives", func(t *testing.T) {
		raw := []byte(`{
			"chamadasdevolucao": {"ponto_venda_id": "1793", "data_limite": "2026-09-02"},
			"revistas": [
				{"nome": "Caras", "numero_edicao": 1602, "qtd_estoque": "tres"},
				{"nome": "Veja", "numero_edicao": 2904, "qtd_estoque": 2, "data_entrega": "2026-08-20"}
			]
		}`)

		payload, err := ParseReturnPayload(raw)
		require.NoError(t, err)

		assert.Equal(t, 1, payload.Dropped)
		require.Len(t, payload.Items, 1)
		assert.Equal(t, "Veja", payload.Items[0].Name.Value)

		receivedAt := payload.Items[0].ReceivedAt()
		require.NotNil(t, receivedAt)
		assert.Equal(t, time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), *receivedAt)
	})

	t.Run("malformed delivery date on a line is left unset", func(t *testing.T) {
		raw := []byte(`{
			"chamadasdevolucao": {"data_limite": "2026-09-02"},
			"revistas": [{"nome": "Veja", "numero_edicao": 2904, "qtd_estoque": 2, "data_entrega": "20/08/2026"}]
		}`)

		payload, err := ParseReturnPayload(raw)
		require.NoError(t, err)

		require.Len(t, payload.Items, 1)
		assert.Nil(t, payload.Items[0].ReceivedAt())
	})
}

func TestFlexInt(t *testing.T) {
	cases := []struct {
		in    string
		value int
		set   bool
	}{
		{`7`, 7, true},
		{`"7"`, 7, true},
		{`"007"`, 7, true},
		{`3.0`, 3, true},
		{`null`, 0, false},
		{`"null"`, 0, false},
		{`""`, 0, false},
	}
	for _, tc := range cases {
		var f FlexInt
		err := f.UnmarshalJSON([]byte(tc.in))
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.value, f.Value, tc.in)
		assert.Equal(t, tc.set, f.Set, tc.in)
	}

	var f FlexInt
	assert.Error(t, f.UnmarshalJSON([]byte(`"abc"`)))
}

func TestFlexString(t *testing.T) {
	cases := []struct {
		in    string
		value string
		set   bool
	}{
		{`"Andea Bloise"`, "Andea Bloise", true},
		{`1793`, "1793", true},
		{`"13,90"`, "13,90", true},
		{`null`, "", false},
		{`"None"`, "", false},
		{`"  "`, "", false},
	}
	for _, tc := range cases {
		var f FlexString
		err := f.UnmarshalJSON([]byte(tc.in))
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.value, f.Value, tc.in)
		assert.Equal(t, tc.set, f.Set, tc.in)
	}
}

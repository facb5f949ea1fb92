package extraction

import (
	"bytes"
	"compress/zlib"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bancaflow/internal/core/apperror"
)

func TestScanReturnDeadline(t *testing.T) {
	t.Run("plain text stream", func(t *testing.T) {
		pdf := []byte("%PDF-1.4\nChamada de Encalhe\nData da chamada : 02/09/2026\nPonto : 1793\n")

		got, err := ScanReturnDeadline(pdf)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("iso date wins over nothing", func(t *testing.T) {
		pdf := []byte("Data da chamada: 2026-09-02")

		got, err := ScanReturnDeadline(pdf)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("label without separator", func(t *testing.T) {
		pdf := []byte("data da chamada 02/09/2026")

		_, err := ScanReturnDeadline(pdf)
		require.NoError(t, err)
	})

	t.Run("deflated content stream", func(t *testing.T) {
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		_, err := w.Write([]byte("Chamada de Encalhe\nData da chamada : 02/09/2026\n"))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		pdf := append([]byte("%PDF-1.4\n<< /Filter /FlateDecode >>\nstream\n"), buf.Bytes()...)
		pdf = append(pdf, []byte("\nendstream\n")...)

		got, err := ScanReturnDeadline(pdf)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC), got)
	})

	t.Run("empty document", func(t *testing.T) {
		_, err := ScanReturnDeadline(nil)
		require.Error(t, err)

		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
	})

	t.Run("no deadline label", func(t *testing.T) {
		_, err := ScanReturnDeadline([]byte("%PDF-1.4\njust some invoice text\n"))
		require.Error(t, err)

		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
	})
}

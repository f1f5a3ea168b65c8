package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvelope(t *testing.T) {
	t.Run("lifts success and error, keeps the rest", func(t *testing.T) {
		res, err := ParseEnvelope([]byte(`{"success":false,"error":"saldo_insuficiente","balance":"3.50"}`))
		require.NoError(t, err)

		assert.False(t, res.Success)
		assert.Equal(t, "saldo_insuficiente", res.Error)
		assert.Equal(t, "3.50", res.PayloadString("balance"))
		_, hasSuccess := res.Payload["success"]
		assert.False(t, hasSuccess)
		_, hasError := res.Payload["error"]
		assert.False(t, hasError)
	})

	t.Run("success envelope with nested payload", func(t *testing.T) {
		res, err := ParseEnvelope([]byte(`{"success":true,"item":{"id":"item-1","price":"10.00"},"requires_review":true}`))
		require.NoError(t, err)

		assert.True(t, res.Success)
		assert.Empty(t, res.Error)
		assert.True(t, res.PayloadBool("requires_review"))
		assert.JSONEq(t, `{"id":"item-1","price":"10.00"}`, string(res.Payload["item"]))
	})

	t.Run("missing fields default to zero values", func(t *testing.T) {
		res, err := ParseEnvelope([]byte(`{}`))
		require.NoError(t, err)

		assert.False(t, res.Success)
		assert.Empty(t, res.Error)
		assert.False(t, res.PayloadBool("requires_review"))
		assert.Empty(t, res.PayloadString("price"))
	})

	t.Run("malformed document", func(t *testing.T) {
		_, err := ParseEnvelope([]byte(`not json`))
		assert.Error(t, err)
	})

	t.Run("malformed success field", func(t *testing.T) {
		_, err := ParseEnvelope([]byte(`{"success":"yes"}`))
		assert.Error(t, err)
	})
}

func TestResultPayloadHelpers(t *testing.T) {
	res, err := ParseEnvelope([]byte(`{"success":true,"price":"25.00","count":3,"flagged":false}`))
	require.NoError(t, err)

	t.Run("string helper ignores non-strings", func(t *testing.T) {
		assert.Equal(t, "25.00", res.PayloadString("price"))
		assert.Empty(t, res.PayloadString("count"))
		assert.Empty(t, res.PayloadString("missing"))
	})

	t.Run("bool helper ignores non-bools", func(t *testing.T) {
		assert.False(t, res.PayloadBool("flagged"))
		assert.False(t, res.PayloadBool("price"))
		assert.False(t, res.PayloadBool("missing"))
	})

	t.Run("payload round-trips to JSON", func(t *testing.T) {
		raw, err := res.PayloadJSON()
		require.NoError(t, err)
		assert.JSONEq(t, `{"price":"25.00","count":3,"flagged":false}`, string(raw))
	})
}

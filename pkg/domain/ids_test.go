package domain

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "propmarket/pkg/domain-errors"
)

func TestParseAccountID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAccountID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseAccountID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseAccountID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseAccountID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, AccountID(valid), id)
	})
}

func TestIDJSONEncoding(t *testing.T) {
	t.Run("account id encodes as the canonical UUID string", func(t *testing.T) {
		id := NewAccountID()

		payload, err := json.Marshal(struct {
			ID AccountID `json:"_id"`
		}{ID: id})
		require.NoError(t, err)
		assert.JSONEq(t, fmt.Sprintf(`{"_id":%q}`, id.String()), string(payload))
	})

	t.Run("account id decodes from a UUID string", func(t *testing.T) {
		want := NewAccountID()

		var decoded struct {
			ID AccountID `json:"_id"`
		}
		require.NoError(t, json.Unmarshal([]byte(fmt.Sprintf(`{"_id":%q}`, want.String())), &decoded))
		assert.Equal(t, want, decoded.ID)
	})

	t.Run("property id round-trips as a string", func(t *testing.T) {
		id := NewPropertyID()

		payload, err := json.Marshal(struct {
			ID PropertyID `json:"_id"`
		}{ID: id})
		require.NoError(t, err)
		assert.JSONEq(t, fmt.Sprintf(`{"_id":%q}`, id.String()), string(payload))

		var decoded struct {
			ID PropertyID `json:"_id"`
		}
		require.NoError(t, json.Unmarshal(payload, &decoded))
		assert.Equal(t, id, decoded.ID)
	})

	t.Run("rejects a malformed id string", func(t *testing.T) {
		var decoded struct {
			ID AccountID `json:"_id"`
		}
		assert.Error(t, json.Unmarshal([]byte(`{"_id":"not-a-uuid"}`), &decoded))
	})
}

func TestParseRole(t *testing.T) {
	for _, s := range []string{"admin", "seller", "customer", " Admin "} {
		r, err := ParseRole(s)
		require.NoError(t, err, s)
		assert.True(t, r.Valid())
	}

	for _, s := range []string{"", "superuser", "Admin2"} {
		_, err := ParseRole(s)
		require.Error(t, err, s)
	}
}

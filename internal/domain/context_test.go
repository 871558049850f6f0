package domain

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmergencyContext_WireNames(t *testing.T) {
	names := map[EmergencyContext]string{
		HomeEmergency:   "home_emergency",
		TravelEmergency: "travel_emergency",
		SilentTracking:  "silent_tracking",
	}
	require.Len(t, AllContexts(), len(names))

	for c, name := range names {
		assert.Equal(t, name, c.String())

		parsed, err := ParseEmergencyContext(name)
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
}

func TestEmergencyContext_JSON(t *testing.T) {
	out, err := json.Marshal(TriggerResult{Context: SilentTracking})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"context":"silent_tracking"`)

	var res TriggerResult
	require.NoError(t, json.Unmarshal([]byte(`{"context":"home_emergency"}`), &res))
	assert.Equal(t, HomeEmergency, res.Context)

	assert.Error(t, json.Unmarshal([]byte(`{"context":"panic"}`), &res))
}

func TestEmergencyContext_Invalid(t *testing.T) {
	bad := EmergencyContext(200)
	assert.False(t, bad.Valid())
	assert.Equal(t, "EmergencyContext(200)", bad.String())

	_, err := bad.MarshalText()
	assert.Error(t, err)
}

func TestUserIDFromContext(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithUserID(context.Background(), "user-7")
	id, ok := UserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "user-7", id)

	_, ok = UserIDFromContext(WithUserID(context.Background(), ""))
	assert.False(t, ok)
}

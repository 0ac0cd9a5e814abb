package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStage_ParseRoundTrip(t *testing.T) {
	for _, st := range Progression {
		parsed, err := ParseStage(st.String())
		require.NoError(t, err)
		assert.Equal(t, st, parsed)
	}

	_, err := ParseStage("triage")
	assert.ErrorIs(t, err, ErrUnknownStage)
}

func TestStage_Ordering(t *testing.T) {
	assert.True(t, StageArrival.Before(StageCheckIn))
	assert.True(t, StagePreVisit.Before(StageWaiting))
	assert.False(t, StageCompleted.Before(StageDeparture))
	assert.Equal(t, 0, StageArrival.Index())
	assert.Equal(t, len(Progression)-1, StageCompleted.Index())
	assert.Equal(t, -1, Stage(42).Index())
}

func TestStage_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Stage Stage `json:"stage"`
	}{StageInVisit})
	require.NoError(t, err)
	assert.JSONEq(t, `{"stage":"in_visit"}`, string(data))

	var out struct {
		Stage Stage `json:"stage"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"stage":"post_visit"}`), &out))
	assert.Equal(t, StagePostVisit, out.Stage)

	assert.Error(t, json.Unmarshal([]byte(`{"stage":"lobby"}`), &out))
}

package trace

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	header := Header{
		RunID:     "run-42",
		Agents:    5,
		Resources: 4,
		Strategy:  "banker",
		StartedAt: time.Now(),
	}
	w, err := NewWriter(&buf, header)
	require.NoError(t, err)

	events := []Event{
		{Timestamp: time.Now(), Agent: 0, Kind: KindState, Detail: "HUNGRY"},
		{Timestamp: time.Now(), Agent: SystemAgent, Kind: KindSystem, Detail: "strategy banker"},
		{Timestamp: time.Now(), Agent: 3, Kind: KindSummary, Detail: "meals=7 max_wait=12"},
	}
	require.NoError(t, w.Write(events[:2]))
	require.NoError(t, w.Write(events[2:]))
	assert.Equal(t, 3, w.Count())

	gotHeader, gotEvents, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, header.RunID, gotHeader.RunID)
	assert.Equal(t, header.Agents, gotHeader.Agents)
	assert.Equal(t, header.Resources, gotHeader.Resources)
	assert.Equal(t, header.Strategy, gotHeader.Strategy)
	assert.WithinDuration(t, header.StartedAt, gotHeader.StartedAt, time.Second)

	require.Len(t, gotEvents, 3)
	for i, want := range events {
		assert.Equal(t, want.Agent, gotEvents[i].Agent)
		assert.Equal(t, want.Kind, gotEvents[i].Kind)
		assert.Equal(t, want.Detail, gotEvents[i].Detail)
		assert.WithinDuration(t, want.Timestamp, gotEvents[i].Timestamp, time.Second)
	}
}

func TestTraceEmptyStream(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, Header{RunID: "empty"})
	require.NoError(t, err)
	assert.Zero(t, w.Count())

	h, events, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, "empty", h.RunID)
	assert.Empty(t, events)
}

func TestReadRejectsGarbage(t *testing.T) {
	_, _, err := Read(bytes.NewReader(nil))
	assert.Error(t, err, "a stream without a header must fail")

	_, _, err = Read(bytes.NewReader([]byte("not a msgpack trace")))
	assert.Error(t, err)
}

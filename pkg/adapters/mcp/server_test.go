package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/carepath"
	"github.com/aretw0/carepath/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_Journey(t *testing.T) {
	ctx := context.Background()
	s := NewServer(carepath.New(), nil)
	req := mcp.CallToolRequest{}

	created, err := s.handleInitialize(ctx, req, initializeArgs{PatientID: "p-1", Department: "cardiology"})
	require.NoError(t, err)
	require.NotEmpty(t, created.SessionID)
	assert.Equal(t, domain.StageArrival, created.State.Stage)
	id := created.SessionID

	resp, err := s.handleLocation(ctx, req, locationArgs{SessionID: id, Area: string(domain.AreaWaitingRoom)})
	require.NoError(t, err)
	assert.Equal(t, domain.StageWaiting, resp.State.Stage)

	resp, err = s.handleSignal(ctx, req, signalArgs{SessionID: id, Signal: domain.SignalQueueChanged, Data: `{"position": 1}`})
	require.NoError(t, err)
	assert.Equal(t, domain.StageWaiting, resp.State.Stage)

	resp, err = s.handleMessage(ctx, req, messageArgs{SessionID: id, Text: "I can't breathe"})
	require.NoError(t, err)
	assert.True(t, resp.State.Emergency.Active)

	list, err := s.handleList(ctx, req, struct{}{})
	require.NoError(t, err)
	require.Len(t, list.Sessions, 1)
	assert.True(t, list.Sessions[0].EmergencyActive)

	ended, err := s.handleEnd(ctx, req, sessionArgs{SessionID: id})
	require.NoError(t, err)
	assert.True(t, ended.Ended)

	_, err = s.handleGetState(ctx, req, sessionArgs{SessionID: id})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestServer_TriggerEmergency(t *testing.T) {
	ctx := context.Background()
	s := NewServer(carepath.New(), nil)
	created, err := s.handleInitialize(ctx, mcp.CallToolRequest{}, initializeArgs{PatientID: "p-1"})
	require.NoError(t, err)

	resp, err := s.handleEmergency(ctx, mcp.CallToolRequest{}, emergencyArgs{SessionID: created.SessionID, Description: "he passed out"})
	require.NoError(t, err)
	assert.True(t, resp.State.Emergency.Active)
	assert.Equal(t, "neurological", resp.State.Emergency.Type)
}

func TestServer_InvalidArguments(t *testing.T) {
	ctx := context.Background()
	s := NewServer(carepath.New(), nil)
	req := mcp.CallToolRequest{}

	_, err := s.handleInitialize(ctx, req, initializeArgs{})
	assert.Error(t, err)

	created, err := s.handleInitialize(ctx, req, initializeArgs{PatientID: "p-1"})
	require.NoError(t, err)

	_, err = s.handleSignal(ctx, req, signalArgs{SessionID: created.SessionID, Signal: "doctor_ready", Data: "[1,2"})
	assert.Error(t, err)

	_, err = s.handleSignal(ctx, req, signalArgs{SessionID: created.SessionID})
	assert.Error(t, err, "a signal needs a name")
}

type failingEngine struct {
	*carepath.Engine
}

func (failingEngine) GetState(ctx context.Context, sessionID string) (*domain.JourneyState, error) {
	return nil, errors.New("dial tcp 10.0.0.7:6379: connection refused")
}

func TestServer_ErrorsAreSanitized(t *testing.T) {
	s := NewServer(failingEngine{}, nil)

	_, err := s.handleGetState(context.Background(), mcp.CallToolRequest{}, sessionArgs{SessionID: "s"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "10.0.0.7")
}

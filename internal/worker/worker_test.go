package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/summitdesk/backend/internal/notify"
	"github.com/summitdesk/backend/pkg/queue"
)

func emailJob(t *testing.T, payload queue.EmailPayload) *queue.Job {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return &queue.Job{ID: "job-1", Type: queue.JobTypeEmail, Payload: raw}
}

func TestProcessDeliversEmailJob(t *testing.T) {
	fake := &notify.Fake{}
	p := NewEmailProcessor(fake, nil, zap.NewNop())

	job := emailJob(t, queue.EmailPayload{
		Kind:      string(notify.KindAttendanceCode),
		Recipient: "ada@example.com",
		FullName:  "Ada Wiwa",
		LGA:       "Khana",
		Code:      "4821",
	})
	require.NoError(t, p.Process(context.Background(), job))

	sent := fake.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, notify.KindAttendanceCode, sent[0].Kind)
	require.Equal(t, "ada@example.com", sent[0].Recipient)
	require.Equal(t, "4821", sent[0].Code)
}

func TestProcessRejectsUnknownJobType(t *testing.T) {
	fake := &notify.Fake{}
	p := NewEmailProcessor(fake, nil, zap.NewNop())

	job := &queue.Job{ID: "job-2", Type: "reindex", Payload: []byte(`{}`)}
	require.Error(t, p.Process(context.Background(), job))
	require.Empty(t, fake.Sent())
}

func TestProcessRejectsMalformedPayload(t *testing.T) {
	fake := &notify.Fake{}
	p := NewEmailProcessor(fake, nil, zap.NewNop())

	job := &queue.Job{ID: "job-3", Type: queue.JobTypeEmail, Payload: []byte(`{"kind":`)}
	require.Error(t, p.Process(context.Background(), job))
	require.Empty(t, fake.Sent())
}

func TestProcessPropagatesSendFailure(t *testing.T) {
	fake := &notify.Fake{Err: errors.New("smtp down")}
	p := NewEmailProcessor(fake, nil, zap.NewNop())

	job := emailJob(t, queue.EmailPayload{
		Kind:      string(notify.KindRegistrationReceived),
		Recipient: "ada@example.com",
		FullName:  "Ada Wiwa",
		LGA:       "Khana",
	})
	require.Error(t, p.Process(context.Background(), job))
	require.Empty(t, fake.Sent())
}

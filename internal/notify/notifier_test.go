package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/summitdesk/backend/internal/models"
	"github.com/summitdesk/backend/internal/store/memory"
	"github.com/summitdesk/backend/pkg/clock"
)

func TestRecorderLogsSuccessfulDelivery(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	fake := &Fake{}
	now := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	rec := NewRecorder(fake, st, clock.NewFake(now), zap.NewNop())

	err := rec.Send(ctx, Message{
		Kind:      KindAttendanceCode,
		Recipient: "ada@example.com",
		FullName:  "Ada Wiwa",
		LGA:       "Khana",
		Code:      "4821",
	})
	require.NoError(t, err)
	require.Len(t, fake.Sent(), 1)

	logs, err := st.EmailLogs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, "ada@example.com", logs[0].Recipient)
	require.Equal(t, string(KindAttendanceCode), logs[0].Kind)
	require.Equal(t, "Your summit attendance code", logs[0].Subject)
	require.Equal(t, models.EmailLogStatusSent, logs[0].Status)
	require.NotNil(t, logs[0].SentAt)
	require.Equal(t, now, *logs[0].SentAt)
}

func TestRecorderLogsFailedDelivery(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	fake := &Fake{Err: errors.New("smtp down")}
	rec := NewRecorder(fake, st, clock.NewFake(time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)), zap.NewNop())

	err := rec.Send(ctx, Message{Kind: KindRegistrationReceived, Recipient: "ada@example.com"})
	require.Error(t, err)

	logs, err := st.EmailLogs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, models.EmailLogStatusFailed, logs[0].Status)
	require.Equal(t, "smtp down", logs[0].Error)
	require.Nil(t, logs[0].SentAt)
}

func TestSubjectFor(t *testing.T) {
	require.Equal(t, "Your summit attendance code", SubjectFor(KindAttendanceCode))
	require.Equal(t, "We received your summit registration", SubjectFor(KindRegistrationReceived))
	require.Equal(t, "Summit notification", SubjectFor(Kind("something-else")))
}

package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/summitdesk/backend/internal/models"
	"github.com/summitdesk/backend/internal/store/memory"
	"github.com/summitdesk/backend/pkg/clock"
)

func setupEmailRouter(t *testing.T, st *memory.Store, fake *Fake) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clk := clock.NewFake(time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC))
	handler := NewHandler(st, st, st, NewRecorder(fake, st, clk, zap.NewNop()))

	router := gin.New()
	router.GET("/admin/emails", handler.ListRecent)
	router.POST("/admin/emails/:id/resend", handler.Resend)
	return router
}

func TestResendAttendanceCode(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	fake := &Fake{}
	router := setupEmailRouter(t, st, fake)

	require.NoError(t, st.AppendVerified(ctx, &models.VerifiedAttendee{
		Code:      "4821",
		Email:     "ada@example.com",
		FullName:  "Ada Wiwa",
		LGAOrigin: "Khana",
		Status:    models.VerifiedStatusIssued,
		IssuedAt:  time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC),
	}))
	entry := &models.EmailLog{
		Recipient: "ada@example.com",
		Kind:      string(KindAttendanceCode),
		Status:    models.EmailLogStatusFailed,
		Error:     "smtp down",
		CreatedAt: time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, st.AppendEmailLog(ctx, entry))

	req := httptest.NewRequest(http.MethodPost, "/admin/emails/"+entry.ID.String()+"/resend", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	sent := fake.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, KindAttendanceCode, sent[0].Kind)
	require.Equal(t, "4821", sent[0].Code)
	require.Equal(t, "ada@example.com", sent[0].Recipient)

	// The resend itself is logged too.
	logs, err := st.EmailLogs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
}

func TestResendUnknownLog(t *testing.T) {
	st := memory.New()
	router := setupEmailRouter(t, st, &Fake{})

	req := httptest.NewRequest(http.MethodPost, "/admin/emails/6f9a4e90-0000-0000-0000-000000000000/resend", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListRecentHonorsLimit(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	router := setupEmailRouter(t, st, &Fake{})

	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	for i, recipient := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		require.NoError(t, st.AppendEmailLog(ctx, &models.EmailLog{
			Recipient: recipient,
			Kind:      string(KindRegistrationReceived),
			Status:    models.EmailLogStatusSent,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/emails?limit=2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Success bool              `json:"success"`
		Data    []models.EmailLog `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.True(t, got.Success)
	require.Len(t, got.Data, 2)
	require.Equal(t, "c@example.com", got.Data[0].Recipient)
	require.Equal(t, "b@example.com", got.Data[1].Recipient)
}

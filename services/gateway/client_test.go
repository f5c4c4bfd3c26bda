package gateway_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/attendance/core/attendance"
	"github.com/trezcool/attendance/core/batch"
	"github.com/trezcool/attendance/core/manager"
	"github.com/trezcool/attendance/core/session"
	"github.com/trezcool/attendance/core/upload"
	"github.com/trezcool/attendance/services/gateway"
	"github.com/trezcool/attendance/services/gateway/gatewaytest"
)

const token = "s3cr3t"

var admin = session.Session{
	User:         session.User{ID: "U1", Name: "Ada", Email: "ada@example.com", Role: session.RoleSystemAdmin},
	Capabilities: session.Capabilities{CanManageClassGroups: true},
}

func setup(t *testing.T) (*gatewaytest.Server, *gateway.Client) {
	srv := gatewaytest.NewServer()
	t.Cleanup(srv.Close)
	srv.AddSession(token, admin)
	return srv, gateway.New(srv.URL, gateway.WithTimeout(5*time.Second)).WithToken(token)
}

func TestClient_GetSession(t *testing.T) {
	srv, client := setup(t)

	sess, err := client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, admin, sess)

	calls := srv.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, token, calls[0].Token)

	me, err := client.GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, admin.User, me)
}

func TestClient_stringUserIDs(t *testing.T) {
	bodies := map[string]string{
		"/session":                         `{"user":{"id":"auth0|5f1c","name":"Ada","role":"USER"},"capabilities":{}}`,
		"/class-group-managers":            `{"class_group_managers":[{"user_id":"auth0|5f1c","class_group_id":5,"managing_role":"TEACHING_ASSISTANT"}]}`,
		"/upcoming-class-group-sessions/9": `{"class_group_session":{"id":9},"attendances":[{"id":3,"session_id":9,"user_id":"auth0|5f1c","name":"Bob"}]}`,
	}
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(bodies[r.URL.Path]))
	}))
	t.Cleanup(api.Close)
	client := gateway.New(api.URL).WithToken(token)

	sess, err := client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "auth0|5f1c", sess.User.ID)

	records, err := client.SubmitManagerFiles(context.Background(), []upload.File{{Name: "m.csv", Data: []byte("x")}})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "auth0|5f1c", records[0].UserID)

	us, err := client.GetUpcomingSession(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, us.Attendances, 1)
	assert.Equal(t, "auth0|5f1c", us.Attendances[0].UserID)
}

func TestClient_Unauthorized(t *testing.T) {
	srv, client := setup(t)

	_, err := client.WithToken("nope").GetSession(context.Background())
	require.Error(t, err)
	assert.True(t, gateway.IsUnauthorized(err))
	assert.Equal(t, "invalid or expired credentials", gateway.Message(err, "fallback"))

	// the original client keeps its credential
	_, err = client.GetSession(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, srv.CallCount(http.MethodGet, "/session"))
}

func TestClient_Errors(t *testing.T) {
	srv, client := setup(t)

	t.Run("envelope", func(t *testing.T) {
		srv.Fail(http.MethodPut, "/batch", http.StatusConflict, "class CS101 already exists")
		_, err := client.ConfirmBatches(context.Background(), nil)
		require.Error(t, err)

		var apiErr *gateway.Error
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
		assert.Equal(t, "class CS101 already exists", apiErr.PublicMessage())
		assert.Equal(t, "class CS101 already exists", gateway.Message(err, "fallback"))
		assert.Contains(t, err.Error(), "PUT /batch: 409")
	})

	t.Run("no envelope", func(t *testing.T) {
		srv.FailRaw(http.MethodGet, "/data-export", http.StatusBadGateway, "<html>upstream down</html>")
		_, err := client.DownloadDataExport(context.Background())
		require.Error(t, err)
		assert.Equal(t, http.StatusBadGateway, gateway.StatusCode(err))
		assert.Equal(t, "fallback", gateway.Message(err, "fallback"))
		assert.Contains(t, err.Error(), "Bad Gateway")
	})

	t.Run("not found", func(t *testing.T) {
		var user attendance.User
		err := client.Get(context.Background(), attendance.Users, "U404", &user)
		assert.True(t, gateway.IsNotFound(err))
	})

	t.Run("network", func(t *testing.T) {
		dead := gateway.New("http://127.0.0.1:1").WithToken(token)
		_, err := dead.GetSession(context.Background())
		require.Error(t, err)
		assert.Equal(t, 0, gateway.StatusCode(err))
		assert.Equal(t, "fallback", gateway.Message(err, "fallback"))
	})
}

func TestClient_List(t *testing.T) {
	srv, client := setup(t)
	for i := 1; i <= 25; i++ {
		srv.Seed(attendance.Classes, attendance.Class{ID: i, Code: "CS" + string(rune('A'+i-1)), Name: "Class"})
	}

	var classes []attendance.Class
	meta, err := client.List(context.Background(), attendance.Classes, attendance.Page{}, &classes)
	require.NoError(t, err)
	assert.Len(t, classes, attendance.DefaultLimit)
	assert.Equal(t, 25, meta.Total)
	assert.True(t, meta.HasNext(attendance.Page{Limit: attendance.DefaultLimit}))

	classes = nil
	page := attendance.Page{Offset: 20, Limit: 20}
	meta, err = client.List(context.Background(), attendance.Classes, page, &classes)
	require.NoError(t, err)
	require.Len(t, classes, 5)
	assert.Equal(t, 21, classes[0].ID)
	assert.False(t, meta.HasNext(page))

	var class attendance.Class
	require.NoError(t, client.Get(context.Background(), attendance.Classes, "7", &class))
	assert.Equal(t, 7, class.ID)
}

func TestClient_Batch(t *testing.T) {
	srv, client := setup(t)
	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	preview := []batch.Record{{
		Class:       batch.Class{Code: "CS101", Name: "Intro"},
		ClassGroups: []batch.ClassGroup{{Name: "L1", ClassType: batch.ClassTypeLecture}},
		ClassGroupSessions: []batch.ClassGroupSession{
			{ClassGroupID: 0, StartTime: start, EndTime: start.Add(time.Hour), Venue: "LT1"},
		},
		SessionEnrollments: []batch.SessionEnrollment{{ClassGroupID: 0, UserID: "u1", Name: "Bob"}},
	}}
	srv.SetBatchPreview(preview)

	files := []upload.File{
		{Name: "a.xlsx", Data: []byte("first")},
		{Name: "b.xlsx", ContentType: "application/vnd.ms-excel", Data: []byte("second")},
	}
	records, err := client.SubmitBatchFiles(context.Background(), files, 3)
	require.NoError(t, err)
	assert.Equal(t, preview, records)

	require.Len(t, srv.BatchUploads, 1)
	up := srv.BatchUploads[0]
	assert.Equal(t, "3", up.Fields["start_week"])
	assert.Equal(t, map[string][]byte{"a.xlsx": []byte("first"), "b.xlsx": []byte("second")}, up.Files)

	ids, err := client.ConfirmBatches(context.Background(), records)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
	require.Len(t, srv.ConfirmedBatches, 1)
	assert.Equal(t, preview, srv.ConfirmedBatches[0])
}

func TestClient_Managers(t *testing.T) {
	srv, client := setup(t)
	preview := []manager.Record{{UserID: "U2", ClassGroupID: 5, ManagingRole: manager.RoleTeachingAssistant}}
	srv.SetManagerPreview(preview)

	records, err := client.SubmitManagerFiles(context.Background(), []upload.File{{Name: "m.csv", Data: []byte("x")}})
	require.NoError(t, err)
	assert.Equal(t, preview, records)
	require.Len(t, srv.ManagerUploads, 1)
	assert.Contains(t, srv.ManagerUploads[0].Files, "m.csv")

	require.NoError(t, client.ConfirmManagers(context.Background(), records))
	require.Len(t, srv.ConfirmedManagers, 1)
	assert.Equal(t, preview, srv.ConfirmedManagers[0])
}

func TestClient_Attendance(t *testing.T) {
	srv, client := setup(t)
	srv.SetUpcoming(9, attendance.UpcomingSession{
		Session: attendance.ClassGroupSession{ID: 9, Venue: "LT1"},
		Attendances: []attendance.Attendance{
			{SessionEnrollment: attendance.SessionEnrollment{ID: 3, SessionID: 9, UserID: "U4"}, Name: "Bob"},
		},
	})

	us, err := client.GetUpcomingSession(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "LT1", us.Session.Venue)
	require.Len(t, us.Attendances, 1)
	assert.Equal(t, "Bob", us.Attendances[0].Name)

	update := attendance.AttendanceUpdate{Attended: true, UserID: "U4", UserSignature: "sig"}
	attended, err := client.UpdateAttendance(context.Background(), 9, 3, update)
	require.NoError(t, err)
	assert.True(t, attended)
	assert.Equal(t, []attendance.AttendanceUpdate{update}, srv.AttendanceUpdates)

	_, err = client.UpdateAttendance(context.Background(), 9, 99, update)
	assert.True(t, gateway.IsNotFound(err))
}

func TestClient_CreateRule(t *testing.T) {
	srv, client := setup(t)
	rule := attendance.NewRule{
		Title:             "Three strikes",
		RuleType:          attendance.RuleTypeConsecutive,
		ConsecutiveParams: &attendance.ConsecutiveParams{ConsecutiveLimit: 3},
	}

	created, err := client.CreateRule(context.Background(), 12, rule)
	require.NoError(t, err)
	assert.Equal(t, 12, created.ClassID)
	assert.Equal(t, "Three strikes", created.Title)
	assert.Equal(t, []attendance.NewRule{rule}, srv.Rules)
}

func TestClient_Downloads(t *testing.T) {
	srv, client := setup(t)
	srv.SetDownload("/coordinating-classes/4/report", gatewaytest.File{
		Name: "report.xlsx", ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", Body: []byte("xlsx"),
	})
	srv.SetDownload("/data-export", gatewaytest.File{Body: []byte("zip")})

	dl, err := client.DownloadReport(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "report.xlsx", dl.Filename)
	assert.Equal(t, []byte("xlsx"), dl.Body)
	assert.Contains(t, dl.ContentType, "spreadsheetml")

	dl, err = client.DownloadDataExport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "download", dl.Filename)
	assert.Equal(t, []byte("zip"), dl.Body)
}

func TestFilename(t *testing.T) {
	tests := []struct {
		name        string
		disposition string
		want        string
	}{
		{"empty", "", "download"},
		{"plain", `attachment; filename="report.xlsx"`, "report.xlsx"},
		{"unquoted", `attachment; filename=report.csv`, "report.csv"},
		{"extended wins", `attachment; filename="fallback.xlsx"; filename*=UTF-8''r%C3%A9sum%C3%A9.xlsx`, "résumé.xlsx"},
		{"no filename", `attachment`, "download"},
		{"malformed", `attachment; filename="oops`, "download"},
		{"path stripped", `attachment; filename="../../etc/passwd"`, "passwd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, gateway.Filename(tt.disposition))
		})
	}
}

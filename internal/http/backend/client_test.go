package backend

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwise1/civic_reports/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL+"/backend", 2*time.Second)
	require.NoError(t, err)
	return c, srv
}

func TestFetchReportsDecodesEnvelope(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/backend/get_reports.php", r.URL.Path)
		w.Write([]byte(`{"status":"success","reports":[
			{"id":"7","location":"Main St","issue_type":"Pothole","description":"deep","agency":"Roads",
			 "official_name":"J. Doe","latitude":"51.5","longitude":"-0.1","upcall":"5","downcall":2,
			 "images":"[\"uploads/a.jpg\",\"uploads/b.jpg\"]","status":"Open"},
			{"id":8,"location":"Elm","issue_type":"Leak","upcall":0,"downcall":0,"images":null,"latitude":""}
		]}`))
	})

	reports, err := c.FetchReports(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)

	first := reports[0]
	assert.Equal(t, "7", first.ID)
	assert.Equal(t, 5, first.UpvoteCount)
	assert.Equal(t, 2, first.DownvoteCount)
	assert.Equal(t, []string{"uploads/a.jpg", "uploads/b.jpg"}, first.Images)
	assert.Equal(t, model.ReportStatusOpen, first.Status)
	require.NotNil(t, first.Latitude)
	assert.InDelta(t, 51.5, *first.Latitude, 1e-9)

	second := reports[1]
	assert.Equal(t, "8", second.ID)
	assert.Empty(t, second.Images)
	assert.Nil(t, second.Latitude)
}

func TestFetchReportsAcceptsLocationsShape(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/backend/get_location.php", r.URL.Path)
		w.Write([]byte(`{"status":"success","locations":[{"id":"1","upcall":1,"downcall":0,"images":"[]"}]}`))
	})
	c.ReportsPath = "get_location.php"

	reports, err := c.FetchReports(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].UpvoteCount)
}

func TestFetchReportsProtocolErrors(t *testing.T) {
	testCases := []struct {
		name string
		code int
		body string
	}{
		{"error status", http.StatusOK, `{"status":"error","message":"db down"}`},
		{"missing list", http.StatusOK, `{"status":"success"}`},
		{"not json", http.StatusOK, `<html>oops</html>`},
		{"negative counter", http.StatusOK, `{"status":"success","reports":[{"id":"1","upcall":-1}]}`},
		{"too many images", http.StatusOK, `{"status":"success","reports":[{"id":"1","images":"[\"a\",\"b\",\"c\",\"d\"]"}]}`},
		{"missing id", http.StatusOK, `{"status":"success","reports":[{"location":"x"}]}`},
		{"server error", http.StatusInternalServerError, `{"status":"success","reports":[]}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.code)
				w.Write([]byte(tc.body))
			})

			_, err := c.FetchReports(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrProtocol)
			assert.Equal(t, KindProtocol, KindOf(err))
		})
	}
}

func TestFetchReportsNetworkError(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := c.FetchReports(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestFetchCurrentUser(t *testing.T) {
	testCases := []struct {
		name     string
		code     int
		body     string
		wantUser bool
		wantLat  float64
		wantErr  Kind
	}{
		{"authenticated", http.StatusOK, `{"user":{"name":"Ada","location":"London","lat":"51.2","lon":"-0.3"}}`, true, 51.2, 0},
		{"bad coordinates fall back", http.StatusOK, `{"user":{"name":"Ada","lat":"","lon":"abc"}}`, true, model.DefaultLatitude, 0},
		{"out of range coordinates fall back", http.StatusOK, `{"user":{"name":"Ada","lat":"95.5","lon":"10"}}`, true, model.DefaultLatitude, 0},
		{"longitude out of range", http.StatusOK, `{"user":{"name":"Ada","lat":"40","lon":"-181"}}`, true, model.DefaultLatitude, 0},
		{"error flag", http.StatusOK, `{"error":true}`, false, 0, 0},
		{"no user", http.StatusOK, `{}`, false, 0, 0},
		{"unauthorized", http.StatusUnauthorized, ``, false, 0, 0},
		{"garbage", http.StatusOK, `[1,2]`, false, 0, KindProtocol},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.code)
				w.Write([]byte(tc.body))
			})

			user, err := c.FetchCurrentUser(context.Background())
			if tc.wantErr != 0 {
				require.Error(t, err)
				assert.Equal(t, tc.wantErr, KindOf(err))
				return
			}
			require.NoError(t, err)
			if !tc.wantUser {
				assert.Nil(t, user)
				return
			}
			require.NotNil(t, user)
			assert.Equal(t, "Ada", user.Name)
			assert.InDelta(t, tc.wantLat, user.Latitude, 1e-9)
		})
	}
}

func TestSendVoteToggleForm(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "42", r.PostForm.Get("reportId"))
		assert.Equal(t, "downcall", r.PostForm.Get("action"))
		assert.Equal(t, "decrement", r.PostForm.Get("toggle"))
		w.Write([]byte(`{"status":"success"}`))
	})

	err := c.SendVoteToggle(context.Background(), "42", model.VoteDown, model.Decrement)
	assert.NoError(t, err)
}

func TestSendVoteToggleConflict(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","message":"nothing to decrement"}`))
	})

	err := c.SendVoteToggle(context.Background(), "42", model.VoteUp, model.Decrement)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "nothing to decrement", MessageOf(err))
}

func TestSendVoteToggleStatusCodes(t *testing.T) {
	testCases := []struct {
		name string
		code int
		body string
		want error
	}{
		{"success body on server error", http.StatusInternalServerError, `{"status":"success"}`, ErrProtocol},
		{"success body on conflict", http.StatusConflict, `{"status":"success"}`, ErrConflict},
		{"empty conflict", http.StatusConflict, ``, ErrConflict},
		{"empty server error", http.StatusBadGateway, ``, ErrProtocol},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.code)
				w.Write([]byte(tc.body))
			})

			err := c.SendVoteToggle(context.Background(), "42", model.VoteUp, model.Increment)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSubmitReportMultipart(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Main St", r.FormValue("location"))
		assert.Equal(t, "Pothole", r.FormValue("issueType"))
		assert.Equal(t, "High", r.FormValue("urgency"))

		file, header, err := r.FormFile("image1")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "b.png", header.Filename)
		assert.Equal(t, []byte("png-bytes"), data)

		_, _, err = r.FormFile("image2")
		assert.Error(t, err)
		w.Write([]byte(`{"status":"success","report_id":91}`))
	})

	id, err := c.SubmitReport(context.Background(), model.ReportDraft{
		Location:    "Main St",
		IssueType:   "Pothole",
		Description: "deep",
		Agency:      "Roads",
		Urgency:     "High",
		Images: []model.ImageAttachment{
			{Filename: "a.jpg", ContentType: "image/jpeg", Data: []byte("jpg-bytes")},
			{Filename: "b.png", ContentType: "image/png", Data: []byte("png-bytes")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "91", id)
}

func TestSubmitReportRejections(t *testing.T) {
	calls := 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"status":"error","message":"description too short"}`))
	})

	tooMany := model.ReportDraft{Images: make([]model.ImageAttachment, 4)}
	_, err := c.SubmitReport(context.Background(), tooMany)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, 0, calls)

	_, err = c.SubmitReport(context.Background(), model.ReportDraft{Location: "x"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "description too short", MessageOf(err))
	assert.Equal(t, 1, calls)
}

func TestLoginKeepsSessionCookie(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/backend/login_user.php":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "ada@example.com", r.PostForm.Get("email"))
			http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "abc", Path: "/"})
			w.Write([]byte(`{"status":"success","account_type":"Agency"}`))
		case "/backend/get_user_details.php":
			cookie, err := r.Cookie("PHPSESSID")
			if err != nil || cookie.Value != "abc" {
				w.Write([]byte(`{"error":true}`))
				return
			}
			w.Write([]byte(`{"user":{"name":"Ada"}}`))
		}
	})

	accountType, err := c.Login(context.Background(), model.LoginRequest{Email: "ada@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, model.AccountAgency, accountType)

	user, err := c.FetchCurrentUser(context.Background())
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Ada", user.Name)
}

func TestSignupDropsAgencyNameForIndividuals(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		_, present := r.PostForm["agency_name"]
		assert.False(t, present)
		assert.Equal(t, "Individual", r.PostForm.Get("account_type"))
		w.Write([]byte(`{"status":"error","message":"email taken"}`))
	})

	err := c.Signup(context.Background(), model.SignupRequest{
		Name: "Ada", Email: "ada@example.com", Location: "London", Password: "pw",
		AccountType: model.AccountIndividual, AgencyName: "ignored",
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "email taken", MessageOf(err))
}

func TestDashboardEndpoints(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/backend/get_users.php":
			w.Write([]byte(`{"users":[{"id":3,"name":"Bo","email":"bo@example.com","role":"Agency"}]}`))
		case "/backend/filter_reports.php":
			assert.Equal(t, "Main St", r.URL.Query().Get("location"))
			w.Write([]byte(`{"reports":[{"id":"1","location":"Main St"}]}`))
		case "/backend/assign_task.php":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "1", r.PostForm.Get("reportId"))
			assert.Equal(t, "Bo", r.PostForm.Get("assignedTo"))
			w.Write([]byte(`{"status":"success"}`))
		}
	})
	ctx := context.Background()

	users, err := c.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.ManagedUser{{ID: "3", Name: "Bo", Email: "bo@example.com", Role: "Agency"}}, users)

	reports, err := c.FilterReports(ctx, model.ReportFilter{Location: "Main St"})
	require.NoError(t, err)
	require.Len(t, reports, 1)

	assert.NoError(t, c.AssignTask(ctx, model.AssignTaskRequest{ReportID: "1", AssignedTo: "Bo"}))
}

func TestImageURL(t *testing.T) {
	c, err := NewClient("http://localhost/backend", 0)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost/backend/uploads/a.jpg", c.ImageURL("uploads/a.jpg"))
	assert.Equal(t, "http://localhost/backend/uploads/a.jpg", c.ImageURL("/uploads/a.jpg"))
	assert.Equal(t, "https://cdn.example.com/x.jpg", c.ImageURL("https://cdn.example.com/x.jpg"))
	assert.Equal(t, "", c.ImageURL("  "))
}

func TestNewClientRejectsRelativeBase(t *testing.T) {
	_, err := NewClient("backend/", time.Second)
	assert.Error(t, err)
}

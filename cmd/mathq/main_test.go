package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Veraticus/mathq/internal/common"
	"github.com/Veraticus/mathq/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	queryStatus []int
	healthCode  int
	queries     []model.QueryRequest
	submissions []model.FeedbackSubmission
	logins      int
	mu          sync.Mutex
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch r.URL.Path {
	case "/query":
		var req model.QueryRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		b.queries = append(b.queries, req)
		if len(b.queryStatus) > 0 {
			status := b.queryStatus[0]
			b.queryStatus = b.queryStatus[1:]
			w.WriteHeader(status)
			return
		}
		_, _ = io.WriteString(w, `{"answer":"x = 2","source":"knowledge_base","confidence":0.93,"matched_problem_id":"JEE-2019-14"}`)
	case "/login":
		b.logins++
	case "/feedback/submit":
		var sub model.FeedbackSubmission
		_ = json.NewDecoder(r.Body).Decode(&sub)
		b.submissions = append(b.submissions, sub)
		_, _ = io.WriteString(w, `{"status":"success"}`)
	case "/feedback/stats":
		_, _ = io.WriteString(w, `{"total_feedback":10,"positive":7,"negative":3,"with_corrections":2,"positive_rate":0.7,"negative_rate":0.3,"correction_rate":0.2}`)
	case "/health":
		if b.healthCode != 0 {
			w.WriteHeader(b.healthCode)
		}
	default:
		http.NotFound(w, r)
	}
}

func (b *fakeBackend) recorded() ([]model.QueryRequest, []model.FeedbackSubmission, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queries, b.submissions, b.logins
}

func newBackend(t *testing.T, configure ...func(*fakeBackend)) *fakeBackend {
	t.Helper()
	backend := &fakeBackend{}
	for _, fn := range configure {
		fn(backend)
	}
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	t.Setenv("HOME", t.TempDir())
	t.Setenv("MATHQ_API_URL", server.URL)
	t.Setenv("MATHQ_LOGGING_LEVEL", "error")
	return backend
}

// execute runs the root command and resets every flag afterwards so
// values do not leak between tests.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	t.Cleanup(func() { resetFlags(rootCmd) })

	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestVersionCmd(t *testing.T) {
	newBackend(t)

	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "mathq dev\n", out)
}

func TestAskCmd(t *testing.T) {
	backend := newBackend(t)

	out, err := execute(t, "", "ask", "--difficulty", "advanced", "2x + 3 = 7")
	require.NoError(t, err)
	queries, _, _ := backend.recorded()

	require.Len(t, queries, 1)
	assert.Equal(t, "2x + 3 = 7", queries[0].Question)
	assert.Equal(t, model.DifficultyJEEAdvanced, queries[0].Difficulty)
	assert.Contains(t, out, "x = 2")
	assert.Contains(t, out, "Knowledge Base Match")
}

func TestAskCmd_Prompt(t *testing.T) {
	backend := newBackend(t)

	out, err := execute(t, "integrate x dx\n", "ask")
	require.NoError(t, err)
	queries, _, _ := backend.recorded()

	require.Len(t, queries, 1)
	assert.Equal(t, "integrate x dx", queries[0].Question)
	assert.Equal(t, model.DifficultyJEEMain, queries[0].Difficulty)
	assert.Contains(t, out, "Question")
}

func TestAskCmd_LoginThenResubmit(t *testing.T) {
	backend := newBackend(t, func(b *fakeBackend) {
		b.queryStatus = []int{http.StatusUnauthorized}
	})

	out, err := execute(t, "", "ask", "  lim x→0 sin x / x  ")
	require.NoError(t, err)
	queries, _, logins := backend.recorded()

	assert.Equal(t, 1, logins)
	require.Len(t, queries, 2)
	assert.Equal(t, "  lim x→0 sin x / x  ", queries[1].Question)
	assert.Contains(t, out, "x = 2")
}

func TestAskCmd_ServerError(t *testing.T) {
	newBackend(t, func(b *fakeBackend) {
		b.queryStatus = []int{http.StatusInternalServerError}
	})

	out, err := execute(t, "", "ask", "2+2")
	require.Error(t, err)

	var transportErr *common.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusInternalServerError, transportErr.Status)
	assert.Contains(t, out, "500")
}

func TestAskCmd_InvalidDifficulty(t *testing.T) {
	newBackend(t)

	_, err := execute(t, "", "ask", "--difficulty", "olympiad", "2+2")
	assert.Error(t, err)
}

func TestReportCmd(t *testing.T) {
	backend := newBackend(t)

	out, err := execute(t, "", "report", "--type", "ocr", "--description", "misreads integrals", "--email", "a@example.com")
	require.NoError(t, err)
	_, submissions, _ := backend.recorded()
	assert.Contains(t, out, "Report sent")

	require.Len(t, submissions, 1)
	sub := submissions[0]
	assert.Equal(t, "[USER PROBLEM REPORT - OCR]", sub.Question)
	assert.Equal(t, "misreads integrals", sub.Answer)
	assert.Equal(t, "problem_report", sub.FeedbackType)
	assert.Equal(t, model.RatingThumbsDown, sub.Rating)
	require.NotNil(t, sub.Metadata.UserEmail)
	assert.Equal(t, "a@example.com", *sub.Metadata.UserEmail)
}

func TestReportCmd_PromptsForDescription(t *testing.T) {
	backend := newBackend(t)

	_, err := execute(t, "answer was off by a sign\n", "report")
	require.NoError(t, err)
	_, submissions, _ := backend.recorded()

	require.Len(t, submissions, 1)
	assert.Equal(t, "[USER PROBLEM REPORT - BUG]", submissions[0].Question)
	assert.Equal(t, "answer was off by a sign", submissions[0].Answer)
}

func TestReportCmd_EmptyDescription(t *testing.T) {
	backend := newBackend(t)

	_, err := execute(t, "", "report")
	require.ErrorIs(t, err, common.ErrEmptyDescription)
	_, submissions, _ := backend.recorded()
	assert.Empty(t, submissions)
}

func TestReportCmd_InvalidType(t *testing.T) {
	newBackend(t)

	_, err := execute(t, "", "report", "--type", "rant", "--description", "x")
	assert.Error(t, err)
}

func TestStatsCmd(t *testing.T) {
	newBackend(t)

	out, err := execute(t, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Total feedback")
	assert.Contains(t, out, "7 (70.0%)")
	assert.Contains(t, out, "2 (20.0%)")
}

func TestLoginCmd(t *testing.T) {
	backend := newBackend(t)

	out, err := execute(t, "", "login")
	require.NoError(t, err)
	_, _, logins := backend.recorded()
	assert.Equal(t, 1, logins)
	assert.Contains(t, out, "Logged in")
}

func TestHealthCmd(t *testing.T) {
	t.Run("up", func(t *testing.T) {
		newBackend(t)

		out, err := execute(t, "", "health")
		require.NoError(t, err)
		assert.Contains(t, out, "is up")
	})

	t.Run("down", func(t *testing.T) {
		newBackend(t, func(b *fakeBackend) {
			b.healthCode = http.StatusServiceUnavailable
		})

		out, err := execute(t, "", "health", "--attempts", "1")
		require.Error(t, err)
		assert.Contains(t, out, "unreachable")
	})
}

func TestFormatStats(t *testing.T) {
	out := formatStats(model.FeedbackStats{TotalFeedback: 4, Positive: 1, PositiveRate: 0.25})
	assert.Contains(t, out, "1 (25.0%)")
	assert.Contains(t, out, "0 (0.0%)")
}

package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenemo/sealed-vote/internal/domain/poll"
	"github.com/tenemo/sealed-vote/internal/polls/pollstest"
	"github.com/tenemo/sealed-vote/internal/session"
	"github.com/tenemo/sealed-vote/internal/store"
)

type testEnv struct {
	router   *gin.Engine
	api      *pollstest.API
	sessions *session.Manager
	*visitor
}

// visitor is one browser with its own cookie jar
type visitor struct {
	env     *testEnv
	cookies map[string]*http.Cookie
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := pollstest.New()
	sessions := session.NewManager(func(ctx context.Context, id string) (*store.Store, error) {
		return store.Configure(ctx, store.Options{
			BuildType: store.BuildProduction,
			API:       api,
			Logger:    log.New(io.Discard),
		})
	}, session.WithLogger(log.New(io.Discard)))
	t.Cleanup(func() { _ = sessions.Close(context.Background()) })

	h := NewPageHandler()
	router := gin.New()
	router.SetHTMLTemplate(Templates())
	router.Use(sessions.Middleware())
	h.Register(router)
	router.NoRoute(h.NotFound)

	env := &testEnv{router: router, api: api, sessions: sessions}
	env.visitor = env.newVisitor()
	return env
}

func (e *testEnv) newVisitor() *visitor {
	return &visitor{env: e, cookies: make(map[string]*http.Cookie)}
}

func (v *visitor) do(req *http.Request) *httptest.ResponseRecorder {
	req.Host = "sealed.test"
	for _, cookie := range v.cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	v.env.router.ServeHTTP(w, req)
	for _, cookie := range w.Result().Cookies() {
		v.cookies[cookie.Name] = cookie
	}
	return w
}

func (v *visitor) get(path string) *httptest.ResponseRecorder {
	return v.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (v *visitor) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return v.do(req)
}

// store returns the store behind the visitor's session cookie
func (v *visitor) store(t *testing.T) *store.Store {
	t.Helper()
	cookie, ok := v.cookies[session.CookieName]
	require.True(t, ok, "no session cookie")
	sess, ok := v.env.sessions.Lookup(cookie.Value)
	require.True(t, ok, "session %s is not open", cookie.Value)
	return sess.Store
}

func TestCreatePageEmpty(t *testing.T) {
	env := setupTestEnv(t)

	w := env.get("/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "sealed.vote")
	assert.Contains(t, body, "Create a new vote")
	assert.Contains(t, body, "To create a vote, add choices that each participant will be able to rank from 1 to 10.")
	assert.Contains(t, body, `value="create" disabled`)
}

func TestCreatePageAddChoice(t *testing.T) {
	env := setupTestEnv(t)

	w := env.post("/", url.Values{"op": {"add"}, "pollName": {"Lunch"}, "choiceName": {"Pizza"}})
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `<input type="hidden" name="choices" value="Pizza">`)
	assert.Contains(t, body, "There need to be at least two possible choices in a vote.")
	assert.Contains(t, body, `value="create" disabled`)

	w = env.post("/", url.Values{"op": {"add"}, "pollName": {"Lunch"}, "choiceName": {"Sushi"}, "choices": {"Pizza"}})
	body = w.Body.String()
	assert.Contains(t, body, `value="Sushi"`)
	assert.NotContains(t, body, `value="create" disabled`)
	assert.NotContains(t, body, "There need to be at least two")
}

func TestCreatePageRejectsDuplicateChoice(t *testing.T) {
	env := setupTestEnv(t)

	w := env.post("/", url.Values{"op": {"add"}, "choiceName": {"Pizza"}, "choices": {"Pizza"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "This choice already exists")
}

func TestCreatePageIgnoresBlankChoice(t *testing.T) {
	env := setupTestEnv(t)

	w := env.post("/", url.Values{"op": {"add"}, "choiceName": {"   "}, "choices": {"Pizza"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, strings.Count(w.Body.String(), `name="choices"`))
}

func TestCreatePageRemoveChoice(t *testing.T) {
	env := setupTestEnv(t)

	w := env.post("/", url.Values{"remove": {"Pizza"}, "choices": {"Pizza", "Sushi"}})
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.NotContains(t, body, `name="choices" value="Pizza"`)
	assert.Contains(t, body, `name="choices" value="Sushi"`)
}

func TestCreatePollFlow(t *testing.T) {
	env := setupTestEnv(t)

	w := env.post("/", url.Values{"op": {"create"}, "pollName": {"Lunch"}, "choices": {"Pizza", "Sushi"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	body := env.get("/").Body.String()
	assert.Contains(t, body, "Vote successfully created!")
	assert.Contains(t, body, "http://sealed.test/votes/poll-1")
	assert.Contains(t, body, "Back to vote creation")
	assert.Contains(t, body, "Go to vote")

	w = env.post("/clear", url.Values{"next": {"/votes/poll-1"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/votes/poll-1", w.Header().Get("Location"))
	assert.NotContains(t, env.get("/").Body.String(), "Vote successfully created!")
}

func TestCreatePageUnknownOperation(t *testing.T) {
	env := setupTestEnv(t)

	w := env.post("/", url.Values{"op": {"publish"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown operation")

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(url.Values{"op": {"publish"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	w = env.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"unknown operation","code":400}`, w.Body.String())
}

func TestCreatePollValidation(t *testing.T) {
	env := setupTestEnv(t)

	w := env.post("/", url.Values{"op": {"create"}, "pollName": {"Lunch"}, "choices": {"Pizza"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "There need to be at least two possible choices in a vote.")
	assert.Zero(t, env.api.CallCount("create"))
}

func TestCreatePollAPIFailureKeepsDraft(t *testing.T) {
	env := setupTestEnv(t)
	env.api.Fail(errors.New("connection refused"))

	w := env.post("/", url.Values{"op": {"create"}, "pollName": {"Lunch"}, "choices": {"Pizza", "Sushi"}})
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "connection refused")
	assert.Contains(t, body, `name="choices" value="Sushi"`)
}

func TestClearRejectsForeignRedirects(t *testing.T) {
	env := setupTestEnv(t)

	for _, next := range []string{"https://evil.test", "//evil.test", ""} {
		w := env.post("/clear", url.Values{"next": {next}})
		assert.Equal(t, "/", w.Header().Get("Location"), next)
	}
}

func TestPollPage(t *testing.T) {
	env := setupTestEnv(t)
	env.api.Add("p1-abc", poll.Details{PollName: "Lunch", Choices: []string{"Pizza", "Sushi"}})

	w := env.get("/votes/p1-abc")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<title>Lunch</title>")
	assert.Contains(t, body, "http://sealed.test/votes/p1-abc")
	assert.Contains(t, body, "Link to the vote to share with others")
	assert.Contains(t, body, "Rate choices from 1 to 10.")
	assert.Contains(t, body, "Voting results are available when at least two participants have voted.")
	assert.Contains(t, body, `name="score_1" value="10"`)
	assert.Contains(t, body, "Submit your choices")
	assert.NotContains(t, body, "Voters who submitted their votes")

	env.get("/votes/p1-abc")
	assert.Equal(t, 1, env.api.CallCount("get"))
}

func TestPollPageError(t *testing.T) {
	env := setupTestEnv(t)

	w := env.get("/votes/missing")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Vote with ID missing does not exist.")
	assert.Contains(t, w.Body.String(), "<title>Vote missing</title>")
}

func TestVoteFlow(t *testing.T) {
	env := setupTestEnv(t)
	env.api.Add("p1", poll.Details{PollName: "Lunch", Choices: []string{"Pizza", "Sushi"}})
	env.get("/votes/p1")

	w := env.post("/votes/p1/vote", url.Values{"score_0": {"9"}, "voterName": {"Alice"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/votes/p1", w.Header().Get("Location"))
	env.store(t).Wait()

	body := env.get("/votes/p1").Body.String()
	assert.Contains(t, body, "You have voted successfully.")
	assert.Contains(t, body, "Voters who submitted their votes: Alice.")
	assert.Contains(t, body, "<h3>Results</h3>")
	assert.NotContains(t, body, "Submit your choices")
	assert.NotContains(t, body, "Rate choices from 1 to 10.")
}

func TestSecondVoteRedirectsWithoutSubmitting(t *testing.T) {
	env := setupTestEnv(t)
	env.api.Add("p1", poll.Details{PollName: "Lunch", Choices: []string{"Pizza", "Sushi"}})
	env.get("/votes/p1")

	env.post("/votes/p1/vote", url.Values{"score_0": {"9"}, "voterName": {"Alice"}})
	env.store(t).Wait()

	w := env.post("/votes/p1/vote", url.Values{"score_1": {"2"}, "voterName": {"Alice again"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/votes/p1", w.Header().Get("Location"))
	env.store(t).Wait()

	assert.Equal(t, 1, env.api.CallCount("vote"))
	assert.Contains(t, env.get("/votes/p1").Body.String(), "Voters who submitted their votes: Alice.")
}

func TestVisitorsHaveSeparateState(t *testing.T) {
	env := setupTestEnv(t)
	env.api.Add("p1", poll.Details{PollName: "Lunch", Choices: []string{"Pizza", "Sushi"}})
	alice, bob := env.newVisitor(), env.newVisitor()

	alice.get("/votes/p1")
	alice.post("/votes/p1/vote", url.Values{"score_0": {"9"}, "voterName": {"Alice"}})
	alice.store(t).Wait()
	assert.Contains(t, alice.get("/votes/p1").Body.String(), "You have voted successfully.")

	body := bob.get("/votes/p1").Body.String()
	assert.NotContains(t, body, "You have voted successfully.")
	assert.Contains(t, body, "Submit your choices")
	assert.Contains(t, body, "Voters who submitted their votes: Alice.")

	assert.NotEqual(t, alice.cookies[session.CookieName].Value, bob.cookies[session.CookieName].Value)
	assert.NotSame(t, alice.store(t), bob.store(t))

	carol, dave := env.newVisitor(), env.newVisitor()
	carol.post("/", url.Values{"op": {"create"}, "pollName": {"Dinner"}, "choices": {"Soup", "Salad"}})
	assert.Contains(t, carol.get("/").Body.String(), "Vote successfully created!")
	assert.NotContains(t, dave.get("/").Body.String(), "Vote successfully created!")
}

func TestSessionCookie(t *testing.T) {
	env := setupTestEnv(t)

	w := env.get("/")
	cookie := env.cookies[session.CookieName]
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.Contains(t, w.Header().Get("Set-Cookie"), session.CookieName)

	env.get("/")
	assert.Equal(t, cookie.Value, env.cookies[session.CookieName].Value)
	assert.Equal(t, 1, env.sessions.Len())
}

func TestVoteValidationKeepsBallot(t *testing.T) {
	env := setupTestEnv(t)
	env.api.Add("p1", poll.Details{PollName: "Lunch", Choices: []string{"Pizza", "Sushi"}})
	env.get("/votes/p1")

	w := env.post("/votes/p1/vote", url.Values{"score_1": {"4"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "voter name is required")
	assert.Contains(t, w.Body.String(), `name="score_1" value="4" checked`)
	assert.Zero(t, env.api.CallCount("vote"))
}

func TestResultsOnDemand(t *testing.T) {
	env := setupTestEnv(t)
	env.api.Add("p1", poll.Details{
		PollName: "Lunch",
		Choices:  []string{"Pizza", "Sushi"},
		Voters:   []string{"Alice", "Bob"},
		Results:  map[string]float64{"Pizza": 7.5, "Sushi": 9},
	})

	body := env.get("/votes/p1").Body.String()
	assert.Contains(t, body, "Show current results")
	assert.NotContains(t, body, "<h3>Results</h3>")
	assert.Contains(t, body, "Voters who submitted their votes: Alice, Bob.")

	body = env.get("/votes/p1?results=1").Body.String()
	assert.Contains(t, body, "<h3>Results</h3>")
	assert.NotContains(t, body, "Show current results")
	assert.Less(t, strings.Index(body, "Sushi <span"), strings.Index(body, "Pizza <span"))
	assert.Contains(t, body, "[cup]")
}

func TestRefreshPoll(t *testing.T) {
	env := setupTestEnv(t)
	env.api.Add("p1", poll.Details{PollName: "Lunch", Choices: []string{"Pizza", "Sushi"}})
	env.get("/votes/p1")

	w := env.post("/votes/p1/refresh", nil)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/votes/p1", w.Header().Get("Location"))
	assert.Equal(t, 2, env.api.CallCount("get"))
}

func TestNotFound(t *testing.T) {
	env := setupTestEnv(t)

	w := env.get("/nowhere")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Path <strong>/nowhere</strong> not found.")
	assert.Contains(t, w.Body.String(), "Go back to vote creation")

	req := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	req.Header.Set("Accept", "application/json")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Path /nowhere not found.","code":404}`, w.Body.String())
}

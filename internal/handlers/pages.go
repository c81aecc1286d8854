package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/tenemo/sealed-vote/internal/apierr"
	"github.com/tenemo/sealed-vote/internal/domain/poll"
	"github.com/tenemo/sealed-vote/internal/logger"
	"github.com/tenemo/sealed-vote/internal/polls"
	"github.com/tenemo/sealed-vote/internal/response"
	"github.com/tenemo/sealed-vote/internal/services"
	"github.com/tenemo/sealed-vote/internal/session"
	"github.com/tenemo/sealed-vote/internal/validation"
)

// loadingRefreshSeconds is how often a page showing a pending request reloads
const loadingRefreshSeconds = 1

// PageHandler renders the poll creation page and the poll pages. Each request
// works on the store of its session.
type PageHandler struct {
	log *log.Logger
}

func NewPageHandler() *PageHandler {
	return &PageHandler{
		log: logger.Handler("pages"),
	}
}

func (h *PageHandler) service(c *gin.Context) *services.PollService {
	return session.FromContext(c).Polls
}

// Register adds the page routes to r
func (h *PageHandler) Register(r gin.IRoutes) {
	r.GET("/", h.ShowCreatePoll)
	r.POST("/", h.SubmitCreatePoll)
	r.POST("/clear", h.ClearCreatedPoll)
	r.GET("/votes/:pollId", h.ShowPoll)
	r.POST("/votes/:pollId/refresh", h.RefreshPoll)
	r.POST("/votes/:pollId/vote", h.SubmitVote)
}

type createPage struct {
	layout
	PollName      string
	ChoiceName    string
	Choices       []string
	ChoiceError   string
	Error         string
	IsLoading     bool
	CanCreate     bool
	Created       *poll.CreatedPoll
	Link          string
	MaxPollName   int
	MaxChoiceName int
}

// draft is the poll creation form as submitted. It lives in the page, not in
// the store.
type draft struct {
	PollName    string
	ChoiceName  string
	Choices     []string
	ChoiceError string
	FormError   string
}

// ShowCreatePoll handles GET /
func (h *PageHandler) ShowCreatePoll(c *gin.Context) {
	h.renderCreate(c, http.StatusOK, draft{})
}

// SubmitCreatePoll handles POST /. The op field selects between adding a
// choice and creating the poll; a remove field deletes that choice.
func (h *PageHandler) SubmitCreatePoll(c *gin.Context) {
	d := draft{
		PollName:   c.PostForm("pollName"),
		ChoiceName: c.PostForm("choiceName"),
		Choices:    c.PostFormArray("choices"),
	}

	if remove, ok := c.GetPostForm("remove"); ok {
		d.Choices = slices.DeleteFunc(d.Choices, func(choice string) bool { return choice == remove })
		h.renderCreate(c, http.StatusOK, d)
		return
	}

	switch c.PostForm("op") {
	case "add":
		if strings.TrimSpace(d.ChoiceName) == "" {
			h.renderCreate(c, http.StatusOK, d)
			return
		}
		if err := validation.ValidateChoiceName(d.Choices, d.ChoiceName); err != nil {
			d.ChoiceError = err.Error()
			h.renderCreate(c, http.StatusUnprocessableEntity, d)
			return
		}
		d.Choices = append(d.Choices, d.ChoiceName)
		d.ChoiceName = ""
		h.renderCreate(c, http.StatusOK, d)

	case "create":
		err := h.service(c).CreatePoll(c.Request.Context(), polls.CreatePollInput{
			PollName: d.PollName,
			Choices:  d.Choices,
		})
		switch {
		case err == nil:
			c.Redirect(http.StatusSeeOther, "/")
		case services.IsValidation(err):
			d.FormError = err.Error()
			h.renderCreate(c, http.StatusUnprocessableEntity, d)
		default:
			h.log.Warn("Poll creation failed", "pollName", d.PollName, "error", err)
			h.renderCreate(c, http.StatusOK, d)
		}

	default:
		if c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON {
			response.BadRequestError(c, "unknown operation")
			return
		}
		d.FormError = "unknown operation"
		h.renderCreate(c, http.StatusBadRequest, d)
	}
}

func (h *PageHandler) renderCreate(c *gin.Context, status int, d draft) {
	page := createPage{
		layout:        layout{Title: "Vote creation"},
		PollName:      d.PollName,
		ChoiceName:    d.ChoiceName,
		Choices:       d.Choices,
		ChoiceError:   d.ChoiceError,
		MaxPollName:   validation.MaxPollNameLength,
		MaxChoiceName: validation.MaxChoiceNameLength,
	}

	if state := h.service(c).CreatePollState(); state != nil {
		page.IsLoading = state.IsLoading
		page.Created = state.Response
		if state.Error != nil {
			page.Error = apierr.Message(state.Error)
		}
	}
	if d.FormError != "" {
		page.Error = d.FormError
	}
	if page.Created != nil {
		page.Link = baseURL(c) + pollPath(page.Created.ID)
	}
	if page.IsLoading {
		page.RefreshSeconds = loadingRefreshSeconds
	}
	page.CanCreate = strings.TrimSpace(d.PollName) != "" &&
		len(d.Choices) >= validation.MinChoices &&
		!page.IsLoading

	c.HTML(status, "create.html", page)
}

// ClearCreatedPoll handles POST /clear and then continues to the next field
func (h *PageHandler) ClearCreatedPoll(c *gin.Context) {
	h.service(c).ClearCreatedPoll()
	c.Redirect(http.StatusSeeOther, safeNext(c.PostForm("next")))
}

type choiceRow struct {
	Index    int
	Name     string
	Selected int
}

type pollPage struct {
	layout
	PollID         string
	PollName       string
	Link           string
	IsLoading      bool
	Error          string
	Voted          bool
	HasResults     bool
	ResultsVisible bool
	Voters         []string
	Results        []poll.RankedChoice
	Choices        []choiceRow
	VoterName      string
	MaxVoterName   int
	VoteLoading    bool
	VoteError      string
}

// ballot is the vote form as submitted
type ballot struct {
	Votes     map[string]int
	VoterName string
	Err       string
}

// ShowPoll handles GET /votes/:pollId. The poll is fetched on the first view
// only; later views show what the store holds.
func (h *PageHandler) ShowPoll(c *gin.Context) {
	pollID := c.Param("pollId")
	if err := validation.ValidatePollID(pollID); err != nil {
		h.NotFound(c)
		return
	}

	if _, err := h.service(c).EnsurePoll(c.Request.Context(), pollID); err != nil {
		h.log.Debug("Poll fetch failed", "pollId", pollID, "error", err)
	}
	h.renderPoll(c, http.StatusOK, pollID, ballot{})
}

// RefreshPoll handles POST /votes/:pollId/refresh
func (h *PageHandler) RefreshPoll(c *gin.Context) {
	pollID := c.Param("pollId")

	if p := h.service(c).Poll(pollID); p == nil || !p.IsLoading {
		if err := h.service(c).FetchPoll(c.Request.Context(), pollID); err != nil {
			h.log.Debug("Poll refresh failed", "pollId", pollID, "error", err)
		}
	}
	c.Redirect(http.StatusSeeOther, pollPath(pollID))
}

// SubmitVote handles POST /votes/:pollId/vote. Scores are posted as
// score_<index> with the index into the poll's choices.
func (h *PageHandler) SubmitVote(c *gin.Context) {
	pollID := c.Param("pollId")

	p := h.service(c).Poll(pollID)
	if p == nil || p.Response == nil {
		c.Redirect(http.StatusSeeOther, pollPath(pollID))
		return
	}

	b := ballot{
		Votes:     make(map[string]int),
		VoterName: c.PostForm("voterName"),
	}
	for i, choice := range p.Response.Choices {
		raw := c.PostForm(fmt.Sprintf("score_%d", i))
		if raw == "" {
			continue
		}
		score, err := strconv.Atoi(raw)
		if err != nil {
			b.Err = fmt.Sprintf("invalid score for %s", choice)
			h.renderPoll(c, http.StatusUnprocessableEntity, pollID, b)
			return
		}
		b.Votes[choice] = score
	}

	err := h.service(c).Vote(c.Request.Context(), polls.VoteInput{
		PollID:    pollID,
		Votes:     b.Votes,
		VoterName: b.VoterName,
	})
	switch {
	case err == nil:
		c.Redirect(http.StatusSeeOther, pollPath(pollID))
	case errors.Is(err, services.ErrPollNotLoaded), errors.Is(err, services.ErrAlreadyVoted):
		c.Redirect(http.StatusSeeOther, pollPath(pollID))
	case services.IsValidation(err):
		b.Err = err.Error()
		h.renderPoll(c, http.StatusUnprocessableEntity, pollID, b)
	default:
		h.log.Warn("Vote failed", "pollId", pollID, "error", err)
		h.renderPoll(c, http.StatusOK, pollID, b)
	}
}

func (h *PageHandler) renderPoll(c *gin.Context, status int, pollID string, b ballot) {
	page := pollPage{
		layout:       layout{Title: "Vote " + strings.Split(pollID, "-")[0]},
		PollID:       pollID,
		MaxVoterName: validation.MaxVoterNameLength,
	}

	p := h.service(c).Poll(pollID)
	if p == nil || p.IsLoading || (p.Response == nil && p.Error == nil) {
		page.IsLoading = true
		page.RefreshSeconds = loadingRefreshSeconds
		c.HTML(status, "poll.html", page)
		return
	}

	details := p.Response
	if details != nil {
		page.Title = details.PollName
		page.HasResults = details.HasResults()
	}
	if p.Error != nil || details == nil {
		page.Error = apierr.Message(p.Error)
		c.HTML(status, "poll.html", page)
		return
	}

	page.PollName = details.PollName
	page.Link = baseURL(c) + pollPath(pollID)
	page.Voted = p.Vote.HasVoted()
	page.ResultsVisible = page.Voted || c.Query("results") == "1"
	page.Voters = details.Voters
	if page.ResultsVisible {
		page.Results = poll.RankResults(details.Results)
	}

	page.Choices = make([]choiceRow, len(details.Choices))
	for i, choice := range details.Choices {
		page.Choices[i] = choiceRow{Index: i, Name: choice, Selected: b.Votes[choice]}
	}
	page.VoterName = b.VoterName
	page.VoteLoading = p.Vote.IsLoading
	switch {
	case b.Err != "":
		page.VoteError = b.Err
	case p.Vote.Error != nil:
		page.VoteError = apierr.Message(p.Vote.Error)
	}

	c.HTML(status, "poll.html", page)
}

type notFoundPage struct {
	layout
	Path string
}

// NotFound renders the not found page, or a JSON error for JSON clients
func (h *PageHandler) NotFound(c *gin.Context) {
	path := c.Request.URL.Path
	message := fmt.Sprintf("Path %s not found.", path)

	if c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON {
		response.NotFoundError(c, message)
		return
	}

	c.HTML(http.StatusNotFound, "notfound.html", notFoundPage{
		layout: layout{Title: "Not found"},
		Path:   path,
	})
}

func pollPath(pollID string) string {
	return "/votes/" + url.PathEscape(pollID)
}

// baseURL is the scheme and host the page was requested under
func baseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host
}

// safeNext only allows local page paths as redirect targets
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return "/"
	}
	return next
}

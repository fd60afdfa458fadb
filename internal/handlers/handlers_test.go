package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TheIgorMC/mysite/internal/auth"
	"github.com/TheIgorMC/mysite/internal/logger"
	"github.com/TheIgorMC/mysite/internal/metrics"
	"github.com/TheIgorMC/mysite/internal/models"
	"github.com/TheIgorMC/mysite/internal/refdata"
	"github.com/TheIgorMC/mysite/internal/repository"
	"github.com/TheIgorMC/mysite/internal/services"
	"github.com/TheIgorMC/mysite/internal/websocket"
	"github.com/TheIgorMC/mysite/pkg/orion"
)

const testTypesCSV = `competition_type,category,arrow_count,max_score
Indoor 18m,indoor,60,600
FITA 70m,outdoor,72,720
`

const testRankingsCSV = `qualifica,classe_gara,categoria,posti_disponibili,min_score
RegIndoor2026,Senior Maschile,Arco Olimpico,12,500
`

type testEnv struct {
	handlers *Handlers
	repo     *repository.Repository
	mock     *orion.MockClient
	auth     *auth.Auth
	router   http.Handler
}

func newTestEnv(t *testing.T, opts ...orion.MockOption) *testEnv {
	t.Helper()
	dir := t.TempDir()

	typesPath := filepath.Join(dir, "competition_arrows.csv")
	if err := os.WriteFile(typesPath, []byte(testTypesCSV), 0o644); err != nil {
		t.Fatalf("failed to write types csv: %v", err)
	}
	rankingsPath := filepath.Join(dir, "ranking_positions.csv")
	if err := os.WriteFile(rankingsPath, []byte(testRankingsCSV), 0o644); err != nil {
		t.Fatalf("failed to write rankings csv: %v", err)
	}

	repo, err := repository.New(":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	log := logger.NewSilent()
	mock := orion.NewMockClient(opts...)
	types := refdata.NewCompetitionTypes(typesPath, log)
	rankings := refdata.NewRankingPositions(rankingsPath, log)
	sessionAuth := auth.New()
	hub := websocket.New(log)
	hub.Start()

	dispatcher := services.NewDispatcher(repo, mock, log)
	h := New(
		services.NewArcheryService(mock, types, rankings, log),
		services.NewCompetitionService(mock, dispatcher, log),
		mock,
		repo,
		rankings,
		sessionAuth,
		hub,
		metrics.New(),
		log,
	)

	return &testEnv{
		handlers: h,
		repo:     repo,
		mock:     mock,
		auth:     sessionAuth,
		router:   h.Router(),
	}
}

// createUser inserts an account with the given flags and returns its id.
func (e *testEnv) createUser(t *testing.T, username string, isAdmin, isClubMember bool) int {
	t.Helper()
	hash, _ := auth.HashPassword("arco-freccia-spot")
	id, err := e.repo.CreateUser(context.Background(), username, username+"@example.com", hash, "", "")
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	if isAdmin || isClubMember {
		if err := e.repo.UpdateUserFlags(context.Background(), int(id), isAdmin, isClubMember); err != nil {
			t.Fatalf("failed to set flags: %v", err)
		}
	}
	return int(id)
}

// loginAs starts a session directly and returns the cookie.
func (e *testEnv) loginAs(userID int, isAdmin, isClubMember bool) *http.Cookie {
	token := e.auth.StartSession(userID, isAdmin, isClubMember)
	return &http.Cookie{Name: auth.CookieName, Value: token}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/healthz", nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSearchAthletes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/archery/athletes?q=rossi", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var athletes []models.Athlete
	if err := json.Unmarshal(rec.Body.Bytes(), &athletes); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if len(athletes) == 0 {
		t.Error("expected athletes from default mock data")
	}

	// missing query parameter
	rec = env.do(t, http.MethodGet, "/api/archery/athletes", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without q, got %d", rec.Code)
	}
}

func TestAthleteResultsNormalized(t *testing.T) {
	score := 540
	env := newTestEnv(t, orion.WithResults([]orion.Result{
		{Atleta: "93471", NomeGara: "Trofeo", TipoGara: "Indoor 18m", DataGara: "12/01/2025", Punteggio: &score},
	}))

	rec := env.do(t, http.MethodGet, "/api/archery/athlete/93471/results", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var results []models.CompetitionResult
	json.Unmarshal(rec.Body.Bytes(), &results)
	if len(results) != 1 || results[0].Date != "2025-01-12" {
		t.Errorf("date not normalized: %+v", results)
	}
	if results[0].AveragePerArrow == nil {
		t.Error("per-arrow average missing")
	}
}

func TestGatewayErrorMapping(t *testing.T) {
	env := newTestEnv(t, orion.WithError(&orion.UnreachableError{URL: "http://x"}))

	rec := env.do(t, http.MethodGet, "/api/archery/athletes?q=x", nil, nil)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("unreachable upstream should map to 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), ErrCodeUpstreamUnreachable) {
		t.Errorf("error code missing: %s", rec.Body.String())
	}

	env = newTestEnv(t, orion.WithError(&orion.RejectedError{Status: http.StatusConflict, Body: "conflict"}))
	rec = env.do(t, http.MethodGet, "/api/archery/athletes?q=x", nil, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("rejection should keep the upstream status, got %d", rec.Code)
	}
}

func TestRankingsEnrichment(t *testing.T) {
	pos := 5
	env := newTestEnv(t, orion.WithRankings([]orion.Ranking{
		{Qualifica: "RegIndoor2026", ClasseGara: "Seniores Maschile", Categoria: "Olimpico", Posizione: &pos},
	}))

	rec := env.do(t, http.MethodGet, "/api/archery/athlete/93471/rankings", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var rankings []models.AthleteRanking
	json.Unmarshal(rec.Body.Bytes(), &rankings)
	if len(rankings) != 1 || rankings[0].MaxPositions == nil || *rankings[0].MaxPositions != 12 {
		t.Errorf("ranking not enriched: %+v", rankings)
	}
}

func TestRegisterFirstUserIsAdmin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/register", registerRequest{
		Username: "mario", Email: "m@example.com", Password: "arco-freccia-spot",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"is_admin":true`) {
		t.Errorf("first user should be admin: %s", rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/auth/register", registerRequest{
		Username: "luigi", Email: "l@example.com", Password: "arco-freccia-spot",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), `"is_admin":true`) {
		t.Errorf("second user should not be admin: %s", rec.Body.String())
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "mario", false, false)

	rec := env.do(t, http.MethodPost, "/api/auth/login", loginRequest{Username: "mario", Password: "wrong"}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	// unknown user answers the same way
	rec = env.do(t, http.MethodPost, "/api/auth/login", loginRequest{Username: "ghost", Password: "wrong"}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for unknown user, got %d", rec.Code)
	}
}

func TestSubscribeRequiresOwnership(t *testing.T) {
	env := newTestEnv(t)
	userID := env.createUser(t, "mario", false, false)
	cookie := env.loginAs(userID, false, false)

	body := subscribeRequest{
		CodiceGara: "25A001",
		NomeGara:   "Trofeo",
		Turno:      "1",
		Athletes:   []subscribeAthlete{{Tessera: "93471", Nome: "ROSSI Mario"}},
	}

	// not managing the athlete yet
	rec := env.do(t, http.MethodPost, "/api/competitions/subscribe", body, cookie)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without assignment, got %d: %s", rec.Code, rec.Body.String())
	}

	// assign and retry
	if _, err := env.repo.AddAuthorizedAthlete(context.Background(), models.AuthorizedAthlete{
		UserID: userID, Tessera: "93471",
	}); err != nil {
		t.Fatalf("failed to assign athlete: %v", err)
	}
	rec = env.do(t, http.MethodPost, "/api/competitions/subscribe", body, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(env.mock.GetSubscriptions()) != 1 {
		t.Error("subscription not created upstream")
	}
	// the owner gets an email
	if len(env.mock.SentEmails()) != 1 {
		t.Errorf("expected 1 notification, got %d", len(env.mock.SentEmails()))
	}
}

func TestSubscribeUnauthenticated(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/competitions/subscribe", subscribeRequest{}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAdminEndpointsGuarded(t *testing.T) {
	env := newTestEnv(t)
	userID := env.createUser(t, "mario", false, false)

	// no session
	rec := env.do(t, http.MethodGet, "/api/admin/users", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}

	// non-admin session
	rec = env.do(t, http.MethodGet, "/api/admin/users", nil, env.loginAs(userID, false, false))
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}

	// admin session
	adminID := env.createUser(t, "admin", true, true)
	rec = env.do(t, http.MethodGet, "/api/admin/users", nil, env.loginAs(adminID, true, true))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRankingPositionsUpload(t *testing.T) {
	env := newTestEnv(t)
	adminID := env.createUser(t, "admin", true, true)
	cookie := env.loginAs(adminID, true, true)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, _ := writer.CreateFormFile("file", "new_positions.csv")
	part.Write([]byte("qualifica,classe_gara,categoria,posti_disponibili,min_score\nRegIndoor2027,Senior Maschile,Arco Olimpico,16,520\nRegIndoor2027,Junior Femminile,Arco Nudo,8,\n"))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/ranking-positions/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"entries":2`) {
		t.Errorf("entry count missing: %s", rec.Body.String())
	}
	// the new table replaced the old one entirely
	if env.handlers.Rankings.Count() != 2 {
		t.Errorf("table not reloaded: %d entries", env.handlers.Rankings.Count())
	}
	if env.handlers.Rankings.Get("RegIndoor2026", "Senior Maschile", "Arco Olimpico") != nil {
		t.Error("stale entry survived the upload")
	}
}

func TestRankingPositionsUploadRejectsNonCSV(t *testing.T) {
	env := newTestEnv(t)
	adminID := env.createUser(t, "admin", true, true)
	cookie := env.loginAs(adminID, true, true)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, _ := writer.CreateFormFile("file", "positions.xlsx")
	part.Write([]byte("not a csv"))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/ranking-positions/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-csv upload, got %d", rec.Code)
	}
	// live table untouched
	if env.handlers.Rankings.Count() != 1 {
		t.Errorf("table changed after rejected upload: %d", env.handlers.Rankings.Count())
	}
}

func TestInviteQR(t *testing.T) {
	env := newTestEnv(t, orion.WithInvitations([]orion.Invito{
		{Codice: "25A001", NomeGara: "Trofeo", URL: "https://example.com/invito/25A001", Aperto: true},
	}))

	rec := env.do(t, http.MethodGet, "/api/competitions/25A001/invite-qr", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("expected png, got %q", got)
	}
	if rec.Body.Len() == 0 {
		t.Error("empty QR image")
	}
}

func TestInviteQRMissingInvitation(t *testing.T) {
	env := newTestEnv(t, orion.WithInvitations(nil))
	rec := env.do(t, http.MethodGet, "/api/competitions/25A001/invite-qr", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestConsumeMaterialConflictPropagates(t *testing.T) {
	env := newTestEnv(t, orion.WithMaterials([]orion.Material{
		{ID: 5, Materiale: "BCY 8125", Rimasto: 10},
	}))
	userID := env.createUser(t, "mario", false, true)
	cookie := env.loginAs(userID, false, true)

	rec := env.do(t, http.MethodPost, "/api/materials/5/consume", map[string]float64{"quantita": 50}, cookie)
	if rec.Code != http.StatusConflict {
		t.Errorf("insufficient stock should propagate 409, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/materials/5/consume", map[string]float64{"quantita": 4}, cookie)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"rimasto":6`) {
		t.Errorf("stock not decremented: %s", rec.Body.String())
	}
}

func TestElecPassthrough(t *testing.T) {
	env := newTestEnv(t, orion.WithElecItems([]json.RawMessage{
		json.RawMessage(`{"part_number":"R0402-10K","weird_field":[1,2,3]}`),
	}))
	userID := env.createUser(t, "mario", false, true)
	cookie := env.loginAs(userID, false, true)

	rec := env.do(t, http.MethodGet, "/api/electronics/components/search?q=R0402", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "weird_field") {
		t.Errorf("unknown fields must pass through: %s", rec.Body.String())
	}
}

func TestInventoryRequiresClubMembership(t *testing.T) {
	env := newTestEnv(t, orion.WithMaterials([]orion.Material{
		{ID: 5, Materiale: "BCY 8125", Rimasto: 10},
	}))
	memberID := env.createUser(t, "mario", false, false)
	memberCookie := env.loginAs(memberID, false, false)

	// a plain member can neither read nor mutate the inventory
	rec := env.do(t, http.MethodGet, "/api/materials", nil, memberCookie)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-club member GET, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodPost, "/api/materials", orion.Material{Materiale: "D97"}, memberCookie)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-club member POST, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/api/electronics/boards", nil, memberCookie)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for non-club member electronics access, got %d", rec.Code)
	}

	// club membership unlocks the group
	clubID := env.createUser(t, "giulia", false, true)
	clubCookie := env.loginAs(clubID, false, true)
	rec = env.do(t, http.MethodGet, "/api/materials", nil, clubCookie)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for club member, got %d", rec.Code)
	}
}

func TestMaterialsLowStockFloatThreshold(t *testing.T) {
	env := newTestEnv(t, orion.WithMaterials([]orion.Material{
		{ID: 1, Materiale: "BCY 8125", Rimasto: 1},
		{ID: 2, Materiale: "Fast Flight", Rimasto: 5},
	}))
	userID := env.createUser(t, "mario", false, true)
	cookie := env.loginAs(userID, false, true)

	// fractional thresholds must survive parsing
	rec := env.do(t, http.MethodGet, "/api/materials?low_stock_lt=2.5", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var materials []orion.Material
	if err := json.Unmarshal(rec.Body.Bytes(), &materials); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if len(materials) != 1 || materials[0].ID != 1 {
		t.Errorf("threshold 2.5 should match only the near-empty spool: %+v", materials)
	}

	rec = env.do(t, http.MethodGet, "/api/materials?low_stock_lt=abc", nil, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed threshold, got %d", rec.Code)
	}
}

func TestUpdateMyEmail(t *testing.T) {
	env := newTestEnv(t)
	userID := env.createUser(t, "mario", false, false)
	cookie := env.loginAs(userID, false, false)

	rec := env.do(t, http.MethodPatch, "/api/user/me", updateEmailRequest{Email: "nuovo@example.com"}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	user, err := env.repo.GetUserByID(context.Background(), userID)
	if err != nil {
		t.Fatalf("failed to read back user: %v", err)
	}
	if user.Email != "nuovo@example.com" {
		t.Errorf("email not updated: %q", user.Email)
	}

	rec = env.do(t, http.MethodPatch, "/api/user/me", updateEmailRequest{Email: "not-an-email"}, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid email, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/healthz", nil, nil)

	rec := env.do(t, http.MethodGet, "/metrics", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "mysite_http_requests_total") {
		t.Error("request counter missing from scrape")
	}
}

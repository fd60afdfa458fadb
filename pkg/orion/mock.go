package orion

import (
	"context"
	"encoding/json"
	"strconv"
)

// MockClient is an in-memory Orion client for testing.
type MockClient struct {
	athletes      []Athlete
	results       []Result
	rankings      []Ranking
	statistics    json.RawMessage
	eventTypes    []string
	competitions  []Gara
	turns         []Turno
	invitations   []Invito
	subscriptions []Iscrizione
	interests     []Interesse
	materials     []Material
	elecItems     []json.RawMessage

	err         error // returned by every call when set
	emailErr    error // returned by SendEmail only
	nextID      int
	sentEmails  []EmailRequest
	deletedSubs []int
}

// MockOption configures the mock client
type MockOption func(*MockClient)

// WithAthletes sets the athletes returned by SearchAthletes
func WithAthletes(athletes []Athlete) MockOption {
	return func(m *MockClient) { m.athletes = athletes }
}

// WithResults sets the results returned by AthleteResults
func WithResults(results []Result) MockOption {
	return func(m *MockClient) { m.results = results }
}

// WithRankings sets the rankings returned by AthleteRankings
func WithRankings(rankings []Ranking) MockOption {
	return func(m *MockClient) { m.rankings = rankings }
}

// WithStatistics sets the raw blob returned by AthleteStatistics
func WithStatistics(blob json.RawMessage) MockOption {
	return func(m *MockClient) { m.statistics = blob }
}

// WithEventTypes sets the list returned by EventTypes
func WithEventTypes(types []string) MockOption {
	return func(m *MockClient) { m.eventTypes = types }
}

// WithCompetitions sets the competitions returned by Competitions
func WithCompetitions(gare []Gara) MockOption {
	return func(m *MockClient) { m.competitions = gare }
}

// WithTurns sets the shifts returned by Turns
func WithTurns(turns []Turno) MockOption {
	return func(m *MockClient) { m.turns = turns }
}

// WithInvitations sets the invitations returned by Invitations
func WithInvitations(inviti []Invito) MockOption {
	return func(m *MockClient) { m.invitations = inviti }
}

// WithSubscriptions seeds the registration store
func WithSubscriptions(subs []Iscrizione) MockOption {
	return func(m *MockClient) { m.subscriptions = subs }
}

// WithInterests seeds the interest store
func WithInterests(interests []Interesse) MockOption {
	return func(m *MockClient) { m.interests = interests }
}

// WithMaterials seeds the material store
func WithMaterials(materials []Material) MockOption {
	return func(m *MockClient) { m.materials = materials }
}

// WithElecItems sets the raw items returned by every electronics listing
func WithElecItems(items []json.RawMessage) MockOption {
	return func(m *MockClient) { m.elecItems = items }
}

// WithError makes every call fail with err
func WithError(err error) MockOption {
	return func(m *MockClient) { m.err = err }
}

// WithEmailError makes SendEmail fail with err
func WithEmailError(err error) MockOption {
	return func(m *MockClient) { m.emailErr = err }
}

// NewMockClient creates a mock Orion client seeded with sample data
func NewMockClient(opts ...MockOption) *MockClient {
	m := &MockClient{
		athletes:   DefaultMockAthletes(),
		results:    DefaultMockResults(),
		eventTypes: []string{"Indoor 18m", "FITA 70m", "H&F 24"},
		statistics: json.RawMessage(`{"athletes":[]}`),
		nextID:     100,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MockClient) SearchAthletes(ctx context.Context, query string) ([]Athlete, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.athletes, nil
}

func (m *MockClient) AthleteResults(ctx context.Context, tessera string, opts ResultsOptions) ([]Result, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]Result, 0, len(m.results))
	for _, res := range m.results {
		if string(res.Atleta) != tessera {
			continue
		}
		if opts.EventType != "" && res.TipoGara != opts.EventType {
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

func (m *MockClient) AthleteRankings(ctx context.Context, tessera string) ([]Ranking, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rankings, nil
}

func (m *MockClient) AthleteStatistics(ctx context.Context, tessera string) (json.RawMessage, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.statistics, nil
}

func (m *MockClient) EventTypes(ctx context.Context) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.eventTypes, nil
}

func (m *MockClient) Competitions(ctx context.Context, future bool, limit int) ([]Gara, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.competitions, nil
}

func (m *MockClient) Turns(ctx context.Context, codiceGara string) ([]Turno, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []Turno
	for _, t := range m.turns {
		if string(t.CodiceGara) == codiceGara {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MockClient) Invitations(ctx context.Context, opts InvitiOptions) ([]Invito, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.invitations, nil
}

func (m *MockClient) Subscriptions(ctx context.Context, tessera string) ([]Iscrizione, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []Iscrizione
	for _, s := range m.subscriptions {
		if string(s.TesseraAtleta) == tessera {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MockClient) AllSubscriptions(ctx context.Context) ([]Iscrizione, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.subscriptions, nil
}

func (m *MockClient) CreateSubscription(ctx context.Context, sub Iscrizione) (*Iscrizione, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.nextID++
	sub.ID = m.nextID
	if sub.Stato == "" {
		sub.Stato = "confermato"
	}
	m.subscriptions = append(m.subscriptions, sub)
	return &sub, nil
}

func (m *MockClient) UpdateSubscription(ctx context.Context, id int, patch map[string]interface{}) (*Iscrizione, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i, s := range m.subscriptions {
		if s.ID != id {
			continue
		}
		if turno, ok := patch["turno"].(string); ok {
			s.Turno = turno
		}
		if stato, ok := patch["stato"].(string); ok {
			s.Stato = stato
		}
		if note, ok := patch["note"].(string); ok {
			s.Note = note
		}
		m.subscriptions[i] = s
		return &s, nil
	}
	return nil, &RejectedError{Status: 404, Body: "subscription not found"}
}

func (m *MockClient) DeleteSubscription(ctx context.Context, id int) error {
	if m.err != nil {
		return m.err
	}
	for i, s := range m.subscriptions {
		if s.ID == id {
			m.subscriptions = append(m.subscriptions[:i], m.subscriptions[i+1:]...)
			m.deletedSubs = append(m.deletedSubs, id)
			return nil
		}
	}
	return &RejectedError{Status: 404, Body: "subscription not found"}
}

func (m *MockClient) Interests(ctx context.Context, tessera, codiceGara string) ([]Interesse, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []Interesse
	for _, in := range m.interests {
		if tessera != "" && string(in.TesseraAtleta) != tessera {
			continue
		}
		if codiceGara != "" && string(in.CodiceGara) != codiceGara {
			continue
		}
		out = append(out, in)
	}
	return out, nil
}

func (m *MockClient) CreateInterest(ctx context.Context, interest Interesse) (*Interesse, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.nextID++
	interest.ID = m.nextID
	m.interests = append(m.interests, interest)
	return &interest, nil
}

func (m *MockClient) DeleteInterest(ctx context.Context, id int) error {
	if m.err != nil {
		return m.err
	}
	for i, in := range m.interests {
		if in.ID == id {
			m.interests = append(m.interests[:i], m.interests[i+1:]...)
			return nil
		}
	}
	return &RejectedError{Status: 404, Body: "interest not found"}
}

func (m *MockClient) Materials(ctx context.Context, filter MaterialFilter) ([]Material, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []Material
	for _, mat := range m.materials {
		if filter.Tipo != "" && mat.Tipo != filter.Tipo {
			continue
		}
		if filter.LowStockLT != nil && mat.Rimasto >= *filter.LowStockLT {
			continue
		}
		out = append(out, mat)
	}
	return out, nil
}

func (m *MockClient) CreateMaterial(ctx context.Context, mat Material) (*Material, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.nextID++
	mat.ID = m.nextID
	m.materials = append(m.materials, mat)
	return &mat, nil
}

func (m *MockClient) UpdateMaterial(ctx context.Context, id int, patch map[string]interface{}) (*Material, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i, mat := range m.materials {
		if mat.ID != id {
			continue
		}
		if rimasto, ok := patch["rimasto"].(float64); ok {
			mat.Rimasto = rimasto
		}
		m.materials[i] = mat
		return &mat, nil
	}
	return nil, &RejectedError{Status: 404, Body: "material not found"}
}

func (m *MockClient) ConsumeMaterial(ctx context.Context, id int, quantita float64) (*Material, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i, mat := range m.materials {
		if mat.ID != id {
			continue
		}
		if mat.Rimasto < quantita {
			return nil, &RejectedError{Status: 409, Body: "insufficient stock"}
		}
		mat.Rimasto -= quantita
		m.materials[i] = mat
		return &mat, nil
	}
	return nil, &RejectedError{Status: 404, Body: "material not found"}
}

func (m *MockClient) DeleteMaterial(ctx context.Context, id int) error {
	if m.err != nil {
		return m.err
	}
	for i, mat := range m.materials {
		if mat.ID == id {
			m.materials = append(m.materials[:i], m.materials[i+1:]...)
			return nil
		}
	}
	return &RejectedError{Status: 404, Body: "material not found"}
}

func (m *MockClient) ElecComponents(ctx context.Context, filter ElecFilter) ([]json.RawMessage, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.elecItems, nil
}

func (m *MockClient) ElecComponentSearch(ctx context.Context, query string) ([]json.RawMessage, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.elecItems, nil
}

func (m *MockClient) ElecCreateComponent(ctx context.Context, body interface{}) (json.RawMessage, error) {
	return m.elecEcho(body)
}

func (m *MockClient) ElecUpdateComponent(ctx context.Context, id string, patch interface{}) (json.RawMessage, error) {
	return m.elecEcho(patch)
}

func (m *MockClient) ElecDeleteComponent(ctx context.Context, id string) error {
	return m.err
}

func (m *MockClient) ElecBoards(ctx context.Context) ([]json.RawMessage, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.elecItems, nil
}

func (m *MockClient) ElecCreateBoard(ctx context.Context, body interface{}) (json.RawMessage, error) {
	return m.elecEcho(body)
}

func (m *MockClient) ElecUpdateBoard(ctx context.Context, id string, patch interface{}) (json.RawMessage, error) {
	return m.elecEcho(patch)
}

func (m *MockClient) ElecDeleteBoard(ctx context.Context, id string) error {
	return m.err
}

func (m *MockClient) ElecBoardBOM(ctx context.Context, boardID string) ([]json.RawMessage, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.elecItems, nil
}

func (m *MockClient) ElecStockCheck(ctx context.Context, boardID string, quantity int) (json.RawMessage, error) {
	if m.err != nil {
		return nil, m.err
	}
	return json.RawMessage(`{"buildable":true,"quantity":` + strconv.Itoa(quantity) + `}`), nil
}

func (m *MockClient) ElecReserveStock(ctx context.Context, boardID string, quantity int) (json.RawMessage, error) {
	if m.err != nil {
		return nil, m.err
	}
	return json.RawMessage(`{"reserved":true}`), nil
}

func (m *MockClient) ElecJobs(ctx context.Context) ([]json.RawMessage, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.elecItems, nil
}

func (m *MockClient) ElecCreateJob(ctx context.Context, body interface{}) (json.RawMessage, error) {
	return m.elecEcho(body)
}

func (m *MockClient) ElecUpdateJob(ctx context.Context, id string, patch interface{}) (json.RawMessage, error) {
	return m.elecEcho(patch)
}

func (m *MockClient) ElecDeleteJob(ctx context.Context, id string) error {
	return m.err
}

func (m *MockClient) ElecFiles(ctx context.Context, boardID string) ([]json.RawMessage, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.elecItems, nil
}

func (m *MockClient) ElecDeleteFile(ctx context.Context, id string) error {
	return m.err
}

func (m *MockClient) elecEcho(body interface{}) (json.RawMessage, error) {
	if m.err != nil {
		return nil, m.err
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(encoded), nil
}

func (m *MockClient) SendEmail(ctx context.Context, req EmailRequest) error {
	if m.err != nil {
		return m.err
	}
	if m.emailErr != nil {
		return m.emailErr
	}
	m.sentEmails = append(m.sentEmails, req)
	return nil
}

// SentEmails returns the emails recorded so far (for testing)
func (m *MockClient) SentEmails() []EmailRequest {
	return m.sentEmails
}

// GetSubscriptions returns the current registration store (for testing)
func (m *MockClient) GetSubscriptions() []Iscrizione {
	return m.subscriptions
}

// DeletedSubscriptions returns the IDs removed so far (for testing)
func (m *MockClient) DeletedSubscriptions() []int {
	return m.deletedSubs
}

// DefaultMockAthletes returns a set of sample athletes for testing
func DefaultMockAthletes() []Athlete {
	return []Athlete{
		{Tessera: "93471", Nome: "ROSSI Mario", Classe: "SM", SocietaCodice: "06/014"},
		{Tessera: "93472", Nome: "BIANCHI Giulia", Classe: "SF", SocietaCodice: "06/014"},
		{Tessera: "88120", Nome: "VERDI Luca", Classe: "JM", SocietaCodice: "06/020"},
	}
}

// DefaultMockResults returns sample competition results for testing
func DefaultMockResults() []Result {
	pos := func(n int) *int { return &n }
	return []Result{
		{
			Atleta:    "93471",
			NomeGara:  "Trofeo Invernale",
			TipoGara:  "Indoor 18m",
			DataGara:  "2025-01-12",
			Posizione: pos(1),
			Punteggio: pos(565),
		},
		{
			Atleta:    "93471",
			NomeGara:  "Gara Regionale FITA",
			TipoGara:  "FITA 70m",
			DataGara:  "2025-05-04",
			Posizione: pos(4),
			Punteggio: pos(612),
		},
		{
			Atleta:    "93471",
			NomeGara:  "Campionato Societario",
			TipoGara:  "Indoor 18m",
			DataGara:  "2024-12-01",
			Posizione: pos(2),
			Punteggio: pos(548),
		},
	}
}

// Ensure MockClient implements Client
var _ Client = (*MockClient)(nil)

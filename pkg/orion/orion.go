// Package orion provides a typed client for the external Orion REST API,
// which holds the authoritative archery competition and electronics
// inventory data.
//
// The upstream API has changed response shapes over its lifetime: list
// endpoints may return a bare array or a {"results": [...]} container.
// This client always unwraps to a plain slice so the ambiguity never
// leaks to callers.
package orion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/TheIgorMC/mysite/internal/logger"
)

const maxErrorBody = 512

// Client defines the gateway operations against the Orion API.
type Client interface {
	// Archery registry
	SearchAthletes(ctx context.Context, query string) ([]Athlete, error)
	AthleteResults(ctx context.Context, tessera string, opts ResultsOptions) ([]Result, error)
	AthleteRankings(ctx context.Context, tessera string) ([]Ranking, error)
	AthleteStatistics(ctx context.Context, tessera string) (json.RawMessage, error)
	EventTypes(ctx context.Context) ([]string, error)

	// Competitions
	Competitions(ctx context.Context, future bool, limit int) ([]Gara, error)
	Turns(ctx context.Context, codiceGara string) ([]Turno, error)
	Invitations(ctx context.Context, opts InvitiOptions) ([]Invito, error)

	// Subscriptions
	Subscriptions(ctx context.Context, tessera string) ([]Iscrizione, error)
	AllSubscriptions(ctx context.Context) ([]Iscrizione, error)
	CreateSubscription(ctx context.Context, sub Iscrizione) (*Iscrizione, error)
	UpdateSubscription(ctx context.Context, id int, patch map[string]interface{}) (*Iscrizione, error)
	DeleteSubscription(ctx context.Context, id int) error

	// Interest expressions
	Interests(ctx context.Context, tessera, codiceGara string) ([]Interesse, error)
	CreateInterest(ctx context.Context, interest Interesse) (*Interesse, error)
	DeleteInterest(ctx context.Context, id int) error

	// Stringmaking materials
	Materials(ctx context.Context, filter MaterialFilter) ([]Material, error)
	CreateMaterial(ctx context.Context, m Material) (*Material, error)
	UpdateMaterial(ctx context.Context, id int, patch map[string]interface{}) (*Material, error)
	ConsumeMaterial(ctx context.Context, id int, quantita float64) (*Material, error)
	DeleteMaterial(ctx context.Context, id int) error

	// Electronics inventory (schema owned upstream, proxied verbatim)
	ElecComponents(ctx context.Context, filter ElecFilter) ([]json.RawMessage, error)
	ElecComponentSearch(ctx context.Context, query string) ([]json.RawMessage, error)
	ElecCreateComponent(ctx context.Context, body interface{}) (json.RawMessage, error)
	ElecUpdateComponent(ctx context.Context, id string, patch interface{}) (json.RawMessage, error)
	ElecDeleteComponent(ctx context.Context, id string) error
	ElecBoards(ctx context.Context) ([]json.RawMessage, error)
	ElecCreateBoard(ctx context.Context, body interface{}) (json.RawMessage, error)
	ElecUpdateBoard(ctx context.Context, id string, patch interface{}) (json.RawMessage, error)
	ElecDeleteBoard(ctx context.Context, id string) error
	ElecBoardBOM(ctx context.Context, boardID string) ([]json.RawMessage, error)
	ElecStockCheck(ctx context.Context, boardID string, quantity int) (json.RawMessage, error)
	ElecReserveStock(ctx context.Context, boardID string, quantity int) (json.RawMessage, error)
	ElecJobs(ctx context.Context) ([]json.RawMessage, error)
	ElecCreateJob(ctx context.Context, body interface{}) (json.RawMessage, error)
	ElecUpdateJob(ctx context.Context, id string, patch interface{}) (json.RawMessage, error)
	ElecDeleteJob(ctx context.Context, id string) error
	ElecFiles(ctx context.Context, boardID string) ([]json.RawMessage, error)
	ElecDeleteFile(ctx context.Context, id string) error

	// Notifications
	SendEmail(ctx context.Context, req EmailRequest) error
}

// Observer receives the outcome and latency of every upstream call.
// Outcomes are "ok", "rejected" and "unreachable".
type Observer interface {
	ObserveUpstream(outcome string, duration time.Duration)
}

// HTTPClient is the real Orion gateway. It holds no mutable state beyond
// its configuration.
type HTTPClient struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	log          logger.Logger
	observer     Observer
}

// NewHTTPClient creates a gateway against the given base URL. The two
// credentials are forwarded as Cloudflare Access headers on every call.
func NewHTTPClient(baseURL, clientID, clientSecret string, timeout time.Duration, log logger.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: timeout},
		log:          log,
	}
}

// NewHTTPClientWithHTTPClient creates a gateway with a caller-supplied
// http.Client, used by tests.
func NewHTTPClientWithHTTPClient(baseURL string, httpClient *http.Client, log logger.Logger) *HTTPClient {
	return &HTTPClient{baseURL: baseURL, httpClient: httpClient, log: log}
}

// SetObserver attaches a call observer, typically the metrics registry.
func (c *HTTPClient) SetObserver(o Observer) {
	c.observer = o
}

func (c *HTTPClient) observe(outcome string, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveUpstream(outcome, time.Since(start))
	}
}

// do performs one request and returns the raw body. Transport failures
// become UnreachableError, non-2xx statuses RejectedError.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, payload interface{}) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.clientID != "" {
		req.Header.Set("CF-Access-Client-Id", c.clientID)
		req.Header.Set("CF-Access-Client-Secret", c.clientSecret)
	}

	c.log.Debug("orion request", "method", method, "url", reqURL)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe("unreachable", start)
		return nil, &UnreachableError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe("unreachable", start)
		return nil, &UnreachableError{URL: reqURL, Err: err}
	}

	c.log.Debug("orion response", "status", resp.StatusCode, "bytes", len(body))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.observe("rejected", start)
		return nil, &RejectedError{Status: resp.StatusCode, Body: truncate(body, maxErrorBody)}
	}

	c.observe("ok", start)
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

// decodeList accepts both a bare JSON array and a {"results": [...]}
// container and always returns the plain slice.
func decodeList[T any](body []byte) ([]T, error) {
	var list []T
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, &BadResponseError{Err: err}
	}
	return wrapped.Results, nil
}

func decodeObject[T any](body []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, &BadResponseError{Err: err}
	}
	return &v, nil
}

func getList[T any](ctx context.Context, c *HTTPClient, path string, query url.Values) ([]T, error) {
	body, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[T](body)
}

func sendObject[T any](ctx context.Context, c *HTTPClient, method, path string, payload interface{}) (*T, error) {
	body, err := c.do(ctx, method, path, nil, payload)
	if err != nil {
		return nil, err
	}
	return decodeObject[T](body)
}

// SearchAthletes searches the registry by name or tessera.
func (c *HTTPClient) SearchAthletes(ctx context.Context, query string) ([]Athlete, error) {
	q := url.Values{}
	q.Set("q", query)
	return getList[Athlete](ctx, c, "/api/atleti", q)
}

// AthleteResults fetches competition results for one athlete.
func (c *HTTPClient) AthleteResults(ctx context.Context, tessera string, opts ResultsOptions) ([]Result, error) {
	q := url.Values{}
	limit := opts.Limit
	if limit <= 0 {
		limit = 500
	}
	q.Set("limit", strconv.Itoa(limit))
	if opts.EventType != "" {
		q.Set("event_type", opts.EventType)
	}
	return getList[Result](ctx, c, "/api/athlete/"+url.PathEscape(tessera)+"/results", q)
}

// AthleteRankings fetches the official ranking cache for one athlete.
func (c *HTTPClient) AthleteRankings(ctx context.Context, tessera string) ([]Ranking, error) {
	return getList[Ranking](ctx, c, "/api/athlete/"+url.PathEscape(tessera)+"/rankings", nil)
}

// AthleteStatistics returns the upstream chart-format statistics blob,
// passed through verbatim.
func (c *HTTPClient) AthleteStatistics(ctx context.Context, tessera string) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("athletes", tessera)
	body, err := c.do(ctx, http.MethodGet, "/api/stats", q, nil)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, &BadResponseError{Err: fmt.Errorf("stats endpoint returned invalid JSON")}
	}
	return json.RawMessage(body), nil
}

// EventTypes lists the known competition type names.
func (c *HTTPClient) EventTypes(ctx context.Context) ([]string, error) {
	return getList[string](ctx, c, "/api/event_types", nil)
}

// Competitions lists competitions (gare), optionally only future ones.
func (c *HTTPClient) Competitions(ctx context.Context, future bool, limit int) ([]Gara, error) {
	q := url.Values{}
	if limit <= 0 {
		limit = 100
	}
	q.Set("limit", strconv.Itoa(limit))
	if future {
		q.Set("future", "true")
	}
	return getList[Gara](ctx, c, "/api/gare", q)
}

// Turns lists the shooting shifts of one competition.
func (c *HTTPClient) Turns(ctx context.Context, codiceGara string) ([]Turno, error) {
	q := url.Values{}
	q.Set("codice_gara", codiceGara)
	return getList[Turno](ctx, c, "/api/turni", q)
}

// Invitations lists published invitations.
func (c *HTTPClient) Invitations(ctx context.Context, opts InvitiOptions) ([]Invito, error) {
	q := url.Values{}
	if opts.Codice != "" {
		q.Set("codice", opts.Codice)
	}
	if opts.OnlyOpen {
		q.Set("only_open", "true")
	}
	if opts.OnlyYouth {
		q.Set("only_youth", "true")
	}
	return getList[Invito](ctx, c, "/api/inviti", q)
}

// Subscriptions lists an athlete's registrations.
func (c *HTTPClient) Subscriptions(ctx context.Context, tessera string) ([]Iscrizione, error) {
	q := url.Values{}
	q.Set("tessera_atleta", tessera)
	return getList[Iscrizione](ctx, c, "/api/iscrizioni", q)
}

// AllSubscriptions exports every registration.
func (c *HTTPClient) AllSubscriptions(ctx context.Context) ([]Iscrizione, error) {
	q := url.Values{}
	q.Set("export", "full")
	return getList[Iscrizione](ctx, c, "/api/iscrizioni", q)
}

// CreateSubscription registers an athlete for a competition turn.
func (c *HTTPClient) CreateSubscription(ctx context.Context, sub Iscrizione) (*Iscrizione, error) {
	if sub.Stato == "" {
		sub.Stato = "confermato"
	}
	return sendObject[Iscrizione](ctx, c, http.MethodPost, "/api/iscrizioni", sub)
}

// UpdateSubscription patches a registration.
func (c *HTTPClient) UpdateSubscription(ctx context.Context, id int, patch map[string]interface{}) (*Iscrizione, error) {
	return sendObject[Iscrizione](ctx, c, http.MethodPatch, "/api/iscrizioni/"+strconv.Itoa(id), patch)
}

// DeleteSubscription removes a registration.
func (c *HTTPClient) DeleteSubscription(ctx context.Context, id int) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/iscrizioni/"+strconv.Itoa(id), nil, nil)
	return err
}

// Interests lists interest expressions, filtered by athlete and/or
// competition.
func (c *HTTPClient) Interests(ctx context.Context, tessera, codiceGara string) ([]Interesse, error) {
	q := url.Values{}
	if tessera != "" {
		q.Set("tessera_atleta", tessera)
	}
	if codiceGara != "" {
		q.Set("codice_gara", codiceGara)
	}
	return getList[Interesse](ctx, c, "/api/interesse", q)
}

// CreateInterest records a non-binding interest in a competition.
func (c *HTTPClient) CreateInterest(ctx context.Context, interest Interesse) (*Interesse, error) {
	if interest.DataInteresse == "" {
		interest.DataInteresse = time.Now().Format("2006-01-02")
	}
	if interest.Stato == "" {
		interest.Stato = "attivo"
	}
	return sendObject[Interesse](ctx, c, http.MethodPost, "/api/interesse", interest)
}

// DeleteInterest removes an interest expression.
func (c *HTTPClient) DeleteInterest(ctx context.Context, id int) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/interesse/"+strconv.Itoa(id), nil, nil)
	return err
}

// Materials lists stringmaking stock.
func (c *HTTPClient) Materials(ctx context.Context, filter MaterialFilter) ([]Material, error) {
	q := url.Values{}
	if filter.Query != "" {
		q.Set("q", filter.Query)
	}
	if filter.Tipo != "" {
		q.Set("tipo", filter.Tipo)
	}
	if filter.LowStockLT != nil {
		q.Set("low_stock_lt", strconv.FormatFloat(*filter.LowStockLT, 'f', -1, 64))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(filter.Offset))
	return getList[Material](ctx, c, "/api/materiali", q)
}

// CreateMaterial adds a stock entry.
func (c *HTTPClient) CreateMaterial(ctx context.Context, m Material) (*Material, error) {
	return sendObject[Material](ctx, c, http.MethodPost, "/api/materiali", m)
}

// UpdateMaterial patches a stock entry.
func (c *HTTPClient) UpdateMaterial(ctx context.Context, id int, patch map[string]interface{}) (*Material, error) {
	return sendObject[Material](ctx, c, http.MethodPatch, "/api/materiali/"+strconv.Itoa(id), patch)
}

// ConsumeMaterial atomically decrements stock. Insufficient stock comes
// back as a RejectedError with status 409.
func (c *HTTPClient) ConsumeMaterial(ctx context.Context, id int, quantita float64) (*Material, error) {
	payload := map[string]float64{"quantita": quantita}
	return sendObject[Material](ctx, c, http.MethodPost, "/api/materiali/"+strconv.Itoa(id)+"/consume", payload)
}

// DeleteMaterial removes a stock entry.
func (c *HTTPClient) DeleteMaterial(ctx context.Context, id int) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/materiali/"+strconv.Itoa(id), nil, nil)
	return err
}

func (c *HTTPClient) elecFilterQuery(filter ElecFilter) url.Values {
	q := url.Values{}
	if filter.Query != "" {
		q.Set("q", filter.Query)
	}
	if filter.ProductType != "" {
		q.Set("product_type", filter.ProductType)
	}
	if filter.Package != "" {
		q.Set("package", filter.Package)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(filter.Offset))
	return q
}

// ElecComponents lists electronics components.
func (c *HTTPClient) ElecComponents(ctx context.Context, filter ElecFilter) ([]json.RawMessage, error) {
	return getList[json.RawMessage](ctx, c, "/api/elec/components", c.elecFilterQuery(filter))
}

// ElecComponentSearch performs the smart component search, e.g. R0402
// matching every 0402 resistor.
func (c *HTTPClient) ElecComponentSearch(ctx context.Context, query string) ([]json.RawMessage, error) {
	q := url.Values{}
	q.Set("q", query)
	return getList[json.RawMessage](ctx, c, "/api/elec/components/search", q)
}

func (c *HTTPClient) ElecCreateComponent(ctx context.Context, body interface{}) (json.RawMessage, error) {
	return c.elecSend(ctx, http.MethodPost, "/api/elec/components", body)
}

func (c *HTTPClient) ElecUpdateComponent(ctx context.Context, id string, patch interface{}) (json.RawMessage, error) {
	return c.elecSend(ctx, http.MethodPatch, "/api/elec/components/"+url.PathEscape(id), patch)
}

func (c *HTTPClient) ElecDeleteComponent(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/elec/components/"+url.PathEscape(id), nil, nil)
	return err
}

func (c *HTTPClient) ElecBoards(ctx context.Context) ([]json.RawMessage, error) {
	return getList[json.RawMessage](ctx, c, "/api/elec/boards", nil)
}

func (c *HTTPClient) ElecCreateBoard(ctx context.Context, body interface{}) (json.RawMessage, error) {
	return c.elecSend(ctx, http.MethodPost, "/api/elec/boards", body)
}

func (c *HTTPClient) ElecUpdateBoard(ctx context.Context, id string, patch interface{}) (json.RawMessage, error) {
	return c.elecSend(ctx, http.MethodPatch, "/api/elec/boards/"+url.PathEscape(id), patch)
}

func (c *HTTPClient) ElecDeleteBoard(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/elec/boards/"+url.PathEscape(id), nil, nil)
	return err
}

// ElecBoardBOM lists the bill of materials of a board.
func (c *HTTPClient) ElecBoardBOM(ctx context.Context, boardID string) ([]json.RawMessage, error) {
	return getList[json.RawMessage](ctx, c, "/api/elec/boards/"+url.PathEscape(boardID)+"/bom", nil)
}

// ElecStockCheck verifies component availability for building a number
// of boards.
func (c *HTTPClient) ElecStockCheck(ctx context.Context, boardID string, quantity int) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("quantity", strconv.Itoa(quantity))
	body, err := c.do(ctx, http.MethodGet, "/api/elec/boards/"+url.PathEscape(boardID)+"/stock-check", q, nil)
	if err != nil {
		return nil, err
	}
	return rawJSON(body)
}

// ElecReserveStock reserves the components needed to build a number of
// boards.
func (c *HTTPClient) ElecReserveStock(ctx context.Context, boardID string, quantity int) (json.RawMessage, error) {
	payload := map[string]int{"quantity": quantity}
	return c.elecSend(ctx, http.MethodPost, "/api/elec/boards/"+url.PathEscape(boardID)+"/reserve", payload)
}

func (c *HTTPClient) ElecJobs(ctx context.Context) ([]json.RawMessage, error) {
	return getList[json.RawMessage](ctx, c, "/api/elec/jobs", nil)
}

func (c *HTTPClient) ElecCreateJob(ctx context.Context, body interface{}) (json.RawMessage, error) {
	return c.elecSend(ctx, http.MethodPost, "/api/elec/jobs", body)
}

func (c *HTTPClient) ElecUpdateJob(ctx context.Context, id string, patch interface{}) (json.RawMessage, error) {
	return c.elecSend(ctx, http.MethodPatch, "/api/elec/jobs/"+url.PathEscape(id), patch)
}

func (c *HTTPClient) ElecDeleteJob(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/elec/jobs/"+url.PathEscape(id), nil, nil)
	return err
}

// ElecFiles lists the files attached to a board.
func (c *HTTPClient) ElecFiles(ctx context.Context, boardID string) ([]json.RawMessage, error) {
	q := url.Values{}
	q.Set("board_id", boardID)
	return getList[json.RawMessage](ctx, c, "/api/elec/files", q)
}

func (c *HTTPClient) ElecDeleteFile(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/elec/files/"+url.PathEscape(id), nil, nil)
	return err
}

func (c *HTTPClient) elecSend(ctx context.Context, method, path string, payload interface{}) (json.RawMessage, error) {
	body, err := c.do(ctx, method, path, nil, payload)
	if err != nil {
		return nil, err
	}
	return rawJSON(body)
}

func rawJSON(body []byte) (json.RawMessage, error) {
	if len(body) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(body) {
		return nil, &BadResponseError{Err: fmt.Errorf("response is not valid JSON")}
	}
	return json.RawMessage(body), nil
}

// SendEmail queues a transactional email through the upstream mailer.
func (c *HTTPClient) SendEmail(ctx context.Context, req EmailRequest) error {
	if req.Locale == "" {
		req.Locale = "it"
	}
	_, err := c.do(ctx, http.MethodPost, "/api/email/send", nil, req)
	return err
}

// Ensure HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)

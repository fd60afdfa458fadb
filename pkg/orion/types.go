package orion

import (
	"encoding/json"
	"fmt"
)

// FlexString unmarshals from either a JSON string or a number. The Orion
// API has returned tessera and society codes as both over its lifetime.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}

	return fmt.Errorf("FlexString: cannot unmarshal %s", string(data))
}

func (f FlexString) String() string {
	return string(f)
}

// Athlete is a registry search hit.
type Athlete struct {
	Tessera       FlexString `json:"tessera"`
	Nome          string     `json:"nome"`
	Classe        string     `json:"classe"`
	SocietaCodice FlexString `json:"societa_codice"`
}

// Result is one raw competition result row for an athlete.
type Result struct {
	Atleta                      FlexString `json:"atleta"`
	NomeGara                    string     `json:"nome_gara"`
	TipoGara                    string     `json:"tipo_gara"`
	DataGara                    string     `json:"data_gara"`
	Posizione                   *int       `json:"posizione"`
	Punteggio                   *int       `json:"punteggio"`
	CodiceSocietaAtleta         FlexString `json:"codice_societa_atleta"`
	NomeSocietaAtleta           string     `json:"nome_societa_atleta"`
	CodiceSocietaOrganizzatrice FlexString `json:"codice_societa_organizzatrice"`
	NomeSocietaOrganizzatrice   string     `json:"nome_societa_organizzatrice"`
}

// Ranking is one row of the official ranking cache for an athlete.
type Ranking struct {
	Qualifica  string `json:"qualifica"`
	ClasseGara string `json:"classe_gara"`
	Categoria  string `json:"categoria"`
	Posizione  *int   `json:"posizione"`
	Punteggio  *int   `json:"punteggio"`
	UpdatedAt  string `json:"updated_at"`
}

// Gara is a competition.
type Gara struct {
	Codice            FlexString `json:"codice"`
	Nome              string     `json:"nome"`
	Luogo             string     `json:"luogo"`
	DataInizio        string     `json:"data_inizio"`
	DataFine          string     `json:"data_fine"`
	Tipo              string     `json:"tipo"`
	InvitoPubblicato  bool       `json:"invito_pubblicato"`
	IscrizioniAperte  bool       `json:"iscrizioni_aperte"`
}

// Turno is a scheduled shooting shift within a competition.
type Turno struct {
	CodiceGara FlexString `json:"codice_gara"`
	Turno      string     `json:"turno"`
	Giorno     string     `json:"giorno"`
	OraInizio  string     `json:"ora_inizio"`
	Note       string     `json:"note"`
}

// Invito is a published competition invitation.
type Invito struct {
	Codice       FlexString `json:"codice"`
	NomeGara     string     `json:"nome_gara"`
	DataScadenza string     `json:"data_scadenza"`
	Giovanile    bool       `json:"giovanile"`
	Aperto       bool       `json:"aperto"`
	URL          string     `json:"url"`
}

// Iscrizione is a confirmed competition registration.
type Iscrizione struct {
	ID             int        `json:"id,omitempty"`
	CodiceGara     FlexString `json:"codice_gara"`
	TesseraAtleta  FlexString `json:"tessera_atleta"`
	Categoria      string     `json:"categoria"`
	Classe         string     `json:"classe"`
	Turno          string     `json:"turno"`
	Stato          string     `json:"stato"`
	Note           string     `json:"note"`
	DataIscrizione string     `json:"data_iscrizione,omitempty"`
}

// Interesse is a non-binding expression of interest in a competition.
type Interesse struct {
	ID            int        `json:"id,omitempty"`
	CodiceGara    FlexString `json:"codice_gara"`
	TesseraAtleta FlexString `json:"tessera_atleta"`
	Categoria     string     `json:"categoria"`
	Classe        string     `json:"classe"`
	DataInteresse string     `json:"data_interesse,omitempty"`
	Stato         string     `json:"stato,omitempty"`
	Note          string     `json:"note"`
}

// Material is one stringmaking stock entry.
type Material struct {
	ID        int     `json:"id,omitempty"`
	Materiale string  `json:"materiale"`
	Colore    string  `json:"colore"`
	Spessore  string  `json:"spessore"`
	Rimasto   float64 `json:"rimasto"`
	Costo     float64 `json:"costo"`
	Tipo      string  `json:"tipo"`
}

// MaterialFilter narrows material listings.
type MaterialFilter struct {
	Query      string
	Tipo       string
	LowStockLT *float64
	Limit      int
	Offset     int
}

// ResultsOptions narrows athlete result listings.
type ResultsOptions struct {
	EventType string
	Limit     int
}

// InvitiOptions narrows invitation listings.
type InvitiOptions struct {
	Codice    string
	OnlyOpen  bool
	OnlyYouth bool
}

// ElecFilter narrows electronics component listings.
type ElecFilter struct {
	Query       string
	ProductType string
	Package     string
	Limit       int
	Offset      int
}

// EmailRequest is a transactional email handed to the upstream mailer.
type EmailRequest struct {
	RecipientEmail string            `json:"recipient_email"`
	MailType       string            `json:"mail_type"`
	Locale         string            `json:"locale"`
	Subject        string            `json:"subject"`
	BodyText       string            `json:"body_text"`
	Details        map[string]string `json:"details_json,omitempty"`
}

// Package models defines the domain types shared across services and handlers.
package models

// Athlete is a search hit from the external athlete registry.
type Athlete struct {
	Tessera string `json:"id"`
	Name    string `json:"name"`
	Classe  string `json:"classe,omitempty"`
	Society string `json:"societa,omitempty"`
}

// CompetitionResult is one competition outcome for an athlete, already
// transformed from the upstream Italian field names and with the date
// normalized to YYYY-MM-DD where possible.
type CompetitionResult struct {
	Tessera         string   `json:"athlete,omitempty"`
	CompetitionName string   `json:"competition_name"`
	CompetitionType string   `json:"competition_type"`
	Date            string   `json:"date"`
	Position        *int     `json:"position"`
	Score           *int     `json:"score"`
	ClubCode        string   `json:"club_code,omitempty"`
	ClubName        string   `json:"club_name,omitempty"`
	OrganizerCode   string   `json:"organizer_code,omitempty"`
	OrganizerName   string   `json:"organizer_name,omitempty"`
	AveragePerArrow *float64 `json:"average_per_arrow,omitempty"`
	ArrowCount      *int     `json:"arrow_count,omitempty"`
}

// Medals is the medal distribution over a set of results.
// Total counts all results, not just podium finishes.
type Medals struct {
	Gold   int `json:"gold"`
	Silver int `json:"silver"`
	Bronze int `json:"bronze"`
	Total  int `json:"total"`
}

// BestScore is the top score recorded within one category.
type BestScore struct {
	Score       int    `json:"score"`
	Competition string `json:"competition"`
	Date        string `json:"date"`
	Type        string `json:"type"`
}

// RecentForm summarizes the most recent competitions of an athlete.
// AvgPosition and AvgPercentile are nil when no analyzed entry carries
// a position.
type RecentForm struct {
	AvgPosition          *float64 `json:"avg_position"`
	AvgPercentile        *float64 `json:"avg_percentile"`
	TopFinishes          int      `json:"top_finishes"`
	CompetitionsAnalyzed int      `json:"competitions_analyzed"`
}

// CategoryBreakdown is the per-category count/best pair reported for
// every known category, including those the athlete never shot.
type CategoryBreakdown struct {
	Count     int `json:"count"`
	BestScore int `json:"best_score"`
}

// StatisticsSummary is the full derived statistics block, computed fresh
// per request and never cached.
type StatisticsSummary struct {
	TotalCompetitions int                          `json:"total_competitions"`
	Medals            Medals                       `json:"medals"`
	BestScores        map[string]BestScore         `json:"best_scores"`
	RecentForm        RecentForm                   `json:"percentile_stats"`
	Categories        map[string]CategoryBreakdown `json:"categories"`
}

// AthleteRanking is one entry of an athlete's ranking-campaign standing,
// enriched with the locally configured slot/minimum-score limits when a
// matching ranking-positions row exists.
type AthleteRanking struct {
	Qualifica    string `json:"qualifica"`
	ClasseGara   string `json:"classe_gara"`
	Categoria    string `json:"categoria"`
	Posizione    *int   `json:"posizione,omitempty"`
	Punteggio    *int   `json:"punteggio,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
	MaxPositions *int   `json:"max_positions,omitempty"`
	MinScore     *int   `json:"min_score,omitempty"`
}

// User is a site account. Email is where notifications land.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	IsAdmin      bool   `json:"is_admin"`
	IsClubMember bool   `json:"is_club_member"`
}

// AuthorizedAthlete links a user to an athlete they manage.
// One user may manage several athletes and one athlete may be managed
// by several users.
type AuthorizedAthlete struct {
	ID        int    `json:"id"`
	UserID    int    `json:"user_id"`
	Tessera   string `json:"tessera"`
	Nome      string `json:"nome"`
	Cognome   string `json:"cognome"`
	Categoria string `json:"categoria,omitempty"`
	Classe    string `json:"classe,omitempty"`
	AddedAt   string `json:"added_at,omitempty"`
}

// WSMessage is an event pushed to connected admin dashboards.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

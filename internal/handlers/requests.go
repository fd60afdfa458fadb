package handlers

// registerRequest is the account signup payload.
type registerRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// loginRequest is the login payload.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// subscribeRequest registers one or more athletes for a competition turn.
type subscribeRequest struct {
	CodiceGara string             `json:"codice_gara"`
	NomeGara   string             `json:"nome_gara"`
	Turno      string             `json:"turno"`
	Note       string             `json:"note"`
	Athletes   []subscribeAthlete `json:"athletes"`
}

type subscribeAthlete struct {
	Tessera   string `json:"tessera"`
	Nome      string `json:"nome"`
	Categoria string `json:"categoria"`
	Classe    string `json:"classe"`
}

// cancelRequest identifies the registration being cancelled, carrying
// the competition details used in the notification.
type cancelRequest struct {
	Tessera    string `json:"tessera"`
	NomeGara   string `json:"nome_gara"`
	CodiceGara string `json:"codice_gara"`
}

// interestRequest records a non-binding interest in a competition.
type interestRequest struct {
	CodiceGara string `json:"codice_gara"`
	NomeGara   string `json:"nome_gara"`
	Tessera    string `json:"tessera"`
	Categoria  string `json:"categoria"`
	Classe     string `json:"classe"`
	Note       string `json:"note"`
}

// updateEmailRequest changes the notification address of the session
// account.
type updateEmailRequest struct {
	Email string `json:"email"`
}

// updateUserRequest changes the role flags of an account.
type updateUserRequest struct {
	IsAdmin      bool `json:"is_admin"`
	IsClubMember bool `json:"is_club_member"`
}

// assignAthleteRequest links an athlete to a user account.
type assignAthleteRequest struct {
	UserID    int    `json:"user_id"`
	Tessera   string `json:"tessera"`
	Nome      string `json:"nome"`
	Cognome   string `json:"cognome"`
	Categoria string `json:"categoria"`
	Classe    string `json:"classe"`
}

// athletePrefsRequest changes the stored division/class defaults of an
// assignment.
type athletePrefsRequest struct {
	Categoria string `json:"categoria"`
	Classe    string `json:"classe"`
}

// settingRequest is the admin key/value settings payload.
type settingRequest struct {
	Value string `json:"value"`
}

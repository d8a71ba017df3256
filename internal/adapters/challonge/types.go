package challonge

// --- Tournaments ---
type tournamentDTO struct {
	Tournament struct {
		ID   int64  `json:"id"`
		URL  string `json:"url"`
		Name string `json:"name"`
	} `json:"tournament"`
}

// --- Participants ---
type participantDTO struct {
	Participant struct {
		ID        int64  `json:"id"`
		Name      string `json:"name"`
		Misc      string `json:"misc"`
		CheckedIn bool   `json:"checked_in"`
	} `json:"participant"`
}

// Package gameapi implements the rate-limited client for the upstream
// ranked-game REST API and the wire types it returns.
package gameapi

// LeagueEntry is one ladder row as returned by the league endpoints.
// High-tier list responses omit Tier on each entry; the seed collector
// stamps it back on.
type LeagueEntry struct {
	PlayerID     string `json:"playerId"`
	Tier         string `json:"tier"`
	Division     string `json:"division"`
	QueueType    string `json:"queueType"`
	LeaguePoints int    `json:"leaguePoints"`
	Wins         int    `json:"wins"`
	Losses       int    `json:"losses"`
	Veteran      bool   `json:"veteran"`
	Inactive     bool   `json:"inactive"`
	FreshBlood   bool   `json:"freshBlood"`
	HotStreak    bool   `json:"hotStreak"`
}

// LeagueList is the unpaginated response for a high-tier ladder band.
type LeagueList struct {
	Tier    string        `json:"tier"`
	Entries []LeagueEntry `json:"entries"`
}

// Account carries the display identity resolved for a player id.
type Account struct {
	PlayerID      string `json:"playerId"`
	GameName      string `json:"gameName"`
	Discriminator string `json:"tagLine"`
}

// Match is the typed view of a match payload. Only the fields the pipeline
// needs are modeled; the full raw document is persisted verbatim alongside.
type Match struct {
	Metadata MatchMetadata `json:"metadata"`
}

// MatchMetadata identifies a match and its participants.
type MatchMetadata struct {
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants"`
}

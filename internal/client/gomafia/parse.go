package gomafia

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"mafiainsight/internal/syncerr"
)

// gomafia.pro is a Next.js app; every page embeds its server data as JSON in
// a script tag. Parsing that blob is far more stable than scraping the
// rendered markup.

type nextData struct {
	Props struct {
		PageProps struct {
			ServerData json.RawMessage `json:"serverData"`
		} `json:"pageProps"`
	} `json:"props"`
}

func extractServerData(body []byte) (json.RawMessage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, syncerr.Permanent(fmt.Errorf("invalid html: %w", err))
	}
	script := doc.Find("script#__NEXT_DATA__").First()
	if script.Length() == 0 {
		return nil, syncerr.Permanent(fmt.Errorf("__NEXT_DATA__ payload not found"))
	}
	var nd nextData
	if err := json.Unmarshal([]byte(script.Text()), &nd); err != nil {
		return nil, syncerr.Permanent(fmt.Errorf("invalid __NEXT_DATA__: %w", err))
	}
	if len(nd.Props.PageProps.ServerData) == 0 {
		return nil, syncerr.Permanent(fmt.Errorf("serverData missing from page payload"))
	}
	return nd.Props.PageProps.ServerData, nil
}

func parsePlayerList(body []byte) ([]PlayerSummary, error) {
	data, err := extractServerData(body)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Users []PlayerSummary `json:"users"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, syncerr.Permanent(fmt.Errorf("invalid player listing: %w", err))
	}
	return payload.Users, nil
}

func parsePlayer(body []byte) (*PlayerData, error) {
	data, err := extractServerData(body)
	if err != nil {
		return nil, err
	}
	var payload struct {
		User PlayerData `json:"user"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, syncerr.Permanent(fmt.Errorf("invalid player payload: %w", err))
	}
	if payload.User.ID == "" {
		return nil, syncerr.Permanent(fmt.Errorf("player payload not found in page"))
	}
	payload.User.Raw = data
	return &payload.User, nil
}

func parseClubList(body []byte) ([]ClubSummary, error) {
	data, err := extractServerData(body)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Clubs []ClubSummary `json:"clubs"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, syncerr.Permanent(fmt.Errorf("invalid club listing: %w", err))
	}
	return payload.Clubs, nil
}

func parseClub(body []byte) (*ClubData, error) {
	data, err := extractServerData(body)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Club ClubData `json:"club"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, syncerr.Permanent(fmt.Errorf("invalid club payload: %w", err))
	}
	if payload.Club.ID == "" {
		return nil, syncerr.Permanent(fmt.Errorf("club payload not found in page"))
	}
	payload.Club.Raw = data
	return &payload.Club, nil
}

func parseTournamentList(body []byte) ([]TournamentSummary, error) {
	data, err := extractServerData(body)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Tournaments []TournamentSummary `json:"tournaments"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, syncerr.Permanent(fmt.Errorf("invalid tournament listing: %w", err))
	}
	return payload.Tournaments, nil
}

func parseTournament(body []byte) (*TournamentData, error) {
	data, err := extractServerData(body)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Tournament TournamentData `json:"tournament"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, syncerr.Permanent(fmt.Errorf("invalid tournament payload: %w", err))
	}
	if payload.Tournament.ID == "" {
		return nil, syncerr.Permanent(fmt.Errorf("tournament payload not found in page"))
	}
	payload.Tournament.Raw = data
	return &payload.Tournament, nil
}

func parseGames(body []byte, tournamentID string) ([]GameData, error) {
	data, err := extractServerData(body)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Games []GameData `json:"games"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, syncerr.Permanent(fmt.Errorf("invalid games payload: %w", err))
	}
	for i := range payload.Games {
		if payload.Games[i].TournamentID == "" {
			payload.Games[i].TournamentID = tournamentID
		}
	}
	return payload.Games, nil
}

package gomafia

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mafiainsight/internal/syncerr"
)

func TestGetPlayerFetchesAndParses(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write(pageWithServerData(`{"user":{"id":"101","login":"don_corleone","total_games":10,"wins":6,"losses":4}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.Client(), srv.URL)
	player, err := client.GetPlayer(context.Background(), "101")
	if err != nil {
		t.Fatalf("get player: %v", err)
	}
	if gotPath != "/stats/101" {
		t.Fatalf("path = %q, want /stats/101", gotPath)
	}
	if player.Name != "don_corleone" || player.TotalGames != 10 {
		t.Fatalf("player = %+v", player)
	}
}

func TestListPlayersSendsPaging(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "2" || r.URL.Query().Get("limit") != "50" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		w.Write(pageWithServerData(`{"users":[{"id":"1","login":"a"}]}`))
	}))
	defer srv.Close()

	players, err := NewClient(srv.Client(), srv.URL).ListPlayers(context.Background(), 2, 50)
	if err != nil {
		t.Fatalf("list players: %v", err)
	}
	if len(players) != 1 {
		t.Fatalf("got %d players, want 1", len(players))
	}
}

func TestNotFoundIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such player", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.Client(), srv.URL).GetPlayer(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error")
	}
	if !syncerr.IsPermanent(err) {
		t.Fatalf("err = %v, want permanent", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("err = %v, want APIError 404", err)
	}
}

func TestServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.Client(), srv.URL).ListClubs(context.Background(), 1, 10)
	if err == nil {
		t.Fatal("expected error")
	}
	if syncerr.IsPermanent(err) {
		t.Fatalf("err = %v, want transient", err)
	}
}

func TestGetPlayerRequiresID(t *testing.T) {
	client := NewClient(nil, "")
	if _, err := client.GetPlayer(context.Background(), "  "); err == nil || !syncerr.IsPermanent(err) {
		t.Fatalf("err = %v, want permanent", err)
	}
}

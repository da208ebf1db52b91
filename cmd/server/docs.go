package main

//go:generate swag init -g cmd/server/main.go -o docs

// @title           Mafia Insight API
// @version         0.1.0
// @description     Player, club and tournament statistics imported from gomafia.pro.
// @host            localhost:8080
// @BasePath        /
// @schemes         http

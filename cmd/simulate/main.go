package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"claims-agent-be/internal/dto"
	"claims-agent-be/internal/pkg/serverutils"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api/chat/v1"

// Replays a full conversation against a running server: a coverage
// question, a follow-up, and a first-notice-of-loss flow end to end.
func main() {
	userColor := color.New(color.FgCyan, color.Bold)
	botColor := color.New(color.FgGreen)
	metaColor := color.New(color.FgYellow)

	fmt.Println("=== Claims Agent Simulation Client ===")

	script := []string{
		"hello",
		"what does my policy cover for collision damage?",
		"my policy number is SAC-AZ-AUTO-2025-456789",
		"what about towing?",
		"I was in a car accident yesterday",
		"it happened on Main Street around 3pm, someone rear-ended me and my bumper is dented",
		"yes, please file the claim",
	}

	sessionID := ""
	for _, text := range script {
		userColor.Printf("\nUSER: %s\n", text)

		start := time.Now()
		res, err := ask(sessionID, text)
		elapsed := time.Since(start)

		if err != nil {
			log.Fatalf("Request failed: %v", err)
		}
		sessionID = res.SessionID

		botColor.Printf("AI (%v): %s\n", elapsed.Round(time.Millisecond), res.Answer)
		metaColor.Printf("  [type=%s format=%s clarify=%v claim=%s]\n",
			res.QueryType, res.FormatUsed, res.NeedsClarification, res.ClaimNumber)
		for _, ref := range res.References {
			metaColor.Printf("  %s\n", ref)
		}

		time.Sleep(500 * time.Millisecond)
	}
}

func ask(sessionID, query string) (*dto.AskResponse, error) {
	body, err := json.Marshal(dto.AskRequest{Query: query, SessionID: sessionID})
	if err != nil {
		return nil, err
	}

	resp, err := http.Post(baseURL+"/ask", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, raw)
	}

	var envelope serverutils.Response[*dto.AskResponse]
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// Package main implements a synthetic event generator for local development.
// It drives the intelligence API with plausible community traffic so mood,
// wellness and prediction behavior can be observed without a live community.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type eventPayload struct {
	UserID       string   `json:"userId"`
	Kind         string   `json:"kind"`
	MessageText  string   `json:"messageText,omitempty"`
	Topics       []string `json:"topics,omitempty"`
	Participants []string `json:"participants,omitempty"`
	Significance float64  `json:"significance"`
}

var positiveMessages = []string{
	"that raid was amazing, great teamwork everyone!",
	"love this community, you all are the best",
	"awesome stream today, really enjoyed it",
	"congrats on the win, happy for you!",
	"this new update is fantastic",
}

var negativeMessages = []string{
	"i hate how this event turned out",
	"this is terrible, everything is broken again",
	"so tired of the constant drama here",
	"worst patch ever, very disappointed",
	"feeling really stressed about the tournament",
}

var neutralMessages = []string{
	"anyone around for a quick match?",
	"what time is the meetup tomorrow?",
	"posting the schedule for next week",
	"has the patch gone live yet",
	"looking for two more for the dungeon run",
}

var topicPool = []string{"raid", "tournament", "patch", "meetup", "stream", "guild"}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "API base URL")
	community := flag.String("community", "demo-community", "community ID to seed")
	users := flag.Int("users", 8, "number of synthetic users")
	count := flag.Int("events", 100, "number of events to send")
	interval := flag.Duration("interval", 100*time.Millisecond, "delay between events")
	negativeBias := flag.Float64("negative", 0.2, "fraction of messages that are negative")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	rng := rand.New(rand.NewSource(*seed))
	client := &http.Client{Timeout: 10 * time.Second}
	endpoint := fmt.Sprintf("%s/api/v1/communities/%s/events", *baseURL, *community)

	logger.Info("seeding community events",
		zap.String("endpoint", endpoint),
		zap.Int("users", *users),
		zap.Int("events", *count),
	)

	sent, failed := 0, 0
	for i := 0; i < *count; i++ {
		payload := buildEvent(rng, *users, *negativeBias)

		if err := post(client, endpoint, payload); err != nil {
			failed++
			logger.Warn("event rejected", zap.Int("index", i), zap.Error(err))
		} else {
			sent++
		}

		time.Sleep(*interval)
	}

	logger.Info("seeding complete", zap.Int("sent", sent), zap.Int("failed", failed))
}

func buildEvent(rng *rand.Rand, users int, negativeBias float64) eventPayload {
	userID := fmt.Sprintf("user-%02d", rng.Intn(users))

	// Mostly messages, with occasional reactions and a rare join
	roll := rng.Float64()
	switch {
	case roll < 0.08:
		return eventPayload{
			UserID:       userID,
			Kind:         "join",
			Significance: 0.6 + rng.Float64()*0.3,
		}
	case roll < 0.25:
		return eventPayload{
			UserID:       userID,
			Kind:         "reaction",
			Significance: rng.Float64() * 0.3,
		}
	}

	var text string
	sentimentRoll := rng.Float64()
	switch {
	case sentimentRoll < negativeBias:
		text = negativeMessages[rng.Intn(len(negativeMessages))]
	case sentimentRoll < negativeBias+0.4:
		text = positiveMessages[rng.Intn(len(positiveMessages))]
	default:
		text = neutralMessages[rng.Intn(len(neutralMessages))]
	}

	topics := []string{topicPool[rng.Intn(len(topicPool))]}
	participants := []string{userID}
	if rng.Float64() < 0.3 {
		participants = append(participants, fmt.Sprintf("user-%02d", rng.Intn(users)))
	}

	return eventPayload{
		UserID:       userID,
		Kind:         "message",
		MessageText:  text,
		Topics:       topics,
		Participants: participants,
		Significance: rng.Float64(),
	}
}

func post(client *http.Client, endpoint string, payload eventPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := client.Post(endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

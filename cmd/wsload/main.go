// Command wsload opens many realtime connections for one user and drives
// notification traffic through them.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// Metrics tracks the run results.
type Metrics struct {
	ConnectionsAttempted int64
	ConnectionsSuccess   int64
	ConnectionsFailed    int64
	NotificationsSent    int64
	FramesReceived       int64
	Errors               int64
}

var metrics Metrics

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func main() {
	host := flag.String("host", "localhost:8000", "API server host")
	email := flag.String("email", "demouser@example.com", "Test user email")
	password := flag.String("password", "password1", "Test user password")
	clients := flag.Int("clients", 50, "Number of concurrent connections")
	duration := flag.Duration("duration", 30*time.Second, "Test duration")
	interval := flag.Duration("notify-every", 2*time.Second, "Create a notification this often (0 disables)")
	flag.Parse()

	log.Printf("🚀 Starting realtime load test")
	log.Printf("Target: %s", *host)
	log.Printf("Clients: %d", *clients)
	log.Printf("Duration: %v", *duration)

	token, userID, err := login(*host, *email, *password)
	if err != nil {
		log.Fatalf("❌ Login failed: %v", err)
	}
	log.Printf("✅ Logged in as user %d", userID)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stopChan := make(chan struct{})

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go runClient(*host, token, stopChan, &wg)
		time.Sleep(20 * time.Millisecond)
	}

	if *interval > 0 {
		wg.Add(1)
		go notifyLoop(*host, token, userID, *interval, stopChan, &wg)
	}

	select {
	case <-time.After(*duration):
		log.Println("⏱️  Test duration reached")
	case <-interrupt:
		log.Println("🛑 Interrupted by user")
	}

	close(stopChan)
	log.Println("Waiting for clients to disconnect...")
	wg.Wait()

	printMetrics()
}

func login(host, email, password string) (string, uint, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(fmt.Sprintf("http://%s/auth/login", host), "application/json", bytes.NewBuffer(body))
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", 0, err
	}
	if resp.StatusCode != http.StatusOK || !env.Success {
		return "", 0, fmt.Errorf("login failed with status %d: %s", resp.StatusCode, env.Message)
	}

	var data struct {
		AccessToken string `json:"accessToken"`
		User        struct {
			ID uint `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return "", 0, err
	}
	if data.AccessToken == "" {
		return "", 0, errors.New("login response carried no access token")
	}
	return data.AccessToken, data.User.ID, nil
}

// notifyLoop sends notifications to the logged in user so every open
// connection has something to receive.
func notifyLoop(host, token string, userID uint, every time.Duration, stopChan <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	client := &http.Client{Timeout: 5 * time.Second}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for n := 1; ; n++ {
		select {
		case <-stopChan:
			return
		case <-ticker.C:
			body, _ := json.Marshal(map[string]interface{}{
				"receiver": userID,
				"type":     "like",
				"message":  fmt.Sprintf("load test notification %d", n),
			})
			req, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("http://%s/notifications", host), bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := client.Do(req)
			if err != nil {
				atomic.AddInt64(&metrics.Errors, 1)
				continue
			}
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusCreated {
				atomic.AddInt64(&metrics.Errors, 1)
				continue
			}
			atomic.AddInt64(&metrics.NotificationsSent, 1)
		}
	}
}

func runClient(host, token string, stopChan <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	atomic.AddInt64(&metrics.ConnectionsAttempted, 1)

	u := url.URL{Scheme: "ws", Host: host, Path: "/ws", RawQuery: url.Values{"token": {token}}.Encode()}
	c, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = c.Close() }()

	atomic.AddInt64(&metrics.ConnectionsSuccess, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var f frame
			if err := c.ReadJSON(&f); err != nil {
				return
			}
			atomic.AddInt64(&metrics.FramesReceived, 1)
		}
	}()

	select {
	case <-stopChan:
		_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	case <-done:
		atomic.AddInt64(&metrics.Errors, 1)
	}
}

func printMetrics() {
	log.Println("\n📊 Test Results")
	log.Println("===============")
	log.Printf("Connections Attempted: %d", atomic.LoadInt64(&metrics.ConnectionsAttempted))
	log.Printf("Connections Successful: %d", atomic.LoadInt64(&metrics.ConnectionsSuccess))
	log.Printf("Connections Failed: %d", atomic.LoadInt64(&metrics.ConnectionsFailed))
	log.Printf("Notifications Sent: %d", atomic.LoadInt64(&metrics.NotificationsSent))
	log.Printf("Frames Received: %d", atomic.LoadInt64(&metrics.FramesReceived))
	log.Printf("Total Errors: %d", atomic.LoadInt64(&metrics.Errors))
}

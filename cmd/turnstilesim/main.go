// Simulates the ESP32 turnstile controller: polls the server with the
// static gym key at a fixed cadence and prints open events. Handy for
// development when no device is on the desk.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpillora/backoff"
	"github.com/spf13/pflag"
)

type config struct {
	ServerAddr string
	Key        string
	Interval   time.Duration
}

type pollResponse struct {
	Open    bool   `json:"open"`
	Member  string `json:"member"`
	GrantID string `json:"grantId"`
	Error   string `json:"error"`
}

func main() {
	c := config{}

	fs := pflag.NewFlagSet("turnstilesim", pflag.ContinueOnError)
	fs.StringVarP(&c.ServerAddr, "server", "s", "http://localhost:8000", "gymgate server address")
	fs.StringVarP(&c.Key, "key", "k", "", "turnstile key of the gym")
	fs.DurationVarP(&c.Interval, "interval", "i", 2*time.Second, "poll interval")
	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if c.Key == "" {
		fmt.Println("turnstile key is required, pass it with --key")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		cancel()
	}()

	if err := run(ctx, c); err != nil && ctx.Err() == nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c config) error {
	pollURL := c.ServerAddr + "/api/access/poll?key=" + url.QueryEscape(c.Key)
	client := &http.Client{Timeout: 5 * time.Second}

	// On transport errors back off instead of hammering the server
	b := &backoff.Backoff{
		Min:    c.Interval,
		Max:    30 * time.Second,
		Jitter: true,
	}

	for {
		resp, err := poll(ctx, client, pollURL)
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil:
			d := b.Duration()
			fmt.Printf("poll failed: %v, next try in %s\n", err, d)
			if !sleep(ctx, d) {
				return nil
			}
			continue
		}
		b.Reset()

		if resp.Open {
			who := resp.Member
			if who == "" {
				who = "admin"
			}
			fmt.Printf("OPEN for %s (grant %s)\n", who, resp.GrantID)
		}

		if !sleep(ctx, c.Interval) {
			return nil
		}
	}
}

func poll(ctx context.Context, client *http.Client, pollURL string) (pollResponse, error) {
	var body pollResponse

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pollURL, nil)
	if err != nil {
		return body, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return body, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return body, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return body, fmt.Errorf("server answered %d: %s", resp.StatusCode, body.Error)
	}

	return body, nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

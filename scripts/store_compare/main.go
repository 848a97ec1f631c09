// Command store_compare replays a request scenario against two running
// instances, typically one on the memory backend and one on postgres, and
// reports where their normalised responses diverge.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"
)

type step struct {
	Name     string          `json:"name"`
	Method   string          `json:"method"`
	Path     string          `json:"path"`
	Body     json.RawMessage `json:"body,omitempty"`
	Critical bool            `json:"critical"`
}

type scenario struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Ignore   []string `json:"ignore"`
	Steps    []step   `json:"steps"`
}

type instance struct {
	base  string
	token string
}

type comparison struct {
	Step          step
	LeftStatus    int
	RightStatus   int
	StatusMatch   bool
	BodyMatch     bool
	Error         error
	DurationLeft  time.Duration
	DurationRight time.Duration
}

func main() {
	var (
		leftBase     string
		rightBase    string
		scenarioPath string
		timeout      time.Duration
	)

	flag.StringVar(&leftBase, "left", "http://localhost:8080", "Base URL of the first instance (memory backend)")
	flag.StringVar(&rightBase, "right", "http://localhost:8081", "Base URL of the second instance (postgres backend)")
	flag.StringVar(&scenarioPath, "scenario", filepath.Join("scripts", "store_compare", "scenario.json"), "Path to JSON scenario file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	sc, err := loadScenario(scenarioPath)
	if err != nil {
		log.Fatalf("failed to load scenario: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	left := &instance{base: leftBase}
	right := &instance{base: rightBase}
	for _, in := range []*instance{left, right} {
		if in.token, err = login(client, in.base, sc.Username, sc.Password); err != nil {
			log.Fatalf("login against %s failed: %v", in.base, err)
		}
	}

	ignore := make(map[string]struct{}, len(sc.Ignore))
	for _, key := range sc.Ignore {
		ignore[key] = struct{}{}
	}

	var (
		comparisons  []comparison
		breaking     int
		optionalDiff int
	)
	for _, s := range sc.Steps {
		comp := compareStep(client, left, right, s, ignore)
		if comp.Error != nil || !comp.StatusMatch || !comp.BodyMatch {
			if s.Critical {
				breaking++
			} else {
				optionalDiff++
			}
		}
		comparisons = append(comparisons, comp)
	}

	printReport(comparisons)

	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadScenario(path string) (*scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc scenario
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("no steps defined in %s", path)
	}
	return &sc, nil
}

func login(client *http.Client, base, username, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, _, err := performRequest(client, &instance{base: base}, step{Method: http.MethodPost, Path: "/api/auth/login", Body: body})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var envelope struct {
		Data struct {
			AccessToken string `json:"accessToken"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", err
	}
	if envelope.Data.AccessToken == "" {
		return "", errors.New("empty access token")
	}
	return envelope.Data.AccessToken, nil
}

func compareStep(client *http.Client, left, right *instance, s step, ignore map[string]struct{}) comparison {
	comp := comparison{Step: s}
	leftResp, leftDur, leftErr := performRequest(client, left, s)
	rightResp, rightDur, rightErr := performRequest(client, right, s)
	comp.DurationLeft = leftDur
	comp.DurationRight = rightDur

	if leftErr != nil {
		comp.Error = fmt.Errorf("left request failed: %w", leftErr)
		return comp
	}
	defer leftResp.Body.Close()
	if rightErr != nil {
		comp.Error = fmt.Errorf("right request failed: %w", rightErr)
		return comp
	}
	defer rightResp.Body.Close()

	comp.LeftStatus = leftResp.StatusCode
	comp.RightStatus = rightResp.StatusCode
	comp.StatusMatch = comp.LeftStatus == comp.RightStatus

	leftBody, err := io.ReadAll(leftResp.Body)
	if err != nil {
		comp.Error = fmt.Errorf("read left body: %w", err)
		return comp
	}
	rightBody, err := io.ReadAll(rightResp.Body)
	if err != nil {
		comp.Error = fmt.Errorf("read right body: %w", err)
		return comp
	}

	comp.BodyMatch = bodiesEqual(leftBody, rightBody, ignore)
	return comp
}

func performRequest(client *http.Client, in *instance, s step) (*http.Response, time.Duration, error) {
	if client == nil {
		return nil, 0, errors.New("nil client")
	}
	method := strings.ToUpper(strings.TrimSpace(s.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := s.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := strings.TrimRight(in.base, "/") + path

	var body io.Reader
	if len(s.Body) > 0 {
		body = bytes.NewReader(s.Body)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if in.token != "" {
		req.Header.Set("Authorization", "Bearer "+in.token)
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	return resp, time.Since(start), nil
}

func bodiesEqual(a, b []byte, ignore map[string]struct{}) bool {
	if bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}

	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	normalize(&aj, ignore)
	normalize(&bj, ignore)
	return reflect.DeepEqual(aj, bj)
}

// normalize drops volatile keys (timestamps, generated ids) and folds
// integral floats so both backends compare equal.
func normalize(v *interface{}, ignore map[string]struct{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for k, v2 := range val {
			if _, skip := ignore[k]; skip {
				delete(val, k)
				continue
			}
			normalize(&v2, ignore)
			val[k] = v2
		}
	case []interface{}:
		for i, v2 := range val {
			normalize(&v2, ignore)
			val[i] = v2
		}
	case float64:
		if val == float64(int64(val)) {
			*v = int64(val)
		}
	}
}

func printReport(results []comparison) {
	fmt.Println("Store Compare Report")
	fmt.Println("====================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.StatusMatch || !res.BodyMatch {
			status = "DIFF"
		}
		label := res.Step.Name
		if label == "" {
			label = res.Step.Path
		}
		fmt.Printf("[%s] %s %s (%s)\n", status, res.Step.Method, res.Step.Path, label)
		fmt.Printf("  Left Status: %d (%s)\n", res.LeftStatus, res.DurationLeft)
		fmt.Printf("  Right Status: %d (%s)\n", res.RightStatus, res.DurationRight)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
		} else {
			fmt.Printf("  Status match: %t | Body match: %t | Critical: %t\n", res.StatusMatch, res.BodyMatch, res.Step.Critical)
		}
	}
}

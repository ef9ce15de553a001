// Package main provides a CLI tool for smoke-testing a running finanzas server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
)

// jsonCheck asserts something about the value at a JSONPath
type jsonCheck struct {
	path  string
	check func(v any) error
}

type endpoint struct {
	path        string
	method      string
	contentType string
	contains    []string
	json        []jsonCheck
	// post runs after the per-path checks, on the whole decoded document
	post func(doc any) error
}

var endpoints = []endpoint{
	// Main page and partials
	{path: "/dashboard", method: "GET", contentType: "text/html", contains: []string{"Finanzas AI Pro", "Balance Total"}},
	{path: "/dashboard/kpis", method: "GET", contentType: "text/html", contains: []string{"Ingresos Totales", "Gastos Totales"}},
	{path: "/dashboard/chart?mode=bar", method: "GET", contentType: "text/html", contains: []string{"chart-toggle", "Ingresos"}},
	{path: "/dashboard/chart?mode=pie", method: "GET", contentType: "text/html", contains: []string{"chart-toggle", "Egresos"}},
	{path: "/transactions", method: "GET", contentType: "text/html", contains: []string{"transaction-list"}},
	{path: "/transactions/form", method: "GET", contentType: "text/html", contains: []string{"transaction-form"}},
	{path: "/advisor", method: "GET", contentType: "text/html", contains: []string{"Consejero IA"}},
	{path: "/data/clear", method: "GET", contentType: "text/html", contains: []string{"clear-button"}},

	// Chart data
	{path: "/dashboard/charts/data/bar", method: "GET", contentType: "application/json",
		json: []jsonCheck{{"$.data[0].type", equals("bar")}}},
	{path: "/dashboard/charts/data/pie", method: "GET", contentType: "application/json",
		json: []jsonCheck{{"$.data[0].type", equals("pie")}}},

	// API
	{path: "/api/health", method: "GET", contentType: "application/json",
		json: []jsonCheck{{"$.status", equals("ok")}, {"$.transactions", isNumber}}},
	{path: "/api/version", method: "GET", contentType: "application/json",
		json: []jsonCheck{{"$.version", isString}}},
	{path: "/api/summary", method: "GET", contentType: "application/json",
		json: []jsonCheck{{"$.transactionCount", isNumber}, {"$.categories", isPresent}},
		post: balanceHolds},

	{path: "/backup", method: "GET", contentType: "application/json"},
}

type result struct {
	endpoint endpoint
	status   int
	duration time.Duration
	err      error
	body     string
}

func main() {
	url := flag.String("url", "http://localhost:8080", "Base URL of the server to validate")
	verbose := flag.Bool("v", false, "Verbose output")
	timeout := flag.Int("timeout", 10, "Request timeout in seconds")
	flag.Parse()

	client := &http.Client{
		Timeout: time.Duration(*timeout) * time.Second,
	}

	fmt.Printf("Validating server at %s\n", *url)
	fmt.Printf("Testing %d endpoints...\n\n", len(endpoints))

	var passed, failed int
	for _, ep := range endpoints {
		r := validateEndpoint(client, *url, ep)

		switch {
		case r.err != nil:
			failed++
			fmt.Printf("FAIL %s %s\n", ep.method, ep.path)
			fmt.Printf("     Error: %v\n", r.err)
		case r.status != http.StatusOK:
			failed++
			fmt.Printf("FAIL %s %s\n", ep.method, ep.path)
			fmt.Printf("     Status: %d (expected 200)\n", r.status)
		default:
			passed++
			if *verbose {
				fmt.Printf("PASS %s %s (%v)\n", ep.method, ep.path, r.duration)
			}
		}
	}

	fmt.Printf("\n========================================\n")
	fmt.Printf("Results: %d passed, %d failed\n", passed, failed)

	if failed > 0 {
		os.Exit(1)
	}
}

func validateEndpoint(client *http.Client, baseURL string, ep endpoint) result {
	start := time.Now()

	req, err := http.NewRequest(ep.method, baseURL+ep.path, nil)
	if err != nil {
		return result{endpoint: ep, err: fmt.Errorf("failed to create request: %w", err)}
	}

	resp, err := client.Do(req)
	if err != nil {
		return result{endpoint: ep, err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return result{endpoint: ep, err: fmt.Errorf("failed to read body: %w", err)}
	}

	r := result{
		endpoint: ep,
		status:   resp.StatusCode,
		duration: time.Since(start),
		body:     string(body),
	}
	if r.status != http.StatusOK {
		return r
	}

	ct := resp.Header.Get("Content-Type")
	if !strings.Contains(ct, ep.contentType) {
		r.err = fmt.Errorf("wrong content type: got %q, expected %q", ct, ep.contentType)
		return r
	}

	if ep.contentType == "application/json" {
		var doc any
		if err := json.Unmarshal(body, &doc); err != nil {
			r.err = fmt.Errorf("invalid JSON: %w", err)
			return r
		}
		if err := checkJSON(doc, ep); err != nil {
			r.err = err
			return r
		}
	}

	for _, needle := range ep.contains {
		if !strings.Contains(r.body, needle) {
			r.err = fmt.Errorf("missing expected content: %q", needle)
			return r
		}
	}

	return r
}

func checkJSON(doc any, ep endpoint) error {
	for _, c := range ep.json {
		v, err := jsonpath.Get(c.path, doc)
		if err != nil {
			return fmt.Errorf("%s: %w", c.path, err)
		}
		if err := c.check(v); err != nil {
			return fmt.Errorf("%s: %w", c.path, err)
		}
	}
	if ep.post != nil {
		return ep.post(doc)
	}
	return nil
}

func equals(want string) func(any) error {
	return func(v any) error {
		if s, ok := v.(string); !ok || s != want {
			return fmt.Errorf("got %v, want %q", v, want)
		}
		return nil
	}
}

func isString(v any) error {
	if _, ok := v.(string); !ok {
		return fmt.Errorf("not a string: %v", v)
	}
	return nil
}

func isNumber(v any) error {
	if _, ok := v.(float64); !ok {
		return fmt.Errorf("not a number: %v", v)
	}
	return nil
}

func isPresent(v any) error {
	if v == nil {
		return fmt.Errorf("missing")
	}
	return nil
}

// balanceHolds checks balance == totalIncome - totalExpense
func balanceHolds(doc any) error {
	var nums [3]float64
	for i, path := range []string{"$.totalIncome", "$.totalExpense", "$.balance"} {
		v, err := jsonpath.Get(path, doc)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		f, ok := v.(float64)
		if !ok {
			return fmt.Errorf("%s: not a number: %v", path, v)
		}
		nums[i] = f
	}
	if math.Abs(nums[0]-nums[1]-nums[2]) > 0.005 {
		return fmt.Errorf("balance %.2f != %.2f - %.2f", nums[2], nums[0], nums[1])
	}
	return nil
}

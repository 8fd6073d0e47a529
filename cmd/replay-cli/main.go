package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/signalhouse/replaycore/pkg/types"
)

const defaultAddr = "http://localhost:8080"

func main() {
	exitFn(run(os.Args, os.Stdout, os.Stderr))
}

var exitFn = os.Exit

func run(args []string, stdout io.Writer, stderr io.Writer) int {
	if len(args) < 2 {
		usage(stderr)
		return 2
	}

	switch args[1] {
	case "record":
		return handleRecord(args[2:], stdout, stderr)
	case "resolve":
		return handleResolve(args[2:], stdout, stderr)
	case "parity":
		return handleParity(args[2:], stdout, stderr)
	case "certify":
		return handleCertify(args[2:], stdout, stderr)
	case "audit":
		return handleAudit(args[2:], stdout, stderr)
	default:
		usage(stderr)
		return 2
	}
}

func handleRecord(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("record", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", envOrDefault("REPLAYCORE_ADDR", defaultAddr), "replay gateway address")
	token := fs.String("token", envOrDefault("REPLAYCORE_TOKEN", os.Getenv("REPLAYCORE_DEV_TOKEN")), "bearer token")
	if err := fs.Parse(args); err != nil {
		fs.Usage()
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "record requires <decision.json>")
		fs.Usage()
		return 2
	}

	// #nosec G304 -- operator-provided input path.
	body, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}

	respBody, status, err := httpPost(http.DefaultClient, *addr+"/v1/decisions", *token, body)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	if status != http.StatusCreated {
		fmt.Fprintf(stderr, "record failed: %s\n", strings.TrimSpace(string(respBody)))
		return 1
	}

	var rec types.DecisionRecord
	if err := json.Unmarshal(respBody, &rec); err != nil {
		fmt.Fprintln(stderr, "invalid response:", err)
		return 1
	}
	fmt.Fprintf(stdout, "recorded interaction_id=%s model_id=%s\n", rec.InteractionID, rec.ModelID)
	return 0
}

func handleResolve(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", envOrDefault("REPLAYCORE_ADDR", defaultAddr), "replay gateway address")
	jsonOut := fs.Bool("json", false, "print raw JSON response")
	token := fs.String("token", envOrDefault("REPLAYCORE_TOKEN", os.Getenv("REPLAYCORE_DEV_TOKEN")), "bearer token")
	if err := fs.Parse(args); err != nil {
		fs.Usage()
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "resolve requires <interaction_id>")
		fs.Usage()
		return 2
	}

	respBody, status, err := httpGet(http.DefaultClient, *addr+"/v1/replay/"+fs.Arg(0), *token)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	if status != http.StatusOK {
		fmt.Fprintf(stderr, "resolve failed: %s\n", strings.TrimSpace(string(respBody)))
		return 1
	}

	if *jsonOut {
		_, _ = stdout.Write(respBody)
		return 0
	}

	var verdict types.ReplayVerdict
	if err := json.Unmarshal(respBody, &verdict); err != nil {
		fmt.Fprintln(stderr, "invalid response:", err)
		return 1
	}

	if verdict.ReplayDeviation {
		fmt.Fprintf(stdout, "deviation=%s interaction_id=%s model_id=%s: %s\n",
			verdict.DeviationReason, verdict.InteractionID, verdict.OriginalModelID, verdict.Explanation)
		return 0
	}
	fmt.Fprintf(stdout, "replayable interaction_id=%s model_id=%s\n", verdict.InteractionID, *verdict.ReplayModelID)
	return 0
}

func handleParity(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("parity", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", envOrDefault("REPLAYCORE_ADDR", defaultAddr), "replay gateway address")
	testCase := fs.String("case", "", "test case name")
	token := fs.String("token", envOrDefault("REPLAYCORE_TOKEN", os.Getenv("REPLAYCORE_DEV_TOKEN")), "bearer token")
	if err := fs.Parse(args); err != nil {
		fs.Usage()
		return 2
	}
	if fs.NArg() != 2 || *testCase == "" {
		fmt.Fprintln(stderr, "parity requires --case NAME <path_a.json> <path_b.json>")
		fs.Usage()
		return 2
	}

	// #nosec G304 -- operator-provided input paths.
	pathA, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	// #nosec G304
	pathB, err := os.ReadFile(fs.Arg(1))
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}

	body, err := json.Marshal(map[string]json.RawMessage{
		"test_case": json.RawMessage(fmt.Sprintf("%q", *testCase)),
		"path_a":    pathA,
		"path_b":    pathB,
	})
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}

	respBody, status, err := httpPost(http.DefaultClient, *addr+"/v1/parity", *token, body)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	if status != http.StatusOK {
		fmt.Fprintf(stderr, "parity failed: %s\n", strings.TrimSpace(string(respBody)))
		return 1
	}

	var result types.ParityTestResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		fmt.Fprintln(stderr, "invalid response:", err)
		return 1
	}

	fmt.Fprintf(stdout, "%s test_id=%s diffs=%d\n", result.Parity, result.TestID, len(result.Diffs))
	for _, diff := range result.Diffs {
		fmt.Fprintf(stdout, "  %s path_a=%s path_b=%s\n", diff.FieldPath, renderSide(diff.PathA), renderSide(diff.PathB))
	}
	if result.Parity == types.ParityFail {
		return 1
	}
	return 0
}

func handleCertify(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("certify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", envOrDefault("REPLAYCORE_ADDR", defaultAddr), "replay gateway address")
	token := fs.String("token", envOrDefault("REPLAYCORE_TOKEN", os.Getenv("REPLAYCORE_DEV_TOKEN")), "bearer token")
	if err := fs.Parse(args); err != nil {
		fs.Usage()
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "certify requires <test_id>...")
		fs.Usage()
		return 2
	}

	body, err := json.Marshal(map[string][]string{"test_ids": fs.Args()})
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}

	respBody, status, err := httpPost(http.DefaultClient, *addr+"/v1/certifications", *token, body)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	if status != http.StatusCreated {
		fmt.Fprintf(stderr, "certify failed: %s\n", strings.TrimSpace(string(respBody)))
		return 1
	}

	var cert types.ParityCertification
	if err := json.Unmarshal(respBody, &cert); err != nil {
		fmt.Fprintln(stderr, "invalid response:", err)
		return 1
	}

	fmt.Fprintf(stdout, "certified=%t certification_id=%s %s\n", cert.Certified, cert.CertificationID, cert.Summary)
	if !cert.Certified {
		return 1
	}
	return 0
}

func handleAudit(args []string, stdout io.Writer, stderr io.Writer) int {
	fs := flag.NewFlagSet("audit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", envOrDefault("REPLAYCORE_ADDR", defaultAddr), "replay gateway address")
	channel := fs.String("channel", "", "filter by channel")
	capability := fs.String("capability", "", "filter by capability_key")
	model := fs.String("model", "", "filter by model_id")
	limit := fs.String("limit", "", "max entries")
	jsonOut := fs.Bool("json", false, "print raw JSON response")
	token := fs.String("token", envOrDefault("REPLAYCORE_TOKEN", os.Getenv("REPLAYCORE_DEV_TOKEN")), "bearer token")
	if err := fs.Parse(args); err != nil {
		fs.Usage()
		return 2
	}

	target := *addr + "/v1/audit"
	if fs.NArg() == 1 {
		target += "/" + fs.Arg(0)
	} else {
		query := url.Values{}
		if *channel != "" {
			query.Set("channel", *channel)
		}
		if *capability != "" {
			query.Set("capability_key", *capability)
		}
		if *model != "" {
			query.Set("model_id", *model)
		}
		if *limit != "" {
			query.Set("limit", *limit)
		}
		if len(query) > 0 {
			target += "?" + query.Encode()
		}
	}

	respBody, status, err := httpGet(http.DefaultClient, target, *token)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	if status != http.StatusOK {
		fmt.Fprintf(stderr, "audit failed: %s\n", strings.TrimSpace(string(respBody)))
		return 1
	}

	if *jsonOut {
		_, _ = stdout.Write(respBody)
		return 0
	}

	if fs.NArg() == 1 {
		var entry auditEntry
		if err := json.Unmarshal(respBody, &entry); err != nil {
			fmt.Fprintln(stderr, "invalid response:", err)
			return 1
		}
		printEntry(stdout, entry)
		return 0
	}

	var listing struct {
		Entries []auditEntry `json:"entries"`
	}
	if err := json.Unmarshal(respBody, &listing); err != nil {
		fmt.Fprintln(stderr, "invalid response:", err)
		return 1
	}
	for _, entry := range listing.Entries {
		printEntry(stdout, entry)
	}
	return 0
}

type auditEntry struct {
	Decision     types.DecisionRecord `json:"decision"`
	ReplayStatus string               `json:"replay_status"`
}

func printEntry(w io.Writer, entry auditEntry) {
	fmt.Fprintf(w, "%s interaction_id=%s model_id=%s channel=%s\n",
		entry.ReplayStatus, entry.Decision.InteractionID, entry.Decision.ModelID, entry.Decision.Channel)
}

func renderSide(side *string) string {
	if side == nil {
		return "<absent>"
	}
	return *side
}

func httpGet(client *http.Client, target string, token string) ([]byte, int, error) {
	req, err := http.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, err
	}
	return doRequest(client, req, token)
}

func httpPost(client *http.Client, target string, token string, body []byte) ([]byte, int, error) {
	req, err := http.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	return doRequest(client, req, token)
}

func doRequest(client *http.Client, req *http.Request, token string) ([]byte, int, error) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func envOrDefault(key string, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func usage(w io.Writer) {
	fmt.Fprint(w, `Replay CLI

Usage:
  replay record <decision.json> [--addr URL] [--token TOKEN]
  replay resolve <interaction_id> [--addr URL] [--json] [--token TOKEN]
  replay parity --case NAME <path_a.json> <path_b.json> [--addr URL] [--token TOKEN]
  replay certify <test_id>... [--addr URL] [--token TOKEN]
  replay audit [interaction_id] [--channel C] [--capability K] [--model M] [--limit N] [--addr URL] [--json] [--token TOKEN]
`)
}

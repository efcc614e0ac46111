// Package dialer is the adapter for the external voice-call proxy.
//
// Rules:
//   - No proxy HTTP calls outside this package.
//   - Request/response types stay provider-shaped here; business code consumes
//     only CallStatus and CallDetails.
package dialer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNoCallID means the proxy accepted the request but returned no call
// identifier; the call must be treated as not initiated.
var ErrNoCallID = errors.New("dialer: response missing call_id")

// APIError carries the proxy's own failure message when one is present, so it
// can be surfaced to the user verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("dialer: proxy returned status %d", e.StatusCode)
}

// Fixed call parameters the proxy expects on every initiation.
const (
	callModel    = "enhanced"
	callLanguage = "en"
	callVoice    = "nat"
)

// CallRequest is everything needed to place one roast call.
type CallRequest struct {
	CountryCode string
	Phone       string

	TargetName string
	TargetJob  string
	FunFacts   string

	// MaxDurationMinutes caps the call at the proxy.
	MaxDurationMinutes float64
	Record             bool
}

// PhoneNumber concatenates country code and local number, E.164-like.
func (r CallRequest) PhoneNumber() string {
	return r.CountryCode + strings.TrimSpace(r.Phone)
}

// initiatePayload is the proxy wire format for POST /proxy/call.
type initiatePayload struct {
	PhoneNumber       string            `json:"phone_number"`
	Task              string            `json:"task"`
	Model             string            `json:"model"`
	Language          string            `json:"language"`
	Voice             string            `json:"voice"`
	MaxDuration       float64           `json:"max_duration"`
	FirstSentence     string            `json:"first_sentence"`
	WaitForGreeting   bool              `json:"wait_for_greeting"`
	Record            bool              `json:"record"`
	AnsweredByEnabled bool              `json:"answered_by_enabled"`
	AnalysisSchema    map[string]string `json:"analysis_schema"`
}

// CallDetails is the status payload consumed from GET /proxy/call.
// Unknown fields are ignored; none of these are required except status.
type CallDetails struct {
	Status            CallStatus    `json:"status"`
	CorrectedDuration int           `json:"corrected_duration"`
	CallEndedBy       string        `json:"call_ended_by"`
	RecordingURL      string        `json:"recording_url"`
	AnsweredBy        string        `json:"answered_by"`
	Price             float64       `json:"price"`
	Variables         CallVariables `json:"variables"`
}

type CallVariables struct {
	City  string `json:"city"`
	State string `json:"state"`
}

// EndedByAgent reports whether the assistant hung up first.
func (d CallDetails) EndedByAgent() bool { return d.CallEndedBy == "ASSISTANT" }

// Client talks to the roast-call proxy.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// InitiateCall places one outbound call and returns the proxy call id.
func (c *Client) InitiateCall(ctx context.Context, req CallRequest) (string, error) {
	payload := initiatePayload{
		PhoneNumber:       req.PhoneNumber(),
		Task:              buildTask(req),
		Model:             callModel,
		Language:          callLanguage,
		Voice:             callVoice,
		MaxDuration:       req.MaxDurationMinutes,
		FirstSentence:     fmt.Sprintf("Hello, am I speaking with %s?", req.TargetName),
		WaitForGreeting:   false,
		Record:            req.Record,
		AnsweredByEnabled: true,
		AnalysisSchema: map[string]string{
			"call_duration":     "number",
			"answered_by":       "string",
			"call_successful":   "boolean",
			"customer_response": "string",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/proxy/call", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", readAPIError(resp)
	}

	var out struct {
		CallID string `json:"call_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("dialer: decode initiate response: %w", err)
	}
	if out.CallID == "" {
		return "", ErrNoCallID
	}
	return out.CallID, nil
}

// GetCallStatus fetches the current status payload for a call.
func (c *Client) GetCallStatus(ctx context.Context, callID string) (CallDetails, error) {
	if callID == "" {
		return CallDetails{}, errors.New("dialer: call id is required")
	}

	u := c.baseURL + "/proxy/call?callId=" + url.QueryEscape(callID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return CallDetails{}, err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return CallDetails{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return CallDetails{}, readAPIError(resp)
	}

	var d CallDetails
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return CallDetails{}, fmt.Errorf("dialer: decode status response: %w", err)
	}
	return d, nil
}

// buildTask renders the natural-language instruction for the voice agent.
// The wording matters less than embedding the target details verbatim.
func buildTask(req CallRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are calling %s", req.TargetName)
	if req.TargetJob != "" {
		fmt.Fprintf(&b, ", who works as a %s", req.TargetJob)
	}
	b.WriteString(". This is a light-hearted prank roast call requested by a friend. ")
	b.WriteString("Playfully roast them about the following, keeping it funny and never cruel: ")
	b.WriteString(req.FunFacts)
	return b.String()
}

func readAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}
	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil {
		apiErr.Message = body.Message
	}
	return apiErr
}

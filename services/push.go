package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// PushMessage is addressed to a device token or a phone number depending on
// the Pusher that delivers it.
type PushMessage struct {
	To    string
	Title string
	Body  string
	Data  map[string]string
}

type Pusher interface {
	Push(ctx context.Context, msg PushMessage) error
}

// ExpoPusher posts to the Expo push API.
type ExpoPusher struct {
	URL         string
	AccessToken string
	Client      *http.Client
}

func NewExpoPusher(url, accessToken string) *ExpoPusher {
	return &ExpoPusher{URL: url, AccessToken: accessToken, Client: http.DefaultClient}
}

func (p *ExpoPusher) Push(ctx context.Context, msg PushMessage) error {
	body := map[string]interface{}{
		"to":    msg.To,
		"title": msg.Title,
		"body":  msg.Body,
		"sound": "default",
	}
	if len(msg.Data) > 0 {
		body["data"] = msg.Data
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: build push request: %v", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if p.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+p.AccessToken)
	}

	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: push request: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: push status %d: %s", ErrUpstream, resp.StatusCode, truncate(string(b), 512))
	}
	return checkExpoTickets(b)
}

type expoTicket struct {
	Status  string `json:"status"`
	ID      string `json:"id"`
	Message string `json:"message"`
	Details struct {
		Error string `json:"error"`
	} `json:"details"`
}

// checkExpoTickets reports the first failed ticket. Expo answers 200 even
// when the device is gone, with the failure inside the ticket.
func checkExpoTickets(body []byte) error {
	var resp struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: unreadable push response: %v", ErrUpstream, err)
	}
	if len(resp.Errors) > 0 {
		return fmt.Errorf("%w: push rejected: %s: %s", ErrUpstream, resp.Errors[0].Code, resp.Errors[0].Message)
	}

	var tickets []expoTicket
	data := bytes.TrimSpace(resp.Data)
	switch {
	case len(data) == 0:
		return fmt.Errorf("%w: push response has no ticket", ErrUpstream)
	case data[0] == '[':
		if err := json.Unmarshal(data, &tickets); err != nil {
			return fmt.Errorf("%w: unreadable push ticket: %v", ErrUpstream, err)
		}
	default:
		var t expoTicket
		if err := json.Unmarshal(data, &t); err != nil {
			return fmt.Errorf("%w: unreadable push ticket: %v", ErrUpstream, err)
		}
		tickets = append(tickets, t)
	}

	for _, t := range tickets {
		if t.Status == "error" {
			return fmt.Errorf("%w: push ticket error %s: %s", ErrUpstream, t.Details.Error, t.Message)
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

type smsSender interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// SMSPusher sends the notification as a text message through Twilio.
type SMSPusher struct {
	api  smsSender
	from string
}

func NewSMSPusher(accountSID, authToken, from string) *SMSPusher {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &SMSPusher{api: client.Api, from: from}
}

func (p *SMSPusher) Push(ctx context.Context, msg PushMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(msg.To)
	params.SetFrom(p.from)
	params.SetBody(msg.Title + ": " + msg.Body)

	if _, err := p.api.CreateMessage(params); err != nil {
		return fmt.Errorf("%w: sms: %v", ErrUpstream, err)
	}
	return nil
}

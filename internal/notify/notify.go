// Package notify publishes ledger outcomes to other services after they commit.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/mmynk/splitledger/internal/models"
)

// Subjects published by the ledger.
const (
	SubjectEventApproved     = "ledger.event.approved"
	SubjectEventDeclined     = "ledger.event.declined"
	SubjectTransferCompleted = "ledger.transfer.completed"
	SubjectTopUpRequested    = "ledger.topup.requested"
	SubjectTopUpResolved     = "ledger.topup.resolved"
)

// EventSettled is published when an event leaves WAITING.
type EventSettled struct {
	EventID      string                   `json:"event_id"`
	OwnerID      string                   `json:"owner_id"`
	Status       models.Status            `json:"status"`
	Amount       models.Amount            `json:"amount"`
	Transactions []string                 `json:"transactions,omitempty"`
	Balances     map[string]models.Amount `json:"balances,omitempty"`
}

// TransactionPosted is published for transfers and top-ups.
type TransactionPosted struct {
	TransactionID string        `json:"transaction_id"`
	SenderID      string        `json:"sender_id,omitempty"`
	ReceiverID    string        `json:"receiver_id,omitempty"`
	Amount        models.Amount `json:"amount"`
	IsTopUp       bool          `json:"is_top_up"`
	Status        models.Status `json:"status"`
}

// NewTransactionPosted builds a payload from a transaction record.
func NewTransactionPosted(t *models.Transaction) TransactionPosted {
	return TransactionPosted{
		TransactionID: t.ID,
		SenderID:      t.SenderID,
		ReceiverID:    t.ReceiverID,
		Amount:        t.Amount,
		IsTopUp:       t.IsTopUp,
		Status:        t.Status,
	}
}

// Publisher delivers a JSON payload on a subject.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
	Close() error
}

// NATSPublisher publishes on a NATS connection.
type NATSPublisher struct {
	nc *nats.Conn
}

var _ Publisher = (*NATSPublisher)(nil)

// ConnectNATS dials the NATS server at url.
func ConnectNATS(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("splitledger"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return &NATSPublisher{nc: nc}, nil
}

// Publish marshals payload to JSON and publishes it.
func (p *NATSPublisher) Publish(_ context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", subject, err)
	}
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
		return fmt.Errorf("failed to drain nats connection: %w", err)
	}
	return nil
}

// Nop discards every message. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Close() error                               { return nil }

// Message is one publication captured by Memory.
type Message struct {
	Subject string
	Data    []byte
}

// Memory keeps published messages in order. It is safe for concurrent use.
type Memory struct {
	mu       sync.Mutex
	messages []Message
}

// Publish records the JSON encoding of payload.
func (m *Memory) Publish(_ context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, Message{Subject: subject, Data: data})
	return nil
}

func (m *Memory) Close() error { return nil }

// Messages returns the messages published on subject, or all of them if subject is "".
func (m *Memory) Messages(subject string) []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Message
	for _, msg := range m.messages {
		if subject == "" || msg.Subject == subject {
			out = append(out, msg)
		}
	}
	return out
}

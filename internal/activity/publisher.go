// Package activity forwards committed activity entries to external sinks.
package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	v1 "github.com/qlsach-lab/catalog-ledger/internal/api/v1"
	"github.com/qlsach-lab/catalog-ledger/internal/metrics"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Publisher delivers one activity entry. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, entry v1.ActivityEntry) error
}

// Encoding selects the wire format of published entries.
type Encoding string

const (
	EncodingJSON     Encoding = "json"
	EncodingProtobuf Encoding = "protobuf"
)

func (e Encoding) contentType() string {
	if e == EncodingProtobuf {
		return "application/x-protobuf"
	}
	return "application/json"
}

// ParseEncoding accepts "json" (or empty) and "protobuf".
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "", string(EncodingJSON):
		return EncodingJSON, nil
	case string(EncodingProtobuf):
		return EncodingProtobuf, nil
	default:
		return "", fmt.Errorf("unsupported activity encoding %q", s)
	}
}

// Encode serializes entry. Protobuf output is a google.protobuf.Struct.
func Encode(enc Encoding, entry v1.ActivityEntry) ([]byte, error) {
	switch enc {
	case EncodingProtobuf:
		s, err := structpb.NewStruct(map[string]interface{}{
			"id":             entry.ID,
			"seq":            entry.Seq,
			"bookId":         entry.BookID,
			"quantity":       entry.Quantity,
			"actor":          entry.Actor,
			"timestamp":      entry.Timestamp.UTC().Format(time.RFC3339Nano),
			"idempotencyKey": entry.IdempotencyKey,
		})
		if err != nil {
			return nil, fmt.Errorf("build struct: %w", err)
		}
		return proto.Marshal(s)
	default:
		return json.Marshal(entry)
	}
}

// NopPublisher discards entries.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, v1.ActivityEntry) error { return nil }

// MultiPublisher fans out to every sink and joins their errors.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, entry v1.ActivityEntry) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Instrumented counts successes and failures of p under the sink label.
func Instrumented(sink string, p Publisher, m *metrics.Registry) Publisher {
	return &instrumented{sink: sink, next: p, metrics: m}
}

type instrumented struct {
	sink    string
	next    Publisher
	metrics *metrics.Registry
}

func (i *instrumented) Publish(ctx context.Context, entry v1.ActivityEntry) error {
	err := i.next.Publish(ctx, entry)
	i.metrics.ObservePublish(i.sink, err)
	if err != nil {
		return fmt.Errorf("%s: %w", i.sink, err)
	}
	return nil
}

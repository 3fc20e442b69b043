package activity

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKafkaWriter implements kafkaMessageWriter for tests
type fakeKafkaWriter struct {
	msgs []kafka.Message
	fail bool
}

func (f *fakeKafkaWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.fail {
		return errors.New("fail")
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	fk := &fakeKafkaWriter{}
	p := NewKafkaPublisherWith(fk, EncodingJSON)

	require.NoError(t, p.Publish(context.Background(), sampleEntry()))
	require.Len(t, fk.msgs, 1)

	msg := fk.msgs[0]
	assert.Equal(t, []byte("S001"), msg.Key)
	assert.Contains(t, string(msg.Value), `"bookId":"S001"`)
	assert.Equal(t, sampleEntry().Timestamp, msg.Time)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "application/json", headers["content-type"])
	assert.Equal(t, sampleEntry().ID, headers["activity-id"])
	require.NoError(t, p.Close())
}

func TestKafkaPublisher_Failure(t *testing.T) {
	p := NewKafkaPublisherWith(&fakeKafkaWriter{fail: true}, EncodingProtobuf)
	err := p.Publish(context.Background(), sampleEntry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka write")
}

func TestNewKafkaPublisher_UsesBrokerList(t *testing.T) {
	p := NewKafkaPublisher([]string{"k1:9092", "k2:9092"}, "activity", EncodingJSON)
	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, "k1:9092,k2:9092", w.Addr.String())
	assert.Equal(t, "activity", w.Topic)
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)
	require.NoError(t, p.Close())
}

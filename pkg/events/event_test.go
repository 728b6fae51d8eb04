package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingPublisher struct {
	got []Event
	err error
}

func (r *recordingPublisher) Publish(ctx context.Context, event Event) error {
	r.got = append(r.got, event)
	return r.err
}

func TestFanoutPublishesToAll(t *testing.T) {
	a := &recordingPublisher{}
	b := &recordingPublisher{err: errors.New("down")}
	c := &recordingPublisher{}

	ev := BaseEvent{Type: RecommendationsServed, Data: map[string]interface{}{"k": "v"}, OccurredAt: time.Now()}
	err := Fanout{a, nil, b, c}.Publish(context.Background(), ev)

	assert.EqualError(t, err, "down")
	assert.Len(t, a.got, 1)
	assert.Len(t, b.got, 1)
	assert.Len(t, c.got, 1)
	assert.Equal(t, RecommendationsServed, c.got[0].EventType())
}

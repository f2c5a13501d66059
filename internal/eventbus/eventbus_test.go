package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func envelope(eventType, source string) *Envelope {
	return &Envelope{
		ID:        "test-id",
		Timestamp: time.Now().UTC(),
		Source:    source,
		EventType: eventType,
		Version:   1,
		Payload:   []byte(`{}`),
	}
}

func TestMemoryBus_DeliversToSubscriber(t *testing.T) {
	bus := NewMemoryBus(16)

	received := make(chan *Envelope, 1)
	_, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		received <- ev
	})
	assert.NoError(t, err, "Подписка не должна возвращать ошибку")

	err = bus.Publish(context.Background(), envelope("fluid.placed", "sim"))
	assert.NoError(t, err, "Публикация не должна возвращать ошибку")

	select {
	case ev := <-received:
		assert.Equal(t, "fluid.placed", ev.EventType, "Тип события должен сохраниться")
		assert.Equal(t, "sim", ev.Source, "Источник должен сохраниться")
	case <-time.After(2 * time.Second):
		t.Fatal("Событие не дошло до подписчика")
	}
}

func TestMemoryBus_FilterByType(t *testing.T) {
	bus := NewMemoryBus(16)

	frames := make(chan *Envelope, 4)
	other := make(chan *Envelope, 4)
	_, err := bus.Subscribe(context.Background(), Filter{Types: []string{"sim.frame"}}, func(ctx context.Context, ev *Envelope) {
		frames <- ev
	})
	assert.NoError(t, err)
	_, err = bus.Subscribe(context.Background(), Filter{Types: []string{"block.placed"}}, func(ctx context.Context, ev *Envelope) {
		other <- ev
	})
	assert.NoError(t, err)

	assert.NoError(t, bus.Publish(context.Background(), envelope("sim.frame", "sim")))

	select {
	case ev := <-frames:
		assert.Equal(t, "sim.frame", ev.EventType)
	case <-time.After(2 * time.Second):
		t.Fatal("Событие не дошло до подписчика по типу")
	}

	// Несовпадающий фильтр отсеивается до диспетчеризации
	select {
	case ev := <-other:
		t.Fatalf("Подписчик с чужим фильтром получил событие %s", ev.EventType)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBus_MetricsCountPublished(t *testing.T) {
	bus := NewMemoryBus(16)

	for i := 0; i < 3; i++ {
		assert.NoError(t, bus.Publish(context.Background(), envelope("sim.frame", "sim")))
	}

	stats := bus.Metrics()
	assert.Equal(t, uint64(3), stats.Published, "Все публикации должны быть учтены")
}

func TestMatchFilter(t *testing.T) {
	ev := envelope("fluid.placed", "sim")

	assert.True(t, matchFilter(ev, Filter{}), "Пустой фильтр пропускает всё")
	assert.True(t, matchFilter(ev, Filter{Types: []string{"fluid.placed"}}))
	assert.True(t, matchFilter(ev, Filter{Sources: []string{"sim"}}))
	assert.False(t, matchFilter(ev, Filter{Types: []string{"sim.frame"}}))
	assert.False(t, matchFilter(ev, Filter{Types: []string{"fluid.placed"}, Sources: []string{"cli"}}))
}

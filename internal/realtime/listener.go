// Package realtime delivers row change notifications published by the
// database triggers on the events and groups tables.
package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// Change is one row change. Type is INSERT, UPDATE or DELETE; Record is the
// new row, or the old one for a delete.
type Change struct {
	Table  string         `json:"table"`
	Type   string         `json:"type"`
	Record map[string]any `json:"record"`
}

type Handler func(Change)

type subscription struct {
	table  string
	filter Filter
	fn     Handler
}

type Listener struct {
	pool    *pgxpool.Pool
	channel string
	log     *logrus.Entry
	retry   time.Duration

	mu     sync.RWMutex
	nextID int
	subs   map[int]subscription
}

func NewListener(pool *pgxpool.Pool, channel string, log *logrus.Entry) *Listener {
	return &Listener{
		pool:    pool,
		channel: channel,
		log:     log,
		retry:   5 * time.Second,
		subs:    map[int]subscription{},
	}
}

// Subscribe registers fn for changes to table that match filter, e.g.
// "group_id=eq.5" or "" for every row. The returned function unsubscribes.
func (l *Listener) Subscribe(table, filter string, fn Handler) (func(), error) {
	f, err := ParseFilter(filter)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.subs[id] = subscription{table: table, filter: f, fn: fn}
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, id)
			l.mu.Unlock()
		})
	}, nil
}

func (l *Listener) dispatch(payload string) {
	var ch Change
	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
	dec.UseNumber()
	if err := dec.Decode(&ch); err != nil {
		l.log.WithError(err).Warn("Ignoring malformed change notification")
		return
	}

	l.mu.RLock()
	matched := make([]Handler, 0, len(l.subs))
	for _, s := range l.subs {
		if s.table == ch.Table && s.filter.Matches(ch.Record) {
			matched = append(matched, s.fn)
		}
	}
	l.mu.RUnlock()

	for _, fn := range matched {
		fn(ch)
	}
}

// Run listens until ctx is cancelled, reconnecting after connection errors.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		l.log.WithError(err).Warn("Change feed interrupted, reconnecting")

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.retry):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	pooled, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	conn := pooled.Hijack()
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen on %s: %w", l.channel, err)
	}
	l.log.WithField("channel", l.channel).Info("Listening for event changes")

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("wait for notification: %w", err)
		}
		l.dispatch(n.Payload)
	}
}

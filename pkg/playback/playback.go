package playback

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/qnkhuat/castedit/internal/cfg"
	"github.com/qnkhuat/castedit/pkg/cast"
	"github.com/qnkhuat/castedit/pkg/message"
)

// Sink receives replayed messages. *websocket.Conn satisfies it.
type Sink interface {
	WriteJSON(v interface{}) error
}

type Playback struct {
	rec       *cast.Recording
	speed     float64
	idleLimit float64 // seconds, 0 means no limit
	sleep     func(ctx context.Context, d time.Duration) error
}

type Option func(*Playback)

// WithSpeed replays speed times faster. Values <= 0 are ignored.
func WithSpeed(speed float64) Option {
	return func(p *Playback) {
		if speed > 0 {
			p.speed = math.Min(speed, cfg.PLAYBACK_MAX_SPEED)
		}
	}
}

// WithIdleLimit caps every pause at limit seconds, overriding the header's idle_time_limit.
func WithIdleLimit(limit float64) Option {
	return func(p *Playback) {
		if limit > 0 {
			p.idleLimit = limit
		}
	}
}

func withSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Playback) {
		p.sleep = sleep
	}
}

func New(rec *cast.Recording, opts ...Option) *Playback {
	p := &Playback{
		rec:   rec,
		speed: 1,
		sleep: sleepCtx,
	}
	if h, err := rec.Header(); err == nil {
		p.idleLimit = h.IdleTimeLimit
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Delay is how long to wait before event i.
func (p *Playback) Delay(i int) time.Duration {
	prev := 0.0
	if i > 0 {
		prev = p.rec.Time(i - 1)
	}
	gap := p.rec.Time(i) - prev
	if gap < 0 {
		gap = 0
	}
	if p.idleLimit > 0 && gap > p.idleLimit {
		gap = p.idleLimit
	}
	return time.Duration(gap / p.speed * float64(time.Second))
}

// Play sends every event to out in real time, then a Close message.
// Input events are skipped.
func (p *Playback) Play(ctx context.Context, out Sink) error {
	for i, ev := range p.rec.Events {
		if err := p.sleep(ctx, p.Delay(i)); err != nil {
			return err
		}

		msg, ok := toMessage(ev)
		if !ok {
			continue
		}
		if err := out.WriteJSON(msg); err != nil {
			log.Printf("Failed to send event %d: %s", i, err)
			return err
		}
	}
	return out.WriteJSON(message.Wrapper{Type: message.TClose})
}

func toMessage(ev cast.Event) (message.Wrapper, bool) {
	data, ok := ev.Data()
	if !ok {
		return message.Wrapper{}, false
	}

	switch ev.Type() {
	case message.EOut:
		return message.Wrapper{Type: message.TWrite, Data: []byte(data)}, true
	case message.EMarker:
		return message.Wrapper{Type: message.TMarker, Data: []byte(data)}, true
	case message.EResize:
		ws, err := message.ParseWinsize(data)
		if err != nil {
			log.Printf("Skip resize event: %s", err)
			return message.Wrapper{}, false
		}
		msg, err := message.Wrap(message.TWinsize, ws)
		if err != nil {
			return message.Wrapper{}, false
		}
		return msg, true
	default:
		return message.Wrapper{}, false
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

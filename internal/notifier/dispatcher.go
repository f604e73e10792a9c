package notifier

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/julianstephens/flowmind/internal/constants"
	"github.com/julianstephens/flowmind/internal/focus"
	"github.com/julianstephens/flowmind/internal/logger"
	"github.com/julianstephens/flowmind/internal/models"
)

// Sender delivers notifications and badge updates. *Notifier is the
// production implementation.
type Sender interface {
	Notify(title, text string) error
	SetBadge(minutes int) error
	ClearBadge() error
}

// SoundPlayer plays url with the configured player command line.
type SoundPlayer func(ctx context.Context, player, url string) error

// Dispatcher turns focus engine effects into tray webhooks and sound
// playback. Every call returns immediately; failures are logged. Tray calls
// are delivered one at a time in call order so a badge update never lands
// after the clear that followed it. Sounds play concurrently.
type Dispatcher struct {
	sender   Sender
	settings models.Settings
	play     SoundPlayer
	ctx      context.Context
	wg       sync.WaitGroup

	mu       sync.Mutex
	pending  []effect
	draining bool
}

type effect struct {
	kind string
	fn   func() error
}

type DispatcherOption func(*Dispatcher)

func WithSoundPlayer(play SoundPlayer) DispatcherOption {
	return func(d *Dispatcher) { d.play = play }
}

// WithContext bounds the lifetime of spawned sound players.
func WithContext(ctx context.Context) DispatcherOption {
	return func(d *Dispatcher) { d.ctx = ctx }
}

func NewDispatcher(sender Sender, settings models.Settings, opts ...DispatcherOption) *Dispatcher {
	models.ApplyDefaultSettings(&settings)
	d := &Dispatcher{
		sender:   sender,
		settings: settings,
		play:     ExecSoundPlayer,
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

var _ focus.Effects = (*Dispatcher)(nil)

func (d *Dispatcher) ShowNotification(title, body string) {
	if !d.settings.NotificationsEnabled {
		return
	}
	d.enqueue("notification", func() error { return d.sender.Notify(title, body) })
}

func (d *Dispatcher) PlaySound(url string) {
	if url == "" {
		url = constants.DefaultAlarmSound
	}
	player := d.settings.SoundPlayer
	d.async("sound", func() error { return d.play(d.ctx, player, url) })
}

func (d *Dispatcher) SetBadge(minutes int) {
	d.enqueue("badge", func() error { return d.sender.SetBadge(minutes) })
}

func (d *Dispatcher) ClearBadge() {
	d.enqueue("badge", d.sender.ClearBadge)
}

func (d *Dispatcher) Preferences() focus.Preferences {
	return focus.Preferences{
		PlayFocusEndSound: d.settings.PlayFocusEndSound,
		PlayBreakEndSound: d.settings.PlayBreakEndSound,
		FocusEndSound:     d.settings.FocusEndSound,
		BreakEndSound:     d.settings.BreakEndSound,
	}
}

// Wait blocks until every dispatched effect has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) async(kind string, fn func() error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		run(effect{kind: kind, fn: fn})
	}()
}

// enqueue appends fn to the tray queue, starting a drain goroutine when
// none is running.
func (d *Dispatcher) enqueue(kind string, fn func() error) {
	d.mu.Lock()
	d.pending = append(d.pending, effect{kind: kind, fn: fn})
	if d.draining {
		d.mu.Unlock()
		return
	}
	d.draining = true
	d.wg.Add(1)
	d.mu.Unlock()
	go d.drain()
}

func (d *Dispatcher) drain() {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		if len(d.pending) == 0 {
			d.draining = false
			d.mu.Unlock()
			return
		}
		next := d.pending[0]
		d.pending = d.pending[1:]
		d.mu.Unlock()
		run(next)
	}
}

func run(e effect) {
	if err := e.fn(); err != nil {
		logger.Warn("Effect dispatch failed", "kind", e.kind, "error", err)
	}
}

// ExecSoundPlayer runs player with url appended as the last argument.
func ExecSoundPlayer(ctx context.Context, player, url string) error {
	args := strings.Fields(player)
	if len(args) == 0 {
		return fmt.Errorf("no sound player configured")
	}
	args = append(args, url)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", args[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	irrigation "irrigation_panel"
	"irrigation_panel/internal/logger"
	"irrigation_panel/internal/models"
	"irrigation_panel/internal/repository"
)

const (
	defaultSaveDelay = 5 * time.Second
	shutdownTimeout  = 5 * time.Second
	masterChannel    = 0
)

// ErrInvalidArgument is returned for out of range macro arguments.
var ErrInvalidArgument = errors.New("invalid argument")

// ControllerOptions configure a ControllerService.
type ControllerOptions struct {
	Relays    Relays
	Publisher StatusPublisher
	SaveDelay time.Duration
	Logger    *logger.Logger
	Clock     func() time.Time
}

// ControllerService is the irrigation controller: it owns the schedule, the
// manual queue and the relay bank.
//
// In auto mode a run starts at the scheduled time on enabled days and waters
// channels 1-15 with a non-zero duration one after the other, with the master
// channel on for the whole run. In manual mode channels are switched on
// explicitly; requests made while a channel runs are queued.
type ControllerService struct {
	settingsRepo repository.SettingsRepo
	eventRepo    repository.EventRepo
	relays       Relays
	publisher    StatusPublisher
	log          *logger.Logger
	now          func() time.Time
	saveDelay    time.Duration

	mu        sync.Mutex
	settings  models.Settings
	started   [models.Channels]time.Time // zero when off
	queue     []int
	dirty     bool
	lastSave  time.Time
	lastStart time.Time // minute of the last scheduled start
}

func NewControllerService(settingsRepo repository.SettingsRepo, eventRepo repository.EventRepo, opts ControllerOptions) *ControllerService {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	saveDelay := opts.SaveDelay
	if saveDelay <= 0 {
		saveDelay = defaultSaveDelay
	}
	log := opts.Logger.Named("controller")
	relays := opts.Relays
	if relays == nil {
		relays = NewMemoryRelays(log, nil)
	}
	return &ControllerService{
		settingsRepo: settingsRepo,
		eventRepo:    eventRepo,
		relays:       relays,
		publisher:    opts.Publisher,
		log:          log,
		now:          clock,
		saveDelay:    saveDelay,
	}
}

// Load switches every relay off and restores the saved settings.
func (s *ControllerService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for c := 0; c < models.Channels; c++ {
		if err := s.relays.Set(c, false); err != nil {
			s.log.Warnw("relay_reset_failed", "channel", c, "err", err)
		}
	}

	st, err := s.settingsRepo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if st.ID == 0 {
		s.log.Infow("settings_defaults")
		return nil
	}
	s.settings = st
	s.log.Infow("settings_loaded", "mode", s.modeLocked(), "start", s.startLocked())
	return nil
}

// Run ticks until ctx is cancelled.
func (s *ControllerService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			s.Shutdown(shutdownCtx)
			cancel()
			return
		case <-t.C:
			s.Tick(ctx, s.now())
		}
	}
}

// Tick starts a scheduled run when due, ends channels whose duration elapsed
// and saves dirty settings.
func (s *ControllerService) Tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settings.Auto {
		s.checkStartLocked(ctx, now)
	}
	s.advanceLocked(ctx, now)
	s.checkSaveLocked(ctx, now)
}

// Shutdown switches every channel off and saves pending settings.
func (s *ControllerService) Shutdown(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for c := 0; c < models.Channels; c++ {
		if s.runningLocked(c) {
			s.turnOffLocked(ctx, c)
		}
	}
	if s.dirty {
		s.saveLocked(ctx, s.now())
	}
}

// weekday maps Go's Sunday-first week to Monday = 0.
func weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func (s *ControllerService) checkStartLocked(ctx context.Context, now time.Time) {
	st := s.settings
	if !st.Days[weekday(now)] || now.Hour() != st.StartHour || now.Minute() != st.StartMinute {
		return
	}
	if s.runningLocked(masterChannel) {
		return
	}
	minute := now.Truncate(time.Minute)
	if s.lastStart.Equal(minute) {
		return
	}
	n := s.nextAutoLocked(1)
	if n == 0 {
		return
	}
	s.lastStart = minute
	s.recordLocked(ctx, models.ChannelEvent{
		Type:        models.EventSchedule,
		Channel:     -1,
		Description: "scheduled run started",
		Metadata:    map[string]any{"start": s.startLocked(), "day": weekday(now)},
	})
	s.turnOnLocked(ctx, masterChannel)
	s.turnOnLocked(ctx, n)
}

// nextAutoLocked returns the first channel from index on with a duration that is
// not running, or 0.
func (s *ControllerService) nextAutoLocked(index int) int {
	for c := index; c < models.Channels; c++ {
		if s.settings.Durations[c] > 0 && !s.runningLocked(c) {
			return c
		}
	}
	return 0
}

func (s *ControllerService) advanceLocked(ctx context.Context, now time.Time) {
	for c := 1; c < models.Channels; c++ {
		if !s.runningLocked(c) {
			continue
		}
		limit := time.Duration(s.settings.Durations[c]) * time.Minute
		if now.Sub(s.started[c]) < limit {
			continue
		}
		s.turnOffLocked(ctx, c)

		next := 0
		if s.settings.Auto {
			next = s.nextAutoLocked(c + 1)
		} else if len(s.queue) > 0 {
			next = s.popLocked()
		}
		if next > 0 {
			s.turnOnLocked(ctx, next)
		} else {
			s.turnOffLocked(ctx, masterChannel)
		}
	}
}

func (s *ControllerService) checkSaveLocked(ctx context.Context, now time.Time) {
	if s.dirty && now.Sub(s.lastSave) > s.saveDelay {
		s.saveLocked(ctx, now)
	}
}

func (s *ControllerService) saveLocked(ctx context.Context, now time.Time) {
	st := s.settings
	st.UpdatedAt = now
	if err := s.settingsRepo.Save(ctx, st); err != nil {
		s.log.Errorw("settings_save_failed", "err", err)
		return
	}
	s.lastSave = now
	s.dirty = false
	s.log.Debugw("settings_saved")
}

func (s *ControllerService) runningLocked(c int) bool {
	return !s.started[c].IsZero()
}

func (s *ControllerService) popLocked() int {
	c := s.queue[0]
	s.queue = s.queue[1:]
	return c
}

func (s *ControllerService) turnOnLocked(ctx context.Context, c int) {
	if c == masterChannel {
		s.log.Infow("channel_on", "channel", c, "master", true)
	} else {
		s.log.Infow("channel_on", "channel", c, "minutes", s.settings.Durations[c])
	}
	s.switchLocked(ctx, c, true)
}

func (s *ControllerService) turnOffLocked(ctx context.Context, c int) {
	s.log.Infow("channel_off", "channel", c)
	s.switchLocked(ctx, c, false)
}

func (s *ControllerService) switchLocked(ctx context.Context, c int, on bool) {
	now := s.now()
	if err := s.relays.Set(c, on); err != nil {
		s.log.Errorw("relay_failed", "channel", c, "on", on, "err", err)
	}
	typ, desc := models.EventOff, fmt.Sprintf("channel %d off", c)
	if on {
		s.started[c] = now
		typ, desc = models.EventOn, fmt.Sprintf("channel %d on", c)
	} else {
		s.started[c] = time.Time{}
	}
	s.recordLocked(ctx, models.ChannelEvent{OccurredAt: now, Type: typ, Channel: c, Description: desc})

	if s.publisher != nil {
		if err := s.publisher.PublishStatus(ctx, ChannelStatus{Channel: c, On: on, At: now.UTC()}); err != nil {
			s.log.Warnw("status_publish_failed", "channel", c, "err", err)
		}
	}
}

func (s *ControllerService) recordLocked(ctx context.Context, e models.ChannelEvent) {
	if s.eventRepo == nil {
		return
	}
	if err := s.eventRepo.Append(ctx, e); err != nil {
		s.log.Warnw("event_append_failed", "type", e.Type, "channel", e.Channel, "err", err)
	}
}

func (s *ControllerService) modeLocked() string {
	if s.settings.Auto {
		return irrigation.ModeAuto
	}
	return irrigation.ModeManual
}

func (s *ControllerService) startLocked() string {
	return fmt.Sprintf("%02d:%02d", s.settings.StartHour, s.settings.StartMinute)
}

// Snapshot returns the getAll view of the controller. Channels that will run
// later are reported as waiting: queued channels in manual mode, otherwise the
// channels with a duration after the running one.
func (s *ControllerService) Snapshot() irrigation.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := irrigation.Snapshot{
		Mode:      s.modeLocked(),
		Start:     s.startLocked(),
		Days:      make(irrigation.IndexedInts, models.Days),
		Channels:  make(irrigation.IndexedInts, models.Channels),
		Durations: make(irrigation.IndexedInts, models.Channels),
	}
	for d, on := range s.settings.Days {
		snap.Days[d] = boolInt(on)
	}
	for c := 0; c < models.Channels; c++ {
		snap.Durations[c] = s.settings.Durations[c]
		snap.Channels[c] = boolInt(s.runningLocked(c))
	}

	if s.runningLocked(masterChannel) && !s.settings.Auto {
		for _, c := range s.queue {
			snap.Channels[c] = irrigation.ChannelWaiting
		}
		return snap
	}
	c := 1
	for c < models.Channels && !s.runningLocked(c) {
		c++
	}
	for c++; c < models.Channels; c++ {
		if s.settings.Durations[c] > 0 {
			snap.Channels[c] = irrigation.ChannelWaiting
		}
	}
	return snap
}

// SetMode switches between auto and manual and stops every running channel.
// Unknown modes only stop the channels. It returns the resulting mode.
func (s *ControllerService) SetMode(ctx context.Context, mode string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch mode {
	case irrigation.ModeAuto:
		s.settings.Auto = true
		s.queue = nil
	case irrigation.ModeManual:
		s.settings.Auto = false
	}
	for c := 0; c < models.Channels; c++ {
		if s.runningLocked(c) {
			s.turnOffLocked(ctx, c)
		}
	}
	s.dirty = true
	s.recordLocked(ctx, models.ChannelEvent{
		Type:        models.EventModeChange,
		Channel:     -1,
		Description: "mode " + s.modeLocked(),
		Metadata:    map[string]any{"requested": mode},
	})
	return s.modeLocked()
}

// SetStart sets the scheduled start time and returns it as "HH:MM".
func (s *ControllerService) SetStart(ctx context.Context, hour, minute int) (string, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", fmt.Errorf("%w: start %d:%d", ErrInvalidArgument, hour, minute)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings.StartHour, s.settings.StartMinute = hour, minute
	s.dirty = true
	return s.startLocked(), nil
}

// SetDay enables or disables a week day and returns its new flag.
func (s *ControllerService) SetDay(ctx context.Context, day int, enabled bool) (int, error) {
	if day < 0 || day >= models.Days {
		return 0, fmt.Errorf("%w: day %d", ErrInvalidArgument, day)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings.Days[day] = enabled
	s.dirty = true
	return boolInt(enabled), nil
}

// SetDuration sets a channel's watering time in minutes and returns it.
func (s *ControllerService) SetDuration(ctx context.Context, channel, minutes int) (int, error) {
	if channel < 0 || channel >= models.Channels || minutes < 0 {
		return 0, fmt.Errorf("%w: duration %d for channel %d", ErrInvalidArgument, minutes, channel)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings.Durations[channel] = minutes
	s.dirty = true
	return minutes, nil
}

// SwitchMaster starts or stops a manual run. Switching on fills an empty queue
// with every channel that has a duration and starts the first one. In auto
// mode nothing changes and the master state is returned.
func (s *ControllerService) SwitchMaster(ctx context.Context, on bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settings.Auto {
		return boolInt(s.runningLocked(masterChannel)), nil
	}

	if !on {
		s.queue = nil
		for c := 0; c < models.Channels; c++ {
			if s.runningLocked(c) {
				s.turnOffLocked(ctx, c)
			}
		}
		return 0, nil
	}

	if len(s.queue) == 0 {
		for c := 1; c < models.Channels; c++ {
			if s.settings.Durations[c] > 0 {
				s.queue = append(s.queue, c)
			}
		}
	}
	if len(s.queue) == 0 {
		s.log.Infow("switch_master_ignored", "reason", "no channel has a duration")
		return 0, nil
	}
	c := s.popLocked()
	s.turnOnLocked(ctx, masterChannel)
	s.turnOnLocked(ctx, c)
	return 1, nil
}

// SwitchChannel switches one channel in manual mode and reports its state
// as 1 (on), 0 (off) or -1 (waiting). In auto mode it only reports the state.
func (s *ControllerService) SwitchChannel(ctx context.Context, channel int, on bool) (int, error) {
	if channel < 0 || channel >= models.Channels {
		return 0, fmt.Errorf("%w: channel %d", ErrInvalidArgument, channel)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if channel == masterChannel {
		return boolInt(s.runningLocked(masterChannel)), nil
	}

	if s.settings.Auto {
		return s.autoStateLocked(channel), nil
	}

	if on {
		if !s.runningLocked(masterChannel) {
			s.turnOnLocked(ctx, masterChannel)
			s.turnOnLocked(ctx, channel)
			return irrigation.ChannelOn, nil
		}
		if s.runningLocked(channel) {
			return irrigation.ChannelOn, nil
		}
		if !slices.Contains(s.queue, channel) {
			s.queue = append(s.queue, channel)
		}
		return irrigation.ChannelWaiting, nil
	}

	if i := slices.Index(s.queue, channel); i >= 0 {
		s.queue = slices.Delete(s.queue, i, i+1)
	}
	if s.runningLocked(channel) {
		s.turnOffLocked(ctx, channel)
		if len(s.queue) > 0 {
			s.turnOnLocked(ctx, s.popLocked())
		} else {
			s.turnOffLocked(ctx, masterChannel)
		}
	}
	return irrigation.ChannelOff, nil
}

func (s *ControllerService) autoStateLocked(channel int) int {
	if s.settings.Durations[channel] == 0 {
		return irrigation.ChannelOff
	}
	if s.runningLocked(channel) {
		return irrigation.ChannelOn
	}
	for c := 1; c < channel; c++ {
		if s.runningLocked(c) {
			return irrigation.ChannelWaiting
		}
	}
	return irrigation.ChannelOff
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

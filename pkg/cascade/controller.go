package cascade

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-regioncascade/pkg/region"
)

type level struct {
	name    string
	options []region.Region
	value   string
}

func (l level) option(id string) (region.Region, bool) {
	for _, opt := range l.options {
		if opt.ID == id {
			return opt, true
		}
	}
	return region.Region{}, false
}

// Controller owns the selector chain, the committed regions and the ancestor
// queue of one form instance.
type Controller struct {
	mu     sync.Mutex
	source Source
	opts   Options

	levels    []level
	committed []region.Committed
	queue     []string
	phase     Phase
	token     uint64
	busy      bool
	stalled   bool
	dirty     bool
	stored    string
	alert     string
}

// New constructs a controller backed by source.
func New(source Source, fns ...OptionFn) (*Controller, error) {
	if source == nil {
		return nil, ErrMissingSource
	}
	return &Controller{
		source: source,
		opts:   NewOptions(fns...),
	}, nil
}

// Options returns the controller configuration.
func (c *Controller) Options() Options {
	return c.opts
}

// Reset discards all state and returns the controller to PhaseIdle.
// In-flight fetches are invalidated.
func (c *Controller) Reset() {
	c.mu.Lock()
	from := c.phase
	c.resetLocked()
	c.mu.Unlock()
	c.notifyPhase(from, PhaseIdle)
}

func (c *Controller) resetLocked() {
	c.levels = nil
	c.committed = nil
	c.queue = nil
	c.phase = PhaseIdle
	c.token++
	c.busy = false
	c.stalled = false
	c.dirty = false
	c.stored = ""
	c.alert = ""
}

// Initialize builds the top-level selector from roots with no value chosen.
// When stored carries a saved selection, the ancestor chain of its last id is
// fetched and replayed: each rendered level pre-selects the queued id it
// contains and expands to the next level until the queue drains or a level
// has no match.
func (c *Controller) Initialize(ctx context.Context, roots []region.Region, stored string) error {
	c.mu.Lock()
	from := c.phase
	c.resetLocked()
	c.stored = stored

	rootLevel := c.opts.RootLevel
	if len(roots) > 0 && strings.TrimSpace(roots[0].Level) != "" {
		rootLevel = roots[0].Level
	}
	c.levels = []level{{name: rootLevel, options: cloneRegions(roots)}}

	ids := region.ParseStored(stored)
	if len(ids) == 0 {
		c.phase = PhaseInteractive
		c.mu.Unlock()
		c.notifyPhase(from, PhaseInteractive)
		return nil
	}

	target := ids[len(ids)-1]
	c.phase = PhaseRestoring
	c.busy = true
	token := c.token
	c.mu.Unlock()
	c.notifyPhase(from, PhaseRestoring)

	c.opts.Logger.Debug("cascade_restore_begin", "target", target)
	ancestors, err := c.source.Ancestors(ctx, target)

	c.mu.Lock()
	if token != c.token {
		c.mu.Unlock()
		return ErrStale
	}
	if err != nil {
		return c.failLocked(ctx, "ancestors", err)
	}
	if len(ancestors) == 0 {
		c.busy = false
		changed := c.finishRestoreLocked()
		c.mu.Unlock()
		if changed {
			c.notifyPhase(PhaseRestoring, PhaseInteractive)
		}
		return nil
	}

	c.queue = buildQueue(ancestors, target)
	root := &c.levels[0]
	root.value = c.dequeueMatchLocked(root.options)
	if root.value == "" {
		c.busy = false
		changed := c.finishRestoreLocked()
		c.mu.Unlock()
		if changed {
			c.notifyPhase(PhaseRestoring, PhaseInteractive)
		}
		return nil
	}
	c.mu.Unlock()

	return c.expand(ctx, token, 0)
}

// LevelChanged applies a new value to the selector at index. A non-empty
// value drops every deeper selector and fetches the child level; an empty
// value only drops the deeper selectors.
func (c *Controller) LevelChanged(ctx context.Context, index int, value string) error {
	value = strings.TrimSpace(value)

	c.mu.Lock()
	c.alert = ""
	if index < 0 || index >= len(c.levels) {
		c.mu.Unlock()
		return ErrIndexOutOfRange
	}
	if c.stalled {
		c.mu.Unlock()
		return ErrDisabled
	}
	lvl := &c.levels[index]
	if c.isCommittedLocked(lvl.value) {
		c.mu.Unlock()
		return ErrLocked
	}
	if value != "" {
		if _, ok := lvl.option(value); !ok {
			c.mu.Unlock()
			return fmt.Errorf("%w: %q", ErrUnknownOption, value)
		}
	}

	lvl.value = value
	c.levels = c.levels[:index+1]
	c.token++

	restoring := c.finishRestoreLocked()
	if value == "" {
		c.busy = false
		c.mu.Unlock()
		if restoring {
			c.notifyPhase(PhaseRestoring, PhaseInteractive)
		}
		return nil
	}

	c.busy = true
	token := c.token
	c.mu.Unlock()
	if restoring {
		c.notifyPhase(PhaseRestoring, PhaseInteractive)
	}

	return c.expand(ctx, token, index)
}

// expand fetches the children of the selector at index and appends the next
// level. While a pre-selected option is found the expansion continues one
// level deeper under the same token.
func (c *Controller) expand(ctx context.Context, token uint64, index int) error {
	for {
		c.mu.Lock()
		if token != c.token {
			c.mu.Unlock()
			return ErrStale
		}
		parent := c.levels[index].value
		c.mu.Unlock()

		children, err := c.source.Children(ctx, parent)

		c.mu.Lock()
		if token != c.token {
			c.mu.Unlock()
			c.opts.Logger.Debug("cascade_stale_response", "parent", parent, "token", token)
			return ErrStale
		}
		if err != nil {
			return c.failLocked(ctx, "children", err)
		}

		if len(children) == 0 {
			c.busy = false
			changed := c.finishRestoreLocked()
			c.mu.Unlock()
			if changed {
				c.notifyPhase(PhaseRestoring, PhaseInteractive)
			}
			return nil
		}

		next := level{name: children[0].Level, options: cloneRegions(children)}
		if c.phase == PhaseRestoring {
			next.value = c.dequeueMatchLocked(next.options)
		}
		c.levels = append(c.levels, next)

		if next.value == "" {
			c.busy = false
			changed := c.finishRestoreLocked()
			c.mu.Unlock()
			if changed {
				c.notifyPhase(PhaseRestoring, PhaseInteractive)
			}
			return nil
		}

		index = len(c.levels) - 1
		c.mu.Unlock()
	}
}

// failLocked records a fetch failure: selectors stay disabled and the user is
// alerted. The lock is released before the notifier runs.
func (c *Controller) failLocked(ctx context.Context, op string, err error) error {
	c.busy = false
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		c.mu.Unlock()
		return err
	}
	status := statusOf(err)
	c.stalled = true
	c.alert = c.opts.ErrorServerMessage + "Error " + strconv.Itoa(status)
	msg := c.alert
	c.mu.Unlock()

	c.opts.Logger.Warn("cascade_fetch_failed", "op", op, "status", status, "err", err)
	if c.opts.Notifier != nil {
		c.opts.Notifier.Alert(ctx, msg)
	}
	return &FetchError{Op: op, Status: status, Err: err}
}

// Add commits the value of every selector, skipping empty values and regions
// already committed. It returns the newly committed regions.
func (c *Controller) Add() []region.Committed {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.alert = ""
	var added []region.Committed
	for _, lvl := range c.levels {
		if lvl.value == "" || c.isCommittedLocked(lvl.value) {
			continue
		}
		opt, ok := lvl.option(lvl.value)
		if !ok {
			continue
		}
		name := opt.Level
		if name == "" {
			name = lvl.name
		}
		entry := region.Committed{
			ID:    opt.ID,
			Name:  opt.Name,
			Level: name,
			Code:  c.opts.LevelCodes.Code(name),
		}
		c.committed = append(c.committed, entry)
		added = append(added, entry)
	}
	if len(added) > 0 {
		c.dirty = true
	}
	return added
}

// Remove drops a committed region, re-enabling its option and selector.
func (c *Controller) Remove(id string) error {
	id = strings.TrimSpace(id)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.alert = ""
	for i, entry := range c.committed {
		if entry.ID != id {
			continue
		}
		c.committed = append(c.committed[:i:i], c.committed[i+1:]...)
		c.dirty = true
		return nil
	}
	return fmt.Errorf("%w: %q", ErrNotCommitted, id)
}

// AddEnabled reports whether the first selector has a value.
func (c *Controller) AddEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addEnabledLocked()
}

// SubmitEnabled reports whether at least one region is committed.
func (c *Controller) SubmitEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.committed) > 0
}

// HiddenValue returns the hidden field content: the stored seed until the
// committed set first changes, then the JSON encoding of committed regions.
func (c *Controller) HiddenValue() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hiddenValueLocked()
}

// Phase returns the current chain phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Snapshot returns a copy of the controller state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	committedSet := make(map[string]struct{}, len(c.committed))
	for _, entry := range c.committed {
		committedSet[entry.ID] = struct{}{}
	}

	selectors := make([]Selector, 0, len(c.levels))
	for i, lvl := range c.levels {
		_, locked := committedSet[lvl.value]
		sel := Selector{
			Index:    i,
			Level:    lvl.name,
			ID:       region.SelectID(lvl.name),
			Label:    strings.ToUpper(lvl.name),
			Value:    lvl.value,
			Disabled: c.busy || c.stalled || c.phase == PhaseRestoring || (lvl.value != "" && locked),
			Options:  make([]Option, 0, len(lvl.options)),
		}
		for _, opt := range lvl.options {
			_, committed := committedSet[opt.ID]
			sel.Options = append(sel.Options, Option{
				ID:       opt.ID,
				Name:     opt.Name,
				Level:    opt.Level,
				Disabled: committed,
				Selected: opt.ID == lvl.value,
			})
		}
		selectors = append(selectors, sel)
	}

	return Snapshot{
		Phase:         c.phase,
		Busy:          c.busy,
		Stalled:       c.stalled,
		Selectors:     selectors,
		Committed:     append([]region.Committed(nil), c.committed...),
		Pending:       append([]string(nil), c.queue...),
		AddEnabled:    c.addEnabledLocked(),
		SubmitEnabled: len(c.committed) > 0,
		HiddenValue:   c.hiddenValueLocked(),
		Alert:         c.alert,
		Placeholder:   c.opts.Placeholder,
	}
}

func (c *Controller) addEnabledLocked() bool {
	return len(c.levels) > 0 && c.levels[0].value != ""
}

func (c *Controller) hiddenValueLocked() string {
	if !c.dirty {
		return c.stored
	}
	encoded, err := region.EncodeCommitted(c.committed)
	if err != nil {
		c.opts.Logger.Error("cascade_encode_failed", "err", err)
		return ""
	}
	return encoded
}

func (c *Controller) isCommittedLocked(id string) bool {
	if id == "" {
		return false
	}
	for _, entry := range c.committed {
		if entry.ID == id {
			return true
		}
	}
	return false
}

// dequeueMatchLocked returns the first option whose id is queued and removes
// that id from the queue.
func (c *Controller) dequeueMatchLocked(options []region.Region) string {
	for _, opt := range options {
		for i, id := range c.queue {
			if id != opt.ID {
				continue
			}
			c.queue = append(c.queue[:i:i], c.queue[i+1:]...)
			return opt.ID
		}
	}
	return ""
}

// finishRestoreLocked ends restoration. It reports whether the phase changed.
func (c *Controller) finishRestoreLocked() bool {
	c.queue = nil
	if c.phase != PhaseRestoring {
		return false
	}
	c.phase = PhaseInteractive
	return true
}

func (c *Controller) notifyPhase(from, to Phase) {
	if from == to {
		return
	}
	c.opts.Logger.Debug("cascade_phase", "from", from.String(), "to", to.String())
	if c.opts.OnPhase != nil {
		c.opts.OnPhase(from, to)
	}
}

func buildQueue(ancestors []string, target string) []string {
	queue := make([]string, 0, len(ancestors)+1)
	seen := make(map[string]struct{}, len(ancestors)+1)
	for _, id := range append(append([]string(nil), ancestors...), target) {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		queue = append(queue, id)
	}
	return queue
}

func cloneRegions(in []region.Region) []region.Region {
	if len(in) == 0 {
		return nil
	}
	return append([]region.Region(nil), in...)
}

package checker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"

	"github.com/DarkFirexs/Parser/internal/dedup"
	"github.com/DarkFirexs/Parser/internal/model"
	"github.com/DarkFirexs/Parser/internal/parser"
)

const (
	DefaultWorkers = 30
	progressEvery  = 50
)

// Rejection reasons. A descriptor stops at the first gate it fails.
var (
	ErrUnparsable  = errors.New("unparsable descriptor")
	ErrProtocol    = errors.New("unsupported protocol")
	ErrSecurity    = errors.New("security mode not accepted")
	ErrServerName  = errors.New("server name not allow-listed")
	ErrUnreachable = errors.New("tcp probe failed")
)

// Checker gates, probes, geolocates and scores descriptors.
type Checker struct {
	policy  Policy
	parse   dedup.ParseFunc
	prober  Prober
	locator Locator
	log     *slog.Logger

	checked atomic.Int64
}

// Option customizes a Checker.
type Option func(*Checker)

// WithParser replaces parser.Parse.
func WithParser(parse dedup.ParseFunc) Option {
	return func(c *Checker) { c.parse = parse }
}

// WithLogger sets the logger used for rejections and progress.
func WithLogger(log *slog.Logger) Option {
	return func(c *Checker) { c.log = log }
}

// New returns a Checker. The policy is copied, so later changes by the
// caller have no effect.
func New(policy Policy, prober Prober, locator Locator, opts ...Option) *Checker {
	c := &Checker{
		policy:  policy.clone(),
		parse:   parser.Parse,
		prober:  prober,
		locator: locator,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns a copy of the checker's policy.
func (c *Checker) Policy() Policy {
	return c.policy.clone()
}

// Checked is the number of completed checks, passed or not.
func (c *Checker) Checked() int64 {
	return c.checked.Load()
}

// Check runs the full gate chain for one raw descriptor. It reports false
// for any rejection and for any panic raised while checking.
func (c *Checker) Check(ctx context.Context, raw string) (vd model.ValidatedDescriptor, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("check panicked", "raw", raw, "panic", fmt.Sprint(r))
			vd, ok = model.ValidatedDescriptor{}, false
		}
		if n := c.checked.Add(1); n%progressEvery == 0 {
			c.log.Info("check progress", "checked", n)
		}
	}()

	vd, err := c.evaluate(ctx, raw)
	if err != nil {
		c.log.Debug("descriptor rejected", "reason", err.Error(), "raw", raw)
		return model.ValidatedDescriptor{}, false
	}
	return vd, true
}

func (c *Checker) evaluate(ctx context.Context, raw string) (model.ValidatedDescriptor, error) {
	d, ok := c.parse(raw)
	if !ok {
		return model.ValidatedDescriptor{}, ErrUnparsable
	}
	if d.Protocol != model.ProtocolVLESS {
		return model.ValidatedDescriptor{}, ErrProtocol
	}
	if d.Security != c.policy.Security {
		return model.ValidatedDescriptor{}, ErrSecurity
	}
	if !c.policy.AllowsServerName(d.ServerName) {
		return model.ValidatedDescriptor{}, ErrServerName
	}
	if !c.prober.Reachable(ctx, d.Host, d.Port) {
		return model.ValidatedDescriptor{}, ErrUnreachable
	}

	if d.Transport == "" {
		d.Transport = model.DefaultTransport
	}

	return model.ValidatedDescriptor{
		Descriptor:   d,
		Country:      c.country(ctx, d.Host),
		QualityScore: c.policy.Score(d),
	}, nil
}

// country never fails: lookup errors degrade to model.UnknownCountry.
func (c *Checker) country(ctx context.Context, host string) string {
	if c.locator == nil {
		return model.UnknownCountry
	}
	code, err := c.locator.Country(ctx, host)
	if err != nil || code == "" {
		if err != nil {
			c.log.Debug("geo lookup failed", "host", host, "err", err)
		}
		return model.UnknownCountry
	}
	return code
}

// RunBatch checks every raw descriptor on a pool of workers and returns one
// entry per descriptor that passed, in completion order.
func (c *Checker) RunBatch(ctx context.Context, raws []string, workers int) []model.ValidatedDescriptor {
	if workers < 1 {
		workers = 1
	}

	var (
		mu  sync.Mutex
		out = make([]model.ValidatedDescriptor, 0, len(raws))
		wg  sync.WaitGroup
	)

	collect := func(raw string) {
		vd, ok := c.Check(ctx, raw)
		if !ok {
			return
		}
		mu.Lock()
		out = append(out, vd)
		mu.Unlock()
	}

	pool, err := ants.NewPoolWithFunc(workers, func(item any) {
		defer wg.Done()
		collect(item.(string))
	}, ants.WithPanicHandler(func(p any) {
		c.log.Error("worker panicked", "panic", fmt.Sprint(p))
	}))
	if err != nil {
		c.log.Warn("worker pool unavailable, checking sequentially", "err", err)
		for _, raw := range raws {
			collect(raw)
		}
		return out
	}
	defer pool.Release()

	for _, raw := range raws {
		wg.Add(1)
		// Invoke blocks while every worker is busy
		if err := pool.Invoke(raw); err != nil {
			wg.Done()
			c.log.Warn("submit failed, checking inline", "err", err)
			collect(raw)
		}
	}
	wg.Wait()

	return out
}

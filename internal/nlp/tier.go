package nlp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrCapabilityUnavailable indica que un tier opcional no cargó o está deshabilitado.
var ErrCapabilityUnavailable = errors.New("capability unavailable")

const (
	OutcomeSuccess     = "success"
	OutcomeError       = "error"
	OutcomeUnavailable = "unavailable"
)

// Observer recibe el resultado de cada intento de tier (métricas, trazas).
type Observer interface {
	ObserveTier(stage, tier, outcome string)
}

type nopObserver struct{}

func (nopObserver) ObserveTier(string, string, string) {}

// Tier es una implementación alternativa del mismo contrato de análisis.
type Tier[T any] interface {
	Name() string
	Available(ctx context.Context) error
	Invoke(ctx context.Context, text string) (T, error)
}

// Probe inicializa una capacidad una sola vez y cachea el resultado (éxito o falla)
// durante toda la vida del proceso. Seguro ante primer uso concurrente.
type Probe struct {
	once    sync.Once
	init    func(ctx context.Context) error
	timeout time.Duration
	err     error
}

func NewProbe(timeout time.Duration, init func(ctx context.Context) error) *Probe {
	return &Probe{init: init, timeout: timeout}
}

// Check ejecuta la inicialización la primera vez; las llamadas siguientes devuelven el resultado cacheado.
func (p *Probe) Check(ctx context.Context) error {
	p.once.Do(func() {
		// La cancelación del primer caller no debe envenenar la capacidad para el resto.
		probeCtx := context.WithoutCancel(ctx)
		if p.timeout > 0 {
			var cancel context.CancelFunc
			probeCtx, cancel = context.WithTimeout(probeCtx, p.timeout)
			defer cancel()
		}
		p.err = safeInit(probeCtx, p.init)
	})
	return p.err
}

func safeInit(ctx context.Context, init func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: init panic: %v", ErrCapabilityUnavailable, r)
		}
	}()
	if init == nil {
		return nil
	}
	return init(ctx)
}

// TierStatus describe la disponibilidad de un tier para diagnósticos.
type TierStatus struct {
	Stage     string `json:"stage"`
	Tier      string `json:"tier"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// chain prueba los tiers en orden y cae al piso determinístico si ninguno responde.
type chain[T any] struct {
	stage     string
	tiers     []Tier[T]
	floorName string
	floor     func(text string) T
	timeout   time.Duration
	observer  Observer
	logger    *zap.Logger
}

func (c *chain[T]) run(ctx context.Context, text string) (T, string) {
	for _, tier := range c.tiers {
		if err := tier.Available(ctx); err != nil {
			c.observer.ObserveTier(c.stage, tier.Name(), OutcomeUnavailable)
			continue
		}
		out, err := c.invoke(ctx, tier, text)
		if err != nil {
			c.observer.ObserveTier(c.stage, tier.Name(), OutcomeError)
			c.logger.Warn("tier failed, falling back",
				zap.String("stage", c.stage),
				zap.String("tier", tier.Name()),
				zap.Error(err),
			)
			continue
		}
		c.observer.ObserveTier(c.stage, tier.Name(), OutcomeSuccess)
		return out, tier.Name()
	}
	c.observer.ObserveTier(c.stage, c.floorName, OutcomeSuccess)
	return c.floor(text), c.floorName
}

func (c *chain[T]) invoke(ctx context.Context, tier Tier[T], text string) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tier %s panic: %v", tier.Name(), r)
		}
	}()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return tier.Invoke(ctx, text)
}

func (c *chain[T]) status(ctx context.Context) []TierStatus {
	out := make([]TierStatus, 0, len(c.tiers)+1)
	for _, tier := range c.tiers {
		st := TierStatus{Stage: c.stage, Tier: tier.Name(), Available: true}
		if err := tier.Available(ctx); err != nil {
			st.Available = false
			st.Reason = err.Error()
		}
		out = append(out, st)
	}
	return append(out, TierStatus{Stage: c.stage, Tier: c.floorName, Available: true})
}

// capabilityProbe arma un Probe que registra el warning una única vez.
func capabilityProbe(logger *zap.Logger, stage, tier string, timeout time.Duration, init func(ctx context.Context) error) *Probe {
	return NewProbe(timeout, func(ctx context.Context) error {
		err := init(ctx)
		if err != nil {
			logger.Warn("capability unavailable",
				zap.String("stage", stage),
				zap.String("tier", tier),
				zap.Error(err),
			)
		}
		return err
	})
}

func unavailable(reason string) error {
	return fmt.Errorf("%w: %s", ErrCapabilityUnavailable, reason)
}

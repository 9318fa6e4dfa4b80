package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/danielpatrickdp/reactor-stabilizer/internal/client"
	"github.com/danielpatrickdp/reactor-stabilizer/internal/loop"
	"github.com/danielpatrickdp/reactor-stabilizer/internal/session"
)

// #region main

// autopilot plays one full CAPTCHA round against a live verification
// service: acquire a schedule, stabilize the pendulum with a scripted
// controller, submit the trace, print the verdict. With a tight reaction
// time it is expected to be rejected by the reflex trap; that is the
// point — it exercises the whole protocol from the bot's side.
func main() {
	serverURL := flag.String("server", "http://localhost:3000", "verification service base URL")
	gain := flag.Float64("gain", 6.0, "proportional steering gain")
	reaction := flag.Int("reaction", 1, "ticks between controller reactions")
	realtime := flag.Bool("realtime", false, "tick at 60 Hz wall clock instead of as fast as possible")
	seed := flag.Int64("seed", time.Now().UnixNano(), "tilt-sign seed")
	flag.Parse()

	c := client.New(*serverURL)
	m := session.New(session.DefaultConfig(), rand.New(rand.NewSource(*seed)))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, cmd := range m.Reset() {
		dispatch(ctx, c, m, cmd)
	}
	if m.State() != session.StateAwaitingStart {
		log.Fatalf("schedule acquisition failed: %v", m.Err())
	}

	m.OnStartRequested()

	tick := func() {
		if m.State() != session.StateRunning {
			return
		}
		if m.FrameCount()%*reaction == 0 {
			p := m.Pendulum()
			target := p.BasePosition + *gain*math.Tan(p.Angle) + *gain*p.AngularVelocity
			m.OnPointerMove(target)
		}
		for _, cmd := range m.Tick() {
			dispatch(ctx, c, m, cmd)
		}
	}

	if *realtime {
		acc := loop.NewAccumulator(loop.DefaultConfig())
		runCtx, stop := context.WithCancel(ctx)
		go func() {
			for m.State() == session.StateRunning {
				time.Sleep(50 * time.Millisecond)
			}
			stop()
		}()
		_ = acc.Run(runCtx, tick)
	} else {
		for m.State() == session.StateRunning {
			tick()
		}
	}

	fmt.Printf("run %s: state=%s frames=%d\n", m.RunID(), m.State(), m.FrameCount())
	if v := m.Verdict(); v != nil {
		fmt.Printf("verdict: verified=%v message=%q\n", v.Verified, v.Message)
		if v.Stats != nil {
			fmt.Printf("stats: duration=%.1fs max_deviation=%.2f° oscillations=%d score=%d\n",
				v.Stats.Duration, v.Stats.MaxDeviation, v.Stats.Oscillations, v.Stats.StabilityScore)
		}
	} else if err := m.Err(); err != nil {
		fmt.Printf("unverified: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region dispatch

// dispatch performs a machine-emitted outbound command and feeds the
// response back in.
func dispatch(ctx context.Context, c *client.Client, m *session.Machine, cmd session.Command) {
	switch cmd.Kind {
	case session.CommandAcquireSchedule:
		model, err := c.AcquireSchedule(ctx)
		m.OnScheduleReceived(model, err)
	case session.CommandSubmitTelemetry:
		result, err := c.SubmitTelemetry(ctx, cmd.SessionToken, cmd.Trace)
		m.OnVerificationReceived(result, err)
	}
}

// #endregion dispatch

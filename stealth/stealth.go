// Package stealth simulates a human operator on top of raw browser input.
// It implements human-like typing, pointer movement and pacing so the harness
// does not trip the target's bot-detection heuristics.
package stealth

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"
	"unicode"

	"github.com/nikshitha/signup-harness/browser"
	"github.com/nikshitha/signup-harness/config"
	"github.com/nikshitha/signup-harness/logger"
)

// Simulator wraps raw element input with variable latency and mistakes
type Simulator struct {
	config *config.StealthConfig
	logger *logger.Logger
	rand   *rand.Rand

	// last known pointer position
	mouse Point
}

// NewSimulator creates a new simulator. A nil source is seeded from the clock.
func NewSimulator(cfg *config.StealthConfig, log *logger.Logger, r *rand.Rand) *Simulator {
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{
		config: cfg,
		logger: log.WithModule("stealth"),
		rand:   r,
		mouse:  Point{X: 683, Y: 384},
	}
}

// Point represents a 2D coordinate
type Point struct {
	X, Y float64
}

// ==============================================================================
// Typing
// ==============================================================================

// Type clears the element and types text one character at a time. With
// probability TypingMistakeRate per character it types a neighbouring key,
// deletes it and then types the intended character. It pauses for a settle
// delay once the whole string is in.
func (s *Simulator) Type(ctx context.Context, el browser.Element, text string) error {
	if err := el.Clear(); err != nil {
		return fmt.Errorf("clear: %w", err)
	}

	mistakes := 0
	for _, char := range text {
		if s.config.TypingMistakeRate > 0 && s.rand.Float64() < s.config.TypingMistakeRate {
			if err := el.Input(string(s.getAdjacentKey(char))); err != nil {
				return err
			}
			if err := s.RandomDelay(ctx, s.config.TypingDelayMin, s.config.TypingDelayMax); err != nil {
				return err
			}
			if err := el.Backspace(); err != nil {
				return err
			}
			if err := s.RandomDelay(ctx, s.config.TypingDelayMin, s.config.TypingDelayMax); err != nil {
				return err
			}
			mistakes++
		}

		if err := el.Input(string(char)); err != nil {
			return err
		}

		if err := s.RandomDelay(ctx, s.config.TypingDelayMin, s.config.TypingDelayMax); err != nil {
			return err
		}
	}

	s.logger.StealthAction("typing", map[string]interface{}{
		"length":   len(text),
		"mistakes": mistakes,
	})

	return s.RandomDelay(ctx, s.config.SettleDelayMin, s.config.SettleDelayMax)
}

// Select chooses a dropdown option by value and pauses briefly
func (s *Simulator) Select(ctx context.Context, el browser.Element, value string) error {
	if err := el.Select(value); err != nil {
		return err
	}
	return s.RandomDelay(ctx, s.config.SelectPauseMin, s.config.SelectPauseMax)
}

// qwertyRows lists the keyboard rows top to bottom. Each row sits half a key
// right of the one above it.
var qwertyRows = []string{"1234567890", "qwertyuiop", "asdfghjkl", "zxcvbnm"}

var neighbours = buildNeighbours(qwertyRows)

func buildNeighbours(rows []string) map[rune][]rune {
	at := func(r, c int) (rune, bool) {
		if r < 0 || r >= len(rows) || c < 0 || c >= len(rows[r]) {
			return 0, false
		}
		return rune(rows[r][c]), true
	}

	m := make(map[rune][]rune)
	for r, row := range rows {
		for c, key := range row {
			for _, pos := range [][2]int{
				{r, c - 1}, {r, c + 1},
				{r - 1, c}, {r - 1, c + 1},
				{r + 1, c - 1}, {r + 1, c},
			} {
				if n, ok := at(pos[0], pos[1]); ok {
					m[key] = append(m[key], n)
				}
			}
		}
	}
	return m
}

// getAdjacentKey picks a physical neighbour of char, keeping its case.
// Keys off the main block fall back to 'x'.
func (s *Simulator) getAdjacentKey(char rune) rune {
	adjacent, ok := neighbours[unicode.ToLower(char)]
	if !ok {
		return 'x'
	}

	key := adjacent[s.rand.Intn(len(adjacent))]
	if unicode.IsUpper(char) {
		return unicode.ToUpper(key)
	}
	return key
}

// ==============================================================================
// Pointer movement
// ==============================================================================

// Click moves the pointer to the element along a curved path, pauses, and
// performs a native click
func (s *Simulator) Click(ctx context.Context, session browser.Session, el browser.Element) error {
	x, y, err := el.Center()
	if err != nil {
		return err
	}

	if err := s.MoveMouse(ctx, session, x, y); err != nil {
		return err
	}

	if err := s.RandomDelay(ctx, 50, 200); err != nil {
		return err
	}

	if err := el.Click(); err != nil {
		return err
	}

	return s.RandomDelay(ctx, 100, 300)
}

// MoveMouse moves the pointer from its last position to the target with human-like motion
func (s *Simulator) MoveMouse(ctx context.Context, session browser.Session, targetX, targetY float64) error {
	points := s.generateBezierPath(s.mouse, Point{targetX, targetY})

	if s.config.MouseOvershoot && s.rand.Float64() < 0.3 {
		points = s.addOvershoot(points, targetX, targetY)
	}

	for i, point := range points {
		delay := s.calculateMovementDelay(i, len(points))
		if err := sleep(ctx, time.Duration(delay)*time.Millisecond); err != nil {
			return err
		}

		if err := session.MouseTo(ctx, point.X, point.Y); err != nil {
			return err
		}
	}

	s.logger.StealthAction("mouse_move", map[string]interface{}{
		"from_x": s.mouse.X, "from_y": s.mouse.Y,
		"to_x": targetX, "to_y": targetY,
		"steps": len(points),
	})
	s.mouse = Point{targetX, targetY}

	return nil
}

// generateBezierPath creates a curved path between two points using cubic Bézier
func (s *Simulator) generateBezierPath(start, end Point) []Point {
	distance := math.Sqrt(math.Pow(end.X-start.X, 2) + math.Pow(end.Y-start.Y, 2))
	numSteps := int(distance/10) + 10

	offsetRange := distance * 0.3
	ctrl1 := Point{
		X: start.X + (end.X-start.X)*0.25 + (s.rand.Float64()-0.5)*offsetRange,
		Y: start.Y + (end.Y-start.Y)*0.25 + (s.rand.Float64()-0.5)*offsetRange,
	}
	ctrl2 := Point{
		X: start.X + (end.X-start.X)*0.75 + (s.rand.Float64()-0.5)*offsetRange,
		Y: start.Y + (end.Y-start.Y)*0.75 + (s.rand.Float64()-0.5)*offsetRange,
	}

	points := make([]Point, numSteps)
	for i := 0; i < numSteps; i++ {
		t := float64(i) / float64(numSteps-1)
		points[i] = cubicBezier(t, start, ctrl1, ctrl2, end)
	}

	return points
}

// cubicBezier calculates a point on a cubic Bézier curve
func cubicBezier(t float64, p0, p1, p2, p3 Point) Point {
	u := 1 - t
	tt := t * t
	uu := u * u
	uuu := uu * u
	ttt := tt * t

	return Point{
		X: uuu*p0.X + 3*uu*t*p1.X + 3*u*tt*p2.X + ttt*p3.X,
		Y: uuu*p0.Y + 3*uu*t*p1.Y + 3*u*tt*p2.Y + ttt*p3.Y,
	}
}

// addOvershoot goes 5-15px past the target and corrects back onto it
func (s *Simulator) addOvershoot(points []Point, targetX, targetY float64) []Point {
	overshootX := (s.rand.Float64()*10 + 5) * s.randomSign()
	overshootY := (s.rand.Float64()*10 + 5) * s.randomSign()

	overshootPoint := Point{X: targetX + overshootX, Y: targetY + overshootY}
	points = append(points, overshootPoint)

	correctionSteps := 3 + s.rand.Intn(3)
	for i := 0; i < correctionSteps; i++ {
		t := float64(i+1) / float64(correctionSteps)
		points = append(points, Point{
			X: overshootPoint.X + (targetX-overshootPoint.X)*t,
			Y: overshootPoint.Y + (targetY-overshootPoint.Y)*t,
		})
	}

	return points
}

// calculateMovementDelay is slower at both ends of the path than in the middle
func (s *Simulator) calculateMovementDelay(step, totalSteps int) int {
	progress := float64(step) / float64(totalSteps)
	easeFactor := math.Sin(progress * math.Pi)

	minDelay := int(s.config.MouseSpeedMin * 5)
	maxDelay := int(s.config.MouseSpeedMax * 15)

	delay := maxDelay - int(float64(maxDelay-minDelay)*easeFactor)
	return delay + s.rand.Intn(3)
}

func (s *Simulator) randomSign() float64 {
	if s.rand.Float64() < 0.5 {
		return -1
	}
	return 1
}

// ==============================================================================
// Pacing
// ==============================================================================

// RandomDelay waits a random duration between minMs and maxMs milliseconds
func (s *Simulator) RandomDelay(ctx context.Context, minMs, maxMs int) error {
	delay := minMs
	if maxMs > minMs {
		delay += s.rand.Intn(maxMs - minMs + 1)
	}
	return sleep(ctx, time.Duration(delay)*time.Millisecond)
}

// ActionDelay adds human-like delay between actions
func (s *Simulator) ActionDelay(ctx context.Context) error {
	return s.RandomDelay(ctx, s.config.ActionDelayMin, s.config.ActionDelayMax)
}

// PageLoadDelay lingers on a freshly loaded page
func (s *Simulator) PageLoadDelay(ctx context.Context) error {
	return s.RandomDelay(ctx, s.config.PageLoadWaitMin, s.config.PageLoadWaitMax)
}

func sleep(ctx context.Context, d time.Duration) error {
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

// ==============================================================================
// Fingerprint
// ==============================================================================

// UserAgent returns a desktop Chrome user agent with a randomized version
func (s *Simulator) UserAgent() string {
	platforms := []string{
		"Windows NT 10.0; Win64; x64",
		"Macintosh; Intel Mac OS X 10_15_7",
		"X11; Linux x86_64",
	}
	return fmt.Sprintf(
		"Mozilla/5.0 (%s) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%d.0.%d.%d Safari/537.36",
		platforms[s.rand.Intn(len(platforms))],
		114+s.rand.Intn(14),
		1000+s.rand.Intn(5001),
		10+s.rand.Intn(141),
	)
}

// Viewport returns randomized viewport dimensions
func (s *Simulator) Viewport() (int, int) {
	viewports := []struct{ width, height int }{
		{1920, 1080},
		{1366, 768},
		{1536, 864},
		{1440, 900},
		{1280, 720},
		{1600, 900},
	}
	vp := viewports[s.rand.Intn(len(viewports))]
	return vp.width + s.rand.Intn(20) - 10, vp.height + s.rand.Intn(20) - 10
}

package platform

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"log/slog"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"lautenbacher.net/fireflyjar/config"
	"lautenbacher.net/fireflyjar/firefly"
	"lautenbacher.net/fireflyjar/logging"
	"lautenbacher.net/fireflyjar/util"
)

// glowRGB is the full-brightness color of a simulated firefly, a
// yellow-green close to the bioluminescence of the real insects.
var glowRGB = [3]int{194, 255, 102}

// TUIPlatform simulates the jar in the terminal: one column per
// firefly, a touch key instead of the touch sensor, and a log pane
// fed by the buffering log writer.
type TUIPlatform struct {
	config       *config.Config
	tviewapp     *tview.Application
	intro        *tview.TextView
	jarView      *tview.TextView
	logView      *tview.TextView
	ossignalChan chan os.Signal
	touchEvents  chan *util.Trigger

	frameMu      sync.Mutex
	frame        []int
	frameEvent   *util.AtomicEvent[[]int]
	maxIntensity int

	touchValue   int
	stopChan     chan struct{}
	wg           sync.WaitGroup
	logFlushOnce sync.Once
	readyChan    chan bool
}

// NewTUIPlatform creates the simulation platform. The os signal
// channel is used to translate TUI key presses into the same signals
// the real platform receives from the outside.
func NewTUIPlatform(conf *config.Config, ossignalchan chan os.Signal) *TUIPlatform {
	maxIntensity := firefly.MaxBrightness * conf.Firefly.ScaleNumerator / conf.Firefly.ScaleDenominator
	if maxIntensity < 1 {
		maxIntensity = 1
	}
	return &TUIPlatform{
		config:       conf,
		ossignalChan: ossignalchan,
		touchEvents:  make(chan *util.Trigger),
		frame:        make([]int, conf.Firefly.Count),
		frameEvent:   util.NewAtomicEvent[[]int](),
		maxIntensity: maxIntensity,
		touchValue:   conf.Hardware.Touch.TriggerValue + 100,
		stopChan:     make(chan struct{}),
		readyChan:    make(chan bool),
	}
}

func (s *TUIPlatform) Ready() <-chan bool {
	return s.readyChan
}

func (s *TUIPlatform) TouchEvents() <-chan *util.Trigger {
	return s.touchEvents
}

// WriteIntensity stores the newest value for one firefly and queues a
// redraw. It never blocks, so it is safe to call from the engine's
// tick callback.
func (s *TUIPlatform) WriteIntensity(index, value int) {
	s.frameMu.Lock()
	if index < 0 || index >= len(s.frame) {
		s.frameMu.Unlock()
		return
	}
	s.frame[index] = value
	snapshot := make([]int, len(s.frame))
	copy(snapshot, s.frame)
	s.frameMu.Unlock()

	s.frameEvent.Send(snapshot)
}

func (s *TUIPlatform) Start() error {
	s.initTUI()

	s.wg.Add(1)
	go s.renderLoop()

	go func() {
		if err := s.tviewapp.Run(); err != nil {
			slog.Error("Error running TUI", "error", err)
			s.ossignalChan <- os.Interrupt
		}
	}()
	return nil
}

func (s *TUIPlatform) Stop() {
	close(s.stopChan)
	s.wg.Wait()
	if s.tviewapp != nil {
		s.tviewapp.Stop()
	}
}

// ReleasePower has no hardware line to drop in the simulation; the
// jar "powers off" by ending the program.
func (s *TUIPlatform) ReleasePower() {
	slog.Info("Power hold released - the jar would turn itself off now")
	s.ossignalChan <- os.Interrupt
}

func (s *TUIPlatform) renderLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stopChan:
			slog.Debug("Ending TUI render loop")
			return
		case <-s.frameEvent.Channel():
			frame := s.frameEvent.Value()
			s.tviewapp.QueueUpdateDraw(func() {
				s.jarView.SetText(renderJar(frame, s.maxIntensity))
			})
		}
	}
}

func (s *TUIPlatform) introText() string {
	line1 := fmt.Sprintf("Touch value: [#ffff00]%-4d[white] | Hit [#ff0000]+[white]/[#ff0000]-[white] to change", s.touchValue)
	line2 := "Hit [blue]t[-] to touch the jar"
	line3 := "Hit [#ff0000]q[-] to exit, [#ff0000]r[-] to reload, [#ff0000]Up/Down[-] to scroll logs"
	return fmt.Sprintf("%s\n%s\n%s", line1, line2, line3)
}

func (s *TUIPlatform) initTUI() {
	s.tviewapp = tview.NewApplication()

	s.intro = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	s.intro.SetText(s.introText())
	s.intro.SetBorder(true).SetTitle(" Firefly Jar Simulation ").SetTitleColor(tcell.ColorLightBlue)
	s.intro.SetBackgroundColor(tcell.NewRGBColor(20, 20, 20))

	s.jarView = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	s.jarView.SetBorder(true).SetTitle(" Jar ")
	s.jarView.SetBackgroundColor(tcell.NewRGBColor(10, 10, 20))
	s.jarView.SetText(renderJar(make([]int, s.config.Firefly.Count), s.maxIntensity))

	s.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetChangedFunc(func() {
			s.logView.ScrollToEnd()
			s.tviewapp.Draw()
		})
	s.logView.SetBorder(true).SetTitle(" Logs ").SetTitleColor(tcell.ColorLightBlue)
	s.logView.SetBackgroundColor(tcell.NewRGBColor(40, 40, 40))

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(s.intro, 5, 0, false).
		AddItem(s.jarView, 5, 0, false).
		AddItem(s.logView, 0, 1, true)

	// Flush buffered logs into the log pane after the first draw.
	s.tviewapp.SetAfterDrawFunc(func(screen tcell.Screen) {
		s.logFlushOnce.Do(func() {
			logWriter := tview.ANSIWriter(s.logView)
			logging.SetOutput(logWriter)
			close(s.readyChan)
		})
	})

	s.tviewapp.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC:
			s.ossignalChan <- os.Interrupt
			return nil
		case tcell.KeyRune:
			switch string(event.Rune()) {
			case "t", "T":
				minimum := s.config.Hardware.Touch.TriggerValue
				if s.touchValue >= minimum {
					slog.Debug("Touching the jar", "value", s.touchValue)
					s.touchEvents <- util.NewTrigger("touch", s.touchValue, time.Now())
				} else {
					slog.Info("Touch below trigger value", "value", s.touchValue, "minimum", minimum)
				}
				return nil
			case "q", "Q":
				s.ossignalChan <- os.Interrupt
				return nil
			case "r", "R":
				s.ossignalChan <- syscall.SIGHUP
				return nil
			case "+":
				s.touchValue = min(s.touchValue+5, 1023)
				s.intro.SetText(s.introText())
				return nil
			case "-":
				s.touchValue = max(s.touchValue-5, 0)
				s.intro.SetText(s.introText())
				return nil
			}
		case tcell.KeyUp:
			row, col := s.logView.GetScrollOffset()
			s.logView.ScrollTo(row-1, col)
			return nil
		case tcell.KeyDown:
			row, col := s.logView.GetScrollOffset()
			s.logView.ScrollTo(row+1, col)
			return nil
		}
		return event
	})

	s.tviewapp.SetRoot(layout, true)
}

// renderJar builds the two-line representation of all fireflies.
func renderJar(frame []int, maxIntensity int) string {
	var top, bottom strings.Builder
	for _, value := range frame {
		t, b := intensityGlyphs(value, maxIntensity)
		color := scaledGlowColor(value, maxIntensity)
		top.WriteString(color + " " + t + " [-]")
		bottom.WriteString(color + " " + b + " [-]")
	}
	return top.String() + "\n" + bottom.String()
}

// intensityGlyphs maps an intensity to a two-character bar using the
// unicode block elements, 16 steps from dark to full glow.
func intensityGlyphs(value, maxIntensity int) (string, string) {
	if value <= 0 {
		return " ", "·"
	}
	level := value * 16 / maxIntensity
	if level > 16 {
		level = 16
	}
	blocks := []string{"▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}
	if level <= 0 {
		return " ", "▁"
	}
	if level <= 8 {
		return " ", blocks[level-1]
	}
	return blocks[level-9], "█"
}

// scaledGlowColor dims the firefly glow color down to the given
// intensity and returns it as a tview color tag.
func scaledGlowColor(value, maxIntensity int) string {
	if value < 0 {
		value = 0
	}
	if value > maxIntensity {
		value = maxIntensity
	}
	r := glowRGB[0] * value / maxIntensity
	g := glowRGB[1] * value / maxIntensity
	b := glowRGB[2] * value / maxIntensity
	return fmt.Sprintf("[#%02x%02x%02x]", r, g, b)
}

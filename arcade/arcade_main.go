// arcade boots a Space Invaders cabinet in an SDL window: loads the 4 part
// ROM set, wires the keyboard to the cabinet switches, plays the sampled
// sounds (if provided) and blits the rotated frame twice per 60Hz frame.
package main

import (
	"flag"
	"fmt"
	"image"
	goio "io"
	"log"
	"os"

	"github.com/jmchacon/8080/invaders"
	"github.com/veandco/go-sdl2/mix"
	"github.com/veandco/go-sdl2/sdl"
)

var (
	romDir    = flag.String("rom_dir", "roms", "Directory containing the invaders.h/g/f/e ROM images")
	soundDir  = flag.String("sound_dir", "", "Directory containing the 0.wav-9.wav sample files. Empty runs silent")
	scale     = flag.Int("scale", 2, "Scale factor to render screen")
	trace     = flag.Bool("trace", false, "If true log each instruction to stdout")
	traceFile = flag.String("trace_file", "", "If set log each instruction to this file")
)

// swtch adapts a host key to the io.PortIn1 interface.
type swtch struct {
	b bool
}

func (s *swtch) Input() bool {
	return s.b
}

const kUFO_CHANNEL = 0

func main() {
	flag.Parse()

	rom, err := invaders.LoadROMs(*romDir)
	if err != nil {
		log.Fatalf("Can't load ROM set: %v", err)
	}

	var traceOut goio.Writer
	if *trace {
		traceOut = os.Stdout
	}
	if *traceFile != "" {
		f, err := os.Create(*traceFile)
		if err != nil {
			log.Fatalf("Can't create trace file: %v", err)
		}
		defer f.Close()
		traceOut = f
	}

	// One switch per cabinet input, poked by the SDL key handler below.
	coin := &swtch{}
	tilt := &swtch{}
	p1Start, p1Fire, p1Left, p1Right := &swtch{}, &swtch{}, &swtch{}, &swtch{}
	p2Start, p2Fire, p2Left, p2Right := &swtch{}, &swtch{}, &swtch{}, &swtch{}
	keys := map[sdl.Keycode]*swtch{
		sdl.K_c:     coin,
		sdl.K_t:     tilt,
		sdl.K_1:     p1Start,
		sdl.K_SPACE: p1Fire,
		sdl.K_LEFT:  p1Left,
		sdl.K_RIGHT: p1Right,
		sdl.K_2:     p2Start,
		sdl.K_w:     p2Fire,
		sdl.K_a:     p2Left,
		sdl.K_d:     p2Right,
	}
	p1 := &invaders.PlayerControls{Start: p1Start, Fire: p1Fire, Left: p1Left, Right: p1Right}
	p2 := &invaders.PlayerControls{Start: p2Start, Fire: p2Fire, Left: p2Left, Right: p2Right}

	sdl.Main(func() {
		var window *sdl.Window
		var surface *sdl.Surface
		sdl.Do(func() {
			if err := sdl.Init(sdl.INIT_EVERYTHING); err != nil {
				log.Fatalf("Can't init SDL: %v", err)
			}
			var err error
			// The frame is rotated for display so the window is portrait.
			window, err = sdl.CreateWindow("Space Invaders", sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
				int32(invaders.Height**scale), int32(invaders.Width**scale), sdl.WINDOW_SHOWN)
			if err != nil {
				log.Fatalf("Can't create window: %v", err)
			}
			surface, err = window.GetSurface()
			if err != nil {
				log.Fatalf("Can't get window surface: %v", err)
			}
		})

		// Audio degrades to silent if the samples or the device are missing;
		// video is mandatory, audio isn't.
		var chunks [invaders.SOUND_MAX]*mix.Chunk
		if *soundDir != "" {
			sdl.Do(func() {
				if err := mix.OpenAudio(mix.DEFAULT_FREQUENCY, mix.DEFAULT_FORMAT, mix.DEFAULT_CHANNELS, 1024); err != nil {
					log.Printf("Can't open audio, continuing silent: %v", err)
					return
				}
				for i := range chunks {
					c, err := mix.LoadWAV(fmt.Sprintf("%s/%d.wav", *soundDir, i))
					if err != nil {
						log.Printf("Can't load sample %d.wav, skipping: %v", i, err)
						continue
					}
					chunks[i] = c
				}
			})
		}

		running := true
		m, err := invaders.Init(&invaders.Def{
			Rom:     rom,
			Coin:    coin,
			Tilt:    tilt,
			Players: [2]*invaders.PlayerControls{p1, p2},
			Trace:   traceOut,
			FrameDone: func(f *image.NRGBA) {
				img := invaders.Scale(invaders.Rotate(f), *scale)
				sdl.Do(func() {
					// White-on-black only, so the raw NRGBA bytes work for
					// any 32 bit surface format without conversion.
					pixels := surface.Pixels()
					pitch := int(surface.Pitch)
					w := img.Bounds().Dx() * 4
					for y := 0; y < img.Bounds().Dy(); y++ {
						copy(pixels[y*pitch:y*pitch+w], img.Pix[y*img.Stride:y*img.Stride+w])
					}
					window.UpdateSurface()

					for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
						switch e := ev.(type) {
						case *sdl.QuitEvent:
							running = false
						case *sdl.KeyboardEvent:
							if sw, ok := keys[e.Keysym.Sym]; ok {
								sw.b = e.Type == sdl.KEYDOWN
							}
						}
					}
				})
			},
			Sound: func(ev invaders.SoundEvent, active bool) {
				c := chunks[ev]
				if c == nil {
					return
				}
				sdl.Do(func() {
					if ev == invaders.SOUND_UFO {
						// The UFO tone loops for as long as its latch bit stays up.
						if active {
							c.Play(kUFO_CHANNEL, -1)
						} else {
							mix.HaltChannel(kUFO_CHANNEL)
						}
						return
					}
					if active {
						c.Play(-1, 0)
					}
				})
			},
		})
		if err != nil {
			log.Fatalf("Can't init cabinet: %v", err)
		}

		for running {
			if err := m.Tick(); err != nil {
				log.Fatalf("Tick error: %v", err)
			}
		}

		sdl.Do(func() {
			mix.CloseAudio()
			window.Destroy()
			sdl.Quit()
		})
	})
}

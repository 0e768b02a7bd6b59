package invaders

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Framebuffer dimensions before the display rotation. The CRT is mounted
// rotated 90 degrees counter clockwise so the visible picture is 224x256.
const (
	Width  = 256
	Height = 224
)

// renderFrame unpacks the 1bpp video RAM into the RGBA frame. Each VRAM
// byte holds 8 pixels LSB first, 32 bytes per 256 pixel row; a set bit
// renders opaque white and a clear bit transparent black.
func (m *Machine) renderFrame() {
	pix := m.frame.Pix
	i := 0
	for b := 0; b < kVRAM_SIZE; b++ {
		v := m.memory.mem[kVRAM_BASE+b]
		for bit := uint8(0); bit < 8; bit++ {
			var c uint8
			if v&(1<<bit) != 0 {
				c = 0xFF
			}
			pix[i] = c
			pix[i+1] = c
			pix[i+2] = c
			pix[i+3] = c
			i += 4
		}
	}
}

// Rotate returns a copy of a framebuffer image turned 90 degrees counter
// clockwise, which is how the cabinet mounts its CRT. The 256x224 frame
// handed to FrameDone becomes the 224x256 portrait picture players see.
func Rotate(src *image.NRGBA) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.SetNRGBA(y, b.Dx()-1-x, src.NRGBAAt(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

// Scale returns src scaled up by the given integer factor using nearest
// neighbor so the chunky 1978 pixels stay square. A factor <= 1 returns src
// unchanged.
func Scale(src *image.NRGBA, factor int) *image.NRGBA {
	if factor <= 1 {
		return src
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst
}

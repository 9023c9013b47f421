package visualization

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/icza/mjpeg"
)

// WriteVideo encodes frames as an MJPEG AVI at the given frame rate. All
// frames must share the first frame's dimensions.
func WriteVideo(path string, frames []*image.RGBA, fps int) error {
	if len(frames) == 0 {
		return fmt.Errorf("visualization: no frames")
	}
	if fps < 1 {
		return fmt.Errorf("visualization: fps %d, want at least 1", fps)
	}
	w := frames[0].Bounds().Dx()
	h := frames[0].Bounds().Dy()

	aw, err := mjpeg.New(path, int32(w), int32(h), int32(fps))
	if err != nil {
		return fmt.Errorf("create video %s: %w", path, err)
	}

	var buf bytes.Buffer
	opts := &jpeg.Options{Quality: 90}
	for i, frame := range frames {
		if frame.Bounds().Dx() != w || frame.Bounds().Dy() != h {
			aw.Close()
			return fmt.Errorf("visualization: frame %d is %dx%d, want %dx%d",
				i, frame.Bounds().Dx(), frame.Bounds().Dy(), w, h)
		}
		buf.Reset()
		if err := jpeg.Encode(&buf, frame, opts); err != nil {
			aw.Close()
			return fmt.Errorf("encode frame %d: %w", i, err)
		}
		if err := aw.AddFrame(buf.Bytes()); err != nil {
			aw.Close()
			return fmt.Errorf("add frame %d: %w", i, err)
		}
	}
	return aw.Close()
}

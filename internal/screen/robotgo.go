package screen

import (
	"image"

	"github.com/go-vgo/robotgo"

	"github.com/vntimejsc-code/RetroAuto-v2-sub001/internal/model"
)

// RobotgoCapturer captures real screen pixels through robotgo.
type RobotgoCapturer struct{}

// NewRobotgoCapturer returns the live-screen capturer.
func NewRobotgoCapturer() *RobotgoCapturer {
	return &RobotgoCapturer{}
}

// Capture implements Capturer.
func (c *RobotgoCapturer) Capture(roi *model.ROI) (image.Image, error) {
	r := resolveROI(c, roi)
	img, err := robotgo.CaptureImg(r.X, r.Y, r.Width, r.Height)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// PixelColor implements Capturer.
func (c *RobotgoCapturer) PixelColor(x, y int) string {
	return robotgo.GetPixelColor(x, y)
}

// Size implements Capturer.
func (c *RobotgoCapturer) Size() (int, int) {
	return robotgo.GetScreenSize()
}
